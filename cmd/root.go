package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	allCmd "github.com/windlass-sh/windlass/cmd/all"
	configCmd "github.com/windlass-sh/windlass/cmd/config"
	createCmd "github.com/windlass-sh/windlass/cmd/create"
	deployCmd "github.com/windlass-sh/windlass/cmd/deploy"
	execCmd "github.com/windlass-sh/windlass/cmd/exec"
	installCmd "github.com/windlass-sh/windlass/cmd/install"
	removeCmd "github.com/windlass-sh/windlass/cmd/remove"
	restartCmd "github.com/windlass-sh/windlass/cmd/restart"
	rollbackCmd "github.com/windlass-sh/windlass/cmd/rollback"
	"github.com/windlass-sh/windlass/cmd/util"
	versionCmd "github.com/windlass-sh/windlass/cmd/version"
	"github.com/windlass-sh/windlass/pkg/config"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "WINDLASS_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:          "windlass",
		Short:        "Deploy a project to its servers over SSH",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c",
		config.DeploymentConfigPath, "path to the deployment config")
	rootCmd.PersistentFlags().StringP("host", "H", "",
		"limit the run to a single host")

	rootCmd.AddCommand(
		allCmd.New(),
		configCmd.New(),
		createCmd.New(),
		deployCmd.New(),
		execCmd.NewApt(),
		execCmd.NewRun(),
		execCmd.NewSudo(),
		installCmd.New(),
		removeCmd.New(),
		restartCmd.New(),
		rollbackCmd.New(),
		versionCmd.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}
