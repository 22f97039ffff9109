package restart

import (
	"github.com/spf13/cobra"

	"github.com/windlass-sh/windlass/cmd/util"
	"github.com/windlass-sh/windlass/pkg/deploy"
)

// New creates a new `restart` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Restart the project's service",
		Long: "Signal the running service gracefully if a pid file exists,\n" +
			"otherwise start it fresh via the supervisor.",
		Run: func(cmd *cobra.Command, _ []string) {
			err := util.ForEachHost(cmd, func(d *deploy.Deployer) error {
				return d.Restart()
			})
			if err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}
