package deploy

import (
	"github.com/spf13/cobra"

	"github.com/windlass-sh/windlass/cmd/util"
	"github.com/windlass-sh/windlass/pkg/deploy"
)

// New creates a new `deploy` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the latest version of the project",
		Long: "Synchronize the configuration templates, record the currently\n" +
			"deployed revision, pull the latest source, and restart the\n" +
			"service. Templates are only uploaded when their rendered content\n" +
			"changed, and their reload commands only fire on an actual upload.",
		Run: func(cmd *cobra.Command, _ []string) {
			err := util.ForEachHost(cmd, func(d *deploy.Deployer) error {
				return d.Deploy()
			})
			if err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}
