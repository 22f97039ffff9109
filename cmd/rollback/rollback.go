package rollback

import (
	"github.com/spf13/cobra"

	"github.com/windlass-sh/windlass/cmd/util"
	"github.com/windlass-sh/windlass/pkg/deploy"
)

// New creates a new `rollback` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback",
		Short: "Revert the project to the last deployed revision",
		Long: "Check out the revision recorded by the previous deploy and\n" +
			"restart the service. Config templates are not reverted: whatever\n" +
			"was uploaded since then stays in place.",
		Run: func(cmd *cobra.Command, _ []string) {
			err := util.ForEachHost(cmd, func(d *deploy.Deployer) error {
				return d.Rollback()
			})
			if err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}
