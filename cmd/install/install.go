package install

import (
	"github.com/spf13/cobra"

	"github.com/windlass-sh/windlass/cmd/util"
	"github.com/windlass-sh/windlass/pkg/deploy"
)

// New creates a new `install` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install the base system for the entire server",
		Long: "Ensure the configured locale, update the package index, and\n" +
			"install the base packages. Safe to re-run.",
		Run: func(cmd *cobra.Command, _ []string) {
			err := util.ForEachHost(cmd, func(d *deploy.Deployer) error {
				return d.Install()
			})
			if err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}
