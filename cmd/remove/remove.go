package remove

import (
	"github.com/spf13/cobra"

	"github.com/windlass-sh/windlass/cmd/util"
	"github.com/windlass-sh/windlass/pkg/deploy"
)

// New creates a new `remove` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Remove the project's config files from the server",
		Run: func(cmd *cobra.Command, _ []string) {
			err := util.ForEachHost(cmd, func(d *deploy.Deployer) error {
				return d.Remove()
			})
			if err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}
