package create

import (
	"github.com/spf13/cobra"

	"github.com/windlass-sh/windlass/cmd/util"
	"github.com/windlass-sh/windlass/pkg/deploy"
)

// New creates a new `create` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Clone the project repository onto the server",
		Long: "Clone the project repository into the project path. Fails if\n" +
			"the path already exists on the server.",
		Run: func(cmd *cobra.Command, _ []string) {
			err := util.ForEachHost(cmd, func(d *deploy.Deployer) error {
				return d.Create()
			})
			if err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}
