package all

import (
	"github.com/spf13/cobra"

	"github.com/windlass-sh/windlass/cmd/util"
	"github.com/windlass-sh/windlass/pkg/deploy"
)

// New creates a new `all` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Install everything required on a new server and deploy",
		Long: "Provision the server from the base software up to the deployed\n" +
			"project: install, then create followed by deploy. Deploy is\n" +
			"skipped if create fails.",
		Run: func(cmd *cobra.Command, _ []string) {
			err := util.ForEachHost(cmd, func(d *deploy.Deployer) error {
				return d.All()
			})
			if err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}
