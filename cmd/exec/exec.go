// Package exec implements the raw passthrough commands: `run`, `sudo`, and
// `apt`. They map one to one onto the remote executor, with no orchestration
// around them.
package exec

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/windlass-sh/windlass/cmd/util"
	"github.com/windlass-sh/windlass/pkg/deploy"
)

// NewRun creates a new `run` command.
func NewRun() *cobra.Command {
	return &cobra.Command{
		Use:   "run COMMAND",
		Short: "Run a shell command on the server",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			passthrough(cmd, args, func(d *deploy.Deployer, command string) (string, error) {
				return d.Run(command)
			})
		},
	}
}

// NewSudo creates a new `sudo` command.
func NewSudo() *cobra.Command {
	return &cobra.Command{
		Use:   "sudo COMMAND",
		Short: "Run a shell command on the server with elevated privileges",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			passthrough(cmd, args, func(d *deploy.Deployer, command string) (string, error) {
				return d.Sudo(command)
			})
		},
	}
}

// NewApt creates a new `apt` command.
func NewApt() *cobra.Command {
	return &cobra.Command{
		Use:   "apt PACKAGES",
		Short: "Install one or more system packages via apt",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			err := util.ForEachHost(cmd, func(d *deploy.Deployer) error {
				return d.Apt(strings.Join(args, " "))
			})
			if err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

func passthrough(cmd *cobra.Command, args []string,
	fn func(*deploy.Deployer, string) (string, error)) {

	command := strings.Join(args, " ")
	err := util.ForEachHost(cmd, func(d *deploy.Deployer) error {
		output, err := fn(d, command)
		if err != nil {
			return err
		}
		fmt.Print(output)
		return nil
	})
	if err != nil {
		util.HandleFatalError(err)
	}
}
