package config

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/windlass-sh/windlass/cmd/util"
	"github.com/windlass-sh/windlass/pkg/config"
	"github.com/windlass-sh/windlass/pkg/errors"
)

// New creates a new `config` command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved deployment environment",
		Long: "Print the variables each host's templates and remote paths are\n" +
			"resolved against. With --init, write a starter deployment config\n" +
			"for the current project instead.",
		Run: func(cmd *cobra.Command, _ []string) {
			if err := run(cmd); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().Bool("init", false,
		"write a starter deployment config instead of printing the environment")
	return cmd
}

func run(cmd *cobra.Command) error {
	shouldInit, err := cmd.Flags().GetBool("init")
	if err != nil {
		return errors.WithContext(err, "parse init flag")
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return errors.WithContext(err, "parse config flag")
	}

	if shouldInit {
		if err := config.WriteStarterDeployment(configPath); err != nil {
			return err
		}
		fmt.Printf("Wrote %s. Fill in the hosts list before deploying.\n", configPath)
		return nil
	}

	cfg, hosts, err := util.ParseDeploymentFlags(cmd)
	if err != nil {
		return err
	}

	for _, host := range hosts {
		fmt.Printf("%s:\n", host)

		vars := cfg.Environment(host).Snapshot()
		keys := make([]string, 0, len(vars))
		for key := range vars {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			fmt.Printf("  %s: %s\n", key, vars[key])
		}
	}
	return nil
}
