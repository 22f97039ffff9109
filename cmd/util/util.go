package util

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/windlass-sh/windlass/pkg/config"
	"github.com/windlass-sh/windlass/pkg/deploy"
	"github.com/windlass-sh/windlass/pkg/errors"
	"github.com/windlass-sh/windlass/pkg/remote"
	"github.com/windlass-sh/windlass/pkg/template"
)

// HandleFatalError prints the friendliest available version of `err`, and
// exits nonzero.
func HandleFatalError(err error) {
	fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	os.Exit(1)
}

// HandlePanic prints the stack of a crash before exiting. Deferred in main.
func HandlePanic() {
	if r := recover(); r != nil {
		fmt.Fprintf(os.Stderr, "Windlass crashed: %v\n\n%s\n", r, debug.Stack())
		fmt.Fprintln(os.Stderr, "This is a bug. Please file an issue at "+
			"https://github.com/windlass-sh/windlass/issues.")
		os.Exit(1)
	}
}

// ParseDeploymentFlags loads the deployment config and the target host list
// selected by the persistent CLI flags.
func ParseDeploymentFlags(cmd *cobra.Command) (config.Deployment, []string, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Deployment{}, nil, errors.WithContext(err, "parse config flag")
	}

	host, err := cmd.Flags().GetString("host")
	if err != nil {
		return config.Deployment{}, nil, errors.WithContext(err, "parse host flag")
	}

	cfg, err := config.ParseDeployment(configPath)
	if err != nil {
		return config.Deployment{}, nil, err
	}

	hosts := cfg.Hosts
	if host != "" {
		hosts = []string{host}
	}
	return cfg, hosts, nil
}

// newExecutor is overridden in mock tests.
var newExecutor = func(cfg config.Deployment, host string) (remote.Executor, func(), error) {
	client, err := remote.New(remote.Options{
		Host:         host,
		User:         cfg.SSHUser,
		Password:     cfg.SSHPass,
		KeyPath:      cfg.SSHKeyPath,
		SudoPassword: cfg.AdminPass,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close() }, nil
}

// ForEachHost runs `fn` once per selected host, each as an independent,
// fully sequential run. A failing host aborts only its own remaining steps;
// the other hosts still run, and the first failure is reported at the end.
func ForEachHost(cmd *cobra.Command, fn func(*deploy.Deployer) error) error {
	cfg, hosts, err := ParseDeploymentFlags(cmd)
	if err != nil {
		return err
	}

	registry, err := template.NewRegistry(cfg.Templates)
	if err != nil {
		return errors.WithContext(err, "build template registry")
	}

	var firstErr error
	for _, host := range hosts {
		if err := runHost(cfg, registry, host, fn); err != nil {
			if len(hosts) > 1 {
				log.WithError(err).WithField("host", host).Error(
					"Aborting the remaining steps for this host")
			}
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func runHost(cfg config.Deployment, registry template.Registry, host string,
	fn func(*deploy.Deployer) error) error {

	exec, closeExec, err := newExecutor(cfg, host)
	if err != nil {
		return errors.WithContext(err, "connect to "+host)
	}
	defer closeExec()

	return fn(deploy.New(exec, cfg.Environment(host), registry))
}
