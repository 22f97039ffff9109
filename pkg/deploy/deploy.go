// Package deploy sequences the deployment steps against a single host.
// Steps run strictly sequentially over one SSH connection, and never retry:
// the first error aborts the remaining steps of the current command.
package deploy

import (
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"
	shellquote "github.com/kballard/go-shellquote"
	log "github.com/sirupsen/logrus"

	"github.com/windlass-sh/windlass/pkg/env"
	"github.com/windlass-sh/windlass/pkg/errors"
	"github.com/windlass-sh/windlass/pkg/remote"
	"github.com/windlass-sh/windlass/pkg/template"
)

// basePackages are installed on every deployment target during `install`.
const basePackages = "nginx supervisor git-core"

// nginxPidPath decides whether `restart` signals the running process or
// starts a fresh one through the supervisor.
const nginxPidPath = "/var/run/nginx.pid"

// revisionMarker is the file in the project directory that records the
// revision that was live before the most recent deploy. Rollback checks this
// revision out again.
const revisionMarker = "last.commit"

// A Deployer runs the deployment steps against one host.
type Deployer struct {
	exec        remote.Executor
	environment *env.Environment
	registry    template.Registry
	clock       clockwork.Clock
}

// New creates a Deployer for the given host environment.
func New(exec remote.Executor, environment *env.Environment, registry template.Registry) *Deployer {
	return &Deployer{
		exec:        exec,
		environment: environment,
		registry:    registry,
		clock:       clockwork.NewRealClock(),
	}
}

// step brackets a deployment step with structured logs.
func (d *Deployer) step(name string, fn func() error) error {
	entry := log.WithFields(log.Fields{
		"step": name,
		"host": d.environment.Get("host"),
	})
	entry.Info("Starting step")

	start := d.clock.Now()
	err := fn()
	entry = entry.WithField("duration", d.clock.Now().Sub(start).String())

	if err != nil {
		entry.WithError(err).Error("Step failed")
		return errors.WithContext(err, name)
	}
	entry.Info("Finished step")
	return nil
}

// Install ensures the locale and installs the base package set for the
// entire server. Safe to re-run.
func (d *Deployer) Install() error {
	return d.step("install", func() error {
		locale := "LC_ALL=" + d.environment.Get("locale")
		current, err := d.exec.Sudo("cat /etc/default/locale")
		if err != nil {
			return errors.WithContext(err, "read locale")
		}
		if !strings.Contains(current, locale) {
			if _, err := d.exec.Sudo(shellquote.Join("update-locale", locale)); err != nil {
				return errors.WithContext(err, "update locale")
			}
		}

		if _, err := d.exec.Sudo("apt-get update -y -q"); err != nil {
			return errors.WithContext(err, "update package index")
		}
		return d.apt(basePackages)
	})
}

// Apt installs the given space separated system packages.
func (d *Deployer) Apt(packages string) error {
	return d.step("apt", func() error {
		return d.apt(packages)
	})
}

func (d *Deployer) apt(packages string) error {
	if _, err := d.exec.Sudo("apt-get install -y -q " + packages); err != nil {
		return errors.WithContext(err, "install packages")
	}
	return nil
}

// Create clones the project repository into the project path. It fails if
// the path already exists.
func (d *Deployer) Create() error {
	return d.step("create", func() error {
		repoURL := d.environment.Get("repo_url")
		if repoURL == "" {
			return errors.NewFriendlyError(
				"No repository URL configured.\n" +
					"Set repoURL in the deployment config, or run windlass " +
					"from a checkout with an `origin` remote.")
		}

		clone := shellquote.Join("git", "clone", repoURL, d.environment.Get("proj_path"))
		if _, err := d.exec.Run(clone); err != nil {
			return errors.WithContext(err, "clone repository")
		}
		return nil
	})
}

// Remove deletes every registered template from the host.
func (d *Deployer) Remove() error {
	return d.step("remove", func() error {
		for _, desc := range d.registry {
			if err := template.Remove(desc, d.environment, d.exec); err != nil {
				return errors.WithContext(err, fmt.Sprintf("remove template %q", desc.Name))
			}
		}
		return nil
	})
}

// Deploy synchronizes every registered template, records the currently
// deployed revision, pulls the latest source, and restarts the service.
func (d *Deployer) Deploy() error {
	return d.step("deploy", func() error {
		for _, desc := range d.registry {
			result, err := template.Sync(desc, d.environment, d.exec)
			if err != nil {
				return errors.WithContext(err, fmt.Sprintf("sync template %q", desc.Name))
			}
			log.WithFields(log.Fields{
				"template": desc.Name,
				"result":   result.String(),
			}).Info("Synchronized template")
		}

		// The marker records the pre-pull revision, which is what a
		// subsequent rollback returns to.
		if _, err := d.project("git rev-parse HEAD > " + revisionMarker); err != nil {
			return errors.WithContext(err, "record revision")
		}
		if _, err := d.project("git pull origin master"); err != nil {
			return errors.WithContext(err, "pull source")
		}
		return d.restart()
	})
}

// Rollback checks out the revision recorded by the previous deploy and
// restarts. Template state is not reverted: configs uploaded since then stay
// in place.
func (d *Deployer) Rollback() error {
	return d.step("rollback", func() error {
		if _, err := d.project("git checkout `cat " + revisionMarker + "`"); err != nil {
			return errors.WithContext(err, "checkout recorded revision")
		}
		return d.restart()
	})
}

// Restart signals the running service gracefully, or starts it fresh via
// the supervisor if no pid file is recorded.
func (d *Deployer) Restart() error {
	return d.step("restart", d.restart)
}

func (d *Deployer) restart() error {
	exists, err := d.exec.PathExists(nginxPidPath)
	if err != nil {
		return errors.WithContext(err, "check pid file")
	}

	if exists {
		if _, err := d.exec.Sudo("kill -HUP `cat " + nginxPidPath + "`"); err != nil {
			return errors.WithContext(err, "signal nginx")
		}
		return nil
	}

	start := shellquote.Join("supervisorctl", "start", d.environment.Get("proj_name")+":nginx")
	if _, err := d.exec.Sudo(start); err != nil {
		return errors.WithContext(err, "start service")
	}
	return nil
}

// All provisions the host from scratch: install, then create followed by
// deploy. Deploy is skipped if create fails.
func (d *Deployer) All() error {
	if err := d.Install(); err != nil {
		return err
	}
	if err := d.Create(); err != nil {
		return err
	}
	return d.Deploy()
}

// Run executes a raw shell command on the host.
func (d *Deployer) Run(command string) (string, error) {
	return d.exec.Run(command)
}

// Sudo executes a raw shell command on the host with elevated privileges.
func (d *Deployer) Sudo(command string) (string, error) {
	return d.exec.Sudo(command)
}

// project runs a command from within the project directory.
func (d *Deployer) project(command string) (string, error) {
	cd := "cd " + shellquote.Join(d.environment.Get("proj_path"))
	return d.exec.Run(cd + " && " + command)
}
