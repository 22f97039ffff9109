package config

import (
	"os"
	"os/user"
	"path/filepath"

	"github.com/ghodss/yaml"
	goversion "github.com/hashicorp/go-version"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	git "gopkg.in/src-d/go-git.v4"

	"github.com/windlass-sh/windlass/pkg/env"
	"github.com/windlass-sh/windlass/pkg/errors"
	"github.com/windlass-sh/windlass/pkg/template"
	"github.com/windlass-sh/windlass/pkg/version"
)

const (
	// DeploymentConfigPath is the default path to the deployment config,
	// relative to the project directory.
	DeploymentConfigPath = "windlass.yaml"

	// InitialDeploymentConfigVersion is the first version of the deployment
	// config. Config files that do not specify a version will default to
	// this version.
	InitialDeploymentConfigVersion = "v1alpha1"

	// SupportedDeploymentConfigVersion is the supported version of the
	// deployment config of the current Windlass binary.
	SupportedDeploymentConfigVersion = "v1alpha1"

	// DefaultLocale is used when the config doesn't set one.
	DefaultLocale = "en_US.UTF-8"
)

// Deployment describes the servers a project deploys to and the variables
// that parametrize its templates. It's loaded once at startup and is
// immutable for the rest of the command invocation.
type Deployment struct {
	Version string `json:"version,omitempty"`

	// Hosts are the deployment targets. Required.
	Hosts []string `json:"hosts"`

	SSHUser    string `json:"sshUser,omitempty"`
	SSHPass    string `json:"sshPass,omitempty"`
	SSHKeyPath string `json:"sshKeyPath,omitempty"`

	// AdminPass is the sudo password on the targets. When it's empty, sudo
	// must be configured passwordless.
	AdminPass string `json:"adminPass,omitempty"`

	ProjectName string `json:"projectName,omitempty"`
	RepoURL     string `json:"repoURL,omitempty"`
	LiveHost    string `json:"liveHost,omitempty"`
	Locale      string `json:"locale,omitempty"`

	// DBPass is the database password substituted into templates. When it's
	// unset, a random password is derived the first time a template needs
	// one.
	DBPass string `json:"dbPass,omitempty"`

	// MinVersion is the oldest CLI version the project deploys with.
	MinVersion string `json:"minVersion,omitempty"`

	// Templates are merged over the built-in template set.
	Templates map[string]template.Descriptor `json:"templates,omitempty"`

	// Only populated and consumed by Windlass. Never set by the user.
	path string
}

func (c Deployment) getVersion() string {
	return c.Version
}

// GetPath returns the filepath that the deployment config was parsed from.
func (c Deployment) GetPath() string {
	return c.path
}

// The following are overridden in mock tests.
var (
	currentUsername = func() (string, error) {
		u, err := user.Current()
		if err != nil {
			return "", err
		}
		return u.Username, nil
	}
	workingDir = os.Getwd
	originURL  = OriginURL
)

// ParseDeployment parses the deployment config at `path` and fills in the
// defaults for the optional fields.
func ParseDeployment(path string) (Deployment, error) {
	config := Deployment{
		path:    path,
		Version: InitialDeploymentConfigVersion,
	}
	if err := parseConfig(path, &config, SupportedDeploymentConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return Deployment{}, errors.NewFriendlyError(
				"The deployment config doesn't exist at %q.\n"+
					"Run `windlass config --init` in your project directory "+
					"to create a starter config.", path)
		}
		return Deployment{}, errors.WithContext(err, "parse")
	}

	if len(config.Hosts) == 0 {
		return Deployment{}, errors.NewFriendlyError(
			"Aborting, no hosts defined.\n"+
				"Add at least one host to the `hosts` list in %q.", path)
	}

	if err := config.checkMinVersion(); err != nil {
		return Deployment{}, err
	}

	if config.SSHUser == "" {
		username, err := currentUsername()
		if err != nil {
			return Deployment{}, errors.WithContext(err, "get current user")
		}
		config.SSHUser = username
	}

	if config.SSHKeyPath != "" {
		expanded, err := homedir.Expand(config.SSHKeyPath)
		if err != nil {
			return Deployment{}, errors.WithContext(err, "expand key path")
		}
		config.SSHKeyPath = expanded
	}

	if config.ProjectName == "" {
		wd, err := workingDir()
		if err != nil {
			return Deployment{}, errors.WithContext(err, "get working directory")
		}
		config.ProjectName = filepath.Base(wd)
	}

	if config.LiveHost == "" {
		config.LiveHost = config.Hosts[0]
	}

	if config.Locale == "" {
		config.Locale = DefaultLocale
	}

	if config.RepoURL == "" {
		if url, err := originURL(filepath.Dir(path)); err == nil {
			config.RepoURL = url
		} else {
			log.WithError(err).Debug(
				"Failed to derive the repository URL from the local checkout")
		}
	}
	return config, nil
}

// checkMinVersion enforces the config's minVersion constraint. Dev builds
// aren't stamped with a version, so they always pass.
func (c Deployment) checkMinVersion() error {
	if c.MinVersion == "" || version.Version == version.EmptyValue {
		return nil
	}

	min, err := goversion.NewVersion(c.MinVersion)
	if err != nil {
		return errors.WithContext(err, "parse minVersion")
	}

	current, err := goversion.NewVersion(version.Version)
	if err != nil {
		return errors.WithContext(err, "parse CLI version")
	}

	if current.LessThan(min) {
		return errors.NewFriendlyError(
			"This project requires windlass %s or newer, but the local CLI "+
				"is at %s.\nUpgrade the CLI before deploying.", min, current)
	}
	return nil
}

// Environment builds the template environment for a run against `host`.
func (c Deployment) Environment(host string) *env.Environment {
	vars := map[string]string{
		"host":      host,
		"user":      c.SSHUser,
		"proj_name": c.ProjectName,
		"proj_path": "/home/" + c.SSHUser + "/" + c.ProjectName,
		"live_host": c.LiveHost,
		"repo_url":  c.RepoURL,
		"locale":    c.Locale,
	}
	if c.DBPass != "" {
		vars[env.DBPassKey] = c.DBPass
	}
	return env.New(vars)
}

// OriginURL returns the URL of the `origin` remote of the git checkout at
// `path`.
func OriginURL(path string) (string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return "", errors.WithContext(err, "open repository")
	}

	remote, err := repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return "", errors.WithContext(err, "lookup origin")
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", errors.New("origin remote has no URL")
	}
	return urls[0], nil
}

// WriteStarterDeployment scaffolds a deployment config at `path` for the
// user to fill in. It refuses to overwrite an existing config.
func WriteStarterDeployment(path string) error {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return errors.WithContext(err, "check path")
	}
	if exists {
		return errors.NewFriendlyError(
			"A deployment config already exists at %q. Refusing to overwrite it.", path)
	}

	starter := Deployment{
		Version:    SupportedDeploymentConfigVersion,
		Hosts:      []string{},
		SSHKeyPath: "~/.ssh/id_rsa",
	}
	if wd, err := workingDir(); err == nil {
		starter.ProjectName = filepath.Base(wd)
	}
	if url, err := originURL(filepath.Dir(path)); err == nil {
		starter.RepoURL = url
	}

	yamlBytes, err := yaml.Marshal(starter)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}
