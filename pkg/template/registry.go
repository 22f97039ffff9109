package template

import (
	"sort"

	"github.com/windlass-sh/windlass/pkg/errors"
)

// A Descriptor maps a logical config name to a local template file and its
// destination on the deployment target. Every string field except Name may
// contain %(key)s placeholders that are resolved against the deployment
// environment.
type Descriptor struct {
	// Name is the unique key of the template. It's set from the map key in
	// the deployment config, so it's never parsed from yaml directly.
	Name string `json:"-"`

	LocalPath  string `json:"localPath"`
	RemotePath string `json:"remotePath"`

	// ReloadCommand makes the dependent service pick up the new config. It
	// only runs when the upload actually happened.
	ReloadCommand string `json:"reloadCommand,omitempty"`

	Owner string `json:"owner,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

// Registry is the fixed set of templates synchronized on deploy, ordered by
// name so runs are deterministic.
//
// Two descriptors resolving to the same remote path for a given environment
// is undefined behavior: the last one synced wins, and its reload command is
// the one that fires.
type Registry []Descriptor

// Defaults returns the built-in templates every project ships with.
func Defaults() map[string]Descriptor {
	return map[string]Descriptor{
		"nginx": {
			LocalPath:     "deploy/nginx.conf",
			RemotePath:    "/etc/nginx/sites-enabled/%(live_host)s.conf",
			ReloadCommand: "service nginx restart",
		},
		"supervisor": {
			LocalPath:     "deploy/supervisor.conf",
			RemotePath:    "/etc/supervisor/conf.d/%(proj_name)s.conf",
			ReloadCommand: "supervisorctl reload",
		},
	}
}

// NewRegistry merges the templates declared in the deployment config over
// the built-in defaults. A config entry with the same name as a default
// replaces it entirely.
func NewRegistry(extra map[string]Descriptor) (Registry, error) {
	merged := Defaults()
	for name, desc := range extra {
		merged[name] = desc
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	registry := make(Registry, 0, len(merged))
	for _, name := range names {
		desc := merged[name]
		desc.Name = name
		if desc.LocalPath == "" {
			return nil, errors.WithContext(
				errors.MissingFieldError{Field: "localPath"}, "template "+name)
		}
		if desc.RemotePath == "" {
			return nil, errors.WithContext(
				errors.MissingFieldError{Field: "remotePath"}, "template "+name)
		}
		registry = append(registry, desc)
	}
	return registry, nil
}

// Resolve substitutes the placeholders in every field of the descriptor.
func (desc Descriptor) Resolve(vars Vars) (Descriptor, error) {
	resolved := desc
	for _, field := range []*string{
		&resolved.LocalPath, &resolved.RemotePath, &resolved.ReloadCommand,
		&resolved.Owner, &resolved.Mode,
	} {
		rendered, err := Render(*field, vars)
		if err != nil {
			return Descriptor{}, err
		}
		*field = rendered
	}
	return resolved, nil
}
