package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windlass-sh/windlass/pkg/env"
	"github.com/windlass-sh/windlass/pkg/errors"
)

func TestNewRegistryDefaults(t *testing.T) {
	registry, err := NewRegistry(nil)
	require.NoError(t, err)

	exp := Registry{
		{
			Name:          "nginx",
			LocalPath:     "deploy/nginx.conf",
			RemotePath:    "/etc/nginx/sites-enabled/%(live_host)s.conf",
			ReloadCommand: "service nginx restart",
		},
		{
			Name:          "supervisor",
			LocalPath:     "deploy/supervisor.conf",
			RemotePath:    "/etc/supervisor/conf.d/%(proj_name)s.conf",
			ReloadCommand: "supervisorctl reload",
		},
	}
	assert.Equal(t, exp, registry)
}

func TestNewRegistryMerge(t *testing.T) {
	registry, err := NewRegistry(map[string]Descriptor{
		// Replaces the built-in nginx template entirely.
		"nginx": {
			LocalPath:  "deploy/custom-nginx.conf",
			RemotePath: "/etc/nginx/conf.d/custom.conf",
		},
		"cron": {
			LocalPath:  "deploy/crontab",
			RemotePath: "/etc/cron.d/%(proj_name)s",
			Owner:      "root",
			Mode:       "600",
		},
	})
	require.NoError(t, err)

	// Ordered by name, with names filled in from the map keys.
	require.Len(t, registry, 3)
	assert.Equal(t, "cron", registry[0].Name)
	assert.Equal(t, "nginx", registry[1].Name)
	assert.Equal(t, "supervisor", registry[2].Name)
	assert.Equal(t, "deploy/custom-nginx.conf", registry[1].LocalPath)
	assert.Equal(t, "600", registry[0].Mode)
}

func TestNewRegistryMissingFields(t *testing.T) {
	_, err := NewRegistry(map[string]Descriptor{
		"broken": {RemotePath: "/etc/broken.conf"},
	})
	assert.Equal(t, errors.WithContext(
		errors.MissingFieldError{Field: "localPath"}, "template broken"), err)

	_, err = NewRegistry(map[string]Descriptor{
		"broken": {LocalPath: "deploy/broken.conf"},
	})
	assert.Equal(t, errors.WithContext(
		errors.MissingFieldError{Field: "remotePath"}, "template broken"), err)
}

func TestResolve(t *testing.T) {
	environment := env.New(map[string]string{
		"proj_name": "blog",
		"live_host": "example.com",
	})

	desc := Descriptor{
		Name:          "nginx",
		LocalPath:     "deploy/nginx.conf",
		RemotePath:    "/etc/nginx/sites-enabled/%(live_host)s.conf",
		ReloadCommand: "supervisorctl restart %(proj_name)s:gunicorn",
	}

	resolved, err := desc.Resolve(environment)
	require.NoError(t, err)
	assert.Equal(t, Descriptor{
		Name:          "nginx",
		LocalPath:     "deploy/nginx.conf",
		RemotePath:    "/etc/nginx/sites-enabled/example.com.conf",
		ReloadCommand: "supervisorctl restart blog:gunicorn",
	}, resolved)
}

func TestResolveMissingVariable(t *testing.T) {
	environment := env.New(map[string]string{})

	desc := Descriptor{
		Name:       "nginx",
		LocalPath:  "deploy/nginx.conf",
		RemotePath: "/etc/nginx/sites-enabled/%(live_host)s.conf",
	}

	_, err := desc.Resolve(environment)
	assert.Equal(t, errors.MissingVariable{Key: "live_host"}, err)
}
