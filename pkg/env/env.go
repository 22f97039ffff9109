package env

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/windlass-sh/windlass/pkg/errors"
)

// DBPassKey is the environment key holding the database password. It's the
// only derived variable: templates that don't reference it never cause it to
// be computed.
const DBPassKey = "db_pass"

// An Environment holds the per-deployment variables that parametrize
// templates and remote paths. It's built once per host run, and is immutable
// except for the one-time derivation of the database password.
type Environment struct {
	vars map[string]string
}

// New creates an Environment from the given variables.
func New(vars map[string]string) *Environment {
	copied := map[string]string{}
	for k, v := range vars {
		copied[k] = v
	}
	return &Environment{vars: copied}
}

// Lookup returns the value for `key`, and whether it's set.
func (e *Environment) Lookup(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Get returns the value for `key`, or the empty string if it's unset.
func (e *Environment) Get(key string) string {
	return e.vars[key]
}

// Snapshot returns a copy of the current variables.
func (e *Environment) Snapshot() map[string]string {
	copied := map[string]string{}
	for k, v := range e.vars {
		copied[k] = v
	}
	return copied
}

// generatePassword is overridden in mock tests.
var generatePassword = randomPassword

// EnsureDBPass returns the database password, deriving and caching it on
// first use. Deployments that configure a password explicitly always get the
// configured value.
func (e *Environment) EnsureDBPass() (string, error) {
	if pass, ok := e.vars[DBPassKey]; ok {
		return pass, nil
	}

	pass, err := generatePassword()
	if err != nil {
		return "", errors.WithContext(err, "generate database password")
	}
	e.vars[DBPassKey] = pass
	return pass, nil
}

func randomPassword() (string, error) {
	randBytes := make([]byte, 20)
	if _, err := rand.Read(randBytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(randBytes), nil
}
