package config

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"
	"github.com/spf13/afero"

	"github.com/windlass-sh/windlass/pkg/errors"
)

// parseConfigErrTemplate wraps yaml parse failures for display. The yaml
// library flattens its errors into a single string, so the original text is
// passed through rather than inspected.
const parseConfigErrTemplate = "The deployment config %q could not be parsed.\n" +
	"Check for misspelled fields and values of the wrong type.\n\n" +
	"The parser reported:\n%s"

// versionedConfig is any config document that declares a schema version.
type versionedConfig interface {
	getVersion() string
}

type incompatibleVersionError struct {
	path, exp, actual string
}

func (err incompatibleVersionError) Error() string {
	return err.FriendlyMessage()
}

func (err incompatibleVersionError) FriendlyMessage() string {
	return fmt.Sprintf("Version %q config files aren't supported by this "+
		"build of Windlass.\nMigrate %q to version %q.",
		err.actual, err.path, err.exp)
}

// parseConfig reads the yaml document at `path` into `config` and enforces
// its schema version.
func parseConfig(path string, config versionedConfig, expVersion string) error {
	configBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.FileNotFound{Path: path}
		}
		return errors.WithContext(err, "read file")
	}

	// Parse leniently first so that a version mismatch is reported as such,
	// rather than as an unknown-field error against the current schema.
	if err := yaml.Unmarshal(configBytes, config); err != nil {
		return errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}

	if version := config.getVersion(); version != expVersion {
		return incompatibleVersionError{path, expVersion, version}
	}

	err = yaml.UnmarshalStrict(configBytes, config, yaml.DisallowUnknownFields)
	if err != nil {
		return errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}
	return nil
}
