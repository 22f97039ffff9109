package template

import (
	"fmt"
	"os"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/windlass-sh/windlass/pkg/env"
	"github.com/windlass-sh/windlass/pkg/errors"
	"github.com/windlass-sh/windlass/pkg/remote"
)

// SyncResult describes the effect of synchronizing one template.
type SyncResult int

const (
	// Unchanged means the remote content already matched the rendered
	// template, so nothing was uploaded and no reload fired.
	Unchanged SyncResult = iota

	// Uploaded means the remote file existed with different content and was
	// overwritten. This is the config drift correction case.
	Uploaded

	// Created means the remote file didn't exist yet. This is the first
	// deploy case.
	Created
)

func (r SyncResult) String() string {
	switch r {
	case Unchanged:
		return "unchanged"
	case Uploaded:
		return "uploaded"
	case Created:
		return "created"
	}
	return fmt.Sprintf("unknown(%d)", int(r))
}

// dbPassMarker in a raw local template triggers the one-time database
// password derivation. Checking the raw content before rendering avoids
// deriving a credential that no template needs.
var dbPassMarker = "%(" + env.DBPassKey + ")s"

// Sync uploads the rendered template to its resolved remote path if, and
// only if, its content differs from what's already there. The reload command
// fires only when an upload actually happened, which makes repeated syncs
// against unchanged state a no-op.
func Sync(desc Descriptor, environment *env.Environment, exec remote.Executor) (SyncResult, error) {
	resolved, err := desc.Resolve(environment)
	if err != nil {
		return Unchanged, errors.WithContext(err, "resolve template")
	}

	raw, err := afero.ReadFile(fs, resolved.LocalPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Unchanged, errors.FileNotFound{Path: resolved.LocalPath}
		}
		return Unchanged, errors.WithContext(err, "read template")
	}

	if strings.Contains(string(raw), dbPassMarker) {
		if _, err := environment.EnsureDBPass(); err != nil {
			return Unchanged, err
		}
	}

	localRendered, err := Render(string(raw), environment)
	if err != nil {
		return Unchanged, errors.WithContext(err, "render template")
	}

	exists, err := exec.PathExists(resolved.RemotePath)
	if err != nil {
		return Unchanged, errors.WithContext(err, "check remote path")
	}

	remoteRendered := ""
	if exists {
		remoteRendered, err = exec.Sudo("cat " + shellquote.Join(resolved.RemotePath))
		if err != nil {
			return Unchanged, errors.WithContext(err, "read remote template")
		}
	}

	if clean(remoteRendered) == clean(localRendered) {
		return Unchanged, nil
	}

	if err := exec.Upload([]byte(localRendered), resolved.RemotePath); err != nil {
		return Unchanged, errors.WithContext(err, "upload template")
	}

	result := Uploaded
	if !exists {
		result = Created
	}

	// Ownership and permissions are best effort: the uploaded content is
	// already in place, and a chown failure shouldn't undo it.
	if resolved.Owner != "" {
		if _, err := exec.Sudo(shellquote.Join("chown", resolved.Owner, resolved.RemotePath)); err != nil {
			log.WithError(err).WithField("template", desc.Name).Warn(
				"Failed to set the owner of the uploaded template")
		}
	}
	if resolved.Mode != "" {
		if _, err := exec.Sudo(shellquote.Join("chmod", resolved.Mode, resolved.RemotePath)); err != nil {
			log.WithError(err).WithField("template", desc.Name).Warn(
				"Failed to set the mode of the uploaded template")
		}
	}

	if resolved.ReloadCommand != "" {
		if _, err := exec.Sudo(resolved.ReloadCommand); err != nil {
			// The upload is committed. Only the running service failed to
			// pick it up, so the operator has to intervene.
			return result, errors.ReloadError{Command: resolved.ReloadCommand, Err: err}
		}
	}
	return result, nil
}

// Remove deletes the template's resolved remote file, if it exists.
func Remove(desc Descriptor, environment *env.Environment, exec remote.Executor) error {
	resolved, err := desc.Resolve(environment)
	if err != nil {
		return errors.WithContext(err, "resolve template")
	}

	exists, err := exec.PathExists(resolved.RemotePath)
	if err != nil {
		return errors.WithContext(err, "check remote path")
	}
	if !exists {
		return nil
	}

	if _, err := exec.Sudo(shellquote.Join("rm", resolved.RemotePath)); err != nil {
		return errors.WithContext(err, "remove remote template")
	}
	return nil
}

// clean normalizes rendered contents for the change comparison. Remote files
// may have been rewritten with different line ending conventions by prior
// tooling, and a byte-exact comparison would cause spurious re-uploads.
func clean(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}

var lineBreaks = strings.NewReplacer("\n", "", "\r", "")
