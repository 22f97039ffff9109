package errors

import (
	"fmt"
)

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// MissingVariable represents a template placeholder that has no matching
// value in the deployment environment.
type MissingVariable struct {
	Key string
}

func (err MissingVariable) Error() string {
	return fmt.Sprintf("no value for template variable %q", err.Key)
}

// RenderError represents a template that couldn't be rendered because its
// placeholder syntax is malformed.
type RenderError struct {
	Reason string
}

func (err RenderError) Error() string {
	return fmt.Sprintf("malformed template: %s", err.Reason)
}

// RemoteOpError represents a remote command or transfer that failed at the
// transport or permission level.
type RemoteOpError struct {
	Op     string
	Output string
	Err    error
}

func (err RemoteOpError) Error() string {
	if err.Output != "" {
		return fmt.Sprintf("remote operation %q failed: %s: %s",
			err.Op, err.Err, err.Output)
	}
	return fmt.Sprintf("remote operation %q failed: %s", err.Op, err.Err)
}

// ReloadError represents a reload command that exited nonzero after its
// configuration file was already uploaded. The upload is not undone.
type ReloadError struct {
	Command string
	Err     error
}

func (err ReloadError) Error() string {
	return fmt.Sprintf("reload command %q failed: %s", err.Command, err.Err)
}
