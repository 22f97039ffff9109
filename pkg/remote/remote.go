package remote

//go:generate mockery -name Executor

// An Executor runs commands on a deployment target. All methods are
// blocking round-trips; there is no retry, and no concurrency within a run.
type Executor interface {
	// Run executes a shell command as the deploy user and returns its
	// combined output.
	Run(command string) (string, error)

	// Sudo executes a shell command with elevated privileges and returns its
	// combined output.
	Sudo(command string) (string, error)

	// PathExists reports whether a path exists on the target.
	PathExists(path string) (bool, error)

	// Upload writes contents to remotePath with elevated privileges,
	// overwriting any existing file. No backup is kept: rollback happens at
	// the source control level, not the config level.
	Upload(contents []byte, remotePath string) error
}
