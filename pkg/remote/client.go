package remote

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"io"
	"io/ioutil"
	"net"
	"strconv"
	"strings"
	"time"

	shellquote "github.com/kballard/go-shellquote"
	homedir "github.com/mitchellh/go-homedir"
	"golang.org/x/crypto/ssh"

	"github.com/windlass-sh/windlass/pkg/errors"
)

// DefaultPort is the SSH port used when the deployment config doesn't
// specify one.
const DefaultPort = 22

const dialTimeout = 30 * time.Second

// Options configures the SSH connection to a deployment target.
type Options struct {
	Host string
	Port int

	User     string
	Password string
	KeyPath  string

	// SudoPassword is fed to `sudo -S` for privileged commands. When it's
	// empty, sudo is invoked with -n and must be configured passwordless on
	// the target.
	SudoPassword string
}

// Client is an Executor backed by a single SSH connection. Each command runs
// in its own session on the shared connection, so the connection itself
// carries no state between commands.
type Client struct {
	client       *ssh.Client
	sudoPassword string
}

// New dials the deployment target described by opts.
func New(opts Options) (*Client, error) {
	auth, err := authMethods(opts)
	if err != nil {
		return nil, err
	}

	port := opts.Port
	if port == 0 {
		port = DefaultPort
	}

	sshConfig := &ssh.ClientConfig{
		User: opts.User,
		Auth: auth,

		// Targets are provisioned from scratch, so there's no prior host key
		// to verify against.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         dialTimeout,
	}

	addr := net.JoinHostPort(opts.Host, strconv.Itoa(port))
	client, err := ssh.Dial("tcp", addr, sshConfig)
	if err != nil {
		return nil, errors.WithContext(err, "dial "+addr)
	}
	return &Client{client: client, sudoPassword: opts.SudoPassword}, nil
}

func authMethods(opts Options) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if opts.KeyPath != "" {
		path, err := homedir.Expand(opts.KeyPath)
		if err != nil {
			return nil, errors.WithContext(err, "expand key path")
		}

		keyBytes, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, errors.WithContext(err, "read SSH key")
		}

		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, errors.WithContext(err, "parse SSH key")
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if opts.Password != "" {
		methods = append(methods, ssh.Password(opts.Password))
	}

	if len(methods) == 0 {
		return nil, errors.NewFriendlyError(
			"No SSH credentials configured.\n" +
				"Set sshKeyPath or sshPass in the deployment config.")
	}
	return methods, nil
}

// Close tears down the SSH connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// sshSession is the per-command session. It's an interface so command
// execution can be exercised in tests without a live connection.
type sshSession interface {
	SetStdin(stdin io.Reader)
	SetStderr(stderr io.Writer)
	Output(command string) ([]byte, error)
	Close() error
}

type realSession struct {
	*ssh.Session
}

func (s realSession) SetStdin(stdin io.Reader) {
	s.Session.Stdin = stdin
}

func (s realSession) SetStderr(stderr io.Writer) {
	s.Session.Stderr = stderr
}

// newSession is overridden in mock tests.
var newSession = func(client *ssh.Client) (sshSession, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, err
	}
	return realSession{session}, nil
}

// Run executes a shell command as the deploy user.
func (c *Client) Run(command string) (string, error) {
	return c.exec(command, nil)
}

// Sudo executes a shell command with elevated privileges.
func (c *Client) Sudo(command string) (string, error) {
	return c.exec(c.sudoCommand(command), c.sudoStdin(nil))
}

// PathExists reports whether a path exists on the target.
func (c *Client) PathExists(path string) (bool, error) {
	_, err := c.exec("test -e "+shellquote.Join(path), nil)
	if err == nil {
		return true, nil
	}

	if opErr, ok := err.(errors.RemoteOpError); ok {
		if _, exited := opErr.Err.(*ssh.ExitError); exited {
			return false, nil
		}
	}
	return false, err
}

// Upload stages contents on the target with an unprivileged tee, then moves
// the staged file into remotePath with elevated privileges. Staging keeps
// the uploaded contents on a separate stream from the sudo password: when
// sudo is configured passwordless on the target, `sudo -S` never consumes
// its stdin line, and a single shared stream would deliver the password
// into the uploaded file itself.
func (c *Client) Upload(contents []byte, remotePath string) error {
	staged, err := stagePath()
	if err != nil {
		return errors.WithContext(err, "stage upload")
	}

	command := "tee " + shellquote.Join(staged) + " > /dev/null"
	if _, err := c.exec(command, bytes.NewReader(contents)); err != nil {
		return errors.WithContext(err, "upload "+remotePath)
	}

	if _, err := c.Sudo(shellquote.Join("mv", staged, remotePath)); err != nil {
		return errors.WithContext(err, "install "+remotePath)
	}
	return nil
}

// stagePath is overridden in mock tests.
var stagePath = randomStagePath

func randomStagePath() (string, error) {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return "", err
	}
	return "/tmp/windlass-" + hex.EncodeToString(randBytes), nil
}

// sudoCommand wraps command so that the whole command line, including any
// redirections within it, runs with elevated privileges.
func (c *Client) sudoCommand(command string) string {
	wrapped := shellquote.Join("sh", "-c", command)
	if c.sudoPassword != "" {
		return "sudo -S -p '' " + wrapped
	}
	return "sudo -n " + wrapped
}

// sudoStdin prepends the sudo password, if any, to whatever the remote
// command reads from stdin. `sudo -S` consumes up to the first newline, and
// the wrapped command reads the rest.
func (c *Client) sudoStdin(rest io.Reader) io.Reader {
	if c.sudoPassword == "" {
		return rest
	}

	password := strings.NewReader(c.sudoPassword + "\n")
	if rest == nil {
		return password
	}
	return io.MultiReader(password, rest)
}

func (c *Client) exec(command string, stdin io.Reader) (string, error) {
	session, err := newSession(c.client)
	if err != nil {
		return "", errors.RemoteOpError{Op: command, Err: err}
	}
	defer session.Close()

	if stdin != nil {
		session.SetStdin(stdin)
	}

	// Stderr is collected apart from the command result. Target-side
	// warnings, e.g. `sudo: unable to resolve host`, must not pollute
	// content reads: the template change comparison works on the result.
	var stderr bytes.Buffer
	session.SetStderr(&stderr)

	output, err := session.Output(command)
	if err != nil {
		return string(output), errors.RemoteOpError{
			Op:     command,
			Output: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return string(output), nil
}
