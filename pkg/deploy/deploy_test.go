package deploy

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/windlass-sh/windlass/pkg/env"
	"github.com/windlass-sh/windlass/pkg/errors"
	"github.com/windlass-sh/windlass/pkg/remote/mocks"
	"github.com/windlass-sh/windlass/pkg/template"
)

func newTestDeployer(exec *mocks.Executor, registry template.Registry) *Deployer {
	environment := env.New(map[string]string{
		"host":      "server1.example.com",
		"user":      "deploy",
		"proj_name": "blog",
		"proj_path": "/home/deploy/blog",
		"live_host": "example.com",
		"repo_url":  "git@example.com:blog.git",
		"locale":    "en_US.UTF-8",
	})

	d := New(exec, environment, registry)
	d.clock = clockwork.NewFakeClock()
	return d
}

func TestInstall(t *testing.T) {
	tests := []struct {
		name            string
		currentLocale   string
		expUpdateLocale bool
	}{
		{
			name:          "LocaleAlreadySet",
			currentLocale: "LC_ALL=en_US.UTF-8\n",
		},
		{
			name:            "LocaleMissing",
			currentLocale:   "LANG=C\n",
			expUpdateLocale: true,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			exec := &mocks.Executor{}
			exec.On("Sudo", "cat /etc/default/locale").Return(test.currentLocale, nil)
			if test.expUpdateLocale {
				exec.On("Sudo", "update-locale LC_ALL=en_US.UTF-8").Return("", nil).Once()
			}
			exec.On("Sudo", "apt-get update -y -q").Return("", nil).Once()
			exec.On("Sudo", "apt-get install -y -q "+basePackages).Return("", nil).Once()

			d := newTestDeployer(exec, nil)
			assert.NoError(t, d.Install())
			exec.AssertExpectations(t)

			if !test.expUpdateLocale {
				exec.AssertNotCalled(t, "Sudo", "update-locale LC_ALL=en_US.UTF-8")
			}
		})
	}
}

func TestCreate(t *testing.T) {
	exec := &mocks.Executor{}
	exec.On("Run", "git clone git@example.com:blog.git /home/deploy/blog").
		Return("", nil).Once()

	d := newTestDeployer(exec, nil)
	assert.NoError(t, d.Create())
	exec.AssertExpectations(t)
}

func TestCreateCloneFails(t *testing.T) {
	cloneErr := errors.New("fatal: destination path already exists")
	exec := &mocks.Executor{}
	exec.On("Run", "git clone git@example.com:blog.git /home/deploy/blog").
		Return("", cloneErr).Once()

	d := newTestDeployer(exec, nil)
	err := d.Create()
	assert.Equal(t, cloneErr, errors.RootCause(err))
}

func TestRestart(t *testing.T) {
	t.Run("PidFileExists", func(t *testing.T) {
		exec := &mocks.Executor{}
		exec.On("PathExists", nginxPidPath).Return(true, nil)
		exec.On("Sudo", "kill -HUP `cat "+nginxPidPath+"`").Return("", nil).Once()

		d := newTestDeployer(exec, nil)
		assert.NoError(t, d.Restart())
		exec.AssertExpectations(t)
	})

	t.Run("PidFileMissing", func(t *testing.T) {
		exec := &mocks.Executor{}
		exec.On("PathExists", nginxPidPath).Return(false, nil)
		exec.On("Sudo", "supervisorctl start blog:nginx").Return("", nil).Once()

		d := newTestDeployer(exec, nil)
		assert.NoError(t, d.Restart())
		exec.AssertExpectations(t)
	})
}

// testRegistry returns a one-template registry whose local template lives in
// a real temporary directory, since the template synchronizer reads local
// files through the OS filesystem by default.
func testRegistry(t *testing.T) template.Registry {
	dir, err := ioutil.TempDir("", "windlass-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	localPath := filepath.Join(dir, "nginx.conf")
	require.NoError(t, ioutil.WriteFile(
		localPath, []byte("server_name %(live_host)s;\n"), 0644))

	return template.Registry{{
		Name:          "nginx",
		LocalPath:     localPath,
		RemotePath:    "/etc/nginx/sites-enabled/%(live_host)s.conf",
		ReloadCommand: "service nginx restart",
	}}
}

func TestDeploy(t *testing.T) {
	exec := &mocks.Executor{}

	// First deploy: the template doesn't exist remotely yet.
	remotePath := "/etc/nginx/sites-enabled/example.com.conf"
	exec.On("PathExists", remotePath).Return(false, nil)
	exec.On("Upload", []byte("server_name example.com;\n"), remotePath).
		Return(nil).Once()
	exec.On("Sudo", "service nginx restart").Return("", nil).Once()

	exec.On("Run", "cd /home/deploy/blog && git rev-parse HEAD > last.commit").
		Return("", nil).Once()
	exec.On("Run", "cd /home/deploy/blog && git pull origin master").
		Return("", nil).Once()

	exec.On("PathExists", nginxPidPath).Return(true, nil)
	exec.On("Sudo", "kill -HUP `cat "+nginxPidPath+"`").Return("", nil).Once()

	d := newTestDeployer(exec, testRegistry(t))
	assert.NoError(t, d.Deploy())
	exec.AssertExpectations(t)
}

func TestDeployAbortsOnSyncFailure(t *testing.T) {
	exec := &mocks.Executor{}

	remotePath := "/etc/nginx/sites-enabled/example.com.conf"
	exec.On("PathExists", remotePath).Return(false, nil)
	uploadErr := errors.New("permission denied")
	exec.On("Upload", mock.Anything, remotePath).Return(uploadErr).Once()

	d := newTestDeployer(exec, testRegistry(t))
	err := d.Deploy()
	assert.Equal(t, uploadErr, errors.RootCause(err))

	// The source pull never happens after a failed template sync.
	exec.AssertNotCalled(t, "Run",
		"cd /home/deploy/blog && git pull origin master")
}

func TestRollback(t *testing.T) {
	exec := &mocks.Executor{}
	exec.On("Run", "cd /home/deploy/blog && git checkout `cat last.commit`").
		Return("", nil).Once()
	exec.On("PathExists", nginxPidPath).Return(false, nil)
	exec.On("Sudo", "supervisorctl start blog:nginx").Return("", nil).Once()

	d := newTestDeployer(exec, nil)
	assert.NoError(t, d.Rollback())
	exec.AssertExpectations(t)
}

func TestRemove(t *testing.T) {
	exec := &mocks.Executor{}
	remotePath := "/etc/nginx/sites-enabled/example.com.conf"
	exec.On("PathExists", remotePath).Return(true, nil)
	exec.On("Sudo", "rm "+remotePath).Return("", nil).Once()

	d := newTestDeployer(exec, testRegistry(t))
	assert.NoError(t, d.Remove())
	exec.AssertExpectations(t)
}

func TestAllShortCircuits(t *testing.T) {
	exec := &mocks.Executor{}
	exec.On("Sudo", "cat /etc/default/locale").Return("LC_ALL=en_US.UTF-8\n", nil)
	exec.On("Sudo", "apt-get update -y -q").Return("", nil)
	exec.On("Sudo", "apt-get install -y -q "+basePackages).Return("", nil)

	cloneErr := errors.New("fatal: destination path already exists")
	exec.On("Run", "git clone git@example.com:blog.git /home/deploy/blog").
		Return("", cloneErr).Once()

	d := newTestDeployer(exec, testRegistry(t))
	err := d.All()
	assert.Equal(t, cloneErr, errors.RootCause(err))

	// Deploy never runs after a failed create.
	exec.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
	exec.AssertNotCalled(t, "Run",
		"cd /home/deploy/blog && git pull origin master")
}

func TestApt(t *testing.T) {
	exec := &mocks.Executor{}
	exec.On("Sudo", "apt-get install -y -q memcached").Return("", nil).Once()

	d := newTestDeployer(exec, nil)
	assert.NoError(t, d.Apt("memcached"))
	exec.AssertExpectations(t)
}
