package pip

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakePython writes an executable script that stands in for the Python
// interpreter, so the driver can be exercised without pip installed.
func writeFakePython(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake interpreter script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "python")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestInstallArgs(t *testing.T) {
	t.Run("offline flags always present", func(t *testing.T) {
		c := NewCLI("python3")
		assert.Equal(t,
			[]string{"-m", "pip", "install", "--no-index", "--find-links", "/srv/wheels", "requests"},
			c.installArgs("requests", "/srv/wheels"))
	})

	t.Run("extra args come before the package name", func(t *testing.T) {
		c := NewCLI("python3", "--user")
		assert.Equal(t,
			[]string{"-m", "pip", "install", "--no-index", "--find-links", "/srv/wheels", "--user", "requests"},
			c.installArgs("requests", "/srv/wheels"))
	})
}

func TestNewCLI_DefaultPython(t *testing.T) {
	c := NewCLI("")
	assert.Equal(t, DefaultPython, c.python)
}

func TestInstall_Success(t *testing.T) {
	python := writeFakePython(t, `echo "Successfully installed requests"
exit 0`)

	attempt, err := NewCLI(python).Install(context.Background(), "requests", t.TempDir())
	require.NoError(t, err)
	assert.True(t, attempt.Succeeded())
	assert.Contains(t, attempt.Stdout, "Successfully installed requests")
	assert.Empty(t, attempt.Stderr)
}

func TestInstall_FailureCapturesOutput(t *testing.T) {
	python := writeFakePython(t, `echo "Looking in links: /tmp"
echo "ERROR: No matching distribution found for urllib3" >&2
exit 1`)

	attempt, err := NewCLI(python).Install(context.Background(), "requests", t.TempDir())
	require.NoError(t, err)
	assert.False(t, attempt.Succeeded())
	assert.Equal(t, 1, attempt.ExitCode)
	assert.Contains(t, attempt.Stderr, "No matching distribution found for urllib3")
	assert.Contains(t, attempt.Stdout, "Looking in links")
}

func TestInstall_InterpreterMissing(t *testing.T) {
	c := NewCLI(filepath.Join(t.TempDir(), "no-such-python"))
	_, err := c.Install(context.Background(), "requests", t.TempDir())
	assert.Error(t, err)
}
