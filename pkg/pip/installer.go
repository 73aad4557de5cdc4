// Package pip drives the external pip installer and interprets its output.
package pip

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/glorpus-work/wheelhouse/pkg/model"
)

// DefaultPython is the interpreter used when none is configured.
const DefaultPython = "python3"

// CLI performs offline install attempts by shelling out to pip. Every
// invocation passes --no-index so pip can never fall back to a remote index;
// allowing that would silently mask gaps in the discovery loop.
type CLI struct {
	python    string
	extraArgs []string
}

// NewCLI creates a pip installer driver using the given Python interpreter.
// extraArgs are appended to every install invocation (e.g. --user).
func NewCLI(python string, extraArgs ...string) *CLI {
	if python == "" {
		python = DefaultPython
	}
	return &CLI{python: python, extraArgs: extraArgs}
}

// installArgs builds the argument vector for one offline install attempt
// against the wheels available in dir.
func (c *CLI) installArgs(name, dir string) []string {
	args := []string{"-m", "pip", "install", "--no-index", "--find-links", dir}
	args = append(args, c.extraArgs...)
	args = append(args, name)
	return args
}

// Install runs one blocking offline install attempt and returns the captured
// outcome. A non-zero pip exit status is not an error here; it is a result
// for the caller to classify. An error is returned only when the process
// could not be run at all.
func (c *CLI) Install(ctx context.Context, name, dir string) (*model.InstallAttempt, error) {
	cmd := exec.CommandContext(ctx, c.python, c.installArgs(name, dir)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	attempt := &model.InstallAttempt{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("failed to run %s: %w", c.python, err)
		}
		attempt.ExitCode = exitErr.ExitCode()
	}

	return attempt, nil
}
