package hooks

import (
	"os"

	"github.com/glorpus-work/wheelhouse/pkg/errors"
)

// LoadScripts reads the given hook script files into the executor. The map
// keys are hook types, the values script file paths; empty paths are skipped.
func LoadScripts(executor *TengoExecutor, scripts map[HookType]string) error {
	for hookType, path := range scripts {
		if path == "" {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(errors.ErrHookLoad, "%s hook from %s: %v", hookType, path, err)
		}
		executor.AddScript(hookType, string(content))
	}
	return nil
}
