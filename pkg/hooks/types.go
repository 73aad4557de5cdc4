// Package hooks runs user-supplied Tengo scripts around installation runs.
package hooks

// HookType represents the type of hook.
type HookType string

// Supported hook types.
const (
	PreInstall  HookType = "pre-install"
	PostInstall HookType = "post-install"
)

// HookContext contains information passed to hook scripts.
type HookContext struct {
	PackageName string
	DownloadDir string
	Attempts    int // install attempts performed; 0 for pre-install hooks
	Vars        map[string]interface{}
}
