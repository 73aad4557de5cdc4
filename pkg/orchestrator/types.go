//go:generate mockgen -destination=./mocks/orchestrator.go -package=mocks . Fetcher,Installer,MetadataExtractor

package orchestrator

import (
	"context"

	"github.com/glorpus-work/wheelhouse/pkg/model"
)

// Fetcher is the fetch capability: it places exactly one archive for the
// named package inside dir and returns its local path. Absence of the
// package on the remote source is signaled with errors.ErrPackageNotFound.
type Fetcher interface {
	Fetch(ctx context.Context, name, dir string) (string, error)
}

// Installer performs one blocking offline install attempt, resolving only
// from local files in dir, and returns the captured outcome. An error means
// the installer process could not be run at all.
type Installer interface {
	Install(ctx context.Context, name, dir string) (*model.InstallAttempt, error)
}

// MetadataExtractor reads the declared dependency names out of a downloaded
// wheel file.
type MetadataExtractor interface {
	Dependencies(ctx context.Context, wheelPath string) (map[string]struct{}, error)
}

// Orchestrator ties the fetcher, installer and metadata extractor together
// for one installation run.
type Orchestrator struct {
	Fetcher   Fetcher
	Installer Installer
	Metadata  MetadataExtractor
	Hooks     Hooks // Hooks for progress and event notifications
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // fetching|seeding|installing|downloading|done|error
	Name  string // package name the event refers to, if any
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// DefaultMaxAttempts bounds the retry loop when no explicit limit is given.
const DefaultMaxAttempts = 5

// Options control orchestrator execution.
type Options struct {
	DownloadDir string // archive cache and offline-install source; must be set
	MaxAttempts int    // retry bound; if <=0, DefaultMaxAttempts is used
}
