// Package orchestrator implements the iterative discovery-and-retry loop
// that installs a package offline: attempt an install from local wheels,
// read which dependencies the installer reports as missing, fetch exactly
// those, and retry until the installer succeeds or no progress is possible.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/glorpus-work/wheelhouse/internal/logger"
	pkgerrors "github.com/glorpus-work/wheelhouse/pkg/errors"
	"github.com/glorpus-work/wheelhouse/pkg/model"
	"github.com/glorpus-work/wheelhouse/pkg/pip"
)

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

// New constructs an Orchestrator from existing collaborators. Helper for wiring.
// Hooks can be zero-valued if no event handling is needed.
func New(fetcher Fetcher, installer Installer, metadata MetadataExtractor, hooks Hooks) *Orchestrator {
	return &Orchestrator{
		Fetcher:   fetcher,
		Installer: installer,
		Metadata:  metadata,
		Hooks:     hooks,
	}
}

// Run installs the requested package and its transitive dependencies from
// opts.DownloadDir, fetching missing wheels as the installer reports them.
// All domain outcomes, success and failure alike, travel in the returned
// RunResult; the error return is reserved for misconfiguration and for an
// installer process that cannot be run at all.
func (o *Orchestrator) Run(ctx context.Context, req model.InstallRequest, opts Options) (*model.RunResult, error) {
	if o.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is not configured")
	}
	if o.Installer == nil {
		return nil, fmt.Errorf("installer is not configured")
	}
	if o.Metadata == nil {
		return nil, fmt.Errorf("metadata extractor is not configured")
	}
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is not configured")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}

	run := &runState{downloaded: make(map[string]struct{})}

	// Seed phase: the main package is mandatory, its declared dependencies
	// are best-effort.
	emit(o.Hooks, Event{Phase: "fetching", Name: req.Name})
	mainPath, err := o.Fetcher.Fetch(ctx, req.Name, opts.DownloadDir)
	if err != nil {
		logger.Error("could not fetch the requested package", logger.Fields{"package": req.Name, "error": err.Error()})
		emit(o.Hooks, Event{Phase: "error", Name: req.Name, Msg: "main package unavailable"})
		return run.result(model.ReasonMainPackageUnavailable, 0), nil
	}
	run.record(req.Name)

	o.seedDependencies(ctx, run, mainPath, opts)

	// Bounded retry loop.
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		emit(o.Hooks, Event{Phase: "installing", Name: req.Name, Msg: fmt.Sprintf("attempt %d/%d", attempt, opts.MaxAttempts)})

		installAttempt, err := o.Installer.Install(ctx, req.Name, opts.DownloadDir)
		if err != nil {
			return nil, fmt.Errorf("install attempt %d: %w", attempt, err)
		}
		installAttempt.Index = attempt

		if installAttempt.Succeeded() {
			emit(o.Hooks, Event{Phase: "done", Name: req.Name})
			return run.result(model.ReasonNone, attempt), nil
		}

		logger.Debug("install attempt failed", logger.Fields{
			"package": req.Name,
			"attempt": attempt,
			"exit":    installAttempt.ExitCode,
		})

		missing := pip.ParseMissingDependencies(installAttempt.Stderr)
		if len(missing) == 0 {
			logger.Error("installer failed but reported no missing dependencies", logger.Fields{"package": req.Name})
			emit(o.Hooks, Event{Phase: "error", Name: req.Name, Msg: "unparseable installer output"})
			return run.result(model.ReasonUnparseable, attempt), nil
		}

		newNames := run.subtract(missing)
		if len(newNames) == 0 {
			logger.Error("no new missing dependencies identified; likely a conflict rather than a missing file", logger.Fields{"package": req.Name})
			emit(o.Hooks, Event{Phase: "error", Name: req.Name, Msg: "stalled"})
			return run.result(model.ReasonStalled, attempt), nil
		}

		// Fetch every newly reported name. The attempt is recorded whether or
		// not the fetch succeeds, so a name the remote source does not have is
		// never retried endlessly.
		fetched := 0
		for _, name := range newNames {
			emit(o.Hooks, Event{Phase: "downloading", Name: name})
			_, err := o.Fetcher.Fetch(ctx, name, opts.DownloadDir)
			run.record(name)
			if err != nil {
				logger.Warn("failed to fetch missing dependency", logger.Fields{"package": name, "error": err.Error()})
				continue
			}
			fetched++
		}
		if fetched == 0 {
			emit(o.Hooks, Event{Phase: "error", Name: req.Name, Msg: "no download progress"})
			return run.result(model.ReasonNoDownloadProgress, attempt), nil
		}
	}

	emit(o.Hooks, Event{Phase: "error", Name: req.Name, Msg: "max attempts exceeded"})
	return run.result(model.ReasonMaxAttemptsExceeded, opts.MaxAttempts), nil
}

// seedDependencies extracts the main wheel's declared dependencies and
// fetches each once. Failures are absorbed: an unfetched seed reappears as a
// reported missing dependency on the first attempt and is retried through
// the normal loop.
func (o *Orchestrator) seedDependencies(ctx context.Context, run *runState, mainPath string, opts Options) {
	deps, err := o.Metadata.Dependencies(ctx, mainPath)
	if err != nil {
		logger.Warn("could not extract dependencies from wheel", logger.Fields{"wheel": mainPath, "error": err.Error()})
		return
	}

	for _, name := range slices.Sorted(maps.Keys(deps)) {
		if run.contains(name) {
			continue
		}
		emit(o.Hooks, Event{Phase: "seeding", Name: name})
		if _, err := o.Fetcher.Fetch(ctx, name, opts.DownloadDir); err != nil {
			if errors.Is(err, pkgerrors.ErrPackageNotFound) {
				logger.Warn("seed dependency not found on the index", logger.Fields{"package": name})
			} else {
				logger.Warn("failed to fetch seed dependency", logger.Fields{"package": name, "error": err.Error()})
			}
			continue
		}
		run.record(name)
	}
}

// runState tracks which names a fetch was attempted for during one run. The
// set only grows; there is exactly one mutator (the orchestrator) per run.
type runState struct {
	downloaded map[string]struct{}
	order      []string
}

func (s *runState) contains(name string) bool {
	_, ok := s.downloaded[name]
	return ok
}

func (s *runState) record(name string) {
	if s.contains(name) {
		return
	}
	s.downloaded[name] = struct{}{}
	s.order = append(s.order, name)
}

// subtract returns the names in missing that have not been fetched yet, in
// sorted order for deterministic fetch sequencing.
func (s *runState) subtract(missing map[string]struct{}) []string {
	var fresh []string
	for _, name := range slices.Sorted(maps.Keys(missing)) {
		if !s.contains(name) {
			fresh = append(fresh, name)
		}
	}
	return fresh
}

func (s *runState) result(reason model.FailureReason, attempts int) *model.RunResult {
	return &model.RunResult{
		Reason:     reason,
		Attempts:   attempts,
		Downloaded: slices.Clone(s.order),
	}
}
