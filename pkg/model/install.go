// Package model provides data structures and types shared between the
// installation orchestrator and its collaborators.
package model

// InstallRequest describes what the user asked to install.
type InstallRequest struct {
	Name string // distribution name as known to the package index
}

// InstallAttempt records the observable result of one offline install
// invocation. It is ephemeral: the orchestrator classifies it and discards it.
type InstallAttempt struct {
	Index    int    // 1-based attempt number
	ExitCode int    // process exit status, 0 means success
	Stdout   string // captured standard output
	Stderr   string // captured standard error
}

// Succeeded reports whether the installer exited cleanly.
func (a *InstallAttempt) Succeeded() bool {
	return a.ExitCode == 0
}

// FailureReason classifies why a run terminated without success.
type FailureReason string

const (
	// ReasonNone indicates the run succeeded.
	ReasonNone FailureReason = ""
	// ReasonMainPackageUnavailable indicates the requested package itself could not be fetched.
	ReasonMainPackageUnavailable FailureReason = "main-package-unavailable"
	// ReasonUnparseable indicates the installer failed but no missing dependency could be read from its output.
	ReasonUnparseable FailureReason = "unparseable-installer-output"
	// ReasonStalled indicates every reported missing dependency was already fetched at least once.
	ReasonStalled FailureReason = "stalled"
	// ReasonNoDownloadProgress indicates new missing dependencies were identified but none could be fetched.
	ReasonNoDownloadProgress FailureReason = "no-download-progress"
	// ReasonMaxAttemptsExceeded indicates the retry bound was reached without success.
	ReasonMaxAttemptsExceeded FailureReason = "max-attempts-exceeded"
)

// String returns the reason tag as a plain string.
func (r FailureReason) String() string {
	if r == ReasonNone {
		return "none"
	}
	return string(r)
}

// RunResult is the terminal outcome of one installation run. It is the only
// value surfaced to the caller; log output is incidental.
type RunResult struct {
	Reason     FailureReason // ReasonNone on success
	Attempts   int           // number of install invocations performed
	Downloaded []string      // names a fetch was attempted for, in fetch order
}

// Success reports whether the run installed the requested package.
func (r *RunResult) Success() bool {
	return r.Reason == ReasonNone
}
