package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstallAttemptSucceeded(t *testing.T) {
	assert.True(t, (&InstallAttempt{Index: 1, ExitCode: 0}).Succeeded())
	assert.False(t, (&InstallAttempt{Index: 1, ExitCode: 1}).Succeeded())
}

func TestRunResultSuccess(t *testing.T) {
	assert.True(t, (&RunResult{Reason: ReasonNone, Attempts: 1}).Success())
	assert.False(t, (&RunResult{Reason: ReasonStalled, Attempts: 2}).Success())
}

func TestFailureReasonString(t *testing.T) {
	tests := []struct {
		reason   FailureReason
		expected string
	}{
		{ReasonNone, "none"},
		{ReasonMainPackageUnavailable, "main-package-unavailable"},
		{ReasonUnparseable, "unparseable-installer-output"},
		{ReasonStalled, "stalled"},
		{ReasonNoDownloadProgress, "no-download-progress"},
		{ReasonMaxAttemptsExceeded, "max-attempts-exceeded"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.reason.String())
	}
}
