package pip

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMissingDependencies(t *testing.T) {
	tests := []struct {
		name     string
		stderr   string
		expected map[string]struct{}
	}{
		{
			name:     "no matching distribution",
			stderr:   "ERROR: No matching distribution found for bar",
			expected: map[string]struct{}{"bar": {}},
		},
		{
			name:     "could not find a version",
			stderr:   "ERROR: Could not find a version that satisfies the requirement charset-normalizer (from requests) (from versions: none)",
			expected: map[string]struct{}{"charset-normalizer": {}},
		},
		{
			name: "both patterns across lines",
			stderr: `Looking in links: /tmp/downloads
ERROR: Could not find a version that satisfies the requirement urllib3 (from requests) (from versions: none)
ERROR: No matching distribution found for urllib3
ERROR: No matching distribution found for idna`,
			expected: map[string]struct{}{"urllib3": {}, "idna": {}},
		},
		{
			name:     "names with dots and underscores",
			stderr:   "ERROR: No matching distribution found for ruamel.yaml_clib",
			expected: map[string]struct{}{"ruamel.yaml_clib": {}},
		},
		{
			name:     "version qualifier is not part of the name",
			stderr:   "ERROR: Could not find a version that satisfies the requirement idna<4,>=2.5",
			expected: map[string]struct{}{"idna": {}},
		},
		{
			name:     "unrecognized text yields empty set",
			stderr:   "ERROR: THESE PACKAGES DO NOT MATCH THE HASHES FROM THE REQUIREMENTS FILE.",
			expected: map[string]struct{}{},
		},
		{
			name:     "empty input",
			stderr:   "",
			expected: map[string]struct{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseMissingDependencies(tt.stderr))
		})
	}
}
