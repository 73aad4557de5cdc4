package pip

import (
	"bufio"
	"regexp"
	"strings"
)

// missingDepRecognizers is the ordered, open list of patterns that pull a
// missing distribution name out of pip's error output. pip's phrasing is not
// a stable contract, so new phrasings are handled by appending a pattern
// here; each pattern must capture the name token in group 1.
var missingDepRecognizers = []*regexp.Regexp{
	regexp.MustCompile(`No matching distribution found for ([A-Za-z0-9._-]+)`),
	regexp.MustCompile(`Could not find a version that satisfies the requirement ([A-Za-z0-9._-]+)`),
}

// ParseMissingDependencies scans the stderr of a failed offline install and
// returns the set of distribution names pip reported as unresolvable. Names
// never span lines, so matching is line-local. Unrecognized text yields an
// empty set; that outcome is meaningful to the caller (no informed progress
// is possible) and is never an error.
func ParseMissingDependencies(stderr string) map[string]struct{} {
	missing := make(map[string]struct{})

	scanner := bufio.NewScanner(strings.NewReader(stderr))
	for scanner.Scan() {
		line := scanner.Text()
		for _, re := range missingDepRecognizers {
			if m := re.FindStringSubmatch(line); m != nil {
				missing[m[1]] = struct{}{}
			}
		}
	}

	return missing
}
