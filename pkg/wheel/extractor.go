// Package wheel provides read access to Python wheel archives, in particular
// the dependency declarations in their dist-info METADATA file.
package wheel

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"io/fs"
	"regexp"
	"strings"

	"github.com/glorpus-work/wheelhouse/internal/logger"
	"github.com/mholt/archives"
)

// metadataSuffix is the archive member the extractor looks for, e.g.
// requests-2.32.4.dist-info/METADATA. The exact directory name varies per
// distribution, so entries are matched by suffix.
const metadataSuffix = ".dist-info/METADATA"

// requiresDistRe captures the leading name token of a Requires-Dist line,
// discarding any version constraint, marker or extra that follows.
var requiresDistRe = regexp.MustCompile(`^Requires-Dist:\s*([A-Za-z0-9._-]+)`)

// Extractor reads dependency metadata out of wheel files.
type Extractor struct{}

// NewExtractor creates a new Extractor instance.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Dependencies returns the set of distribution names the wheel declares via
// Requires-Dist. The METADATA file is read directly from the archive
// filesystem; nothing is unpacked to disk. A wheel without a METADATA entry
// yields an empty set and a warning, not an error, because a package with
// unreadable metadata simply contributes no transitive hints.
func (e *Extractor) Dependencies(ctx context.Context, wheelPath string) (map[string]struct{}, error) {
	deps := make(map[string]struct{})

	fsys, err := archives.FileSystem(ctx, wheelPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open wheel %s: %w", wheelPath, err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	metadataPath, err := findMetadata(fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to scan wheel %s: %w", wheelPath, err)
	}
	if metadataPath == "" {
		logger.Warnf("no METADATA file found in %s", wheelPath)
		return deps, nil
	}

	file, err := fsys.Open(metadataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in %s: %w", metadataPath, wheelPath, err)
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if m := requiresDistRe.FindStringSubmatch(scanner.Text()); m != nil {
			deps[m[1]] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s in %s: %w", metadataPath, wheelPath, err)
	}

	return deps, nil
}

// findMetadata walks the archive and returns the first entry whose path ends
// with .dist-info/METADATA, or "" if no such entry exists.
func findMetadata(fsys fs.FS) (string, error) {
	var found string
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, metadataSuffix) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return found, nil
}
