// Package pypi fetches wheel files from a PyPI-compatible package index.
package pypi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glorpus-work/wheelhouse/pkg/errors"
	"github.com/glorpus-work/wheelhouse/pkg/fsutil"
	"github.com/hashicorp/go-version"
	"github.com/schollz/progressbar/v3"
)

const (
	// DefaultIndexURL is the public PyPI JSON API endpoint.
	DefaultIndexURL = "https://pypi.org"

	// wheelPackageType marks built distributions in the index file listing.
	wheelPackageType = "bdist_wheel"
)

// Config carries the fetcher's settings. Everything the fetcher needs is
// passed in here; it reads no ambient process state.
type Config struct {
	IndexURL     string        // base URL of the package index; DefaultIndexURL if empty
	Timeout      time.Duration // HTTP client timeout
	UserAgent    string        // User-Agent header for index and download requests
	ShowProgress bool          // render a progress bar while downloading
}

// Manager downloads wheel files from the index with checksum verification
// and reuse of already-downloaded files.
type Manager struct {
	client       *http.Client
	indexURL     string
	userAgent    string
	showProgress bool
}

// NewManager creates a new fetcher for the given index.
func NewManager(cfg Config) *Manager {
	if cfg.IndexURL == "" {
		cfg.IndexURL = DefaultIndexURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "wheelhouse/1.0"
	}
	return &Manager{
		client:       &http.Client{Timeout: cfg.Timeout},
		indexURL:     strings.TrimRight(cfg.IndexURL, "/"),
		userAgent:    cfg.UserAgent,
		showProgress: cfg.ShowProgress,
	}
}

// projectDocument is the subset of the index JSON document the fetcher reads.
type projectDocument struct {
	Releases map[string][]releaseFile `json:"releases"`
}

// releaseFile describes one downloadable file of a release.
type releaseFile struct {
	Filename    string            `json:"filename"`
	URL         string            `json:"url"`
	PackageType string            `json:"packagetype"`
	Yanked      bool              `json:"yanked"`
	Digests     map[string]string `json:"digests"`
}

// Fetch downloads the newest wheel of the named package into dir and returns
// the local file path. It returns errors.ErrPackageNotFound when the index
// does not know the package; that is the absence signal callers branch on.
func (m *Manager) Fetch(ctx context.Context, name, dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("download dir cannot be empty: %w", errors.ErrInvalidPath)
	}
	if err := fsutil.EnsureDir(dir); err != nil {
		return "", errors.Wrap(err, "could not create download dir")
	}

	doc, err := m.fetchProject(ctx, name)
	if err != nil {
		return "", err
	}

	file, err := selectWheel(doc)
	if err != nil {
		return "", errors.Wrapf(err, "no installable wheel for %s", name)
	}

	checksum := file.Digests["sha256"]
	absPath := filepath.Join(dir, file.Filename)
	if reuse, ok := tryReuseExisting(absPath, checksum); ok {
		return reuse, nil
	}

	if err := m.download(ctx, file, absPath, checksum); err != nil {
		return "", errors.Wrapf(err, "failed to download %s", file.Filename)
	}
	return absPath, nil
}

// fetchProject retrieves and decodes the project's JSON document.
func (m *Manager) fetchProject(ctx context.Context, name string) (*projectDocument, error) {
	url := fmt.Sprintf("%s/pypi/%s/json", m.indexURL, name)
	resp, err := m.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", name, errors.ErrPackageNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code for %s: %d: %w", name, resp.StatusCode, errors.ErrDownloadFailed)
	}

	var doc projectDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, errors.Wrapf(err, "failed to decode index document for %s", name)
	}
	return &doc, nil
}

// selectWheel picks the wheel file of the newest stable release. Versions the
// parser does not understand and releases without a wheel are skipped.
func selectWheel(doc *projectDocument) (*releaseFile, error) {
	var bestVersion *version.Version
	var bestFile *releaseFile

	for ver, files := range doc.Releases {
		v, err := version.NewVersion(ver)
		if err != nil || v.Prerelease() != "" {
			continue
		}
		if bestVersion != nil && !v.GreaterThan(bestVersion) {
			continue
		}
		for i := range files {
			f := &files[i]
			if f.PackageType == wheelPackageType && !f.Yanked {
				bestVersion = v
				bestFile = f
				break
			}
		}
	}

	if bestFile == nil {
		return nil, errors.ErrNoWheelAvailable
	}
	return bestFile, nil
}

// tryReuseExisting returns the existing file when it is non-empty and, if a
// checksum is known, matches it.
func tryReuseExisting(absPath, checksum string) (string, bool) {
	if st, err := os.Stat(absPath); err == nil && st.Size() > 0 {
		if checksum == "" {
			return absPath, true
		}
		ok, err := verifySHA256(absPath, checksum)
		if err == nil && ok {
			return absPath, true
		}
	}
	return "", false
}

// download streams the wheel to a temp file, verifies the digest and moves it
// into place.
func (m *Manager) download(ctx context.Context, file *releaseFile, absPath, checksum string) error {
	resp, err := m.doRequest(ctx, file.URL)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d: %w", resp.StatusCode, errors.ErrDownloadFailed)
	}

	tmpPath, err := m.writeBodyToTemp(resp, absPath, file.Filename)
	if err != nil {
		return err
	}

	if checksum != "" {
		ok, err := verifySHA256(tmpPath, checksum)
		if err != nil {
			return err
		}
		if !ok {
			_ = os.Remove(tmpPath)
			return fmt.Errorf("checksum mismatch for %s: %w", file.URL, errors.ErrFileHashMismatch)
		}
	}

	if err := fsutil.Move(tmpPath, absPath); err != nil {
		return errors.Wrap(err, "could not finalize file")
	}
	if err := os.Chmod(absPath, fsutil.FileModeDefault); err != nil {
		return errors.Wrap(err, "could not set permissions")
	}
	return nil
}

func (m *Manager) doRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", m.userAgent)
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	return resp, nil
}

func (m *Manager) writeBodyToTemp(resp *http.Response, absPath, description string) (string, error) {
	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return "", errors.Wrap(err, "could not create download dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(absPath), "dl-*.tmp")
	if err != nil {
		return "", errors.Wrap(err, "could not create temp file")
	}
	tmpPath := tmp.Name()

	var dst io.Writer = tmp
	if m.showProgress && resp.ContentLength > 0 {
		bar := progressbar.DefaultBytes(resp.ContentLength, description)
		dst = io.MultiWriter(tmp, bar)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		_ = tmp.Close()
		return "", errors.Wrap(err, "could not write file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", errors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Wrap(err, "could not close file")
	}
	return tmpPath, nil
}

func verifySHA256(path string, wantHex string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, errors.Wrap(err, "open for checksum")
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, errors.Wrap(err, "hashing")
	}
	got := hex.EncodeToString(h.Sum(nil))
	return got == strings.ToLower(strings.TrimSpace(wantHex)), nil
}
