package wheel

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWheel builds a minimal wheel archive with the given members.
func writeWheel(t *testing.T, dir, name string, members map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, file.Close()) }()

	zw := zip.NewWriter(file)
	for member, content := range members {
		w, err := zw.Create(member)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestDependencies(t *testing.T) {
	metadata := `Metadata-Version: 2.1
Name: demo
Version: 1.0.0
Requires-Dist: charset-normalizer (>=2.0.0,<4)
Requires-Dist: idna (<4,>=2.5)
Requires-Dist: urllib3
Requires-Dist: pytest ; extra == 'test'
Requires-Dist: urllib3
Description: a demo package
`

	wheelPath := writeWheel(t, t.TempDir(), "demo-1.0.0-py3-none-any.whl", map[string]string{
		"demo/__init__.py":            "",
		"demo-1.0.0.dist-info/RECORD": "",
		"demo-1.0.0.dist-info/METADATA": metadata,
	})

	extractor := NewExtractor()
	deps, err := extractor.Dependencies(context.Background(), wheelPath)
	require.NoError(t, err)

	assert.Equal(t, map[string]struct{}{
		"charset-normalizer": {},
		"idna":               {},
		"urllib3":            {},
		"pytest":             {},
	}, deps)
}

func TestDependencies_StripsVersionQualifiers(t *testing.T) {
	wheelPath := writeWheel(t, t.TempDir(), "demo-1.0-py3-none-any.whl", map[string]string{
		"demo-1.0.dist-info/METADATA": "Requires-Dist: foo (>=1.0,<2)\n",
	})

	deps, err := NewExtractor().Dependencies(context.Background(), wheelPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"foo": {}}, deps)
}

func TestDependencies_Idempotent(t *testing.T) {
	wheelPath := writeWheel(t, t.TempDir(), "demo-1.0-py3-none-any.whl", map[string]string{
		"demo-1.0.dist-info/METADATA": "Requires-Dist: foo\nRequires-Dist: bar\n",
	})

	extractor := NewExtractor()
	first, err := extractor.Dependencies(context.Background(), wheelPath)
	require.NoError(t, err)
	second, err := extractor.Dependencies(context.Background(), wheelPath)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDependencies_NoMetadata(t *testing.T) {
	wheelPath := writeWheel(t, t.TempDir(), "bare-1.0-py3-none-any.whl", map[string]string{
		"bare/__init__.py": "",
	})

	deps, err := NewExtractor().Dependencies(context.Background(), wheelPath)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestDependencies_NoRequiresDist(t *testing.T) {
	wheelPath := writeWheel(t, t.TempDir(), "leaf-1.0-py3-none-any.whl", map[string]string{
		"leaf-1.0.dist-info/METADATA": "Metadata-Version: 2.1\nName: leaf\n",
	})

	deps, err := NewExtractor().Dependencies(context.Background(), wheelPath)
	require.NoError(t, err)
	assert.Empty(t, deps)
}

func TestDependencies_CorruptArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken-1.0-py3-none-any.whl")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip file"), 0o644))

	_, err := NewExtractor().Dependencies(context.Background(), path)
	assert.Error(t, err)
}

func TestDependencies_MissingFile(t *testing.T) {
	_, err := NewExtractor().Dependencies(context.Background(), filepath.Join(t.TempDir(), "absent.whl"))
	assert.Error(t, err)
}
