package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
libraries:
  - id: lib-1
    name: Comics
    scan_paths: [%ROOT%]
    series:
      - id: ser-1
        name: Batman
        books:
          - {id: b-1, name: Batman 001, number: 1}
          - {id: b-2, name: Batman 002, number: 2}
progress:
  - {user: alice, book: b-1, page: 3}
`

// run executes the command tree with an isolated home and data directory.
func run(t *testing.T, dataPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("READUP_CONFIG", "")

	var out bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--data-path", dataPath, "--log-level", "error", "--log-format", "json"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeCatalog(t *testing.T, root string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := bytes.ReplaceAll([]byte(testCatalog), []byte("%ROOT%"), []byte(root))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestImportScanReindex(t *testing.T) {
	dataPath := t.TempDir()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "batman"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "batman", "cover.jpg"), []byte("jpg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "batman", "001.cbz"), []byte("cbz"), 0o644))

	out, err := run(t, dataPath, "import", writeCatalog(t, root))
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 libraries, 1 series, 2 books, 1 progress records")
	assert.Contains(t, out, "Indexed 2 books")

	out, err = run(t, dataPath, "scan")
	require.NoError(t, err)
	assert.Contains(t, out, "Library lib-1: 1 added, 0 updated, 0 removed, 0 unchanged")

	out, err = run(t, dataPath, "scan", "lib-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Library lib-1: 0 added, 0 updated, 0 removed, 1 unchanged")

	out, err = run(t, dataPath, "reindex")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 2 books")
}

func TestScan_NoLibraries(t *testing.T) {
	out, err := run(t, t.TempDir(), "scan")
	require.NoError(t, err)
	assert.Contains(t, out, "No libraries to scan")
}

func TestScan_UnknownLibrary(t *testing.T) {
	_, err := run(t, t.TempDir(), "scan", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "library missing")
}

func TestImport_Errors(t *testing.T) {
	_, err := run(t, t.TempDir(), "import")
	require.Error(t, err)

	_, err = run(t, t.TempDir(), "import", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	_, err := run(t, t.TempDir(), "--port", "70000", "reindex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
}
