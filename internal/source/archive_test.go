package source

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advwatch/iapd/backend/pkg/config"
	"github.com/advwatch/iapd/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "console"})
}

func writeZip(t *testing.T, dir, name string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for fname, content := range files {
		w, err := zw.Create(fname)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

func TestExtractAll(t *testing.T) {
	archiveDir := t.TempDir()
	extractDir := t.TempDir()

	writeZip(t, archiveDir, "ia070125.zip", map[string]string{
		"ia070125.csv":         "Organization CRD#\n100\n",
		"._ia070125.csv":       "resource fork junk",
		"readme.txt":           "ignore me",
		"nested/ia070125.xlsx": "not really xlsx but extracted anyway",
	})

	e := NewExtractor(archiveDir, extractDir, testLogger())
	result, err := e.ExtractAll()
	require.NoError(t, err)

	assert.Equal(t, 1, result.Archives)
	assert.Equal(t, 2, result.Extracted)
	assert.Zero(t, result.Skipped)

	_, err = os.Stat(filepath.Join(extractDir, "ia070125.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(extractDir, "ia070125.xlsx"))
	assert.NoError(t, err, "nested entries are flattened")
	_, err = os.Stat(filepath.Join(extractDir, "._ia070125.csv"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(extractDir, "readme.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestExtractAllSkipsExisting(t *testing.T) {
	archiveDir := t.TempDir()
	extractDir := t.TempDir()

	writeZip(t, archiveDir, "ia070125.zip", map[string]string{
		"ia070125.csv": "Organization CRD#\n100\n",
	})

	e := NewExtractor(archiveDir, extractDir, testLogger())
	_, err := e.ExtractAll()
	require.NoError(t, err)

	result, err := e.ExtractAll()
	require.NoError(t, err)
	assert.Zero(t, result.Extracted)
	assert.Equal(t, 1, result.Skipped)
}

func TestWantDataFile(t *testing.T) {
	assert.True(t, wantDataFile("ia070125.csv"))
	assert.True(t, wantDataFile("ia070125-reports.xlsx"))
	assert.False(t, wantDataFile("._ia070125.csv"))
	assert.False(t, wantDataFile("notes.txt"))
	assert.False(t, wantDataFile(""))
}
