package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestCSVReaderComma(t *testing.T) {
	path := writeTempFile(t, "ia070125.csv", []byte(
		"Organization CRD#,Primary Business Name\n"+
			"100,ACME ADVISORS\n"+
			"200,\"DOE, JOHN & CO\"\n"))

	batch, err := NewCSVReader().Read(path)
	require.NoError(t, err)

	assert.Equal(t, "ia070125.csv", batch.SourceFile)
	assert.Equal(t, []string{"Organization CRD#", "Primary Business Name"}, batch.Headers)
	require.Len(t, batch.Rows, 2)
	assert.Equal(t, "DOE, JOHN & CO", batch.Rows[1].Get("Primary Business Name"))
}

func TestCSVReaderPipeDelimited(t *testing.T) {
	path := writeTempFile(t, "ia010118.csv", []byte(
		"FirmCrdNb|BusNm\n100|ACME\n"))

	batch, err := NewCSVReader().Read(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"FirmCrdNb", "BusNm"}, batch.Headers)
	assert.Equal(t, "ACME", batch.Rows[0].Get("BusNm"))
}

func TestCSVReaderLatin1Fallback(t *testing.T) {
	// 0xE9 is Latin-1 e-acute, invalid as UTF-8.
	data := append([]byte("Organization CRD#,Primary Business Name\n100,CAF"), 0xE9)
	data = append(data, '\n')
	path := writeTempFile(t, "ia020119.csv", data)

	batch, err := NewCSVReader().Read(path)
	require.NoError(t, err)
	assert.Equal(t, "CAFé", batch.Rows[0].Get("Primary Business Name"))
}

func TestCSVReaderStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Organization CRD#\n100\n")...)
	path := writeTempFile(t, "ia030119.csv", data)

	batch, err := NewCSVReader().Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Organization CRD#"}, batch.Headers)
}

func TestReaderFor(t *testing.T) {
	assert.IsType(t, &CSVReader{}, ReaderFor("ia070125.csv"))
	assert.IsType(t, &XLSXReader{}, ReaderFor("ia070125.xlsx"))
	assert.Nil(t, ReaderFor("readme.txt"))
}
