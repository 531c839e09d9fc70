package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advwatch/iapd/backend/pkg/config"
	"github.com/advwatch/iapd/backend/pkg/httputil"
)

func fetchConfig(listingURL, archiveDir string) *config.Config {
	return &config.Config{
		LogLevel:  "error",
		LogFormat: "console",
		Source: config.SourceConfig{
			ListingURL:    listingURL,
			UserAgent:     "advwatch test",
			ArchiveDir:    archiveDir,
			RatePerSecond: 100,
		},
	}
}

func TestFetchDownloadsNewArchives(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/files/ia070125.zip">July 2025</a>
			<a href="/files/ia060125.zip">June 2025</a>
			<a href="/files/ia070125_era.zip">Exempt July 2025</a>
			<a href="/docs/help.pdf">Help</a>
		</body></html>`))
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("zip-bytes"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	archiveDir := t.TempDir()
	cfg := fetchConfig(srv.URL+"/listing", archiveDir)
	log := testLogger()

	f := NewFetcher(cfg, httputil.New(cfg, log), log)
	result, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Found, "exempt and non-zip links filtered out")
	assert.Equal(t, 2, result.Downloaded)
	assert.Zero(t, result.Failed)

	data, err := os.ReadFile(filepath.Join(archiveDir, "ia070125.zip"))
	require.NoError(t, err)
	assert.Equal(t, "zip-bytes", string(data))
}

func TestFetchSkipsExisting(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="/files/ia070125.zip">July</a>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	archiveDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(archiveDir, "ia070125.zip"), []byte("old"), 0o644))

	cfg := fetchConfig(srv.URL+"/listing", archiveDir)
	log := testLogger()

	f := NewFetcher(cfg, httputil.New(cfg, log), log)
	result, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Downloaded)
}

func TestWantArchive(t *testing.T) {
	cfg := fetchConfig("http://example.test", t.TempDir())
	f := NewFetcher(cfg, nil, testLogger())

	assert.True(t, f.wantArchive("/files/ia070125.zip"))
	assert.False(t, f.wantArchive("/files/ia070125_era.zip"))
	assert.False(t, f.wantArchive("/files/era070125.zip"), "not an adviser compilation")
	assert.False(t, f.wantArchive("/files/firms.csv"))

	cfg.Source.IncludeExempt = true
	assert.True(t, f.wantArchive("/files/ia070125_era.zip"))
}
