package source

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/advwatch/iapd/backend/pkg/logger"
)

// Extractor unpacks downloaded compilation archives into the extract
// directory the ingester reads from.
type Extractor struct {
	archiveDir string
	extractDir string
	log        *logger.Logger
}

func NewExtractor(archiveDir, extractDir string, log *logger.Logger) *Extractor {
	return &Extractor{
		archiveDir: archiveDir,
		extractDir: extractDir,
		log:        log.WithField("component", "extract"),
	}
}

// ExtractResult summarizes one extraction run
type ExtractResult struct {
	Archives  int `json:"archives"`
	Extracted int `json:"extracted"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// ExtractAll unpacks the data files of every archive. Files already present
// in the extract directory are left alone.
func (e *Extractor) ExtractAll() (*ExtractResult, error) {
	if err := os.MkdirAll(e.extractDir, 0o755); err != nil {
		return nil, fmt.Errorf("create extract dir: %w", err)
	}

	entries, err := os.ReadDir(e.archiveDir)
	if err != nil {
		return nil, fmt.Errorf("read archive dir: %w", err)
	}

	result := &ExtractResult{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".zip" {
			continue
		}
		result.Archives++
		extracted, skipped, err := e.extract(filepath.Join(e.archiveDir, entry.Name()))
		if err != nil {
			e.log.WithError(err).Errorf("extract %s failed", entry.Name())
			result.Failed++
			continue
		}
		result.Extracted += extracted
		result.Skipped += skipped
	}
	return result, nil
}

func (e *Extractor) extract(path string) (extracted, skipped int, err error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	for _, zf := range zr.File {
		name := filepath.Base(zf.Name)
		if !wantDataFile(name) {
			continue
		}
		dest := filepath.Join(e.extractDir, name)
		if _, err := os.Stat(dest); err == nil {
			skipped++
			continue
		}
		if err := copyZipFile(zf, dest); err != nil {
			return extracted, skipped, fmt.Errorf("extract %s: %w", name, err)
		}
		e.log.Debugf("extracted %s", name)
		extracted++
	}
	return extracted, skipped, nil
}

// wantDataFile keeps the compilation data files and drops directory entries
// and macOS resource-fork stubs that ride along in some archives.
func wantDataFile(name string) bool {
	if name == "" || strings.HasPrefix(name, "._") {
		return false
	}
	ext := filepath.Ext(name)
	return ext == ".csv" || ext == ".xlsx"
}

func copyZipFile(zf *zip.File, dest string) error {
	in, err := zf.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}
