// Package source acquires the monthly compilation archives: scrape the
// published listing, download new archives, extract their data files.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/advwatch/iapd/backend/pkg/config"
	"github.com/advwatch/iapd/backend/pkg/httputil"
	"github.com/advwatch/iapd/backend/pkg/logger"
)

// Fetcher downloads compilation archives listed on the publication page.
type Fetcher struct {
	cfg    *config.Config
	client *httputil.Client
	log    *logger.Logger
}

func NewFetcher(cfg *config.Config, client *httputil.Client, log *logger.Logger) *Fetcher {
	return &Fetcher{
		cfg:    cfg,
		client: client,
		log:    log.WithField("component", "source"),
	}
}

// FetchResult summarizes one fetch run
type FetchResult struct {
	Found      int `json:"found"`
	Downloaded int `json:"downloaded"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

// Fetch scrapes the listing page and downloads every archive not already on
// disk. Exempt-reporting adviser archives are skipped unless configured in.
func (f *Fetcher) Fetch(ctx context.Context) (*FetchResult, error) {
	if err := os.MkdirAll(f.cfg.Source.ArchiveDir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	links, err := f.listArchives(ctx)
	if err != nil {
		return nil, err
	}

	result := &FetchResult{Found: len(links)}
	f.log.Infof("listing has %d archives", len(links))

	for _, link := range links {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		name := filepath.Base(link)
		dest := filepath.Join(f.cfg.Source.ArchiveDir, name)
		if _, err := os.Stat(dest); err == nil {
			result.Skipped++
			continue
		}

		if err := f.download(ctx, link, dest); err != nil {
			f.log.WithError(err).Errorf("download %s failed", name)
			result.Failed++
			continue
		}
		f.log.Infof("downloaded %s", name)
		result.Downloaded++
	}
	return result, nil
}

// listArchives scrapes the publication page for compilation archive links.
func (f *Fetcher) listArchives(ctx context.Context) ([]string, error) {
	resp, err := f.client.Get(ctx, f.cfg.Source.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	base, err := url.Parse(f.cfg.Source.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !f.wantArchive(href) {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		links = append(links, base.ResolveReference(ref).String())
	})
	return links, nil
}

// wantArchive filters listing links down to adviser compilation archives.
// Exempt-reporting archives carry "era" in the name.
func (f *Fetcher) wantArchive(href string) bool {
	name := strings.ToLower(filepath.Base(href))
	if !strings.HasSuffix(name, ".zip") {
		return false
	}
	if !strings.HasPrefix(name, "ia") {
		return false
	}
	if !f.cfg.Source.IncludeExempt && strings.Contains(name, "era") {
		return false
	}
	return true
}

func (f *Fetcher) download(ctx context.Context, link, dest string) error {
	resp, err := f.client.Get(ctx, link)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	// Download to a temp name so a cut connection never leaves a partial
	// archive that a later run would skip.
	tmp := dest + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}
