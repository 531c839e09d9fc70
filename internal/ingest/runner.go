package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/advwatch/iapd/backend/internal/contracts"
	"github.com/advwatch/iapd/backend/pkg/config"
	"github.com/advwatch/iapd/backend/pkg/logger"
)

// Runner drives an ingest run: walk the extract directory, read each
// compilation file, build canonical records, persist them. Files are
// processed by a worker pool; one bad file is logged and counted, never
// fatal to the run.
type Runner struct {
	cfg     *config.Config
	repo    *Repository
	log     *logger.Logger
	mapping FieldMapping
}

func NewRunner(cfg *config.Config, repo *Repository, log *logger.Logger) *Runner {
	return &Runner{
		cfg:     cfg,
		repo:    repo,
		log:     log.WithField("component", "ingest"),
		mapping: DefaultMapping(),
	}
}

// Run ingests every unprocessed compilation file under dir and returns the
// run report.
func (r *Runner) Run(ctx context.Context, dir string) (*contracts.IngestReport, error) {
	report := contracts.NewIngestReport(uuid.NewString())
	start := time.Now()

	if err := r.repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	processed, err := r.repo.ProcessedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processed files: %w", err)
	}

	files, err := r.listFiles(dir)
	if err != nil {
		return nil, err
	}
	r.log.Infof("ingest run %s: %d files under %s", report.RunID, len(files), dir)

	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan string)

	workers := r.cfg.Ingest.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				r.processFile(ctx, path, processed, report, &mu)
			}
		}()
	}

	for _, f := range files {
		select {
		case jobs <- f:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return report, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	report.Duration = time.Since(start)
	r.log.Infof("ingest run %s done: %d files, %d rows, %d dropped, %d conflicts, %d failed",
		report.RunID, report.FilesProcessed, report.RowsIngested,
		report.RowsDropped, report.Conflicts, report.FilesFailed)
	return report, nil
}

func (r *Runner) processFile(ctx context.Context, path string, processed map[string]struct{}, report *contracts.IngestReport, mu *sync.Mutex) {
	name := filepath.Base(path)
	log := r.log.WithField("file", name)

	if _, done := processed[name]; done {
		log.Debug("already ingested, skipping")
		mu.Lock()
		report.FilesSkipped++
		mu.Unlock()
		return
	}

	reader := ReaderFor(path)
	if reader == nil {
		mu.Lock()
		report.FilesSkipped++
		mu.Unlock()
		return
	}

	batch, err := reader.Read(path)
	if err != nil {
		log.WithError(err).Error("read failed")
		mu.Lock()
		report.FilesFailed++
		report.BatchErrors[name] = err.Error()
		mu.Unlock()
		return
	}

	builder, err := NewBuilder(r.mapping, batch)
	if err != nil {
		log.WithError(err).Error("unrecognized layout")
		mu.Lock()
		report.FilesFailed++
		report.BatchErrors[name] = err.Error()
		mu.Unlock()
		return
	}

	records := make([]*contracts.FilingRecord, 0, len(batch.Rows))
	drops := make(map[string]int)
	for _, row := range batch.Rows {
		rec, reason := builder.Build(row)
		if reason != "" {
			drops[reason]++
			continue
		}
		records = append(records, rec)
	}

	conflicts, err := r.repo.SaveBatch(ctx, records)
	if err != nil {
		log.WithError(err).Error("persist failed")
		mu.Lock()
		report.FilesFailed++
		report.BatchErrors[name] = err.Error()
		mu.Unlock()
		return
	}

	mu.Lock()
	report.FilesProcessed++
	report.RowsIngested += len(records)
	report.Conflicts += conflicts
	for reason, n := range drops {
		report.AddDrop(reason, n)
	}
	mu.Unlock()

	log.Infof("ingested %d rows (%d dropped, %d conflicts)", len(records), len(batch.Rows)-len(records), conflicts)
}

// listFiles returns ingestible files under dir, sorted by name so runs are
// deterministic. macOS resource-fork stubs ("._ia...") are skipped.
func (r *Runner) listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), "._") {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
