package riskscore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/advwatch/iapd/backend/internal/contracts"
	"github.com/advwatch/iapd/backend/internal/history"
	"github.com/advwatch/iapd/backend/pkg/config"
	"github.com/advwatch/iapd/backend/pkg/logger"
)

// Engine runs a full scoring pass: rebuild every firm's change records from
// its filing history, then score every filing under the configured mode.
// Scores and changes are derived data; each run fully recomputes both.
type Engine struct {
	cfg      *config.Config
	calc     *Calculator
	calcHist *history.Calculator
	histRepo *history.Repository
	repo     *Repository
	log      *logger.Logger
}

func NewEngine(cfg *config.Config, histRepo *history.Repository, repo *Repository, log *logger.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		calc:     NewCalculator(cfg.Scoring.ExpectedFilingsPerYear, cfg.Scoring.OptimalAUM, cfg.Scoring.SizeCurveScale),
		calcHist: history.NewCalculator(cfg.Scoring.TrendWindow, cfg.Scoring.TrendThresholdPct),
		histRepo: histRepo,
		repo:     repo,
		log:      log.WithField("component", "riskscore"),
	}
}

// Run executes one scoring pass and returns its report.
func (e *Engine) Run(ctx context.Context) (*contracts.ScoreReport, error) {
	mode := string(e.cfg.Scoring.Mode)
	report := contracts.NewScoreReport(uuid.NewString(), mode)
	start := time.Now()

	if err := e.histRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure change schema: %w", err)
	}
	if err := e.repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure score schema: %w", err)
	}

	filings, err := e.histRepo.LoadAllFilings(ctx)
	if err != nil {
		return nil, err
	}
	byFirm := history.GroupByFirm(filings)
	p95 := e.populationP95(filings)
	e.log.Infof("scoring run %s: %d firms, %d filings, mode=%s, p95=%.4f",
		report.RunID, len(byFirm), len(filings), mode, p95)

	var mu sync.Mutex
	var wg sync.WaitGroup
	var firstErr error
	jobs := make(chan int64)

	workers := e.cfg.Ingest.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for crd := range jobs {
				if err := e.scoreFirm(ctx, crd, byFirm[crd], p95, report, &mu); err != nil {
					e.log.WithError(err).Errorf("firm %d failed", crd)
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
				}
			}
		}()
	}

	for crd := range byFirm {
		select {
		case jobs <- crd:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return report, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	report.Duration = time.Since(start)
	e.log.Infof("scoring run %s done: %d firms, %d filings scored", report.RunID, report.FirmsScored, report.FilingsScored)
	if firstErr != nil {
		return report, fmt.Errorf("scoring run %s: %w", report.RunID, firstErr)
	}
	return report, nil
}

// scoreFirm rebuilds the firm's change records, scores each of its filings
// and persists both.
func (e *Engine) scoreFirm(ctx context.Context, crd int64, hist []*contracts.FilingRecord, p95 float64, report *contracts.ScoreReport, mu *sync.Mutex) error {
	changes := e.calcHist.Changes(hist)
	if err := e.histRepo.ReplaceFirmChanges(ctx, crd, changes); err != nil {
		return fmt.Errorf("replace changes: %w", err)
	}

	scores := make([]*contracts.RiskScoreRecord, 0, len(hist))
	degraded := make(map[string]int)
	for i, f := range hist {
		rec := e.scoreFiling(f, hist, changes, i, p95, degraded)
		scores = append(scores, rec)
	}
	if err := e.repo.SaveScores(ctx, crd, scores); err != nil {
		return fmt.Errorf("save scores: %w", err)
	}

	mu.Lock()
	report.FirmsScored++
	report.FilingsScored += len(scores)
	for name, n := range degraded {
		report.DegradedFactors[name] += n
	}
	for _, s := range scores {
		report.Categories[s.Category]++
	}
	mu.Unlock()
	return nil
}

func (e *Engine) scoreFiling(f *contracts.FilingRecord, hist []*contracts.FilingRecord, changes []*contracts.ChangeRecord, idx int, p95 float64, degraded map[string]int) *contracts.RiskScoreRecord {
	rec := &contracts.RiskScoreRecord{
		CRD:          f.CRD,
		FilingDate:   f.FilingDate,
		CalculatedAt: time.Now().UTC(),
	}

	if e.cfg.Scoring.Mode == config.ScoringPoints {
		PointsScore(f, rec)
		return rec
	}

	rec.Mode = ModeWeighted
	years := historyYears(hist, idx)
	audit := map[string]float64{"years_active": years}

	var rate float64
	rec.DisclosureRisk, rate = e.calc.DisclosureRisk(f.DisciplinaryDisclosures, years)
	audit["disclosure_rate"] = rate

	aums := reportedAUMs(hist[:idx+1])
	vol, ok := e.calc.AUMVolatility(aums)
	rec.AUMVolatilityRisk = vol
	if !ok {
		degraded[contracts.FactorAUMVolatility]++
	}

	score, ratio, ok := e.calc.ClientConcentration(f.ClientCount, f.AccountCount, p95)
	rec.ClientConcentrationRisk = score
	audit["concentration_ratio"] = ratio
	audit["population_p95"] = p95
	if !ok {
		degraded[contracts.FactorClientConcentration]++
	}

	var freq float64
	rec.FilingComplianceRisk, freq = e.calc.FilingCompliance(idx+1, years)
	audit["filing_frequency"] = freq

	ccoChanges := countCCOChanges(changes, f.FilingDate)
	rec.CCOStabilityRisk = e.calc.CCOStability(ccoChanges)
	audit["cco_change_count"] = float64(ccoChanges)

	aum, reported := f.AUMFloat()
	if sizeScore, ok := e.calc.SizeRisk(aum, reported); ok {
		rec.SizeFactorRisk = sizeScore
		audit["raum"] = aum
	} else {
		degraded[contracts.FactorSize]++
	}

	rec.OverallScore = WeightedOverall(rec)
	rec.Category = CategorizeWeighted(rec.OverallScore)
	rec.Factors = audit
	return rec
}

// populationP95 computes the 95th percentile concentration ratio across
// every filing that reports a client count.
func (e *Engine) populationP95(filings []*contracts.FilingRecord) float64 {
	ratios := make([]float64, 0, len(filings))
	for _, f := range filings {
		if f.ClientCount == nil {
			continue
		}
		ratios = append(ratios, ConcentrationRatio(*f.ClientCount, f.AccountCount))
	}
	return Percentile95(ratios)
}

func reportedAUMs(hist []*contracts.FilingRecord) []float64 {
	out := make([]float64, 0, len(hist))
	for _, f := range hist {
		if v, ok := f.AUMFloat(); ok {
			out = append(out, v)
		}
	}
	return out
}

// countCCOChanges counts officer changes observed up to and including the
// given filing date.
func countCCOChanges(changes []*contracts.ChangeRecord, upto time.Time) int {
	n := 0
	for _, c := range changes {
		if c.CCOChanged && !c.FilingDate.After(upto) {
			n++
		}
	}
	return n
}

func historyYears(hist []*contracts.FilingRecord, idx int) float64 {
	if idx <= 0 || len(hist) == 0 {
		return minYearsActive
	}
	span := hist[idx].FilingDate.Sub(hist[0].FilingDate).Hours() / (365.25 * 24)
	if span < minYearsActive {
		return minYearsActive
	}
	return span
}
