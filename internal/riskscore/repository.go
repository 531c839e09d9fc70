package riskscore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/advwatch/iapd/backend/internal/contracts"
	"github.com/advwatch/iapd/backend/pkg/database"
)

// Repository persists score records and serves the dashboard read queries.
type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the score table. ia_risk_score rows are created here
// and nowhere else.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS ia_risk_score (
		crd                       BIGINT           NOT NULL,
		filing_date               DATE             NOT NULL,
		mode                      TEXT             NOT NULL,
		overall_score             DOUBLE PRECISION NOT NULL,
		risk_category             TEXT             NOT NULL,
		disclosure_risk           DOUBLE PRECISION NOT NULL DEFAULT 0,
		aum_volatility_risk       DOUBLE PRECISION NOT NULL DEFAULT 0,
		client_concentration_risk DOUBLE PRECISION NOT NULL DEFAULT 0,
		filing_compliance_risk    DOUBLE PRECISION NOT NULL DEFAULT 0,
		cco_stability_risk        DOUBLE PRECISION NOT NULL DEFAULT 0,
		size_factor_risk          DOUBLE PRECISION NOT NULL DEFAULT 0,
		factors                   JSONB            NOT NULL DEFAULT '{}',
		calculated_at             TIMESTAMPTZ      NOT NULL DEFAULT now(),
		PRIMARY KEY (crd, filing_date)
	);
	CREATE INDEX IF NOT EXISTS idx_ia_risk_score_category ON ia_risk_score (risk_category);
	CREATE INDEX IF NOT EXISTS idx_ia_risk_score_overall  ON ia_risk_score (overall_score DESC);
	`
	return r.db.WithRetry(ctx, func(ctx context.Context) error {
		_, err := r.db.Pool.Exec(ctx, ddl)
		return err
	})
}

// SaveScores replaces one firm's score rows atomically.
func (r *Repository) SaveScores(ctx context.Context, crd int64, scores []*contracts.RiskScoreRecord) error {
	return r.db.WithRetry(ctx, func(ctx context.Context) error {
		tx, err := r.db.Pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback(ctx)

		if _, err := tx.Exec(ctx, `DELETE FROM ia_risk_score WHERE crd = $1`, crd); err != nil {
			return fmt.Errorf("clear scores: %w", err)
		}

		batch := &pgx.Batch{}
		for _, s := range scores {
			batch.Queue(`
				INSERT INTO ia_risk_score
					(crd, filing_date, mode, overall_score, risk_category,
					 disclosure_risk, aum_volatility_risk, client_concentration_risk,
					 filing_compliance_risk, cco_stability_risk, size_factor_risk,
					 factors, calculated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
				s.CRD, s.FilingDate, s.Mode, s.OverallScore, string(s.Category),
				s.DisclosureRisk, s.AUMVolatilityRisk, s.ClientConcentrationRisk,
				s.FilingComplianceRisk, s.CCOStabilityRisk, s.SizeFactorRisk,
				s.Factors, s.CalculatedAt,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for range scores {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert score: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close batch: %w", err)
		}
		return tx.Commit(ctx)
	})
}

// FirmSummary is one row of the dashboard firm listing: the firm's latest
// filing joined with its latest score.
type FirmSummary struct {
	CRD          int64                  `json:"crd"`
	FirmName     string                 `json:"firm_name"`
	SECRegion    string                 `json:"sec_region"`
	FilingDate   time.Time              `json:"filing_date"`
	AUM          *float64               `json:"raum,omitempty"`
	ClientCount  *int64                 `json:"client_count,omitempty"`
	OverallScore float64                `json:"overall_score"`
	Category     contracts.RiskCategory `json:"risk_category"`
}

// ListFilter narrows and orders the firm listing.
type ListFilter struct {
	Category  string
	Region    string
	SortBy    string // overall_score | raum | firm_name
	Ascending bool
	Limit     int
	Offset    int
}

const latestScoresCTE = `
	WITH latest AS (
		SELECT DISTINCT ON (s.crd)
			s.crd, s.filing_date, s.overall_score, s.risk_category
		FROM ia_risk_score s
		ORDER BY s.crd, s.filing_date DESC
	)`

// ListFirms returns one summary per firm, latest filing only.
func (r *Repository) ListFirms(ctx context.Context, f ListFilter) ([]*FirmSummary, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	where := []string{"TRUE"}
	args := []any{}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("latest.risk_category = $%d", len(args)))
	}
	if f.Region != "" {
		args = append(args, f.Region)
		where = append(where, fmt.Sprintf("fl.sec_region = $%d", len(args)))
	}

	order := "latest.overall_score"
	switch f.SortBy {
	case "raum":
		order = "fl.raum"
	case "firm_name":
		order = "fl.firm_name"
	}
	dir := "DESC NULLS LAST"
	if f.Ascending {
		dir = "ASC NULLS LAST"
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(latestScoresCTE+`
		SELECT latest.crd, fl.firm_name, fl.sec_region, latest.filing_date,
		       fl.raum::float8, fl.client_count, latest.overall_score, latest.risk_category
		FROM latest
		JOIN ia_filing fl ON fl.crd = latest.crd AND fl.filing_date = latest.filing_date
		WHERE %s
		ORDER BY %s %s
		LIMIT $%d OFFSET $%d`,
		strings.Join(where, " AND "), order, dir, len(args)-1, len(args))

	return r.queryFirms(ctx, query, args...)
}

// TopFirms returns the n highest-scoring firms.
func (r *Repository) TopFirms(ctx context.Context, n int) ([]*FirmSummary, error) {
	return r.ListFirms(ctx, ListFilter{Limit: n, SortBy: "overall_score"})
}

func (r *Repository) queryFirms(ctx context.Context, query string, args ...any) ([]*FirmSummary, error) {
	var firms []*FirmSummary
	err := r.db.WithRetry(ctx, func(ctx context.Context) error {
		rows, err := r.db.Pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		firms = firms[:0]
		for rows.Next() {
			s := &FirmSummary{}
			if err := rows.Scan(&s.CRD, &s.FirmName, &s.SECRegion, &s.FilingDate,
				&s.AUM, &s.ClientCount, &s.OverallScore, &s.Category); err != nil {
				return err
			}
			firms = append(firms, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list firms: %w", err)
	}
	return firms, nil
}

// CategoryCounts returns how many firms fall into each category, latest
// score per firm.
func (r *Repository) CategoryCounts(ctx context.Context) (map[contracts.RiskCategory]int, error) {
	counts := make(map[contracts.RiskCategory]int)
	err := r.db.WithRetry(ctx, func(ctx context.Context) error {
		rows, err := r.db.Pool.Query(ctx, latestScoresCTE+`
			SELECT risk_category, COUNT(*) FROM latest GROUP BY risk_category`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var cat string
			var n int
			if err := rows.Scan(&cat, &n); err != nil {
				return err
			}
			counts[contracts.RiskCategory(cat)] = n
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}
	return counts, nil
}

// FirmScores returns a firm's full score history in filing order.
func (r *Repository) FirmScores(ctx context.Context, crd int64) ([]*contracts.RiskScoreRecord, error) {
	var scores []*contracts.RiskScoreRecord
	err := r.db.WithRetry(ctx, func(ctx context.Context) error {
		rows, err := r.db.Pool.Query(ctx, `
			SELECT crd, filing_date, mode, overall_score, risk_category,
			       disclosure_risk, aum_volatility_risk, client_concentration_risk,
			       filing_compliance_risk, cco_stability_risk, size_factor_risk,
			       factors, calculated_at
			FROM ia_risk_score
			WHERE crd = $1
			ORDER BY filing_date`, crd)
		if err != nil {
			return err
		}
		defer rows.Close()

		scores = scores[:0]
		for rows.Next() {
			s := &contracts.RiskScoreRecord{}
			var cat string
			if err := rows.Scan(&s.CRD, &s.FilingDate, &s.Mode, &s.OverallScore, &cat,
				&s.DisclosureRisk, &s.AUMVolatilityRisk, &s.ClientConcentrationRisk,
				&s.FilingComplianceRisk, &s.CCOStabilityRisk, &s.SizeFactorRisk,
				&s.Factors, &s.CalculatedAt); err != nil {
				return err
			}
			s.Category = contracts.RiskCategory(cat)
			scores = append(scores, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("firm scores: %w", err)
	}
	return scores, nil
}

// ScoreTrend is one point of the population trend series.
type ScoreTrend struct {
	FilingDate time.Time `json:"filing_date"`
	AvgScore   float64   `json:"avg_score"`
	Firms      int       `json:"firms"`
}

// Trends returns the average overall score per filing period.
func (r *Repository) Trends(ctx context.Context) ([]*ScoreTrend, error) {
	var trends []*ScoreTrend
	err := r.db.WithRetry(ctx, func(ctx context.Context) error {
		rows, err := r.db.Pool.Query(ctx, `
			SELECT filing_date, AVG(overall_score), COUNT(*)
			FROM ia_risk_score
			GROUP BY filing_date
			ORDER BY filing_date`)
		if err != nil {
			return err
		}
		defer rows.Close()

		trends = trends[:0]
		for rows.Next() {
			t := &ScoreTrend{}
			if err := rows.Scan(&t.FilingDate, &t.AvgScore, &t.Firms); err != nil {
				return err
			}
			trends = append(trends, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("score trends: %w", err)
	}
	return trends, nil
}
