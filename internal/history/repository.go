package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/advwatch/iapd/backend/internal/contracts"
	"github.com/advwatch/iapd/backend/pkg/database"
)

// Repository loads filing histories and persists derived change records.
type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the change table. ia_change rows are created here and
// nowhere else.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS ia_change (
		crd              BIGINT           NOT NULL,
		filing_date      DATE             NOT NULL,
		raum_drop_pct    DOUBLE PRECISION NOT NULL DEFAULT 0,
		client_drop_pct  DOUBLE PRECISION NOT NULL DEFAULT 0,
		account_drop_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
		new_disclosure   BOOLEAN          NOT NULL DEFAULT FALSE,
		cco_changed      BOOLEAN          NOT NULL DEFAULT FALSE,
		decline_trend    BOOLEAN          NOT NULL DEFAULT FALSE,
		firm_age_years   INT              NOT NULL DEFAULT 0,
		calculated_at    TIMESTAMPTZ      NOT NULL DEFAULT now(),
		PRIMARY KEY (crd, filing_date)
	);
	CREATE INDEX IF NOT EXISTS idx_ia_change_crd ON ia_change (crd);
	`
	return r.db.WithRetry(ctx, func(ctx context.Context) error {
		_, err := r.db.Pool.Exec(ctx, ddl)
		return err
	})
}

// LoadAllFilings streams every canonical filing, ordered by firm and date.
func (r *Repository) LoadAllFilings(ctx context.Context) ([]*contracts.FilingRecord, error) {
	var filings []*contracts.FilingRecord
	err := r.db.WithRetry(ctx, func(ctx context.Context) error {
		rows, err := r.db.Pool.Query(ctx, `
			SELECT crd, filing_date, firm_name, legal_name, sec_number, sec_region, sec_status,
			       main_office_city, main_office_state, main_office_country, website,
			       umbrella_registration, raum, client_count, account_count,
			       disciplinary_disclosures, disclosure_flag, cco_id, source_file
			FROM ia_filing
			ORDER BY crd, filing_date`)
		if err != nil {
			return err
		}
		defer rows.Close()

		filings = filings[:0]
		for rows.Next() {
			f := &contracts.FilingRecord{}
			err := rows.Scan(
				&f.CRD, &f.FilingDate, &f.FirmName, &f.LegalName, &f.SECNumber,
				&f.SECRegion, &f.SECStatus,
				&f.MainOfficeCity, &f.MainOfficeState, &f.MainOfficeCountry, &f.Website,
				&f.UmbrellaRegistration, &f.AUM, &f.ClientCount, &f.AccountCount,
				&f.DisciplinaryDisclosures, &f.DisclosureFlag, &f.CCOID, &f.SourceFile,
			)
			if err != nil {
				return err
			}
			filings = append(filings, f)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load filings: %w", err)
	}
	return filings, nil
}

// ReplaceFirmChanges rebuilds the change rows of one firm atomically.
func (r *Repository) ReplaceFirmChanges(ctx context.Context, crd int64, changes []*contracts.ChangeRecord) error {
	return r.db.WithRetry(ctx, func(ctx context.Context) error {
		tx, err := r.db.Pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback(ctx)

		if _, err := tx.Exec(ctx, `DELETE FROM ia_change WHERE crd = $1`, crd); err != nil {
			return fmt.Errorf("clear changes: %w", err)
		}

		batch := &pgx.Batch{}
		for _, c := range changes {
			batch.Queue(`
				INSERT INTO ia_change
					(crd, filing_date, raum_drop_pct, client_drop_pct, account_drop_pct,
					 new_disclosure, cco_changed, decline_trend, firm_age_years)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
				c.CRD, c.FilingDate, c.AUMDropPct, c.ClientDropPct, c.AccountDropPct,
				c.NewDisclosure, c.CCOChanged, c.DeclineTrend, c.FirmAgeYears,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for range changes {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert change: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close batch: %w", err)
		}
		return tx.Commit(ctx)
	})
}

// FirmChanges returns a firm's change rows in filing order.
func (r *Repository) FirmChanges(ctx context.Context, crd int64) ([]*contracts.ChangeRecord, error) {
	var changes []*contracts.ChangeRecord
	err := r.db.WithRetry(ctx, func(ctx context.Context) error {
		rows, err := r.db.Pool.Query(ctx, `
			SELECT crd, filing_date, raum_drop_pct, client_drop_pct, account_drop_pct,
			       new_disclosure, cco_changed, decline_trend, firm_age_years
			FROM ia_change
			WHERE crd = $1
			ORDER BY filing_date`, crd)
		if err != nil {
			return err
		}
		defer rows.Close()

		changes = changes[:0]
		for rows.Next() {
			c := &contracts.ChangeRecord{}
			err := rows.Scan(
				&c.CRD, &c.FilingDate, &c.AUMDropPct, &c.ClientDropPct, &c.AccountDropPct,
				&c.NewDisclosure, &c.CCOChanged, &c.DeclineTrend, &c.FirmAgeYears,
			)
			if err != nil {
				return err
			}
			changes = append(changes, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load firm changes: %w", err)
	}
	return changes, nil
}
