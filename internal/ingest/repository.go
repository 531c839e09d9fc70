package ingest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/advwatch/iapd/backend/internal/contracts"
	"github.com/advwatch/iapd/backend/pkg/config"
	"github.com/advwatch/iapd/backend/pkg/database"
)

// Repository persists canonical filing records. Writes for one source file
// run inside a single transaction so a failed file never leaves partial
// rows behind.
type Repository struct {
	db     *database.DB
	policy config.DuplicatePolicy
}

func NewRepository(db *database.DB, policy config.DuplicatePolicy) *Repository {
	return &Repository{db: db, policy: policy}
}

// EnsureSchema creates the filing table. ia_filing rows are created here and
// nowhere else.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS ia_filing (
		crd                      BIGINT       NOT NULL,
		filing_date              DATE         NOT NULL,
		firm_name                TEXT         NOT NULL DEFAULT '',
		legal_name               TEXT         NOT NULL DEFAULT '',
		sec_number               TEXT         NOT NULL DEFAULT '',
		sec_region               TEXT         NOT NULL DEFAULT '',
		sec_status               TEXT         NOT NULL DEFAULT '',
		main_office_city         TEXT         NOT NULL DEFAULT '',
		main_office_state        TEXT         NOT NULL DEFAULT '',
		main_office_country      TEXT         NOT NULL DEFAULT '',
		website                  TEXT         NOT NULL DEFAULT '',
		umbrella_registration    BOOLEAN,
		raum                     NUMERIC(20,2),
		client_count             BIGINT,
		account_count            BIGINT,
		disciplinary_disclosures BIGINT       NOT NULL DEFAULT 0,
		disclosure_flag          BOOLEAN      NOT NULL DEFAULT FALSE,
		cco_id                   TEXT,
		source_file              TEXT         NOT NULL DEFAULT '',
		ingested_at              TIMESTAMPTZ  NOT NULL DEFAULT now(),
		PRIMARY KEY (crd, filing_date)
	);
	CREATE INDEX IF NOT EXISTS idx_ia_filing_date ON ia_filing (filing_date);
	CREATE INDEX IF NOT EXISTS idx_ia_filing_crd  ON ia_filing (crd);
	`
	return r.db.WithRetry(ctx, func(ctx context.Context) error {
		_, err := r.db.Pool.Exec(ctx, ddl)
		return err
	})
}

// SaveBatch writes one file's records in a single transaction and reports
// how many rows hit an existing (crd, filing_date) key. Under the overwrite
// policy conflicts are replaced; under the reject policy the stored row wins
// and the conflict is only counted. Conflicts are read off each insert's own
// outcome so concurrent workers never under-count.
func (r *Repository) SaveBatch(ctx context.Context, records []*contracts.FilingRecord) (conflicts int, err error) {
	if len(records) == 0 {
		return 0, nil
	}

	stmt := insertStatement(r.policy)
	overwrite := r.policy == config.DuplicateOverwrite

	err = r.db.WithRetry(ctx, func(ctx context.Context) error {
		conflicts = 0
		tx, err := r.db.Pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback(ctx)

		batch := &pgx.Batch{}
		for _, rec := range records {
			batch.Queue(stmt,
				rec.CRD, rec.FilingDate,
				rec.FirmName, rec.LegalName, rec.SECNumber, rec.SECRegion, rec.SECStatus,
				rec.MainOfficeCity, rec.MainOfficeState, rec.MainOfficeCountry,
				rec.Website, rec.UmbrellaRegistration,
				rec.AUM, rec.ClientCount, rec.AccountCount,
				rec.DisciplinaryDisclosures, rec.DisclosureFlag,
				rec.CCOID, rec.SourceFile,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for range records {
			if overwrite {
				// The upsert returns whether the row pre-existed.
				var replaced bool
				if err := br.QueryRow().Scan(&replaced); err != nil {
					br.Close()
					return fmt.Errorf("insert filing: %w", err)
				}
				if replaced {
					conflicts++
				}
				continue
			}
			ct, err := br.Exec()
			if err != nil {
				br.Close()
				return fmt.Errorf("insert filing: %w", err)
			}
			if ct.RowsAffected() == 0 {
				conflicts++
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close batch: %w", err)
		}
		return tx.Commit(ctx)
	})
	if err != nil {
		return 0, err
	}
	return conflicts, nil
}

func insertStatement(policy config.DuplicatePolicy) string {
	const cols = `
		(crd, filing_date, firm_name, legal_name, sec_number, sec_region, sec_status,
		 main_office_city, main_office_state, main_office_country,
		 website, umbrella_registration, raum, client_count, account_count,
		 disciplinary_disclosures, disclosure_flag, cco_id, source_file)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`

	if policy == config.DuplicateOverwrite {
		return `INSERT INTO ia_filing ` + cols + `
		ON CONFLICT (crd, filing_date) DO UPDATE SET
			firm_name = EXCLUDED.firm_name,
			legal_name = EXCLUDED.legal_name,
			sec_number = EXCLUDED.sec_number,
			sec_region = EXCLUDED.sec_region,
			sec_status = EXCLUDED.sec_status,
			main_office_city = EXCLUDED.main_office_city,
			main_office_state = EXCLUDED.main_office_state,
			main_office_country = EXCLUDED.main_office_country,
			website = EXCLUDED.website,
			umbrella_registration = EXCLUDED.umbrella_registration,
			raum = EXCLUDED.raum,
			client_count = EXCLUDED.client_count,
			account_count = EXCLUDED.account_count,
			disciplinary_disclosures = EXCLUDED.disciplinary_disclosures,
			disclosure_flag = EXCLUDED.disclosure_flag,
			cco_id = EXCLUDED.cco_id,
			source_file = EXCLUDED.source_file,
			ingested_at = now()
		RETURNING (xmax <> 0)`
	}
	return `INSERT INTO ia_filing ` + cols + ` ON CONFLICT (crd, filing_date) DO NOTHING`
}

// ProcessedFiles returns the distinct source files already ingested, used to
// skip files on re-runs.
func (r *Repository) ProcessedFiles(ctx context.Context) (map[string]struct{}, error) {
	files := make(map[string]struct{})
	err := r.db.WithRetry(ctx, func(ctx context.Context) error {
		rows, err := r.db.Pool.Query(ctx, `SELECT DISTINCT source_file FROM ia_filing`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var f string
			if err := rows.Scan(&f); err != nil {
				return err
			}
			files[f] = struct{}{}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
