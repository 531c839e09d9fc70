package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/advwatch/iapd/backend/pkg/config"
)

// Conflict counting reads each insert's own outcome, so the statements must
// expose it: reject inserts report zero affected rows on a duplicate key,
// overwrite upserts return whether the row pre-existed.
func TestInsertStatementConflictReporting(t *testing.T) {
	reject := insertStatement(config.DuplicateReject)
	assert.Contains(t, reject, "ON CONFLICT (crd, filing_date) DO NOTHING")
	assert.NotContains(t, reject, "RETURNING")

	overwrite := insertStatement(config.DuplicateOverwrite)
	assert.Contains(t, overwrite, "DO UPDATE SET")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(overwrite), "RETURNING (xmax <> 0)"))
}
