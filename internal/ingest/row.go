package ingest

// Row is one named-field record from a source batch. Values are kept as raw
// strings; all coercion happens in the deriver so the readers stay
// format-only.
type Row map[string]string

// Batch is one historical snapshot reduced to the common row abstraction.
// The canonical record builder never inspects the file format directly; CSV
// and spreadsheet readers both produce this shape.
type Batch struct {
	// SourceFile is the base name of the file the batch came from. It is
	// used to derive the filing period when no explicit date column exists.
	SourceFile string

	// Headers is the realized header set, in source order
	Headers []string

	Rows []Row
}

// Get returns the trimmed value of a column, or "" when absent
func (r Row) Get(column string) string {
	return trim(r[column])
}

// BatchReader turns one source file into a Batch
type BatchReader interface {
	// Read parses the file at path. A nil Batch with an error marks a
	// batch-level defect; the caller aborts that batch only.
	Read(path string) (*Batch, error)
}
