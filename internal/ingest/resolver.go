package ingest

import "fmt"

// ErrNoResolvableColumns is returned when a batch resolves none of the
// canonical fields at all, which means the file is not a recognized
// compilation layout. The whole batch is rejected rather than producing
// thousands of empty records.
var ErrNoResolvableColumns = fmt.Errorf("no canonical columns resolvable in header set")

// Resolver binds the canonical field mapping to one batch's realized header
// set. A Resolver is built once per file and is read-only afterwards.
type Resolver struct {
	resolved map[string]string
	headers  []string
}

// NewResolver resolves each canonical field against the batch headers,
// taking the first variant present. Fields with no present variant are
// simply absent; callers decide per field whether absence is fatal.
func NewResolver(mapping FieldMapping, headers []string) (*Resolver, error) {
	set := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		set[trim(h)] = struct{}{}
	}

	resolved := make(map[string]string, len(mapping))
	for field, variants := range mapping {
		for _, v := range variants {
			if _, ok := set[v]; ok {
				resolved[field] = v
				break
			}
		}
	}
	if len(resolved) == 0 {
		return nil, ErrNoResolvableColumns
	}

	return &Resolver{resolved: resolved, headers: headers}, nil
}

// Column returns the source column bound to a canonical field, or ok=false
// when the batch has no variant for it.
func (r *Resolver) Column(field string) (string, bool) {
	col, ok := r.resolved[field]
	return col, ok
}

// Has reports whether the batch carries any variant of the field.
func (r *Resolver) Has(field string) bool {
	_, ok := r.resolved[field]
	return ok
}

// Value reads a canonical field from a row, trimmed. Missing field or empty
// cell both return "".
func (r *Resolver) Value(row Row, field string) string {
	col, ok := r.resolved[field]
	if !ok {
		return ""
	}
	return row.Get(col)
}

// ClientBuckets returns the client-type count columns of this batch.
func (r *Resolver) ClientBuckets() []string {
	return clientBucketColumns(r.headers)
}

// DisciplinaryCounts returns the Item 11 count columns of this batch.
func (r *Resolver) DisciplinaryCounts() []string {
	return disciplinaryCountColumns(r.headers)
}
