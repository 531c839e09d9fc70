package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// filenamePeriod matches the compilation archive naming scheme:
// ia070125.csv / ia07012025-foo.xlsx. The digit run is MMDDYYYY or MMDDYY.
var filenamePeriod = regexp.MustCompile(`ia(\d{2})(\d{2})(\d{2,4})`)

func trim(s string) string { return strings.TrimSpace(s) }

func hasPrefix(s, prefix string) bool { return strings.HasPrefix(s, prefix) }

func contains(s, substr string) bool { return strings.Contains(s, substr) }

// PeriodFromFilename derives the filing period from the source file name.
// Two-digit years are taken as 20YY; the compilations only exist from 2011
// onward so there is no century ambiguity.
func PeriodFromFilename(name string) (time.Time, bool) {
	m := filenamePeriod.FindStringSubmatch(strings.ToLower(name))
	if m == nil {
		return time.Time{}, false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// ParseDate accepts the date spellings seen in compilation cells.
func ParseDate(s string) (time.Time, bool) {
	s = trim(s)
	if s == "" {
		return time.Time{}, false
	}
	layouts := []string{
		"2006-01-02",
		"01/02/2006",
		"1/2/2006",
		"2006-01-02 15:04:05",
		"01/02/2006 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Truncate(24 * time.Hour), true
		}
	}
	return time.Time{}, false
}

// ParseInt coerces a cell to an integer. Thousands separators, surrounding
// whitespace and a trailing ".0" (spreadsheet float formatting) are
// tolerated. Empty cells are ok=false with no error; anything else
// non-numeric returns an error.
func ParseInt(s string) (int64, bool, error) {
	s = cleanNumeric(s)
	if s == "" {
		return 0, false, nil
	}
	if i := strings.Index(s, "."); i >= 0 {
		frac := s[i+1:]
		if strings.Trim(frac, "0") != "" {
			return 0, false, fmt.Errorf("not an integer: %q", s)
		}
		s = s[:i]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("not an integer: %q", s)
	}
	return n, true, nil
}

// ParseDecimal coerces a cell to a decimal amount, used for AUM where float
// rounding of 12-digit dollar figures is not acceptable.
func ParseDecimal(s string) (decimal.Decimal, bool, error) {
	s = cleanNumeric(s)
	if s == "" {
		return decimal.Decimal{}, false, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("not a number: %q", s)
	}
	return d, true, nil
}

// ParseBool normalizes the yes/no spellings used in the compilations. A
// token outside the known spellings yields nil: an unreadable flag cell
// reads as unknown, never as "no".
func ParseBool(s string) *bool {
	switch strings.ToUpper(trim(s)) {
	case "Y", "YES", "TRUE", "T", "1":
		v := true
		return &v
	case "N", "NO", "FALSE", "F", "0":
		v := false
		return &v
	}
	return nil
}

func cleanNumeric(s string) string {
	s = trim(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	return s
}

// SumClientBuckets adds the per-client-type counts of a row. Malformed or
// negative bucket cells contribute zero; the buckets are derived convenience
// data and never invalidate the row. ok is false when no bucket columns
// exist.
func SumClientBuckets(row Row, cols []string) (int64, bool) {
	if len(cols) == 0 {
		return 0, false
	}
	var total int64
	for _, col := range cols {
		n, ok, err := ParseInt(row.Get(col))
		if err != nil || !ok || n < 0 {
			continue
		}
		total += n
	}
	return total, true
}

// SumDisciplinaryCounts adds the Item 11 per-category counts of a row, with
// the same malformed-cell tolerance as the client buckets.
func SumDisciplinaryCounts(row Row, cols []string) int64 {
	var total int64
	for _, col := range cols {
		n, ok, err := ParseInt(row.Get(col))
		if err != nil || !ok || n < 0 {
			continue
		}
		total += n
	}
	return total
}

// CCOToken builds the composite compliance-officer identity token used for
// change detection: FIRST|LAST|CRD, uppercased. Any single present component
// is enough to form a token; a fully absent officer yields ok=false.
func CCOToken(first, last, crd string) (string, bool) {
	first = strings.ToUpper(trim(first))
	last = strings.ToUpper(trim(last))
	crd = trim(crd)
	if first == "" && last == "" && crd == "" {
		return "", false
	}
	return first + "|" + last + "|" + crd, true
}

// CCOTokenFromName builds the token from a single combined-name column.
func CCOTokenFromName(name, crd string) (string, bool) {
	name = strings.ToUpper(trim(name))
	crd = trim(crd)
	if name == "" && crd == "" {
		return "", false
	}
	parts := strings.Fields(name)
	first, last := "", ""
	switch {
	case len(parts) == 1:
		last = parts[0]
	case len(parts) > 1:
		first = parts[0]
		last = strings.Join(parts[1:], " ")
	}
	return first + "|" + last + "|" + crd, true
}
