package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want time.Time
		ok   bool
	}{
		{"ia070125.csv", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), true},
		{"ia07012025-reports.xlsx", time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), true},
		{"IA123124.csv", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"firms.csv", time.Time{}, false},
		{"ia991599.csv", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := PeriodFromFilename(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.name)
		}
	}
}

func TestParseInt(t *testing.T) {
	n, ok, err := ParseInt("1,234")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1234), n)

	n, ok, err = ParseInt("520.0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(520), n)

	_, ok, err = ParseInt("  ")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParseInt("N/A")
	assert.Error(t, err)

	_, _, err = ParseInt("12.5")
	assert.Error(t, err)
}

func TestParseDecimal(t *testing.T) {
	d, ok, err := ParseDecimal("$1,250,000,000.00")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "1250000000", d.String())

	_, ok, err = ParseDecimal("")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParseDecimal("pending")
	assert.Error(t, err)
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"Y", "yes ", "1", "TRUE"} {
		v := ParseBool(s)
		require.NotNil(t, v, s)
		assert.True(t, *v, s)
	}
	for _, s := range []string{"N", "no", "0", "False"} {
		v := ParseBool(s)
		require.NotNil(t, v, s)
		assert.False(t, *v, s)
	}
	assert.Nil(t, ParseBool(""), "empty cell is unknown")
	assert.Nil(t, ParseBool("maybe"), "unrecognized token is unknown, not false")
	assert.Nil(t, ParseBool("UNKNOWN"))
}

func TestSumClientBuckets(t *testing.T) {
	row := Row{"5D(a)(1)": "10", "5D(b)(1)": "bad", "5D(c)(1)": "5"}
	total, ok := SumClientBuckets(row, []string{"5D(a)(1)", "5D(b)(1)", "5D(c)(1)"})
	require.True(t, ok)
	assert.Equal(t, int64(15), total, "malformed bucket contributes zero")

	_, ok = SumClientBuckets(row, nil)
	assert.False(t, ok)
}

func TestSumClientBucketsSkipsNegatives(t *testing.T) {
	row := Row{"5D(a)(1)": "10", "5D(b)(1)": "-3"}
	total, ok := SumClientBuckets(row, []string{"5D(a)(1)", "5D(b)(1)"})
	require.True(t, ok)
	assert.Equal(t, int64(10), total, "negative bucket never lowers the aggregate")

	assert.Equal(t, int64(2), SumDisciplinaryCounts(Row{"11B": "2", "11C": "-1"}, []string{"11B", "11C"}))
}

func TestCCOToken(t *testing.T) {
	tok, ok := CCOToken("jane", "Doe", "12345")
	require.True(t, ok)
	assert.Equal(t, "JANE|DOE|12345", tok)

	tok, ok = CCOToken("", "Doe", "")
	require.True(t, ok)
	assert.Equal(t, "|DOE|", tok)

	_, ok = CCOToken(" ", "", "")
	assert.False(t, ok)
}

func TestCCOTokenFromName(t *testing.T) {
	tok, ok := CCOTokenFromName("Jane Q Doe", "99")
	require.True(t, ok)
	assert.Equal(t, "JANE|Q DOE|99", tok)

	tok, ok = CCOTokenFromName("Doe", "")
	require.True(t, ok)
	assert.Equal(t, "|DOE|", tok)
}
