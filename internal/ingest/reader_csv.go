package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// CSVReader reads compilation CSV exports. Delimiter is sniffed from the
// header line (comma or pipe), and files that are not valid UTF-8 are
// decoded as Latin-1, which covers the pre-2018 exports.
type CSVReader struct{}

func NewCSVReader() *CSVReader { return &CSVReader{} }

func (r *CSVReader) Read(path string) (*Batch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(raw) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		raw = decoded
	}
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.Comma = sniffDelimiter(raw)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	headers, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	for i := range headers {
		headers[i] = trim(headers[i])
	}

	batch := &Batch{
		SourceFile: filepath.Base(path),
		Headers:    headers,
	}
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row of %s: %w", path, err)
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(fields) {
				row[h] = fields[i]
			}
		}
		batch.Rows = append(batch.Rows, row)
	}
	return batch, nil
}

func sniffDelimiter(raw []byte) rune {
	line := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		line = raw[:i]
	}
	if bytes.Count(line, []byte{'|'}) > bytes.Count(line, []byte{','}) {
		return '|'
	}
	return ','
}
