package ingest

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// XLSXReader reads the spreadsheet-format compilations. Only the first sheet
// carries data; the first row is the header row.
type XLSXReader struct{}

func NewXLSXReader() *XLSXReader { return &XLSXReader{} }

func (r *XLSXReader) Read(path string) (*Batch, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets in %s", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet of %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty sheet in %s", path)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = trim(h)
	}

	batch := &Batch{
		SourceFile: filepath.Base(path),
		Headers:    headers,
	}
	for _, cells := range rows[1:] {
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(cells) {
				row[h] = cells[i]
			}
		}
		batch.Rows = append(batch.Rows, row)
	}
	return batch, nil
}

// ReaderFor picks the batch reader for a file by extension. Unknown
// extensions return nil; the caller skips the file.
func ReaderFor(path string) BatchReader {
	switch filepath.Ext(path) {
	case ".csv":
		return NewCSVReader()
	case ".xlsx":
		return NewXLSXReader()
	}
	return nil
}
