// Package tabular converts between CSV text and arrays of records.
//
// The first row is the header. Cells are trimmed and coerced, so "1" becomes a
// number and "true" a boolean. Quoted cells follow RFC 4180 on both read and
// write, which keeps CSV to CSV conversion stable after the first pass.
package tabular

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/mcncl/toonkit/internal/analyzer"
	"github.com/mcncl/toonkit/internal/coerce"
	"github.com/mcncl/toonkit/internal/errors"
	"github.com/mcncl/toonkit/internal/formatter"
	"github.com/mcncl/toonkit/internal/models"
)

// Decode parses CSV text into an array of objects keyed by the header row.
// Rows shorter than the header leave the missing trailing keys out of their
// object; extra cells beyond the header are dropped.
func Decode(text string) (models.Value, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.Null(), headerOnly()
	}

	reader := csv.NewReader(strings.NewReader(trimmed))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.Null(), errors.NewParseError(errors.KindInvalidCSV, "failed to read CSV row", err)
		}
		rows = append(rows, row)
	}
	if len(rows) < 2 {
		return models.Null(), headerOnly()
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	records := make([]models.Value, 0, len(rows)-1)
	for _, row := range rows[1:] {
		obj := models.NewObject()
		for i, header := range headers {
			if i >= len(row) {
				break
			}
			obj.Set(header, coerce.Scalar(strings.TrimSpace(row[i])))
		}
		records = append(records, models.FromObject(obj))
	}
	return models.Array(records...), nil
}

func headerOnly() error {
	return errors.NewParseError(errors.KindEmptyOrHeaderOnly, "CSV must have at least a header and one data row", nil)
}

// Encode writes a non-empty array of objects as CSV. The header is the first
// record's keys; every record is projected onto that header, so keys the first
// record lacks are dropped and missing keys become empty cells.
func Encode(v models.Value) (string, error) {
	records, ok := analyzer.RecordObjects(v.Items())
	if !ok {
		return "", errors.NewShapeError(errors.KindNotTabular, "data must be an array with at least one object", nil)
	}

	headers := records[0].Keys()
	lines := make([]string, 0, len(records)+1)

	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = quoteCell(h)
	}
	lines = append(lines, joinCells(cells))

	for _, rec := range records {
		cells := make([]string, len(headers))
		for i, h := range headers {
			value, present := rec.Get(h)
			if !present {
				continue
			}
			cell, err := renderCell(value)
			if err != nil {
				return "", err
			}
			cells[i] = cell
		}
		lines = append(lines, joinCells(cells))
	}
	return strings.Join(lines, "\n"), nil
}

// renderCell stringifies scalars directly and nested values as compact JSON.
// Null renders as an empty cell.
func renderCell(v models.Value) (string, error) {
	switch v.Kind() {
	case models.KindNull:
		return "", nil
	case models.KindString:
		return quoteCell(v.StringValue()), nil
	case models.KindArray, models.KindObject:
		text, err := formatter.NewFormatter().WithIndent(0).Format(v)
		if err != nil {
			return "", err
		}
		return quoteCell(text), nil
	}
	return v.Text(), nil
}

// joinCells keeps a lone empty cell visible; a blank line would be skipped on read.
func joinCells(cells []string) string {
	line := strings.Join(cells, ",")
	if line == "" {
		return `""`
	}
	return line
}

func quoteCell(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
