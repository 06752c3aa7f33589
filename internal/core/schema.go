package core

// schema.go builds typed Datasets from raw tabular records.
//
// This is the single place where column names are normalized (stringified and
// trimmed) and where raw cell text becomes typed Values. No other component
// re-trims names or re-parses cells; downstream code may assume a Dataset is
// already clean.

import (
	"fmt"
	"strings"
)

// TypeInferenceSampleSize is how many non-empty cells are scanned per column
// when inferring its type.
var TypeInferenceSampleSize = 100

// SampleValueCount is how many raw sample values are kept per column.
var SampleValueCount = 3

// InferDataset builds a typed Dataset from raw records.
//
// records holds every row of the file including the header; headerRow is the
// 0-based index of the header row. Rows before the header are ignored, rows
// after it become data. Returns a ParseError if the header row is out of
// bounds, the input has zero columns, or two columns share a name after
// trimming.
func InferDataset(id string, records [][]string, headerRow int) (*Dataset, error) {
	if headerRow < 0 || headerRow >= len(records) {
		return nil, parseErrorf(-1, "header row %d is out of bounds for %d rows", headerRow, len(records))
	}

	names, err := normalizeHeader(records[headerRow])
	if err != nil {
		return nil, err
	}

	// Collect raw data columns, skipping fully empty rows.
	var dataRows [][]string
	for _, rec := range records[headerRow+1:] {
		if isEmptyRecord(rec) {
			continue
		}
		dataRows = append(dataRows, rec)
	}

	columns := make([]ColumnInfo, len(names))
	for i, name := range names {
		raw := columnCells(dataRows, i)
		columns[i] = ColumnInfo{
			Name:    name,
			Type:    inferColumnType(raw),
			Samples: sampleValues(raw),
		}
	}

	rows := make([]Row, len(dataRows))
	for r, rec := range dataRows {
		row := make(Row, len(columns))
		for c, col := range columns {
			var cell string
			if c < len(rec) {
				cell = CleanCell(rec[c])
			}
			row[col.Name] = convertCell(cell, col.Type)
		}
		rows[r] = row
	}

	return &Dataset{ID: id, Columns: columns, Rows: rows}, nil
}

// normalizeHeader stringifies and trims each header cell exactly once and
// enforces uniqueness. Unnamed columns get a positional fallback name.
func normalizeHeader(header []string) ([]string, error) {
	names := make([]string, 0, len(header))
	seen := make(map[string]int, len(header))

	for i, h := range header {
		name := CleanCell(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if prev, dup := seen[name]; dup {
			return nil, parseErrorf(-1, "duplicate column name %q (positions %d and %d)", name, prev+1, i+1)
		}
		seen[name] = i
		names = append(names, name)
	}

	if len(names) == 0 {
		return nil, parseErrorf(-1, "input has no columns")
	}
	return names, nil
}

// columnCells extracts the cleaned raw strings of one column.
func columnCells(rows [][]string, col int) []string {
	cells := make([]string, len(rows))
	for i, rec := range rows {
		if col < len(rec) {
			cells[i] = CleanCell(rec[col])
		}
	}
	return cells
}

// inferColumnType scans up to TypeInferenceSampleSize non-empty cells and
// picks the narrowest type that fits every one of them:
// integer, then number, then boolean, then date, then text.
func inferColumnType(cells []string) ColumnType {
	allInt, allNum, allBool, allDate := true, true, true, true
	scanned := 0

	for _, cell := range cells {
		if cell == "" {
			continue
		}
		if scanned >= TypeInferenceSampleSize {
			break
		}
		scanned++

		if allInt {
			if _, ok := ParseInt(cell); !ok {
				allInt = false
			}
		}
		if allNum {
			if _, ok := ParseNumber(cell); !ok {
				allNum = false
			}
		}
		if allBool && !isBoolToken(cell) {
			allBool = false
		}
		if allDate {
			if _, ok := ParseDate(cell); !ok {
				allDate = false
			}
		}
		if !allInt && !allNum && !allBool && !allDate {
			break
		}
	}

	if scanned == 0 {
		return TypeText
	}
	switch {
	case allInt:
		return TypeInteger
	case allNum:
		return TypeNumber
	case allBool:
		return TypeBoolean
	case allDate:
		return TypeDate
	default:
		return TypeText
	}
}

// sampleValues keeps the first few non-empty raw cells for schema display.
func sampleValues(cells []string) []string {
	var samples []string
	for _, cell := range cells {
		if cell == "" {
			continue
		}
		samples = append(samples, cell)
		if len(samples) >= SampleValueCount {
			break
		}
	}
	return samples
}

// convertCell parses one cleaned cell under the column's inferred type.
// Empty cells are Missing. A cell that fails its column type falls back to
// text rather than being dropped, so no data is silently lost.
func convertCell(cell string, t ColumnType) Value {
	if cell == "" {
		return Missing
	}
	switch t {
	case TypeInteger:
		if i, ok := ParseInt(cell); ok {
			return IntValue(i)
		}
	case TypeNumber:
		if f, ok := ParseNumber(cell); ok {
			return NumberValue(f)
		}
	case TypeBoolean:
		if b, ok := ParseBool(cell); ok {
			return BoolValue(b)
		}
	case TypeDate:
		if t, ok := ParseDate(cell); ok {
			return DateValue(t)
		}
	}
	return TextValue(cell)
}

// isEmptyRecord reports whether every cell of a record is blank.
func isEmptyRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
