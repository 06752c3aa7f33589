// Package parse reads raw uploaded CSV bytes into string records suitable
// for schema inference. It tolerates the usual spreadsheet-export artifacts:
// UTF-8 BOMs, invalid byte sequences, ragged rows, and lazy quoting.
package parse

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"unicode/utf8"
)

// Records parses CSV bytes into rows of string cells.
//
// The reader is deliberately lenient: rows may have differing field counts
// (FieldsPerRecord is disabled) and quotes may appear mid-field. Input is
// sanitized to valid UTF-8 first so one bad byte cannot fail the whole file.
func Records(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return records, nil
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement rune.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
