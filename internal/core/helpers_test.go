package core

// helpers_test.go provides small builders shared across the engine tests.

// textDataset builds a dataset of text columns from raw string rows.
// Empty cells become Missing, matching what ingestion produces.
func textDataset(id string, columns []string, rawRows ...[]string) *Dataset {
	cols := make([]ColumnInfo, len(columns))
	for i, name := range columns {
		cols[i] = ColumnInfo{Name: name, Type: TypeText}
	}

	rows := make([]Row, len(rawRows))
	for r, raw := range rawRows {
		row := make(Row, len(columns))
		for c, name := range columns {
			if c < len(raw) && raw[c] != "" {
				row[name] = TextValue(raw[c])
			} else {
				row[name] = Missing
			}
		}
		rows[r] = row
	}

	return &Dataset{ID: id, Columns: cols, Rows: rows}
}

// f64 returns a pointer to f, for literal math operands.
func f64(f float64) *float64 { return &f }

// warningMessages extracts just the messages for easy assertions.
func warningMessages(warnings []Warning) []string {
	msgs := make([]string, len(warnings))
	for i, w := range warnings {
		msgs[i] = w.Message
	}
	return msgs
}
