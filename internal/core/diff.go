package core

// diff.go compares two versions of a keyed dataset cell by cell.
//
// Matching follows the same rule as the join planner: trimmed-string key
// equality. Equality between cells is missing-aware via Value.Equal, so two
// missing cells never register as a change while missing-versus-present
// always does.

import (
	"fmt"
	"strings"
)

// Diff compares before and after keyed on keyColumn and returns every
// per-row, per-cell change plus a summary.
//
// Rows present in both sides contribute a RowChange only when at least one
// cell differs. Rows present on a single side become flagged add/remove
// changes with no cell detail. The only fatal error is the key column being
// absent from either side.
func Diff(before, after *Dataset, keyColumn string) (*DiffResult, error) {
	keyColumn = strings.TrimSpace(keyColumn)
	if !before.HasColumn(keyColumn) {
		return nil, configErrorf(CodeDiffKeyMissing, "key column %q not found in the original dataset", keyColumn)
	}
	if !after.HasColumn(keyColumn) {
		return nil, configErrorf(CodeDiffKeyMissing, "key column %q not found in the modified dataset", keyColumn)
	}

	beforeIdx := indexDataset(before, keyColumn)
	afterIdx := indexDataset(after, keyColumn)
	columns := unionColumns(before, after)

	result := &DiffResult{KeyColumn: keyColumn}

	// Modified and removed rows, in before-side order.
	for _, key := range beforeIdx.order {
		oldRow := beforeIdx.byKey[key]
		newRow, ok := afterIdx.byKey[key]
		if !ok {
			result.Changes = append(result.Changes, RowChange{
				KeyValue:       key,
				HasWarning:     true,
				WarningMessage: "row removed",
			})
			continue
		}
		if rc, changed := compareRow(key, oldRow, newRow, columns, result); changed {
			result.Changes = append(result.Changes, rc)
		}
	}

	// Added rows, in after-side order.
	for _, key := range afterIdx.order {
		if _, ok := beforeIdx.byKey[key]; !ok {
			result.Changes = append(result.Changes, RowChange{
				KeyValue:       key,
				HasWarning:     true,
				WarningMessage: "row added",
			})
		}
	}

	for _, rc := range result.Changes {
		result.Summary.RowsAffected++
		result.Summary.CellsModified += len(rc.Cells)
		if rc.HasWarning {
			result.Summary.Warnings++
		}
	}

	return result, nil
}

// compareRow builds the RowChange for one key present on both sides.
// A new numeric value going negative flags the row; the original system
// surfaced this to reviewers as a warning, not an error.
func compareRow(key string, oldRow, newRow Row, columns []string, result *DiffResult) (RowChange, bool) {
	rc := RowChange{KeyValue: key}

	for _, col := range columns {
		oldVal := oldRow.Get(col)
		newVal := newRow.Get(col)
		if oldVal.Equal(newVal) {
			continue
		}

		cell := CellChange{Column: col, OldValue: oldVal, NewValue: newVal}
		if on, ok := oldVal.AsNumber(); ok {
			if nn, ok := newVal.AsNumber(); ok {
				delta := nn - on
				cell.Delta = &delta
			}
		}
		if nn, ok := newVal.AsNumber(); ok && nn < 0 {
			cell.HasWarning = true
			rc.HasWarning = true
			rc.WarningMessage = fmt.Sprintf("value became negative in column %q", col)
			result.Warnings = append(result.Warnings, Warning{
				Message:  rc.WarningMessage,
				RowKey:   key,
				Column:   col,
				Severity: SeverityWarning,
			})
		}
		rc.Cells = append(rc.Cells, cell)
	}

	return rc, len(rc.Cells) > 0
}

// DiffFromChanges builds a DiffResult from the changes recorded while
// applying steps, grouping them by row key in first-change order and
// attributing every cell to its step. The supplied warnings (unmatched keys,
// unknown target columns) seed the result; negative-value warnings are added
// here, matching the comparison-based Diff.
func DiffFromChanges(keyColumn string, changes []StepChange, warnings []Warning) *DiffResult {
	result := &DiffResult{
		KeyColumn: keyColumn,
		Warnings:  append([]Warning(nil), warnings...),
	}

	byKey := make(map[string]int, len(changes))
	for _, ch := range changes {
		i, ok := byKey[ch.KeyValue]
		if !ok {
			i = len(result.Changes)
			byKey[ch.KeyValue] = i
			result.Changes = append(result.Changes, RowChange{KeyValue: ch.KeyValue})
		}
		rc := &result.Changes[i]

		cell := CellChange{
			Column:   ch.Column,
			OldValue: ch.OldValue,
			NewValue: ch.NewValue,
			StepID:   ch.StepID,
			StepName: ch.StepName,
		}
		if on, ok := ch.OldValue.AsNumber(); ok {
			if nn, ok := ch.NewValue.AsNumber(); ok {
				delta := nn - on
				cell.Delta = &delta
			}
		}
		if nn, ok := ch.NewValue.AsNumber(); ok && nn < 0 {
			cell.HasWarning = true
			rc.HasWarning = true
			rc.WarningMessage = fmt.Sprintf("value became negative in column %q", ch.Column)
			result.Warnings = append(result.Warnings, Warning{
				Message:  rc.WarningMessage,
				RowKey:   ch.KeyValue,
				Column:   ch.Column,
				Severity: SeverityWarning,
			})
		}
		rc.Cells = append(rc.Cells, cell)
		result.Summary.CellsModified++
	}

	result.Summary.RowsAffected = len(result.Changes)
	result.Summary.Warnings = len(result.Warnings)
	return result
}

// unionColumns returns every column present in at least one side, in
// before-side order followed by columns new to the after side.
func unionColumns(before, after *Dataset) []string {
	seen := make(map[string]bool, len(before.Columns))
	columns := make([]string, 0, len(before.Columns))
	for _, c := range before.Columns {
		seen[c.Name] = true
		columns = append(columns, c.Name)
	}
	for _, c := range after.Columns {
		if !seen[c.Name] {
			seen[c.Name] = true
			columns = append(columns, c.Name)
		}
	}
	return columns
}
