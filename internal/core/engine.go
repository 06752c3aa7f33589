package core

// engine.go orchestrates a workflow run: join planning, per-column value
// resolution, and warning accumulation.
//
// Runs are deterministic: identical inputs always produce identical output
// row order and warning order. The engine never raises for data-quality
// problems, only for configuration errors that indicate a caller bug.

import (
	"fmt"
	"sort"
)

// RunWorkflow merges the datasets into one result table.
//
// Keys come from the join planner in base-set order; for each key, every
// output column (sorted by Order) is resolved against the joined row
// context. Warnings from the planner and the resolver are concatenated into
// a single run-level list, each tagged with the row key and output column
// where it arose.
func RunWorkflow(datasets []*Dataset, keyCfg KeyColumnConfig, join JoinSpec, outputs []OutputColumn) (*RunResult, error) {
	if len(outputs) == 0 {
		return nil, configErrorf(CodeNoOutputColumns, "workflow defines no output columns")
	}
	if err := checkSourceDatasets(datasets, outputs); err != nil {
		return nil, err
	}

	plan, err := planJoin(datasets, keyCfg, join)
	if err != nil {
		return nil, err
	}

	sorted := make([]OutputColumn, len(outputs))
	copy(sorted, outputs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	warnings := plan.warnings
	rows := make([]Row, 0, len(plan.keys))
	colValues := make(map[string][]Value, len(sorted))

	for _, key := range plan.keys {
		ctx := plan.contexts[key]
		row := make(Row, len(sorted))
		for _, col := range sorted {
			value, ws := ResolveSource(col.Source, ctx)
			row[col.Name] = value
			colValues[col.Name] = append(colValues[col.Name], value)
			for _, w := range ws {
				if w.RowKey == "" {
					w.RowKey = key
				}
				if w.Column == "" {
					w.Column = col.Name
				}
				warnings = append(warnings, w)
			}
		}
		rows = append(rows, row)
	}

	columns := make([]ColumnInfo, len(sorted))
	for i, col := range sorted {
		columns[i] = ColumnInfo{
			Name: col.Name,
			Type: inferResultType(colValues[col.Name]),
		}
	}

	return &RunResult{
		Result:   &Dataset{ID: "result", Columns: columns, Rows: rows},
		Warnings: warnings,
	}, nil
}

// PreviewRowLimit is the default row cap for workflow previews.
var PreviewRowLimit = 10

// PreviewWorkflow runs the workflow and truncates the result for display.
// A truncated preview carries one extra info warning stating the limit.
func PreviewWorkflow(datasets []*Dataset, keyCfg KeyColumnConfig, join JoinSpec, outputs []OutputColumn, maxRows int) (*RunResult, error) {
	if maxRows <= 0 {
		maxRows = PreviewRowLimit
	}

	result, err := RunWorkflow(datasets, keyCfg, join, outputs)
	if err != nil {
		return nil, err
	}

	if len(result.Result.Rows) > maxRows {
		result.Result.Rows = result.Result.Rows[:maxRows]
		result.Warnings = append(result.Warnings, Warning{
			Message:  fmt.Sprintf("preview limited to %d rows", maxRows),
			Severity: SeverityInfo,
		})
	}
	return result, nil
}

// checkSourceDatasets rejects output columns that reference a dataset absent
// from the run. Unknown and empty dataset IDs are caller bugs and fatal; unknown
// columns within a known dataset are data-shape issues and resolve to
// Missing instead.
func checkSourceDatasets(datasets []*Dataset, outputs []OutputColumn) error {
	known := make(map[string]bool, len(datasets))
	for _, ds := range datasets {
		known[ds.ID] = true
	}

	check := func(col, id string) error {
		if id == "" {
			return configErrorf(CodeUnknownDataset, "output column %q references no dataset", col)
		}
		if !known[id] {
			return configErrorf(CodeUnknownDataset, "output column %q references unknown dataset %q", col, id)
		}
		return nil
	}

	for _, out := range outputs {
		switch s := out.Source.(type) {
		case DirectSource:
			if err := check(out.Name, s.DatasetID); err != nil {
				return err
			}
		case ConcatSource:
			for _, p := range s.Parts {
				if p.Type == PartColumn {
					if err := check(out.Name, p.DatasetID); err != nil {
						return err
					}
				}
			}
		case MathSource:
			for _, op := range s.Operands {
				if op.Type == PartColumn {
					if err := check(out.Name, op.DatasetID); err != nil {
						return err
					}
				}
			}
		case CustomSource:
			// No references.
		default:
			return configErrorf(CodeUnknownDataset, "output column %q has no source", out.Name)
		}
	}
	return nil
}

// inferResultType derives a result column's type from its produced values.
func inferResultType(values []Value) ColumnType {
	t := ColumnType("")
	for _, v := range values {
		var vt ColumnType
		switch v.Kind() {
		case KindMissing:
			continue
		case KindInteger:
			vt = TypeInteger
		case KindNumber:
			vt = TypeNumber
		case KindBool:
			vt = TypeBoolean
		case KindDate:
			vt = TypeDate
		default:
			vt = TypeText
		}
		switch {
		case t == "":
			t = vt
		case t == vt:
		case t == TypeInteger && vt == TypeNumber, t == TypeNumber && vt == TypeInteger:
			t = TypeNumber
		default:
			return TypeText
		}
	}
	if t == "" {
		return TypeText
	}
	return t
}
