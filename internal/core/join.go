package core

// join.go computes the base row-key set for a join and the per-key row
// context the resolver works against.
//
// Key matching is always trimmed-string equality. Values are rendered to
// strings and trimmed once here, at the planner boundary; numeric-looking
// keys compare as strings, so "10" and "10.0" are distinct keys.

import (
	"fmt"
	"strings"
)

// MaxUnmatchedKeyWarnings is the number of individual unmatched-key warnings
// emitted per dataset. Further unmatched keys in the same dataset collapse
// into one aggregate warning so large mismatches cannot flood the result.
var MaxUnmatchedKeyWarnings = 5

// RowContext is the joined row for one key: dataset ID to the matched row.
// A dataset with no row for the key is simply absent from Rows.
type RowContext struct {
	Key  string
	Rows map[string]Row
}

// keyIndex is one dataset's rows indexed by trimmed key value.
type keyIndex struct {
	dataset *Dataset
	byKey   map[string]Row
	order   []string // first-seen key order within the dataset
}

// joinPlan is the planner output consumed by the workflow engine.
type joinPlan struct {
	keys     []string
	contexts map[string]RowContext
	warnings []Warning
}

// planJoin validates the key configuration, indexes every dataset, and
// computes the base key set plus a RowContext per key.
func planJoin(datasets []*Dataset, keyCfg KeyColumnConfig, spec JoinSpec) (*joinPlan, error) {
	if len(datasets) == 0 {
		return nil, configErrorf(CodeNoDatasets, "at least one dataset is required")
	}
	if !spec.Type.Valid() {
		return nil, configErrorf(CodeBadJoinType, "unsupported join type %q", spec.Type)
	}

	indexes := make([]keyIndex, len(datasets))
	byID := make(map[string]int, len(datasets))
	for i, ds := range datasets {
		keyCol, ok := keyCfg[ds.ID]
		if !ok || strings.TrimSpace(keyCol) == "" {
			return nil, configErrorf(CodeMissingKeyMapping, "no key column mapping for dataset %q", ds.ID)
		}
		if !ds.HasColumn(keyCol) {
			return nil, configErrorf(CodeUnknownKeyColumn,
				"key column %q not found in dataset %q (available: %s)",
				keyCol, ds.ID, strings.Join(ds.ColumnNames(), ", "))
		}
		indexes[i] = indexDataset(ds, keyCol)
		byID[ds.ID] = i
	}

	primary, err := resolveBase(spec.Primary, datasets, byID, 0)
	if err != nil {
		return nil, err
	}
	last, err := resolveBase(spec.Last, datasets, byID, len(datasets)-1)
	if err != nil {
		return nil, err
	}

	keys := baseKeys(indexes, spec.Type, primary, last)

	plan := &joinPlan{
		keys:     keys,
		contexts: make(map[string]RowContext, len(keys)),
	}

	unmatched := make([]int, len(datasets))
	for _, key := range keys {
		ctx := RowContext{Key: key, Rows: make(map[string]Row, len(datasets))}
		for i, idx := range indexes {
			row, ok := idx.byKey[key]
			if !ok {
				unmatched[i]++
				if unmatched[i] <= MaxUnmatchedKeyWarnings {
					plan.warnings = append(plan.warnings, Warning{
						Message:  fmt.Sprintf("dataset %q has no row for key %q", idx.dataset.ID, key),
						RowKey:   key,
						Severity: SeverityInfo,
					})
				}
				continue
			}
			ctx.Rows[idx.dataset.ID] = row
		}
		plan.contexts[key] = ctx
	}

	for i, count := range unmatched {
		if rest := count - MaxUnmatchedKeyWarnings; rest > 0 {
			plan.warnings = append(plan.warnings, Warning{
				Message:  fmt.Sprintf("dataset %q had %d more unmatched keys", indexes[i].dataset.ID, rest),
				Severity: SeverityInfo,
			})
		}
	}

	return plan, nil
}

// indexDataset builds the trimmed-key index for one dataset.
// Rows with an empty key are skipped; the first row wins on duplicate keys.
func indexDataset(ds *Dataset, keyCol string) keyIndex {
	idx := keyIndex{
		dataset: ds,
		byKey:   make(map[string]Row, len(ds.Rows)),
	}
	for _, row := range ds.Rows {
		key := strings.TrimSpace(row.Get(keyCol).String())
		if key == "" {
			continue
		}
		if _, dup := idx.byKey[key]; dup {
			continue
		}
		idx.byKey[key] = row
		idx.order = append(idx.order, key)
	}
	return idx
}

// resolveBase picks the designated base dataset index, defaulting to the
// fallback position when unset.
func resolveBase(id string, datasets []*Dataset, byID map[string]int, fallback int) (int, error) {
	if id == "" {
		return fallback, nil
	}
	i, ok := byID[id]
	if !ok {
		return 0, configErrorf(CodeUnknownDataset, "designated base dataset %q is not among the inputs", id)
	}
	return i, nil
}

// baseKeys computes the key set for the requested join type.
func baseKeys(indexes []keyIndex, t JoinType, primary, last int) []string {
	switch t {
	case JoinLeft:
		return indexes[primary].order
	case JoinRight:
		return indexes[last].order
	case JoinInner:
		var keys []string
		for _, key := range indexes[0].order {
			inAll := true
			for _, idx := range indexes[1:] {
				if _, ok := idx.byKey[key]; !ok {
					inAll = false
					break
				}
			}
			if inAll {
				keys = append(keys, key)
			}
		}
		return keys
	case JoinFull:
		var keys []string
		seen := make(map[string]bool)
		for _, idx := range indexes {
			for _, key := range idx.order {
				if !seen[key] {
					seen[key] = true
					keys = append(keys, key)
				}
			}
		}
		return keys
	}
	return nil
}
