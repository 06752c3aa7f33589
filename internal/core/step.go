package core

// step.go executes condition/action steps: for each source row matching a
// step's conditions, the target row with the same key is modified by the
// step's actions. Every modified cell is recorded with the step that caused
// it, so the diff layer can attribute changes for review.
//
// Key matching follows the join planner's rule: trimmed-string equality,
// first occurrence wins on duplicate keys. The target dataset is never
// mutated; steps run against a copy.

import (
	"fmt"
	"strings"
)

// ConditionOperator compares one source cell against a configured value.
type ConditionOperator string

const (
	OpEquals         ConditionOperator = "equals"
	OpNotEquals      ConditionOperator = "notEquals"
	OpContains       ConditionOperator = "contains"
	OpNotContains    ConditionOperator = "notContains"
	OpStartsWith     ConditionOperator = "startsWith"
	OpEndsWith       ConditionOperator = "endsWith"
	OpExists         ConditionOperator = "exists"
	OpIsEmpty        ConditionOperator = "isEmpty"
	OpGreaterThan    ConditionOperator = "greaterThan"
	OpLessThan       ConditionOperator = "lessThan"
	OpGreaterOrEqual ConditionOperator = "greaterThanOrEqual"
	OpLessOrEqual    ConditionOperator = "lessThanOrEqual"
)

// Valid reports whether the operator is one of the supported twelve.
func (o ConditionOperator) Valid() bool {
	switch o {
	case OpEquals, OpNotEquals, OpContains, OpNotContains,
		OpStartsWith, OpEndsWith, OpExists, OpIsEmpty,
		OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual:
		return true
	}
	return false
}

// numeric reports whether the operator compares numbers.
func (o ConditionOperator) numeric() bool {
	switch o {
	case OpGreaterThan, OpLessThan, OpGreaterOrEqual, OpLessOrEqual:
		return true
	}
	return false
}

// Condition is one predicate over a source row. A step's conditions are
// ANDed together; a step with no conditions matches every source row.
type Condition struct {
	Column   string            `json:"column"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value,omitempty"`
}

// matches evaluates the condition against a source row. A reference to a
// column the row lacks reads as Missing, so exists fails and isEmpty holds.
func (c Condition) matches(row Row) bool {
	v := row.Get(c.Column)
	s := v.String()

	switch c.Operator {
	case OpEquals:
		return s == c.Value
	case OpNotEquals:
		return s != c.Value
	case OpContains:
		return containsFold(s, c.Value)
	case OpNotContains:
		return !containsFold(s, c.Value)
	case OpStartsWith:
		return strings.HasPrefix(s, c.Value)
	case OpEndsWith:
		return strings.HasSuffix(s, c.Value)
	case OpExists:
		return !v.IsMissing() && s != ""
	case OpIsEmpty:
		return v.IsMissing() || s == ""
	}

	// Numeric comparisons. A non-numeric cell never matches; the threshold
	// was validated before execution started.
	n, ok := v.AsNumber()
	if !ok {
		return false
	}
	limit, ok := ParseNumber(c.Value)
	if !ok {
		return false
	}
	switch c.Operator {
	case OpGreaterThan:
		return n > limit
	case OpLessThan:
		return n < limit
	case OpGreaterOrEqual:
		return n >= limit
	case OpLessOrEqual:
		return n <= limit
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// ActionType selects how an action modifies its target cell.
type ActionType string

const (
	ActionSetValue  ActionType = "setValue"
	ActionIncrement ActionType = "increment"
	ActionDecrement ActionType = "decrement"
	ActionCopyFrom  ActionType = "copyFrom"
	ActionClear     ActionType = "clear"
	ActionFlag      ActionType = "flag"
)

// Valid reports whether the action type is one of the supported six.
func (a ActionType) Valid() bool {
	switch a {
	case ActionSetValue, ActionIncrement, ActionDecrement,
		ActionCopyFrom, ActionClear, ActionFlag:
		return true
	}
	return false
}

// Action modifies one target cell for each matched row. Increment and
// decrement take their amount from SourceColumn when set, falling back to
// Value; copyFrom always reads SourceColumn from the matched source row.
type Action struct {
	Type         ActionType `json:"type"`
	TargetColumn string     `json:"targetColumn"`
	SourceColumn string     `json:"sourceColumn,omitempty"`
	Value        Value      `json:"value,omitempty"`
}

// Step is one condition/action rule of a step workflow. Steps run in order;
// later steps see the modifications of earlier ones.
type Step struct {
	ID         string      `json:"id,omitempty"`
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions,omitempty"`
	Actions    []Action    `json:"actions"`
}

// StepChange records one cell modified by a step, attributed to that step.
type StepChange struct {
	KeyValue string
	Column   string
	OldValue Value
	NewValue Value
	StepID   string
	StepName string
}

// StepResult is the outcome of applying steps to a target dataset. Modified
// is a copy; the input target is untouched.
type StepResult struct {
	Modified *Dataset
	Changes  []StepChange
	Warnings []Warning
}

// ApplySteps runs the steps from source onto a copy of target, matching rows
// by keyColumn. Configuration problems (missing key column, unknown operator
// or action type, non-numeric threshold) are fatal and reported before any
// work happens; matched source rows without a target counterpart and actions
// targeting absent columns produce warnings instead.
func ApplySteps(source, target *Dataset, keyColumn string, steps []Step) (*StepResult, error) {
	keyColumn = strings.TrimSpace(keyColumn)
	if !source.HasColumn(keyColumn) {
		return nil, configErrorf(CodeUnknownKeyColumn, "key column %q not found in the source dataset", keyColumn)
	}
	if !target.HasColumn(keyColumn) {
		return nil, configErrorf(CodeUnknownKeyColumn, "key column %q not found in the target dataset", keyColumn)
	}
	if err := checkSteps(steps); err != nil {
		return nil, err
	}

	result := &StepResult{Modified: copyDataset(target)}
	targetIdx := indexDataset(result.Modified, keyColumn)

	for _, step := range steps {
		// Actions aiming at a column the target lacks are skipped whole,
		// with a warning so the misconfiguration stays visible.
		actions := make([]Action, 0, len(step.Actions))
		for _, a := range step.Actions {
			if !result.Modified.HasColumn(a.TargetColumn) {
				result.Warnings = append(result.Warnings, Warning{
					Message:  fmt.Sprintf("step %q targets unknown column %q", step.Name, a.TargetColumn),
					Column:   a.TargetColumn,
					Severity: SeverityWarning,
				})
				continue
			}
			actions = append(actions, a)
		}

		unmatched := 0
		for _, srcRow := range source.Rows {
			if !stepMatches(step, srcRow) {
				continue
			}
			key := strings.TrimSpace(srcRow.Get(keyColumn).String())
			if key == "" {
				continue
			}
			targetRow, ok := targetIdx.byKey[key]
			if !ok {
				unmatched++
				if unmatched <= MaxUnmatchedKeyWarnings {
					result.Warnings = append(result.Warnings, Warning{
						Message:  fmt.Sprintf("step %q matched key %q with no target row", step.Name, key),
						RowKey:   key,
						Severity: SeverityInfo,
					})
				}
				continue
			}
			for _, a := range actions {
				applyAction(step, a, srcRow, targetRow, key, result)
			}
		}
		if rest := unmatched - MaxUnmatchedKeyWarnings; rest > 0 {
			result.Warnings = append(result.Warnings, Warning{
				Message:  fmt.Sprintf("step %q had %d more keys with no target row", step.Name, rest),
				Severity: SeverityInfo,
			})
		}
	}

	return result, nil
}

// checkSteps validates every condition and action before execution.
func checkSteps(steps []Step) error {
	for _, step := range steps {
		for _, c := range step.Conditions {
			if !c.Operator.Valid() {
				return configErrorf(CodeBadCondition,
					"step %q: unsupported condition operator %q", step.Name, c.Operator)
			}
			if c.Operator.numeric() {
				if _, ok := ParseNumber(c.Value); !ok {
					return configErrorf(CodeBadCondition,
						"step %q: condition value %q is not numeric", step.Name, c.Value)
				}
			}
		}
		for _, a := range step.Actions {
			if !a.Type.Valid() {
				return configErrorf(CodeBadAction,
					"step %q: unsupported action type %q", step.Name, a.Type)
			}
			if strings.TrimSpace(a.TargetColumn) == "" {
				return configErrorf(CodeBadAction,
					"step %q: action has no target column", step.Name)
			}
		}
	}
	return nil
}

// stepMatches reports whether every condition of the step holds for the row.
func stepMatches(step Step, row Row) bool {
	for _, c := range step.Conditions {
		if !c.matches(row) {
			return false
		}
	}
	return true
}

// applyAction computes the new cell value and records a change when the
// value actually changed. The target row is mutated in place; it belongs to
// the result's copied dataset.
func applyAction(step Step, a Action, srcRow, targetRow Row, key string, result *StepResult) {
	old := targetRow.Get(a.TargetColumn)
	next := old

	switch a.Type {
	case ActionSetValue:
		next = a.Value
	case ActionIncrement, ActionDecrement:
		current, ok := old.AsNumber()
		if !old.IsMissing() && !ok {
			return
		}
		amount, _ := a.Value.AsNumber()
		if a.SourceColumn != "" {
			amount, _ = srcRow.Get(a.SourceColumn).AsNumber()
		}
		if a.Type == ActionDecrement {
			amount = -amount
		}
		next = NumberValue(current + amount)
	case ActionCopyFrom:
		if a.SourceColumn == "" {
			return
		}
		next = srcRow.Get(a.SourceColumn)
	case ActionClear:
		next = Missing
	case ActionFlag:
		next = a.Value
		if next.IsMissing() {
			next = TextValue("FLAGGED")
		}
	}

	if old.Equal(next) {
		return
	}
	targetRow[a.TargetColumn] = next
	result.Changes = append(result.Changes, StepChange{
		KeyValue: key,
		Column:   a.TargetColumn,
		OldValue: old,
		NewValue: next,
		StepID:   step.ID,
		StepName: step.Name,
	})
}

// copyDataset clones a dataset deep enough for row mutation.
func copyDataset(ds *Dataset) *Dataset {
	out := &Dataset{
		ID:      ds.ID,
		Columns: make([]ColumnInfo, len(ds.Columns)),
		Rows:    make([]Row, len(ds.Rows)),
	}
	copy(out.Columns, ds.Columns)
	for i, row := range ds.Rows {
		dup := make(Row, len(row))
		for k, v := range row {
			dup[k] = v
		}
		out.Rows[i] = dup
	}
	return out
}
