package core

import "strings"

// ColumnType is the inferred semantic type of a dataset column.
type ColumnType string

const (
	TypeText    ColumnType = "text"
	TypeInteger ColumnType = "integer"
	TypeNumber  ColumnType = "number"
	TypeBoolean ColumnType = "boolean"
	TypeDate    ColumnType = "date"
)

// ColumnInfo describes one column of a Dataset.
type ColumnInfo struct {
	Name    string     `json:"name"`
	Type    ColumnType `json:"type"`
	Samples []string   `json:"sampleValues,omitempty"`
}

// Row maps column name to cell value. Absent columns read as Missing.
type Row map[string]Value

// Get returns the cell for a column, or Missing if the row lacks it.
func (r Row) Get(column string) Value {
	if r == nil {
		return Missing
	}
	return r[column]
}

// Dataset is a typed, normalized in-memory table.
//
// Column names are trimmed exactly once, at ingestion, and are unique within
// the dataset after trimming. Datasets are immutable for the duration of a
// run; callers must not share one instance across concurrent runs as a
// mutable object.
type Dataset struct {
	ID      string       `json:"id"`
	Columns []ColumnInfo `json:"columns"`
	Rows    []Row        `json:"rows"`
}

// HasColumn reports whether the dataset has a column with the given name.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ColumnNames returns the column names in schema order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// KeyColumnConfig maps dataset ID to the column used as that dataset's join
// key. Every dataset participating in a join must have exactly one mapping;
// absence is a configuration error, not a warning.
type KeyColumnConfig map[string]string

// JoinType is the algebra determining which keys appear in a merge result.
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
	JoinFull  JoinType = "full"
)

// Valid reports whether the join type is one of the supported four.
func (j JoinType) Valid() bool {
	switch j {
	case JoinInner, JoinLeft, JoinRight, JoinFull:
		return true
	}
	return false
}

// ParseJoinType parses a join type string, defaulting empty input to left.
func ParseJoinType(s string) (JoinType, bool) {
	j := JoinType(strings.ToLower(strings.TrimSpace(s)))
	if j == "" {
		return JoinLeft, true
	}
	return j, j.Valid()
}

// JoinSpec selects the join algebra for a run. Primary designates the base
// dataset for left joins and Last the base dataset for right joins; when
// empty they default to the first and last dataset in input order.
type JoinSpec struct {
	Type    JoinType `json:"type"`
	Primary string   `json:"primaryDataset,omitempty"`
	Last    string   `json:"lastDataset,omitempty"`
}

// Severity classifies a warning for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Warning is a non-fatal, user-facing annotation attached to a result.
type Warning struct {
	Message  string   `json:"message"`
	RowKey   string   `json:"rowKey,omitempty"`
	Column   string   `json:"column,omitempty"`
	Severity Severity `json:"severity"`
}

// OutputColumn defines one column of the merged result.
type OutputColumn struct {
	ID     string       `json:"id,omitempty"`
	Name   string       `json:"name"`
	Source ColumnSource `json:"source"`
	Order  int          `json:"order"`
}

// RunResult is the outcome of one workflow run: the merged dataset plus every
// data-quality warning accumulated along the way.
type RunResult struct {
	Result   *Dataset  `json:"result"`
	Warnings []Warning `json:"warnings"`
}

// CellChange records one cell whose value differs between two versions of a
// table. Delta is set when both sides are numeric. StepID and StepName are
// set only on diffs built from step-workflow changes, attributing the cell
// to the step that modified it.
type CellChange struct {
	Column     string   `json:"column"`
	OldValue   Value    `json:"oldValue"`
	NewValue   Value    `json:"newValue"`
	Delta      *float64 `json:"delta,omitempty"`
	StepID     string   `json:"stepId,omitempty"`
	StepName   string   `json:"stepName,omitempty"`
	HasWarning bool     `json:"hasWarning"`
}

// RowChange groups the cell changes for one keyed row. Added and removed rows
// carry an empty Cells slice and a descriptive warning message.
type RowChange struct {
	KeyValue       string       `json:"keyValue"`
	Cells          []CellChange `json:"cells"`
	HasWarning     bool         `json:"hasWarning"`
	WarningMessage string       `json:"warningMessage,omitempty"`
}

// DiffSummary aggregates a diff for display.
type DiffSummary struct {
	RowsAffected  int `json:"rowsAffected"`
	CellsModified int `json:"cellsModified"`
	Warnings      int `json:"warnings"`
	Errors        int `json:"errors"`
}

// DiffResult is a structured, cell-level comparison between two versions of
// the same keyed dataset.
type DiffResult struct {
	KeyColumn string      `json:"keyColumn"`
	Changes   []RowChange `json:"changes"`
	Warnings  []Warning   `json:"warnings"`
	Summary   DiffSummary `json:"summary"`
}
