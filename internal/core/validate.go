package core

// validate.go checks a workflow configuration against the datasets it will
// run over, reporting every problem at once.
//
// RunWorkflow fails fast on the first configuration error; this validator
// exists for the editing UI, which wants the complete list so the user can
// fix everything in one pass. Unknown columns are included here even though
// the engine treats them as soft Missing lookups - a reference to a column
// that exists nowhere is almost always a typo worth surfacing.

import "fmt"

// ValidationProblem is a single configuration problem found by Validate.
type ValidationProblem struct {
	Code    string `json:"code"`
	Column  string `json:"column,omitempty"` // Output column, when applicable
	Message string `json:"message"`
}

func (p ValidationProblem) Error() string {
	if p.Column != "" {
		return fmt.Sprintf("%s: %s", p.Column, p.Message)
	}
	return p.Message
}

// ValidateWorkflow checks key mappings and every column reference in every
// output source against the given datasets. An empty result means the
// configuration would run without configuration errors.
func ValidateWorkflow(datasets []*Dataset, keyCfg KeyColumnConfig, join JoinSpec, outputs []OutputColumn) []ValidationProblem {
	var problems []ValidationProblem

	byID := make(map[string]*Dataset, len(datasets))
	for _, ds := range datasets {
		byID[ds.ID] = ds
	}

	if len(datasets) == 0 {
		problems = append(problems, ValidationProblem{
			Code:    CodeNoDatasets,
			Message: "at least one dataset is required",
		})
	}
	if !join.Type.Valid() {
		problems = append(problems, ValidationProblem{
			Code:    CodeBadJoinType,
			Message: fmt.Sprintf("unsupported join type %q", join.Type),
		})
	}
	if join.Primary != "" && byID[join.Primary] == nil {
		problems = append(problems, ValidationProblem{
			Code:    CodeUnknownDataset,
			Message: fmt.Sprintf("primary dataset %q is not among the inputs", join.Primary),
		})
	}
	if join.Last != "" && byID[join.Last] == nil {
		problems = append(problems, ValidationProblem{
			Code:    CodeUnknownDataset,
			Message: fmt.Sprintf("last dataset %q is not among the inputs", join.Last),
		})
	}

	for _, ds := range datasets {
		keyCol, ok := keyCfg[ds.ID]
		if !ok || keyCol == "" {
			problems = append(problems, ValidationProblem{
				Code:    CodeMissingKeyMapping,
				Message: fmt.Sprintf("no key column mapping for dataset %q", ds.ID),
			})
			continue
		}
		if !ds.HasColumn(keyCol) {
			problems = append(problems, ValidationProblem{
				Code:    CodeUnknownKeyColumn,
				Message: fmt.Sprintf("key column %q not found in dataset %q", keyCol, ds.ID),
			})
		}
	}

	if len(outputs) == 0 {
		problems = append(problems, ValidationProblem{
			Code:    CodeNoOutputColumns,
			Message: "workflow defines no output columns",
		})
	}
	for _, out := range outputs {
		problems = append(problems, validateSource(out, byID)...)
	}

	return problems
}

// validateSource checks one output column's references.
func validateSource(out OutputColumn, byID map[string]*Dataset) []ValidationProblem {
	var problems []ValidationProblem

	checkRef := func(datasetID, column string) {
		if datasetID == "" {
			problems = append(problems, ValidationProblem{
				Code:    CodeUnknownDataset,
				Column:  out.Name,
				Message: "references no dataset",
			})
			return
		}
		ds, ok := byID[datasetID]
		if !ok {
			problems = append(problems, ValidationProblem{
				Code:    CodeUnknownDataset,
				Column:  out.Name,
				Message: fmt.Sprintf("references unknown dataset %q", datasetID),
			})
			return
		}
		if !ds.HasColumn(column) {
			problems = append(problems, ValidationProblem{
				Code:    CodeUnknownColumn,
				Column:  out.Name,
				Message: fmt.Sprintf("references unknown column %q in dataset %q", column, datasetID),
			})
		}
	}

	switch s := out.Source.(type) {
	case DirectSource:
		checkRef(s.DatasetID, s.Column)
	case ConcatSource:
		for _, p := range s.Parts {
			if p.Type == PartColumn {
				checkRef(p.DatasetID, p.Column)
			}
		}
	case MathSource:
		if !s.Operation.Valid() {
			problems = append(problems, ValidationProblem{
				Code:    CodeBadMathOp,
				Column:  out.Name,
				Message: fmt.Sprintf("unsupported math operation %q", s.Operation),
			})
		}
		for _, op := range s.Operands {
			if op.Type == PartColumn {
				checkRef(op.DatasetID, op.Column)
			}
		}
	case CustomSource:
		// Nothing to check.
	default:
		problems = append(problems, ValidationProblem{
			Code:    CodeUnknownDataset,
			Column:  out.Name,
			Message: "output column has no source",
		})
	}

	return problems
}
