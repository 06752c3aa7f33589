package core

// resolve.go evaluates one column source against a joined row context.
//
// The resolver is pure: it never mutates the context or any dataset, and its
// only side channel is the warnings it returns. Warnings come back without a
// column tag; the engine stamps the output column name and row key on them.

import "fmt"

// ResolveSource computes the value of one column source for one joined row.
//
// Lookup misses never raise: a reference into a dataset that has no row for
// this key, or into a column the row lacks, yields Missing. The unmatched-key
// warning was already emitted by the join planner, so no warning is repeated
// here for direct lookups.
func ResolveSource(src ColumnSource, ctx RowContext) (Value, []Warning) {
	switch s := src.(type) {
	case DirectSource:
		return ctx.Rows[s.DatasetID].Get(s.Column), nil
	case ConcatSource:
		return resolveConcat(s, ctx), nil
	case MathSource:
		return resolveMath(s, ctx)
	case CustomSource:
		return TextValue(s.Value), nil
	default:
		// Unreachable for the sealed union; nil sources are caller bugs
		// caught by validation.
		return Missing, []Warning{{
			Message:  fmt.Sprintf("unknown column source %T", src),
			Severity: SeverityError,
		}}
	}
}

// resolveConcat joins all parts with the configured separator. Missing
// column references contribute the empty string, never the text "null".
func resolveConcat(src ConcatSource, ctx RowContext) Value {
	parts := make([]string, 0, len(src.Parts))
	for _, part := range src.Parts {
		switch part.Type {
		case PartLiteral:
			parts = append(parts, part.Value)
		case PartColumn:
			parts = append(parts, ctx.Rows[part.DatasetID].Get(part.Column).String())
		}
	}

	var out string
	for i, p := range parts {
		if i > 0 {
			out += src.Separator
		}
		out += p
	}
	return TextValue(out)
}

// resolveMath coerces every operand to a number and applies the operation
// left to right. Any missing or non-numeric operand, and any division by
// zero, makes the whole result Missing with a warning.
func resolveMath(src MathSource, ctx RowContext) (Value, []Warning) {
	if len(src.Operands) == 0 {
		return Missing, nil
	}

	nums := make([]float64, 0, len(src.Operands))
	for _, op := range src.Operands {
		switch op.Type {
		case PartLiteral:
			if op.Value == nil {
				return Missing, []Warning{{
					Message:  "math operand has no literal value",
					Severity: SeverityWarning,
				}}
			}
			nums = append(nums, *op.Value)
		case PartColumn:
			v := ctx.Rows[op.DatasetID].Get(op.Column)
			n, ok := v.AsNumber()
			if !ok {
				msg := fmt.Sprintf("non-numeric operand in column %q of dataset %q", op.Column, op.DatasetID)
				if v.IsMissing() {
					msg = fmt.Sprintf("missing operand in column %q of dataset %q", op.Column, op.DatasetID)
				}
				return Missing, []Warning{{Message: msg, Severity: SeverityWarning}}
			}
			nums = append(nums, n)
		}
	}

	result := nums[0]
	for _, n := range nums[1:] {
		switch src.Operation {
		case OpAdd:
			result += n
		case OpSubtract:
			result -= n
		case OpMultiply:
			result *= n
		case OpDivide:
			if n == 0 {
				return Missing, []Warning{{
					Message:  "division by zero",
					Severity: SeverityWarning,
				}}
			}
			result /= n
		default:
			return Missing, []Warning{{
				Message:  fmt.Sprintf("unsupported math operation %q", src.Operation),
				Severity: SeverityWarning,
			}}
		}
	}

	return NumberValue(result), nil
}
