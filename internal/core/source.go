package core

// source.go models the tagged expression describing how one output column's
// value is computed. ColumnSource is a sealed union: the four variants in
// this file are the only implementations, and every consumer switches
// exhaustively over them. Adding a variant is a localized, compile-checked
// change.

import (
	"encoding/json"
	"fmt"
)

// SourceType discriminates ColumnSource variants on the wire.
type SourceType string

const (
	SourceDirect SourceType = "direct"
	SourceConcat SourceType = "concat"
	SourceMath   SourceType = "math"
	SourceCustom SourceType = "custom"
)

// ColumnSource is the tagged expression for one output column.
// It is sealed: only the variants declared in this package implement it.
type ColumnSource interface {
	// Type returns the wire discriminator for this variant.
	Type() SourceType

	isColumnSource()
}

// DirectSource copies a column from one dataset.
type DirectSource struct {
	DatasetID string `json:"datasetId"`
	Column    string `json:"column"`
}

func (DirectSource) Type() SourceType { return SourceDirect }
func (DirectSource) isColumnSource() {}

// PartType discriminates concat parts and math operands.
type PartType string

const (
	PartColumn  PartType = "column"
	PartLiteral PartType = "literal"
)

// ConcatPart is one piece of a concatenation: either a column reference or a
// literal string.
type ConcatPart struct {
	Type      PartType `json:"type"`
	DatasetID string   `json:"datasetId,omitempty"`
	Column    string   `json:"column,omitempty"`
	Value     string   `json:"value,omitempty"`
}

// ConcatSource joins column references and literals with a separator.
type ConcatSource struct {
	Parts     []ConcatPart `json:"parts"`
	Separator string       `json:"separator,omitempty"`
}

func (ConcatSource) Type() SourceType { return SourceConcat }
func (ConcatSource) isColumnSource() {}

// MathOp is an arithmetic operation applied left-to-right across operands.
type MathOp string

const (
	OpAdd      MathOp = "add"
	OpSubtract MathOp = "subtract"
	OpMultiply MathOp = "multiply"
	OpDivide   MathOp = "divide"
)

// Valid reports whether the operation is one of the supported four.
func (op MathOp) Valid() bool {
	switch op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		return true
	}
	return false
}

// MathOperand is one operand of a math source: a column reference or a
// literal number.
type MathOperand struct {
	Type      PartType `json:"type"`
	DatasetID string   `json:"datasetId,omitempty"`
	Column    string   `json:"column,omitempty"`
	Value     *float64 `json:"value,omitempty"`
}

// MathSource computes an arithmetic expression over operands.
type MathSource struct {
	Operation MathOp        `json:"operation"`
	Operands  []MathOperand `json:"operands"`
}

func (MathSource) Type() SourceType { return SourceMath }
func (MathSource) isColumnSource() {}

// CustomSource always yields a configured static string. It is the only
// source type that cannot fail or warn.
type CustomSource struct {
	Value string `json:"staticValue"`
}

func (CustomSource) Type() SourceType { return SourceCustom }
func (CustomSource) isColumnSource() {}

// EncodeSource marshals a source with its "type" discriminator.
func EncodeSource(src ColumnSource) ([]byte, error) {
	if src == nil {
		return nil, fmt.Errorf("encode source: nil source")
	}

	body, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}

	// Splice the discriminator into the variant's own object.
	tagged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &tagged); err != nil {
		return nil, err
	}
	tagged["type"] = json.RawMessage(fmt.Sprintf("%q", src.Type()))
	return json.Marshal(tagged)
}

// DecodeSource unmarshals a tagged source back into its concrete variant.
func DecodeSource(data []byte) (ColumnSource, error) {
	var probe struct {
		Type SourceType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode source: %w", err)
	}

	switch probe.Type {
	case SourceDirect:
		var s DirectSource
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return s, nil
	case SourceConcat:
		var s ConcatSource
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return s, nil
	case SourceMath:
		var s MathSource
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return s, nil
	case SourceCustom:
		var s CustomSource
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("decode source: unknown type %q", probe.Type)
	}
}

// MarshalJSON writes the column with its source in tagged form.
func (c OutputColumn) MarshalJSON() ([]byte, error) {
	src, err := EncodeSource(c.Source)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", c.Name, err)
	}
	type alias struct {
		ID     string          `json:"id,omitempty"`
		Name   string          `json:"name"`
		Source json.RawMessage `json:"source"`
		Order  int             `json:"order"`
	}
	return json.Marshal(alias{ID: c.ID, Name: c.Name, Source: src, Order: c.Order})
}

// UnmarshalJSON reads the tagged source back into its concrete variant.
func (c *OutputColumn) UnmarshalJSON(data []byte) error {
	var alias struct {
		ID     string          `json:"id"`
		Name   string          `json:"name"`
		Source json.RawMessage `json:"source"`
		Order  int             `json:"order"`
	}
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	if len(alias.Source) == 0 {
		return fmt.Errorf("column %q: missing source", alias.Name)
	}
	src, err := DecodeSource(alias.Source)
	if err != nil {
		return fmt.Errorf("column %q: %w", alias.Name, err)
	}
	c.ID = alias.ID
	c.Name = alias.Name
	c.Source = src
	c.Order = alias.Order
	return nil
}
