package core

// value.go defines the canonical cell value used throughout the engine.
//
// Every cell in a Dataset, every resolved output value, and every side of a
// diff comparison is a Value. There is exactly one representation of "no
// value": the zero Value (kind missing). NaN, empty cells, and absent columns
// all collapse to it at ingestion, so downstream code never has to reason
// about multiple missing sentinels.

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind identifies the runtime type of a Value.
type ValueKind int

const (
	KindMissing ValueKind = iota
	KindText
	KindInteger
	KindNumber
	KindBool
	KindDate
)

// Value is a single typed cell. The zero Value is the missing sentinel.
type Value struct {
	kind ValueKind
	text string
	num  float64
	i    int64
	b    bool
	t    time.Time
}

// Missing is the canonical absent-value sentinel.
var Missing = Value{}

// TextValue returns a text Value.
func TextValue(s string) Value {
	return Value{kind: KindText, text: s}
}

// IntValue returns an integer Value.
func IntValue(i int64) Value {
	return Value{kind: KindInteger, i: i}
}

// NumberValue returns a numeric Value.
// NaN and infinities collapse to Missing so they never leak into results.
func NumberValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing
	}
	return Value{kind: KindNumber, num: f}
}

// BoolValue returns a boolean Value.
func BoolValue(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// DateValue returns a date Value.
func DateValue(t time.Time) Value {
	return Value{kind: KindDate, t: t}
}

// Kind returns the value's kind.
func (v Value) Kind() ValueKind { return v.kind }

// IsMissing reports whether the value is the missing sentinel.
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// AsNumber returns the value as a float64.
// Text values are parsed leniently (currency symbols, thousands separators).
// The second return is false when the value cannot be treated as a number.
func (v Value) AsNumber() (float64, bool) {
	switch v.kind {
	case KindInteger:
		return float64(v.i), true
	case KindNumber:
		return v.num, true
	case KindText:
		return ParseNumber(v.text)
	default:
		return 0, false
	}
}

// String renders the value for display and key matching.
// Missing renders as the empty string, never the text "null".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format("2006-01-02")
	default:
		return ""
	}
}

// Equal reports missing-aware equality: two missing values are equal, and a
// missing value never equals a present one. Present values compare by their
// numeric value when both sides are numeric, otherwise by rendered string.
func (v Value) Equal(o Value) bool {
	if v.kind == KindMissing || o.kind == KindMissing {
		return v.kind == o.kind
	}
	if vn, ok := v.AsNumber(); ok {
		if on, ok := o.AsNumber(); ok {
			return vn == on
		}
	}
	if v.kind == KindDate && o.kind == KindDate {
		return v.t.Equal(o.t)
	}
	return v.String() == o.String()
}

// MarshalJSON renders missing as null and everything else as its native type.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindMissing:
		return []byte("null"), nil
	case KindText:
		return json.Marshal(v.text)
	case KindInteger:
		return json.Marshal(v.i)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindDate:
		return json.Marshal(v.t.Format("2006-01-02"))
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON accepts null, strings, numbers, and booleans.
// Whole numbers decode as integers so round-trips preserve the kind.
func (v *Value) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*v = Missing
		return nil
	}
	if s == "true" || s == "false" {
		*v = BoolValue(s == "true")
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*v = TextValue(str)
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		*v = IntValue(i)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid cell value %s", s)
	}
	*v = NumberValue(f)
	return nil
}
