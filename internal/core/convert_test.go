package core

import (
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseNumber Tests
// ----------------------------------------------------------------------------

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   float64
		wantOK bool
	}{
		{"positive integer", "123", 123, true},
		{"negative integer", "-456", -456, true},
		{"decimal", "123.45", 123.45, true},
		{"leading decimal point", ".99", 0.99, true},
		{"scientific notation", "1e3", 1000, true},
		{"dollar sign", "$1,234.56", 1234.56, true},
		{"euro sign", "€1234.56", 1234.56, true},
		{"pound sign", "£1234.56", 1234.56, true},
		{"thousands separators", "1,234,567", 1234567, true},
		{"percent sign", "50%", 50, true},
		{"accounting negative", "(123.45)", -123.45, true},
		{"accounting negative with currency", "($1,200.00)", -1200, true},
		{"surrounding whitespace", "  42  ", 42, true},

		{"empty", "", 0, false},
		{"whitespace only", "   ", 0, false},
		{"plain text", "abc", 0, false},
		{"mixed text and digits", "12abc", 0, false},
		{"two decimal points", "1.2.3", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNumber(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseNumber(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseInt Tests
// ----------------------------------------------------------------------------

func TestParseInt(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   int64
		wantOK bool
	}{
		{"positive", "42", 42, true},
		{"negative", "-7", -7, true},
		{"with thousands separators", "1,000", 1000, true},
		{"with currency", "$250", 250, true},
		{"accounting negative", "(30)", -30, true},

		{"decimal rejected", "1.5", 0, false},
		{"scientific rejected", "1e3", 0, false},
		{"text rejected", "ten", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseInt(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseInt(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseInt(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseBool Tests
// ----------------------------------------------------------------------------

func TestParseBool(t *testing.T) {
	trueInputs := []string{"true", "TRUE", "t", "yes", "Y", "1", " True "}
	for _, in := range trueInputs {
		if got, ok := ParseBool(in); !ok || !got {
			t.Errorf("ParseBool(%q) = %v, %v; want true, true", in, got, ok)
		}
	}

	falseInputs := []string{"false", "FALSE", "f", "no", "N", "0"}
	for _, in := range falseInputs {
		if got, ok := ParseBool(in); !ok || got {
			t.Errorf("ParseBool(%q) = %v, %v; want false, true", in, got, ok)
		}
	}

	badInputs := []string{"", "maybe", "2", "truthy"}
	for _, in := range badInputs {
		if _, ok := ParseBool(in); ok {
			t.Errorf("ParseBool(%q) should not parse", in)
		}
	}
}

// ----------------------------------------------------------------------------
// ParseDate Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"ISO date", "2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"US slash", "3/5/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"padded US slash", "03/05/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"compact", "20240305", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"month name", "Mar 5, 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{"year first slash", "2024/03/05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if !ok {
				t.Fatalf("ParseDate(%q) failed", tt.input)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	// 2-digit years far in the future pivot back a century.
	got, ok := ParseDate("1/2/99")
	if !ok {
		t.Fatal("ParseDate(1/2/99) failed")
	}
	if got.Year() != 1999 {
		t.Errorf("ParseDate(1/2/99) year = %d, want 1999", got.Year())
	}

	for _, in := range []string{"", "not a date", "13/45/2024"} {
		if _, ok := ParseDate(in); ok {
			t.Errorf("ParseDate(%q) should fail", in)
		}
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain value", "hello", "hello"},
		{"whitespace trimmed", "  spaced  ", "spaced"},
		{"excel formula prefix", `="12345"`, "12345"},
		{"bare equals prefix", "=SUM", "SUM"},
		{"surrounding double quotes", `"quoted"`, "quoted"},
		{"surrounding single quotes", "'quoted'", "quoted"},
		{"empty", "", ""},
		{"only whitespace", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
