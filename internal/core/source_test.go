package core

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestSourceRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		src  ColumnSource
	}{
		{"direct", DirectSource{DatasetID: "a", Column: "Name"}},
		{
			"concat",
			ConcatSource{
				Separator: " ",
				Parts: []ConcatPart{
					{Type: PartColumn, DatasetID: "a", Column: "First"},
					{Type: PartLiteral, Value: "-"},
					{Type: PartColumn, DatasetID: "b", Column: "Last"},
				},
			},
		},
		{
			"math",
			MathSource{
				Operation: OpMultiply,
				Operands: []MathOperand{
					{Type: PartColumn, DatasetID: "a", Column: "Qty"},
					{Type: PartLiteral, Value: f64(1.2)},
				},
			},
		},
		{"custom", CustomSource{Value: "fixed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeSource(tt.src)
			if err != nil {
				t.Fatalf("EncodeSource: %v", err)
			}

			// The discriminator must be embedded in the encoded object.
			if !strings.Contains(string(data), `"type":"`+string(tt.src.Type())+`"`) {
				t.Errorf("encoded source missing type tag: %s", data)
			}

			got, err := DecodeSource(data)
			if err != nil {
				t.Fatalf("DecodeSource: %v", err)
			}
			if !reflect.DeepEqual(got, tt.src) {
				t.Errorf("round trip = %#v, want %#v", got, tt.src)
			}
		})
	}
}

func TestDecodeSourceUnknownType(t *testing.T) {
	_, err := DecodeSource([]byte(`{"type":"lookup"}`))
	if err == nil || !strings.Contains(err.Error(), "unknown type") {
		t.Errorf("got %v, want unknown type error", err)
	}
}

func TestEncodeSourceNil(t *testing.T) {
	if _, err := EncodeSource(nil); err == nil {
		t.Error("EncodeSource(nil) should fail")
	}
}

func TestOutputColumnJSON(t *testing.T) {
	col := OutputColumn{
		ID:   "c1",
		Name: "Total",
		Source: MathSource{
			Operation: OpAdd,
			Operands: []MathOperand{
				{Type: PartColumn, DatasetID: "a", Column: "X"},
				{Type: PartColumn, DatasetID: "b", Column: "Y"},
			},
		},
		Order: 2,
	}

	data, err := json.Marshal(col)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got OutputColumn
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(got, col) {
		t.Errorf("round trip = %#v, want %#v", got, col)
	}
}

func TestOutputColumnMissingSource(t *testing.T) {
	var col OutputColumn
	err := json.Unmarshal([]byte(`{"name":"X","order":1}`), &col)
	if err == nil {
		t.Error("unmarshal without source should fail")
	}
}

func TestDecodeWorkflowConfig(t *testing.T) {
	raw := `{
		"datasets": [{"id": "a"}, {"id": "b"}],
		"keyColumns": {"a": "ID", "b": "Ref"},
		"join": {},
		"outputColumns": [
			{"name": "ID", "order": 0, "source": {"type": "direct", "datasetId": "a", "column": "ID"}},
			{"name": "Tag", "order": 1, "source": {"type": "custom", "staticValue": "v1"}}
		]
	}`

	cfg, err := DecodeWorkflowConfig([]byte(raw))
	if err != nil {
		t.Fatalf("DecodeWorkflowConfig: %v", err)
	}

	if cfg.Join.Type != JoinLeft {
		t.Errorf("empty join type = %q, want default left", cfg.Join.Type)
	}
	if len(cfg.OutputColumns) != 2 {
		t.Fatalf("outputs = %d, want 2", len(cfg.OutputColumns))
	}
	if _, ok := cfg.OutputColumns[0].Source.(DirectSource); !ok {
		t.Errorf("first source = %T, want DirectSource", cfg.OutputColumns[0].Source)
	}
	if _, ok := cfg.OutputColumns[1].Source.(CustomSource); !ok {
		t.Errorf("second source = %T, want CustomSource", cfg.OutputColumns[1].Source)
	}

	// A decoded config re-encodes without losing the source tags.
	out, err := cfg.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	again, err := DecodeWorkflowConfig(out)
	if err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if !reflect.DeepEqual(again, cfg) {
		t.Errorf("config round trip mismatch")
	}
}
