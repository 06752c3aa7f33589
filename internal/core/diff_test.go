package core

import (
	"errors"
	"strings"
	"testing"
)

func TestDiffModifiedCell(t *testing.T) {
	before := textDataset("v1", []string{"SKU", "Qty"}, []string{"A1", "10"})
	after := textDataset("v2", []string{"SKU", "Qty"}, []string{"A1", "8"})

	result, err := Diff(before, after, "SKU")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	if len(result.Changes) != 1 {
		t.Fatalf("changes = %d, want 1", len(result.Changes))
	}
	rc := result.Changes[0]
	if rc.KeyValue != "A1" || len(rc.Cells) != 1 {
		t.Fatalf("change = %+v, want one cell for A1", rc)
	}

	cell := rc.Cells[0]
	if cell.Column != "Qty" {
		t.Errorf("column = %q, want Qty", cell.Column)
	}
	if cell.OldValue.String() != "10" || cell.NewValue.String() != "8" {
		t.Errorf("values = %s -> %s, want 10 -> 8", cell.OldValue, cell.NewValue)
	}
	if cell.Delta == nil || *cell.Delta != -2 {
		t.Errorf("delta = %v, want -2", cell.Delta)
	}

	if result.Summary.RowsAffected != 1 || result.Summary.CellsModified != 1 {
		t.Errorf("summary = %+v, want 1 row, 1 cell", result.Summary)
	}
}

func TestDiffIdenticalDatasets(t *testing.T) {
	ds := textDataset("v", []string{"SKU", "Qty"},
		[]string{"A1", "10"},
		[]string{"B2", "20"},
	)

	result, err := Diff(ds, ds, "SKU")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(result.Changes) != 0 {
		t.Errorf("changes = %v, want none", result.Changes)
	}
	if result.Summary.RowsAffected != 0 {
		t.Errorf("summary = %+v, want zeroes", result.Summary)
	}
}

func TestDiffAddedAndRemovedRows(t *testing.T) {
	before := textDataset("v1", []string{"SKU", "Qty"},
		[]string{"A1", "1"},
		[]string{"B2", "2"},
	)
	after := textDataset("v2", []string{"SKU", "Qty"},
		[]string{"A1", "1"},
		[]string{"C3", "3"},
	)

	result, err := Diff(before, after, "SKU")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	if len(result.Changes) != 2 {
		t.Fatalf("changes = %+v, want removed B2 and added C3", result.Changes)
	}

	removed := result.Changes[0]
	if removed.KeyValue != "B2" || removed.WarningMessage != "row removed" {
		t.Errorf("first change = %+v, want removed B2", removed)
	}
	if len(removed.Cells) != 0 {
		t.Errorf("removed row should carry no cell detail, got %v", removed.Cells)
	}

	added := result.Changes[1]
	if added.KeyValue != "C3" || added.WarningMessage != "row added" {
		t.Errorf("second change = %+v, want added C3", added)
	}

	if result.Summary.Warnings != 2 {
		t.Errorf("warnings = %d, want 2", result.Summary.Warnings)
	}
}

func TestDiffNegativeValueWarns(t *testing.T) {
	before := textDataset("v1", []string{"SKU", "Balance"}, []string{"A1", "5"})
	after := textDataset("v2", []string{"SKU", "Balance"}, []string{"A1", "-3"})

	result, err := Diff(before, after, "SKU")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}

	rc := result.Changes[0]
	if !rc.HasWarning || !strings.Contains(rc.WarningMessage, "became negative") {
		t.Errorf("change = %+v, want negative-value warning", rc)
	}
	if !rc.Cells[0].HasWarning {
		t.Error("cell should be flagged")
	}

	if len(result.Warnings) != 1 {
		t.Fatalf("warnings = %v, want 1", result.Warnings)
	}
	w := result.Warnings[0]
	if w.RowKey != "A1" || w.Column != "Balance" || w.Severity != SeverityWarning {
		t.Errorf("warning = %+v, want tagged A1/Balance warning", w)
	}
}

func TestDiffMissingAwareness(t *testing.T) {
	before := textDataset("v1", []string{"K", "V"}, []string{"1", ""})
	after := textDataset("v2", []string{"K", "V"}, []string{"1", "now"})

	result, err := Diff(before, after, "K")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(result.Changes) != 1 {
		t.Fatalf("missing -> present should register a change")
	}
	cell := result.Changes[0].Cells[0]
	if !cell.OldValue.IsMissing() || cell.NewValue.String() != "now" {
		t.Errorf("cell = %+v, want missing -> now", cell)
	}
	if cell.Delta != nil {
		t.Errorf("delta = %v, want nil for non-numeric pair", cell.Delta)
	}
}

func TestDiffColumnAddedOnAfterSide(t *testing.T) {
	before := textDataset("v1", []string{"K"}, []string{"1"})
	after := textDataset("v2", []string{"K", "Extra"}, []string{"1", "x"})

	result, err := Diff(before, after, "K")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if len(result.Changes) != 1 || result.Changes[0].Cells[0].Column != "Extra" {
		t.Errorf("changes = %+v, want Extra column change", result.Changes)
	}
}

func TestDiffKeyColumnMissing(t *testing.T) {
	withKey := textDataset("v1", []string{"SKU"}, []string{"A1"})
	without := textDataset("v2", []string{"Other"}, []string{"A1"})

	tests := []struct {
		name          string
		before, after *Dataset
		wantSide      string
	}{
		{"missing from before", without, withKey, "original"},
		{"missing from after", withKey, without, "modified"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Diff(tt.before, tt.after, "SKU")
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Code != CodeDiffKeyMissing {
				t.Fatalf("got %v, want %s", err, CodeDiffKeyMissing)
			}
			if !strings.Contains(cfgErr.Message, tt.wantSide) {
				t.Errorf("message %q should name the %s dataset", cfgErr.Message, tt.wantSide)
			}
		})
	}
}
