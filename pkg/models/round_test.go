package models

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseCompliance(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{``, 0},
		{`null`, 0},
		{`72`, 72},
		{`"85.5"`, 85.5},
		{`" 40% "`, 40},
		{`""`, 0},
		{`"n/a"`, 0},
		{`"NaN"`, 0},
		{`[1]`, 0},
	}
	for _, tt := range tests {
		if got := ParseCompliance(json.RawMessage(tt.raw), 1); got != tt.want {
			t.Errorf("ParseCompliance(%s) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestParseItemIDs(t *testing.T) {
	tests := []struct {
		raw  string
		want []int64
	}{
		{`null`, []int64{}},
		{`[3,4]`, []int64{3, 4}},
		{`"[1,2]"`, []int64{1, 2}},
		{`""`, []int64{}},
		{`"1,2"`, []int64{}},
		{`["a"]`, []int64{}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ParseItemIDs(json.RawMessage(tt.raw), 1)); diff != "" {
			t.Errorf("ParseItemIDs(%s) mismatch (-want +got):\n%s", tt.raw, diff)
		}
	}
}

func TestRoundRecordKeepsWellTypedFields(t *testing.T) {
	var rec RoundRecord
	err := json.Unmarshal([]byte(`{"id":7,"title":["bad"],"department":"ICU","round_type_id":"x","status":"Completed"}`), &rec)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	round := rec.Normalize()
	if round.ID != 7 || round.Department != "ICU" || round.Status != RoundCompleted {
		t.Errorf("unexpected round %+v", round)
	}
	if round.Title != "" || round.RoundTypeID != nil {
		t.Errorf("expected mistyped fields to be zero, got %+v", round)
	}
}

func TestRoundRecordUnusableIDFails(t *testing.T) {
	var rec RoundRecord
	if err := json.Unmarshal([]byte(`{"id":"seven","title":"A"}`), &rec); err == nil {
		t.Error("expected an error for a non-numeric id")
	}
	if err := json.Unmarshal([]byte(`"round"`), &rec); err == nil {
		t.Error("expected an error for a non-object record")
	}
}

func TestFinalizeRequestValidate(t *testing.T) {
	ok := FinalizeRequest{Evaluations: []EvaluationResult{
		{EvaluationItemID: 1, Status: EvaluationPartiallyApplied},
	}}
	if err := ok.Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}

	missing := FinalizeRequest{Evaluations: []EvaluationResult{{Status: EvaluationApplied}}}
	if err := missing.Validate(); err == nil {
		t.Error("expected an error for a missing item id")
	}
}
