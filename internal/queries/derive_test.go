package queries

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/sallamaty/rounds-console/pkg/models"
)

func ids[T any](items []T, id func(T) int64) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}

func roundID(r models.Round) int64 { return r.ID }

func TestFilterRounds(t *testing.T) {
	rounds := []models.Round{
		{ID: 1, Title: "Hand hygiene audit", Department: "ICU", Status: models.RoundScheduled, AssignedTo: []string{"Sara"}},
		{ID: 2, Title: "Medication storage", Department: "ER", Status: models.RoundCompleted, RoundCode: "RND-0042"},
		{ID: 3, Title: "Fall risk", Department: "icu", Status: models.RoundCompleted, AssignedTo: []string{"Omar"}},
	}

	tests := []struct {
		name   string
		filter RoundFilter
		want   []int64
	}{
		{"no filter", RoundFilter{}, []int64{1, 2, 3}},
		{"status", RoundFilter{Status: models.RoundCompleted}, []int64{2, 3}},
		{"department ignores case", RoundFilter{Department: "ICU"}, []int64{1, 3}},
		{"search title", RoundFilter{Search: "HYGIENE"}, []int64{1}},
		{"search code", RoundFilter{Search: "rnd-0042"}, []int64{2}},
		{"search assignee", RoundFilter{Search: "omar"}, []int64{3}},
		{"combined", RoundFilter{Status: models.RoundCompleted, Department: "icu"}, []int64{3}},
		{"no match", RoundFilter{Search: "nothing"}, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterRounds(rounds, tt.filter), roundID)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterRounds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSummarizeRoundsEmpty(t *testing.T) {
	s := SummarizeRounds(nil)
	if s.Total != 0 || s.AverageCompliance != 0 || s.ByStatus == nil {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestOverdueCapas(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	capas := []models.Capa{
		{ID: 1, Status: models.CapaOpen, DueDate: "2024-05-01"},
		{ID: 2, Status: models.CapaVerified, DueDate: "2024-05-01"},
		{ID: 3, Status: models.CapaInProgress, DueDate: "2024-07-01"},
		{ID: 4, Status: models.CapaOpen, DueDate: "someday"},
		{ID: 5, Status: models.CapaOpen},
	}

	got := ids(OverdueCapas(capas, now), func(c models.Capa) int64 { return c.ID })
	if diff := cmp.Diff([]int64{1}, got); diff != "" {
		t.Errorf("OverdueCapas mismatch (-want +got):\n%s", diff)
	}
}
