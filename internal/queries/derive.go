package queries

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sallamaty/rounds-console/pkg/models"
)

// RoundFilter narrows a round list. Zero fields match everything.
type RoundFilter struct {
	Status     models.RoundStatus
	Department string
	Search     string
}

// FilterRounds returns the rounds matching f, preserving order
func FilterRounds(rounds []models.Round, f RoundFilter) []models.Round {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]models.Round, 0, len(rounds))
	for _, r := range rounds {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Department != "" && !strings.EqualFold(r.Department, f.Department) {
			continue
		}
		if search != "" && !roundMatches(r, search) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func roundMatches(r models.Round, needle string) bool {
	fields := append([]string{r.Title, r.RoundCode, r.Department, r.RoundType}, r.AssignedTo...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// SummarizeRounds counts rounds per status. The compliance average covers
// completed rounds only.
func SummarizeRounds(rounds []models.Round) models.RoundSummary {
	summary := models.RoundSummary{
		Total:    len(rounds),
		ByStatus: make(map[models.RoundStatus]int),
	}

	var sum float64
	var completed int
	for _, r := range rounds {
		summary.ByStatus[r.Status]++
		if r.Status == models.RoundCompleted {
			sum += r.CompliancePercentage
			completed++
		}
	}
	if completed > 0 {
		summary.AverageCompliance = sum / float64(completed)
	}
	return summary
}

// OverdueCapas returns the unresolved CAPAs whose due date is before now
func OverdueCapas(capas []models.Capa, now time.Time) []models.Capa {
	out := make([]models.Capa, 0)
	for _, c := range capas {
		if c.IsOverdue(now) {
			out = append(out, c)
		}
	}
	return out
}

// Dashboard fetches rounds, CAPAs and departments concurrently and
// aggregates them. Any failed fetch fails the whole dashboard.
func (q *Queries) Dashboard(ctx context.Context, now time.Time) (models.Dashboard, error) {
	var (
		rounds      []models.Round
		capas       []models.Capa
		departments []models.Department
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rounds, err = q.FetchRounds(gctx)
		return err
	})
	g.Go(func() (err error) {
		capas, err = q.FetchCapas(gctx)
		return err
	})
	g.Go(func() (err error) {
		departments, err = q.FetchDepartments(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.Dashboard{}, err
	}

	open := 0
	for _, c := range capas {
		if !c.Status.IsResolved() {
			open++
		}
	}

	return models.Dashboard{
		Rounds:       SummarizeRounds(rounds),
		OpenCapas:    open,
		OverdueCapas: len(OverdueCapas(capas, now)),
		Departments:  len(departments),
		GeneratedAt:  now.UTC(),
	}, nil
}
