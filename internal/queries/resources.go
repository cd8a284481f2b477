package queries

import (
	"context"
	"sort"
	"strings"

	"github.com/sallamaty/rounds-console/internal/resource"
	"github.com/sallamaty/rounds-console/pkg/models"
)

// Rounds is the all-rounds list
func (q *Queries) Rounds(opts ...resource.Option) *resource.Resource[[]models.Round] {
	return newResource[[]models.Round](q, "rounds", q.FetchRounds, opts...)
}

// MyRounds is the caller's rounds list
func (q *Queries) MyRounds(opts ...resource.Option) *resource.Resource[[]models.Round] {
	return newResource[[]models.Round](q, "rounds/my", q.FetchMyRounds, opts...)
}

// Capas is the CAPA list
func (q *Queries) Capas(opts ...resource.Option) *resource.Resource[[]models.Capa] {
	return newResource[[]models.Capa](q, "capas", q.FetchCapas, opts...)
}

// Departments is the department list
func (q *Queries) Departments(opts ...resource.Option) *resource.Resource[[]models.Department] {
	return newResource[[]models.Department](q, "departments", q.FetchDepartments, opts...)
}

// Users is the user list
func (q *Queries) Users(opts ...resource.Option) *resource.Resource[[]models.User] {
	return newResource[[]models.User](q, "users", q.FetchUsers, opts...)
}

// Assessors is the assessor list
func (q *Queries) Assessors(opts ...resource.Option) *resource.Resource[[]models.Assessor] {
	return newResource[[]models.Assessor](q, "assessors", q.FetchAssessors, opts...)
}

// RoundTypes is the round type list
func (q *Queries) RoundTypes(opts ...resource.Option) *resource.Resource[[]models.RoundType] {
	return newResource[[]models.RoundType](q, "round-types", q.FetchRoundTypes, opts...)
}

// Categories is the evaluation category list
func (q *Queries) Categories(opts ...resource.Option) *resource.Resource[[]models.EvaluationCategory] {
	return newResource[[]models.EvaluationCategory](q, "evaluation-categories", q.FetchCategories, opts...)
}

// Items is the evaluation item list
func (q *Queries) Items(opts ...resource.Option) *resource.Resource[[]models.EvaluationItem] {
	return newResource[[]models.EvaluationItem](q, "evaluation-items", q.FetchItems, opts...)
}

// Report is a resource running def with fixed params
func (q *Queries) Report(def models.ReportDefinition, params map[string]string) *resource.Resource[models.Report] {
	key := "report:" + def.Name + "?" + canonicalParams(params)
	return newResource[models.Report](q, key, func(ctx context.Context) (models.Report, error) {
		return q.FetchReport(ctx, def, params)
	})
}

func canonicalParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}
