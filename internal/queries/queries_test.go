package queries

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/singleflight"

	"github.com/sallamaty/rounds-console/internal/resource"
	"github.com/sallamaty/rounds-console/internal/storage"
	"github.com/sallamaty/rounds-console/internal/testutil"
	"github.com/sallamaty/rounds-console/pkg/client"
	"github.com/sallamaty/rounds-console/pkg/models"
)

func settle[T any](t *testing.T, r *resource.Resource[T]) resource.State[T] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := r.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	return s
}

func TestRoundsMalformedAssigneesBecomeEmpty(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodGet, "/rounds", http.StatusOK, `{"success":true,"data":[
		{"id":1,"title":"ICU hygiene","status":"Scheduled","assigned_to":"not-json{"},
		{"id":2,"title":"ER meds","status":"completed","assigned_to":"[\"Sara\",\"Omar\"]"},
		{"id":3,"title":"Ward 4","assigned_to":["Lina"]}
	]}`)

	q := New(backend.Client("tok"))
	r := q.Rounds()
	defer r.Close()
	r.Start()

	s := settle(t, r)
	if s.Error != "" {
		t.Fatalf("unexpected error %q", s.Error)
	}
	if len(s.Data) != 3 {
		t.Fatalf("expected 3 rounds, got %d", len(s.Data))
	}

	got := map[int64][]string{}
	for _, round := range s.Data {
		got[round.ID] = round.AssignedTo
	}
	want := map[int64][]string{
		1: {},
		2: {"Sara", "Omar"},
		3: {"Lina"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("assignees mismatch (-want +got):\n%s", diff)
	}
	if s.Data[0].Status != models.RoundScheduled {
		t.Errorf("expected lowercased status, got %q", s.Data[0].Status)
	}
}

func TestRoundsMalformedFieldsKeepRecord(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodGet, "/rounds", http.StatusOK,
		`[{"id":1},{"id":2,"compliance_percentage":"85.5"},{"id":3,"evaluation_items":"[1,2]"},{"id":4,"title":42,"compliance_percentage":"n/a"}]`)

	q := New(backend.Client("tok"))
	r := q.Rounds()
	defer r.Close()
	r.Start()

	s := settle(t, r)
	if s.Error != "" {
		t.Fatalf("unexpected error %q", s.Error)
	}
	if len(s.Data) != 4 {
		t.Fatalf("expected 4 rounds, got %d", len(s.Data))
	}

	byID := map[int64]models.Round{}
	for _, round := range s.Data {
		byID[round.ID] = round
	}
	if got := byID[2].CompliancePercentage; got != 85.5 {
		t.Errorf("expected compliance 85.5, got %v", got)
	}
	if diff := cmp.Diff([]int64{1, 2}, byID[3].EvaluationItems); diff != "" {
		t.Errorf("evaluation items mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{}, byID[1].EvaluationItems); diff != "" {
		t.Errorf("expected empty items for a missing field (-want +got):\n%s", diff)
	}
	if round := byID[4]; round.Title != "" || round.CompliancePercentage != 0 {
		t.Errorf("expected mistyped fields to fall back to zero, got %+v", round)
	}
}

func TestUsersDoubleNestedEmpty(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodGet, "/users", http.StatusOK, `{"data":{"data":[]}}`)

	q := New(backend.Client("tok"))
	r := q.Users()
	defer r.Close()
	r.Start()

	s := settle(t, r)
	if s.Error != "" {
		t.Fatalf("unexpected error %q", s.Error)
	}
	if s.Data == nil || len(s.Data) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", s.Data)
	}
}

func TestSharedGroupJoinsFetchesWithinScope(t *testing.T) {
	entered := make(chan struct{}, 3)
	gate := make(chan struct{})
	backend := testutil.NewBackend(t)
	backend.Handle(http.MethodGet, "/departments", func(w http.ResponseWriter, r *http.Request) {
		entered <- struct{}{}
		<-gate
		w.Write([]byte(`[{"id":1,"name":"ICU"}]`))
	})

	var group singleflight.Group
	first := New(backend.Client("tok-a"), WithGroup(&group, "session-a")).Departments()
	second := New(backend.Client("tok-a"), WithGroup(&group, "session-a")).Departments()
	other := New(backend.Client("tok-b"), WithGroup(&group, "session-b")).Departments()
	defer first.Close()
	defer second.Close()
	defer other.Close()

	first.Start()
	<-entered
	second.Start()
	other.Start()
	<-entered
	time.Sleep(50 * time.Millisecond)
	close(gate)

	for _, r := range []*resource.Resource[[]models.Department]{first, second, other} {
		if s := settle(t, r); len(s.Data) != 1 || s.Data[0].Name != "ICU" {
			t.Errorf("unexpected state %+v", s)
		}
	}
	if n := backend.Count(http.MethodGet, "/departments"); n != 2 {
		t.Errorf("expected one fetch per scope, got %d", n)
	}
}

func TestCategoriesFallBackToMirror(t *testing.T) {
	ctx := context.Background()
	mirror := storage.NewMemoryRepository()
	mirror.ReplaceCategories(ctx, []models.EvaluationCategory{{ID: 1, Name: "Hand hygiene"}})

	backend := testutil.NewBackend(t)
	c := backend.Client("tok")
	backend.Server.Close()

	q := New(c, WithLegacyStore(mirror))
	got, err := q.FetchCategories(ctx)
	if err != nil {
		t.Fatalf("expected mirror fallback, got %v", err)
	}
	if len(got) != 1 || got[0].Name != "Hand hygiene" {
		t.Errorf("unexpected categories %+v", got)
	}
}

func TestCategoriesDoNotFallBackOnHTTPError(t *testing.T) {
	ctx := context.Background()
	mirror := storage.NewMemoryRepository()
	mirror.ReplaceCategories(ctx, []models.EvaluationCategory{{ID: 1, Name: "Hand hygiene"}})

	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodGet, "/evaluation-categories", http.StatusInternalServerError, `{"message":"db down"}`)

	q := New(backend.Client("tok"), WithLegacyStore(mirror))
	_, err := q.FetchCategories(ctx)
	if !client.IsStatus(err, http.StatusInternalServerError) {
		t.Errorf("expected HTTP 500 error, got %v", err)
	}
}

func TestListHelper(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodGet, "/departments", http.StatusOK, `[{"id":1,"name":"ICU"},{"id":2,"name":"ER"}]`)

	q := New(backend.Client("tok"))
	r := List(q, "/departments", func(d models.Department) string { return d.Name })
	defer r.Close()
	r.Start()

	s := settle(t, r)
	if diff := cmp.Diff([]string{"ICU", "ER"}, s.Data); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchReportMergesParams(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodGet, "/api/reports/compliance-by-department", http.StatusOK, `{"data":[{"department":"ICU","rate":92}]}`)

	q := New(backend.Client("tok"))
	def := models.ReportDefinition{
		Name:     "compliance",
		Endpoint: "compliance-by-department",
		Params:   map[string]string{"period": "month", "year": "2024"},
	}

	report, err := q.FetchReport(context.Background(), def, map[string]string{"period": "quarter"})
	if err != nil {
		t.Fatalf("FetchReport failed: %v", err)
	}
	if len(report.Rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(report.Rows))
	}

	reqs := backend.Requests()
	if len(reqs) != 1 || reqs[0].Query != "period=quarter&year=2024" {
		t.Errorf("unexpected request %+v", reqs)
	}
}

func TestDashboard(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodGet, "/rounds", http.StatusOK, `{"data":[
		{"id":1,"status":"completed","compliance_percentage":80},
		{"id":2,"status":"completed","compliance_percentage":100},
		{"id":3,"status":"scheduled"}
	]}`)
	backend.JSON(http.MethodGet, "/api/capas", http.StatusOK, `{"data":[
		{"id":1,"status":"open","due_date":"2024-01-01"},
		{"id":2,"status":"closed","due_date":"2024-01-01"},
		{"id":3,"status":"in_progress","due_date":"2099-01-01"}
	]}`)
	backend.JSON(http.MethodGet, "/departments", http.StatusOK, `{"data":[{"id":1,"name":"ICU"}]}`)

	q := New(backend.Client("tok"))
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	d, err := q.Dashboard(context.Background(), now)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	if d.Rounds.Total != 3 || d.Rounds.ByStatus[models.RoundCompleted] != 2 {
		t.Errorf("unexpected round summary %+v", d.Rounds)
	}
	if d.Rounds.AverageCompliance != 90 {
		t.Errorf("expected average 90, got %v", d.Rounds.AverageCompliance)
	}
	if d.OpenCapas != 2 || d.OverdueCapas != 1 || d.Departments != 1 {
		t.Errorf("unexpected dashboard %+v", d)
	}
}

func TestDashboardFailsOnAnyError(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodGet, "/rounds", http.StatusOK, `[]`)
	backend.JSON(http.MethodGet, "/departments", http.StatusOK, `[]`)
	backend.JSON(http.MethodGet, "/api/capas", http.StatusForbidden, `{"message":"forbidden"}`)

	q := New(backend.Client("tok"))
	_, err := q.Dashboard(context.Background(), time.Now())

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		t.Errorf("expected 403 APIError, got %v", err)
	}
}
