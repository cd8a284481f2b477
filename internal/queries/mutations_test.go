package queries

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/sallamaty/rounds-console/internal/testutil"
	"github.com/sallamaty/rounds-console/pkg/client"
	"github.com/sallamaty/rounds-console/pkg/models"
)

func TestCreateRoundNormalizesEcho(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodPost, "/rounds", http.StatusCreated,
		`{"success":true,"data":{"id":9,"title":"Night round","status":"SCHEDULED","assigned_to":"[\"Sara\"]"}}`)

	q := New(backend.Client("tok"))
	m := q.RoundMutations()

	round, err := m.Create.Mutate(context.Background(), models.RoundInput{
		Title:         "Night round",
		Department:    "ICU",
		ScheduledDate: "2024-06-01",
		AssignedTo:    []string{"Sara"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if round.ID != 9 || round.Status != models.RoundScheduled || len(round.AssignedTo) != 1 {
		t.Errorf("unexpected round %+v", round)
	}

	var sent map[string]any
	json.Unmarshal(backend.Requests()[0].Body, &sent)
	if sent["title"] != "Night round" {
		t.Errorf("unexpected body %v", sent)
	}
}

func TestCreateRoundValidatesLocally(t *testing.T) {
	backend := testutil.NewBackend(t)
	q := New(backend.Client("tok"))
	m := q.RoundMutations()

	_, err := m.Create.Mutate(context.Background(), models.RoundInput{Department: "ICU"})

	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Field != "title" {
		t.Fatalf("expected title validation error, got %v", err)
	}
	if backend.Count(http.MethodPost, "/rounds") != 0 {
		t.Error("invalid input must not reach the backend")
	}
	if !strings.Contains(m.Create.Snapshot().Error, "title") {
		t.Errorf("expected stored validation message, got %q", m.Create.Snapshot().Error)
	}
}

func TestFinalizeRejectsUnknownEvaluationStatus(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodPost, "/rounds/5/evaluations/finalize", http.StatusOK,
		`{"id":5,"status":"completed","compliance_percentage":"90"}`)

	q := New(backend.Client("tok"))
	m := q.RoundMutations()

	_, err := m.Finalize.Mutate(context.Background(), Edit[models.FinalizeRequest]{ID: 5, Input: models.FinalizeRequest{
		Evaluations: []models.EvaluationResult{{EvaluationItemID: 1, Status: "done"}},
	}})
	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Field != "status" {
		t.Fatalf("expected status validation error, got %v", err)
	}
	if backend.Count(http.MethodPost, "/rounds/5/evaluations/finalize") != 0 {
		t.Error("invalid results must not reach the backend")
	}

	round, err := m.Finalize.Mutate(context.Background(), Edit[models.FinalizeRequest]{ID: 5, Input: models.FinalizeRequest{
		Evaluations: []models.EvaluationResult{
			{EvaluationItemID: 1, Status: models.EvaluationApplied},
			{EvaluationItemID: 2, Status: models.EvaluationNotApplicable},
		},
	}})
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if round.Status != models.RoundCompleted || round.CompliancePercentage != 90 {
		t.Errorf("unexpected round %+v", round)
	}

	var sent struct {
		Evaluations []struct {
			Status string `json:"status"`
		} `json:"evaluations"`
	}
	json.Unmarshal(backend.Requests()[0].Body, &sent)
	if len(sent.Evaluations) != 2 || sent.Evaluations[1].Status != "not_applicable" {
		t.Errorf("unexpected body %+v", sent)
	}
}

func TestCapaUpdateRethrowsAPIError(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodPatch, "/capa/4", http.StatusConflict, `{"message":"already closed"}`)

	q := New(backend.Client("tok"))
	m := q.CapaMutations()

	status := "open"
	_, err := m.Update.Mutate(context.Background(), Edit[models.CapaPatch]{ID: 4, Input: models.CapaPatch{Status: &status}})
	if !client.IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409, got %v", err)
	}
	if s := m.Update.Snapshot(); !strings.Contains(s.Error, "already closed") {
		t.Errorf("expected message with body, got %q", s.Error)
	}
}

func TestDeleteDepartment(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.JSON(http.MethodDelete, "/departments/3", http.StatusNoContent, "")

	q := New(backend.Client("tok"))
	m := q.DepartmentMutations()

	if _, err := m.Delete.Mutate(context.Background(), 3); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if backend.Count(http.MethodDelete, "/departments/3") != 1 {
		t.Error("expected one DELETE")
	}
}

func TestUserMutationsValidateEmail(t *testing.T) {
	backend := testutil.NewBackend(t)
	q := New(backend.Client("tok"))

	_, err := q.UserMutations().Create.Mutate(context.Background(), models.UserInput{Email: "not-an-email"})
	var verr *models.ValidationError
	if !errors.As(err, &verr) || verr.Field != "email" {
		t.Errorf("expected email validation error, got %v", err)
	}
}
