package models

import (
	"strings"
	"time"
)

// CapaStatus represents the state of a corrective-action plan
type CapaStatus string

const (
	CapaOpen       CapaStatus = "open"
	CapaInProgress CapaStatus = "in_progress"
	CapaCompleted  CapaStatus = "completed"
	CapaVerified   CapaStatus = "verified"
	CapaClosed     CapaStatus = "closed"
)

// IsResolved returns true once the corrective action needs no more work
func (s CapaStatus) IsResolved() bool {
	return s == CapaCompleted || s == CapaVerified || s == CapaClosed
}

// CapaRecord mirrors a CAPA exactly as the backend sends it
type CapaRecord struct {
	ID                 int64  `json:"id"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	RoundID            *int64 `json:"round_id"`
	Department         string `json:"department"`
	EvaluationItemID   *int64 `json:"evaluation_item_id"`
	Priority           string `json:"priority"`
	Status             string `json:"status"`
	AssignedTo         string `json:"assigned_to"`
	DueDate            string `json:"due_date"`
	RootCause          string `json:"root_cause"`
	CorrectiveAction   string `json:"corrective_action"`
	PreventiveAction   string `json:"preventive_action"`
	VerificationStatus string `json:"verification_status"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

// UnmarshalJSON decodes field by field so one mistyped field does not
// discard the plan
func (r *CapaRecord) UnmarshalJSON(data []byte) error {
	return decodeLenient(data, r, "capa")
}

// Capa is the view model produced from a CapaRecord
type Capa struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	RoundID            *int64     `json:"roundId,omitempty"`
	Department         string     `json:"department"`
	EvaluationItemID   *int64     `json:"evaluationItemId,omitempty"`
	Priority           string     `json:"priority"`
	Status             CapaStatus `json:"status"`
	AssignedTo         string     `json:"assignedTo,omitempty"`
	DueDate            string     `json:"dueDate,omitempty"`
	RootCause          string     `json:"rootCause,omitempty"`
	CorrectiveAction   string     `json:"correctiveAction,omitempty"`
	PreventiveAction   string     `json:"preventiveAction,omitempty"`
	VerificationStatus string     `json:"verificationStatus,omitempty"`
	CreatedAt          string     `json:"createdAt,omitempty"`
	UpdatedAt          string     `json:"updatedAt,omitempty"`
}

// Normalize maps the record to a Capa
func (r CapaRecord) Normalize() Capa {
	status := CapaStatus(strings.ToLower(strings.TrimSpace(r.Status)))
	if status == "" {
		status = CapaOpen
	}
	return Capa{
		ID:                 r.ID,
		Title:              r.Title,
		Description:        r.Description,
		RoundID:            r.RoundID,
		Department:         r.Department,
		EvaluationItemID:   r.EvaluationItemID,
		Priority:           r.Priority,
		Status:             status,
		AssignedTo:         r.AssignedTo,
		DueDate:            r.DueDate,
		RootCause:          r.RootCause,
		CorrectiveAction:   r.CorrectiveAction,
		PreventiveAction:   r.PreventiveAction,
		VerificationStatus: r.VerificationStatus,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

// IsOverdue reports whether the due date has passed without resolution.
// An unparseable or missing due date is never overdue.
func (c Capa) IsOverdue(now time.Time) bool {
	if c.Status.IsResolved() {
		return false
	}
	due, ok := ParseDate(c.DueDate)
	if !ok {
		return false
	}
	return now.After(due)
}

// CapaInput is the create payload for a CAPA
type CapaInput struct {
	Title            string `json:"title"`
	Description      string `json:"description,omitempty"`
	RoundID          *int64 `json:"round_id,omitempty"`
	Department       string `json:"department,omitempty"`
	EvaluationItemID *int64 `json:"evaluation_item_id,omitempty"`
	Priority         string `json:"priority,omitempty"`
	AssignedTo       string `json:"assigned_to,omitempty"`
	DueDate          string `json:"due_date,omitempty"`
	RootCause        string `json:"root_cause,omitempty"`
	CorrectiveAction string `json:"corrective_action,omitempty"`
	PreventiveAction string `json:"preventive_action,omitempty"`
}

// Validate checks required CAPA fields
func (in CapaInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if in.DueDate != "" {
		if _, ok := ParseDate(in.DueDate); !ok {
			return &ValidationError{Field: "due_date", Message: "due_date must be a date (YYYY-MM-DD)"}
		}
	}
	return nil
}

// CapaPatch carries a partial CAPA update; nil fields are left untouched
type CapaPatch struct {
	Title              *string `json:"title,omitempty"`
	Description        *string `json:"description,omitempty"`
	Priority           *string `json:"priority,omitempty"`
	Status             *string `json:"status,omitempty"`
	AssignedTo         *string `json:"assigned_to,omitempty"`
	DueDate            *string `json:"due_date,omitempty"`
	RootCause          *string `json:"root_cause,omitempty"`
	CorrectiveAction   *string `json:"corrective_action,omitempty"`
	PreventiveAction   *string `json:"preventive_action,omitempty"`
	VerificationStatus *string `json:"verification_status,omitempty"`
}
