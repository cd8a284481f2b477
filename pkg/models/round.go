// Package models holds the backend wire records, the view models they
// normalize into, and the inputs the client sends.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// RoundStatus represents the lifecycle state of an evaluation round
type RoundStatus string

const (
	RoundScheduled  RoundStatus = "scheduled"
	RoundInProgress RoundStatus = "in_progress"
	RoundCompleted  RoundStatus = "completed"
	RoundCancelled  RoundStatus = "cancelled"
	RoundOverdue    RoundStatus = "overdue"
)

// IsTerminal returns true if no more evaluations can be recorded
func (s RoundStatus) IsTerminal() bool {
	return s == RoundCompleted || s == RoundCancelled
}

// RoundRecord mirrors a round exactly as the backend sends it
type RoundRecord struct {
	ID                   int64           `json:"id"`
	RoundCode            string          `json:"round_code"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	RoundType            string          `json:"round_type"`
	RoundTypeID          *int64          `json:"round_type_id"`
	Department           string          `json:"department"`
	DepartmentID         *int64          `json:"department_id"`
	AssignedTo           json.RawMessage `json:"assigned_to"`
	ScheduledDate        string          `json:"scheduled_date"`
	Deadline             string          `json:"deadline"`
	Status               string          `json:"status"`
	Priority             string          `json:"priority"`
	CompliancePercentage json.RawMessage `json:"compliance_percentage"`
	Notes                string          `json:"notes"`
	EvaluationItems      json.RawMessage `json:"evaluation_items"`
	CreatedBy            string          `json:"created_by"`
	CreatedAt            string          `json:"created_at"`
	UpdatedAt            string          `json:"updated_at"`
}

// UnmarshalJSON decodes field by field so one mistyped field does not
// discard the round
func (r *RoundRecord) UnmarshalJSON(data []byte) error {
	return decodeLenient(data, r, "round")
}

// Round is the view model produced from a RoundRecord
type Round struct {
	ID                   int64       `json:"id"`
	RoundCode            string      `json:"roundCode"`
	Title                string      `json:"title"`
	Description          string      `json:"description,omitempty"`
	RoundType            string      `json:"roundType"`
	RoundTypeID          *int64      `json:"roundTypeId,omitempty"`
	Department           string      `json:"department"`
	DepartmentID         *int64      `json:"departmentId,omitempty"`
	AssignedTo           []string    `json:"assignedTo"`
	ScheduledDate        string      `json:"scheduledDate"`
	Deadline             string      `json:"deadline,omitempty"`
	Status               RoundStatus `json:"status"`
	Priority             string      `json:"priority"`
	CompliancePercentage float64     `json:"compliancePercentage"`
	Notes                string      `json:"notes,omitempty"`
	EvaluationItems      []int64     `json:"evaluationItems"`
	CreatedBy            string      `json:"createdBy,omitempty"`
	CreatedAt            string      `json:"createdAt,omitempty"`
	UpdatedAt            string      `json:"updatedAt,omitempty"`
}

// Normalize maps the record to a Round. Malformed optional fields fall back
// to zero values; it never fails.
func (r RoundRecord) Normalize() Round {
	round := Round{
		ID:                   r.ID,
		RoundCode:            r.RoundCode,
		Title:                r.Title,
		Description:          r.Description,
		RoundType:            r.RoundType,
		RoundTypeID:          r.RoundTypeID,
		Department:           r.Department,
		DepartmentID:         r.DepartmentID,
		AssignedTo:           ParseAssignees(r.AssignedTo, r.ID),
		ScheduledDate:        r.ScheduledDate,
		Deadline:             r.Deadline,
		Status:               RoundStatus(strings.ToLower(r.Status)),
		Priority:             r.Priority,
		CompliancePercentage: ParseCompliance(r.CompliancePercentage, r.ID),
		Notes:                r.Notes,
		EvaluationItems:      ParseItemIDs(r.EvaluationItems, r.ID),
		CreatedBy:            r.CreatedBy,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	if round.Status == "" {
		round.Status = RoundScheduled
	}
	return round
}

// ParseCompliance reads a percentage sent as a number or as a numeric
// string, with or without a trailing %. Anything else yields 0.
func ParseCompliance(raw json.RawMessage, recordID int64) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}

	var pct float64
	if err := json.Unmarshal(raw, &pct); err == nil {
		return pct
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		encoded = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(encoded), "%"))
		if encoded == "" {
			return 0
		}
		if pct, err := strconv.ParseFloat(encoded, 64); err == nil && !math.IsNaN(pct) && !math.IsInf(pct, 0) {
			return pct
		}
	}

	slog.Warn("failed to parse compliance_percentage", "record_id", recordID, "value", string(raw))
	return 0
}

// ParseItemIDs reads evaluation item ids sent as a native array or as a
// JSON-encoded array inside a string. Anything else yields an empty list.
func ParseItemIDs(raw json.RawMessage, recordID int64) []int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []int64{}
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			slog.Warn("unexpected evaluation_items type", "record_id", recordID, "error", err)
			return []int64{}
		}
		encoded = strings.TrimSpace(encoded)
		if encoded == "" {
			return []int64{}
		}
		raw = []byte(encoded)
	}

	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		slog.Warn("failed to parse evaluation_items", "record_id", recordID, "error", err)
		return []int64{}
	}
	if ids == nil {
		return []int64{}
	}
	return ids
}

// ParseAssignees reads an assignee field that may be a native array, a
// JSON-encoded array inside a string, a single plain name, or absent.
// Unparseable input yields an empty list and a warning.
func ParseAssignees(raw json.RawMessage, recordID int64) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []string{}
	}

	if raw[0] == '[' {
		if names, ok := decodeNames(raw); ok {
			return names
		}
		slog.Warn("malformed assigned_to array", "record_id", recordID)
		return []string{}
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		slog.Warn("unexpected assigned_to type", "record_id", recordID, "error", err)
		return []string{}
	}

	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return []string{}
	}
	if strings.HasPrefix(encoded, "[") {
		if names, ok := decodeNames([]byte(encoded)); ok {
			return names
		}
	}
	if !strings.ContainsAny(encoded, "[]{}\"") {
		return []string{encoded}
	}

	slog.Warn("failed to parse assigned_to", "record_id", recordID, "value", encoded)
	return []string{}
}

// decodeNames accepts arrays of strings or numbers
func decodeNames(raw []byte) ([]string, bool) {
	var values []any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, false
	}

	names := make([]string, 0, len(values))
	for _, v := range values {
		switch t := v.(type) {
		case string:
			names = append(names, t)
		case float64:
			names = append(names, strconv.FormatFloat(t, 'f', -1, 64))
		default:
			return nil, false
		}
	}
	return names, true
}

// RoundInput is the create/update payload for a round
type RoundInput struct {
	Title           string   `json:"title"`
	Description     string   `json:"description,omitempty"`
	RoundType       string   `json:"round_type,omitempty"`
	RoundTypeID     *int64   `json:"round_type_id,omitempty"`
	Department      string   `json:"department,omitempty"`
	DepartmentID    *int64   `json:"department_id,omitempty"`
	AssignedTo      []string `json:"assigned_to"`
	ScheduledDate   string   `json:"scheduled_date"`
	Deadline        string   `json:"deadline,omitempty"`
	Status          string   `json:"status,omitempty"`
	Priority        string   `json:"priority,omitempty"`
	Notes           string   `json:"notes,omitempty"`
	EvaluationItems []int64  `json:"evaluation_items,omitempty"`
}

// Validate checks the fields the backend rejects without a useful message
func (in RoundInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if strings.TrimSpace(in.ScheduledDate) == "" {
		return &ValidationError{Field: "scheduled_date", Message: "scheduled_date is required"}
	}
	if in.Department == "" && in.DepartmentID == nil {
		return &ValidationError{Field: "department", Message: "department is required"}
	}
	return nil
}

// EvaluationStatus is the outcome recorded for one evaluation item
type EvaluationStatus string

const (
	EvaluationApplied          EvaluationStatus = "applied"
	EvaluationNotApplied       EvaluationStatus = "not_applied"
	EvaluationPartiallyApplied EvaluationStatus = "partially_applied"
	EvaluationNotApplicable    EvaluationStatus = "not_applicable"
)

// IsValid reports whether s is a status the backend accepts
func (s EvaluationStatus) IsValid() bool {
	switch s {
	case EvaluationApplied, EvaluationNotApplied, EvaluationPartiallyApplied, EvaluationNotApplicable:
		return true
	}
	return false
}

// EvaluationResult records the outcome of one item during a round
type EvaluationResult struct {
	EvaluationItemID int64            `json:"evaluation_item_id"`
	Status           EvaluationStatus `json:"status"`
	Comments         string           `json:"comments,omitempty"`
}

// FinalizeRequest closes the evaluation phase of a round
type FinalizeRequest struct {
	Evaluations []EvaluationResult `json:"evaluations"`
	Notes       string             `json:"notes,omitempty"`
}

// Validate checks that every result names an item and a known status
func (req FinalizeRequest) Validate() error {
	for _, ev := range req.Evaluations {
		if ev.EvaluationItemID <= 0 {
			return &ValidationError{Field: "evaluation_item_id", Message: "evaluation_item_id is required"}
		}
		if !ev.Status.IsValid() {
			return &ValidationError{
				Field:   "status",
				Message: fmt.Sprintf("unknown evaluation status %q for item %d", ev.Status, ev.EvaluationItemID),
			}
		}
	}
	return nil
}
