package models

import "strings"

// EvaluationCategory groups evaluation items (e.g. hand hygiene)
type EvaluationCategory struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	NameEn      string `json:"name_en,omitempty"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
	WeightPct   int    `json:"weight_percentage,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// Validate checks required category fields
func (c EvaluationCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if c.WeightPct < 0 || c.WeightPct > 100 {
		return &ValidationError{Field: "weight_percentage", Message: "weight_percentage must be between 0 and 100"}
	}
	return nil
}

// EvaluationItem is a single checklist entry evaluated during a round
type EvaluationItem struct {
	ID                 int64  `json:"id"`
	Code               string `json:"code,omitempty"`
	Title              string `json:"title"`
	TitleEn            string `json:"title_en,omitempty"`
	Description        string `json:"description,omitempty"`
	CategoryID         int64  `json:"category_id"`
	CategoryName       string `json:"category_name,omitempty"`
	ObjectiveElements  string `json:"objective_elements,omitempty"`
	EvaluationCriteria string `json:"evaluation_criteria,omitempty"`
	RiskLevel          string `json:"risk_level,omitempty"`
	IsRequired         bool   `json:"is_required"`
	IsActive           *bool  `json:"is_active,omitempty"`
	DisplayOrder       int    `json:"display_order,omitempty"`
}

// Validate checks required item fields
func (i EvaluationItem) Validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if i.CategoryID <= 0 {
		return &ValidationError{Field: "category_id", Message: "category_id is required"}
	}
	return nil
}
