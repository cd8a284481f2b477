package models

import (
	"encoding/json"
	"time"
)

// ReportDefinition describes one dashboard report backed by /api/reports/*
type ReportDefinition struct {
	Name        string            `yaml:"name" json:"name"`
	Title       string            `yaml:"title" json:"title"`
	Description string            `yaml:"description" json:"description,omitempty"`
	Endpoint    string            `yaml:"endpoint" json:"endpoint"`
	Params      map[string]string `yaml:"params" json:"params,omitempty"`
	Chart       string            `yaml:"chart" json:"chart,omitempty"` // bar | line | pie | table
	Group       string            `yaml:"group" json:"group,omitempty"`
}

// Report is a fetched report payload. Rows are passed through as sent.
type Report struct {
	Definition *ReportDefinition `json:"definition"`
	Rows       []json.RawMessage `json:"rows"`
	FetchedAt  time.Time         `json:"fetchedAt"`
}

// RoundSummary counts rounds per status
type RoundSummary struct {
	Total             int                 `json:"total"`
	ByStatus          map[RoundStatus]int `json:"byStatus"`
	AverageCompliance float64             `json:"averageCompliance"`
}

// Dashboard aggregates the figures shown on the home screen
type Dashboard struct {
	Rounds       RoundSummary `json:"rounds"`
	OpenCapas    int          `json:"openCapas"`
	OverdueCapas int          `json:"overdueCapas"`
	Departments  int          `json:"departments"`
	GeneratedAt  time.Time    `json:"generatedAt"`
}
