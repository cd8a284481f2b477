package models

import (
	"net/mail"
	"strings"
)

// Department is a hospital unit that rounds are performed in
type Department struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	Manager     string `json:"manager,omitempty"`
	Location    string `json:"location,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Validate checks required department fields
func (d Department) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return nil
}

// User is an account known to the backend
type User struct {
	ID         int64  `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
	Phone      string `json:"phone,omitempty"`
	IsActive   *bool  `json:"is_active,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// DisplayName returns the best available human name for the user
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full != "" {
		return full
	}
	return u.Email
}

// UserInput is the create/update payload for a user
type UserInput struct {
	Email      string `json:"email"`
	Password   string `json:"password,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
	Phone      string `json:"phone,omitempty"`
	IsActive   *bool  `json:"is_active,omitempty"`
}

// Validate checks required user fields
func (in UserInput) Validate() error {
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return &ValidationError{Field: "email", Message: "a valid email is required"}
	}
	return nil
}

// Assessor is a user eligible to be assigned to rounds
type Assessor struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
	Role       string `json:"role,omitempty"`
}

// RoundType is a configurable kind of round (e.g. infection control)
type RoundType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// Validate checks required round type fields
func (rt RoundType) Validate() error {
	if strings.TrimSpace(rt.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	return nil
}
