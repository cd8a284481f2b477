package models

import (
	"fmt"
	"net/mail"
	"strings"
)

// SignInRequest is the body of POST /auth/signin
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the credentials are present
func (r SignInRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return &ValidationError{Field: "email", Message: "email is required"}
	}
	if r.Password == "" {
		return &ValidationError{Field: "password", Message: "password is required"}
	}
	return nil
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Department      string `json:"department,omitempty"`
}

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 6

// Validate runs the checks the registration form performs before submitting
func (r RegisterRequest) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return &ValidationError{Field: "email", Message: "a valid email is required"}
	}
	if len(r.Password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	if r.Password != r.ConfirmPassword {
		return &ValidationError{Field: "confirm_password", Message: "passwords do not match"}
	}
	if strings.TrimSpace(r.FirstName) == "" {
		return &ValidationError{Field: "first_name", Message: "first_name is required"}
	}
	return nil
}

// GoogleSignInRequest is the body of POST /auth/google
type GoogleSignInRequest struct {
	Credential string `json:"credential"`
}

// AuthResponse is returned by the sign-in endpoints
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// ValidationError reports a client-side input problem found before any
// request was sent
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
