package resource

import (
	"encoding/json"
	"errors"
)

// FallbackMessage is stored when a failure carries no message of its own
const FallbackMessage = "An unexpected error occurred"

// Phase classifies a State snapshot. Exactly one phase holds at a time.
type Phase string

const (
	PhaseIdle    Phase = "idle" // mutation never invoked
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseFailure Phase = "failure"
)

// State is an immutable snapshot of a request's data, loading and error
type State[T any] struct {
	Data    T
	HasData bool
	Loading bool
	Error   string
}

// Phase returns the phase the snapshot is in
func (s State[T]) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.Error != "":
		return PhaseFailure
	case s.HasData:
		return PhaseSuccess
	default:
		return PhaseIdle
	}
}

// MarshalJSON renders absent data and error as null
func (s State[T]) MarshalJSON() ([]byte, error) {
	out := struct {
		Data    any     `json:"data"`
		Loading bool    `json:"loading"`
		Error   *string `json:"error"`
		Phase   Phase   `json:"phase"`
	}{
		Loading: s.Loading,
		Phase:   s.Phase(),
	}
	if s.HasData {
		out.Data = s.Data
	}
	if s.Error != "" {
		msg := s.Error
		out.Error = &msg
	}
	return json.Marshal(out)
}

// ErrorMessage derives the message stored in State.Error
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FallbackMessage
}

// ErrClosed is returned by blocking calls on a closed Resource
var ErrClosed = errors.New("resource closed")
