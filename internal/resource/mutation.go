package resource

import (
	"context"
	"sync"
)

// Action performs a parameterized write
type Action[P, T any] func(ctx context.Context, params P) (T, error)

// Mutation wraps an Action with the same observable state as a Resource,
// without ever invoking it on its own.
//
// Concurrent Mutate calls are not queued: the last one to settle decides
// the stored data or error. Loading stays true while any call is pending.
type Mutation[P, T any] struct {
	action Action[P, T]

	mu      sync.Mutex
	state   State[T]
	pending int
}

// NewMutation creates an idle Mutation
func NewMutation[P, T any](action Action[P, T]) *Mutation[P, T] {
	return &Mutation[P, T]{action: action}
}

// Mutate runs the action. On success the result is stored and returned. On
// failure the message is stored and the original error is returned as-is,
// so callers can branch on it with errors.Is / errors.As.
func (m *Mutation[P, T]) Mutate(ctx context.Context, params P) (T, error) {
	m.mu.Lock()
	m.pending++
	m.state.Loading = true
	m.state.Error = ""
	m.mu.Unlock()

	data, err := m.action(ctx, params)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending--
	m.state.Loading = m.pending > 0
	if err != nil {
		m.state.Error = ErrorMessage(err)
		var zero T
		return zero, err
	}
	m.state.Data = data
	m.state.HasData = true
	m.state.Error = ""
	return data, nil
}

// Snapshot returns the current state
func (m *Mutation[P, T]) Snapshot() State[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Reset returns the mutation to idle. Pending calls still settle into it.
func (m *Mutation[P, T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State[T]{Loading: m.pending > 0}
}
