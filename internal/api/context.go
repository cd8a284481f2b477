package api

import (
	"context"

	"github.com/sallamaty/rounds-console/internal/queries"
	"github.com/sallamaty/rounds-console/internal/session"
)

type contextKey string

const sessionContextKey contextKey = "console_session"

// RequestSession is the browser session a request belongs to, with a
// backend client signed by its token
type RequestSession struct {
	ID      string
	Session *session.Session
	Store   session.Store
	Queries *queries.Queries
}

// SessionFromContext extracts the RequestSession from context
func SessionFromContext(ctx context.Context) *RequestSession {
	rs, ok := ctx.Value(sessionContextKey).(*RequestSession)
	if !ok {
		return nil
	}
	return rs
}

// ContextWithSession adds a RequestSession to context
func ContextWithSession(ctx context.Context, rs *RequestSession) context.Context {
	return context.WithValue(ctx, sessionContextKey, rs)
}
