package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/sallamaty/rounds-console/internal/queries"
	"github.com/sallamaty/rounds-console/internal/session"
)

// withSession resolves the session cookie, issuing a fresh session id when
// the cookie is missing or malformed
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if cookie, err := r.Cookie(s.session.CookieName); err == nil {
			if parsed, err := uuid.Parse(cookie.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			s.setSessionCookie(w, id)
		}

		store := s.sessions.Open(id)
		sess := session.New(store)
		rs := &RequestSession{
			ID:      id,
			Session: sess,
			Store:   store,
			Queries: queries.New(s.client.WithTokens(sess),
				queries.WithLegacyStore(s.legacy),
				queries.WithGroup(s.fetches, id),
			),
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), rs)))
	})
}

// requireAuth rejects requests whose session holds no usable token
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs := SessionFromContext(r.Context())
		if rs == nil {
			respondError(w, http.StatusUnauthorized, "not_authenticated", "sign in required")
			return
		}

		token, err := rs.Session.Token(r.Context())
		if err != nil {
			slog.Error("failed to read session token", "error", err, "session", maskID(rs.ID))
			respondError(w, http.StatusInternalServerError, "internal_error", "session store unavailable")
			return
		}
		if token == "" {
			respondError(w, http.StatusUnauthorized, "not_authenticated", "sign in required")
			return
		}

		if session.TokenExpired(token, s.now()) {
			slog.Info("session token expired", "session", maskID(rs.ID))
			if err := rs.Session.ClearToken(r.Context()); err != nil {
				slog.Error("failed to clear expired token", "error", err)
			}
			respondError(w, http.StatusUnauthorized, "session_expired", "Session expired")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.session.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// maskID returns first 8 chars of a session id for safe logging
func maskID(id string) string {
	if len(id) < 8 {
		return "***"
	}
	return id[:8] + "..."
}
