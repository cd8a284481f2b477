// Package session holds the signed-in state of one user: the access token,
// the cached user record and UI preferences, persisted through a Store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sallamaty/rounds-console/pkg/client"
	"github.com/sallamaty/rounds-console/pkg/models"
)

// ErrNoSession is returned when nobody is signed in
var ErrNoSession = errors.New("no active session")

// Session is the explicit owner of the access token. It implements
// client.TokenSource, so a client built over it signs every request and
// drops the token when the backend answers 401.
type Session struct {
	store Store
}

var _ client.TokenSource = (*Session)(nil)

// New creates a Session over store
func New(store Store) *Session {
	return &Session{store: store}
}

// Store returns the backing store
func (s *Session) Store() Store {
	return s.store
}

// Token returns the stored access token, or "" when signed out
func (s *Session) Token(ctx context.Context) (string, error) {
	token, err := s.store.Get(ctx, KeyToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return token, err
}

// ClearToken forgets the access token
func (s *Session) ClearToken(ctx context.Context) error {
	return s.store.Delete(ctx, KeyToken)
}

// SignIn validates the credentials locally, exchanges them for a token and
// persists the result
func (s *Session) SignIn(ctx context.Context, c *client.Client, email, password string) (*models.User, error) {
	req := models.SignInRequest{Email: email, Password: password}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.Adopt(ctx, resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Adopt persists an authentication response obtained by any sign-in flow
func (s *Session) Adopt(ctx context.Context, resp *models.AuthResponse) error {
	if resp == nil || resp.AccessToken == "" {
		return errors.New("sign-in response carried no access token")
	}

	user, err := json.Marshal(resp.User)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := s.store.Set(ctx, KeyToken, resp.AccessToken); err != nil {
		return err
	}
	return s.store.Set(ctx, KeyUser, string(user))
}

// SignOut forgets the token and the cached user
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.store.Delete(ctx, KeyToken); err != nil {
		return err
	}
	return s.store.Delete(ctx, KeyUser)
}

// User returns the cached signed-in user
func (s *Session) User(ctx context.Context) (*models.User, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoSession
	}

	raw, err := s.store.Get(ctx, KeyUser)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return &user, nil
}

// Expired reports whether the token's exp claim is before now. The
// signature is not checked; the backend remains the authority. Tokens
// without an exp claim, or that are not JWTs, never expire here.
func (s *Session) Expired(ctx context.Context, now time.Time) (bool, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return false, err
	}
	if token == "" {
		return false, ErrNoSession
	}
	return TokenExpired(token, now), nil
}

// TokenExpired applies the Expired rule to a raw token
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.After(exp.Time)
}

// Preferences reads and writes UI preferences
type Preferences struct {
	store Store
}

// NewPreferences creates Preferences over store
func NewPreferences(store Store) *Preferences {
	return &Preferences{store: store}
}

// SidebarCollapsed returns the stored flag; absent or unparseable is false
func (p *Preferences) SidebarCollapsed(ctx context.Context) bool {
	raw, err := p.store.Get(ctx, KeySidebar)
	if err != nil {
		return false
	}
	collapsed, err := strconv.ParseBool(raw)
	return err == nil && collapsed
}

// SetSidebarCollapsed stores the flag
func (p *Preferences) SetSidebarCollapsed(ctx context.Context, collapsed bool) error {
	return p.store.Set(ctx, KeySidebar, strconv.FormatBool(collapsed))
}
