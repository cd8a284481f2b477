package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/sallamaty/rounds-console/internal/config"
	"github.com/sallamaty/rounds-console/internal/health"
	"github.com/sallamaty/rounds-console/internal/reports"
	"github.com/sallamaty/rounds-console/internal/session"
	"github.com/sallamaty/rounds-console/internal/testutil"
	"github.com/sallamaty/rounds-console/pkg/client"
	"github.com/sallamaty/rounds-console/pkg/models"
)

const signInBody = `{"success":true,"data":{"access_token":"tok-1","user":{"id":7,"email":"nurse@example.org","first_name":"Sara"}}}`

type harness struct {
	backend *testutil.Backend
	server  *httptest.Server
	console *Server
	http    *http.Client
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func newHarness(t *testing.T, deps Deps) *harness {
	t.Helper()

	backend := testutil.NewBackend(t)
	if deps.Client == nil {
		deps.Client = client.NewClient(backend.URL(), nil)
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewMemoryStores()
	}

	console := NewServer(
		config.ServerConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		config.SessionConfig{CookieName: "rounds_session", TTL: time.Hour},
		deps,
	)
	server := httptest.NewServer(console.Router())
	t.Cleanup(server.Close)

	return &harness{backend: backend, server: server, console: console, http: newBrowser(t)}
}

func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

func (h *harness) do(t *testing.T, browser *http.Client, method, path string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, h.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := browser.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func (h *harness) signIn(t *testing.T, browser *http.Client) {
	t.Helper()
	h.backend.JSON(http.MethodPost, "/auth/signin", http.StatusOK, signInBody)
	status, env := h.do(t, browser, http.MethodPost, "/auth/login", map[string]string{
		"email":    "nurse@example.org",
		"password": "secret1",
	})
	if status != http.StatusOK {
		t.Fatalf("sign in failed: %d %+v", status, env.Error)
	}
}

func errorCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func TestHealth(t *testing.T) {
	h := newHarness(t, Deps{})
	status, env := h.do(t, h.http, http.MethodGet, "/health", nil)
	if status != http.StatusOK || !env.Success {
		t.Errorf("unexpected health response %d %+v", status, env)
	}
}

func TestReadyReportsFailingDependency(t *testing.T) {
	registry := health.NewRegistry(time.Second)
	registry.Register(health.NewCheckFunc("api", func(ctx context.Context) error { return nil }))
	registry.Register(health.NewCheckFunc("redis", func(ctx context.Context) error { return errors.New("connection refused") }))

	h := newHarness(t, Deps{Health: registry})
	status, env := h.do(t, h.http, http.MethodGet, "/ready", nil)
	if status != http.StatusServiceUnavailable || errorCode(env) != "not_ready" {
		t.Fatalf("expected 503 not_ready, got %d %+v", status, env.Error)
	}

	var body readiness
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatalf("failed to decode readiness: %v", err)
	}
	if len(body.Checks) != 2 || body.Checks[1].Name != "redis" || body.Checks[1].Healthy {
		t.Errorf("unexpected checks %+v", body.Checks)
	}
}

func TestAPIRequiresSignIn(t *testing.T) {
	h := newHarness(t, Deps{})

	status, env := h.do(t, h.http, http.MethodGet, "/api/v1/rounds", nil)
	if status != http.StatusUnauthorized || errorCode(env) != "not_authenticated" {
		t.Errorf("expected 401 not_authenticated, got %d %+v", status, env.Error)
	}
	if n := len(h.backend.Requests()); n != 0 {
		t.Errorf("expected no backend traffic, got %d requests", n)
	}
}

func TestLoginThenListRoundsFiltered(t *testing.T) {
	h := newHarness(t, Deps{})
	h.signIn(t, h.http)

	h.backend.JSON(http.MethodGet, "/rounds", http.StatusOK, `{"data":[
		{"id":1,"title":"ICU hygiene","status":"completed","department":"ICU","assigned_to":"[\"Sara\"]"},
		{"id":2,"title":"ER meds","status":"scheduled","department":"ER"},
		{"id":3,"title":"ICU meds","status":"scheduled","department":"icu"}
	]}`)

	status, env := h.do(t, h.http, http.MethodGet, "/api/v1/rounds?department=ICU&status=scheduled", nil)
	if status != http.StatusOK {
		t.Fatalf("list failed: %d %+v", status, env.Error)
	}

	var list listResponse[models.Round]
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("failed to decode rounds: %v", err)
	}
	if list.Total != 1 || list.Items[0].ID != 3 {
		t.Errorf("unexpected rounds %+v", list)
	}

	reqs := h.backend.Requests()
	last := reqs[len(reqs)-1]
	if last.Path != "/rounds" || last.Auth != "Bearer tok-1" {
		t.Errorf("expected signed backend call, got %+v", last)
	}
}

func TestLoginValidatesBeforeCallingBackend(t *testing.T) {
	h := newHarness(t, Deps{})

	status, env := h.do(t, h.http, http.MethodPost, "/auth/login", map[string]string{"email": "nurse@example.org"})
	if status != http.StatusBadRequest || errorCode(env) != "validation_error" || env.Error.Field != "password" {
		t.Errorf("expected password validation error, got %d %+v", status, env.Error)
	}
	if n := h.backend.Count(http.MethodPost, "/auth/signin"); n != 0 {
		t.Errorf("expected no sign-in call, got %d", n)
	}
}

func TestRegisterChecksConfirmation(t *testing.T) {
	h := newHarness(t, Deps{})

	status, env := h.do(t, h.http, http.MethodPost, "/auth/register", map[string]string{
		"email":            "nurse@example.org",
		"password":         "secret1",
		"confirm_password": "secret2",
		"first_name":       "Sara",
	})
	if status != http.StatusBadRequest || env.Error.Field != "confirm_password" {
		t.Errorf("expected confirm_password error, got %d %+v", status, env.Error)
	}
	if n := h.backend.Count(http.MethodPost, "/auth/register"); n != 0 {
		t.Errorf("expected no register call, got %d", n)
	}
}

func TestUpstreamUnauthorizedEndsSession(t *testing.T) {
	h := newHarness(t, Deps{})
	h.signIn(t, h.http)

	h.backend.JSON(http.MethodGet, "/departments", http.StatusUnauthorized, `{"message":"jwt expired"}`)

	status, env := h.do(t, h.http, http.MethodGet, "/api/v1/departments", nil)
	if status != http.StatusUnauthorized || errorCode(env) != "session_expired" {
		t.Fatalf("expected 401 session_expired, got %d %+v", status, env.Error)
	}

	status, env = h.do(t, h.http, http.MethodGet, "/api/v1/departments", nil)
	if status != http.StatusUnauthorized || errorCode(env) != "not_authenticated" {
		t.Errorf("expected token cleared, got %d %+v", status, env.Error)
	}
	if n := h.backend.Count(http.MethodGet, "/departments"); n != 1 {
		t.Errorf("expected one backend call, got %d", n)
	}
}

func TestExpiredTokenRejectedLocally(t *testing.T) {
	sessions := session.NewMemoryStores()
	h := newHarness(t, Deps{Sessions: sessions})

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("test-secret-test-secret-test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	h.backend.JSON(http.MethodPost, "/auth/signin", http.StatusOK,
		`{"data":{"access_token":"`+token+`","user":{"id":7,"email":"nurse@example.org"}}}`)

	if status, env := h.do(t, h.http, http.MethodPost, "/auth/login", map[string]string{
		"email": "nurse@example.org", "password": "secret1",
	}); status != http.StatusOK {
		t.Fatalf("sign in failed: %d %+v", status, env.Error)
	}

	status, env := h.do(t, h.http, http.MethodGet, "/api/v1/rounds", nil)
	if status != http.StatusUnauthorized || errorCode(env) != "session_expired" {
		t.Errorf("expected 401 session_expired, got %d %+v", status, env.Error)
	}
	if n := h.backend.Count(http.MethodGet, "/rounds"); n != 0 {
		t.Errorf("expired token must not reach the backend, got %d calls", n)
	}
}

func TestUpstreamErrorKeepsStatus(t *testing.T) {
	h := newHarness(t, Deps{})
	h.signIn(t, h.http)

	h.backend.JSON(http.MethodPost, "/departments", http.StatusConflict, `{"message":"duplicate name"}`)

	status, env := h.do(t, h.http, http.MethodPost, "/api/v1/departments", map[string]string{"name": "ICU"})
	if status != http.StatusConflict || errorCode(env) != "upstream_error" {
		t.Fatalf("expected 409 upstream_error, got %d %+v", status, env.Error)
	}
	if !strings.Contains(env.Error.Message, "duplicate name") {
		t.Errorf("expected upstream body in message, got %q", env.Error.Message)
	}
}

func TestUnreachableBackend(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	h := newHarness(t, Deps{Client: client.NewClient(dead.URL, nil)})

	status, env := h.do(t, h.http, http.MethodPost, "/auth/login", map[string]string{
		"email": "nurse@example.org", "password": "secret1",
	})
	if status != http.StatusBadGateway || errorCode(env) != "upstream_unreachable" {
		t.Errorf("expected 502 upstream_unreachable, got %d %+v", status, env.Error)
	}
}

func TestCapaCreateValidatesAndUpdatePatches(t *testing.T) {
	h := newHarness(t, Deps{})
	h.signIn(t, h.http)

	status, env := h.do(t, h.http, http.MethodPost, "/api/v1/capas", map[string]string{})
	if status != http.StatusBadRequest || errorCode(env) != "validation_error" {
		t.Errorf("expected validation error, got %d %+v", status, env.Error)
	}

	h.backend.JSON(http.MethodPatch, "/capa/4", http.StatusOK, `{"data":{"id":4,"title":"Fix labels","status":"in_progress"}}`)
	status, env = h.do(t, h.http, http.MethodPatch, "/api/v1/capas/4", map[string]string{"status": "in_progress"})
	if status != http.StatusOK {
		t.Fatalf("update failed: %d %+v", status, env.Error)
	}

	var capa models.Capa
	if err := json.Unmarshal(env.Data, &capa); err != nil {
		t.Fatalf("failed to decode capa: %v", err)
	}
	if capa.ID != 4 || capa.Status != models.CapaInProgress {
		t.Errorf("unexpected capa %+v", capa)
	}
}

func TestInvalidID(t *testing.T) {
	h := newHarness(t, Deps{})
	h.signIn(t, h.http)

	status, env := h.do(t, h.http, http.MethodDelete, "/api/v1/round-types/abc", nil)
	if status != http.StatusBadRequest || errorCode(env) != "validation_error" {
		t.Errorf("expected 400, got %d %+v", status, env.Error)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	h := newHarness(t, Deps{})
	h.signIn(t, h.http)

	other := newBrowser(t)
	status, env := h.do(t, other, http.MethodGet, "/auth/me", nil)
	if status != http.StatusUnauthorized || errorCode(env) != "not_authenticated" {
		t.Errorf("second browser must not share the session, got %d %+v", status, env.Error)
	}

	status, env = h.do(t, h.http, http.MethodGet, "/auth/me", nil)
	if status != http.StatusOK {
		t.Fatalf("me failed: %d %+v", status, env.Error)
	}
	var me meResponse
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatalf("failed to decode me: %v", err)
	}
	if me.User == nil || me.User.ID != 7 || me.Expired {
		t.Errorf("unexpected me %+v", me)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	h := newHarness(t, Deps{})
	h.signIn(t, h.http)

	if status, _ := h.do(t, h.http, http.MethodPost, "/auth/logout", nil); status != http.StatusOK {
		t.Fatalf("logout failed: %d", status)
	}
	status, env := h.do(t, h.http, http.MethodGet, "/auth/me", nil)
	if status != http.StatusUnauthorized || errorCode(env) != "not_authenticated" {
		t.Errorf("expected signed out, got %d %+v", status, env.Error)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	h := newHarness(t, Deps{})
	h.signIn(t, h.http)

	status, env := h.do(t, h.http, http.MethodGet, "/api/v1/preferences", nil)
	if status != http.StatusOK || string(env.Data) != `{"sidebarCollapsed":false}` {
		t.Fatalf("unexpected default preferences %d %s", status, env.Data)
	}

	h.do(t, h.http, http.MethodPut, "/api/v1/preferences", preferences{SidebarCollapsed: true})

	_, env = h.do(t, h.http, http.MethodGet, "/api/v1/preferences", nil)
	if string(env.Data) != `{"sidebarCollapsed":true}` {
		t.Errorf("preference not persisted: %s", env.Data)
	}
}

func TestRunReportForwardsParams(t *testing.T) {
	catalog := reports.NewCatalog()
	catalog.Add(&models.ReportDefinition{
		Name:     "compliance-by-department",
		Title:    "Compliance by department",
		Endpoint: "compliance-by-department",
		Params:   map[string]string{"period": "month"},
		Chart:    "bar",
	})

	h := newHarness(t, Deps{Catalog: catalog})
	h.signIn(t, h.http)
	h.backend.JSON(http.MethodGet, "/api/reports/compliance-by-department", http.StatusOK,
		`{"data":[{"department":"ICU","rate":92}]}`)

	status, env := h.do(t, h.http, http.MethodGet, "/api/v1/reports/compliance-by-department?year=2024", nil)
	if status != http.StatusOK {
		t.Fatalf("report failed: %d %+v", status, env.Error)
	}

	reqs := h.backend.Requests()
	if got := reqs[len(reqs)-1].Query; got != "period=month&year=2024" {
		t.Errorf("unexpected forwarded query %q", got)
	}

	status, env = h.do(t, h.http, http.MethodGet, "/api/v1/reports/missing", nil)
	if status != http.StatusNotFound || errorCode(env) != "not_found" {
		t.Errorf("expected 404, got %d %+v", status, env.Error)
	}
}

func TestResourceStream(t *testing.T) {
	h := newHarness(t, Deps{})
	h.signIn(t, h.http)
	h.backend.JSON(http.MethodGet, "/departments", http.StatusOK, `[{"id":1,"name":"ICU"}]`)

	dialer := websocket.Dialer{Jar: h.http.Jar, HandshakeTimeout: 2 * time.Second}
	wsURL := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws/resources/departments"
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	type streamState struct {
		Data    []models.Department `json:"data"`
		Loading bool                `json:"loading"`
		Error   *string             `json:"error"`
	}
	readSettled := func() streamState {
		t.Helper()
		for {
			var msg struct {
				Type     string      `json:"type"`
				Resource string      `json:"resource"`
				State    streamState `json:"state"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatalf("read failed: %v", err)
			}
			if msg.Type != "state" || msg.Resource != "departments" {
				t.Fatalf("unexpected message %+v", msg)
			}
			if !msg.State.Loading {
				return msg.State
			}
		}
	}

	first := readSettled()
	want := []models.Department{{ID: 1, Name: "ICU"}}
	if diff := cmp.Diff(want, first.Data); diff != "" || first.Error != nil {
		t.Errorf("unexpected first state (-want +got):\n%s", diff)
	}

	if err := conn.WriteJSON(StreamMessage{Type: "refetch"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	readSettled()
	if n := h.backend.Count(http.MethodGet, "/departments"); n != 2 {
		t.Errorf("expected refetch to hit the backend again, got %d calls", n)
	}
}

func TestResourceStreamUnknownResource(t *testing.T) {
	h := newHarness(t, Deps{})
	h.signIn(t, h.http)

	status, env := h.do(t, h.http, http.MethodGet, "/ws/resources/wards", nil)
	if status != http.StatusNotFound || errorCode(env) != "not_found" {
		t.Errorf("expected 404, got %d %+v", status, env.Error)
	}
}

func TestCheckOrigin(t *testing.T) {
	s := &Server{config: config.ServerConfig{AllowedOrigins: []string{"http://localhost:5173"}}}
	tests := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "console:8080", true},
		{"http://localhost:5173", "console:8080", true},
		{"http://console:8080", "console:8080", true},
		{"http://evil.example", "console:8080", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws/resources/rounds", nil)
		r.Host = tt.host
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := s.checkOrigin(r); got != tt.want {
			t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
