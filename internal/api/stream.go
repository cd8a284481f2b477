package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/sallamaty/rounds-console/internal/queries"
	"github.com/sallamaty/rounds-console/internal/resource"
)

// StreamMessage is exchanged over a resource stream. The server sends
// "state" and "error"; the client may send "refetch".
type StreamMessage struct {
	Type     string      `json:"type"`
	Resource string      `json:"resource,omitempty"`
	State    interface{} `json:"state,omitempty"`
	Message  string      `json:"message,omitempty"`
}

type streamFunc func(ctx context.Context, conn *streamConn, name string, q *queries.Queries)

// streams lists the resources a client can subscribe to
var streams = map[string]streamFunc{
	"rounds":                stream((*queries.Queries).Rounds),
	"my-rounds":             stream((*queries.Queries).MyRounds),
	"capas":                 stream((*queries.Queries).Capas),
	"departments":           stream((*queries.Queries).Departments),
	"users":                 stream((*queries.Queries).Users),
	"assessors":             stream((*queries.Queries).Assessors),
	"round-types":           stream((*queries.Queries).RoundTypes),
	"evaluation-categories": stream((*queries.Queries).Categories),
	"evaluation-items":      stream((*queries.Queries).Items),
}

func (s *Server) handleResourceStream(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	run, ok := streams[name]
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "unknown resource")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}

	rs := SessionFromContext(r.Context())
	slog.Info("resource stream connected", "resource", name, "session", maskID(rs.ID))

	run(r.Context(), &streamConn{conn: conn}, name, rs.Queries)

	slog.Info("resource stream disconnected", "resource", name, "session", maskID(rs.ID))
}

// stream adapts a resource constructor into a streamFunc. Every state
// change is pushed to the client until either side goes away.
func stream[T any](build func(*queries.Queries, ...resource.Option) *resource.Resource[T]) streamFunc {
	return func(ctx context.Context, sc *streamConn, name string, q *queries.Queries) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		res := build(q)
		states, unsubscribe := res.Subscribe()
		res.Start()

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer cancel()
			sc.readLoop(name, res.Refetch)
		}()

	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case st, ok := <-states:
				if !ok {
					break loop
				}
				if err := sc.send(StreamMessage{Type: "state", Resource: name, State: st}); err != nil {
					break loop
				}
			}
		}

		unsubscribe()
		res.Close()
		sc.conn.Close()
		wg.Wait()
	}
}

// streamConn serializes writes to a websocket connection
type streamConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (sc *streamConn) send(msg StreamMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal stream message", "error", err)
		return err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if err := sc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send stream message", "error", err)
		return err
	}
	return nil
}

func (sc *streamConn) readLoop(name string, refetch func()) {
	for {
		_, message, err := sc.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			return
		}

		var msg StreamMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Debug("invalid message format", "error", err)
			continue
		}

		switch msg.Type {
		case "refetch":
			refetch()
		default:
			sc.send(StreamMessage{Type: "error", Resource: name, Message: "unsupported message type " + msg.Type})
		}
	}
}

// checkOrigin accepts requests without an Origin header and those from an
// allowed origin
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range s.config.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
