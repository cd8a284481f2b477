// Package queries binds the typed client to observable resources: one
// producer per backend collection, the resources built from them, the
// mutation sets for each editable collection, and the client-side
// derivations list screens need.
package queries

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/sallamaty/rounds-console/internal/resource"
	"github.com/sallamaty/rounds-console/internal/storage"
	"github.com/sallamaty/rounds-console/pkg/client"
)

// Queries produces resources and mutations for one authenticated client
type Queries struct {
	client *client.Client
	legacy storage.Repository
	group  *singleflight.Group
	scope  string
	logger *slog.Logger
}

// Option configures Queries
type Option func(*Queries)

// WithLegacyStore sets the local catalog mirror that category and item
// fetches fall back to when the backend is unreachable
func WithLegacyStore(repo storage.Repository) Option {
	return func(q *Queries) {
		q.legacy = repo
	}
}

// WithGroup shares fetch de-duplication between several Queries. Keys are
// prefixed with scope, so only Queries given the same scope join each
// other's fetches; scope must identify the signed-in session.
func WithGroup(group *singleflight.Group, scope string) Option {
	return func(q *Queries) {
		q.group = group
		q.scope = scope
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queries) {
		q.logger = logger
	}
}

// New creates Queries over c
func New(c *client.Client, opts ...Option) *Queries {
	q := &Queries{
		client: c,
		group:  &singleflight.Group{},
		logger: c.Logger(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Client returns the underlying client
func (q *Queries) Client() *client.Client {
	return q.client
}

// Endpoint builds a producer that lists endpoint and maps every record
func Endpoint[R, T any](c *client.Client, endpoint string, mapper func(R) T) resource.Producer[[]T] {
	return func(ctx context.Context) ([]T, error) {
		records, err := client.GetList[R](ctx, c, endpoint)
		if err != nil {
			return nil, err
		}
		out := make([]T, len(records))
		for i, r := range records {
			out[i] = mapper(r)
		}
		return out, nil
	}
}

// List builds a resource over an endpoint and mapper pair. Fetches are
// de-duplicated per endpoint across every resource q creates.
func List[R, T any](q *Queries, endpoint string, mapper func(R) T, opts ...resource.Option) *resource.Resource[[]T] {
	return newResource[[]T](q, "list:"+endpoint, Endpoint(q.client, endpoint, mapper), opts...)
}

func newResource[T any](q *Queries, key string, producer resource.Producer[T], opts ...resource.Option) *resource.Resource[T] {
	base := []resource.Option{
		resource.WithLogger(q.logger),
		resource.WithDedup(q.group, q.scope+"/"+key),
	}
	return resource.New(producer, append(base, opts...)...)
}
