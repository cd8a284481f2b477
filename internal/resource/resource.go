package resource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Producer fetches the value a Resource holds
type Producer[T any] func(ctx context.Context) (T, error)

type options struct {
	logger *slog.Logger
	group  *singleflight.Group
	key    string
	deps   []any
}

// Option configures a Resource
type Option func(*options)

// WithLogger sets the logger used for fetch diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDeps sets the initial dependency list
func WithDeps(deps ...any) Option {
	return func(o *options) {
		o.deps = deps
	}
}

// WithDedup joins concurrent fetches that share key within group, across
// every Resource configured with the same group
func WithDedup(group *singleflight.Group, key string) Option {
	return func(o *options) {
		o.group = group
		o.key = key
	}
}

// Resource turns a Producer into a managed, re-runnable, observable request.
//
// Every fetch gets a generation number. Starting a fetch cancels the one in
// flight, and only the latest generation may commit its result.
type Resource[T any] struct {
	producer Producer[T]
	opts     options

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu       sync.Mutex
	state    State[T]
	deps     []any
	started  bool
	closed   bool
	gen      uint64
	cancel   context.CancelFunc
	settled  chan struct{}
	subs     map[int]chan State[T]
	nextSub  int
	produced int
}

// New creates a Resource in the loading state. Nothing is fetched until Start.
func New[T any](producer Producer[T], opts ...Option) *Resource[T] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Resource[T]{
		producer: producer,
		opts:     o,
		ctx:      ctx,
		stop:     stop,
		state:    State[T]{Loading: true},
		deps:     o.deps,
		settled:  make(chan struct{}),
		subs:     make(map[int]chan State[T]),
	}
}

// Start performs the first fetch. Later calls are no-ops.
func (r *Resource[T]) Start() {
	r.mu.Lock()
	if r.started || r.closed {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	r.fetch()
}

// Refetch runs the fetch cycle on demand, independent of dependencies
func (r *Resource[T]) Refetch() {
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()

	r.fetch()
}

// SetDeps replaces the dependency list. A changed list triggers exactly one
// fetch once started; an equal list triggers none.
func (r *Resource[T]) SetDeps(deps ...any) {
	r.mu.Lock()
	if depsEqual(r.deps, deps) {
		r.mu.Unlock()
		return
	}
	r.deps = deps
	started := r.started
	r.mu.Unlock()

	if started {
		r.fetch()
	}
}

// Deps returns the current dependency list
func (r *Resource[T]) Deps() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.deps...)
}

// Snapshot returns the current state
func (r *Resource[T]) Snapshot() State[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Produced returns how many fetch cycles have been started
func (r *Resource[T]) Produced() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.produced
}

// Wait blocks until the resource is not loading and returns that state
func (r *Resource[T]) Wait(ctx context.Context) (State[T], error) {
	for {
		r.mu.Lock()
		if !r.state.Loading {
			s := r.state
			r.mu.Unlock()
			return s, nil
		}
		if r.closed {
			s := r.state
			r.mu.Unlock()
			return s, ErrClosed
		}
		settled := r.settled
		r.mu.Unlock()

		select {
		case <-settled:
		case <-ctx.Done():
			return r.Snapshot(), ctx.Err()
		}
	}
}

// Subscribe returns a channel receiving the current state and every later
// change. Slow readers only see the latest state. The returned func
// unsubscribes; the channel is closed by it or by Close.
func (r *Resource[T]) Subscribe() (<-chan State[T], func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan State[T], 1)
	if r.closed {
		close(ch)
		return ch, func() {}
	}

	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	ch <- r.state

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if sub, ok := r.subs[id]; ok {
				delete(r.subs, id)
				close(sub)
			}
		})
	}
}

// Close cancels any fetch in flight, waits for it to return and closes
// every subscription. The state is frozen afterwards.
func (r *Resource[T]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.state.Loading {
		close(r.settled)
	}
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
	r.mu.Unlock()

	r.stop()
	r.wg.Wait()
}

func (r *Resource[T]) fetch() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}

	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	gen := r.gen
	ctx, cancel := context.WithCancel(r.ctx)
	r.cancel = cancel

	if !r.state.Loading {
		r.settled = make(chan struct{})
	}
	r.state.Loading = true
	r.state.Error = ""
	r.produced++
	r.publishLocked()

	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(ctx, cancel, gen)
}

func (r *Resource[T]) run(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	defer r.wg.Done()
	defer cancel()

	data, err := r.produce(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || gen != r.gen {
		return
	}
	r.cancel = nil

	if err != nil {
		r.opts.logger.Debug("resource fetch failed", "key", r.opts.key, "error", err)
		r.state.Error = ErrorMessage(err)
	} else {
		r.state.Data = data
		r.state.HasData = true
	}
	r.state.Loading = false
	close(r.settled)
	r.publishLocked()
}

func (r *Resource[T]) produce(ctx context.Context) (T, error) {
	if r.opts.group == nil {
		return r.producer(ctx)
	}

	// The shared call must not die with whichever waiter started it.
	shared := context.WithoutCancel(ctx)
	ch := r.opts.group.DoChan(r.opts.key, func() (any, error) {
		return r.producer(shared)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		data, ok := res.Val.(T)
		if !ok && res.Val != nil {
			return data, fmt.Errorf("dedup key %q holds %T, not %T", r.opts.key, res.Val, data)
		}
		return data, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (r *Resource[T]) publishLocked() {
	for _, ch := range r.subs {
		select {
		case <-ch:
		default:
		}
		ch <- r.state
	}
}
