package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Checker probes one dependency
type Checker interface {
	// Check returns nil when the dependency is usable
	Check(ctx context.Context) error

	// Name identifies the dependency in reports
	Name() string
}

// CheckFunc adapts a function to Checker
type CheckFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// NewCheckFunc creates a named Checker from fn
func NewCheckFunc(name string, fn func(ctx context.Context) error) *CheckFunc {
	return &CheckFunc{name: name, fn: fn}
}

func (c *CheckFunc) Check(ctx context.Context) error { return c.fn(ctx) }

func (c *CheckFunc) Name() string { return c.name }

// Status is the outcome of one check
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
	Latency string `json:"latency"`
}

// Registry manages the checkers behind the readiness endpoint
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	timeout  time.Duration
}

// NewRegistry creates a registry that bounds each check by timeout
func NewRegistry(timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Registry{
		checkers: make(map[string]Checker),
		timeout:  timeout,
	}
}

// Register adds a checker, replacing one with the same name
func (r *Registry) Register(c Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[c.Name()] = c
}

// Unregister removes a checker
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checkers, name)
}

// List returns the registered names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckAll runs every checker concurrently. ready is true when all pass.
func (r *Registry) CheckAll(ctx context.Context) (statuses []Status, ready bool) {
	r.mu.RLock()
	checkers := make([]Checker, 0, len(r.checkers))
	for _, c := range r.checkers {
		checkers = append(checkers, c)
	}
	r.mu.RUnlock()

	statuses = make([]Status, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			statuses[i] = r.run(ctx, c)
		}(i, c)
	}
	wg.Wait()

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	ready = true
	for _, s := range statuses {
		ready = ready && s.Healthy
	}
	return statuses, ready
}

func (r *Registry) run(ctx context.Context, c Checker) Status {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err := c.Check(ctx)
	s := Status{
		Name:    c.Name(),
		Healthy: err == nil,
		Latency: time.Since(start).Round(time.Millisecond).String(),
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}
