package batch

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Snapshot is the externally visible state of a job.
type Snapshot struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Percent   int     `json:"percent"`
	Done      bool    `json:"done"`
	Result    *Result `json:"result,omitempty"`
}

// defaultMaxJobs bounds the registry; the endpoint that fills it is
// unauthenticated, so it must not grow without limit.
const defaultMaxJobs = 256

// Registry tracks batch jobs so HTTP clients can start a run and poll
// its progress. Jobs live in memory, are never persisted, and are
// evicted oldest-finished-first once the bound is reached.
type Registry struct {
	mu      sync.RWMutex
	engine  *Engine
	jobs    map[string]*Snapshot
	order   []string // insertion order, for eviction
	maxJobs int
}

// NewRegistry creates a job registry over engine.
func NewRegistry(engine *Engine) *Registry {
	return &Registry{
		engine:  engine,
		jobs:    make(map[string]*Snapshot),
		maxJobs: defaultMaxJobs,
	}
}

// evictLocked drops jobs until the bound holds, preferring the oldest
// finished job and falling back to the oldest outright. Callers hold mu.
func (r *Registry) evictLocked() {
	for len(r.jobs) >= r.maxJobs && len(r.order) > 0 {
		idx := 0
		for i, id := range r.order {
			if s, ok := r.jobs[id]; ok && s.Done {
				idx = i
				break
			}
		}
		id := r.order[idx]
		r.order = append(r.order[:idx], r.order[idx+1:]...)
		delete(r.jobs, id)
	}
}

// Start launches a batch run in the background and returns its job ID.
// The run itself stays strictly sequential; only the HTTP response is
// decoupled from it.
func (r *Registry) Start(ctx context.Context, kind string, items []Item, op Op) string {
	id := uuid.NewString()

	r.mu.Lock()
	r.evictLocked()
	r.jobs[id] = &Snapshot{ID: id, Kind: kind, Total: len(items)}
	r.order = append(r.order, id)
	r.mu.Unlock()

	go func() {
		res := r.engine.Run(ctx, items, op, func(pct int) {
			r.mu.Lock()
			if s, ok := r.jobs[id]; ok {
				s.Completed++
				s.Percent = pct
			}
			r.mu.Unlock()
		})

		r.mu.Lock()
		if s, ok := r.jobs[id]; ok {
			s.Completed = res.Completed
			if res.Total == 0 {
				s.Percent = 100
			}
			s.Done = true
			s.Result = &res
		}
		r.mu.Unlock()
	}()

	return id
}

// Get returns a copy of the job snapshot.
func (r *Registry) Get(id string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.jobs[id]
	if !ok {
		return Snapshot{}, false
	}
	out := *s
	if s.Result != nil {
		cp := *s.Result
		out.Result = &cp
	}
	return out, ok
}
