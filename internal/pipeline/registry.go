package pipeline

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrRegistryFull is returned when every live run is busy and no slot can be freed
var ErrRegistryFull = errors.New("too many active runs")

// Run is a registered pipeline plus the stored source image, if any
type Run struct {
	*Pipeline
	CreatedAt time.Time

	mu       sync.Mutex
	imageKey string
	imageURL string
}

// SetImage records where the run's source image was stored
func (r *Run) SetImage(key, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imageKey = key
	r.imageURL = url
}

// Image returns the stored object key and URL
func (r *Run) Image() (key, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.imageKey, r.imageURL
}

// Snapshot includes the image URL on top of the pipeline state
func (r *Run) Snapshot() Snapshot {
	s := r.Pipeline.Snapshot()
	_, s.ImageURL = r.Image()
	return s
}

// Registry keeps independent runs keyed by id. The oldest idle run is evicted
// when the registry is at capacity.
type Registry struct {
	mu      sync.Mutex
	runs    map[string]*Run
	order   []string
	max     int
	onEvict func(*Run)
}

// NewRegistry creates a registry holding at most max runs (0 = unbounded).
// onEvict may be nil.
func NewRegistry(max int, onEvict func(*Run)) *Registry {
	return &Registry{
		runs:    make(map[string]*Run),
		max:     max,
		onEvict: onEvict,
	}
}

// Create registers a new run built by newPipeline for a fresh id
func (r *Registry) Create(newPipeline func(id string) *Pipeline) (*Run, error) {
	r.mu.Lock()

	var evicted *Run
	if r.max > 0 && len(r.runs) >= r.max {
		evicted = r.evictLocked()
		if evicted == nil {
			r.mu.Unlock()
			return nil, ErrRegistryFull
		}
	}

	id := uuid.NewString()
	run := &Run{Pipeline: newPipeline(id), CreatedAt: time.Now()}
	r.runs[id] = run
	r.order = append(r.order, id)
	r.mu.Unlock()

	if evicted != nil && r.onEvict != nil {
		r.onEvict(evicted)
	}
	return run, nil
}

// Get returns the run with the given id
func (r *Registry) Get(id string) (*Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	return run, ok
}

// Delete removes the run and returns it
func (r *Registry) Delete(id string) (*Run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, false
	}
	r.removeLocked(id)
	return run, true
}

// Len returns the number of live runs
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

// evictLocked drops the oldest run that is not busy
func (r *Registry) evictLocked() *Run {
	for _, id := range r.order {
		run := r.runs[id]
		if run.Busy() {
			continue
		}
		r.removeLocked(id)
		return run
	}
	return nil
}

func (r *Registry) removeLocked(id string) {
	delete(r.runs, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
