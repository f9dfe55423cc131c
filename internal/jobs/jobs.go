// Package jobs tracks long-running generation work so clients can poll
// real progress instead of animating a guess. Percent only moves
// forward; a stage that reports less than a previous stage is clamped.
package jobs

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Job statuses
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrNotFound is returned when a job ID is unknown or expired
var ErrNotFound = errors.New("job not found")

// Job is one tracked unit of generation work
type Job struct {
	ID        string      `json:"id"`
	UserID    uint        `json:"-"`
	Kind      string      `json:"kind"`
	Status    string      `json:"status"`
	Percent   int         `json:"percent"`
	Stage     string      `json:"stage"`
	Error     string      `json:"error,omitempty"`
	Result    interface{} `json:"result,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Tracker holds live jobs in memory. Finished jobs linger for the TTL
// so a client that polls late still sees the terminal state.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*Job
	ttl  time.Duration
}

// NewTracker creates a tracker and starts its expiry sweeper
func NewTracker(ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	t := &Tracker{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
	go t.sweep()
	return t
}

// Start registers a new pending job and returns its ID
func (t *Tracker) Start(userID uint, kind string) string {
	id := uuid.New().String()
	now := time.Now()

	t.mu.Lock()
	t.jobs[id] = &Job{
		ID:        id,
		UserID:    userID,
		Kind:      kind,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.mu.Unlock()
	return id
}

// Progress moves a job to running at the given stage. Percent never
// decreases.
func (t *Tracker) Progress(id string, percent int, stage string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return
	}
	if job.Status == StatusCompleted || job.Status == StatusFailed {
		return
	}

	job.Status = StatusRunning
	if percent > job.Percent {
		if percent > 99 {
			percent = 99
		}
		job.Percent = percent
	}
	if stage != "" {
		job.Stage = stage
	}
	job.UpdatedAt = time.Now()
}

// Complete marks a job done at 100% with an optional result payload
func (t *Tracker) Complete(id string, result interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return
	}
	job.Status = StatusCompleted
	job.Percent = 100
	job.Result = result
	job.UpdatedAt = time.Now()
}

// Fail marks a job failed, keeping whatever percent it reached
func (t *Tracker) Fail(id string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[id]
	if !ok {
		return
	}
	job.Status = StatusFailed
	if err != nil {
		job.Error = err.Error()
	}
	job.UpdatedAt = time.Now()
}

// Get returns a snapshot of the job for its owner. Other users get
// ErrNotFound rather than a hint the ID exists.
func (t *Tracker) Get(id string, userID uint) (*Job, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	job, ok := t.jobs[id]
	if !ok || job.UserID != userID {
		return nil, ErrNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

func (t *Tracker) sweep() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-t.ttl)
		t.mu.Lock()
		for id, job := range t.jobs {
			if job.UpdatedAt.Before(cutoff) {
				delete(t.jobs, id)
			}
		}
		t.mu.Unlock()
	}
}
