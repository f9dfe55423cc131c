// Package onboarding runs the scripted company-profile interview. The
// server owns the interview state so a page reload or second device
// resumes where the user left off instead of restarting the script.
package onboarding

import (
	"errors"
	"strings"
	"sync"
	"time"
)

var (
	// ErrComplete is returned when answers arrive after the last question
	ErrComplete = errors.New("onboarding already complete")
	// ErrEmptyAnswer is returned for blank submissions
	ErrEmptyAnswer = errors.New("answer cannot be empty")
)

// StepResult is what one accepted answer produces
type StepResult struct {
	FollowUp     string    `json:"followUp,omitempty"`
	NextQuestion *Question `json:"nextQuestion,omitempty"`
	Index        int       `json:"index"`
	Total        int       `json:"total"`
	Complete     bool      `json:"complete"`
}

// Sequencer walks one user through the question script
type Sequencer struct {
	mu        sync.Mutex
	questions []Question
	index     int
	answers   map[string]interface{}
	updatedAt time.Time
}

// NewSequencer starts a fresh interview
func NewSequencer() *Sequencer {
	return &Sequencer{
		questions: CompanyProfileQuestions,
		answers:   make(map[string]interface{}),
		updatedAt: time.Now(),
	}
}

// Current returns the question awaiting an answer, or nil when done
func (s *Sequencer) Current() *Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.questions) {
		return nil
	}
	q := s.questions[s.index]
	return &q
}

// SubmitAnswer validates and records an answer. A rejected answer does
// not advance the interview.
func (s *Sequencer) SubmitAnswer(answer string) (*StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index >= len(s.questions) {
		return nil, ErrComplete
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, ErrEmptyAnswer
	}

	q := s.questions[s.index]
	if q.Validate != nil {
		if err := q.Validate(answer); err != nil {
			return nil, err
		}
	}
	if q.Transform != nil {
		answer = q.Transform(answer)
	}

	if q.Multi {
		s.answers[q.Key] = splitList(answer)
	} else {
		s.answers[q.Key] = answer
	}

	s.index++
	s.updatedAt = time.Now()

	result := &StepResult{
		FollowUp: q.RenderFollowUp(answer),
		Index:    s.index,
		Total:    len(s.questions),
		Complete: s.index >= len(s.questions),
	}
	if !result.Complete {
		next := s.questions[s.index]
		result.NextQuestion = &next
	}
	return result, nil
}

// Complete reports whether every question has been answered
func (s *Sequencer) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index >= len(s.questions)
}

// Finalize returns the assembled profile, filling defaults for any
// unanswered keys so downstream prompts never see missing fields.
func (s *Sequencer) Finalize() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile := make(map[string]interface{}, len(s.questions))
	for _, q := range s.questions {
		if v, ok := s.answers[q.Key]; ok {
			profile[q.Key] = v
		} else {
			profile[q.Key] = profileDefaults(q.Key)
		}
	}
	return profile
}

// splitList splits a comma-separated answer, trimming whitespace and
// dropping empty entries
func splitList(answer string) []string {
	parts := strings.Split(answer, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Registry keeps per-user interview sessions in memory. Sessions idle
// past the TTL are swept so abandoned interviews don't accumulate.
type Registry struct {
	mu       sync.Mutex
	sessions map[uint]*Sequencer
	ttl      time.Duration
}

// NewRegistry creates a session registry and starts its sweeper
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	r := &Registry{
		sessions: make(map[uint]*Sequencer),
		ttl:      ttl,
	}
	go r.sweep()
	return r
}

// Get returns the user's active interview, starting one if needed
func (r *Registry) Get(userID uint) *Sequencer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[userID]; ok {
		return s
	}
	s := NewSequencer()
	r.sessions[userID] = s
	return s
}

// Reset discards the user's interview so the next Get starts over
func (r *Registry) Reset(userID uint) {
	r.mu.Lock()
	delete(r.sessions, userID)
	r.mu.Unlock()
}

func (r *Registry) sweep() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-r.ttl)
		r.mu.Lock()
		for id, s := range r.sessions {
			s.mu.Lock()
			stale := s.updatedAt.Before(cutoff)
			s.mu.Unlock()
			if stale {
				delete(r.sessions, id)
			}
		}
		r.mu.Unlock()
	}
}
