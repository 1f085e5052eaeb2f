package service

import (
	"sync"
	"time"

	"github.com/noah-isme/lms-admin-gateway/internal/models"
)

// PageSet is the page state of one session.
type PageSet struct {
	Students     *PageController[models.StudentStats, models.Student]
	Courses      *PageController[models.CourseStats, models.Course]
	Reports      *PageController[models.ReportStats, models.QuestionReport]
	Interactions *PageController[models.BotStats, models.Interaction]
}

type sessionGauge interface {
	SetActiveSessions(n int)
}

// ControllerRegistry keeps page controllers per session id.
type ControllerRegistry struct {
	api   upstreamAPI
	opts  ControllerOptions
	gauge sessionGauge
	now   func() time.Time

	mu       sync.Mutex
	sets     map[string]*PageSet
	lastUsed map[string]time.Time
}

// NewControllerRegistry builds an empty registry. gauge may be nil.
func NewControllerRegistry(api upstreamAPI, opts ControllerOptions, gauge sessionGauge) *ControllerRegistry {
	return &ControllerRegistry{
		api:      api,
		opts:     opts,
		gauge:    gauge,
		now:      time.Now,
		sets:     make(map[string]*PageSet),
		lastUsed: make(map[string]time.Time),
	}
}

// For returns the controllers of sessionID, creating them on first use.
func (r *ControllerRegistry) For(sessionID string) *PageSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastUsed[sessionID] = r.now()
	if set, ok := r.sets[sessionID]; ok {
		return set
	}
	set := &PageSet{
		Students:     NewPageController(r.api, Students, r.opts),
		Courses:      NewPageController(r.api, Courses, r.opts),
		Reports:      NewPageController(r.api, Reports, r.opts),
		Interactions: NewPageController(r.api, Interactions, r.opts),
	}
	r.sets[sessionID] = set
	r.publishLocked()
	return set
}

// Drop forgets the controllers of sessionID.
func (r *ControllerRegistry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sets, sessionID)
	delete(r.lastUsed, sessionID)
	r.publishLocked()
}

// SweepIdle drops controllers not used for maxIdle and returns how many went.
// Sessions that expire in the store without another request end up here.
func (r *ControllerRegistry) SweepIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, used := range r.lastUsed {
		if used.Before(cutoff) {
			delete(r.sets, id)
			delete(r.lastUsed, id)
			removed++
		}
	}
	if removed > 0 {
		r.publishLocked()
	}
	return removed
}

// Len reports how many sessions hold page state.
func (r *ControllerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sets)
}

func (r *ControllerRegistry) publishLocked() {
	if r.gauge != nil {
		r.gauge.SetActiveSessions(len(r.sets))
	}
}
