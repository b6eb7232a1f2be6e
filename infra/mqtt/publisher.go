package mqtt

import (
	"sync"
	"time"
)

// RunEvent is the hospital-sync notification emitted after a scheduling
// run. Downstream systems (ward displays, therapist apps) subscribe to keep
// their views current without polling.
type RunEvent struct {
	RunID          string    `json:"run_id"`
	Algorithm      string    `json:"algorithm"`
	Plans          int       `json:"plans"`
	TotalSessions  int       `json:"total_sessions"`
	ScheduledCount int       `json:"scheduled_count"`
	ConflictCount  int       `json:"conflict_count"`
	SuccessRate    float64   `json:"success_rate"`
	CompletedAt    time.Time `json:"completed_at"`
}

// PlanEvent notifies a single plan's new scheduling state.
type PlanEvent struct {
	RunID     string    `json:"run_id"`
	PlanID    string    `json:"plan_id"`
	PatientID string    `json:"patient_id"`
	Status    string    `json:"status"`
	Scheduled int       `json:"scheduled"`
	Conflicts int       `json:"conflicts"`
	FirstDate time.Time `json:"first_date,omitempty"`
	LastDate  time.Time `json:"last_date,omitempty"`
}

// Publisher delivers scheduling events to the hospital message bus.
type Publisher interface {
	PublishRun(ev RunEvent) error
	PublishPlan(ev PlanEvent) error
	Close()
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) PublishRun(RunEvent) error   { return nil }
func (NopPublisher) PublishPlan(PlanEvent) error { return nil }
func (NopPublisher) Close()                      {}

// MockPublisher records events for tests.
type MockPublisher struct {
	mu    sync.Mutex
	Runs  []RunEvent
	Plans []PlanEvent
	Err   error
}

// NewMockPublisher creates an empty MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishRun(ev RunEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Runs = append(m.Runs, ev)
	return nil
}

func (m *MockPublisher) PublishPlan(ev PlanEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Plans = append(m.Plans, ev)
	return nil
}

func (m *MockPublisher) Close() {}
