package engine

import (
	"sort"
	"time"
)

// Assignment records one session placed on the calendar.
type Assignment struct {
	SessionID   string
	TherapistID string
	Date        time.Time
	Start       time.Time
	End         time.Time
	Cost        float64
}

// Schedule is the outcome of an assignment stage: a session-ID keyed set of
// assignments plus a reason per session that could not be placed. Stages
// build and return Schedule values instead of mutating the model.
type Schedule struct {
	Assignments map[string]Assignment
	Conflicts   map[string]string
}

func NewSchedule() *Schedule {
	return &Schedule{
		Assignments: make(map[string]Assignment),
		Conflicts:   make(map[string]string),
	}
}

// Clone deep-copies the schedule so refinement can explore variants without
// touching the accepted one.
func (s *Schedule) Clone() *Schedule {
	c := NewSchedule()
	for id, a := range s.Assignments {
		c.Assignments[id] = a
	}
	for id, r := range s.Conflicts {
		c.Conflicts[id] = r
	}
	return c
}

func (s *Schedule) ScheduledCount() int { return len(s.Assignments) }

func (s *Schedule) ConflictCount() int { return len(s.Conflicts) }

// TotalCost sums assignment costs across the schedule.
func (s *Schedule) TotalCost() float64 {
	var total float64
	for _, a := range s.Assignments {
		total += a.Cost
	}
	return total
}

// Makespan returns the span in days from the earliest to the latest assigned
// date, inclusive. Zero when nothing is assigned.
func (s *Schedule) Makespan() int {
	var first, last time.Time
	for _, a := range s.Assignments {
		if first.IsZero() || a.Date.Before(first) {
			first = a.Date
		}
		if last.IsZero() || a.Date.After(last) {
			last = a.Date
		}
	}
	if first.IsZero() {
		return 0
	}
	return int(last.Sub(first).Hours()/24) + 1
}

// SortedSessionIDs returns assignment keys in deterministic order, for
// stable iteration in reports and tests.
func (s *Schedule) SortedSessionIDs() []string {
	ids := make([]string, 0, len(s.Assignments))
	for id := range s.Assignments {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
