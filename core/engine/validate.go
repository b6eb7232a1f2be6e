package engine

import (
	"fmt"
	"time"

	"github.com/ayurmitra/scheduler/core/logger"
)

// validateSchedule checks the finished schedule for phase-sequencing
// violations: a later phase's session landing before an earlier phase's.
// The construction-time phase windows should make this impossible;
// violations are logged and surfaced as warnings for operator review, never
// auto-corrected.
func validateSchedule(m *Model, sched *Schedule, log logger.Logger) []string {
	type boundary struct {
		last  time.Time // latest date of the earlier phase seen so far
		first time.Time // earliest date of the later phase
	}

	var warnings []string
	for _, plan := range m.Plans {
		// Track per phase the earliest and latest scheduled date.
		firstOf := make(map[int]time.Time)
		lastOf := make(map[int]time.Time)
		var phases []int
		for _, s := range m.PlanSessions(plan.ID) {
			a, ok := sched.Assignments[s.ID]
			if !ok {
				continue
			}
			if f, seen := firstOf[s.PhaseSequence]; !seen || a.Date.Before(f) {
				if !seen {
					phases = append(phases, s.PhaseSequence)
				}
				firstOf[s.PhaseSequence] = a.Date
			}
			if l := lastOf[s.PhaseSequence]; a.Date.After(l) {
				lastOf[s.PhaseSequence] = a.Date
			}
		}

		for _, p1 := range phases {
			for _, p2 := range phases {
				if p1 >= p2 {
					continue
				}
				b := boundary{last: lastOf[p1], first: firstOf[p2]}
				if b.first.Before(b.last) {
					w := fmt.Sprintf("plan %s: phase %d session on %s precedes phase %d session on %s",
						plan.ID, p2, b.first.Format("2006-01-02"), p1, b.last.Format("2006-01-02"))
					warnings = append(warnings, w)
					log.Errorf("phase sequencing violation: %s", w)
				}
			}
		}
	}
	return warnings
}
