package engine

import (
	"sort"
	"time"

	"github.com/ayurmitra/scheduler/core/logger"
	"github.com/ayurmitra/scheduler/core/model"
)

// ReasonSlotsClaimed explains a session that had feasible slots but lost all
// of them to earlier sessions in the assignment order.
const ReasonSlotsClaimed = "all feasible slots occupied by higher-priority sessions"

// claimLedger tracks which slot-granularity time units each therapist and
// each patient has committed during the current run, plus daily load
// counters. Existing bookings seed the load and idle-gap views; their time
// units need no claiming because feasibility already excluded overlapping
// slots.
type claimLedger struct {
	slotMinutes int

	units       map[string]map[int64]bool // owner key -> unit start unix -> claimed
	loads       map[string]int            // therapist+day -> sessions booked that day
	byDay       map[string][]Assignment   // therapist+day -> assignments, existing bookings included
	assignments map[string]Assignment     // session ID -> assignment
}

// Therapist and patient IDs come from separate HIS collections, so the unit
// map prefixes them to rule out accidental key collisions.
func therapistKey(id string) string { return "t|" + id }
func patientKey(id string) string   { return "p|" + id }

func newClaimLedger(cfg Config, m *Model) *claimLedger {
	l := &claimLedger{
		slotMinutes: cfg.SlotMinutes,
		units:       make(map[string]map[int64]bool),
		loads:       make(map[string]int),
		byDay:       make(map[string][]Assignment),
		assignments: make(map[string]Assignment),
	}
	for therapistID, intervals := range m.TherapistBusy {
		for _, iv := range intervals {
			day := model.DateOnly(iv.Start)
			key := dayKey(therapistID, day)
			l.loads[key]++
			l.byDay[key] = append(l.byDay[key], Assignment{
				TherapistID: therapistID,
				Date:        day,
				Start:       iv.Start,
				End:         iv.End,
			})
		}
	}
	return l
}

func dayKey(therapistID string, day time.Time) string {
	return therapistID + "|" + day.Format("2006-01-02")
}

// canClaim reports whether every time unit of [start, end) is still free
// for both the therapist and the patient.
func (l *claimLedger) canClaim(therapistID, patientID string, start, end time.Time) bool {
	tk, pk := therapistKey(therapistID), patientKey(patientID)
	for u := start; u.Before(end); u = u.Add(time.Duration(l.slotMinutes) * time.Minute) {
		if l.units[tk][u.Unix()] || l.units[pk][u.Unix()] {
			return false
		}
	}
	return true
}

// claim marks the session's full footprint (duration plus buffer) occupied
// for the therapist and the patient, and records the assignment.
func (l *claimLedger) claim(s *Session, slot Slot) Assignment {
	end := slot.Start.Add(time.Duration(s.TotalMinutes()) * time.Minute)
	for _, key := range []string{therapistKey(slot.TherapistID), patientKey(s.PatientID)} {
		if l.units[key] == nil {
			l.units[key] = make(map[int64]bool)
		}
		for u := slot.Start; u.Before(end); u = u.Add(time.Duration(l.slotMinutes) * time.Minute) {
			l.units[key][u.Unix()] = true
		}
	}
	a := Assignment{
		SessionID:   s.ID,
		TherapistID: slot.TherapistID,
		Date:        slot.Date,
		Start:       slot.Start,
		End:         slot.Start.Add(time.Duration(s.DurationMinutes) * time.Minute),
		Cost:        slot.Cost,
	}
	key := dayKey(slot.TherapistID, slot.Date)
	l.loads[key]++
	l.byDay[key] = append(l.byDay[key], a)
	l.assignments[s.ID] = a
	return a
}

func (l *claimLedger) dailyLoad(therapistID string, day time.Time) int {
	return l.loads[dayKey(therapistID, day)]
}

func (l *claimLedger) dayAssignments(therapistID string, day time.Time) []Assignment {
	return l.byDay[dayKey(therapistID, day)]
}

func (l *claimLedger) assignment(sessionID string) (Assignment, bool) {
	a, ok := l.assignments[sessionID]
	return a, ok
}

// greedyAssigner walks sessions in model order and claims the cheapest
// still-free feasible slot per session. The order is load-bearing: lower
// required days claim first, which is what keeps phases from overlapping
// under contention.
type greedyAssigner struct {
	cfg  Config
	log  logger.Logger
	eval *costEvaluator
}

func newGreedyAssigner(cfg Config, log logger.Logger) *greedyAssigner {
	return &greedyAssigner{cfg: cfg, log: log, eval: newCostEvaluator(cfg)}
}

// Assign produces the initial schedule plus, per session, its feasible
// slots sorted by the cost they carried when the session was evaluated.
// The ranked slots feed the refinement stage.
func (g *greedyAssigner) Assign(m *Model, feas *Feasibility) (*Schedule, map[string][]Slot) {
	sched := NewSchedule()
	ranked := make(map[string][]Slot, len(feas.Slots))
	led := newClaimLedger(g.cfg, m)

	for _, s := range m.Sessions {
		if reason, conflicted := feas.Conflicts[s.ID]; conflicted {
			sched.Conflicts[s.ID] = reason
			continue
		}
		slots := make([]Slot, len(feas.Slots[s.ID]))
		copy(slots, feas.Slots[s.ID])
		for i := range slots {
			slots[i].Cost = g.eval.cost(m, s, slots[i], led)
		}
		sort.SliceStable(slots, func(i, j int) bool {
			if slots[i].Cost != slots[j].Cost {
				return slots[i].Cost < slots[j].Cost
			}
			return slots[i].Start.Before(slots[j].Start)
		})
		ranked[s.ID] = slots

		placed := false
		for _, slot := range slots {
			end := slot.Start.Add(time.Duration(s.TotalMinutes()) * time.Minute)
			if !led.canClaim(slot.TherapistID, s.PatientID, slot.Start, end) {
				continue
			}
			a := led.claim(s, slot)
			sched.Assignments[s.ID] = a
			placed = true
			break
		}
		if !placed {
			sched.Conflicts[s.ID] = ReasonSlotsClaimed
			g.log.Debugw("session lost all feasible slots", map[string]any{
				"session": s.ID,
				"slots":   len(slots),
			})
		}
	}

	g.log.Infof("greedy assignment placed %d/%d sessions", sched.ScheduledCount(), len(m.Sessions))
	return sched, ranked
}
