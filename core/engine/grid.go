package engine

import (
	"time"

	"github.com/ayurmitra/scheduler/core/model"
)

// slotGrid is the complete candidate grid for one run: every fixed-length
// slot each therapist could in principle work, enumerated from weekly
// availability over the scheduling horizon. Feasibility filtering narrows
// this grid per session; the grid itself carries no constraint logic.
type slotGrid struct {
	slotMinutes int
	horizon     time.Time // first day past the grid
	start       time.Time

	// byDay maps therapistID -> midnight date -> slots in time order.
	byDay map[string]map[time.Time][]Slot
}

// buildSlotGrid enumerates the grid from the earliest plan start over the
// configured horizon for the given therapists.
func buildSlotGrid(cfg Config, m *Model) *slotGrid {
	start := m.EarliestStart()
	g := &slotGrid{
		slotMinutes: cfg.SlotMinutes,
		start:       start,
		horizon:     start.AddDate(0, 0, cfg.HorizonDays),
		byDay:       make(map[string]map[time.Time][]Slot),
	}

	for _, id := range m.TherapistIDs() {
		therapist, ok := m.Therapists[id]
		if !ok {
			continue
		}
		days := make(map[time.Time][]Slot)
		for date := start; date.Before(g.horizon); date = date.AddDate(0, 0, 1) {
			avail, ok := therapist.Availability.On(date)
			if !ok {
				continue
			}
			var slots []Slot
			for _, w := range avail.Windows {
				for t := int(w.Start); t+cfg.SlotMinutes <= int(w.End); t += cfg.SlotMinutes {
					slotStart := model.ClockTime(t).On(date)
					slots = append(slots, Slot{
						TherapistID: id,
						Date:        date,
						Start:       slotStart,
						End:         slotStart.Add(time.Duration(cfg.SlotMinutes) * time.Minute),
					})
				}
			}
			if len(slots) > 0 {
				days[date] = slots
			}
		}
		g.byDay[id] = days
	}
	return g
}

// slotsOn returns the therapist's grid slots on one date, in time order.
func (g *slotGrid) slotsOn(therapistID string, date time.Time) []Slot {
	return g.byDay[therapistID][model.DateOnly(date)]
}

// windowEnd returns the end of the working window containing the slot, so
// duration-fit checks know how much contiguous room remains. The second
// return is false when the slot is not inside any window.
func windowEnd(t model.Therapist, s Slot) (time.Time, bool) {
	avail, ok := t.Availability.On(s.Date)
	if !ok {
		return time.Time{}, false
	}
	for _, w := range avail.Windows {
		ws, we := w.Start.On(s.Date), w.End.On(s.Date)
		if !s.Start.Before(ws) && s.Start.Before(we) {
			return we, true
		}
	}
	return time.Time{}, false
}
