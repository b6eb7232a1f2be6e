package engine

import (
	"fmt"
	"sort"

	"github.com/ayurmitra/scheduler/core/model"
)

// PhaseWindow anchors one treatment phase to a 1-based day range within the
// plan. Windows produced by BuildPhaseWindows are strictly increasing and
// never overlap, so later stages can take the boundaries on faith.
type PhaseWindow struct {
	Phase    *model.Phase
	StartDay int
	EndDay   int
}

// Days is the window's length in days.
func (w PhaseWindow) Days() int { return w.EndDay - w.StartDay + 1 }

// Contains reports whether the 1-based plan day falls inside the window.
func (w PhaseWindow) Contains(day int) bool { return day >= w.StartDay && day <= w.EndDay }

// BuildPhaseWindows lays the plan's phases end to end in sequence order. A
// phase of duration d occupies [offset+1, offset+d]; the offset then advances
// by d, so window N+1 always starts the day after window N ends.
func BuildPhaseWindows(plan *model.TreatmentPlan) ([]PhaseWindow, error) {
	phases := plan.SortedPhases()
	if len(phases) == 0 {
		return nil, fmt.Errorf("plan %s has no phases", plan.ID)
	}

	windows := make([]PhaseWindow, 0, len(phases))
	offset := 0
	for i := range phases {
		d := phases[i].Duration()
		windows = append(windows, PhaseWindow{
			Phase:    &phases[i],
			StartDay: offset + 1,
			EndDay:   offset + d,
		})
		offset += d
	}
	return windows, nil
}

// windowForDay finds the window covering a plan day via binary search.
func windowForDay(windows []PhaseWindow, day int) (PhaseWindow, bool) {
	i := sort.Search(len(windows), func(i int) bool { return windows[i].EndDay >= day })
	if i < len(windows) && windows[i].Contains(day) {
		return windows[i], true
	}
	return PhaseWindow{}, false
}
