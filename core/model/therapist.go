package model

import "time"

// TimeWindow is a working window within a day, e.g. 09:00-13:00.
type TimeWindow struct {
	Start ClockTime
	End   ClockTime
}

// Minutes returns the window length in minutes.
func (w TimeWindow) Minutes() int { return int(w.End - w.Start) }

// DayAvailability describes a therapist's working windows on one weekday.
type DayAvailability struct {
	Available bool
	Windows   []TimeWindow
}

// WeeklyAvailability is a therapist's recurring weekly working pattern.
type WeeklyAvailability struct {
	Days              map[time.Weekday]DayAvailability
	MaxPatientsPerDay int
}

// DefaultMaxPatientsPerDay is assumed when a therapist has no explicit cap.
const DefaultMaxPatientsPerDay = 8

// PatientCap returns the daily patient cap, falling back to the default.
func (a WeeklyAvailability) PatientCap() int {
	if a.MaxPatientsPerDay > 0 {
		return a.MaxPatientsPerDay
	}
	return DefaultMaxPatientsPerDay
}

// WorkingMinutes returns the total bookable minutes on the given weekday.
func (a WeeklyAvailability) WorkingMinutes(day time.Weekday) int {
	d, ok := a.Days[day]
	if !ok || !d.Available {
		return 0
	}
	total := 0
	for _, w := range d.Windows {
		total += w.Minutes()
	}
	return total
}

// On returns the availability for the weekday of the given date.
func (a WeeklyAvailability) On(date time.Time) (DayAvailability, bool) {
	d, ok := a.Days[date.Weekday()]
	if !ok || !d.Available || len(d.Windows) == 0 {
		return DayAvailability{}, false
	}
	return d, true
}

// Therapist is a care provider with a weekly availability pattern. The
// engine never writes therapist records.
type Therapist struct {
	ID           string
	Name         string
	Availability WeeklyAvailability
}
