package model

import (
	"testing"
	"time"
)

func TestParseClockTime(t *testing.T) {
	c, err := ParseClockTime("09:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Hour() != 9 || c.Minute() != 30 {
		t.Fatalf("expected 09:30, got %s", c)
	}

	if _, err := ParseClockTime("25:00"); err == nil {
		t.Fatal("expected error for hour out of range")
	}
	if _, err := ParseClockTime("bogus"); err == nil {
		t.Fatal("expected error for malformed input")
	}
}

func TestClockTimeOn(t *testing.T) {
	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	at := MustClockTime("14:30").On(date)
	if at.Hour() != 14 || at.Minute() != 30 || !SameDate(at, date) {
		t.Fatalf("unexpected anchored time %v", at)
	}
}

func TestTimeOfDayForHour(t *testing.T) {
	cases := map[int]TimeOfDay{
		6: Morning, 11: Morning,
		12: Afternoon, 16: Afternoon,
		17: Evening, 20: Evening,
		21: Night, 3: Night,
	}
	for hour, want := range cases {
		if got := TimeOfDayForHour(hour); got != want {
			t.Errorf("hour %d: expected %s, got %s", hour, want, got)
		}
	}
}

func TestIntervalOverlaps(t *testing.T) {
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	a := Interval{Start: base, End: base.Add(time.Hour)}

	touching := Interval{Start: base.Add(time.Hour), End: base.Add(2 * time.Hour)}
	if a.Overlaps(touching) {
		t.Fatal("half-open intervals sharing only an endpoint must not overlap")
	}

	inside := Interval{Start: base.Add(15 * time.Minute), End: base.Add(30 * time.Minute)}
	if !a.Overlaps(inside) {
		t.Fatal("contained interval must overlap")
	}
}

func TestFrequencyDayIncrement(t *testing.T) {
	cases := map[Frequency]int{
		FrequencyDaily:         1,
		FrequencyAlternateDays: 2,
		FrequencyTwiceDaily:    0,
		FrequencyOnceWeekly:    7,
		FrequencyCustom:        1,
	}
	for f, want := range cases {
		if got := f.DayIncrement(); got != want {
			t.Errorf("%s: expected %d, got %d", f, want, got)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2026, 1, 5, 23, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 8, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(from, to); got != 3 {
		t.Fatalf("expected 3 days ignoring time of day, got %d", got)
	}
	if got := DaysBetween(to, from); got != -3 {
		t.Fatalf("expected -3 days, got %d", got)
	}
}

func TestIsWeekend(t *testing.T) {
	sat := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	mon := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if !IsWeekend(sat) {
		t.Fatal("saturday should be a weekend")
	}
	if IsWeekend(mon) {
		t.Fatal("monday should not be a weekend")
	}
}

func TestWeeklyAvailability(t *testing.T) {
	avail := WeeklyAvailability{Days: map[time.Weekday]DayAvailability{
		time.Monday: {Available: true, Windows: []TimeWindow{
			{Start: MustClockTime("09:00"), End: MustClockTime("13:00")},
			{Start: MustClockTime("14:00"), End: MustClockTime("17:00")},
		}},
	}}

	if got := avail.WorkingMinutes(time.Monday); got != 420 {
		t.Fatalf("expected 420 working minutes, got %d", got)
	}
	if got := avail.WorkingMinutes(time.Tuesday); got != 0 {
		t.Fatalf("expected 0 minutes on an off day, got %d", got)
	}
	if got := avail.PatientCap(); got != DefaultMaxPatientsPerDay {
		t.Fatalf("expected default patient cap, got %d", got)
	}

	mon := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if _, ok := avail.On(mon); !ok {
		t.Fatal("expected availability on monday")
	}
	tue := mon.AddDate(0, 0, 1)
	if _, ok := avail.On(tue); ok {
		t.Fatal("expected no availability on tuesday")
	}
}
