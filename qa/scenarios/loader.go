// Package scenarios runs declarative scheduling scenarios from YAML files,
// used as a QA harness on top of the unit tests.
package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayurmitra/scheduler/core/model"
)

type TherapistDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Weekend     bool   `yaml:"weekend"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	MaxPatients int    `yaml:"max_patients"`
}

func (d TherapistDef) ToModel() (model.Therapist, error) {
	start, err := model.ParseClockTime(d.Start)
	if err != nil {
		return model.Therapist{}, fmt.Errorf("therapist %s start: %w", d.ID, err)
	}
	end, err := model.ParseClockTime(d.End)
	if err != nil {
		return model.Therapist{}, fmt.Errorf("therapist %s end: %w", d.ID, err)
	}
	days := make(map[time.Weekday]model.DayAvailability)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if !d.Weekend && (wd == time.Saturday || wd == time.Sunday) {
			continue
		}
		days[wd] = model.DayAvailability{
			Available: true,
			Windows:   []model.TimeWindow{{Start: start, End: end}},
		}
	}
	return model.Therapist{
		ID:   d.ID,
		Name: d.Name,
		Availability: model.WeeklyAvailability{
			Days:              days,
			MaxPatientsPerDay: d.MaxPatients,
		},
	}, nil
}

type TherapyDef struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	Duration        int    `yaml:"duration"`
	Buffer          int    `yaml:"buffer"`
	PreferredTime   string `yaml:"preferred_time"`
	SpecificTime    string `yaml:"specific_time"`
	RequiresFasting bool   `yaml:"requires_fasting"`
}

func (d TherapyDef) ToModel() (model.Therapy, error) {
	t := model.Therapy{
		ID:               d.ID,
		Name:             d.Name,
		StandardDuration: d.Duration,
		BufferTime:       d.Buffer,
		Constraints: model.TherapyConstraints{
			PreferredTime:   model.TimeOfDay(d.PreferredTime),
			RequiresFasting: d.RequiresFasting,
		},
	}
	if d.SpecificTime != "" {
		ct, err := model.ParseClockTime(d.SpecificTime)
		if err != nil {
			return model.Therapy{}, fmt.Errorf("therapy %s specific_time: %w", d.ID, err)
		}
		t.Constraints.SpecificTime = ct
		t.Constraints.HasSpecificTime = true
	}
	return t, nil
}

type SessionDef struct {
	Therapy               string `yaml:"therapy"`
	Count                 int    `yaml:"count"`
	Frequency             string `yaml:"frequency"`
	RequiresPreviousPhase bool   `yaml:"requires_previous_phase"`
	MinGapDays            int    `yaml:"min_gap_days"`
	Parallel              bool   `yaml:"parallel"`
}

type PhaseDef struct {
	Sequence int          `yaml:"sequence"`
	Name     string       `yaml:"name"`
	Days     int          `yaml:"days"`
	Sessions []SessionDef `yaml:"sessions"`
}

type PlanDef struct {
	ID            string     `yaml:"id"`
	Patient       string     `yaml:"patient"`
	Therapist     string     `yaml:"therapist"`
	StartDate     string     `yaml:"start_date"`
	SkipWeekends  bool       `yaml:"skip_weekends"`
	PreferredSlot string     `yaml:"preferred_slot"`
	FlexDays      int        `yaml:"flex_days"`
	Phases        []PhaseDef `yaml:"phases"`
}

func (d PlanDef) ToModel() (model.TreatmentPlan, error) {
	start, err := time.Parse("2006-01-02", d.StartDate)
	if err != nil {
		return model.TreatmentPlan{}, fmt.Errorf("plan %s start_date: %w", d.ID, err)
	}
	plan := model.TreatmentPlan{
		ID:          d.ID,
		PatientID:   d.Patient,
		TherapistID: d.Therapist,
		Preferences: model.SchedulingPreferences{
			StartDate:             start,
			PreferredTimeSlot:     model.TimeOfDay(d.PreferredSlot),
			SkipWeekends:          d.SkipWeekends,
			FlexibilityWindowDays: d.FlexDays,
		},
		SchedulingStatus: model.StatusUnscheduled,
	}
	for _, p := range d.Phases {
		phase := model.Phase{
			SequenceNumber: p.Sequence,
			Name:           model.PhaseName(p.Name),
			TotalDays:      p.Days,
		}
		for _, s := range p.Sessions {
			phase.TherapySessions = append(phase.TherapySessions, model.TherapySessionSpec{
				TherapyID:                       s.Therapy,
				SessionCount:                    s.Count,
				Frequency:                       model.Frequency(s.Frequency),
				RequiresPreviousPhaseComplete:   s.RequiresPreviousPhase,
				MinimumDaysSincePreviousSession: s.MinGapDays,
				AllowsParallelSessions:          s.Parallel,
			})
		}
		plan.Phases = append(plan.Phases, phase)
	}
	return plan, nil
}

type Expected struct {
	Scheduled int               `yaml:"scheduled"`
	Conflicts int               `yaml:"conflicts"`
	Status    map[string]string `yaml:"status,omitempty"`
}

type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Now         string         `yaml:"now"`
	Therapists  []TherapistDef `yaml:"therapists"`
	Therapies   []TherapyDef   `yaml:"therapies"`
	Plans       []PlanDef      `yaml:"plans"`
	Force       bool           `yaml:"force,omitempty"`
	Expected    Expected       `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
