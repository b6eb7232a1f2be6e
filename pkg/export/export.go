// Package export writes scheduling results in interchange formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/ayurmitra/scheduler/core/engine"
)

// WriteJSON writes the run result to w in JSON format.
func WriteJSON(w io.Writer, result *engine.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// WriteCSV writes one row per session to w, scheduled and conflicting alike.
func WriteCSV(w io.Writer, result *engine.Result) error {
	cw := csv.NewWriter(w)
	header := []string{"plan_id", "patient_id", "therapist_id", "therapy", "phase", "day", "scheduled", "date", "start", "end", "conflict_reason"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, plan := range result.Plans {
		for _, s := range plan.Sessions {
			rec := []string{
				plan.PlanID,
				plan.PatientID,
				plan.TherapistID,
				s.TherapyName,
				string(s.PhaseName),
				strconv.Itoa(s.DayNumber),
				strconv.FormatBool(s.Scheduled),
				formatDate(s.Date),
				formatClock(s.StartTime),
				formatClock(s.EndTime),
				s.ConflictReason,
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("15:04")
}
