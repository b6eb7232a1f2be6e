package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/ayurmitra/scheduler/core/engine"
	"github.com/ayurmitra/scheduler/core/model"
)

func sampleResult() *engine.Result {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	return &engine.Result{
		RunID: "run-1",
		Plans: []engine.PlanReport{{
			PlanID:      "plan-1",
			PatientID:   "pat-1",
			TherapistID: "th-1",
			Sessions: []engine.SessionOutcome{
				{
					SessionID: "s-1", TherapyName: "Abhyanga", PhaseName: model.Purvakarma,
					DayNumber: 1, Scheduled: true,
					Date: day, StartTime: day.Add(9 * time.Hour), EndTime: day.Add(10 * time.Hour),
				},
				{
					SessionID: "s-2", TherapyName: "Abhyanga", PhaseName: model.Purvakarma,
					DayNumber: 2, Scheduled: false, ConflictReason: "no feasible slot",
				},
			},
		}},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResult()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	scheduled := records[1]
	if scheduled[0] != "plan-1" || scheduled[6] != "true" || scheduled[7] != "2026-01-05" || scheduled[8] != "09:00" {
		t.Fatalf("unexpected scheduled row %v", scheduled)
	}
	conflict := records[2]
	if conflict[6] != "false" || conflict[7] != "" || conflict[10] != "no feasible slot" {
		t.Fatalf("unexpected conflict row %v", conflict)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"run_id": "run-1"`) || !strings.Contains(out, `"no feasible slot"`) {
		t.Fatalf("unexpected json output: %s", out)
	}
}
