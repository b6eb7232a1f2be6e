package scheduling

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ayurmitra/scheduler/core/engine"
	"github.com/ayurmitra/scheduler/core/model"
)

type fakeService struct {
	result        *engine.Result
	err           error
	consultations []model.Consultation
	gotReq        engine.Request
}

func (f *fakeService) Schedule(_ context.Context, req engine.Request) (*engine.Result, error) {
	f.gotReq = req
	return f.result, f.err
}

func (f *fakeService) DailySchedule(context.Context, string, time.Time) ([]model.Consultation, error) {
	return f.consultations, f.err
}

func TestScheduleHandler(t *testing.T) {
	svc := &fakeService{result: &engine.Result{RunID: "run-1", ScheduledCount: 3}}
	h := NewScheduleHandler(svc, "")

	req := httptest.NewRequest(http.MethodPost, "/api/schedule", strings.NewReader(`{"plan_ids":["plan-1"],"force":true}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"run_id":"run-1"`) {
		t.Fatalf("missing run id in body: %s", rec.Body.String())
	}
	if len(svc.gotReq.PlanIDs) != 1 || svc.gotReq.PlanIDs[0] != "plan-1" || !svc.gotReq.Force {
		t.Fatalf("unexpected request forwarded: %+v", svc.gotReq)
	}
}

func TestScheduleHandlerErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"no plans", engine.ErrNoPlans, http.StatusBadRequest},
		{"not found", engine.ErrPlanNotFound, http.StatusNotFound},
		{"already scheduled", engine.ErrAlreadyScheduled, http.StatusConflict},
		{"not ready", model.ErrPlanNotReady, http.StatusConflict},
	}
	for _, c := range cases {
		svc := &fakeService{err: c.err}
		h := NewScheduleHandler(svc, "")
		req := httptest.NewRequest(http.MethodPost, "/api/schedule", strings.NewReader(`{"plan_ids":["p1"]}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != c.want {
			t.Errorf("%s: status %d, want %d", c.name, rec.Code, c.want)
		}
	}
}

func TestScheduleHandlerAuth(t *testing.T) {
	svc := &fakeService{result: &engine.Result{}}
	h := NewScheduleHandler(svc, "secret")

	req := httptest.NewRequest(http.MethodPost, "/api/schedule", strings.NewReader(`{"plan_ids":["p1"]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/schedule", strings.NewReader(`{"plan_ids":["p1"]}`))
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
}

func TestScheduleHandlerRejectsGet(t *testing.T) {
	h := NewScheduleHandler(&fakeService{}, "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedule", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestAgendaHandler(t *testing.T) {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	svc := &fakeService{consultations: []model.Consultation{{
		ID: "c-1", TherapistID: "th-1", ScheduledAt: start, EndTime: start.Add(time.Hour),
	}}}
	h := NewAgendaHandler(svc, "")

	req := httptest.NewRequest(http.MethodGet, "/api/agenda?therapist_id=th-1&date=2026-01-05", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"c-1"`) {
		t.Fatalf("missing consultation in body: %s", rec.Body.String())
	}
}

func TestAgendaHandlerValidation(t *testing.T) {
	h := NewAgendaHandler(&fakeService{}, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/agenda", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without therapist_id, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/agenda?therapist_id=th-1&date=05/01/2026", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}
}
