// Package scheduling exposes the scheduling service over HTTP.
package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayurmitra/scheduler/core/engine"
	"github.com/ayurmitra/scheduler/core/model"
)

// Scheduler is the service surface the handlers need.
type Scheduler interface {
	Schedule(ctx context.Context, req engine.Request) (*engine.Result, error)
	DailySchedule(ctx context.Context, therapistID string, day time.Time) ([]model.Consultation, error)
}

// ScheduleRequest is the POST /api/schedule body.
type ScheduleRequest struct {
	PlanIDs []string `json:"plan_ids"`
	Force   bool     `json:"force"`
}

// NewScheduleHandler returns an HTTP handler running scheduling batches via
// POST /api/schedule. Requests must include "Bearer <token>" in the
// Authorization header when token is non-empty.
func NewScheduleHandler(svc Scheduler, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req ScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		result, err := svc.Schedule(r.Context(), engine.Request{PlanIDs: req.PlanIDs, Force: req.Force})
		if err != nil {
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

// NewAgendaHandler returns an HTTP handler exposing a therapist's day via
// GET /api/agenda?therapist_id=...&date=YYYY-MM-DD.
func NewAgendaHandler(svc Scheduler, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !authorized(r, token) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		therapistID := r.URL.Query().Get("therapist_id")
		if therapistID == "" {
			http.Error(w, "therapist_id is required", http.StatusBadRequest)
			return
		}
		day := time.Now()
		if s := r.URL.Query().Get("date"); s != "" {
			parsed, err := time.Parse("2006-01-02", s)
			if err != nil {
				http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			day = parsed
		}
		consultations, err := svc.DailySchedule(r.Context(), therapistID, day)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(consultations); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}

func authorized(r *http.Request, token string) bool {
	if token == "" {
		return true
	}
	return r.Header.Get("Authorization") == "Bearer "+token
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNoPlans), errors.Is(err, engine.ErrBatchTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrPlanNotFound),
		errors.Is(err, engine.ErrTherapyNotFound),
		errors.Is(err, engine.ErrTherapistNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrAlreadyScheduled), errors.Is(err, model.ErrPlanNotReady):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
