package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ayurmitra/scheduler/core/model"
	corestore "github.com/ayurmitra/scheduler/core/store"
)

// Schema creates the tables the PostgresStore expects. Plans, therapists
// and therapies are stored as documents; consultations are relational so
// busy-interval and daily-schedule queries stay indexable.
const Schema = `
CREATE TABLE IF NOT EXISTS treatment_plans (
	id TEXT PRIMARY KEY,
	doc JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS therapists (
	id TEXT PRIMARY KEY,
	doc JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS therapies (
	id TEXT PRIMARY KEY,
	doc JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS consultations (
	id TEXT PRIMARY KEY,
	plan_id TEXT NOT NULL,
	patient_id TEXT NOT NULL,
	therapist_id TEXT NOT NULL,
	therapy_id TEXT NOT NULL,
	therapy_name TEXT NOT NULL DEFAULT '',
	therapy_type TEXT NOT NULL DEFAULT '',
	phase_name TEXT NOT NULL DEFAULT '',
	phase_sequence INT NOT NULL DEFAULT 0,
	day_number INT NOT NULL DEFAULT 0,
	session_number INT NOT NULL DEFAULT 0,
	session_in_therapy INT NOT NULL DEFAULT 0,
	total_in_therapy INT NOT NULL DEFAULT 0,
	scheduled_at TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ NOT NULL,
	duration_minutes INT NOT NULL,
	status TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_consultations_therapist_day
	ON consultations (therapist_id, scheduled_at);
CREATE INDEX IF NOT EXISTS idx_consultations_patient
	ON consultations (patient_id, scheduled_at);
`

// PostgresStore implements core/store.Store on PostgreSQL via sqlx.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Open connects to PostgreSQL and applies the schema.
func Open(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error { return s.db.Close() }

// PutPlan upserts a treatment plan document.
func (s *PostgresStore) PutPlan(ctx context.Context, p model.TreatmentPlan) error {
	return s.putDoc(ctx, "treatment_plans", p.ID, p)
}

// PutTherapist upserts a therapist document.
func (s *PostgresStore) PutTherapist(ctx context.Context, t model.Therapist) error {
	return s.putDoc(ctx, "therapists", t.ID, t)
}

// PutTherapy upserts a therapy document.
func (s *PostgresStore) PutTherapy(ctx context.Context, t model.Therapy) error {
	return s.putDoc(ctx, "therapies", t.ID, t)
}

func (s *PostgresStore) putDoc(ctx context.Context, table, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", table, id, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, doc) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc`, table)
	if _, err := s.db.ExecContext(ctx, query, id, data); err != nil {
		return fmt.Errorf("upsert %s %s: %w", table, id, err)
	}
	return nil
}

// Plans implements core/store.PlanSource.
func (s *PostgresStore) Plans(ctx context.Context, ids []string) ([]model.TreatmentPlan, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT doc FROM treatment_plans WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var out []model.TreatmentPlan
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var p model.TreatmentPlan
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, fmt.Errorf("decode plan: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Therapists implements core/store.TherapistSource.
func (s *PostgresStore) Therapists(ctx context.Context, ids []string) (map[string]model.Therapist, error) {
	out := make(map[string]model.Therapist)
	err := s.readDocs(ctx, "therapists", ids, func(doc []byte) error {
		var t model.Therapist
		if err := json.Unmarshal(doc, &t); err != nil {
			return err
		}
		out[t.ID] = t
		return nil
	})
	return out, err
}

// Therapies implements core/store.TherapySource.
func (s *PostgresStore) Therapies(ctx context.Context, ids []string) (map[string]model.Therapy, error) {
	out := make(map[string]model.Therapy)
	err := s.readDocs(ctx, "therapies", ids, func(doc []byte) error {
		var t model.Therapy
		if err := json.Unmarshal(doc, &t); err != nil {
			return err
		}
		out[t.ID] = t
		return nil
	})
	return out, err
}

func (s *PostgresStore) readDocs(ctx context.Context, table string, ids []string, decode func([]byte) error) error {
	query := fmt.Sprintf(`SELECT doc FROM %s WHERE id = ANY($1)`, table)
	rows, err := s.db.QueryxContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return err
		}
		if err := decode(doc); err != nil {
			return fmt.Errorf("decode %s row: %w", table, err)
		}
	}
	return rows.Err()
}

// Busy implements core/store.BookingSource over the consultations table.
func (s *PostgresStore) Busy(ctx context.Context, therapistIDs, patientIDs []string, from time.Time) (corestore.BusyIntervals, corestore.BusyIntervals, error) {
	therapists, err := s.busyBy(ctx, "therapist_id", therapistIDs, from)
	if err != nil {
		return nil, nil, err
	}
	patients, err := s.busyBy(ctx, "patient_id", patientIDs, from)
	if err != nil {
		return nil, nil, err
	}
	return therapists, patients, nil
}

func (s *PostgresStore) busyBy(ctx context.Context, column string, ids []string, from time.Time) (corestore.BusyIntervals, error) {
	query := fmt.Sprintf(`SELECT %s, scheduled_at, end_time FROM consultations
		WHERE %s = ANY($1) AND status <> $2 AND end_time >= $3`, column, column)
	rows, err := s.db.QueryxContext(ctx, query, pq.Array(ids), model.ConsultationCancelled, from)
	if err != nil {
		return nil, fmt.Errorf("query busy intervals: %w", err)
	}
	defer rows.Close()

	out := make(corestore.BusyIntervals)
	for rows.Next() {
		var id string
		var start, end time.Time
		if err := rows.Scan(&id, &start, &end); err != nil {
			return nil, err
		}
		out[id] = append(out[id], model.Interval{Start: start, End: end})
	}
	return out, rows.Err()
}

// SaveSchedule implements core/store.ConsultationStore inside a single
// transaction: consultation inserts and plan updates commit or roll back
// together.
func (s *PostgresStore) SaveSchedule(ctx context.Context, consultations []model.Consultation, updates []model.PlanUpdate) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const insert = `INSERT INTO consultations (
		id, plan_id, patient_id, therapist_id, therapy_id, therapy_name, therapy_type,
		phase_name, phase_sequence, day_number, session_number, session_in_therapy,
		total_in_therapy, scheduled_at, end_time, duration_minutes, status, notes, created_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`
	for _, c := range consultations {
		if _, err := tx.ExecContext(ctx, insert,
			c.ID, c.PlanID, c.PatientID, c.TherapistID, c.TherapyID, c.TherapyName, c.TherapyType,
			c.PhaseName, c.PhaseSequence, c.DayNumber, c.SessionNumber, c.SessionInTherapy,
			c.TotalSessionsInTherapy, c.ScheduledAt, c.EndTime, c.DurationMinutes, c.Status, c.Notes, c.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert consultation %s: %w", c.ID, err)
		}
	}

	for _, u := range updates {
		if err := s.applyPlanUpdate(ctx, tx, u); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (s *PostgresStore) applyPlanUpdate(ctx context.Context, tx *sqlx.Tx, u model.PlanUpdate) error {
	var doc []byte
	err := tx.QueryRowxContext(ctx,
		`SELECT doc FROM treatment_plans WHERE id = $1 FOR UPDATE`, u.PlanID).Scan(&doc)
	if err == sql.ErrNoRows {
		return fmt.Errorf("plan %s not found", u.PlanID)
	}
	if err != nil {
		return fmt.Errorf("lock plan %s: %w", u.PlanID, err)
	}

	var p model.TreatmentPlan
	if err := json.Unmarshal(doc, &p); err != nil {
		return fmt.Errorf("decode plan %s: %w", u.PlanID, err)
	}
	p.GeneratedSessions = u.GeneratedSessions
	p.SchedulingStatus = u.Status
	meta := u.Metadata
	p.SchedulingMetadata = &meta

	updated, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode plan %s: %w", u.PlanID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE treatment_plans SET doc = $2 WHERE id = $1`, u.PlanID, updated); err != nil {
		return fmt.Errorf("update plan %s: %w", u.PlanID, err)
	}
	return nil
}

// DailySchedule implements core/store.ConsultationStore.
func (s *PostgresStore) DailySchedule(ctx context.Context, therapistID string, day time.Time) ([]model.Consultation, error) {
	start := model.DateOnly(day)
	end := start.AddDate(0, 0, 1)
	rows, err := s.db.QueryxContext(ctx, `SELECT
			id, plan_id, patient_id, therapist_id, therapy_id, therapy_name, therapy_type,
			phase_name, phase_sequence, day_number, session_number, session_in_therapy,
			total_in_therapy, scheduled_at, end_time, duration_minutes, status, notes, created_at
		FROM consultations
		WHERE therapist_id = $1 AND status <> $2 AND scheduled_at >= $3 AND scheduled_at < $4
		ORDER BY scheduled_at`, therapistID, model.ConsultationCancelled, start, end)
	if err != nil {
		return nil, fmt.Errorf("query daily schedule: %w", err)
	}
	defer rows.Close()

	var out []model.Consultation
	for rows.Next() {
		var c model.Consultation
		if err := rows.Scan(
			&c.ID, &c.PlanID, &c.PatientID, &c.TherapistID, &c.TherapyID, &c.TherapyName, &c.TherapyType,
			&c.PhaseName, &c.PhaseSequence, &c.DayNumber, &c.SessionNumber, &c.SessionInTherapy,
			&c.TotalSessionsInTherapy, &c.ScheduledAt, &c.EndTime, &c.DurationMinutes, &c.Status, &c.Notes, &c.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
