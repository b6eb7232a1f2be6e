// Package engine implements the three-stage Panchakarma scheduling
// pipeline: constraint filtering over a candidate slot grid, cost-ranked
// greedy assignment, and genetic refinement for large multi-plan batches.
// The engine computes over an in-memory snapshot fetched up front and
// persists its output in one transactional write at the end.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayurmitra/scheduler/core/logger"
	"github.com/ayurmitra/scheduler/core/metrics"
	"github.com/ayurmitra/scheduler/core/model"
	"github.com/ayurmitra/scheduler/core/store"
)

const (
	// AlgorithmGreedy labels runs decided by the greedy pass alone.
	AlgorithmGreedy = "cp-greedy"
	// AlgorithmRefined labels runs that went through genetic refinement.
	AlgorithmRefined = "cp-greedy-ga"
)

var (
	// ErrNoPlans rejects an empty request.
	ErrNoPlans = errors.New("no plan IDs given")
	// ErrBatchTooLarge bounds GA worst-case runtime.
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
	// ErrAlreadyScheduled rejects rescheduling a scheduled plan without the
	// force flag.
	ErrAlreadyScheduled = errors.New("plan already scheduled")
	// ErrPlanNotFound indicates a requested plan ID did not resolve.
	ErrPlanNotFound = errors.New("treatment plan not found")
)

// Request asks for one scheduling run over a batch of plans.
type Request struct {
	PlanIDs []string
	// Force allows rescheduling plans that are already scheduled or
	// approved; their previous generated sessions are replaced.
	Force bool
	// Now overrides the engine clock, for reproducible tests. Zero means
	// wall clock.
	Now time.Time
}

// Engine runs the scheduling pipeline. It is stateless across runs; every
// run operates on a snapshot taken at fetch time, so concurrent runs
// against the same therapist are not serialized here.
type Engine struct {
	cfg  Config
	st   store.Store
	log  logger.Logger
	sink metrics.MetricsSink
}

// New builds an Engine. Zero config fields are filled with defaults; an
// invalid config is rejected.
func New(cfg Config, st store.Store, log logger.Logger, sink metrics.MetricsSink) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Engine{cfg: cfg, st: st, log: log, sink: sink}, nil
}

// Schedule executes one full run: fetch, build, filter, assign, refine,
// validate, materialize, persist. Per-session conflicts are reported in the
// result, not returned as errors; only precondition and master-data
// failures abort the run.
func (e *Engine) Schedule(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	now := req.Now
	if now.IsZero() {
		now = started
	}
	runID := uuid.NewString()

	plans, err := e.fetchPlans(ctx, req)
	if err != nil {
		return nil, err
	}
	e.log.Infof("scheduling run %s started: %d plans", runID, len(plans))

	therapies, therapists, therapistBusy, patientBusy, err := e.fetchMasterData(ctx, plans)
	if err != nil {
		return nil, err
	}

	m, err := newModelBuilder(e.cfg, e.log).Build(plans, therapies, therapists, therapistBusy, patientBusy)
	if err != nil {
		return nil, err
	}

	grid := buildSlotGrid(e.cfg, m)
	feas := newFeasibilityFilter(e.cfg, e.log, grid).Filter(m)
	sched, ranked := newGreedyAssigner(e.cfg, e.log).Assign(m, feas)

	algorithm := AlgorithmGreedy
	if r := newRefiner(e.cfg, e.log); r.shouldRefine(m, sched) {
		sched = r.Refine(m, sched, ranked)
		algorithm = AlgorithmRefined
	}

	warnings := validateSchedule(m, sched, e.log)

	mz := newMaterializer(e.cfg, e.log)
	mz.now = func() time.Time { return now }
	consultations, updates, result := mz.Materialize(m, sched, runID, algorithm, warnings, time.Since(started))

	if err := e.st.SaveSchedule(ctx, consultations, updates); err != nil {
		return nil, fmt.Errorf("persist schedule: %w", err)
	}

	e.record(result, now)
	e.log.Infof("scheduling run %s done: %d/%d sessions placed in %s",
		runID, result.ScheduledCount, result.TotalSessions, result.Duration.Round(time.Millisecond))
	return result, nil
}

// fetchPlans resolves and precondition-checks the requested plans. Repeated
// IDs collapse to one occurrence so a sloppy request cannot expand the same
// plan twice.
func (e *Engine) fetchPlans(ctx context.Context, req Request) ([]model.TreatmentPlan, error) {
	planIDs := make([]string, 0, len(req.PlanIDs))
	seen := make(map[string]bool, len(req.PlanIDs))
	for _, id := range req.PlanIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		planIDs = append(planIDs, id)
	}
	if len(planIDs) == 0 {
		return nil, ErrNoPlans
	}
	if len(planIDs) > e.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d plans, maximum %d", ErrBatchTooLarge, len(planIDs), e.cfg.MaxBatchSize)
	}

	plans, err := e.st.Plans(ctx, planIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch plans: %w", err)
	}
	byID := make(map[string]bool, len(plans))
	for _, p := range plans {
		byID[p.ID] = true
	}
	for _, id := range planIDs {
		if !byID[id] {
			return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
		}
	}

	for _, p := range plans {
		if err := p.Ready(); err != nil {
			return nil, err
		}
		switch p.SchedulingStatus {
		case model.StatusScheduled, model.StatusApproved:
			if !req.Force {
				return nil, fmt.Errorf("%w: plan %s is %s", ErrAlreadyScheduled, p.ID, p.SchedulingStatus)
			}
		}
	}
	return plans, nil
}

func (e *Engine) fetchMasterData(ctx context.Context, plans []model.TreatmentPlan) (map[string]model.Therapy, map[string]model.Therapist, store.BusyIntervals, store.BusyIntervals, error) {
	therapyIDs := make(map[string]bool)
	therapistIDs := make(map[string]bool)
	patientIDs := make(map[string]bool)
	var earliest time.Time
	for _, p := range plans {
		therapistIDs[p.TherapistID] = true
		patientIDs[p.PatientID] = true
		for _, ph := range p.Phases {
			for _, ts := range ph.TherapySessions {
				therapyIDs[ts.TherapyID] = true
			}
		}
		if start := model.DateOnly(p.Preferences.StartDate); earliest.IsZero() || start.Before(earliest) {
			earliest = start
		}
	}

	therapies, err := e.st.Therapies(ctx, keys(therapyIDs))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("fetch therapies: %w", err)
	}
	therapists, err := e.st.Therapists(ctx, keys(therapistIDs))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("fetch therapists: %w", err)
	}
	therapistBusy, patientBusy, err := e.st.Busy(ctx, keys(therapistIDs), keys(patientIDs), earliest)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("fetch bookings: %w", err)
	}
	return therapies, therapists, therapistBusy, patientBusy, nil
}

func (e *Engine) record(result *Result, now time.Time) {
	run := metrics.RunResult{
		RunID:         result.RunID,
		Plans:         len(result.Plans),
		TotalSessions: result.TotalSessions,
		Scheduled:     result.ScheduledCount,
		Conflicted:    result.ConflictCount,
		SuccessRate:   result.SuccessRate,
		Algorithm:     result.AlgorithmUsed,
		Duration:      result.Duration,
		Time:          now,
	}
	if err := e.sink.RecordRun(run); err != nil {
		e.log.Warnf("record run metrics: %v", err)
	}
	for _, p := range result.Plans {
		pr := metrics.PlanResult{
			RunID:             result.RunID,
			PlanID:            p.PlanID,
			TherapistID:       p.TherapistID,
			TotalSessions:     p.TotalSessions,
			Scheduled:         p.ScheduledCount,
			Conflicted:        p.ConflictCount,
			OptimizationScore: p.OptimizationScore,
			Time:              now,
		}
		if err := e.sink.RecordPlan(pr); err != nil {
			e.log.Warnf("record plan metrics: %v", err)
		}
	}
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
