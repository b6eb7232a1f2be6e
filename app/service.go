// Package app assembles the scheduling service from its configuration:
// store, metrics sinks, MQTT publisher and the engine itself.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ayurmitra/scheduler/config"
	"github.com/ayurmitra/scheduler/core/engine"
	"github.com/ayurmitra/scheduler/core/model"
	corestore "github.com/ayurmitra/scheduler/core/store"
	"github.com/ayurmitra/scheduler/infra/his"
	"github.com/ayurmitra/scheduler/infra/logger"
	"github.com/ayurmitra/scheduler/infra/metrics"
	"github.com/ayurmitra/scheduler/infra/mqtt"
	"github.com/ayurmitra/scheduler/infra/store"
	"github.com/ayurmitra/scheduler/internal/eventbus"
)

// Service wires the engine to its infrastructure and forwards run results
// to the hospital message bus.
type Service struct {
	Engine *engine.Engine
	Store  corestore.Store

	bus       *eventbus.Bus[*engine.Result]
	events    <-chan *engine.Result
	done      chan struct{}
	publisher mqtt.Publisher
	notifier  *his.Notifier
	log       logger.Logger
	closeFns  []func()
}

// Seed is the JSON fixture format accepted by the memory backend.
type Seed struct {
	Plans      []model.TreatmentPlan `json:"plans"`
	Therapists []model.Therapist     `json:"therapists"`
	Therapies  []model.Therapy       `json:"therapies"`
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	cfg.Logging.Apply()
	logg := logger.New("service")

	st, closeStore, err := buildStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	sink, err := metrics.NewSink(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT.Client)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		publisher = pub
	}

	var notifier *his.Notifier
	if cfg.HIS.Enabled {
		notifier = his.New(cfg.HIS, logger.New("his"))
	}

	eng, err := engine.New(cfg.Engine, st, logger.New("engine"), sink)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		Engine:    eng,
		Store:     st,
		bus:       eventbus.New[*engine.Result](8),
		done:      make(chan struct{}),
		publisher: publisher,
		notifier:  notifier,
		log:       logg,
	}
	if closeStore != nil {
		svc.closeFns = append(svc.closeFns, closeStore)
	}
	svc.events = svc.bus.Subscribe()
	go svc.forwardEvents()
	return svc, nil
}

func buildStore(cfg config.StoreConfig) (corestore.Store, func(), error) {
	switch cfg.Backend {
	case "postgres":
		pg, err := store.Open(cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres store: %w", err)
		}
		return pg, func() { _ = pg.Close() }, nil
	default:
		mem := store.NewMemoryStore()
		if cfg.SeedFile != "" {
			if err := loadSeed(mem, cfg.SeedFile); err != nil {
				return nil, nil, fmt.Errorf("seed store: %w", err)
			}
		}
		return mem, nil, nil
	}
}

func loadSeed(mem *store.MemoryStore, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for _, p := range seed.Plans {
		mem.PutPlan(p)
	}
	for _, t := range seed.Therapists {
		mem.PutTherapist(t)
	}
	for _, t := range seed.Therapies {
		mem.PutTherapy(t)
	}
	return nil
}

// Schedule runs the engine for the given plans and queues the result for
// publication. Publishing is asynchronous so a slow broker never delays
// the caller.
func (s *Service) Schedule(ctx context.Context, req engine.Request) (*engine.Result, error) {
	result, err := s.Engine.Schedule(ctx, req)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(result)
	return result, nil
}

// DailySchedule lists a therapist's consultations on the given day.
func (s *Service) DailySchedule(ctx context.Context, therapistID string, day time.Time) ([]model.Consultation, error) {
	return s.Store.DailySchedule(ctx, therapistID, day)
}

func (s *Service) forwardEvents() {
	defer close(s.done)
	for result := range s.events {
		ev := mqtt.RunEvent{
			RunID:          result.RunID,
			Algorithm:      result.AlgorithmUsed,
			Plans:          len(result.Plans),
			TotalSessions:  result.TotalSessions,
			ScheduledCount: result.ScheduledCount,
			ConflictCount:  result.ConflictCount,
			SuccessRate:    result.SuccessRate,
			CompletedAt:    time.Now(),
		}
		if err := s.publisher.PublishRun(ev); err != nil {
			s.log.Errorf("publish run %s: %v", result.RunID, err)
		}
		for _, plan := range result.Plans {
			pe := mqtt.PlanEvent{
				RunID:     result.RunID,
				PlanID:    plan.PlanID,
				PatientID: plan.PatientID,
				Status:    string(plan.Status),
				Scheduled: plan.ScheduledCount,
				Conflicts: plan.ConflictCount,
				FirstDate: plan.FirstDate,
				LastDate:  plan.LastDate,
			}
			if err := s.publisher.PublishPlan(pe); err != nil {
				s.log.Errorf("publish plan %s: %v", plan.PlanID, err)
			}
		}
		if err := s.notifier.NotifyRun(context.Background(), result); err != nil {
			s.log.Errorf("notify hospital system for run %s: %v", result.RunID, err)
		}
	}
}

// Close flushes pending events and releases held resources.
func (s *Service) Close() {
	s.bus.Close()
	<-s.done
	s.publisher.Close()
	for _, fn := range s.closeFns {
		fn()
	}
}
