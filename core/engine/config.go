package engine

import "fmt"

// CostWeights are the multipliers of the slot cost function. RequiredDay is
// scaled by RequiredDayUnitCost per day of deviation, which keeps off-day
// slots from ever beating an on-day slot.
type CostWeights struct {
	RequiredDay       float64 `json:"required_day"`
	Makespan          float64 `json:"makespan"`
	PatientPreference float64 `json:"patient_preference"`
	TherapyPreference float64 `json:"therapy_preference"`
	IdleTime          float64 `json:"idle_time"`
	Workload          float64 `json:"workload"`
	Frequency         float64 `json:"frequency"`

	RequiredDayUnitCost float64 `json:"required_day_unit_cost"`
}

// GAConfig drives the genetic-algorithm refinement stage.
type GAConfig struct {
	PopulationSize        int     `json:"population_size"`
	MaxGenerations        int     `json:"max_generations"`
	MutationRate          float64 `json:"mutation_rate"`
	CrossoverRate         float64 `json:"crossover_rate"`
	EliteSize             int     `json:"elite_size"`
	TournamentSize        int     `json:"tournament_size"`
	LocalSearchIterations int     `json:"local_search_iterations"`
	StagnationLimit       int     `json:"stagnation_limit"`

	// MinSessions is the scheduled-session count below which refinement is
	// skipped; small batches are already well served by the greedy pass.
	MinSessions int `json:"min_sessions"`

	// Seed fixes the random source when non-zero, for reproducible runs.
	Seed int64 `json:"seed"`
}

// FitnessWeights blend the refiner's quality terms.
type FitnessWeights struct {
	Cost            float64 `json:"cost"`
	Utilization     float64 `json:"utilization"`
	PreferenceMatch float64 `json:"preference_match"`
	Compactness     float64 `json:"compactness"`

	RequiredDayPenaltyPerDay float64 `json:"required_day_penalty_per_day"`
	PhaseBoundPenaltyPerDay  float64 `json:"phase_bound_penalty_per_day"`
}

// Config defines engine-wide settings. All weights are configuration, not
// constants: the shipped defaults come from the production calibration but
// can be overridden per deployment.
type Config struct {
	SlotMinutes           int `json:"slot_minutes"`
	HorizonDays           int `json:"horizon_days"`
	MaxBatchSize          int `json:"max_batch_size"`
	DefaultFlexDays       int `json:"default_flex_days"`
	DefaultDurationMin    int `json:"default_duration_minutes"`
	DefaultBufferMin      int `json:"default_buffer_minutes"`
	FastingCutoffMinutes  int `json:"fasting_cutoff_minutes"`
	SpecificTimeTolerance int `json:"specific_time_tolerance_minutes"`

	Weights CostWeights    `json:"weights"`
	GA      GAConfig       `json:"ga"`
	Fitness FitnessWeights `json:"fitness"`
}

// SetDefaults fills zero values with the production defaults.
func (c *Config) SetDefaults() {
	if c.SlotMinutes == 0 {
		c.SlotMinutes = 30
	}
	if c.HorizonDays == 0 {
		c.HorizonDays = 90
	}
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = 50
	}
	if c.DefaultFlexDays == 0 {
		c.DefaultFlexDays = 2
	}
	if c.DefaultDurationMin == 0 {
		c.DefaultDurationMin = 60
	}
	if c.DefaultBufferMin == 0 {
		c.DefaultBufferMin = 15
	}
	if c.FastingCutoffMinutes == 0 {
		c.FastingCutoffMinutes = 10 * 60
	}
	if c.SpecificTimeTolerance == 0 {
		c.SpecificTimeTolerance = 30
	}

	w := &c.Weights
	if w.RequiredDay == 0 {
		w.RequiredDay = 10.0
	}
	if w.Makespan == 0 {
		w.Makespan = 0.3
	}
	if w.PatientPreference == 0 {
		w.PatientPreference = 0.25
	}
	if w.TherapyPreference == 0 {
		w.TherapyPreference = 0.15
	}
	if w.IdleTime == 0 {
		w.IdleTime = 0.15
	}
	if w.Workload == 0 {
		w.Workload = 0.10
	}
	if w.Frequency == 0 {
		w.Frequency = 0.05
	}
	if w.RequiredDayUnitCost == 0 {
		w.RequiredDayUnitCost = 10000
	}

	g := &c.GA
	if g.PopulationSize == 0 {
		g.PopulationSize = 20
	}
	if g.MaxGenerations == 0 {
		g.MaxGenerations = 100
	}
	if g.MutationRate == 0 {
		g.MutationRate = 0.15
	}
	if g.CrossoverRate == 0 {
		g.CrossoverRate = 0.8
	}
	if g.EliteSize == 0 {
		g.EliteSize = 2
	}
	if g.TournamentSize == 0 {
		g.TournamentSize = 3
	}
	if g.LocalSearchIterations == 0 {
		g.LocalSearchIterations = 50
	}
	if g.StagnationLimit == 0 {
		g.StagnationLimit = 10
	}
	if g.MinSessions == 0 {
		g.MinSessions = 10
	}

	f := &c.Fitness
	if f.Cost == 0 {
		f.Cost = 0.4
	}
	if f.Utilization == 0 {
		f.Utilization = 0.3
	}
	if f.PreferenceMatch == 0 {
		f.PreferenceMatch = 0.2
	}
	if f.Compactness == 0 {
		f.Compactness = 0.1
	}
	if f.RequiredDayPenaltyPerDay == 0 {
		f.RequiredDayPenaltyPerDay = 50
	}
	if f.PhaseBoundPenaltyPerDay == 0 {
		f.PhaseBoundPenaltyPerDay = 100
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.SlotMinutes <= 0 || 24*60%c.SlotMinutes != 0 {
		return fmt.Errorf("slot_minutes must be a positive divisor of a day, got %d", c.SlotMinutes)
	}
	if c.HorizonDays <= 0 {
		return fmt.Errorf("horizon_days must be positive, got %d", c.HorizonDays)
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("max_batch_size must be positive, got %d", c.MaxBatchSize)
	}
	if c.GA.PopulationSize < 2 {
		return fmt.Errorf("ga population_size must be at least 2, got %d", c.GA.PopulationSize)
	}
	if c.GA.EliteSize >= c.GA.PopulationSize {
		return fmt.Errorf("ga elite_size %d must be smaller than population_size %d", c.GA.EliteSize, c.GA.PopulationSize)
	}
	if c.GA.MutationRate < 0 || c.GA.MutationRate > 1 {
		return fmt.Errorf("ga mutation_rate must be within [0,1], got %f", c.GA.MutationRate)
	}
	if c.GA.CrossoverRate < 0 || c.GA.CrossoverRate > 1 {
		return fmt.Errorf("ga crossover_rate must be within [0,1], got %f", c.GA.CrossoverRate)
	}
	if c.GA.TournamentSize < 1 {
		return fmt.Errorf("ga tournament_size must be positive, got %d", c.GA.TournamentSize)
	}
	return nil
}

// DefaultConfig returns a Config populated with the production defaults.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}
