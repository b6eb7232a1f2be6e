package engine

import (
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ayurmitra/scheduler/core/logger"
	"github.com/ayurmitra/scheduler/core/model"
)

// lostSessionPenalty is charged per session the greedy pass placed but a
// chromosome failed to keep. It guarantees refinement never trades a placed
// session away for soft-score gains.
const lostSessionPenalty = 1000.0

// refiner improves a greedy schedule with a genetic algorithm plus periodic
// hill-climbing. Genes only ever draw from slots on the session's exact
// required-day date, so evolution cannot move a session across a phase
// boundary no matter how it recombines.
type refiner struct {
	cfg Config
	log logger.Logger
	rng *rand.Rand
}

func newRefiner(cfg Config, log logger.Logger) *refiner {
	seed := cfg.GA.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &refiner{cfg: cfg, log: log, rng: rand.New(rand.NewSource(seed))}
}

// shouldRefine gates the stage: single plans and small batches are already
// well served by the greedy pass.
func (r *refiner) shouldRefine(m *Model, sched *Schedule) bool {
	return len(m.Plans) > 1 && sched.ScheduledCount() >= r.cfg.GA.MinSessions
}

// gene is one scheduled session plus the slot indices evolution may pick
// from. Sessions greedily placed off their target day have no same-day
// alternatives and stay frozen on their current slot.
type gene struct {
	session *Session
	slots   []Slot // the session's cost-ranked feasible slots
	options []int  // indices into slots whose date is the required-day target
	initial int    // index of the greedy assignment
}

type individual struct {
	chrom   []int
	fitness float64
	decoded *Schedule
}

// Refine evolves the schedule and returns the better of the evolved best
// and the greedy input.
func (r *refiner) Refine(m *Model, sched *Schedule, ranked map[string][]Slot) *Schedule {
	genes := r.buildGenes(m, sched, ranked)
	if len(genes) == 0 {
		return sched
	}

	pop := r.initialPopulation(m, sched, genes)
	best := pop[0]
	stagnant := 0

	for genNum := 0; genNum < r.cfg.GA.MaxGenerations; genNum++ {
		next := make([]individual, 0, r.cfg.GA.PopulationSize)
		next = append(next, pop[:r.cfg.GA.EliteSize]...)

		for len(next) < r.cfg.GA.PopulationSize {
			p1 := r.tournament(pop)
			p2 := r.tournament(pop)
			child := r.crossover(p1.chrom, p2.chrom)
			r.mutate(child, genes)
			r.repair(child, genes)
			next = append(next, r.evaluate(m, sched, genes, child))
		}

		// Hill-climb the generation's elite every tenth generation.
		if genNum%10 == 9 {
			for i := 0; i < r.cfg.GA.EliteSize && i < len(next); i++ {
				next[i] = r.localSearch(m, sched, genes, next[i])
			}
		}

		sortByFitness(next)
		pop = next

		if pop[0].fitness > best.fitness {
			best = pop[0]
			stagnant = 0
		} else {
			stagnant++
			if stagnant >= r.cfg.GA.StagnationLimit {
				r.log.Debugf("refinement stagnated after %d generations", genNum+1)
				break
			}
		}
	}

	best = r.localSearch(m, sched, genes, best)

	greedy := r.evaluate(m, sched, genes, initialChromosome(genes))
	if best.fitness <= greedy.fitness || best.decoded.ScheduledCount() < sched.ScheduledCount() {
		r.log.Debugf("refinement kept greedy schedule (fitness %.1f vs %.1f)", greedy.fitness, best.fitness)
		return sched
	}
	r.log.Infof("refinement improved fitness %.1f -> %.1f", greedy.fitness, best.fitness)
	return best.decoded
}

func (r *refiner) buildGenes(m *Model, sched *Schedule, ranked map[string][]Slot) []gene {
	var genes []gene
	for _, s := range m.Sessions {
		a, ok := sched.Assignments[s.ID]
		if !ok {
			continue
		}
		slots := ranked[s.ID]
		initial := -1
		for i, slot := range slots {
			if slot.TherapistID == a.TherapistID && slot.Start.Equal(a.Start) {
				initial = i
				break
			}
		}
		if initial < 0 {
			continue
		}
		g := gene{session: s, slots: slots, initial: initial}
		target := s.TargetDate()
		for i, slot := range slots {
			if model.SameDate(slot.Date, target) {
				g.options = append(g.options, i)
			}
		}
		if len(g.options) == 0 {
			g.options = []int{initial}
		}
		genes = append(genes, g)
	}
	return genes
}

func initialChromosome(genes []gene) []int {
	chrom := make([]int, len(genes))
	for i, g := range genes {
		chrom[i] = g.initial
	}
	return chrom
}

func (r *refiner) initialPopulation(m *Model, sched *Schedule, genes []gene) []individual {
	pop := make([]individual, 0, r.cfg.GA.PopulationSize)
	pop = append(pop, r.evaluate(m, sched, genes, initialChromosome(genes)))
	for len(pop) < r.cfg.GA.PopulationSize {
		chrom := initialChromosome(genes)
		r.mutate(chrom, genes)
		r.repair(chrom, genes)
		pop = append(pop, r.evaluate(m, sched, genes, chrom))
	}
	sortByFitness(pop)
	return pop
}

func (r *refiner) tournament(pop []individual) individual {
	best := pop[r.rng.Intn(len(pop))]
	for i := 1; i < r.cfg.GA.TournamentSize; i++ {
		c := pop[r.rng.Intn(len(pop))]
		if c.fitness > best.fitness {
			best = c
		}
	}
	return best
}

// crossover is uniform: each gene comes from either parent with equal
// probability when crossover fires, otherwise the child clones parent one.
func (r *refiner) crossover(p1, p2 []int) []int {
	child := make([]int, len(p1))
	copy(child, p1)
	if r.rng.Float64() >= r.cfg.GA.CrossoverRate {
		return child
	}
	for i := range child {
		if r.rng.Float64() < 0.5 {
			child[i] = p2[i]
		}
	}
	return child
}

func (r *refiner) mutate(chrom []int, genes []gene) {
	for i := range chrom {
		if len(genes[i].options) < 2 || r.rng.Float64() >= r.cfg.GA.MutationRate {
			continue
		}
		chrom[i] = genes[i].options[r.rng.Intn(len(genes[i].options))]
	}
}

// repair resolves therapist and patient double-bookings introduced by
// recombination: the later gene in model order loses and is moved to another
// free same-day option when one exists. Genes that cannot be repaired are
// left in place and pay the lost-session penalty at evaluation.
func (r *refiner) repair(chrom []int, genes []gene) {
	units := make(map[string]map[int64]bool)
	for i, g := range genes {
		if r.claimable(units, g, chrom[i]) {
			r.claimUnits(units, g, chrom[i])
			continue
		}
		for _, alt := range g.options {
			if alt != chrom[i] && r.claimable(units, g, alt) {
				chrom[i] = alt
				r.claimUnits(units, g, alt)
				break
			}
		}
	}
}

func (r *refiner) claimable(units map[string]map[int64]bool, g gene, idx int) bool {
	slot := g.slots[idx]
	end := slot.Start.Add(time.Duration(g.session.TotalMinutes()) * time.Minute)
	tk, pk := therapistKey(slot.TherapistID), patientKey(g.session.PatientID)
	for u := slot.Start; u.Before(end); u = u.Add(time.Duration(r.cfg.SlotMinutes) * time.Minute) {
		if units[tk][u.Unix()] || units[pk][u.Unix()] {
			return false
		}
	}
	return true
}

func (r *refiner) claimUnits(units map[string]map[int64]bool, g gene, idx int) {
	slot := g.slots[idx]
	end := slot.Start.Add(time.Duration(g.session.TotalMinutes()) * time.Minute)
	for _, key := range []string{therapistKey(slot.TherapistID), patientKey(g.session.PatientID)} {
		if units[key] == nil {
			units[key] = make(map[int64]bool)
		}
		for u := slot.Start; u.Before(end); u = u.Add(time.Duration(r.cfg.SlotMinutes) * time.Minute) {
			units[key][u.Unix()] = true
		}
	}
}

// evaluate decodes a chromosome into a schedule and scores it. Decoding
// claims units in model order; a gene whose slot is taken falls back to
// conflict, keeping decoded schedules always double-booking free.
func (r *refiner) evaluate(m *Model, base *Schedule, genes []gene, chrom []int) individual {
	decoded := NewSchedule()
	for id, reason := range base.Conflicts {
		decoded.Conflicts[id] = reason
	}

	units := make(map[string]map[int64]bool)
	lost := 0
	for i, g := range genes {
		if !r.claimable(units, g, chrom[i]) {
			decoded.Conflicts[g.session.ID] = ReasonSlotsClaimed
			lost++
			continue
		}
		r.claimUnits(units, g, chrom[i])
		slot := g.slots[chrom[i]]
		decoded.Assignments[g.session.ID] = Assignment{
			SessionID:   g.session.ID,
			TherapistID: slot.TherapistID,
			Date:        slot.Date,
			Start:       slot.Start,
			End:         slot.Start.Add(time.Duration(g.session.DurationMinutes) * time.Minute),
			Cost:        slot.Cost,
		}
	}

	return individual{
		chrom:   chrom,
		decoded: decoded,
		fitness: r.fitness(m, decoded) - float64(lost)*lostSessionPenalty,
	}
}

// fitness blends four 0-100 quality components and subtracts the day and
// phase penalties that keep evolution inside the hard invariants.
func (r *refiner) fitness(m *Model, sched *Schedule) float64 {
	if sched.ScheduledCount() == 0 {
		return 0
	}
	w := r.cfg.Fitness

	var (
		totalCost float64
		prefHits  int
		penalty   float64
		byPlan    = make(map[string][2]time.Time) // plan -> first, last date
		byTher    = make(map[string]float64)      // therapist -> booked minutes
	)
	for id, a := range sched.Assignments {
		s := m.Session(id)
		if s == nil {
			continue
		}
		totalCost += a.Cost

		bucket := model.TimeOfDayForHour(a.Start.Hour())
		if pref := s.PatientPreferredTime; pref == "" || pref == model.Flexible || pref == bucket {
			prefHits++
		}

		dayDev := model.DaysBetween(s.TargetDate(), a.Date)
		if dayDev < 0 {
			dayDev = -dayDev
		}
		penalty += float64(dayDev) * w.RequiredDayPenaltyPerDay

		day := model.DaysBetween(s.PlanStart, a.Date) + 1
		if day < s.PhaseStartDay {
			penalty += float64(s.PhaseStartDay-day) * w.PhaseBoundPenaltyPerDay
		} else if day > s.PhaseEndDay {
			penalty += float64(day-s.PhaseEndDay) * w.PhaseBoundPenaltyPerDay
		}

		span := byPlan[s.PlanID]
		if span[0].IsZero() || a.Date.Before(span[0]) {
			span[0] = a.Date
		}
		if span[1].IsZero() || a.Date.After(span[1]) {
			span[1] = a.Date
		}
		byPlan[s.PlanID] = span

		byTher[a.TherapistID] += float64(s.TotalMinutes())
	}

	n := float64(sched.ScheduledCount())
	costScore := 100 / (1 + totalCost/n/100)
	prefScore := 100 * float64(prefHits) / n
	utilScore := utilizationBalance(byTher)

	var compactScore float64
	if len(byPlan) > 0 {
		for planID, span := range byPlan {
			actual := float64(model.DaysBetween(span[0], span[1]) + 1)
			planned := 1.0
			for _, p := range m.Plans {
				if p.ID == planID {
					planned = float64(p.PlannedDays())
					break
				}
			}
			ratio := planned / actual
			if ratio > 1 {
				ratio = 1
			}
			compactScore += 100 * ratio
		}
		compactScore /= float64(len(byPlan))
	}

	return w.Cost*costScore + w.Utilization*utilScore + w.PreferenceMatch*prefScore + w.Compactness*compactScore - penalty
}

// utilizationBalance scores how evenly booked minutes spread across
// therapists: 100 when perfectly even, falling with the coefficient of
// variation.
func utilizationBalance(minutes map[string]float64) float64 {
	if len(minutes) < 2 {
		return 100
	}
	xs := make([]float64, 0, len(minutes))
	for _, v := range minutes {
		xs = append(xs, v)
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if mean == 0 {
		return 100
	}
	score := 100 * (1 - std/mean)
	if score < 0 {
		score = 0
	}
	return score
}

// localSearch hill-climbs one individual: random genes try each same-day
// alternative and keep the first improving swap.
func (r *refiner) localSearch(m *Model, base *Schedule, genes []gene, ind individual) individual {
	best := ind
	for i := 0; i < r.cfg.GA.LocalSearchIterations; i++ {
		gi := r.rng.Intn(len(genes))
		if len(genes[gi].options) < 2 {
			continue
		}
		for _, alt := range genes[gi].options {
			if alt == best.chrom[gi] {
				continue
			}
			chrom := make([]int, len(best.chrom))
			copy(chrom, best.chrom)
			chrom[gi] = alt
			if cand := r.evaluate(m, base, genes, chrom); cand.fitness > best.fitness {
				best = cand
				break
			}
		}
	}
	return best
}

func sortByFitness(pop []individual) {
	sort.SliceStable(pop, func(i, j int) bool { return pop[i].fitness > pop[j].fitness })
}
