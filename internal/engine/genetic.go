package engine

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/piwi3910/optimystic/internal/model"
	"github.com/piwi3910/optimystic/internal/templates"
)

// GeneticConfig holds parameters for the warm-start genetic search.
type GeneticConfig struct {
	PopulationSize int
	Generations    int
	MutationRate   float64
	TournamentSize int
	EliteCount     int
}

// DefaultGeneticConfig returns sensible default parameters.
func DefaultGeneticConfig() GeneticConfig {
	return GeneticConfig{
		PopulationSize: 50,
		Generations:    100,
		MutationRate:   0.15,
		TournamentSize: 3,
		EliteCount:     2,
	}
}

// chromosome is an ordering of pieces fed to the first-fit packer.
type chromosome struct {
	order   []int
	fitness float64 // Packing cost, or negated profit when maximizing; lower is better
}

type geneticOptimizer struct {
	config GeneticConfig
	params templates.CuttingParams
	pieces []templates.Piece
	rng    *rand.Rand
}

func newGeneticOptimizer(config GeneticConfig, params templates.CuttingParams, pieces []templates.Piece, seed int64) *geneticOptimizer {
	return &geneticOptimizer{
		config: config,
		params: params,
		pieces: pieces,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// optimize evolves piece orderings until the generations run out or ctx is
// done, and returns the cheapest packing found.
func (g *geneticOptimizer) optimize(ctx context.Context) (templates.Packing, bool) {
	population := g.initPopulation()
	for i := range population {
		population[i].fitness = g.evaluate(population[i])
	}

	for gen := 0; gen < g.config.Generations; gen++ {
		if ctx.Err() != nil {
			break
		}
		sort.SliceStable(population, func(i, j int) bool {
			return population[i].fitness < population[j].fitness
		})

		newPop := make([]chromosome, 0, g.config.PopulationSize)

		// Elitism: carry over the best individuals unchanged
		eliteCount := min(g.config.EliteCount, len(population))
		for i := 0; i < eliteCount; i++ {
			newPop = append(newPop, g.copyChromosome(population[i]))
		}

		for len(newPop) < g.config.PopulationSize {
			parent1 := g.tournamentSelect(population)
			parent2 := g.tournamentSelect(population)
			child := g.orderCrossover(parent1, parent2)
			g.mutate(&child)
			child.fitness = g.evaluate(child)
			newPop = append(newPop, child)
		}
		population = newPop
	}

	sort.SliceStable(population, func(i, j int) bool {
		return population[i].fitness < population[j].fitness
	})
	return templates.Pack(g.params, g.ordered(population[0]))
}

// initPopulation creates random orderings plus the longest-first one.
func (g *geneticOptimizer) initPopulation() []chromosome {
	n := len(g.pieces)
	population := make([]chromosome, g.config.PopulationSize)
	for i := range population {
		population[i] = chromosome{order: g.rng.Perm(n)}
	}
	if len(population) > 0 {
		population[0] = g.createGreedyChromosome()
	}
	return population
}

// createGreedyChromosome orders pieces longest first, the first-fit-decreasing order.
func (g *geneticOptimizer) createGreedyChromosome() chromosome {
	order := make([]int, len(g.pieces))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return g.pieces[order[i]].Length > g.pieces[order[j]].Length
	})
	return chromosome{order: order}
}

// evaluate packs the ordering and scores it by cost, or by lost profit when
// maximizing, breaking ties on the number of bars. Orderings that cannot be
// packed score +Inf.
func (g *geneticOptimizer) evaluate(c chromosome) float64 {
	packing, ok := templates.Pack(g.params, g.ordered(c))
	if !ok {
		return math.Inf(1)
	}
	score := packing.Cost
	if g.params.Sense == model.SenseMaximize {
		score = -packing.Profit()
	}
	return score + float64(packing.Bars)*1e-6
}

func (g *geneticOptimizer) ordered(c chromosome) []templates.Piece {
	out := make([]templates.Piece, len(c.order))
	for i, idx := range c.order {
		out[i] = g.pieces[idx]
	}
	return out
}

// tournamentSelect picks the best individual from a random tournament.
func (g *geneticOptimizer) tournamentSelect(population []chromosome) chromosome {
	best := population[g.rng.Intn(len(population))]
	for i := 1; i < g.config.TournamentSize; i++ {
		candidate := population[g.rng.Intn(len(population))]
		if candidate.fitness < best.fitness {
			best = candidate
		}
	}
	return g.copyChromosome(best)
}

// orderCrossover implements Order Crossover (OX1) for permutation chromosomes.
// It preserves the relative order of genes from both parents.
func (g *geneticOptimizer) orderCrossover(parent1, parent2 chromosome) chromosome {
	n := len(parent1.order)
	if n <= 2 {
		return g.copyChromosome(parent1)
	}

	point1 := g.rng.Intn(n)
	point2 := g.rng.Intn(n)
	if point1 > point2 {
		point1, point2 = point2, point1
	}

	child := chromosome{order: make([]int, n)}
	inSegment := make(map[int]bool)
	for i := point1; i <= point2; i++ {
		child.order[i] = parent1.order[i]
		inSegment[parent1.order[i]] = true
	}

	// Fill remaining positions with genes from parent2 in order
	childIdx := (point2 + 1) % n
	for _, pg := range parent2.order {
		if !inSegment[pg] {
			child.order[childIdx] = pg
			childIdx = (childIdx + 1) % n
		}
	}
	return child
}

// mutate applies swap and inversion mutations.
func (g *geneticOptimizer) mutate(c *chromosome) {
	n := len(c.order)
	if n < 2 {
		return
	}

	if g.rng.Float64() < g.config.MutationRate {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		c.order[i], c.order[j] = c.order[j], c.order[i]
	}

	// Inversion mutation: reverse a small segment (less frequent)
	if g.rng.Float64() < g.config.MutationRate*0.5 {
		i := g.rng.Intn(n)
		j := g.rng.Intn(n)
		if i > j {
			i, j = j, i
		}
		for i < j {
			c.order[i], c.order[j] = c.order[j], c.order[i]
			i++
			j--
		}
	}
}

func (g *geneticOptimizer) copyChromosome(c chromosome) chromosome {
	order := make([]int, len(c.order))
	copy(order, c.order)
	return chromosome{order: order, fitness: c.fitness}
}

// EvolveHint searches piece orderings for a first-fit packing at least as
// good as longest-first and returns it as a warm start for the cutting
// model. When no ordering packs, or a maximizing packing makes no profit,
// m.Hint is returned as is.
func EvolveHint(ctx context.Context, p templates.CuttingParams, m templates.Model) map[string]float64 {
	pieces := templates.Pieces(p)
	if len(pieces) == 0 || len(p.Stocks) == 0 {
		return m.Hint
	}

	config := DefaultGeneticConfig()

	// Scale generations for larger problems
	if len(pieces) > 20 {
		config.Generations = 150
	}
	if len(pieces) > 50 {
		config.Generations = 200
		config.PopulationSize = 80
	}

	ga := newGeneticOptimizer(config, p, pieces, 42)
	packing, ok := ga.optimize(ctx)
	if !ok || !m.Declares(packing.Values) {
		return m.Hint
	}
	if p.Sense == model.SenseMaximize && packing.Profit() <= 0 {
		return m.Hint
	}
	return packing.Values
}
