// Package cma implements the Covariance Matrix Adaptation Evolution Strategy,
// a derivative-free stochastic optimizer for continuous minimization. One
// engine instance owns all mutable search state and advances one generation
// per Epoch call; the engine is not reentrant and evaluation parallelism is
// the caller's concern via the batch evaluation closure.
package cma

import (
	"fmt"
	"math"

	"github.com/cwbudde/cmaes/internal/eigen"
	"github.com/cwbudde/cmaes/internal/linalg"
)

// DefaultSeed is the seed used when no explicit seed option is given.
const DefaultSeed uint64 = 42

// SolutionCallback is invoked by an evaluator when a candidate meets the
// evaluator's own acceptance criterion.
type SolutionCallback func(genome linalg.Vector, value float64)

// Evaluator scores a single genome. Lower is better. Implementations must be
// pure functions of the genome; they may invoke the callback at most once per
// call to signal an acceptable solution.
type Evaluator interface {
	Objective(genome linalg.Vector, solution SolutionCallback) float64
}

// BatchEvaluator scores a whole population at once. The returned values must
// correspond positionally to the candidates. Candidates are independent, so
// implementations are free to evaluate in parallel.
type BatchEvaluator func(candidates []linalg.Vector) ([]float64, error)

// Best is the best solution observed so far across all generations.
type Best struct {
	Genome linalg.Vector
	Value  float64
}

// Option configures engine construction.
type Option func(*config)

type config struct {
	seed   uint64
	solver eigen.Solver
}

// WithSeed sets the seed of the engine's internal random generator. Runs with
// the same seed, start point, and evaluator produce identical trajectories.
func WithSeed(seed uint64) Option {
	return func(c *config) { c.seed = seed }
}

// WithSolver substitutes the symmetric eigensolver backend.
func WithSolver(solver eigen.Solver) Option {
	return func(c *config) { c.solver = solver }
}

// CMAES is the optimizer engine. It holds the current search distribution
// (mean, step size sigma, covariance), both evolution paths, the generation
// counter, and the best solution found so far.
type CMAES struct {
	params Parameters

	mean  linalg.Vector
	sigma float64
	cov   *Covariance

	pathSigma linalg.Vector
	pathCov   linalg.Vector

	generation int
	rng        *RNG

	best    Best
	hasBest bool
}

// New creates an engine searching around the given mean with initial step
// size sigma, sampling populationSize candidates per generation. All strategy
// constants are derived from the mean's dimension and populationSize.
func New(mean linalg.Vector, sigma float64, populationSize int, opts ...Option) (*CMAES, error) {
	if mean.Dim() == 0 {
		return nil, fmt.Errorf("mean must have at least one dimension")
	}
	if sigma <= 0 || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("initial step size must be positive and finite, got %v", sigma)
	}

	params, err := DeriveParameters(mean.Dim(), populationSize)
	if err != nil {
		return nil, err
	}

	cfg := config{seed: DefaultSeed, solver: eigen.NewSolver()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &CMAES{
		params:    params,
		mean:      mean,
		sigma:     sigma,
		cov:       NewCovariance(mean.Dim(), cfg.solver),
		pathSigma: linalg.NewVector(mean.Dim()),
		pathCov:   linalg.NewVector(mean.Dim()),
		rng:       NewRNG(cfg.seed),
	}, nil
}

// Params returns the derived strategy constants.
func (c *CMAES) Params() Parameters {
	return c.params
}

// Generation returns the number of completed generations.
func (c *CMAES) Generation() int {
	return c.generation
}

// Mean returns the current distribution mean.
func (c *CMAES) Mean() linalg.Vector {
	return c.mean
}

// Sigma returns the current global step size.
func (c *CMAES) Sigma() float64 {
	return c.sigma
}

// Best returns the best solution seen so far and whether one exists yet.
func (c *CMAES) Best() (Best, bool) {
	return c.best, c.hasBest
}

// Epoch runs one full generation: sample lambda candidates, score them with
// the batch evaluator, select and recombine the best mu, and adapt paths,
// step size, and covariance. Returns the best-known solution after the
// generation. Any error is fatal to this engine instance.
func (c *CMAES) Epoch(evaluate BatchEvaluator) (Best, error) {
	candidates, err := samplePopulation(c.mean, c.sigma, c.cov, c.rng, c.params.Lambda)
	if err != nil {
		return c.best, err
	}

	values, err := evaluate(candidates)
	if err != nil {
		return c.best, fmt.Errorf("batch evaluation failed: %w", err)
	}
	if len(values) != len(candidates) {
		return c.best, fmt.Errorf("batch evaluation returned %d values for %d candidates", len(values), len(candidates))
	}

	return c.finishGeneration(candidates, values)
}

// EpochWithEvaluator runs one generation evaluating candidates one at a time
// through a single-genome evaluator. The optional solution callback fires
// whenever a candidate satisfies the evaluator's own acceptance criterion.
// Observably equivalent to Epoch in its effect on the engine state.
func (c *CMAES) EpochWithEvaluator(eval Evaluator, solution SolutionCallback) (Best, error) {
	candidates, err := samplePopulation(c.mean, c.sigma, c.cov, c.rng, c.params.Lambda)
	if err != nil {
		return c.best, err
	}

	values := make([]float64, len(candidates))
	for i, genome := range candidates {
		values[i] = eval.Objective(genome, solution)
	}

	return c.finishGeneration(candidates, values)
}

func (c *CMAES) finishGeneration(candidates []linalg.Vector, values []float64) (Best, error) {
	for i, v := range values {
		if !c.hasBest || v < c.best.Value {
			c.best = Best{Genome: candidates[i], Value: v}
			c.hasBest = true
		}
	}

	parents := selectParents(candidates, values, c.params.Mu)
	oldMean := c.mean
	c.mean = recombine(parents, c.params.Weights)

	if err := c.adapt(oldMean, c.mean, parents); err != nil {
		return c.best, err
	}
	c.generation++

	return c.best, nil
}
