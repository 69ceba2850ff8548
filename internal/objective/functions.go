package objective

import (
	"math"

	"github.com/cwbudde/cmaes/internal/cma"
	"github.com/cwbudde/cmaes/internal/linalg"
)

// Sphere is f(x) = ‖x‖², the standard convex smoke-test landscape with its
// minimum at the origin.
type Sphere struct {
	// Threshold is the squared distance from the origin below which a
	// candidate counts as an acceptable solution.
	Threshold float64
}

// NewSphere returns a sphere evaluator accepting solutions below 0.01.
func NewSphere() *Sphere {
	return &Sphere{Threshold: 0.01}
}

func (s *Sphere) Name() string { return "sphere" }

func (s *Sphere) Objective(genome linalg.Vector, solution cma.SolutionCallback) float64 {
	value := genome.SquaredNorm()
	if solution != nil && value < s.Threshold {
		solution(genome, value)
	}
	return value
}

// Rastrigin is the highly multimodal benchmark
// f(x) = 10n + Σ (x_i² − 10 cos(2π x_i)), minimum 0 at the origin.
type Rastrigin struct {
	Threshold float64
}

// NewRastrigin returns a Rastrigin evaluator accepting solutions below 1.
func NewRastrigin() *Rastrigin {
	return &Rastrigin{Threshold: 1.0}
}

func (r *Rastrigin) Name() string { return "rastrigin" }

func (r *Rastrigin) Objective(genome linalg.Vector, solution cma.SolutionCallback) float64 {
	n := genome.Dim()
	value := 10 * float64(n)
	for i := 0; i < n; i++ {
		x := genome.At(i)
		value += x*x - 10*math.Cos(2*math.Pi*x)
	}
	if solution != nil && value < r.Threshold {
		solution(genome, value)
	}
	return value
}

// Ackley is the multimodal benchmark with a nearly flat outer region and a
// steep funnel at the origin.
type Ackley struct {
	Threshold float64
}

// NewAckley returns an Ackley evaluator accepting solutions below 0.1.
func NewAckley() *Ackley {
	return &Ackley{Threshold: 0.1}
}

func (a *Ackley) Name() string { return "ackley" }

func (a *Ackley) Objective(genome linalg.Vector, solution cma.SolutionCallback) float64 {
	n := float64(genome.Dim())

	var sumSq, sumCos float64
	for i := 0; i < genome.Dim(); i++ {
		x := genome.At(i)
		sumSq += x * x
		sumCos += math.Cos(2 * math.Pi * x)
	}

	value := -20*math.Exp(-0.2*math.Sqrt(sumSq/n)) - math.Exp(sumCos/n) + 20 + math.E
	if solution != nil && value < a.Threshold {
		solution(genome, value)
	}
	return value
}
