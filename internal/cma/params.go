package cma

import (
	"fmt"
	"math"
)

// Parameters holds the strategy constants derived from the search-space
// dimension and the population size. They are computed once at construction
// and never mutated; a restored engine recomputes them from the same inputs
// and must arrive at identical values.
type Parameters struct {
	// Dim is the search-space dimensionality N.
	Dim int

	// Lambda is the number of offspring sampled per generation.
	Lambda int

	// Mu is the number of selected parents, Lambda/2.
	Mu int

	// Weights are the recombination weights for the Mu best candidates,
	// positive, strictly descending, summing to 1.
	Weights []float64

	// MuEff is the variance-effective selection mass 1/sum(w²).
	MuEff float64

	// CC is the cumulation learning rate for the covariance evolution path.
	CC float64

	// CSigma is the cumulation learning rate for the step-size path.
	CSigma float64

	// C1 is the rank-one covariance learning rate.
	C1 float64

	// CMu is the rank-mu covariance learning rate.
	CMu float64

	// Damping is the step-size damping factor.
	Damping float64

	// ChiN is the expected norm of an N-dimensional standard normal vector.
	ChiN float64
}

// PopulationSize returns the recommended offspring count for a search space
// of the given dimensionality, floor(4 + 3 ln N).
func PopulationSize(dims int) int {
	return int(math.Floor(4 + 3*math.Log(float64(dims))))
}

// DeriveParameters computes all strategy constants for the given dimension
// and population size, following the standard CMA-ES defaults.
func DeriveParameters(dims, lambda int) (Parameters, error) {
	if dims < 1 {
		return Parameters{}, fmt.Errorf("dimension must be at least 1, got %d", dims)
	}
	if lambda < 2 {
		return Parameters{}, fmt.Errorf("population size must be at least 2, got %d", lambda)
	}

	n := float64(dims)
	mu := lambda / 2

	// Logarithmically decreasing raw weights, normalized to sum to 1.
	weights := make([]float64, mu)
	var sum float64
	for i := range weights {
		weights[i] = math.Log(float64(mu)+0.5) - math.Log(float64(i+1))
		sum += weights[i]
	}
	var sumSq float64
	for i := range weights {
		weights[i] /= sum
		sumSq += weights[i] * weights[i]
	}
	muEff := 1 / sumSq

	cc := (4 + muEff/n) / (n + 4 + 2*muEff/n)
	cSigma := (muEff + 2) / (n + muEff + 5)
	c1 := 2 / ((n+1.3)*(n+1.3) + muEff)
	cMu := math.Min(1-c1, 2*(muEff-2+1/muEff)/((n+2)*(n+2)+muEff))
	damping := 1 + 2*math.Max(0, math.Sqrt((muEff-1)/(n+1))-1) + cSigma

	// Closed-form approximation of E‖N(0,I_n)‖.
	chiN := math.Sqrt(n) * (1 - 1/(4*n) + 1/(21*n*n))

	return Parameters{
		Dim:     dims,
		Lambda:  lambda,
		Mu:      mu,
		Weights: weights,
		MuEff:   muEff,
		CC:      cc,
		CSigma:  cSigma,
		C1:      c1,
		CMu:     cMu,
		Damping: damping,
		ChiN:    chiN,
	}, nil
}
