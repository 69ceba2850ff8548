package cma

import (
	"sort"

	"github.com/cwbudde/cmaes/internal/linalg"
)

// ranked pairs a candidate with its objective value and original sampling
// position.
type ranked struct {
	genome linalg.Vector
	value  float64
	order  int
}

// selectParents ranks candidates ascending by objective value and returns the
// best mu in rank order. The sort is stable on the original sampling order,
// so equal-fitness ties resolve deterministically.
func selectParents(candidates []linalg.Vector, values []float64, mu int) []ranked {
	pop := make([]ranked, len(candidates))
	for i := range candidates {
		pop[i] = ranked{genome: candidates[i], value: values[i], order: i}
	}
	sort.SliceStable(pop, func(i, j int) bool {
		return pop[i].value < pop[j].value
	})
	return pop[:mu]
}

// recombine computes the weighted mean of the selected parents using the
// fixed descending weight sequence. This is the (mu/mu_w, lambda) scheme:
// only the best mu of lambda offspring reproduce, each with a rank-dependent
// share.
func recombine(parents []ranked, weights []float64) linalg.Vector {
	dim := parents[0].genome.Dim()
	mean := linalg.NewVector(dim)
	for i, p := range parents {
		mean = mean.Add(p.genome.Scale(weights[i]))
	}
	return mean
}
