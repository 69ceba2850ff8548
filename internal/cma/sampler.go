package cma

import "github.com/cwbudde/cmaes/internal/linalg"

// samplePopulation draws count candidates from the multivariate Gaussian
// search distribution N(mean, sigma² C). Each candidate is mean + sigma·B·D·z
// with z a standard-normal vector, B the eigenvector basis and D the diagonal
// of square-rooted eigenvalues. Triggers a fresh decomposition if the
// covariance was mutated since the last call.
func samplePopulation(mean linalg.Vector, sigma float64, cov *Covariance, rng *RNG, count int) ([]linalg.Vector, error) {
	basis, _, sqrtValues, err := cov.Decomposition()
	if err != nil {
		return nil, err
	}

	dim := mean.Dim()
	candidates := make([]linalg.Vector, count)
	for k := 0; k < count; k++ {
		scaled := make([]float64, dim)
		for i := 0; i < dim; i++ {
			scaled[i] = sqrtValues.At(i) * rng.Normal()
		}
		step := basis.MulVec(linalg.VectorOf(scaled...))
		candidates[k] = mean.Add(step.Scale(sigma))
	}
	return candidates, nil
}
