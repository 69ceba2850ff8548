package cma

import (
	"fmt"
	"math"

	"github.com/cwbudde/cmaes/internal/linalg"
)

// adapt runs the per-generation strategy update: step-size evolution path,
// cumulative step-size adaptation, covariance evolution path with the hsig
// stall indicator, and the rank-one + rank-mu covariance update. Must be
// called with the decomposition that produced this generation's samples still
// cached, i.e. before the covariance is mutated.
func (c *CMAES) adapt(oldMean, newMean linalg.Vector, parents []ranked) error {
	p := c.params

	basis, _, sqrtValues, err := c.cov.Decomposition()
	if err != nil {
		return err
	}

	// Mean displacement in sigma-normalized coordinates.
	delta := newMean.Sub(oldMean).Scale(1 / c.sigma)

	// Whiten via C^(-1/2) = B D⁻¹ Bᵗ. Zero eigenvalues contribute nothing
	// to the whitened direction rather than dividing to infinity.
	rotated := basis.Transpose().MulVec(delta)
	scaled := make([]float64, p.Dim)
	for i := 0; i < p.Dim; i++ {
		if d := sqrtValues.At(i); d > 0 {
			scaled[i] = rotated.At(i) / d
		}
	}
	whitened := basis.MulVec(linalg.VectorOf(scaled...))

	// Step-size path: exponential smoothing of the whitened displacement.
	cs := p.CSigma
	c.pathSigma = c.pathSigma.Scale(1 - cs).
		Add(whitened.Scale(math.Sqrt(cs * (2 - cs) * p.MuEff)))

	psNorm := c.pathSigma.Norm()

	// Classic hsig stall indicator: suppress the rank-one update when the
	// step-size path grew abnormally large in one generation, so a spurious
	// outlier step cannot blow up the covariance.
	correction := math.Sqrt(1 - math.Pow(1-cs, 2*float64(c.generation+1)))
	hsig := psNorm/correction/p.ChiN < 1.4+2/(float64(p.Dim)+1)

	// Covariance path.
	cc := p.CC
	c.pathCov = c.pathCov.Scale(1 - cc)
	if hsig {
		c.pathCov = c.pathCov.Add(delta.Scale(math.Sqrt(cc * (2 - cc) * p.MuEff)))
	}

	// Rank-mu update: weighted outer products of each selected candidate's
	// sigma-normalized deviation from the old mean.
	rankMu := linalg.NewMatrix(p.Dim)
	for i, parent := range parents {
		y := parent.genome.Sub(oldMean).Scale(1 / c.sigma)
		rankMu = rankMu.Add(y.Outer(y).Scale(p.Weights[i]))
	}

	old := c.cov.Matrix()
	decay := 1 - p.C1 - p.CMu
	if !hsig {
		// Compensate the missing rank-one variance so the decomposition
		// of C stays unbiased when the path update was suppressed.
		decay += p.C1 * cc * (2 - cc)
	}

	updated := old.Scale(decay).
		Add(c.pathCov.Outer(c.pathCov).Scale(p.C1)).
		Add(rankMu.Scale(p.CMu))
	c.cov.Update(updated)

	// Cumulative step-size adaptation: grow sigma when recent steps are
	// longer than expected under the current distribution, shrink otherwise.
	c.sigma *= math.Exp((cs / p.Damping) * (psNorm/p.ChiN - 1))

	if math.IsNaN(c.sigma) || math.IsInf(c.sigma, 0) || c.sigma <= 0 {
		return &InvalidStateError{
			Reason: fmt.Sprintf("step size became %v at generation %d", c.sigma, c.generation),
		}
	}
	return nil
}
