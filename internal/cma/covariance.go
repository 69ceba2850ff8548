package cma

import (
	"math"

	"github.com/cwbudde/cmaes/internal/eigen"
	"github.com/cwbudde/cmaes/internal/linalg"
)

// Covariance owns the search-distribution covariance matrix together with a
// lazily computed eigendecomposition cache. The backing matrix is kept
// symmetric by construction: every Update symmetrizes before storing. The
// cache is dropped on mutation and recomputed on the next Decomposition call,
// so several updates between sampling calls cost a single decomposition.
type Covariance struct {
	matrix linalg.Matrix
	solver eigen.Solver
	cache  *decomposition
}

// decomposition caches B, the clamped eigenvalues, and their square roots.
type decomposition struct {
	basis    linalg.Matrix
	values   linalg.Vector
	sqrtVals linalg.Vector
}

// NewCovariance creates a covariance seeded with the identity, which is
// trivially symmetric positive definite.
func NewCovariance(dim int, solver eigen.Solver) *Covariance {
	return &Covariance{
		matrix: linalg.Identity(dim),
		solver: solver,
	}
}

// NewCovarianceFrom creates a covariance from an existing matrix, as restored
// from a snapshot. The matrix is symmetrized before storage.
func NewCovarianceFrom(m linalg.Matrix, solver eigen.Solver) *Covariance {
	return &Covariance{
		matrix: m.Symmetrized(),
		solver: solver,
	}
}

// Dim returns the matrix dimension.
func (c *Covariance) Dim() int {
	return c.matrix.Dim()
}

// Matrix returns the current backing matrix.
func (c *Covariance) Matrix() linalg.Matrix {
	return c.matrix
}

// Update replaces the backing matrix and invalidates the cached
// decomposition. Floating-point drift from the rank updates is absorbed by
// symmetrizing before storage.
func (c *Covariance) Update(m linalg.Matrix) {
	if m.Dim() != c.matrix.Dim() {
		panic(linalg.ErrDimensionMismatch)
	}
	c.matrix = m.Symmetrized()
	c.cache = nil
}

// Decomposition returns the orthonormal eigenvector basis B, the eigenvalues
// clamped to be non-negative, and their element-wise square roots. The result
// is cached until the next Update. Solver non-convergence is surfaced
// unchanged; there is no fallback.
func (c *Covariance) Decomposition() (basis linalg.Matrix, values, sqrtValues linalg.Vector, err error) {
	if c.cache == nil {
		d, err := c.solver.Solve(c.matrix)
		if err != nil {
			return linalg.Matrix{}, linalg.Vector{}, linalg.Vector{}, err
		}

		n := d.Values.Dim()
		clamped := make([]float64, n)
		roots := make([]float64, n)
		for i := 0; i < n; i++ {
			// Round-off can push small eigenvalues slightly negative;
			// clamp so the square root stays real.
			v := d.Values.At(i)
			if v < 0 {
				v = 0
			}
			clamped[i] = v
			roots[i] = math.Sqrt(v)
		}

		c.cache = &decomposition{
			basis:    d.Vectors,
			values:   linalg.VectorOf(clamped...),
			sqrtVals: linalg.VectorOf(roots...),
		}
	}
	return c.cache.basis, c.cache.values, c.cache.sqrtVals, nil
}
