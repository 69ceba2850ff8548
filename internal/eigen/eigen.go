// Package eigen wraps an external dense symmetric eigendecomposition behind a
// narrow interface, so the optimizer core never touches the numerical backend
// directly. The default implementation delegates to gonum's EigenSym.
package eigen

import (
	"github.com/cwbudde/cmaes/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

// Decomposition holds the result of a symmetric eigendecomposition.
// Values are in ascending order; column i of Vectors is the eigenvector
// paired with Values[i]. The vectors form an orthonormal basis.
type Decomposition struct {
	Values  linalg.Vector
	Vectors linalg.Matrix
}

// Solver computes eigendecompositions of symmetric matrices. The input must
// be exactly symmetric; callers are responsible for symmetrizing first.
type Solver interface {
	Solve(m linalg.Matrix) (Decomposition, error)
}

// DecompositionError reports that the backend failed to converge on the given
// matrix. It is fatal to the optimizer instance that triggered it: retrying
// with the same ill-conditioned matrix cannot succeed, and substituting an
// identity would silently corrupt the search distribution.
type DecompositionError struct {
	Dim int
}

func (e *DecompositionError) Error() string {
	return "eigen: symmetric eigendecomposition did not converge"
}

func (e *DecompositionError) Is(target error) bool {
	_, ok := target.(*DecompositionError)
	return ok
}

// GonumSolver solves symmetric eigenproblems with gonum's dense EigenSym.
type GonumSolver struct{}

// NewSolver returns the default gonum-backed solver.
func NewSolver() Solver {
	return GonumSolver{}
}

// Solve factorizes the symmetric matrix m. Eigenvalues come back ascending,
// eigenvectors as the corresponding orthonormal column basis.
func (GonumSolver) Solve(m linalg.Matrix) (Decomposition, error) {
	n := m.Dim()

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, m.At(i, j))
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(sym, true); !ok {
		return Decomposition{}, &DecompositionError{Dim: n}
	}

	values := es.Values(nil)

	var vecs mat.Dense
	es.VectorsTo(&vecs)

	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, n)
		for j := 0; j < n; j++ {
			row[j] = vecs.At(i, j)
		}
		rows[i] = row
	}

	return Decomposition{
		Values:  linalg.VectorOf(values...),
		Vectors: linalg.MatrixFromRows(rows...),
	}, nil
}
