package linalg

// Matrix is a dense square N x N matrix with value semantics, stored row-major.
type Matrix struct {
	n    int
	data []float64
}

// NewMatrix creates a zero n x n matrix.
func NewMatrix(n int) Matrix {
	return Matrix{n: n, data: make([]float64, n*n)}
}

// Identity creates the n x n identity matrix.
func Identity(n int) Matrix {
	m := NewMatrix(n)
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}
	return m
}

// MatrixFromRows creates a matrix from row slices. All rows must have length
// equal to the number of rows.
func MatrixFromRows(rows ...[]float64) Matrix {
	n := len(rows)
	m := NewMatrix(n)
	for i, row := range rows {
		if len(row) != n {
			panic(ErrDimensionMismatch)
		}
		copy(m.data[i*n:(i+1)*n], row)
	}
	return m
}

// Diagonal creates a matrix with the given vector on its diagonal.
func Diagonal(d Vector) Matrix {
	m := NewMatrix(d.Dim())
	for i := 0; i < m.n; i++ {
		m.data[i*m.n+i] = d.data[i]
	}
	return m
}

// Dim returns the row (and column) count.
func (m Matrix) Dim() int {
	return m.n
}

// At returns the entry at row i, column j.
func (m Matrix) At(i, j int) float64 {
	return m.data[i*m.n+j]
}

// Set returns a copy of m with the entry at row i, column j replaced.
func (m Matrix) Set(i, j int, v float64) Matrix {
	out := m.clone()
	out.data[i*m.n+j] = v
	return out
}

// Row returns a copy of row i.
func (m Matrix) Row(i int) []float64 {
	out := make([]float64, m.n)
	copy(out, m.data[i*m.n:(i+1)*m.n])
	return out
}

// Entries returns all entries in row-major order.
func (m Matrix) Entries() []float64 {
	out := make([]float64, len(m.data))
	copy(out, m.data)
	return out
}

// Add returns m + o.
func (m Matrix) Add(o Matrix) Matrix {
	if m.n != o.n {
		panic(ErrDimensionMismatch)
	}
	out := NewMatrix(m.n)
	for i := range out.data {
		out.data[i] = m.data[i] + o.data[i]
	}
	return out
}

// Sub returns m - o.
func (m Matrix) Sub(o Matrix) Matrix {
	if m.n != o.n {
		panic(ErrDimensionMismatch)
	}
	out := NewMatrix(m.n)
	for i := range out.data {
		out.data[i] = m.data[i] - o.data[i]
	}
	return out
}

// Scale returns s * m.
func (m Matrix) Scale(s float64) Matrix {
	out := NewMatrix(m.n)
	for i := range out.data {
		out.data[i] = s * m.data[i]
	}
	return out
}

// MulVec returns the matrix-vector product m * v.
func (m Matrix) MulVec(v Vector) Vector {
	if m.n != v.Dim() {
		panic(ErrDimensionMismatch)
	}
	out := make([]float64, m.n)
	for i := 0; i < m.n; i++ {
		row := m.data[i*m.n : (i+1)*m.n]
		var sum float64
		for j, rv := range row {
			sum += rv * v.data[j]
		}
		out[i] = sum
	}
	return Vector{data: out}
}

// Mul returns the matrix product m * o.
func (m Matrix) Mul(o Matrix) Matrix {
	if m.n != o.n {
		panic(ErrDimensionMismatch)
	}
	out := NewMatrix(m.n)
	for i := 0; i < m.n; i++ {
		for k := 0; k < m.n; k++ {
			mik := m.data[i*m.n+k]
			if mik == 0 {
				continue
			}
			for j := 0; j < m.n; j++ {
				out.data[i*m.n+j] += mik * o.data[k*m.n+j]
			}
		}
	}
	return out
}

// Transpose returns mᵗ.
func (m Matrix) Transpose() Matrix {
	out := NewMatrix(m.n)
	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			out.data[j*m.n+i] = m.data[i*m.n+j]
		}
	}
	return out
}

// Trace returns the sum of the diagonal entries.
func (m Matrix) Trace() float64 {
	var sum float64
	for i := 0; i < m.n; i++ {
		sum += m.data[i*m.n+i]
	}
	return sum
}

// Symmetrized returns (m + mᵗ) / 2, absorbing floating-point drift from
// symmetric rank updates.
func (m Matrix) Symmetrized() Matrix {
	out := NewMatrix(m.n)
	for i := 0; i < m.n; i++ {
		for j := 0; j < m.n; j++ {
			out.data[i*m.n+j] = 0.5 * (m.data[i*m.n+j] + m.data[j*m.n+i])
		}
	}
	return out
}

// Equal reports whether m and o have identical dimensions and entries.
func (m Matrix) Equal(o Matrix) bool {
	if m.n != o.n {
		return false
	}
	for i := range m.data {
		if m.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

func (m Matrix) clone() Matrix {
	out := Matrix{n: m.n, data: make([]float64, len(m.data))}
	copy(out.data, m.data)
	return out
}
