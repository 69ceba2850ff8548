// Package linalg provides the fixed-dimension vector and square-matrix value
// types the optimizer engine is built on. All operations are pure: operands
// are never mutated and results are freshly allocated.
//
// Dimension mismatches are programmer errors. Operations panic with
// ErrDimensionMismatch instead of returning an error, the same contract gonum
// uses for shape violations.
package linalg

import (
	"errors"

	"gonum.org/v1/gonum/floats"
)

// ErrDimensionMismatch is the panic value raised when operands of an
// arithmetic operation disagree on dimension.
var ErrDimensionMismatch = errors.New("linalg: dimension mismatch")

// Vector is an ordered sequence of real components.
type Vector struct {
	data []float64
}

// NewVector creates a zero vector of the given dimension.
func NewVector(dim int) Vector {
	return Vector{data: make([]float64, dim)}
}

// VectorOf creates a vector from the given components. The slice is copied.
func VectorOf(components ...float64) Vector {
	data := make([]float64, len(components))
	copy(data, components)
	return Vector{data: data}
}

// ConstantVector creates a vector with every component set to value.
func ConstantVector(dim int, value float64) Vector {
	data := make([]float64, dim)
	for i := range data {
		data[i] = value
	}
	return Vector{data: data}
}

// Dim returns the number of components.
func (v Vector) Dim() int {
	return len(v.data)
}

// At returns component i.
func (v Vector) At(i int) float64 {
	return v.data[i]
}

// Components returns a copy of the underlying components.
func (v Vector) Components() []float64 {
	out := make([]float64, len(v.data))
	copy(out, v.data)
	return out
}

// Add returns v + w.
func (v Vector) Add(w Vector) Vector {
	if len(v.data) != len(w.data) {
		panic(ErrDimensionMismatch)
	}
	out := make([]float64, len(v.data))
	for i := range out {
		out[i] = v.data[i] + w.data[i]
	}
	return Vector{data: out}
}

// Sub returns v - w.
func (v Vector) Sub(w Vector) Vector {
	if len(v.data) != len(w.data) {
		panic(ErrDimensionMismatch)
	}
	out := make([]float64, len(v.data))
	for i := range out {
		out[i] = v.data[i] - w.data[i]
	}
	return Vector{data: out}
}

// Scale returns s * v.
func (v Vector) Scale(s float64) Vector {
	out := make([]float64, len(v.data))
	for i := range out {
		out[i] = s * v.data[i]
	}
	return Vector{data: out}
}

// Dot returns the inner product of v and w.
func (v Vector) Dot(w Vector) float64 {
	if len(v.data) != len(w.data) {
		panic(ErrDimensionMismatch)
	}
	return floats.Dot(v.data, w.data)
}

// Squared returns the element-wise square of v.
func (v Vector) Squared() Vector {
	out := make([]float64, len(v.data))
	for i := range out {
		out[i] = v.data[i] * v.data[i]
	}
	return Vector{data: out}
}

// Norm returns the Euclidean norm of v.
func (v Vector) Norm() float64 {
	return floats.Norm(v.data, 2)
}

// SquaredNorm returns the squared Euclidean norm of v.
func (v Vector) SquaredNorm() float64 {
	return floats.Dot(v.data, v.data)
}

// Outer returns the outer product v * wᵗ. Both operands must have equal
// dimension; the optimizer only ever forms square rank updates.
func (v Vector) Outer(w Vector) Matrix {
	if len(v.data) != len(w.data) {
		panic(ErrDimensionMismatch)
	}
	m := NewMatrix(len(v.data))
	for i := range v.data {
		for j := range w.data {
			m.data[i*m.n+j] = v.data[i] * w.data[j]
		}
	}
	return m
}

// Equal reports whether v and w have identical dimensions and components.
func (v Vector) Equal(w Vector) bool {
	if len(v.data) != len(w.data) {
		return false
	}
	for i := range v.data {
		if v.data[i] != w.data[i] {
			return false
		}
	}
	return true
}
