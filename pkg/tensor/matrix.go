package tensor

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch is wrapped by every op that rejects incompatible operands.
var ErrShapeMismatch = errors.New("shape mismatch")

// Matrix represents a 2D matrix of float64 values backed by a gonum dense matrix
type Matrix struct {
	Rows  int
	Cols  int
	dense *mat.Dense
}

// NewMatrix creates a new zero matrix with the specified dimensions
func NewMatrix(rows, cols int) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid matrix dimensions: rows=%d, cols=%d (must be positive)", rows, cols)
	}

	return &Matrix{
		Rows:  rows,
		Cols:  cols,
		dense: mat.NewDense(rows, cols, nil),
	}, nil
}

// MustNewMatrix creates a new matrix with the specified dimensions
// Panics if dimensions are invalid
func MustNewMatrix(rows, cols int) *Matrix {
	m, err := NewMatrix(rows, cols)
	if err != nil {
		panic(err)
	}
	return m
}

// NewMatrixFromRows copies a ragged-checked slice of rows into a new matrix
func NewMatrixFromRows(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("cannot build matrix from zero rows")
	}

	m, err := NewMatrix(len(rows), len(rows[0]))
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		if len(row) != m.Cols {
			return nil, fmt.Errorf("row %d has %d columns, expected %d: %w", i, len(row), m.Cols, ErrShapeMismatch)
		}
		m.dense.SetRow(i, row)
	}

	return m, nil
}

// FromDense wraps an existing gonum matrix without copying it
func FromDense(d *mat.Dense) *Matrix {
	r, c := d.Dims()
	return &Matrix{Rows: r, Cols: c, dense: d}
}

// Dense exposes the underlying gonum matrix
func (m *Matrix) Dense() *mat.Dense {
	return m.dense
}

// At returns the element at row i, column j
func (m *Matrix) At(i, j int) float64 {
	return m.dense.At(i, j)
}

// Set sets the element at row i, column j
func (m *Matrix) Set(i, j int, v float64) {
	m.dense.Set(i, j, v)
}

// Row returns a copy of row i
func (m *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.dense)
}

// RawRow returns row i as a slice sharing the matrix storage
func (m *Matrix) RawRow(i int) []float64 {
	return m.dense.RawRowView(i)
}

// Shape returns the matrix dimensions as a Shape
func (m *Matrix) Shape() Shape {
	return Shape{m.Rows, m.Cols}
}

// Clone creates a deep copy of the matrix
func (m *Matrix) Clone() *Matrix {
	return FromDense(mat.DenseCopyOf(m.dense))
}

// MatMul performs matrix multiplication
func MatMul(a, b *Matrix) (*Matrix, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("cannot multiply nil matrices")
	}

	if a.Cols != b.Rows {
		return nil, fmt.Errorf("matrix dimensions don't match for multiplication: a(%dx%d), b(%dx%d): %w",
			a.Rows, a.Cols, b.Rows, b.Cols, ErrShapeMismatch)
	}

	var out mat.Dense
	out.Mul(a.dense, b.dense)
	return FromDense(&out), nil
}

// BiasAdd adds bias[j] to every element of column j
func BiasAdd(m *Matrix, bias []float64) (*Matrix, error) {
	if m == nil {
		return nil, fmt.Errorf("cannot add bias to nil matrix")
	}

	if len(bias) != m.Cols {
		return nil, fmt.Errorf("bias length %d doesn't match matrix columns: m(%dx%d): %w",
			len(bias), m.Rows, m.Cols, ErrShapeMismatch)
	}

	result := m.Clone()
	for i := 0; i < result.Rows; i++ {
		row := result.RawRow(i)
		for j := range row {
			row[j] += bias[j]
		}
	}

	return result, nil
}

// ApplyRows applies fn to each row of the matrix, writing into a new matrix.
// fn receives the destination and source rows.
func ApplyRows(m *Matrix, fn func(dst, src []float64)) (*Matrix, error) {
	if m == nil {
		return nil, fmt.Errorf("cannot apply function to nil matrix")
	}

	result, err := NewMatrix(m.Rows, m.Cols)
	if err != nil {
		return nil, err
	}

	for i := 0; i < m.Rows; i++ {
		fn(result.RawRow(i), m.RawRow(i))
	}

	return result, nil
}

// Equal checks if two matrices have the same dimensions and values within epsilon
func Equal(a, b *Matrix, epsilon float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return false
	}
	return mat.EqualApprox(a.dense, b.dense, epsilon)
}

// IsFinite reports whether every element is neither NaN nor infinite
func (m *Matrix) IsFinite() bool {
	for i := 0; i < m.Rows; i++ {
		for _, v := range m.RawRow(i) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// String returns a string representation of the matrix
func (m *Matrix) String() string {
	if m == nil {
		return "nil"
	}
	return fmt.Sprintf("Matrix(%dx%d):\n%.4v", m.Rows, m.Cols, mat.Formatted(m.dense))
}
