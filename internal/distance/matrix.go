package distance

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrShape           = errors.New("distance: invalid shape")
	ErrAsymmetry       = errors.New("distance: matrix is not symmetric")
	ErrNonZeroDiagonal = errors.New("distance: diagonal not zero")
	ErrNegative        = errors.New("distance: negative entry")
	ErrNaNInf          = errors.New("distance: NaN or Inf entry")
)

// Matrix is a dense square matrix stored row-major.
type Matrix struct {
	n    int
	data []float64
}

// NewMatrix returns an all-zero n×n matrix.
func NewMatrix(n int) *Matrix {
	if n < 0 {
		n = 0
	}
	return &Matrix{n: n, data: make([]float64, n*n)}
}

// FromRows copies a square [][]float64 into a Matrix.
func FromRows(rows [][]float64) (*Matrix, error) {
	m := NewMatrix(len(rows))
	for i, r := range rows {
		if len(r) != m.n {
			return nil, fmt.Errorf("row %d has %d entries, want %d: %w", i, len(r), m.n, ErrShape)
		}
		copy(m.data[i*m.n:(i+1)*m.n], r)
	}
	return m, nil
}

func (m *Matrix) Len() int                { return m.n }
func (m *Matrix) At(i, j int) float64     { return m.data[i*m.n+j] }
func (m *Matrix) Set(i, j int, v float64) { m.data[i*m.n+j] = v }

// AddSym adds v to both (i,j) and (j,i).
func (m *Matrix) AddSym(i, j int, v float64) {
	m.data[i*m.n+j] += v
	if i != j {
		m.data[j*m.n+i] += v
	}
}

// Symmetrize replaces m with (m + mᵀ)/2 and zeroes the diagonal.
func (m *Matrix) Symmetrize() {
	n := m.n
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 0
		for j := i + 1; j < n; j++ {
			v := (m.data[i*n+j] + m.data[j*n+i]) / 2
			m.data[i*n+j] = v
			m.data[j*n+i] = v
		}
	}
}

// Validate checks symmetry, zero diagonal, non-negativity and finiteness.
func (m *Matrix) Validate() error {
	n := m.n
	for i := 0; i < n; i++ {
		if m.data[i*n+i] != 0 {
			return fmt.Errorf("entry (%d,%d): %w", i, i, ErrNonZeroDiagonal)
		}
		for j := 0; j < n; j++ {
			v := m.data[i*n+j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("entry (%d,%d): %w", i, j, ErrNaNInf)
			}
			if v < 0 {
				return fmt.Errorf("entry (%d,%d)=%g: %w", i, j, v, ErrNegative)
			}
			if v != m.data[j*n+i] {
				return fmt.Errorf("entries (%d,%d) and (%d,%d): %w", i, j, j, i, ErrAsymmetry)
			}
		}
	}
	return nil
}

// Max returns the largest entry (0 for an empty matrix).
func (m *Matrix) Max() float64 {
	var out float64
	for _, v := range m.data {
		if v > out {
			out = v
		}
	}
	return out
}

// Scale multiplies every entry by f.
func (m *Matrix) Scale(f float64) {
	for k := range m.data {
		m.data[k] *= f
	}
}

// Rows returns a copy as [][]float64.
func (m *Matrix) Rows() [][]float64 {
	out := make([][]float64, m.n)
	for i := range out {
		out[i] = append([]float64(nil), m.data[i*m.n:(i+1)*m.n]...)
	}
	return out
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	return &Matrix{n: m.n, data: append([]float64(nil), m.data...)}
}
