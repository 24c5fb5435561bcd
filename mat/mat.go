// Package mat implements the dense complex matrices that the model Hamiltonians are built from, and their Hermitian eigendecomposition.
package mat

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

var (
	PauliX = [][]complex128{
		{0, 1},
		{1, 0},
	}
	PauliY = [][]complex128{
		{0, -1i},
		{1i, 0},
	}
	PauliZ = [][]complex128{
		{1, 0},
		{0, -1},
	}
)

// Dense is a row-major complex matrix.
type Dense struct {
	rows int
	cols int
	data []complex128
}

// M creates a matrix from its rows.
func M(dense [][]complex128) *Dense {
	m := Zeros(len(dense), len(dense[0]))
	for i, row := range dense {
		if len(row) != m.cols {
			panic(fmt.Sprintf("ragged row %d: %d, expected %d", i, len(row), m.cols))
		}
		copy(m.data[i*m.cols:(i+1)*m.cols], row)
	}
	return m
}

func Zeros(rows, cols int) *Dense {
	return &Dense{rows: rows, cols: cols, data: make([]complex128, rows*cols)}
}

func Identity(n int) *Dense {
	m := Zeros(n, n)
	for i := range n {
		m.data[i*n+i] = 1
	}
	return m
}

func (m *Dense) Rows() int { return m.rows }
func (m *Dense) Cols() int { return m.cols }

func (m *Dense) At(i, j int) complex128 {
	return m.data[i*m.cols+j]
}

func (m *Dense) Set(i, j int, v complex128) {
	m.data[i*m.cols+j] = v
}

// AddAt adds v to the element at (i, j).
func (m *Dense) AddAt(i, j int, v complex128) {
	m.data[i*m.cols+j] += v
}

// SetBlock copies b into m with the top left corner of b at (i, j).
func (m *Dense) SetBlock(i, j int, b *Dense) {
	if i+b.rows > m.rows || j+b.cols > m.cols {
		panic(fmt.Sprintf("block %dx%d at (%d, %d) overflows %dx%d", b.rows, b.cols, i, j, m.rows, m.cols))
	}
	for bi := range b.rows {
		copy(m.data[(i+bi)*m.cols+j:(i+bi)*m.cols+j+b.cols], b.data[bi*b.cols:(bi+1)*b.cols])
	}
}

// Add performs a += c*b.
func (a *Dense) Add(c complex128, b *Dense) {
	if a.rows != b.rows || a.cols != b.cols {
		panic(fmt.Sprintf("wrong dimensions %dx%d %dx%d", a.rows, a.cols, b.rows, b.cols))
	}
	for i, bv := range b.data {
		a.data[i] += c * bv
	}
}

// Scale performs a *= c.
func (a *Dense) Scale(c complex128) {
	for i := range a.data {
		a.data[i] *= c
	}
}

// Kron replaces a with the Kronecker product a (x) b.
func (a *Dense) Kron(b *Dense) {
	rows := a.rows * b.rows
	cols := a.cols * b.cols
	data := make([]complex128, rows*cols)
	for ai := range a.rows {
		for aj := range a.cols {
			av := a.data[ai*a.cols+aj]
			if av == 0 {
				continue
			}
			for bi := range b.rows {
				for bj := range b.cols {
					ky := ai*b.rows + bi
					kx := aj*b.cols + bj
					data[ky*cols+kx] = av * b.data[bi*b.cols+bj]
				}
			}
		}
	}
	a.rows, a.cols, a.data = rows, cols, data
}

// H returns the conjugate transpose of m.
func (m *Dense) H() *Dense {
	h := Zeros(m.cols, m.rows)
	for i := range m.rows {
		for j := range m.cols {
			h.data[j*h.cols+i] = cmplx.Conj(m.data[i*m.cols+j])
		}
	}
	return h
}

// MulVec computes dst = m x.
func (m *Dense) MulVec(dst, x []complex128) []complex128 {
	if len(x) != m.cols {
		panic(fmt.Sprintf("%d %d", len(x), m.cols))
	}
	dst = dst[:0]
	for i := range m.rows {
		var s complex128
		row := m.data[i*m.cols : (i+1)*m.cols]
		for j, v := range row {
			s += v * x[j]
		}
		dst = append(dst, s)
	}
	return dst
}

// Expectation returns <v|m|v>.
func (m *Dense) Expectation(v []complex128) complex128 {
	return Inner(v, m.MulVec(nil, v))
}

// HermitianDefect returns the Frobenius norm of m - m^dagger.
func (m *Dense) HermitianDefect() float64 {
	if m.rows != m.cols {
		return math.Inf(1)
	}
	var s float64
	for i := range m.rows {
		for j := i + 1; j < m.cols; j++ {
			d := m.data[i*m.cols+j] - cmplx.Conj(m.data[j*m.cols+i])
			s += 2 * (real(d)*real(d) + imag(d)*imag(d))
		}
		d := imag(m.data[i*m.cols+i])
		s += d * d
	}
	return math.Sqrt(s)
}

// MaxAbs returns the largest element modulus.
func (m *Dense) MaxAbs() float64 {
	var mx float64
	for _, v := range m.data {
		mx = max(mx, cmplx.Abs(v))
	}
	return mx
}

// IsReal reports whether every element has a zero imaginary part.
func (m *Dense) IsReal() bool {
	for _, v := range m.data {
		if imag(v) != 0 {
			return false
		}
	}
	return true
}

func (m *Dense) isFinite() bool {
	for _, v := range m.data {
		if cmplx.IsNaN(v) || cmplx.IsInf(v) {
			return false
		}
	}
	return true
}

func (a *Dense) Equal(b *Dense) bool {
	if a.rows != b.rows {
		return false
	}
	if a.cols != b.cols {
		return false
	}
	for i, av := range a.data {
		if av != b.data[i] {
			return false
		}
	}
	return true
}

// Slice returns a copy of the rows in [yBound[0], yBound[1]) and columns in [xBound[0], xBound[1]).
// Negative bounds count from the end.
func (m *Dense) Slice(yBoundN, xBoundN [2]int) *Dense {
	yBound, xBound := yBoundN, xBoundN
	for i := 0; i < 2; i++ {
		if yBound[i] < 0 {
			yBound[i] += m.rows
		}
		if xBound[i] < 0 {
			xBound[i] += m.cols
		}
	}

	s := Zeros(yBound[1]-yBound[0], xBound[1]-xBound[0])
	for i := range s.rows {
		for j := range s.cols {
			s.data[i*s.cols+j] = m.data[(i+yBound[0])*m.cols+j+xBound[0]]
		}
	}
	return s
}

func (m *Dense) Dense() [][]complex128 {
	dense := make([][]complex128, m.rows)
	for i := range dense {
		dense[i] = make([]complex128, m.cols)
		copy(dense[i], m.data[i*m.cols:(i+1)*m.cols])
	}
	return dense
}

func (m *Dense) String() string {
	lines := []string{}
	for i := 0; i < m.rows; i++ {
		cs := []string{}
		for j := 0; j < m.cols; j++ {
			v := m.data[i*m.cols+j]
			switch {
			case imag(v) == 0:
				cs = append(cs, format(real(v)))
			case real(v) == 0:
				cs = append(cs, format(imag(v))+"i")
			default:
				cs = append(cs, format(real(v))+"+"+format(imag(v))+"i")
			}
		}
		l := strings.Join(cs, "\t")
		lines = append(lines, l)
	}
	return strings.Join(lines, "\n")
}

// Inner returns x^dagger y.
func Inner(x, y []complex128) complex128 {
	var s complex128
	for i, xi := range x {
		s += cmplx.Conj(xi) * y[i]
	}
	return s
}

// Norm returns the Euclidean norm of x.
func Norm(x []complex128) float64 {
	var s float64
	for _, v := range x {
		s += real(v)*real(v) + imag(v)*imag(v)
	}
	return math.Sqrt(s)
}

func format(v float64) string {
	// If v is 0 or -0, return "0" immediately to avoid returning "-0".
	if v == 0 {
		return " 0"
	}

	s := fmt.Sprintf("%v", v)

	// Add a space before non-negative numbers to align with other negative numbers in the same column.
	if v >= 0 {
		s = " " + s
	}

	return s
}
