// Package hubbard diagonalizes the one-dimensional Hubbard model exactly in a sector of fixed particle numbers.
//
// The Hamiltonian is
//
//	H = -t sum_<ij>,s (c+_is c_js + h.c.) + U sum_i n_i,up n_i,down
//
// The sector dimension C(L, NUp) C(L, NDown) grows exponentially with L, so exact diagonalization is limited to short chains.
// Problems beyond MaxSites or MaxBasisSize are refused with condmat.ErrResourceLimit before anything is allocated,
// and sectors beyond MaxDenseBasisSize are solved iteratively instead of densely.
package hubbard

import (
	"cmp"
	"math"
	"slices"

	"github.com/pkg/errors"

	"github.com/fumin/condmat/mat"
)

const (
	// MaxSites bounds the chain length, so that a state fits in 32 bits.
	MaxSites = 16
	// MaxBasisSize bounds the sector dimension.
	// Arnoldi iterations on a dense single precision copy need O(MaxBasisSize^2) memory, about 200 MB.
	MaxBasisSize = 5000
	// MaxDenseBasisSize bounds the sectors GroundState diagonalizes densely, in O(n^3) time.
	// A 1225 state sector takes seconds, while a 4900 state one takes many minutes.
	// Larger sectors go to GroundStateArnoldi.
	MaxDenseBasisSize = 1500
)

// Params are the parameters of a Hubbard chain.
type Params struct {
	L int
	T float64
	U float64

	NUp   int
	NDown int
	// Periodic adds the bond between the last and the first site.
	Periodic bool
}

// DefaultParams returns a periodic half-filled chain with t = 1 and U = 0.
func DefaultParams(l int) Params {
	return Params{L: l, T: 1, U: 0, NUp: (l + 1) / 2, NDown: l / 2, Periodic: true}
}

// Bonds returns the nearest neighbor pairs.
// The periodic bond is added only for L > 2, since for two sites it coincides with the open one.
func (p Params) Bonds() [][2]int {
	bonds := make([][2]int, 0, p.L)
	for i := range p.L - 1 {
		bonds = append(bonds, [2]int{i, i + 1})
	}
	if p.Periodic && p.L > 2 {
		bonds = append(bonds, [2]int{p.L - 1, 0})
	}
	return bonds
}

type entry struct {
	row int
	col int
	v   float64
}

// Hamiltonian is a sparse Hubbard Hamiltonian in a fixed sector.
type Hamiltonian struct {
	Params Params
	Basis  *Basis

	// entries are in row major order, without duplicates.
	entries []entry
}

// NewHamiltonian builds the Hamiltonian of p.
func NewHamiltonian(p Params) (*Hamiltonian, error) {
	if err := p.validate(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	basis := NewBasis(p.L, p.NUp, p.NDown)

	elems := make(map[[2]int]float64)
	bonds := p.Bonds()
	for col := range basis.Size() {
		s := basis.State(col)

		var double int
		for i := range p.L {
			if basis.Occupied(s, Up, i) && basis.Occupied(s, Down, i) {
				double++
			}
		}
		if double != 0 && p.U != 0 {
			elems[[2]int{col, col}] += p.U * float64(double)
		}

		for _, bond := range bonds {
			for spin := range 2 {
				a, b := basis.Mode(spin, bond[0]), basis.Mode(spin, bond[1])
				for _, ab := range [2][2]int{{a, b}, {b, a}} {
					s2, sign, ok := apply(s, destroy(ab[1]), create(ab[0]))
					if !ok {
						continue
					}
					row, _ := basis.Index(s2)
					elems[[2]int{row, col}] += -p.T * sign
				}
			}
		}
	}

	h := &Hamiltonian{Params: p, Basis: basis, entries: make([]entry, 0, len(elems))}
	for rc, v := range elems {
		if v == 0 {
			continue
		}
		h.entries = append(h.entries, entry{row: rc[0], col: rc[1], v: v})
	}
	slices.SortFunc(h.entries, rowMajor)
	return h, nil
}

func (h *Hamiltonian) Dim() int { return h.Basis.Size() }

// NumNonzero returns the number of stored matrix elements.
func (h *Hamiltonian) NumNonzero() int { return len(h.entries) }

// Dense returns the Hamiltonian as a dense matrix.
func (h *Hamiltonian) Dense() *mat.Dense {
	m := mat.Zeros(h.Dim(), h.Dim())
	for _, e := range h.entries {
		m.Set(e.row, e.col, complex(e.v, 0))
	}
	return m
}

// MulVec sets dst = H x and returns dst.
func (h *Hamiltonian) MulVec(dst, x []float64) []float64 {
	dst = slices.Grow(dst[:0], h.Dim())[:h.Dim()]
	clear(dst)
	for _, e := range h.entries {
		dst[e.row] += e.v * x[e.col]
	}
	return dst
}

// Energy returns the Rayleigh quotient <x|H|x> / <x|x>.
func (h *Hamiltonian) Energy(x []float64) float64 {
	hx := h.MulVec(nil, x)
	var num, den float64
	for i, v := range x {
		num += v * hx[i]
		den += v * v
	}
	return num / den
}

// symmetryDefect returns max |H_ij - H_ji|.
func (h *Hamiltonian) symmetryDefect() float64 {
	m := make(map[[2]int]float64, len(h.entries))
	for _, e := range h.entries {
		m[[2]int{e.row, e.col}] = e.v
	}
	var d float64
	for _, e := range h.entries {
		d = max(d, math.Abs(e.v-m[[2]int{e.col, e.row}]))
	}
	return d
}

func rowMajor(a, b entry) int {
	if c := cmp.Compare(a.row, b.row); c != 0 {
		return c
	}
	return cmp.Compare(a.col, b.col)
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
