package hubbard

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/fumin/condmat"
	cmat "github.com/fumin/condmat/mat"
)

// GroundState is the lowest eigenstate of a Hamiltonian.
type GroundState struct {
	Energy float64
	// Vector is the normalized ground state in the order of Basis.
	Vector []float64

	params Params
	basis  *Basis
}

// GroundState returns the ground state, diagonalizing densely up to MaxDenseBasisSize states and with GroundStateArnoldi beyond.
func (h *Hamiltonian) GroundState() (GroundState, error) {
	if h.Dim() > MaxDenseBasisSize {
		g, err := h.GroundStateArnoldi()
		if err != nil {
			return GroundState{}, errors.Wrap(err, "")
		}
		return g, nil
	}
	g, err := h.GroundStateDense()
	if err != nil {
		return GroundState{}, errors.Wrap(err, "")
	}
	return g, nil
}

// GroundStateDense diagonalizes the Hamiltonian densely.
// Sectors beyond MaxDenseBasisSize are refused with condmat.ErrResourceLimit.
// When the ground state is degenerate, an arbitrary vector of the ground space is returned.
func (h *Hamiltonian) GroundStateDense() (GroundState, error) {
	if n := h.Dim(); n > MaxDenseBasisSize {
		return GroundState{}, errors.Wrapf(condmat.ErrResourceLimit, "dense diagonalization of %d states, at most %d", n, MaxDenseBasisSize)
	}
	if err := h.checkSymmetric(); err != nil {
		return GroundState{}, errors.Wrap(err, "")
	}

	n := h.Dim()
	sym := mat.NewSymDense(n, nil)
	for _, e := range h.entries {
		if e.row <= e.col {
			sym.SetSym(e.row, e.col, e.v)
		}
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(sym, true); !ok {
		return GroundState{}, errors.Wrapf(condmat.ErrNumerical, "eigen decomposition of %dx%d failed", n, n)
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	g := GroundState{Energy: vals[0], Vector: mat.Col(nil, 0, &vecs), params: h.Params, basis: h.Basis}
	if math.IsNaN(g.Energy) {
		return GroundState{}, errors.Wrapf(condmat.ErrNumerical, "%f", g.Energy)
	}
	return g, nil
}

// GroundStateArnoldi finds the ground state iteratively with single precision Arnoldi iterations.
// The Hamiltonian is shifted by its Gershgorin upper bound so that the ground state is the eigenvalue of largest magnitude,
// and the returned energy is the Rayleigh quotient of the returned vector in double precision.
func (h *Hamiltonian) GroundStateArnoldi() (GroundState, error) {
	if err := h.checkSymmetric(); err != nil {
		return GroundState{}, errors.Wrap(err, "")
	}
	n := h.Dim()
	var shift float64
	rows := make([]float64, n)
	for _, e := range h.entries {
		if e.row == e.col {
			rows[e.row] += e.v
		} else {
			rows[e.row] += math.Abs(e.v)
		}
	}
	if n > 0 {
		shift = floats.Max(rows) + 1
	}

	a := tensor.Zeros(n, n)
	for i := range n {
		a.SetAt([]int{i, i}, complex64(complex(-shift, 0)))
	}
	for _, e := range h.entries {
		if e.row == e.col {
			a.SetAt([]int{e.row, e.col}, complex64(complex(e.v-shift, 0)))
			continue
		}
		a.SetAt([]int{e.row, e.col}, complex64(complex(e.v, 0)))
	}

	eigvals, eigvecs := tensor.Zeros(1), tensor.Zeros(1)
	var bufs [7]*tensor.Dense
	for i := range len(bufs) {
		bufs[i] = tensor.Zeros(1)
	}
	if err := tensor.Arnoldi(eigvals, eigvecs, a, 1, bufs); err != nil {
		return GroundState{}, errors.Wrap(condmat.ErrNumerical, fmt.Sprintf("%+v", err))
	}

	vec := make([]complex128, 0, n)
	for _, v := range eigvecs.All() {
		vec = append(vec, complex128(v))
	}
	if len(vec) != n {
		return GroundState{}, errors.Wrapf(condmat.ErrNumerical, "eigenvector of length %d, expected %d", len(vec), n)
	}
	x, err := realVector(vec)
	if err != nil {
		return GroundState{}, errors.Wrap(err, "")
	}

	g := GroundState{Energy: h.Energy(x), Vector: x, params: h.Params, basis: h.Basis}
	return g, nil
}

func (h *Hamiltonian) checkSymmetric() error {
	if d := h.symmetryDefect(); d > cmat.HermitianTol {
		return errors.Wrapf(condmat.ErrNumerical, "not symmetric %g", d)
	}
	return nil
}

// realVector rotates the global phase of an eigenvector of a real symmetric matrix away, and normalizes it.
func realVector(vec []complex128) ([]float64, error) {
	var pivot complex128
	for _, v := range vec {
		if cmplx.Abs(v) > cmplx.Abs(pivot) {
			pivot = v
		}
	}
	if pivot == 0 || cmplx.IsNaN(pivot) {
		return nil, errors.Wrapf(condmat.ErrNumerical, "pivot %v", pivot)
	}
	phase := cmplx.Conj(pivot) / complex(cmplx.Abs(pivot), 0)

	x := make([]float64, 0, len(vec))
	for _, v := range vec {
		x = append(x, real(v*phase))
	}
	floats.Scale(1/floats.Norm(x, 2), x)
	return x, nil
}
