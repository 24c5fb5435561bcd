package hubbard

import (
	"github.com/pkg/errors"

	"github.com/fumin/condmat"
)

// PairingCorrelation returns the q = 0 pair structure factor of the ground state of h,
//
//	S_pair = 1/L^2 sum_ij <D+_i D_j>, D_i = c_i,down c_i,up
func PairingCorrelation(h *Hamiltonian, l int) (float64, error) {
	if l != h.Params.L {
		return 0, errors.Wrapf(condmat.ErrInvalidParameter, "L %d for a Hamiltonian of %d sites", l, h.Params.L)
	}
	g, err := h.GroundState()
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	return g.PairStructureFactor(), nil
}

// PairStructureFactor returns S_pair(q = 0) of g, for callers that already hold the ground state.
func (g GroundState) PairStructureFactor() float64 {
	l := g.params.L
	var s float64
	for _, row := range g.PairingMatrix() {
		for _, v := range row {
			s += v
		}
	}
	return s / float64(l*l)
}

// PairingMatrix returns <D+_i D_j> for all pairs of sites.
func (g GroundState) PairingMatrix() [][]float64 {
	l := g.params.L
	p := make([][]float64, l)
	for i := range l {
		p[i] = make([]float64, l)
		for j := range l {
			p[i][j] = g.pairing(i, j)
		}
	}
	return p
}

func (g GroundState) pairing(i, j int) float64 {
	b := g.basis
	return g.expect(destroy(b.Mode(Up, j)), destroy(b.Mode(Down, j)), create(b.Mode(Down, i)), create(b.Mode(Up, i)))
}

// PairingCorrelations returns P(r), the average of <D+_i D_i+r> over i, for r = 0 ... L-1.
func (g GroundState) PairingCorrelations() []float64 {
	return g.byDistance(g.pairing)
}

// SpinCorrelations returns the average of <S_i . S_i+r> over i, for r = 0 ... L-1.
func (g GroundState) SpinCorrelations() []float64 {
	return g.byDistance(g.spin)
}

func (g GroundState) spin(i, j int) float64 {
	b := g.basis
	upI, dnI := b.Mode(Up, i), b.Mode(Down, i)
	upJ, dnJ := b.Mode(Up, j), b.Mode(Down, j)

	// S+_i S-_j and S-_i S+_j.
	flip := g.expect(destroy(upJ), create(dnJ), destroy(dnI), create(upI))
	flip += g.expect(destroy(dnJ), create(upJ), destroy(upI), create(dnI))

	var zz float64
	for n, amp := range g.Vector {
		s := b.State(n)
		zz += amp * amp * g.sz(s, i) * g.sz(s, j)
	}
	return zz + flip/2
}

func (g GroundState) sz(s uint32, i int) float64 {
	var z float64
	if g.basis.Occupied(s, Up, i) {
		z += 0.5
	}
	if g.basis.Occupied(s, Down, i) {
		z -= 0.5
	}
	return z
}

// byDistance averages f(i, i+r) over the pairs at distance r.
// On an open chain only the pairs with i+r < L are included.
func (g GroundState) byDistance(f func(i, j int) float64) []float64 {
	l := g.params.L
	c := make([]float64, l)
	for r := range l {
		var n int
		for i := range l {
			j := i + r
			if j >= l {
				if !g.params.Periodic {
					break
				}
				j -= l
			}
			c[r] += f(i, j)
			n++
		}
		c[r] /= float64(n)
	}
	return c
}

// Density returns <n_i,up + n_i,down> at each site.
func (g GroundState) Density() []float64 {
	l := g.params.L
	d := make([]float64, l)
	for n, amp := range g.Vector {
		s := g.basis.State(n)
		for i := range l {
			for spin := range 2 {
				if g.basis.Occupied(s, spin, i) {
					d[i] += amp * amp
				}
			}
		}
	}
	return d
}

// DoubleOccupancy returns the average of <n_i,up n_i,down> over sites.
func (g GroundState) DoubleOccupancy() float64 {
	l := g.params.L
	var d float64
	for n, amp := range g.Vector {
		s := g.basis.State(n)
		for i := range l {
			if g.basis.Occupied(s, Up, i) && g.basis.Occupied(s, Down, i) {
				d += amp * amp
			}
		}
	}
	return d / float64(l)
}

// expect returns <g|O|g> where O applies ops in order.
func (g GroundState) expect(ops ...ladder) float64 {
	var e float64
	for n, amp := range g.Vector {
		if amp == 0 {
			continue
		}
		s, sign, ok := apply(g.basis.State(n), ops...)
		if !ok {
			continue
		}
		m, ok := g.basis.Index(s)
		if !ok {
			continue
		}
		e += g.Vector[m] * sign * amp
	}
	return e
}
