// Package fese implements tight-binding models of the FeSe plane.
//
// The five-orbital model follows Graser et al., New J. Phys. 11, 025016 (2009), in the one-Fe Brillouin zone with the lattice constant set to 1.
// Orbitals are ordered dxz, dyz, dx2-y2, dxy, d3z2-r2.
package fese

import (
	"math"

	"github.com/pkg/errors"

	"github.com/fumin/condmat"
	"github.com/fumin/condmat/band"
	"github.com/fumin/condmat/mat"
)

const (
	NumOrbitals = 5
)

var orbitalNames = [NumOrbitals]string{"dxz", "dyz", "dx2-y2", "dxy", "d3z2-r2"}

// OrbitalName returns the name of orbital i.
func OrbitalName(i int) string { return orbitalNames[i] }

// Hamiltonian returns the 5x5 Bloch Hamiltonian at (kx, ky).
// At Gamma every inter-orbital element vanishes.
func Hamiltonian(kx, ky float64, p Params) *mat.Dense {
	cx, cy := math.Cos(kx), math.Cos(ky)
	c2x, c2y := math.Cos(2*kx), math.Cos(2*ky)
	sx, sy := math.Sin(kx), math.Sin(ky)
	s2x, s2y := math.Sin(2*kx), math.Sin(2*ky)
	hp := p.Hopping

	var d [NumOrbitals]float64
	t11 := hp.T11
	d[0] = 2*t11.X*cx + 2*t11.Y*cy + 4*t11.XY*cx*cy + 2*t11.XX*(c2x-c2y) +
		4*t11.XXY*c2x*cy + 4*t11.XYY*cx*c2y + 4*t11.XXYY*c2x*c2y
	d[1] = 2*t11.Y*cx + 2*t11.X*cy + 4*t11.XY*cx*cy - 2*t11.XX*(c2x-c2y) +
		4*t11.XYY*c2x*cy + 4*t11.XXY*cx*c2y + 4*t11.XXYY*c2x*c2y
	t33 := hp.T33
	d[2] = 2*t33.X*(cx+cy) + 4*t33.XY*cx*cy + 2*t33.XX*(c2x+c2y)
	t44 := hp.T44
	d[3] = 2*t44.X*(cx+cy) + 4*t44.XY*cx*cy + 2*t44.XX*(c2x+c2y) +
		4*t44.XXY*(c2x*cy+cx*c2y) + 4*t44.XXYY*c2x*c2y
	t55 := hp.T55
	d[4] = 2*t55.X*(cx+cy) + 2*t55.XX*(c2x+c2y) +
		4*t55.XXY*(c2x*cy+cx*c2y) + 4*t55.XXYY*c2x*c2y

	h := mat.Zeros(NumOrbitals, NumOrbitals)
	for i, e := range p.onsite() {
		h.Set(i, i, complex(e+d[i]-p.Mu, 0))
	}

	t12 := hp.T12
	h12 := -4*t12.XY*sx*sy - 4*t12.XXY*(s2x*sy+sx*s2y) - 4*t12.XXYY*s2x*s2y
	t13 := hp.T13
	h13 := 2*t13.X*sy + 4*t13.XY*sy*cx - 4*t13.XXY*(s2y*cx-c2x*sy)
	h23 := -2*t13.X*sx - 4*t13.XY*sx*cy + 4*t13.XXY*(s2x*cy-c2y*sx)
	t14 := hp.T14
	h14 := 2*t14.X*sx + 4*t14.XY*cy*sx + 4*t14.XXY*s2x*cy
	h24 := 2*t14.X*sy + 4*t14.XY*cx*sy + 4*t14.XXY*s2y*cx
	t15 := hp.T15
	h15 := 2*t15.X*sy - 4*t15.XY*sy*cx - 4*t15.XXYY*s2y*c2x
	h25 := -2*t15.X*sx + 4*t15.XY*sx*cy + 4*t15.XXYY*s2x*c2y
	h34 := 4 * hp.T34.XXY * (sy*s2x - s2y*sx)
	t35 := hp.T35
	h35 := 2*t35.X*(cx-cy) + 4*t35.XXY*(c2x*cy-cx*c2y)
	t45 := hp.T45
	h45 := 4*t45.XY*sx*sy + 4*t45.XXYY*s2x*s2y

	offDiagonal := []struct {
		i, j int
		v    complex128
	}{
		{0, 1, complex(h12, 0)},
		{0, 2, complex(0, h13)},
		{1, 2, complex(0, h23)},
		{0, 3, complex(0, h14)},
		{1, 3, complex(0, h24)},
		{0, 4, complex(0, h15)},
		{1, 4, complex(0, h25)},
		{2, 3, complex(h34, 0)},
		{2, 4, complex(h35, 0)},
		{3, 4, complex(h45, 0)},
	}
	for _, o := range offDiagonal {
		h.Set(o.i, o.j, o.v)
		h.Set(o.j, o.i, complex(real(o.v), -imag(o.v)))
	}
	return h
}

// SpinfulHamiltonian returns the 10x10 Hamiltonian H (x) 1 + zeeman 1 (x) sigma_z.
// Basis index 2*orbital + spin.
func SpinfulHamiltonian(kx, ky float64, p Params) *mat.Dense {
	h := Hamiltonian(kx, ky, p)
	h.Kron(mat.Identity(2))
	z := mat.Identity(NumOrbitals)
	z.Kron(mat.M(mat.PauliZ))
	h.Add(complex(p.Zeeman, 0), z)
	return h
}

// Path returns Gamma -> X -> M -> Gamma.
func Path(samples int) (band.Path, error) {
	vertices := []band.Vertex{
		{Name: "Gamma", K: [2]float64{0, 0}},
		{Name: "X", K: [2]float64{math.Pi, 0}},
		{Name: "M", K: [2]float64{math.Pi, math.Pi}},
		{Name: "Gamma", K: [2]float64{0, 0}},
	}
	path, err := band.NewPath(vertices, samples)
	if err != nil {
		return band.Path{}, errors.Wrap(err, "")
	}
	return path, nil
}

// BandStructure returns the five bands along Path.
func BandStructure(p Params, samples int) (band.Structure, error) {
	path, err := Path(samples)
	if err != nil {
		return band.Structure{}, errors.Wrap(err, "")
	}
	h := func(k [2]float64) (*mat.Dense, error) { return Hamiltonian(k[0], k[1], p), nil }
	s, err := band.Assemble(h, path)
	if err != nil {
		return band.Structure{}, errors.Wrap(err, "")
	}
	return s, nil
}

// FermiSurface returns the points along Path where a band crosses the chemical potential p.Mu.
func FermiSurface(p Params, samples int) ([]band.Crossing, error) {
	s, err := BandStructure(p, samples)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return band.FermiCrossings(s, 0), nil
}

// ChemicalPotential returns the chemical potential for filling electrons per Fe, counting both spins, on an nk x nk grid of the Brillouin zone.
// The returned value is absolute, ignoring p.Mu.
func ChemicalPotential(p Params, filling float64, nk int) (float64, error) {
	if !(filling > 0 && filling < 2*NumOrbitals) {
		return math.NaN(), errors.Wrapf(condmat.ErrInvalidParameter, "filling %f", filling)
	}
	if nk < 1 {
		return math.NaN(), errors.Wrapf(condmat.ErrInvalidParameter, "%d k-points", nk)
	}

	q := p
	q.Mu = 0
	levels := make([]float64, 0, nk*nk*NumOrbitals)
	for _, kx := range gridPoints(nk) {
		for _, ky := range gridPoints(nk) {
			vals, err := mat.Eigvalsh(Hamiltonian(kx, ky, q))
			if err != nil {
				return math.NaN(), errors.Wrap(err, "")
			}
			levels = append(levels, vals...)
		}
	}
	mu, err := band.ChemicalPotential(levels, filling/2*float64(nk*nk))
	if err != nil {
		return math.NaN(), errors.Wrap(err, "")
	}
	return mu, nil
}

// gridPoints returns nk evenly spaced momenta 2 pi i/nk - pi, a grid that samples every point of the Brillouin zone once.
func gridPoints(nk int) []float64 {
	ks := make([]float64, 0, nk)
	for i := range nk {
		ks = append(ks, 2*math.Pi*float64(i)/float64(nk)-math.Pi)
	}
	return ks
}
