// Package tbg implements the Bistritzer-MacDonald continuum model of twisted bilayer graphene.
//
// The basis consists of plane waves Q on the moire reciprocal lattice, Q = G for layer 1 and Q = G + q1 for layer 2.
// It is truncated to a disk of radius Shells*|b1| centered at q1/2, which keeps equally many waves in each layer.
// Layer 1 is rotated by -theta/2 and layer 2 by +theta/2, so the model depends on |theta| only.
package tbg

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/fumin/condmat"
	"github.com/fumin/condmat/band"
	"github.com/fumin/condmat/mat"
)

type site struct {
	layer int
	m     [2]int
	q     [2]float64
}

// Model is the continuum Hamiltonian at a fixed twist angle.
type Model struct {
	p Params
	// theta is |theta| in radians.
	theta  float64
	kTheta float64
	q      [3][2]float64

	sites []site
	index map[[3]int]int
	t     [3]*mat.Dense
}

// NewModel builds the plane-wave basis of the model at a twist angle theta in degrees.
func NewModel(theta float64, p Params) (*Model, error) {
	if err := validateAngle(theta); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := p.validate(); err != nil {
		return nil, errors.Wrap(err, "")
	}

	m := &Model{p: p, theta: math.Abs(theta) * math.Pi / 180}
	kDirac := 4 * math.Pi / (3 * p.A)
	m.kTheta = 2 * kDirac * math.Sin(m.theta/2)
	for j := range m.q {
		phi := 2 * math.Pi * float64(j) / 3
		// q1 = kTheta(0, -1) rotated by 2 pi j/3.
		m.q[j] = [2]float64{m.kTheta * math.Sin(phi), -m.kTheta * math.Cos(phi)}

		w1 := complex(p.W1, 0)
		m.t[j] = mat.M([][]complex128{
			{complex(p.W0, 0), w1 * complex(math.Cos(phi), -math.Sin(phi))},
			{w1 * complex(math.Cos(phi), math.Sin(phi)), complex(p.W0, 0)},
		})
	}

	b1 := sub(m.q[1], m.q[0])
	b2 := sub(m.q[2], m.q[0])
	radius := p.Shells * math.Hypot(b1[0], b1[1])
	center := [2]float64{m.q[0][0] / 2, m.q[0][1] / 2}
	// |m1 b1 + m2 b2| >= sqrt(3)/2 |b1| max(|m1|, |m2|).
	bound := int(math.Ceil(2*p.Shells/math.Sqrt(3))) + 1

	m.index = make(map[[3]int]int)
	for layer := range 2 {
		for m1 := -bound; m1 <= bound; m1++ {
			for m2 := -bound; m2 <= bound; m2++ {
				q := [2]float64{float64(m1)*b1[0] + float64(m2)*b2[0], float64(m1)*b1[1] + float64(m2)*b2[1]}
				if layer == 1 {
					q = add(q, m.q[0])
				}
				d := sub(q, center)
				if math.Hypot(d[0], d[1]) > radius*(1+1e-12) {
					continue
				}
				m.index[[3]int{layer, m1, m2}] = len(m.sites)
				m.sites = append(m.sites, site{layer: layer, m: [2]int{m1, m2}, q: q})
			}
		}
	}
	return m, nil
}

// Dim returns the matrix dimension, two sublattices per plane wave.
func (m *Model) Dim() int { return 2 * len(m.sites) }

// KTheta returns the moire wavevector 2|K|sin(theta/2) in inverse Angstrom.
func (m *Model) KTheta() float64 { return m.kTheta }

// Hamiltonian returns the Hamiltonian at momentum k, measured from the layer 1 Dirac point.
func (m *Model) Hamiltonian(k [2]float64) *mat.Dense {
	h := mat.Zeros(m.Dim(), m.Dim())
	for n, s := range m.sites {
		phi := -m.theta / 2
		if s.layer == 1 {
			phi = m.theta / 2
		}
		px, py := k[0]-s.q[0], k[1]-s.q[1]
		rx := math.Cos(phi)*px - math.Sin(phi)*py
		ry := math.Sin(phi)*px + math.Cos(phi)*py
		h.Set(2*n, 2*n+1, complex(m.p.HbarV*rx, -m.p.HbarV*ry))
		h.Set(2*n+1, 2*n, complex(m.p.HbarV*rx, m.p.HbarV*ry))
	}

	// Q2 - Q1 = q_j for Q2 = Q1 + q1 + (0, b1, b2)_j.
	offsets := [3][2]int{{0, 0}, {1, 0}, {0, 1}}
	for n, s := range m.sites {
		if s.layer != 0 {
			continue
		}
		for j, o := range offsets {
			n2, ok := m.index[[3]int{1, s.m[0] + o[0], s.m[1] + o[1]}]
			if !ok {
				continue
			}
			h.SetBlock(2*n2, 2*n, m.t[j])
			h.SetBlock(2*n, 2*n2, m.t[j].H())
		}
	}
	return h
}

// Path returns the path K -> Gamma -> M -> K' of the moire Brillouin zone, where K and K' are the Dirac points of layer 1 and 2.
func (m *Model) Path(samples int) (band.Path, error) {
	vertices := []band.Vertex{
		{Name: "K", K: [2]float64{0, 0}},
		{Name: "Gamma", K: [2]float64{-m.q[2][0], -m.q[2][1]}},
		{Name: "M", K: [2]float64{m.q[0][0] / 2, m.q[0][1] / 2}},
		{Name: "K'", K: m.q[0]},
	}
	path, err := band.NewPath(vertices, samples)
	if err != nil {
		return band.Path{}, errors.Wrap(err, "")
	}
	return path, nil
}

// BandStructure diagonalizes the model along Path.
func (m *Model) BandStructure(samples int) (band.Structure, error) {
	path, err := m.Path(samples)
	if err != nil {
		return band.Structure{}, errors.Wrap(err, "")
	}
	h := func(k [2]float64) (*mat.Dense, error) { return m.Hamiltonian(k), nil }
	s, err := band.Assemble(h, path)
	if err != nil {
		return band.Structure{}, errors.Wrap(err, "")
	}
	return s, nil
}

// FlatBands returns the indices of the two bands nearest charge neutrality.
func (m *Model) FlatBands() (int, int) {
	return m.Dim()/2 - 1, m.Dim() / 2
}

// NewHamiltonian returns the Hamiltonian at (kx, ky) in inverse Angstrom for a twist angle theta in degrees.
func NewHamiltonian(kx, ky, theta float64, p Params) (*mat.Dense, error) {
	if math.IsNaN(kx) || math.IsInf(kx, 0) || math.IsNaN(ky) || math.IsInf(ky, 0) {
		return nil, errors.Wrapf(condmat.ErrInvalidParameter, "k %f %f", kx, ky)
	}
	m, err := NewModel(theta, p)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return m.Hamiltonian([2]float64{kx, ky}), nil
}

// CalculateBandStructure returns the bands along K -> Gamma -> M -> K' with samples points per segment.
func CalculateBandStructure(theta float64, samples int, p Params) (band.Structure, error) {
	m, err := NewModel(theta, p)
	if err != nil {
		return band.Structure{}, errors.Wrap(err, "")
	}
	s, err := m.BandStructure(samples)
	if err != nil {
		return band.Structure{}, errors.Wrap(err, fmt.Sprintf("theta %f", theta))
	}
	return s, nil
}

// Bandwidth returns the total width of the two flat bands, max(upper) - min(lower) along the high-symmetry path.
func Bandwidth(theta float64, p Params) (float64, error) {
	m, err := NewModel(theta, p)
	if err != nil {
		return math.NaN(), errors.Wrap(err, "")
	}
	s, err := m.BandStructure(p.Samples)
	if err != nil {
		return math.NaN(), errors.Wrap(err, fmt.Sprintf("theta %f", theta))
	}
	lo, hi := m.FlatBands()
	return s.Width(lo, hi), nil
}

func add(a, b [2]float64) [2]float64 { return [2]float64{a[0] + b[0], a[1] + b[1]} }

func sub(a, b [2]float64) [2]float64 { return [2]float64{a[0] - b[0], a[1] - b[1]} }
