package tbg

import (
	"math"

	"github.com/pkg/errors"

	"github.com/fumin/condmat"
)

const (
	// MinTwistAngle is the smallest accepted |theta| in degrees.
	// The moire period a/(2 sin(theta/2)) diverges as theta goes to zero, and so does the plane-wave basis needed to converge the bands.
	MinTwistAngle = 0.1
	// MaxTwistAngle is the largest accepted |theta| in degrees, beyond which the continuum approximation does not hold.
	MaxTwistAngle = 10

	// grapheneLattice is the lattice constant of graphene in Angstrom.
	grapheneLattice = 2.46
)

// Params are the continuum model parameters.
type Params struct {
	// HbarV is the Dirac velocity of monolayer graphene times hbar, in eV Angstrom.
	HbarV float64
	// W0 and W1 are the AA and AB interlayer tunneling amplitudes in eV.
	W0 float64
	W1 float64
	// A is the graphene lattice constant in Angstrom.
	A float64

	// Shells is the plane-wave cutoff radius in units of the moire reciprocal lattice constant.
	Shells float64
	// Samples is the number of k-points per path segment used by Bandwidth.
	Samples int
}

// Realistic returns the experimentally fitted parameters, hbar v/a = 2.1354 eV, w0 = 79.7 meV and w1 = 97.5 meV.
// See Koshino et al., Phys. Rev. X 8, 031087 (2018).
func Realistic() Params {
	return Params{
		HbarV:   2.1354 * grapheneLattice,
		W0:      0.0797,
		W1:      0.0975,
		A:       grapheneLattice,
		Shells:  3,
		Samples: 20,
	}
}

// Simplified returns the chiral limit w0 = 0 with the isotropic tunneling w1 = 110 meV of Bistritzer and MacDonald, PNAS 108, 12233 (2011).
func Simplified() Params {
	p := Realistic()
	p.HbarV = 5.944
	p.W0 = 0
	p.W1 = 0.110
	return p
}

// Preset returns Realistic when realistic is true, and Simplified otherwise.
func Preset(realistic bool) Params {
	if realistic {
		return Realistic()
	}
	return Simplified()
}

func (p Params) validate() error {
	switch {
	case !(p.HbarV > 0):
		return errors.Wrapf(condmat.ErrInvalidParameter, "hbar v %f", p.HbarV)
	case !(p.W0 >= 0) || !(p.W1 >= 0) || math.IsInf(p.W0, 0) || math.IsInf(p.W1, 0):
		return errors.Wrapf(condmat.ErrInvalidParameter, "tunneling %f %f", p.W0, p.W1)
	case !(p.A > 0):
		return errors.Wrapf(condmat.ErrInvalidParameter, "lattice constant %f", p.A)
	case !(p.Shells >= 1):
		return errors.Wrapf(condmat.ErrInvalidParameter, "shells %f", p.Shells)
	case p.Samples < 1:
		return errors.Wrapf(condmat.ErrInvalidParameter, "samples %d", p.Samples)
	}
	return nil
}

func validateAngle(theta float64) error {
	a := math.Abs(theta)
	if math.IsNaN(a) || a < MinTwistAngle || a > MaxTwistAngle {
		return errors.Wrapf(condmat.ErrInvalidParameter, "twist angle %f outside [%g, %g] degrees", theta, float64(MinTwistAngle), float64(MaxTwistAngle))
	}
	return nil
}
