package fese

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/fumin/condmat"
	"github.com/fumin/condmat/mat"
)

// TwoOrbitalParams are the parameters of the minimal dxz, dyz model of Raghu et al., Phys. Rev. B 77, 220503 (2008).
type TwoOrbitalParams struct {
	T1  float64 `yaml:"t1"`
	T2  float64 `yaml:"t2"`
	T3  float64 `yaml:"t3"`
	TXY float64 `yaml:"txy"`
	Mu  float64 `yaml:"mu"`
}

func DefaultTwoOrbitalParams() TwoOrbitalParams {
	return TwoOrbitalParams{T1: -1, T2: 1.3, T3: -0.85, TXY: -0.85, Mu: 1.45}
}

// TwoOrbitalHamiltonian returns the 2x2 Hamiltonian in the dxz, dyz basis.
func TwoOrbitalHamiltonian(kx, ky float64, p TwoOrbitalParams) *mat.Dense {
	cx, cy := math.Cos(kx), math.Cos(ky)
	xz := -2*p.T1*cx - 2*p.T2*cy - 4*p.T3*cx*cy - p.Mu
	yz := -2*p.T2*cx - 2*p.T1*cy - 4*p.T3*cx*cy - p.Mu
	v := -4 * p.TXY * math.Sin(kx) * math.Sin(ky)
	return mat.M([][]complex128{
		{complex(xz, 0), complex(v, 0)},
		{complex(v, 0), complex(yz, 0)},
	})
}

// Grid holds the two bands on a square grid, Lower[i][j] being the lower band at (K[i], K[j]).
type Grid struct {
	K     []float64
	Lower [][]float64
	Upper [][]float64
}

// Band2D diagonalizes the two-orbital model on an nk x nk grid spanning [-pi, pi] in both directions.
func Band2D(p TwoOrbitalParams, nk int) (Grid, error) {
	if nk < 2 {
		return Grid{}, errors.Wrapf(condmat.ErrInvalidParameter, "%d k-points", nk)
	}
	g := Grid{K: floats.Span(make([]float64, nk), -math.Pi, math.Pi)}
	g.Lower = make([][]float64, nk)
	g.Upper = make([][]float64, nk)
	for i, kx := range g.K {
		g.Lower[i] = make([]float64, nk)
		g.Upper[i] = make([]float64, nk)
		for j, ky := range g.K {
			vals, err := mat.Eigvalsh(TwoOrbitalHamiltonian(kx, ky, p))
			if err != nil {
				return Grid{}, errors.Wrap(err, "")
			}
			g.Lower[i][j], g.Upper[i][j] = vals[0], vals[1]
		}
	}
	return g, nil
}
