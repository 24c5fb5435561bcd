package band

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/fumin/condmat"
)

// Crossing is a point where a band crosses the Fermi level.
type Crossing struct {
	Band int
	// Segment is the index of the path point preceding the crossing.
	Segment  int
	K        [2]float64
	Distance float64
}

// FermiCrossings returns the points where a band crosses mu, in path order.
// Between adjacent samples the band is linearly interpolated.
func FermiCrossings(s Structure, mu float64) []Crossing {
	crossings := make([]Crossing, 0)
	for i := 0; i+1 < len(s.Energies); i++ {
		for b := range s.NumBands() {
			e0, e1 := s.Energies[i][b]-mu, s.Energies[i+1][b]-mu
			var t float64
			switch {
			case e0 == 0:
				t = 0
			case e0*e1 < 0:
				t = e0 / (e0 - e1)
			case e1 == 0 && i+2 == len(s.Energies):
				// A sample exactly at mu is reported by the segment starting at it, except for the last sample.
				t = 1
			default:
				continue
			}

			k0, k1 := s.Path.Points[i], s.Path.Points[i+1]
			d0, d1 := s.Path.Distance[i], s.Path.Distance[i+1]
			c := Crossing{
				Band:     b,
				Segment:  i,
				K:        [2]float64{k0[0] + t*(k1[0]-k0[0]), k0[1] + t*(k1[1]-k0[1])},
				Distance: d0 + t*(d1-d0),
			}
			crossings = append(crossings, c)
		}
	}
	return crossings
}

// ChemicalPotential returns the mu that fills the lowest states levels, midway between the highest occupied and the lowest empty level.
// states is rounded to the nearest integer.
func ChemicalPotential(levels []float64, states float64) (float64, error) {
	n := int(states + 0.5)
	if n <= 0 || n >= len(levels) {
		return 0, errors.Wrapf(condmat.ErrInvalidParameter, "%f states for %d levels", states, len(levels))
	}
	sorted := slices.Clone(levels)
	slices.Sort(sorted)
	return (sorted[n-1] + sorted[n]) / 2, nil
}
