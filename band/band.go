// Package band assembles band structures along paths in reciprocal space.
//
// The band index at each k-point is the rank of the eigenvalue in ascending order.
// Bands that cross are therefore not tracked across points: after a crossing, band i continues on the other branch.
package band

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/fumin/condmat"
	"github.com/fumin/condmat/mat"
)

// Vertex is a named high-symmetry point.
type Vertex struct {
	Name string
	K    [2]float64
}

// Label marks the k-point index at which a high-symmetry point lies.
type Label struct {
	Name  string
	Index int
}

// Path is an ordered sequence of k-points.
type Path struct {
	Points [][2]float64
	// Distance is the cumulative length along the path.
	Distance []float64
	Labels   []Label
}

// NewPath linearly interpolates between vertices with n samples per segment.
// Segment i contributes the points (1-t)V_i + tV_{i+1} for t = 0, 1/n, ... (n-1)/n, and the last vertex closes the path.
func NewPath(vertices []Vertex, n int) (Path, error) {
	if len(vertices) < 2 {
		return Path{}, errors.Wrapf(condmat.ErrInvalidParameter, "%d vertices", len(vertices))
	}
	if n < 1 {
		return Path{}, errors.Wrapf(condmat.ErrInvalidParameter, "%d samples per segment", n)
	}

	numPoints := n*(len(vertices)-1) + 1
	p := Path{
		Points:   make([][2]float64, 0, numPoints),
		Distance: make([]float64, 0, numPoints),
		Labels:   make([]Label, 0, len(vertices)),
	}
	for i, v := range vertices[:len(vertices)-1] {
		p.Labels = append(p.Labels, Label{Name: v.Name, Index: len(p.Points)})
		w := vertices[i+1]
		for s := range n {
			t := float64(s) / float64(n)
			p.add([2]float64{(1-t)*v.K[0] + t*w.K[0], (1-t)*v.K[1] + t*w.K[1]})
		}
	}
	last := vertices[len(vertices)-1]
	p.Labels = append(p.Labels, Label{Name: last.Name, Index: len(p.Points)})
	p.add(last.K)
	return p, nil
}

func (p *Path) add(k [2]float64) {
	var d float64
	if len(p.Points) > 0 {
		prev := p.Points[len(p.Points)-1]
		d = p.Distance[len(p.Distance)-1] + math.Hypot(k[0]-prev[0], k[1]-prev[1])
	}
	p.Points = append(p.Points, k)
	p.Distance = append(p.Distance, d)
}

// Hamiltonian builds the Hamiltonian at a k-point.
type Hamiltonian func(k [2]float64) (*mat.Dense, error)

// Structure is a band structure, Energies[i][b] being the b-th lowest eigenvalue at Path.Points[i].
type Structure struct {
	Path     Path
	Energies [][]float64
}

// Assemble diagonalizes h at every point of the path, in order.
// A failure at any point aborts the whole computation.
func Assemble(h Hamiltonian, path Path) (Structure, error) {
	s := Structure{Path: path, Energies: make([][]float64, 0, len(path.Points))}
	for i, k := range path.Points {
		m, err := h(k)
		if err != nil {
			return Structure{}, errors.Wrap(err, fmt.Sprintf("k-point %d %v", i, k))
		}
		vals, err := mat.Eigvalsh(m)
		if err != nil {
			return Structure{}, errors.Wrap(err, fmt.Sprintf("k-point %d %v", i, k))
		}
		if i > 0 && len(vals) != len(s.Energies[0]) {
			return Structure{}, errors.Wrapf(condmat.ErrNumerical, "k-point %d has %d bands, expected %d", i, len(vals), len(s.Energies[0]))
		}
		s.Energies = append(s.Energies, vals)
	}
	return s, nil
}

func (s Structure) NumBands() int {
	if len(s.Energies) == 0 {
		return 0
	}
	return len(s.Energies[0])
}

// Band returns the energies of band b along the path.
func (s Structure) Band(b int) []float64 {
	e := make([]float64, 0, len(s.Energies))
	for _, vals := range s.Energies {
		e = append(e, vals[b])
	}
	return e
}

// Width returns max(band hi) - min(band lo), the total width of the bands lo through hi.
func (s Structure) Width(lo, hi int) float64 {
	return floats.Max(s.Band(hi)) - floats.Min(s.Band(lo))
}
