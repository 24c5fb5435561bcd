package tbg

import (
	"flag"
	"fmt"
	"log"
	"math"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/fumin/condmat"
	"github.com/fumin/condmat/mat"
)

func TestHermitian(t *testing.T) {
	t.Parallel()
	tests := []struct {
		theta float64
		p     Params
	}{
		{theta: 0.1, p: Realistic()},
		{theta: 0.5, p: Realistic()},
		{theta: 1.05, p: Realistic()},
		{theta: -2, p: Simplified()},
		{theta: 10, p: Simplified()},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v %v", test.theta, test.p.W0), func(t *testing.T) {
			t.Parallel()
			for _, k := range [][2]float64{{0, 0}, {0.01, -0.003}, {-0.2, 0.1}} {
				h, err := NewHamiltonian(k[0], k[1], test.theta, test.p)
				if err != nil {
					t.Fatalf("%+v", err)
				}
				if d := h.HermitianDefect(); d >= 1e-10 {
					t.Fatalf("%v %g", k, d)
				}
			}
		})
	}
}

func TestInvalidAngle(t *testing.T) {
	t.Parallel()
	for _, theta := range []float64{0, 0.05, -0.09, 10.5, -30, math.NaN(), math.Inf(1)} {
		t.Run(fmt.Sprintf("%v", theta), func(t *testing.T) {
			t.Parallel()
			_, err := NewHamiltonian(0, 0, theta, Realistic())
			if !errors.Is(err, condmat.ErrInvalidParameter) {
				t.Fatalf("%+v", err)
			}
			_, err = Bandwidth(theta, Realistic())
			if !errors.Is(err, condmat.ErrInvalidParameter) {
				t.Fatalf("%+v", err)
			}
		})
	}

	if _, err := NewHamiltonian(math.NaN(), 0, 1, Realistic()); !errors.Is(err, condmat.ErrInvalidParameter) {
		t.Fatalf("%+v", err)
	}
	p := Realistic()
	p.Shells = 0
	if _, err := NewModel(1, p); !errors.Is(err, condmat.ErrInvalidParameter) {
		t.Fatalf("%+v", err)
	}
}

func TestReflection(t *testing.T) {
	t.Parallel()
	for _, theta := range []float64{0.3, 1.05, 4} {
		h, err := NewHamiltonian(0.004, 0.002, theta, Realistic())
		if err != nil {
			t.Fatalf("%+v", err)
		}
		hr, err := NewHamiltonian(0.004, 0.002, -theta, Realistic())
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if !h.Equal(hr) {
			t.Fatalf("%v", theta)
		}
	}
}

func TestDim(t *testing.T) {
	t.Parallel()
	var dim int
	for _, theta := range []float64{0.5, 1.05, 3} {
		m, err := NewModel(theta, Realistic())
		if err != nil {
			t.Fatalf("%+v", err)
		}
		var layers [2]int
		for _, s := range m.sites {
			layers[s.layer]++
		}
		if layers[0] != layers[1] {
			t.Fatalf("%v", layers)
		}
		if dim != 0 && m.Dim() != dim {
			t.Fatalf("%d %d", m.Dim(), dim)
		}
		dim = m.Dim()

		h := m.Hamiltonian([2]float64{0, 0})
		if h.Rows() != dim || h.Cols() != dim {
			t.Fatalf("%d %d %d", h.Rows(), h.Cols(), dim)
		}
	}
}

func TestDecoupled(t *testing.T) {
	t.Parallel()
	p := Realistic()
	p.W0, p.W1 = 0, 0
	m, err := NewModel(1, p)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	// Without tunneling the spectrum at k = 0 is +-hbar v |Q| for each plane wave.
	vals, err := mat.Eigvalsh(m.Hamiltonian([2]float64{0, 0}))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	lo, hi := m.FlatBands()
	if math.Abs(vals[lo]) > 1e-12 || math.Abs(vals[hi]) > 1e-12 {
		t.Fatalf("%g %g", vals[lo], vals[hi])
	}
	// The next levels come from Q = q1 in layer 2.
	gap := p.HbarV * m.KTheta()
	if math.Abs(vals[hi+1]-gap) > 1e-9 || math.Abs(vals[lo-1]+gap) > 1e-9 {
		t.Fatalf("%g %g %g", vals[lo-1], vals[hi+1], gap)
	}
}

func TestChiralSymmetry(t *testing.T) {
	t.Parallel()
	s, err := CalculateBandStructure(1.05, 4, Simplified())
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(s.Path.Points) != 13 {
		t.Fatalf("%d", len(s.Path.Points))
	}
	for i, l := range s.Path.Labels {
		if l.Index != 4*i {
			t.Fatalf("%d %#v", i, l)
		}
	}
	if s.Path.Labels[1].Name != "Gamma" {
		t.Fatalf("%#v", s.Path.Labels)
	}

	// Without AA tunneling the spectrum is symmetric about zero.
	for i, vals := range s.Energies {
		n := len(vals)
		for b := range n / 2 {
			if math.Abs(vals[b]+vals[n-1-b]) > 1e-9 {
				t.Fatalf("%d %d %g %g", i, b, vals[b], vals[n-1-b])
			}
		}
	}
}

func TestMagicAngle(t *testing.T) {
	t.Parallel()
	p := Realistic()
	p.Samples = 10
	bw := make(map[float64]float64)
	for _, theta := range []float64{0.5, 1.05, 1.5} {
		w, err := Bandwidth(theta, p)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		bw[theta] = w
	}
	if !(bw[1.05] < bw[1.5]) || !(bw[1.05] < bw[0.5]) {
		t.Fatalf("%v", bw)
	}
}

func TestScan(t *testing.T) {
	t.Parallel()
	p := Realistic()
	p.Samples = 6
	angles := []float64{1.5, 1.05, 0.5}

	sequential, err := Scan(angles, p)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	parallel, err := Scan(angles, p, NewScanOptions().Workers(3))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for i := range angles {
		if sequential.Bandwidths[i] != parallel.Bandwidths[i] {
			t.Fatalf("%d %g %g", i, sequential.Bandwidths[i], parallel.Bandwidths[i])
		}
	}
	if sequential.MagicAngle != 1.05 || sequential.MinBandwidth != sequential.Bandwidths[1] {
		t.Fatalf("%#v", sequential)
	}

	if _, err := Scan([]float64{1, 0.01}, p, NewScanOptions().Workers(2)); !errors.Is(err, condmat.ErrInvalidParameter) {
		t.Fatalf("%+v", err)
	}
	if _, err := Scan(nil, p); !errors.Is(err, condmat.ErrInvalidParameter) {
		t.Fatalf("%+v", err)
	}
}

func TestScanStopsOnFailure(t *testing.T) {
	t.Parallel()
	angles := floats.Span(make([]float64, 10), 1, 2)
	var calls atomic.Int32
	bandwidth := func(theta float64, p Params) (float64, error) {
		if calls.Add(1) == 2 {
			return math.NaN(), errors.Wrapf(condmat.ErrNumerical, "theta %f", theta)
		}
		return theta, nil
	}
	_, err := scan(angles, Realistic(), NewScanOptions().Workers(1), bandwidth)
	if !errors.Is(err, condmat.ErrNumerical) {
		t.Fatalf("%+v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Fatalf("%d angles computed after the failure", n-2)
	}

	calls.Store(0)
	res, err := scan(angles[2:], Realistic(), NewScanOptions().Workers(3), func(theta float64, p Params) (float64, error) {
		calls.Add(1)
		return math.Abs(theta - 1.5), nil
	})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if int(calls.Load()) != len(angles)-2 || res.MinBandwidth != floats.Min(res.Bandwidths) {
		t.Fatalf("%d %#v", calls.Load(), res)
	}
}

func TestPath(t *testing.T) {
	t.Parallel()
	m, err := NewModel(1.05, Realistic())
	if err != nil {
		t.Fatalf("%+v", err)
	}
	path, err := m.Path(5)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	names := make([]string, 0, len(path.Labels))
	for _, l := range path.Labels {
		names = append(names, l.Name)
	}
	if fmt.Sprintf("%v", names) != "[K Gamma M K']" {
		t.Fatalf("%v", names)
	}

	// K and K' are the Dirac points of the two layers, a moire wavevector apart, and Gamma is kTheta from K.
	k := path.Points[path.Labels[0].Index]
	gamma := path.Points[path.Labels[1].Index]
	kp := path.Points[path.Labels[3].Index]
	if k != [2]float64{0, 0} {
		t.Fatalf("%v", k)
	}
	for _, v := range [][2]float64{gamma, kp} {
		if d := math.Hypot(v[0], v[1]); math.Abs(d-m.KTheta()) > 1e-12 {
			t.Fatalf("%v %f %f", v, d, m.KTheta())
		}
	}
}

func TestDefaultScanAngles(t *testing.T) {
	t.Parallel()
	angles := DefaultScanAngles()
	if len(angles) != 45 {
		t.Fatalf("%d", len(angles))
	}
	if angles[0] != 0.3 || angles[9] != 0.9 || angles[10] != 0.9 || angles[44] != 2.5 {
		t.Fatalf("%v", angles)
	}
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}
