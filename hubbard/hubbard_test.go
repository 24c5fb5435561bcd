package hubbard

import (
	"flag"
	"fmt"
	"log"
	"math"
	"slices"
	"testing"

	"github.com/pkg/errors"

	"github.com/fumin/condmat"
	"github.com/fumin/condmat/mat"
)

func TestFreeFermions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		l int
	}{
		{l: 4},
		{l: 6},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d", test.l), func(t *testing.T) {
			t.Parallel()
			p := DefaultParams(test.l)
			h, err := NewHamiltonian(p)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			g, err := h.GroundState()
			if err != nil {
				t.Fatalf("%+v", err)
			}

			eps := make([]float64, 0, test.l)
			for k := range test.l {
				eps = append(eps, -2*p.T*math.Cos(2*math.Pi*float64(k)/float64(test.l)))
			}
			slices.Sort(eps)
			var expected float64
			for _, e := range eps[:p.NUp] {
				expected += e
			}
			for _, e := range eps[:p.NDown] {
				expected += e
			}
			if math.Abs(g.Energy-expected) > 1e-10 {
				t.Fatalf("%f %f", g.Energy, expected)
			}

			// The L = 4 ground state is degenerate and need not be translation invariant.
			if test.l%4 == 0 {
				return
			}
			for i, d := range g.Density() {
				if math.Abs(d-1) > 1e-8 {
					t.Fatalf("%d %f", i, d)
				}
			}
		})
	}
}

func TestTwoSites(t *testing.T) {
	t.Parallel()
	for _, u := range []float64{0, 1, 4, 8} {
		for _, periodic := range []bool{false, true} {
			p := DefaultParams(2)
			p.U, p.Periodic = u, periodic
			h, err := NewHamiltonian(p)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if h.Dim() != 4 {
				t.Fatalf("%d", h.Dim())
			}
			g, err := h.GroundState()
			if err != nil {
				t.Fatalf("%+v", err)
			}
			expected := (u - math.Sqrt(u*u+16*p.T*p.T)) / 2
			if math.Abs(g.Energy-expected) > 1e-12 {
				t.Fatalf("%f %v %f %f", u, periodic, g.Energy, expected)
			}
		}
	}

	// Both fermions occupy the bonding orbital, so <D+_i D_j> = 1/4 for all i, j.
	h, err := NewHamiltonian(DefaultParams(2))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	s, err := PairingCorrelation(h, 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if math.Abs(s-0.25) > 1e-12 {
		t.Fatalf("%f", s)
	}
}

func TestDense(t *testing.T) {
	t.Parallel()
	p := DefaultParams(4)
	p.U = 3
	h, err := NewHamiltonian(p)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if h.Dim() != 36 {
		t.Fatalf("%d", h.Dim())
	}
	m := h.Dense()
	if d := m.HermitianDefect(); d != 0 {
		t.Fatalf("%g", d)
	}
	vals, err := mat.Eigvalsh(m)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	g, err := h.GroundState()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if math.Abs(vals[0]-g.Energy) > 1e-10 {
		t.Fatalf("%f %f", vals[0], g.Energy)
	}
	if e := h.Energy(g.Vector); math.Abs(e-g.Energy) > 1e-10 {
		t.Fatalf("%f %f", e, g.Energy)
	}
}

func TestSymmetry(t *testing.T) {
	t.Parallel()
	p := DefaultParams(6)
	p.U = 4
	h, err := NewHamiltonian(p)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	g, err := h.GroundState()
	if err != nil {
		t.Fatalf("%+v", err)
	}

	// Translation invariance, S(i, j) = S(i+1, j+1).
	pm := g.PairingMatrix()
	for i := range p.L {
		for j := range p.L {
			if math.Abs(pm[i][j]-pm[(i+1)%p.L][(j+1)%p.L]) > 1e-8 {
				t.Fatalf("%d %d %f %f", i, j, pm[i][j], pm[(i+1)%p.L][(j+1)%p.L])
			}
			if math.Abs(pm[i][j]-pm[j][i]) > 1e-8 {
				t.Fatalf("%d %d %f %f", i, j, pm[i][j], pm[j][i])
			}
		}
	}

	// Reflection, P(r) = P(L-r).
	pr := g.PairingCorrelations()
	for r := 1; r < p.L; r++ {
		if math.Abs(pr[r]-pr[p.L-r]) > 1e-8 {
			t.Fatalf("%d %v", r, pr)
		}
	}
	if math.Abs(pr[0]-g.DoubleOccupancy()) > 1e-10 {
		t.Fatalf("%f %f", pr[0], g.DoubleOccupancy())
	}

	// The ground state is a singlet, so sum_r <S_0 . S_r> = 0.
	sr := g.SpinCorrelations()
	var total float64
	for _, s := range sr {
		total += s
	}
	if math.Abs(total) > 1e-8 {
		t.Fatalf("%v", sr)
	}
	if math.Abs(sr[0]-0.75*(1-2*g.DoubleOccupancy())) > 1e-8 {
		t.Fatalf("%f %f", sr[0], g.DoubleOccupancy())
	}
	if !(sr[1] < 0) {
		t.Fatalf("%v", sr)
	}
}

func TestOpenChain(t *testing.T) {
	t.Parallel()
	p := DefaultParams(4)
	p.Periodic = false
	h, err := NewHamiltonian(p)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	g, err := h.GroundState()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	// Open chain levels -2t cos(k pi/(L+1)).
	var expected float64
	for k := 1; k <= 2; k++ {
		expected += 2 * -2 * math.Cos(float64(k)*math.Pi/5)
	}
	if math.Abs(g.Energy-expected) > 1e-10 {
		t.Fatalf("%f %f", g.Energy, expected)
	}
}

func TestArnoldi(t *testing.T) {
	t.Parallel()
	p := DefaultParams(6)
	p.U = 4
	h, err := NewHamiltonian(p)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	dense, err := h.GroundState()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	g, err := h.GroundStateArnoldi()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if math.Abs(g.Energy-dense.Energy) > 1e-3 {
		t.Fatalf("%f %f", g.Energy, dense.Energy)
	}
}

func TestLimits(t *testing.T) {
	t.Parallel()
	tests := []struct {
		p   Params
		err error
	}{
		{p: DefaultParams(20), err: condmat.ErrResourceLimit},
		{p: DefaultParams(10), err: condmat.ErrResourceLimit},
		{p: DefaultParams(1), err: condmat.ErrInvalidParameter},
		{p: Params{L: 4, T: 1, NUp: 5, NDown: 1}, err: condmat.ErrInvalidParameter},
		{p: Params{L: 4, T: math.NaN(), NUp: 2, NDown: 2}, err: condmat.ErrInvalidParameter},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%#v", test.p), func(t *testing.T) {
			t.Parallel()
			_, err := NewHamiltonian(test.p)
			if !errors.Is(err, test.err) {
				t.Fatalf("%+v", err)
			}
		})
	}

	if SectorSize(8, 4, 4) != 4900 {
		t.Fatalf("%d", SectorSize(8, 4, 4))
	}
}

func TestDenseLimit(t *testing.T) {
	t.Parallel()
	if n := SectorSize(7, 4, 3); n > MaxDenseBasisSize {
		t.Fatalf("%d %d", n, MaxDenseBasisSize)
	}
	if n := SectorSize(8, 4, 4); n <= MaxDenseBasisSize || n > MaxBasisSize {
		t.Fatalf("%d %d %d", n, MaxDenseBasisSize, MaxBasisSize)
	}

	h, err := NewHamiltonian(DefaultParams(8))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if h.Dim() != 4900 {
		t.Fatalf("%d", h.Dim())
	}
	if _, err := h.GroundStateDense(); !errors.Is(err, condmat.ErrResourceLimit) {
		t.Fatalf("%+v", err)
	}
}

func TestPairStructureFactor(t *testing.T) {
	t.Parallel()
	p := DefaultParams(6)
	p.U = -2
	h, err := NewHamiltonian(p)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	g, err := h.GroundState()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	s, err := PairingCorrelation(h, p.L)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if math.Abs(g.PairStructureFactor()-s) > 1e-10 {
		t.Fatalf("%f %f", g.PairStructureFactor(), s)
	}

	// S_pair is the average of P(r) over distances on a periodic chain.
	var avg float64
	for _, v := range g.PairingCorrelations() {
		avg += v
	}
	avg /= float64(p.L)
	if math.Abs(avg-s) > 1e-10 {
		t.Fatalf("%f %f", avg, s)
	}

	if _, err := PairingCorrelation(h, 4); !errors.Is(err, condmat.ErrInvalidParameter) {
		t.Fatalf("%+v", err)
	}
}

func TestNotSymmetric(t *testing.T) {
	t.Parallel()
	h, err := NewHamiltonian(DefaultParams(4))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	i := slices.IndexFunc(h.entries, func(e entry) bool { return e.row != e.col })
	if i < 0 {
		t.Fatalf("no off-diagonal elements")
	}
	h.entries[i].v += 0.5

	solvers := []struct {
		name  string
		solve func() (GroundState, error)
	}{
		{name: "dense", solve: h.GroundStateDense},
		{name: "arnoldi", solve: h.GroundStateArnoldi},
		{name: "auto", solve: h.GroundState},
	}
	for _, solver := range solvers {
		if _, err := solver.solve(); !errors.Is(err, condmat.ErrNumerical) {
			t.Fatalf("%s %+v", solver.name, err)
		}
	}
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}
