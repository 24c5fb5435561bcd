package hubbard

import (
	"math/bits"

	"github.com/pkg/errors"

	"github.com/fumin/condmat"
)

const (
	Up   = 0
	Down = 1
)

// Basis is the set of occupation bit strings with fixed numbers of up and down fermions.
// Bit spin*L + site is the occupation of that mode.
type Basis struct {
	l      int
	states []uint32
	index  map[uint32]int
}

// NewBasis enumerates the sector in ascending order of the bit strings.
// Callers are responsible for bounding the sector size, see SectorSize.
func NewBasis(l, nUp, nDown int) *Basis {
	b := &Basis{l: l, states: make([]uint32, 0, SectorSize(l, nUp, nDown)), index: make(map[uint32]int)}
	ups := combinations(l, nUp)
	downs := combinations(l, nDown)
	for _, dn := range downs {
		for _, up := range ups {
			s := up | dn<<l
			b.index[s] = len(b.states)
			b.states = append(b.states, s)
		}
	}
	return b
}

func (b *Basis) Size() int { return len(b.states) }

func (b *Basis) State(i int) uint32 { return b.states[i] }

func (b *Basis) Index(s uint32) (int, bool) {
	i, ok := b.index[s]
	return i, ok
}

// Mode returns the bit of a spin at a site.
func (b *Basis) Mode(spin, site int) int { return spin*b.l + site }

// Occupied reports whether a spin is present at a site in state s.
func (b *Basis) Occupied(s uint32, spin, site int) bool {
	return s&(1<<b.Mode(spin, site)) != 0
}

// SectorSize returns C(l, nUp) * C(l, nDown), or -1 if the product overflows.
func SectorSize(l, nUp, nDown int) int {
	cu, cd := binomial(l, nUp), binomial(l, nDown)
	hi, lo := bits.Mul64(uint64(cu), uint64(cd))
	if hi != 0 || lo > 1<<62 {
		return -1
	}
	return int(lo)
}

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	k = min(k, n-k)
	c := 1
	for i := range k {
		c = c * (n - i) / (i + 1)
	}
	return c
}

func combinations(n, k int) []uint32 {
	cs := make([]uint32, 0, binomial(n, k))
	for s := uint32(0); s < 1<<n; s++ {
		if bits.OnesCount32(s) == k {
			cs = append(cs, s)
		}
	}
	return cs
}

// ladder is a fermion creation (dagger) or annihilation operator on a mode.
type ladder struct {
	dagger bool
	mode   int
}

func create(mode int) ladder  { return ladder{dagger: true, mode: mode} }
func destroy(mode int) ladder { return ladder{mode: mode} }

// apply applies ops to state s, ops[0] acting first.
// It returns the resulting state and its fermion sign, or false if the state is annihilated.
// The sign of each operator is (-1) to the number of occupied modes below it.
func apply(s uint32, ops ...ladder) (uint32, float64, bool) {
	sign := 1.0
	for _, op := range ops {
		bit := uint32(1) << op.mode
		occupied := s&bit != 0
		if occupied == op.dagger {
			return 0, 0, false
		}
		if bits.OnesCount32(s&(bit-1))%2 == 1 {
			sign = -sign
		}
		s ^= bit
	}
	return s, sign, true
}

func (p Params) validate() error {
	switch {
	case p.L < 2:
		return errors.Wrapf(condmat.ErrInvalidParameter, "%d sites", p.L)
	case p.NUp < 0 || p.NUp > p.L || p.NDown < 0 || p.NDown > p.L:
		return errors.Wrapf(condmat.ErrInvalidParameter, "%d up %d down fermions on %d sites", p.NUp, p.NDown, p.L)
	case !finite(p.T) || !finite(p.U):
		return errors.Wrapf(condmat.ErrInvalidParameter, "t %f U %f", p.T, p.U)
	case p.L > MaxSites:
		return errors.Wrapf(condmat.ErrResourceLimit, "%d sites, at most %d", p.L, MaxSites)
	}
	if size := SectorSize(p.L, p.NUp, p.NDown); size < 0 || size > MaxBasisSize {
		return errors.Wrapf(condmat.ErrResourceLimit, "basis size %d, at most %d", size, MaxBasisSize)
	}
	return nil
}
