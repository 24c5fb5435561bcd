package mat

import (
	"cmp"
	"math"
	"math/cmplx"
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fumin/condmat"
)

const (
	// HermitianTol is the largest accepted ||H - H^dagger||_F relative to max(1, max|H_ij|).
	HermitianTol = 1e-10

	// clusterTol groups numerically equal eigenvalues of the real embedding.
	clusterTol = 1e-9
)

// ValVec is an eigenvalue and its normalized eigenvector.
type ValVec struct {
	Val float64
	Vec []complex128
}

// Eigvalsh returns the eigenvalues of the Hermitian matrix m in ascending order.
func Eigvalsh(m *Dense) ([]float64, error) {
	vvs, err := Eigh(m, false)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	vals := make([]float64, 0, len(vvs))
	for _, vv := range vvs {
		vals = append(vals, vv.Val)
	}
	return vals, nil
}

// Eigh diagonalizes the Hermitian matrix m.
// Eigenvalues are in ascending order, and when vectors is true each comes with an eigenvector, the eigenvectors being orthonormal.
func Eigh(m *Dense, vectors bool) ([]ValVec, error) {
	if err := checkHermitian(m); err != nil {
		return nil, errors.Wrap(err, "")
	}

	var vvs []ValVec
	var err error
	switch {
	case m.IsReal():
		vvs, err = eighReal(m, vectors)
	default:
		vvs, err = eighComplex(m, vectors)
	}
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	lo, hi := gerschgorin(m)
	slack := 1e-8 * max(1, m.MaxAbs()*float64(m.rows))
	for i, vv := range vvs {
		if vv.Val < lo-slack || vv.Val > hi+slack || math.IsNaN(vv.Val) {
			return nil, errors.Wrapf(condmat.ErrNumerical, "eigenvalue %d %g outside Gershgorin bounds [%g, %g]", i, vv.Val, lo, hi)
		}
	}
	return vvs, nil
}

func checkHermitian(m *Dense) error {
	if m.rows != m.cols {
		return errors.Wrapf(condmat.ErrNumerical, "not square %dx%d", m.rows, m.cols)
	}
	if m.rows == 0 {
		return errors.Wrapf(condmat.ErrNumerical, "empty matrix")
	}
	if !m.isFinite() {
		return errors.Wrapf(condmat.ErrNumerical, "non-finite element")
	}
	defect := m.HermitianDefect()
	if defect > HermitianTol*max(1, m.MaxAbs()) {
		return errors.Wrapf(condmat.ErrNumerical, "not Hermitian, ||H - H^dagger|| = %g", defect)
	}
	return nil
}

func eighReal(m *Dense, vectors bool) ([]ValVec, error) {
	n := m.rows
	data := make([]float64, n*n)
	for i, v := range m.data {
		data[i] = real(v)
	}
	sym := mat.NewSymDense(n, data)

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, vectors); !ok {
		return nil, errors.Wrapf(condmat.ErrNumerical, "eigen decomposition of %dx%d failed", n, n)
	}
	vals := eig.Values(nil)
	vvs := make([]ValVec, 0, n)
	for _, v := range vals {
		vvs = append(vvs, ValVec{Val: v})
	}
	if !vectors {
		return vvs, nil
	}

	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	for j := range vvs {
		vec := make([]complex128, 0, n)
		for i := 0; i < n; i++ {
			vec = append(vec, complex(vecs.At(i, j), 0))
		}
		vvs[j].Vec = vec
	}
	return vvs, nil
}

// eighComplex diagonalizes H = A + iB through the real symmetric matrix [[A, -B], [B, A]].
// Each eigenpair (v, x + iy) of H appears twice in the embedding, as [x; y] and [-y; x].
func eighComplex(m *Dense, vectors bool) ([]ValVec, error) {
	n := m.rows
	nn := 2 * n
	data := make([]float64, nn*nn)
	for i := range n {
		for j := range n {
			v := m.data[i*n+j]
			data[i*nn+j] = real(v)
			data[i*nn+j+n] = -imag(v)
			data[(i+n)*nn+j] = imag(v)
			data[(i+n)*nn+j+n] = real(v)
		}
	}
	sym := mat.NewSymDense(nn, data)

	var eig mat.EigenSym
	if ok := eig.Factorize(sym, vectors); !ok {
		return nil, errors.Wrapf(condmat.ErrNumerical, "eigen decomposition of %dx%d embedding failed", nn, nn)
	}
	vals := eig.Values(nil)

	if !vectors {
		vvs := make([]ValVec, 0, n)
		for i := 0; i < nn; i += 2 {
			vvs = append(vvs, ValVec{Val: (vals[i] + vals[i+1]) / 2})
		}
		return vvs, nil
	}

	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	tol := clusterTol * max(1, m.MaxAbs())
	vvs := make([]ValVec, 0, n)
	for start := 0; start < nn; {
		end := start + 1
		for end < nn && vals[end]-vals[end-1] <= tol {
			end++
		}
		if (end-start)%2 != 0 {
			return nil, errors.Wrapf(condmat.ErrNumerical, "odd multiplicity %d at eigenvalue %g", end-start, vals[start])
		}

		cands := make([][]complex128, 0, end-start)
		for k := start; k < end; k++ {
			z := make([]complex128, 0, n)
			for i := range n {
				z = append(z, complex(vecs.At(i, k), vecs.At(i+n, k)))
			}
			cands = append(cands, z)
		}
		basis, err := pivotedGramSchmidt(cands, (end-start)/2)
		if err != nil {
			return nil, errors.Wrap(err, "")
		}

		cluster := make([]ValVec, 0, len(basis))
		for _, q := range basis {
			cluster = append(cluster, ValVec{Val: real(m.Expectation(q)), Vec: q})
		}
		slices.SortFunc(cluster, func(a, b ValVec) int { return cmp.Compare(a.Val, b.Val) })
		vvs = append(vvs, cluster...)

		start = end
	}
	return vvs, nil
}

// pivotedGramSchmidt extracts want orthonormal vectors from the complex span of cands.
// The candidate with the largest residual is accepted first.
func pivotedGramSchmidt(cands [][]complex128, want int) ([][]complex128, error) {
	basis := make([][]complex128, 0, want)
	for len(basis) < want {
		best, bestNorm := -1, 0.0
		for i, z := range cands {
			if z == nil {
				continue
			}
			if nrm := Norm(z); nrm > bestNorm {
				best, bestNorm = i, nrm
			}
		}
		if best < 0 || bestNorm < 1e-6 {
			return nil, errors.Wrapf(condmat.ErrNumerical, "rank deficient eigenspace %d/%d %g", len(basis), want, bestNorm)
		}

		q := cands[best]
		cands[best] = nil
		for i := range q {
			q[i] /= complex(bestNorm, 0)
		}
		basis = append(basis, q)

		for _, z := range cands {
			if z == nil {
				continue
			}
			p := Inner(q, z)
			for i := range z {
				z[i] -= p * q[i]
			}
		}
	}
	return basis, nil
}

// gerschgorin returns the interval that contains every eigenvalue of the Hermitian matrix m.
// Theorem A3, Bounds for the eigenvalues of a matrix, Kenneth R. Garren.
func gerschgorin(m *Dense) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range m.rows {
		var radius float64
		for j := range m.cols {
			if j == i {
				continue
			}
			radius += cmplx.Abs(m.data[i*m.cols+j])
		}
		center := real(m.data[i*m.cols+i])
		lo = min(lo, center-radius)
		hi = max(hi, center+radius)
	}
	return lo, hi
}
