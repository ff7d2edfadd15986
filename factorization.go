package krylovschur

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// sinPi4 is the angle threshold from Section 5.1.3 XYaitr, ARPACK
// Users' Guide (Lehoucq, Sorensen, Yang): a second modified
// Gram-Schmidt pass is taken only when the first pass shrank the
// vector's norm by more than sin(pi/4), i.e. when the original vector
// had a large component already in the existing basis.
var sinPi4 = math.Sin(math.Pi / 4)

// Factorization holds the Krylov-Schur factorization F = (V, H, f, p)
// described in the data model: V is n x m with its first p columns
// B-orthonormal, H is m x m upper Hessenberg with the leading p x p
// block valid, and f is the residual vector with Beta = its B-norm,
// playing the role of the implicit (p+1, p) Hessenberg entry.
type Factorization struct {
	N, M int
	V    *mat.Dense
	H    *mat.Dense
	F    []float64
	Beta float64
	P    int

	buf1, buf2 []float64
}

// NewFactorization allocates a factorization for an n-dimensional
// operator and an m-step Krylov subspace. Memory is sized up front, as
// the resource model requires: O(n*m) for V plus O(m^2) for H.
func NewFactorization(n, m int) *Factorization {
	return &Factorization{
		N: n, M: m,
		V:    mat.NewDense(n, m, nil),
		H:    mat.NewDense(m, m, nil),
		F:    make([]float64, n),
		buf1: make([]float64, n),
		buf2: make([]float64, n),
	}
}

// Init normalizes v0 into the factorization's starting residual and
// resets p to 0. The first call to Extend will adopt F/Beta as the
// initial column V[:,0].
func (fz *Factorization) Init(bop InnerProductOperator, v0 []float64) error {
	if len(v0) != fz.N {
		return newError(InvalidArgument, "initial vector has length %d, want %d", len(v0), fz.N)
	}
	norm := normB(bop, v0)
	if norm == 0 {
		return newError(InvalidArgument, "initial vector is zero")
	}
	copy(fz.F, v0)
	fz.Beta = norm
	fz.P = 0
	return nil
}

// InitRandom generates v0 from Uniform(-0.5, 0.5) with a fixed seed for
// reproducibility, as the external interface requires.
func (fz *Factorization) InitRandom(bop InnerProductOperator, seed int64) error {
	rnd := rand.New(rand.NewSource(seed))
	v0 := make([]float64, fz.N)
	for i := range v0 {
		v0[i] = rnd.Float64() - 0.5
	}
	return fz.Init(bop, v0)
}

// breakdownTol is the threshold below which a residual is considered to
// have collapsed onto the existing subspace (ARPACK's "happy
// breakdown").
func (fz *Factorization) breakdownTol() float64 {
	return math.Sqrt(float64(fz.N)) * epsilon
}

// Extend grows the factorization from its current length p to m,
// applying op once per new column and bop's inner product for
// B-orthonormalization (nil bop means the Euclidean inner product). It
// reports stopped = true when the residual collapses at the very first
// column of this extension, meaning the current subspace is already
// A-invariant and the driver must emit zero converged eigenpairs.
func (fz *Factorization) Extend(op Operator, bop InnerProductOperator, counter *int64) (stopped bool, err error) {
	p, m := fz.P, fz.M
	if p >= m {
		return false, nil
	}

	// Adopt the stored residual as the next orthonormal column.
	vCol := make([]float64, fz.N)
	for i := range vCol {
		vCol[i] = fz.F[i] / fz.Beta
	}
	setCol(fz.V, p, vCol)

	for j := p; j < m; j++ {
		mat.Col(vCol, j, fz.V)
		fz.buf1 = applyOp(op, fz.buf1, vCol)
		*counter++

		hCol, resid, resNorm := gramSchmidt(fz.buf1, fz.V, j+1, bop, fz.buf2)

		if resNorm < fz.breakdownTol() {
			// ARPACK's XYaitr: a random restart vector replaces a
			// collapsed residual; if it collapses again the subspace
			// spanned so far is (numerically) A-invariant.
			randVec(resid)
			resNorm = normB(bop, resid)
			for i := range resid {
				resid[i] /= resNorm
			}
			hCol, _, resNorm = gramSchmidt(zeroed(fz.buf1, resid), fz.V, j+1, bop, fz.buf2)
			if resNorm < fz.breakdownTol() {
				if j == p {
					return true, nil
				}
				resNorm = fz.breakdownTol()
			}
		}

		for i := 0; i <= j; i++ {
			fz.H.Set(i, j, hCol[i])
		}

		if j+1 < m {
			fz.H.Set(j+1, j, resNorm)
			for i := range resid {
				resid[i] /= resNorm
			}
			setCol(fz.V, j+1, resid)
		} else {
			copy(fz.F, resid)
			fz.Beta = resNorm
		}
	}

	fz.P = m
	checkFactorization(op, fz, "extend")
	return false, nil
}

// gramSchmidt orthogonalizes w against the first ncols columns of v in
// the B-inner product (bop nil means Euclidean), with one round of
// iterative refinement, ported from the teacher's gramSchimdt (itself
// citing Remark 11.1, Numerical Methods for Solving Large Scale
// Eigenvalue Problems, Peter Arbenz). hCol holds the projection
// coefficients (the new Hessenberg column), resid the orthogonalized
// remainder, and resNorm its B-norm. scratch must have length N.
func gramSchmidt(w []float64, v *mat.Dense, ncols int, bop InnerProductOperator, scratch []float64) (hCol, resid []float64, resNorm float64) {
	n, _ := v.Dims()
	hCol = make([]float64, ncols)
	resid = make([]float64, n)
	copy(resid, w)

	col := scratch
	for pass := 0; pass < 2; pass++ {
		before := normB(bop, resid)

		for j := 0; j < ncols; j++ {
			mat.Col(col, j, v)
			c := dotB(bop, col, resid)
			hCol[j] += c
			for i := 0; i < n; i++ {
				resid[i] -= c * col[i]
			}
		}

		after := normB(bop, resid)
		if after > sinPi4*before {
			return hCol, resid, after
		}
	}
	return hCol, resid, normB(bop, resid)
}

func dotB(bop InnerProductOperator, x, y []float64) float64 {
	if bop == nil {
		return euclideanDot(x, y)
	}
	return bop.Dot(x, y)
}

func normB(bop InnerProductOperator, x []float64) float64 {
	if bop == nil {
		return euclideanNorm(x)
	}
	return bop.Norm(x)
}

func applyOp(op Operator, dst, x []float64) []float64 {
	if dst == nil || len(dst) != len(x) {
		dst = make([]float64, len(x))
	}
	op.Apply(dst, x)
	return dst
}

func randVec(dst []float64) {
	for i := range dst {
		dst[i] = rand.Float64()*2 - 1
	}
}

func zeroed(dst, src []float64) []float64 {
	copy(dst, src)
	return dst
}

func setCol(m *mat.Dense, j int, col []float64) {
	for i, v := range col {
		m.Set(i, j, v)
	}
}
