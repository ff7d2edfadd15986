package krylovschur

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// State is the lifecycle of a Solver, as described by the outer
// driver's state machine.
type State int

const (
	NotComputed State = iota
	Running
	Successful
	NotConverging
)

func (s State) String() string {
	switch s {
	case NotComputed:
		return "NotComputed"
	case Running:
		return "Running"
	case Successful:
		return "Successful"
	case NotConverging:
		return "NotConverging"
	default:
		return "State(unknown)"
	}
}

// SortRule orders the final, converged eigenvalues that Eigenvalues
// and Eigenvectors report, independently of the SelectionRule that
// steers which Ritz values are pursued during iteration.
type SortRule int

const (
	LargestAlgebraic SortRule = iota
	SmallestAlgebraic
	LargestMagnitudeSort
	SmallestMagnitudeSort
)

func (r SortRule) String() string {
	switch r {
	case LargestAlgebraic:
		return "LargestAlgebraic"
	case SmallestAlgebraic:
		return "SmallestAlgebraic"
	case LargestMagnitudeSort:
		return "LargestMagnitude"
	case SmallestMagnitudeSort:
		return "SmallestMagnitude"
	default:
		return "SortRule(unknown)"
	}
}

func (r SortRule) selectionRule() SelectionRule {
	switch r {
	case LargestAlgebraic:
		return LargestReal
	case SmallestAlgebraic:
		return SmallestReal
	case LargestMagnitudeSort:
		return LargestMagnitude
	default:
		return SmallestMagnitude
	}
}

// ComputeOptions configures a Compute call, modeled on the teacher's
// chainable, value-receiver options structs.
type ComputeOptions struct {
	selection SelectionRule
	maxit     int
	tol       float64
	sortRule  SortRule
}

// NewComputeOptions returns the documented defaults.
func NewComputeOptions() ComputeOptions {
	return ComputeOptions{
		selection: LargestMagnitude,
		maxit:     1000,
		tol:       1e-10,
		sortRule:  LargestAlgebraic,
	}
}

func (opt ComputeOptions) Selection(rule SelectionRule) ComputeOptions {
	opt.selection = rule
	return opt
}

func (opt ComputeOptions) MaxIterations(maxit int) ComputeOptions {
	opt.maxit = maxit
	return opt
}

func (opt ComputeOptions) Tol(tol float64) ComputeOptions {
	opt.tol = tol
	return opt
}

func (opt ComputeOptions) SortRule(rule SortRule) ComputeOptions {
	opt.sortRule = rule
	return opt
}

// Solver computes the k extremal eigenpairs of operator a (optionally
// generalized by the inner-product operator b) via Krylov-Schur
// iteration.
type Solver struct {
	a Operator
	b InnerProductOperator
	k int
	m int

	fz *Factorization

	state      State
	iterations int
	operations int64

	eigvals []complex128
	eigvecs *mat.Dense
	nconv   int
}

// New constructs a solver for the k extremal eigenpairs of a (and,
// when b is non-nil, the generalized problem (a, b)), maintaining an
// m-dimensional Krylov subspace.
func New(a Operator, b InnerProductOperator, k, m int) (*Solver, error) {
	n := a.Dim()
	if k < 1 || k > n-1 {
		return nil, newError(InvalidArgument, "k=%d out of range [1, %d]", k, n-1)
	}
	if m <= k || m > n {
		return nil, newError(InvalidArgument, "m=%d out of range (%d, %d]", m, k, n)
	}
	return &Solver{
		a: a, b: b, k: k, m: m,
		fz:    NewFactorization(n, m),
		state: NotComputed,
	}, nil
}

// Init supplies the initial residual vector, resetting the solver's
// convergence state and iteration/operation counters.
func (s *Solver) Init(v0 []float64) error {
	if err := s.fz.Init(s.b, v0); err != nil {
		return err
	}
	s.iterations = 0
	s.operations = 0
	s.eigvals = nil
	s.eigvecs = nil
	s.nconv = 0
	s.state = Running
	return nil
}

// InitRandom generates the initial residual vector from Uniform(-0.5,
// 0.5) with a fixed seed, for reproducibility across runs.
func (s *Solver) InitRandom() error {
	if err := s.fz.InitRandom(s.b, 0); err != nil {
		return err
	}
	s.iterations = 0
	s.operations = 0
	s.eigvals = nil
	s.eigvecs = nil
	s.nconv = 0
	s.state = Running
	return nil
}

// Compute runs the Krylov-Schur outer loop until k eigenpairs converge
// or maxit iterations elapse, returning the number of converged
// eigenpairs (bounded by k).
func (s *Solver) Compute(opts ...ComputeOptions) (int, error) {
	if s.state == NotComputed {
		return 0, newError(NotInitialized, "Compute called before Init/InitRandom")
	}
	opt := NewComputeOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	nconvPrev := 0
	var d []complex128
	var r []float64
	var x, t *mat.Dense

	for it := 0; it < opt.maxit; it++ {
		s.iterations++

		stopped, err := s.fz.Extend(s.a, s.b, &s.operations)
		if err != nil {
			return 0, err
		}
		if stopped {
			s.state = Successful
			s.nconv = 0
			s.eigvals = nil
			s.eigvecs = &mat.Dense{}
			return 0, nil
		}

		p := s.fz.P
		x, t = Schur(s.fz.H, p)
		d = schurEigenvalues(t, p)
		e := schurEigenvectors(t, p, d)
		r = ritzResiduals(e, p, s.fz.Beta)

		ind := Rank(d, opt.selection)
		dRanked := permuteComplex(d, ind)
		rRanked := permuteFloat(r, ind)

		topK := min(s.k, len(dRanked))
		nconv := numConverged(complexMagnitudes(dRanked[:topK]), rRanked[:topK], opt.tol)

		last := it == opt.maxit-1
		if nconv >= s.k || last {
			s.finalize(x, t, opt)
			if nconv >= s.k {
				s.state = Successful
			} else {
				s.state = NotConverging
			}
			return min(s.k, s.nconv), nil
		}

		nev := nextNev(s.k, p, nconv, nconvPrev)
		nconvPrev = nconv

		// sigma is indexed by T's original (pre-rank) positions: the
		// first nev entries of ind name the indices selection wants kept.
		sigma := make([]bool, p)
		for i := 0; i < nev && i < p; i++ {
			sigma[ind[i]] = true
		}
		expandConjugatePairs(t, p, sigma, &nev)

		OrdSchur(x, t, sigma)
		s.truncate(x, t, nev)
	}

	s.finalize(x, t, opt)
	s.state = NotConverging
	return min(s.k, s.nconv), nil
}

// expandConjugatePairs grows sigma (and nev) so that a selected index
// belonging to an unreduced 2x2 block never leaves its partner behind.
func expandConjugatePairs(t *mat.Dense, p int, sigma []bool, nev *int) {
	for _, start := range blockStarts(t, p) {
		if blockSize(t, p, start) != 2 {
			continue
		}
		if sigma[start] != sigma[start+1] {
			sigma[start] = true
			sigma[start+1] = true
			*nev++
		}
	}
}

// truncate restricts the factorization to its first nev columns after
// a reorder, forming the restart per the data model: H_new's leading
// block is T's, its next row carries the old residual projected
// through Xk, and V_new is V*Xk.
func (s *Solver) truncate(x, t *mat.Dense, nev int) {
	fz := s.fz
	n := fz.N

	xk := x.Slice(0, fz.P, 0, nev)
	vNew := mat.NewDense(n, nev, nil)
	vOld := fz.V.Slice(0, n, 0, fz.P)
	vNew.Mul(vOld, xk)

	hNew := mat.NewDense(fz.M, fz.M, nil)
	for i := 0; i < nev; i++ {
		for j := 0; j < nev; j++ {
			hNew.Set(i, j, t.At(i, j))
		}
	}

	// The dropped residual row is f*e_{p-1}^T (0-indexed), so after the
	// X-similarity it becomes Beta*X[p-1,:] — the same e_{p-1}^T*E
	// convention ritzResiduals uses, not a row of H (which has no row p).
	for j := 0; j < nev; j++ {
		hNew.Set(nev, j, fz.Beta*x.At(fz.P-1, j))
	}

	for i := 0; i < n; i++ {
		for j := 0; j < nev; j++ {
			fz.V.Set(i, j, vNew.At(i, j))
		}
	}
	fz.H = hNew
	fz.P = nev
}

// finalize recovers the final eigenpairs from the current Schur form,
// ranking once more under the sort rule rather than the selection rule
// that steered the iteration.
func (s *Solver) finalize(x, t *mat.Dense, opt ComputeOptions) {
	if t == nil {
		s.nconv = 0
		s.eigvals = nil
		s.eigvecs = &mat.Dense{}
		return
	}
	p := s.fz.P
	d := schurEigenvalues(t, p)
	e := schurEigenvectors(t, p, d)
	r := ritzResiduals(e, p, s.fz.Beta)

	ind := Rank(d, opt.sortRule.selectionRule())
	d = permuteComplex(d, ind)
	r = permuteFloat(r, ind)
	e = permuteEigenvectorCols(e, p, ind)

	topK := min(s.k, p)
	nconv := numConverged(complexMagnitudes(d[:topK]), r[:topK], opt.tol)
	s.nconv = min(nconv, s.k)

	s.eigvals = append([]complex128(nil), d[:topK]...)

	n := s.a.Dim()
	vx := mat.NewDense(n, p, nil)
	vBlock := s.fz.V.Slice(0, n, 0, p)
	vx.Mul(vBlock, x)
	u := ritzVectors(vx, e, n, p)

	vecs := mat.NewDense(n, topK, nil)
	for col := 0; col < topK; col++ {
		for i := 0; i < n; i++ {
			vecs.Set(i, col, real(u[col*n+i]))
		}
	}
	s.eigvecs = vecs
}

// Info reports the solver's current lifecycle state.
func (s *Solver) Info() State { return s.state }

// NumIterations returns the number of outer iterations run across all
// Compute calls since the last Init/InitRandom.
func (s *Solver) NumIterations() int { return s.iterations }

// NumOperations returns the number of operator applications issued
// across all Compute calls since the last Init/InitRandom.
func (s *Solver) NumOperations() int64 { return s.operations }

// Eigenvalues returns the real parts of the converged eigenvalues,
// ordered by the sort rule used in the most recent Compute call.
func (s *Solver) Eigenvalues() []float64 {
	out := make([]float64, s.nconv)
	for i := range out {
		out[i] = real(s.eigvals[i])
	}
	return out
}

// Eigenvectors returns the real parts of the first
// min(nvec, nconv) converged eigenvectors as columns of an n x ncols
// matrix, or an empty 0 x 0 matrix when ncols is zero.
func (s *Solver) Eigenvectors(nvec int) *mat.Dense {
	ncols := min(nvec, s.nconv)
	if ncols <= 0 || s.eigvecs == nil {
		return &mat.Dense{}
	}
	return mat.DenseCopyOf(s.eigvecs.Slice(0, s.a.Dim(), 0, ncols))
}

// complexMagnitudes returns |d_j| for each Ritz value, the quantity
// numConverged's threshold (spec 4.6: tol*max(eps^(2/3), |d_j|)) is
// built from.
func complexMagnitudes(d []complex128) []float64 {
	out := make([]float64, len(d))
	for i, v := range d {
		out[i] = cmplx.Abs(v)
	}
	return out
}

func permuteComplex(d []complex128, ind []int) []complex128 {
	out := make([]complex128, len(d))
	for i, j := range ind {
		out[i] = d[j]
	}
	return out
}

func permuteFloat(r []float64, ind []int) []float64 {
	out := make([]float64, len(r))
	for i, j := range ind {
		out[i] = r[j]
	}
	return out
}

// permuteEigenvectorCols reorders the columns of e (p x p, stored
// row-major as e[row*p+col]) according to ind, leaving each column's
// entries (the eigenvector's components) untouched.
func permuteEigenvectorCols(e []complex128, p int, ind []int) []complex128 {
	out := make([]complex128, p*p)
	for i, j := range ind {
		for row := 0; row < p; row++ {
			out[row*p+i] = e[row*p+j]
		}
	}
	return out
}
