package krylovschur

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// DenseOperator adapts a *mat.Dense into an Operator/InnerProductOperator
// pair for the common case where A (and, if given, B) comfortably fit in
// memory. It is the operator used by every scenario test in this
// package; production users with a genuinely huge or implicit A should
// implement Operator directly, or use SQLiteOperator.
type DenseOperator struct {
	a *mat.Dense
	n int
}

// NewDenseOperator wraps a square *mat.Dense as an Operator. a is not
// copied; the caller must not mutate it for the lifetime of the solver.
func NewDenseOperator(a *mat.Dense) *DenseOperator {
	r, c := a.Dims()
	if r != c {
		panic("krylovschur: DenseOperator requires a square matrix")
	}
	return &DenseOperator{a: a, n: r}
}

func (op *DenseOperator) Dim() int { return op.n }

func (op *DenseOperator) Apply(dst, x []float64) {
	xv := mat.NewVecDense(op.n, x)
	dv := mat.NewVecDense(op.n, dst)
	dv.MulVec(op.a, xv)
}

// DenseSPDOperator adapts a symmetric positive definite *mat.Dense into
// an InnerProductOperator, for the generalized problem (A, B) when B is
// small and dense. The B-inner product is evaluated directly as x^T B y
// rather than through a Cholesky factor, since B is only ever used to
// weight vectors of Krylov-subspace size, not to be inverted.
type DenseSPDOperator struct {
	*DenseOperator
	buf []float64
}

func NewDenseSPDOperator(b *mat.Dense) *DenseSPDOperator {
	op := NewDenseOperator(b)
	return &DenseSPDOperator{DenseOperator: op, buf: make([]float64, op.n)}
}

func (op *DenseSPDOperator) Dot(x, y []float64) float64 {
	op.Apply(op.buf, y)
	return euclideanDot(x, op.buf)
}

func (op *DenseSPDOperator) Norm(x []float64) float64 {
	return math.Sqrt(op.Dot(x, x))
}
