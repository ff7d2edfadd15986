package krylovschur

import "math"

// Operator is the capability set this package needs from the linear
// operator A (or, when used as the second argument to New, from B). It
// is intentionally the minimal surface: a dimension and a
// matrix-vector action, so that A may be dense, sparse, or entirely
// implicit (e.g. shift-invert) without this package knowing which.
//
// Apply must compute dst = A*x and must not retain x or dst past the
// call; it is called in a tight inner loop and should avoid allocating.
type Operator interface {
	Dim() int
	Apply(dst, x []float64)
}

// InnerProductOperator additionally realizes the B-inner product used
// by the generalized eigenproblem (A, B). Dot must be a genuine inner
// product (symmetric, positive definite) and Norm must be its induced
// norm, i.e. Norm(x) == math.Sqrt(Dot(x, x)) to working precision.
//
// A nil InnerProductOperator means the standard problem, B = I: the
// factorization engine falls back to the Euclidean dot/norm. The nil
// check is made inside each inner-product and norm evaluation.
type InnerProductOperator interface {
	Operator
	Dot(x, y []float64) float64
	Norm(x []float64) float64
}

func euclideanDot(x, y []float64) float64 {
	var s float64
	for i := range x {
		s += x[i] * y[i]
	}
	return s
}

func euclideanNorm(x []float64) float64 {
	return math.Sqrt(euclideanDot(x, x))
}
