package krylovschur

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// schurEigenvalues reads off the eigenvalues of a quasi-triangular
// matrix t directly from its diagonal blocks: a 1x1 block is a real
// eigenvalue, an unreduced 2x2 block is a complex-conjugate pair solved
// via the quadratic formula.
func schurEigenvalues(t *mat.Dense, p int) []complex128 {
	vals := make([]complex128, p)
	for i := 0; i < p; {
		if i == p-1 || t.At(i+1, i) == 0 {
			vals[i] = complex(t.At(i, i), 0)
			i++
			continue
		}
		a, b := t.At(i, i), t.At(i, i+1)
		c, d := t.At(i+1, i), t.At(i+1, i+1)
		tr := a + d
		det := a*d - b*c
		disc := tr*tr - 4*det
		if disc >= 0 {
			sq := math.Sqrt(disc)
			vals[i] = complex((tr+sq)/2, 0)
			vals[i+1] = complex((tr-sq)/2, 0)
		} else {
			re := tr / 2
			im := math.Sqrt(-disc) / 2
			vals[i] = complex(re, im)
			vals[i+1] = complex(re, -im)
		}
		i += 2
	}
	return vals
}

// schurEigenvectors computes the eigenvectors of a quasi-triangular
// matrix t as columns of a p x p complex matrix e, via back
// substitution on (t - lambda*I) e[:,j] = 0, the same recurrence the
// teacher's backSubstitution performs, extended here to the 2x2-block
// case so that a complex-conjugate Ritz pair yields a genuinely complex
// eigenvector rather than a degenerate real one.
func schurEigenvectors(t *mat.Dense, p int, vals []complex128) []complex128 {
	e := make([]complex128, p*p)
	at := func(i, j int) complex128 { return e[i*p+j] }
	set := func(i, j int, v complex128) { e[i*p+j] = v }

	for j := 0; j < p; j++ {
		lambda := vals[j]
		set(j, j, 1)
		for i := j - 1; i >= 0; i-- {
			var sum complex128
			for k := i + 1; k <= j; k++ {
				sum += complex(t.At(i, k), 0) * at(k, j)
			}
			diag := complex(t.At(i, i), 0) - lambda
			if i > 0 && t.At(i, i-1) != 0 {
				// i sits inside a 2x2 block with i-1; defer its row to
				// the joint 2x2 solve below.
				continue
			}
			if cmplx.Abs(diag) < epsilon {
				set(i, j, 0)
				continue
			}
			set(i, j, -sum/diag)
		}
		// Resolve any 2x2 blocks left unsolved above, working from the
		// bottom up so that later (lower) coefficients already
		// participate in sum.
		for i := j - 1; i > 0; i-- {
			if t.At(i, i-1) == 0 {
				continue
			}
			var sumHi, sumLo complex128
			for k := i + 1; k <= j; k++ {
				sumHi += complex(t.At(i-1, k), 0) * at(k, j)
				sumLo += complex(t.At(i, k), 0) * at(k, j)
			}
			a := complex(t.At(i-1, i-1), 0) - lambda
			b := complex(t.At(i-1, i), 0)
			c := complex(t.At(i, i-1), 0)
			d := complex(t.At(i, i), 0) - lambda
			det := a*d - b*c
			if cmplx.Abs(det) < epsilon {
				set(i-1, j, 0)
				set(i, j, 0)
				continue
			}
			set(i-1, j, (-sumHi*d+sumLo*b)/det)
			set(i, j, (-a*sumLo+c*sumHi)/det)
			i--
		}
	}
	return e
}

// ritzResiduals computes, for each Ritz pair j, the residual bound
// |beta| * |e_{p-1}^T E[:,j]|: the norm of the true residual
// A*u[:,j] - lambda[j]*u[:,j] without forming it explicitly, since the
// Krylov-Schur factorization guarantees A*U - U*Lambda = f*(e_{p-1}^T E),
// per the defining relation in the data model.
func ritzResiduals(e []complex128, p int, beta float64) []float64 {
	r := make([]float64, p)
	for j := 0; j < p; j++ {
		r[j] = math.Abs(beta) * cmplx.Abs(e[(p-1)*p+j])
	}
	return r
}

// ritzVectors forms U = V * X * E, the Ritz vectors in the original
// n-dimensional space, as complex n x p column-major data. vx is the
// already-computed product V*X (n x p, real).
func ritzVectors(vx *mat.Dense, e []complex128, n, p int) []complex128 {
	u := make([]complex128, n*p)
	for col := 0; col < p; col++ {
		for i := 0; i < n; i++ {
			var s complex128
			for k := 0; k < p; k++ {
				s += complex(vx.At(i, k), 0) * e[k*p+col]
			}
			u[col*n+i] = s
		}
	}
	return u
}
