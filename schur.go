package krylovschur

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Schur computes the real Schur decomposition of the leading p x p
// block of h: orthogonal x and quasi-triangular t (both p x p) such
// that h[:p,:p] = x*t*x^T, with t having 1x1 diagonal blocks for real
// eigenvalues and unreduced 2x2 diagonal blocks for complex-conjugate
// pairs. h is not modified. The block is first brought to upper
// Hessenberg form by Givens rotations; this does nothing when it is
// already Hessenberg, and handles the full row a restart leaves below
// the leading block.
//
// The algorithm is the classic implicit double-shift QR sweep on a
// Hessenberg matrix (Algorithm 7.5.2 and Section 7.5, Matrix
// Computations, Golub & Van Loan), the same reference the teacher cites
// for its own eigen-decomposition kernel, adapted here to accumulate
// the real orthogonal Schur vectors rather than stopping at the
// eigenvalues alone.
func Schur(h *mat.Dense, p int) (x, t *mat.Dense) {
	t = mat.NewDense(p, p, nil)
	t.Copy(h.Slice(0, p, 0, p))
	x = mat.NewDense(p, p, nil)
	for i := 0; i < p; i++ {
		x.Set(i, i, 1)
	}

	for j := 0; j+2 < p; j++ {
		for i := p - 1; i > j+1; i-- {
			if t.At(i, j) == 0 {
				continue
			}
			r := math.Hypot(t.At(i-1, j), t.At(i, j))
			cs, sn := t.At(i-1, j)/r, t.At(i, j)/r
			applyGivensLeft(t, i-1, cs, sn)
			applyGivensRight(t, i-1, cs, sn)
			applyGivensRight(x, i-1, cs, sn)
			t.Set(i, j, 0)
		}
	}

	hi := p - 1
	iter := 0
	for hi >= 0 {
		lo := findUnreduced(t, hi)
		if lo == hi {
			hi--
			iter = 0
			continue
		}
		if lo == hi-1 {
			resolve2x2(t, x, hi-1)
			hi -= 2
			iter = 0
			continue
		}
		if iter == 30 {
			// Give up refining this window; leave it unreduced rather
			// than looping forever. The caller sees this as residual
			// subdiagonal mass on the returned t.
			hi = lo
			iter = 0
			continue
		}

		shiftX := t.At(hi, hi)
		shiftY := t.At(hi-1, hi-1)
		shiftW := t.At(hi, hi-1) * t.At(hi-1, hi)
		if iter == 10 || iter == 20 {
			s := math.Abs(t.At(hi, hi-1)) + math.Abs(t.At(hi-1, hi-2))
			shiftX = 0.75 * s
			shiftY = shiftX
			shiftW = -0.4375 * s * s
		}
		iter++

		francisStep(t, x, lo, hi, shiftX, shiftY, shiftW)
	}

	return x, t
}

// findUnreduced returns the start index of the largest trailing
// unreduced Hessenberg window ending at hi, deflating (zeroing)
// negligible subdiagonal entries as it scans, per Section 7.5.1
// Deflation, Golub & Van Loan.
func findUnreduced(t *mat.Dense, hi int) int {
	for l := hi; l > 0; l-- {
		s := math.Abs(t.At(l-1, l-1)) + math.Abs(t.At(l, l))
		if s == 0 {
			s = 1
		}
		if math.Abs(t.At(l, l-1)) <= epsilon*s {
			t.Set(l, l-1, 0)
			return l
		}
	}
	return 0
}

// francisStep performs one implicit double-shift QR sweep on the
// active window [lo, hi] of t, chasing the bulge introduced by the
// shift pair (sum shiftX+shiftY, product shiftX*shiftY-shiftW) down the
// subdiagonal, and accumulating the transformation into x.
func francisStep(t, x *mat.Dense, lo, hi int, shiftX, shiftY, shiftW float64) {
	p := t.At(lo, lo)*t.At(lo, lo) + t.At(lo, lo+1)*t.At(lo+1, lo) - (shiftX+shiftY)*t.At(lo, lo) + shiftX*shiftY - shiftW
	q := t.At(lo+1, lo) * (t.At(lo, lo) + t.At(lo+1, lo+1) - shiftX - shiftY)
	r := 0.0
	if lo+2 <= hi {
		r = t.At(lo+1, lo) * t.At(lo+2, lo+1)
	}

	m := lo
	for ; ; m++ {
		zz := t.At(m, m)
		rr := p - zz
		ss := q - zz
		if m != lo {
			pp := (rr*ss - shiftW) / t.At(m, m-1) + t.At(m, m+1)
			qq := t.At(m+1, m+1) - zz - rr - ss
			rr2 := t.At(m+2, m+1)
			p, q, r = pp, qq, rr2
		}
		scale := math.Abs(p) + math.Abs(q) + math.Abs(r)
		if scale == 0 {
			continue
		}
		p /= scale
		q /= scale
		r /= scale
		if m == lo {
			break
		}
		u := math.Abs(t.At(m, m-1)) * (math.Abs(q) + math.Abs(r))
		v := math.Abs(p) * (math.Abs(t.At(m-1, m-1)) + math.Abs(zz) + math.Abs(t.At(m+1, m+1)))
		if u <= epsilon*v {
			break
		}
	}

	n, _ := t.Dims()
	for i := m + 2; i <= hi; i++ {
		t.Set(i, i-2, 0)
		if i != m+2 {
			t.Set(i, i-3, 0)
		}
	}

	for k := m; k < hi; k++ {
		notlast := k != hi-1

		var pp, qq, rr float64
		if k != m {
			pp = t.At(k, k-1)
			qq = t.At(k+1, k-1)
			if notlast {
				rr = t.At(k+2, k-1)
			}
			x0 := math.Abs(pp) + math.Abs(qq) + math.Abs(rr)
			if x0 != 0 {
				pp /= x0
				qq /= x0
				rr /= x0
			}
		} else {
			pp, qq, rr = p, q, r
		}

		xNorm := math.Sqrt(pp*pp + qq*qq + rr*rr)
		if xNorm == 0 {
			continue
		}
		s := math.Copysign(xNorm, pp)
		if k != m {
			t.Set(k, k-1, -s)
		} else if lo != m {
			t.Set(k, k-1, -t.At(k, k-1))
		}

		pp += s
		xv := pp / s
		yv := qq / s
		zv := rr / s
		qq /= pp
		rr /= pp

		for j := k; j < n; j++ {
			p2 := t.At(k, j) + qq*t.At(k+1, j)
			if notlast {
				p2 += rr * t.At(k+2, j)
				t.Set(k+2, j, t.At(k+2, j)-p2*zv)
			}
			t.Set(k+1, j, t.At(k+1, j)-p2*yv)
			t.Set(k, j, t.At(k, j)-p2*xv)
		}

		mmin := hi
		if k+3 < hi {
			mmin = k + 3
		}
		for i := 0; i <= mmin; i++ {
			p2 := xv*t.At(i, k) + yv*t.At(i, k+1)
			if notlast {
				p2 += zv * t.At(i, k+2)
				t.Set(i, k+2, t.At(i, k+2)-p2*rr)
			}
			t.Set(i, k+1, t.At(i, k+1)-p2*qq)
			t.Set(i, k, t.At(i, k)-p2)
		}

		nx, _ := x.Dims()
		for i := 0; i < nx; i++ {
			p2 := xv*x.At(i, k) + yv*x.At(i, k+1)
			if notlast {
				p2 += zv * x.At(i, k+2)
				x.Set(i, k+2, x.At(i, k+2)-p2*rr)
			}
			x.Set(i, k+1, x.At(i, k+1)-p2*qq)
			x.Set(i, k, x.At(i, k)-p2)
		}
	}
}

// resolve2x2 finalizes the trailing diagonal 2x2 block at (i, i+1):
// when its eigenvalues are real it is rotated to upper triangular
// (zero subdiagonal); when they are a complex-conjugate pair it is
// left as an unreduced 2x2 block, which is the atomic unit the rest of
// this package treats as a single Ritz pair.
func resolve2x2(t, x *mat.Dense, i int) {
	a := t.At(i, i)
	b := t.At(i, i+1)
	c := t.At(i+1, i)
	d := t.At(i+1, i+1)
	if c == 0 {
		return
	}

	p := 0.5 * (a - d)
	disc := p*p + b*c
	if disc < 0 {
		// Complex-conjugate pair: keep the 2x2 block as is.
		return
	}

	z := p + math.Copysign(math.Sqrt(disc), p)
	var cs, sn float64
	if z == 0 {
		cs, sn = 1, 0
	} else {
		tau := math.Hypot(c, z)
		cs = z / tau
		sn = c / tau
	}

	applyGivensLeft(t, i, cs, sn)
	applyGivensRight(t, i, cs, sn)
	applyGivensRight(x, i, cs, sn)

	t.Set(i+1, i, 0)
}

func applyGivensLeft(m *mat.Dense, i int, cs, sn float64) {
	_, n := m.Dims()
	for j := 0; j < n; j++ {
		a := m.At(i, j)
		b := m.At(i+1, j)
		m.Set(i, j, cs*a+sn*b)
		m.Set(i+1, j, -sn*a+cs*b)
	}
}

func applyGivensRight(m *mat.Dense, i int, cs, sn float64) {
	n, _ := m.Dims()
	for k := 0; k < n; k++ {
		a := m.At(k, i)
		b := m.At(k, i+1)
		m.Set(k, i, cs*a+sn*b)
		m.Set(k, i+1, -sn*a+cs*b)
	}
}
