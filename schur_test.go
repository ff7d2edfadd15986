package krylovschur

import (
	"math"
	"sort"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// reconstruct returns X*T*X^T for comparison against the original matrix.
func reconstruct(x, t *mat.Dense) *mat.Dense {
	p, _ := t.Dims()
	var xt mat.Dense
	xt.Mul(x, t)
	var xtxT mat.Dense
	xtxT.Mul(&xt, x.T())
	out := mat.NewDense(p, p, nil)
	out.Copy(&xtxT)
	return out
}

func maxAbsDiff(a, b *mat.Dense) float64 {
	r, c := a.Dims()
	var m float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d := math.Abs(a.At(i, j) - b.At(i, j))
			if d > m {
				m = d
			}
		}
	}
	return m
}

func TestSchurDiagonal(t *testing.T) {
	t.Parallel()
	h := mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 3, 0,
		0, 0, 0, 4,
	})
	x, tm := Schur(h, 4)
	if diff := maxAbsDiff(reconstruct(x, tm), h); diff > 1e-9 {
		t.Fatalf("X*T*X^T reconstruction off by %v", diff)
	}
	vals := schurEigenvalues(tm, 4)
	var got []float64
	for _, v := range vals {
		got = append(got, real(v))
	}
	sort.Float64s(got)
	want := []float64{1, 2, 3, 4}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("eigenvalues = %v, want %v", got, want)
		}
	}
}

func TestSchurHessenberg(t *testing.T) {
	t.Parallel()
	// A small Hessenberg matrix with a known real spectrum
	// {2-sqrt(3), 2, 2+sqrt(3)}.
	h := mat.NewDense(3, 3, []float64{
		3, -1, 0,
		-1, 2, -1,
		0, -1, 1,
	})
	x, tm := Schur(h, 3)
	if diff := maxAbsDiff(reconstruct(x, tm), h); diff > 1e-8 {
		t.Fatalf("reconstruction error %v", diff)
	}
	// x must be orthogonal: x^T x = I.
	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(xtx.At(i, j)-want) > 1e-8 {
				t.Fatalf("X not orthogonal at (%d,%d): %v", i, j, xtx.At(i, j))
			}
		}
	}
}

func TestSchurComplexConjugatePair(t *testing.T) {
	t.Parallel()
	// A pure 2x2 rotation-like block has eigenvalues a +/- bi.
	h := mat.NewDense(2, 2, []float64{0, -1, 1, 0})
	x, tm := Schur(h, 2)
	if diff := maxAbsDiff(reconstruct(x, tm), h); diff > 1e-9 {
		t.Fatalf("reconstruction error %v", diff)
	}
	vals := schurEigenvalues(tm, 2)
	for _, v := range vals {
		if math.Abs(cAbs(v)-1) > 1e-9 {
			t.Fatalf("eigenvalue %v does not have unit magnitude", v)
		}
		if imag(v) == 0 {
			t.Fatalf("expected complex eigenvalue, got %v", v)
		}
	}
}

func cAbs(v complex128) float64 {
	return math.Hypot(real(v), imag(v))
}
