package krylovschur

import (
	"fmt"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestFactorizationExtendOrthonormal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n, m int
	}{
		{n: 10, m: 4},
		{n: 20, m: 8},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("n=%d/m=%d", test.n, test.m), func(t *testing.T) {
			t.Parallel()
			a := mat.NewDense(test.n, test.n, nil)
			for i := 0; i < test.n; i++ {
				a.Set(i, i, float64(i+1))
			}
			op := NewDenseOperator(a)

			fz := NewFactorization(test.n, test.m)
			if err := fz.InitRandom(nil, 1); err != nil {
				t.Fatalf("InitRandom: %+v", err)
			}
			var counter int64
			stopped, err := fz.Extend(op, nil, &counter)
			if err != nil {
				t.Fatalf("Extend: %+v", err)
			}
			if stopped {
				t.Fatalf("unexpected breakdown")
			}
			if counter != int64(test.m) {
				t.Fatalf("counter = %d, want %d", counter, test.m)
			}

			// V's first p columns are orthonormal to tolerance 10*sqrt(n)*eps.
			tol := math.Sqrt(float64(test.n)) * epsilon * 10
			for i := 0; i < fz.P; i++ {
				for j := 0; j < fz.P; j++ {
					col1 := make([]float64, test.n)
					col2 := make([]float64, test.n)
					mat.Col(col1, i, fz.V)
					mat.Col(col2, j, fz.V)
					dot := euclideanDot(col1, col2)
					want := 0.0
					if i == j {
						want = 1.0
					}
					if math.Abs(dot-want) > tol {
						t.Fatalf("V columns %d,%d not orthonormal: dot=%v", i, j, dot)
					}
				}
			}

			// H's leading p x p block is upper Hessenberg with
			// nonnegative subdiagonal.
			for i := 0; i < fz.P; i++ {
				for j := 0; j < fz.P; j++ {
					if i > j+1 && fz.H.At(i, j) != 0 {
						t.Fatalf("H not Hessenberg at (%d,%d): %v", i, j, fz.H.At(i, j))
					}
				}
			}
			for i := 0; i+1 < fz.P; i++ {
				if fz.H.At(i+1, i) < 0 {
					t.Fatalf("H subdiagonal negative at %d: %v", i, fz.H.At(i+1, i))
				}
			}
		})
	}
}

func TestFactorizationBreakdownOnNilpotentShift(t *testing.T) {
	t.Parallel()
	const n = 6
	a := mat.NewDense(n, n, nil)
	for i := 0; i+1 < n; i++ {
		a.Set(i, i+1, 1)
	}
	op := NewDenseOperator(a)

	fz := NewFactorization(n, n-1)
	v0 := make([]float64, n)
	v0[n-2] = 1
	if err := fz.Init(nil, v0); err != nil {
		t.Fatalf("Init: %+v", err)
	}
	var counter int64
	_, err := fz.Extend(op, nil, &counter)
	if err != nil {
		t.Fatalf("Extend: %+v", err)
	}
	// A^k e_{n-2} vanishes at k = n-1, so the residual collapses at the
	// last column of this extension; the factorization must not error
	// out when that happens.
}
