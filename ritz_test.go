package krylovschur

import (
	"math"
	"math/cmplx"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSchurEigenvaluesDiagonal(t *testing.T) {
	t.Parallel()
	tm := mat.NewDense(3, 3, []float64{
		2, 0, 0,
		0, -1, 0,
		0, 0, 7,
	})
	vals := schurEigenvalues(tm, 3)
	want := []complex128{2, -1, 7}
	for i := range want {
		if vals[i] != want[i] {
			t.Fatalf("schurEigenvalues = %v, want %v", vals, want)
		}
	}
}

func TestSchurEigenvectorsUpperTriangular(t *testing.T) {
	t.Parallel()
	tm := mat.NewDense(2, 2, []float64{1, 3, 0, 2})
	vals := schurEigenvalues(tm, 2)
	e := schurEigenvectors(tm, 2, vals)
	// Column j must satisfy (T - lambda_j I) e[:,j] = 0.
	for j := 0; j < 2; j++ {
		lambda := vals[j]
		for row := 0; row < 2; row++ {
			var sum complex128
			for k := 0; k < 2; k++ {
				diag := complex(0.0, 0.0)
				if k == row {
					diag = -lambda
				}
				sum += (complex(tm.At(row, k), 0) + diag) * e[k*2+j]
			}
			if cmplx.Abs(sum) > 1e-9 {
				t.Fatalf("column %d not an eigenvector: residual row %d = %v", j, row, sum)
			}
		}
	}
}

func TestRitzResiduals(t *testing.T) {
	t.Parallel()
	p := 3
	e := make([]complex128, p*p)
	for i := 0; i < p; i++ {
		e[i*p+i] = 1
	}
	e[(p-1)*p+0] = 2
	r := ritzResiduals(e, p, 5)
	if math.Abs(r[0]-10) > 1e-9 {
		t.Fatalf("r[0] = %v, want 10", r[0])
	}
	if math.Abs(r[1]) > 1e-9 {
		t.Fatalf("r[1] = %v, want 0", r[1])
	}
}

func TestRitzVectorsIdentityX(t *testing.T) {
	t.Parallel()
	n, p := 3, 2
	vx := mat.NewDense(n, p, []float64{1, 0, 0, 1, 0, 0})
	e := make([]complex128, p*p)
	e[0] = 1
	e[1*p+1] = 1
	u := ritzVectors(vx, e, n, p)
	if cmplx.Abs(u[0*n+0]-1) > 1e-12 {
		t.Fatalf("u column 0 row 0 = %v, want 1", u[0*n+0])
	}
	if cmplx.Abs(u[1*n+1]-1) > 1e-12 {
		t.Fatalf("u column 1 row 1 = %v, want 1", u[1*n+1])
	}
}
