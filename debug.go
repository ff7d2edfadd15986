package krylovschur

import (
	"log"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/fumin/krylovschur/internal/throttle"
)

// Debug gates the package's internal relation checks. It is off by
// default so that Compute is silent and its hot loops pay no extra
// cost; flip it on when debugging a custom Operator implementation.
var Debug bool

var debugThrottle = throttle.New(5 * time.Second)

// checkFactorization verifies the defining Arnoldi relation
// A*V[:,:p] = V*H[:,:p] + f*e_p^T to working precision. It does
// nothing unless Debug is true (and then runs at most once per
// debugThrottle interval), and only logs (never returns an error),
// matching the teacher's checkAQQH: a developer aid, not a production
// safety net.
func checkFactorization(op Operator, fz *Factorization, label string) {
	if !Debug || !debugThrottle.Ok() {
		return
	}

	n, p := fz.N, fz.P
	if p == 0 {
		return
	}

	av := mat.NewDense(n, p, nil)
	w := make([]float64, n)
	for j := 0; j < p; j++ {
		col := make([]float64, n)
		mat.Col(col, j, fz.V)
		op.Apply(w, col)
		av.SetCol(j, w)
	}

	vh := mat.NewDense(n, p, nil)
	hBlock := fz.H.Slice(0, p, 0, p)
	vBlock := fz.V.Slice(0, n, 0, p)
	vh.Mul(vBlock, hBlock)

	var maxDiff float64
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			diff := av.At(i, j) - vh.At(i, j)
			if j == p-1 {
				diff -= fz.F[i]
			}
			if d := abs(diff); d > maxDiff {
				maxDiff = d
			}
		}
	}
	log.Printf("krylovschur: %s factorization residual %.3e", label, maxDiff)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
