package krylovschur

import (
	"fmt"
	"math"
	"testing"
)

func TestThreshold(t *testing.T) {
	t.Parallel()
	tests := []struct {
		tol, d float64
	}{
		{tol: 1e-10, d: 100},
		{tol: 1e-10, d: 0},
		{tol: 1e-6, d: -50},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v/%v", test.tol, test.d), func(t *testing.T) {
			t.Parallel()
			got := threshold(test.tol, test.d)
			want := test.tol * math.Max(eps23, math.Abs(test.d))
			if got != want {
				t.Fatalf("threshold(%v, %v) = %v, want %v", test.tol, test.d, got, want)
			}
			if got < test.tol*eps23 {
				t.Fatalf("threshold floor violated: %v", got)
			}
		})
	}
}

func TestNumConverged(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d, r []float64
		tol  float64
		want int
	}{
		{
			d:    []float64{10, 9, 8},
			r:    []float64{1e-14, 1e-14, 1},
			tol:  1e-10,
			want: 2,
		},
		{
			d:    []float64{1, 2, 3},
			r:    []float64{1, 1, 1},
			tol:  1e-10,
			want: 0,
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v", test.d), func(t *testing.T) {
			t.Parallel()
			got := numConverged(test.d, test.r, test.tol)
			if got != test.want {
				t.Fatalf("numConverged(...) = %d, want %d", got, test.want)
			}
		})
	}
}

func TestNextNev(t *testing.T) {
	t.Parallel()
	tests := []struct {
		k, m, nconv, nconvPrev int
		want                   int
	}{
		{k: 3, m: 10, nconv: 0, nconvPrev: 0, want: 3},
		{k: 3, m: 10, nconv: 2, nconvPrev: 0, want: 5},
		{k: 1, m: 10, nconv: 0, nconvPrev: 0, want: 5},
		{k: 3, m: 10, nconv: 1, nconvPrev: 4, want: 5},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%+v", test), func(t *testing.T) {
			t.Parallel()
			got := nextNev(test.k, test.m, test.nconv, test.nconvPrev)
			if got != test.want {
				t.Fatalf("nextNev(%d,%d,%d,%d) = %d, want %d", test.k, test.m, test.nconv, test.nconvPrev, got, test.want)
			}
		})
	}
}
