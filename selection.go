package krylovschur

import (
	"cmp"
	"math"
	"math/cmplx"
	"slices"
)

// SelectionRule chooses which Ritz values are "wanted": the extremal
// ones kept at the front of the Schur form after each reorder, per the
// external interface's ComputeOptions.
type SelectionRule int

const (
	LargestMagnitude SelectionRule = iota
	SmallestMagnitude
	LargestReal
	SmallestReal
	LargestImaginary
	SmallestImaginary
)

func (r SelectionRule) String() string {
	switch r {
	case LargestMagnitude:
		return "LargestMagnitude"
	case SmallestMagnitude:
		return "SmallestMagnitude"
	case LargestReal:
		return "LargestReal"
	case SmallestReal:
		return "SmallestReal"
	case LargestImaginary:
		return "LargestImaginary"
	case SmallestImaginary:
		return "SmallestImaginary"
	default:
		return "SelectionRule(unknown)"
	}
}

// score returns the scalar selection uses to rank a Ritz value under
// this rule; Rank sorts descending by score, so "largest" rules return
// the quantity itself and "smallest" rules return its negation.
func (r SelectionRule) score(v complex128) float64 {
	switch r {
	case LargestMagnitude:
		return cmplx.Abs(v)
	case SmallestMagnitude:
		return -cmplx.Abs(v)
	case LargestReal:
		return real(v)
	case SmallestReal:
		return -real(v)
	case LargestImaginary:
		return math.Abs(imag(v))
	case SmallestImaginary:
		return -math.Abs(imag(v))
	default:
		return cmplx.Abs(v)
	}
}

// Rank returns the indices of d sorted from most to least wanted under
// rule, stable on ties so that conjugate pairs (which always tie in
// magnitude, real part, or |imaginary part|) keep their original
// relative order and so stay adjacent.
func Rank(d []complex128, rule SelectionRule) []int {
	idx := make([]int, len(d))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(rule.score(d[b]), rule.score(d[a]))
	})
	return idx
}
