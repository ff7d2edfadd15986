package krylovschur

import "math"

// eps23 is the eps^(2/3) floor used so a threshold never collapses to
// zero for Ritz values near the origin.
var eps23 = math.Pow(epsilon, 2.0/3.0)

// threshold returns the residual tolerance for a Ritz value d under
// convergence parameter tol.
func threshold(tol, d float64) float64 {
	return tol * math.Max(eps23, math.Abs(d))
}

// numConverged counts, among the first len(r) Ritz pairs (already
// ranked by the active selection rule), how many have residual r[j]
// below threshold(tol, d[j]).
func numConverged(d, r []float64, tol float64) int {
	n := 0
	for j := range r {
		if r[j] < threshold(tol, d[j]) {
			n++
		}
	}
	return n
}

// nextNev derives the next restart size nev' from the current
// convergence count, widening it when convergence stagnates (fewer
// converged pairs than the previous iteration, despite continued
// effort) so the search does not keep circling the same subspace.
func nextNev(k, m, nconv, nconvPrev int) int {
	nev := k + min(nconv, (m-k)/2)
	if nev == 1 && m > 3 {
		nev = m / 2
	}
	if nev+1 < m && nconvPrev > nconv {
		nev++
	}
	return nev
}
