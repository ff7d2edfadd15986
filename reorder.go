package krylovschur

import "gonum.org/v1/gonum/mat"

// blockStarts partitions [0, p) into the diagonal blocks of a
// quasi-triangular matrix t: each block is size 1, or size 2 when
// t[i+1,i] != 0 marks an unreduced conjugate-pair block.
func blockStarts(t *mat.Dense, p int) []int {
	var starts []int
	for i := 0; i < p; {
		starts = append(starts, i)
		if i+1 < p && t.At(i+1, i) != 0 {
			i += 2
		} else {
			i++
		}
	}
	return starts
}

func blockSize(t *mat.Dense, p, start int) int {
	if start+1 < p && t.At(start+1, start) != 0 {
		return 2
	}
	return 1
}

// OrdSchur permutes the real Schur pair (x, t), both p x p, so that the
// blocks flagged by sigma (one bool per row/column index 0..p-1) come
// first, preserving the order among selected blocks and among
// unselected blocks. It panics if sigma splits a 2x2 conjugate-pair
// block, since the caller is responsible for expanding sigma to keep
// such pairs atomic before calling this function.
func OrdSchur(x, t *mat.Dense, sigma []bool) {
	p := len(sigma)
	for _, start := range blockStarts(t, p) {
		if blockSize(t, p, start) == 2 && sigma[start] != sigma[start+1] {
			panic("krylovschur: OrdSchur given an unexpanded conjugate pair selection")
		}
	}

	// Destination permutation over blocks: selected blocks first (in
	// their original relative order), then unselected blocks.
	starts := blockStarts(t, p)
	var destOrder []int
	for _, s := range starts {
		if sigma[s] {
			destOrder = append(destOrder, s)
		}
	}
	for _, s := range starts {
		if !sigma[s] {
			destOrder = append(destOrder, s)
		}
	}

	// Bubble the blocks into destOrder by repeatedly swapping adjacent
	// blocks, tracking current block boundaries as they shift.
	cur := append([]int(nil), starts...)
	for target := 0; target < len(destOrder); target++ {
		// Find where the block that should land at `target` currently sits.
		j := -1
		for idx, s := range cur {
			if s == destOrder[target] {
				j = idx
				break
			}
		}
		if j <= target {
			continue // already in place from an earlier swap's side effect
		}
		for j > target {
			left := cur[j-1]
			right := cur[j]
			n1 := blockSize(t, p, left)
			n2 := blockSize(t, p, right)
			swapAdjacentBlocks(x, t, left, n1, n2)
			// The block formerly at `right` now starts at `left`; the
			// block formerly at `left` now starts at left+n2.
			cur[j-1] = left
			cur[j] = left + n2
			j--
		}
	}
}

// swapAdjacentBlocks exchanges the two adjacent diagonal blocks of t
// starting at i (size n1) and i+n1 (size n2), updating x so that
// x*t*x^T is preserved. Sizes are 1 or 2, matching the atomic units
// OrdSchur ever moves.
//
// This follows the direct-swap construction of Bai & Demmel, "On
// Swapping Diagonal Blocks in Real Schur Form" (1993), the same
// technique LAPACK's DLAEXC implements: solve the Sylvester equation
// T11*P - P*T22 = -T12 for P, then the first n2 columns of an
// orthogonal basis of the column space of [P; I] span the invariant
// subspace belonging to T22's eigenvalues, so applying that orthogonal
// matrix as a similarity transform moves T22 to the front.
func swapAdjacentBlocks(x, t *mat.Dense, i, n1, n2 int) {
	if n1 == 1 && n2 == 1 && t.At(i, i) == t.At(i+1, i+1) {
		// Degenerate: swapping identical eigenvalues changes nothing
		// observable; skip to avoid a singular Sylvester system.
		return
	}

	t11 := subMatrix(t, i, i, n1, n1)
	t12 := subMatrix(t, i, i+n1, n1, n2)
	t22 := subMatrix(t, i+n1, i+n1, n2, n2)

	p := solveSylvester(t11, t22, t12, n1, n2)

	m := mat.NewDense(n1+n2, n2, nil)
	for r := 0; r < n1; r++ {
		for c := 0; c < n2; c++ {
			m.Set(r, c, p[r*n2+c])
		}
	}
	for r := 0; r < n2; r++ {
		m.Set(n1+r, r, 1)
	}

	var qr mat.QR
	qr.Factorize(m)
	q := qr.QTo(nil)

	w := n1 + n2
	applyBlockSimilarity(t, x, i, w, q)

	// The block below the moved T22 is zero in exact arithmetic; clear
	// its rounding residue so blockStarts does not see a fake 2x2 block.
	for r := i + n2; r < i+w; r++ {
		for c := i; c < i+n2; c++ {
			t.Set(r, c, 0)
		}
	}
}

// subMatrix copies the r x c block of m starting at (row, col) into a
// flat row-major slice.
func subMatrix(m *mat.Dense, row, col, r, c int) []float64 {
	out := make([]float64, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out[i*c+j] = m.At(row+i, col+j)
		}
	}
	return out
}

// solveSylvester solves a*p - p*b = -c for p (n1 x n2), with a (n1 x
// n1), b (n2 x n2), c (n1 x n2), by forming the (n1*n2) x (n1*n2)
// Kronecker system (I_n2 ⊗ a - b^T ⊗ I_n1) vec(p) = -vec(c) and solving
// it with Gauss elimination with partial pivoting. n1, n2 are always 1
// or 2 here, so the system is at most 4x4.
func solveSylvester(a, b, c []float64, n1, n2 int) []float64 {
	dim := n1 * n2
	k := make([][]float64, dim)
	for idx := range k {
		k[idx] = make([]float64, dim+1)
	}

	at := func(r, cc int) float64 { return a[r*n1+cc] }
	bt := func(r, cc int) float64 { return b[r*n2+cc] }

	// Row/col index into vec(p): vec index = r*n2+col for p[r][col].
	for r := 0; r < n1; r++ {
		for col := 0; col < n2; col++ {
			row := r*n2 + col
			for rp := 0; rp < n1; rp++ {
				k[row][rp*n2+col] += at(r, rp)
			}
			for cp := 0; cp < n2; cp++ {
				k[row][r*n2+cp] -= bt(cp, col)
			}
			k[row][dim] = -c[r*n2+col]
		}
	}

	gaussEliminate(k, dim)

	p := make([]float64, dim)
	for i := 0; i < dim; i++ {
		p[i] = k[i][dim]
	}
	return p
}

func gaussEliminate(k [][]float64, dim int) {
	for col := 0; col < dim; col++ {
		piv := col
		for r := col + 1; r < dim; r++ {
			if abs(k[r][col]) > abs(k[piv][col]) {
				piv = r
			}
		}
		k[col], k[piv] = k[piv], k[col]
		pivot := k[col][col]
		if pivot == 0 {
			continue
		}
		for r := 0; r < dim; r++ {
			if r == col {
				continue
			}
			factor := k[r][col] / pivot
			if factor == 0 {
				continue
			}
			for cc := col; cc <= dim; cc++ {
				k[r][cc] -= factor * k[col][cc]
			}
		}
	}
	for col := 0; col < dim; col++ {
		if k[col][col] != 0 {
			k[col][dim] /= k[col][col]
		}
	}
}

// applyBlockSimilarity replaces t's w x w diagonal block starting at i
// with q^T * t[i:i+w,i:i+w] * q, propagates the transform to the rest
// of t's row/column at that band, and updates x's matching columns.
func applyBlockSimilarity(t, x *mat.Dense, i, w int, q *mat.Dense) {
	n, _ := t.Dims()

	rows := mat.NewDense(w, n, nil)
	rows.Copy(t.Slice(i, i+w, 0, n))
	var newRows mat.Dense
	newRows.Mul(q.T(), rows)
	t.Slice(i, i+w, 0, n).(*mat.Dense).Copy(&newRows)

	cols := mat.NewDense(n, w, nil)
	cols.Copy(t.Slice(0, n, i, i+w))
	var newCols mat.Dense
	newCols.Mul(cols, q)
	t.Slice(0, n, i, i+w).(*mat.Dense).Copy(&newCols)

	nx, _ := x.Dims()
	xcols := mat.NewDense(nx, w, nil)
	xcols.Copy(x.Slice(0, nx, i, i+w))
	var newXCols mat.Dense
	newXCols.Mul(xcols, q)
	x.Slice(0, nx, i, i+w).(*mat.Dense).Copy(&newXCols)
}
