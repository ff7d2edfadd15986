package krylovschur

import (
	"fmt"
	"testing"
)

func TestRank(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    []complex128
		rule SelectionRule
		want []int
	}{
		{
			d:    []complex128{1, 5, 3, -8},
			rule: LargestMagnitude,
			want: []int{3, 1, 2, 0},
		},
		{
			d:    []complex128{1, 5, 3, -8},
			rule: SmallestMagnitude,
			want: []int{0, 2, 1, 3},
		},
		{
			d:    []complex128{1, 5, 3, -8},
			rule: LargestReal,
			want: []int{1, 2, 0, 3},
		},
		{
			d:    []complex128{1, 5, 3, -8},
			rule: SmallestReal,
			want: []int{3, 0, 2, 1},
		},
		{
			d:    []complex128{complex(1, 2), complex(1, -2), complex(0, 5)},
			rule: LargestImaginary,
			want: []int{2, 0, 1},
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v/%s", test.d, test.rule), func(t *testing.T) {
			t.Parallel()
			got := Rank(test.d, test.rule)
			if len(got) != len(test.want) {
				t.Fatalf("len(got) = %d, want %d", len(got), len(test.want))
			}
			for i := range got {
				if got[i] != test.want[i] {
					t.Fatalf("Rank(%v, %s) = %v, want %v", test.d, test.rule, got, test.want)
				}
			}
		})
	}
}

func TestRankStableOnConjugatePairs(t *testing.T) {
	t.Parallel()
	d := []complex128{complex(3, 1), complex(3, -1), complex(5, 0)}
	got := Rank(d, LargestMagnitude)
	// The conjugate pair ties in magnitude; stability keeps index 0
	// before index 1 in the output whenever both trail index 2.
	pos0, pos1 := -1, -1
	for i, j := range got {
		if j == 0 {
			pos0 = i
		}
		if j == 1 {
			pos1 = i
		}
	}
	if pos0 > pos1 {
		t.Fatalf("Rank broke conjugate-pair adjacency order: %v", got)
	}
}
