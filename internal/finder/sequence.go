package finder

import (
	"cmp"
	"slices"
)

// inversions returns the index i of every adjacent pair (i, i+1) that is
// out of ascending order under compare. Only neighbours are compared; a
// sequence with a non-adjacent inversion always has an adjacent one too, so
// fixing every reported pair converges to a sorted sequence.
func inversions(tokens []Token, compare func(a, b Token) int) []int {
	var out []int
	for i := 0; i+1 < len(tokens); i++ {
		if compare(tokens[i], tokens[i+1]) > 0 {
			out = append(out, i)
		}
	}
	return out
}

// reorder returns the stable sort target of tokens, or false when tokens
// are already in order.
func reorder(tokens []Token, compare func(a, b Token) int) (Reorder, bool) {
	if len(inversions(tokens, compare)) == 0 {
		return Reorder{}, false
	}
	sorted := slices.Clone(tokens)
	slices.SortStableFunc(sorted, compare)
	return Reorder{Slots: tokens, Sorted: sorted}, true
}

func byKey(a, b Token) int {
	return cmp.Compare(a.Key, b.Key)
}

func byRank(ranks map[string]int) func(a, b Token) int {
	return func(a, b Token) int {
		return cmp.Compare(ranks[a.Key], ranks[b.Key])
	}
}
