package cluster

// Scorer computes a similarity in [0,1] between two normalized entity
// strings. It is the pluggable half of the clustering heuristics: swapping
// the scorer changes how entities are judged similar without touching the
// partition construction.
type Scorer interface {
	Score(a, b string) float64
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(a, b string) float64

// Score calls f.
func (f ScorerFunc) Score(a, b string) float64 { return f(a, b) }

// SequenceScorer implements the Ratcliff-Obershelp matching ratio:
// 2*M / (len(a)+len(b)), where M is the total length of the matching blocks
// found by recursively locating the longest common substring. Two empty
// strings score 1.0.
type SequenceScorer struct{}

// Score returns the matching ratio between a and b. Comparison is per rune.
func (SequenceScorer) Score(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	matched := matchTotal(ra, rb, 0, len(ra), 0, len(rb))
	return 2.0 * float64(matched) / float64(total)
}

// matchTotal sums the sizes of the matching blocks in a[alo:ahi] vs
// b[blo:bhi]: find the longest match, then recurse on the pieces to its left
// and right.
func matchTotal(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, k := longestMatch(a, b, alo, ahi, blo, bhi)
	if k == 0 {
		return 0
	}
	return k + matchTotal(a, b, alo, i, blo, j) + matchTotal(a, b, i+k, ahi, j+k, bhi)
}

// longestMatch finds the longest matching block in a[alo:ahi] and b[blo:bhi],
// preferring the earliest position in a and then in b on equal length.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo

	// j2len[j] is the length of the match ending at a[i-1], b[j].
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for j := blo; j < bhi; j++ {
			if a[i] != b[j] {
				continue
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestsize
}
