package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceScorer(t *testing.T) {
	scorer := SequenceScorer{}

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "cane", "cane", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "cane", "", 0.0},
		{"disjoint", "abc", "xyz", 0.0},
		{"single common letter", "gatto", "cane", 2.0 / 9.0},
		{"shifted block", "abcd", "bcde", 0.75},
		{"near duplicate", "gatto nero", "gatto nera", 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scorer.Score(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSequenceScorerSymmetric(t *testing.T) {
	scorer := SequenceScorer{}
	pairs := [][2]string{
		{"gatto", "cane"},
		{"abcd", "bcde"},
		{"il cane grande", "cane"},
	}
	for _, p := range pairs {
		assert.InDelta(t, scorer.Score(p[0], p[1]), scorer.Score(p[1], p[0]), 1e-9)
	}
}

func TestScorerFunc(t *testing.T) {
	constant := ScorerFunc(func(a, b string) float64 { return 0.5 })
	assert.Equal(t, 0.5, constant.Score("anything", "else"))
}
