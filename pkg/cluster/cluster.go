// Package cluster partitions entity mentions into equivalence clusters using
// normalized-string heuristics. The algorithm is a greedy single pass: it is
// deliberately not transitive and not order independent, so the iteration
// order over entities is fixed up front to keep runs reproducible.
package cluster

import (
	"sort"
	"strings"
)

// DefaultThreshold is the recommended similarity threshold for entity
// clustering.
const DefaultThreshold = 0.85

// Cluster is a group of entity mentions judged equivalent. The
// representative is the first entity encountered for the group and is always
// the first member.
type Cluster struct {
	Representative string   `json:"representative"`
	Members        []string `json:"members"`
}

// Clusterer builds entity clusters. The zero value is not usable; construct
// with NewClusterer.
type Clusterer struct {
	scorer Scorer
}

// NewClusterer creates a Clusterer using the given similarity scorer.
// A nil scorer defaults to SequenceScorer.
func NewClusterer(scorer Scorer) *Clusterer {
	if scorer == nil {
		scorer = SequenceScorer{}
	}
	return &Clusterer{scorer: scorer}
}

// Cluster partitions entities into clusters. Entities are first sorted
// lexicographically so that clustering is a deterministic function of the
// entity set, not of the caller's slice order. An unconsumed entity opens a
// new cluster; every later unconsumed entity joins it when any heuristic
// holds against the cluster seed, compared on normalized forms:
//
//   - similarity score >= threshold
//   - equal first whitespace-delimited token
//   - equal first five runes
//
// The prefix heuristics can over-merge unrelated entities sharing a common
// prefix. That trade-off is part of the contract; callers needing higher
// precision should raise the threshold or supply a stricter Scorer.
//
// The returned clusters form a partition: every input entity appears in
// exactly one cluster.
func (c *Clusterer) Cluster(entities []string, threshold float64) []Cluster {
	ordered := make([]string, len(entities))
	copy(ordered, entities)
	sort.Strings(ordered)

	norms := make([]string, len(ordered))
	for i, e := range ordered {
		norms[i] = Normalize(e)
	}

	used := make([]bool, len(ordered))
	var clusters []Cluster

	for i := range ordered {
		if used[i] {
			continue
		}
		used[i] = true
		cl := Cluster{
			Representative: ordered[i],
			Members:        []string{ordered[i]},
		}

		for j := i + 1; j < len(ordered); j++ {
			if used[j] {
				continue
			}
			if c.matches(norms[i], norms[j], threshold) {
				cl.Members = append(cl.Members, ordered[j])
				used[j] = true
			}
		}

		clusters = append(clusters, cl)
	}

	return clusters
}

func (c *Clusterer) matches(a, b string, threshold float64) bool {
	if c.scorer.Score(a, b) >= threshold {
		return true
	}
	if firstToken(a) != "" && firstToken(a) == firstToken(b) {
		return true
	}
	return prefix(a, 5) == prefix(b, 5)
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

// Map flattens clusters into an entity -> representative lookup. Entities
// absent from the map resolve to themselves at merge time.
func Map(clusters []Cluster) map[string]string {
	m := make(map[string]string)
	for _, cl := range clusters {
		for _, member := range cl.Members {
			m[member] = cl.Representative
		}
	}
	return m
}
