// Package analyze computes frequency statistics over a merged relation set.
package analyze

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/soundprediction/go-kgmerge/pkg/graph"
)

const (
	// TopRelationLimit caps the predicate frequency list.
	TopRelationLimit = 10
	// TopPairLimit caps the entity-pair frequency list.
	TopPairLimit = 5
)

// PredicateCount is a predicate and its occurrence count. It marshals as a
// two-element array to match the persisted artifact format.
type PredicateCount struct {
	Predicate string
	Count     int
}

// MarshalJSON encodes the count as [predicate, count].
func (p PredicateCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Predicate, p.Count})
}

// UnmarshalJSON decodes [predicate, count].
func (p *PredicateCount) UnmarshalJSON(data []byte) error {
	parts := []any{&p.Predicate, &p.Count}
	return json.Unmarshal(data, &parts)
}

// PairCount is a (source, target) entity pair and its occurrence count.
// It marshals as [[source, target], count].
type PairCount struct {
	Source string
	Target string
	Count  int
}

// MarshalJSON encodes the count as [[source, target], count].
func (p PairCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{[2]string{p.Source, p.Target}, p.Count})
}

// UnmarshalJSON decodes [[source, target], count].
func (p *PairCount) UnmarshalJSON(data []byte) error {
	var pair [2]string
	parts := []any{&pair, &p.Count}
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	p.Source, p.Target = pair[0], pair[1]
	return nil
}

// Analysis summarizes the most frequent predicates and entity pairs of a
// relation set. It is output-only; nothing downstream consumes it.
type Analysis struct {
	TopRelations      []PredicateCount `json:"top_relations"`
	CommonEntityPairs []PairCount      `json:"common_entity_pairs"`
}

// Analyze counts predicate and (source, target) pair frequencies
// case-insensitively and keeps the most frequent of each. Ordering among
// equal counts follows map iteration order and is not deterministic; only
// the descending-count ordering is guaranteed.
func Analyze(relations []graph.Relation) Analysis {
	predicates := make(map[string]int)
	pairs := make(map[[2]string]int)

	for _, rel := range relations {
		predicates[strings.ToLower(rel.Predicate)]++
		pairs[[2]string{strings.ToLower(rel.Source), strings.ToLower(rel.Target)}]++
	}

	topRelations := make([]PredicateCount, 0, len(predicates))
	for pred, count := range predicates {
		topRelations = append(topRelations, PredicateCount{Predicate: pred, Count: count})
	}
	sort.SliceStable(topRelations, func(i, j int) bool {
		return topRelations[i].Count > topRelations[j].Count
	})
	if len(topRelations) > TopRelationLimit {
		topRelations = topRelations[:TopRelationLimit]
	}

	commonPairs := make([]PairCount, 0, len(pairs))
	for pair, count := range pairs {
		commonPairs = append(commonPairs, PairCount{Source: pair[0], Target: pair[1], Count: count})
	}
	sort.SliceStable(commonPairs, func(i, j int) bool {
		return commonPairs[i].Count > commonPairs[j].Count
	})
	if len(commonPairs) > TopPairLimit {
		commonPairs = commonPairs[:TopPairLimit]
	}

	return Analysis{
		TopRelations:      topRelations,
		CommonEntityPairs: commonPairs,
	}
}
