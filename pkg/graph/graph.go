// Package graph defines the knowledge-graph fragment types shared by the
// extraction producer and the clustering pipeline, plus loading and
// persistence of the JSON wire format.
package graph

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Relation is a (source, predicate, target) triple. On the wire it is a
// three-element JSON array, matching the format emitted by the extraction
// producer.
type Relation struct {
	Source    string
	Predicate string
	Target    string
}

// NewRelation creates a relation triple.
func NewRelation(source, predicate, target string) Relation {
	return Relation{Source: source, Predicate: predicate, Target: target}
}

// MarshalJSON encodes the relation as ["source", "predicate", "target"].
func (r Relation) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{r.Source, r.Predicate, r.Target})
}

// UnmarshalJSON decodes a three-element JSON array into the relation.
func (r *Relation) UnmarshalJSON(data []byte) error {
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return fmt.Errorf("relation must have 3 elements, got %d", len(parts))
	}
	r.Source, r.Predicate, r.Target = parts[0], parts[1], parts[2]
	return nil
}

// Less orders relations lexicographically by (source, predicate, target).
func (r Relation) Less(other Relation) bool {
	if r.Source != other.Source {
		return r.Source < other.Source
	}
	if r.Predicate != other.Predicate {
		return r.Predicate < other.Predicate
	}
	return r.Target < other.Target
}

// Graph is a knowledge-graph fragment: entities, relation triples, and the
// distinct predicates ("edges") appearing in them.
type Graph struct {
	Entities  []string   `json:"entities"`
	Relations []Relation `json:"relations"`
	Edges     []string   `json:"edges"`
}

// Union combines multiple graph fragments into one with set semantics.
// The result's slices are sorted, so the union is independent of the order
// the fragments are given in.
func Union(graphs []Graph) Graph {
	entities := make(map[string]struct{})
	relations := make(map[Relation]struct{})
	edges := make(map[string]struct{})

	for _, g := range graphs {
		for _, e := range g.Entities {
			entities[e] = struct{}{}
		}
		for _, r := range g.Relations {
			relations[r] = struct{}{}
		}
		for _, e := range g.Edges {
			edges[e] = struct{}{}
		}
	}

	return Graph{
		Entities:  sortedKeys(entities),
		Relations: SortRelations(relations),
		Edges:     sortedKeys(edges),
	}
}

// SortRelations returns the relations of a set as a sorted slice.
func SortRelations(set map[Relation]struct{}) []Relation {
	out := make([]Relation, 0, len(set))
	for r := range set {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
