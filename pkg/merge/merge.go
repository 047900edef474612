// Package merge rewrites relation triples through an entity cluster map and
// filters out relations that carry no information after the rewrite.
package merge

import (
	"strings"
	"unicode/utf8"

	"github.com/soundprediction/go-kgmerge/pkg/cluster"
	"github.com/soundprediction/go-kgmerge/pkg/graph"
)

// MinPredicateLen is the minimum trimmed predicate length for a relation to
// survive the merge.
const MinPredicateLen = 3

// stoplist holds predicates too generic to keep.
var stoplist = map[string]struct{}{
	"is":  {},
	"has": {},
	"of":  {},
}

// Stoplisted reports whether a predicate is filtered as non-informative.
func Stoplisted(predicate string) bool {
	_, ok := stoplist[strings.ToLower(predicate)]
	return ok
}

// Merge resolves every relation's endpoints through the cluster map and
// drops relations that fail the quality filters:
//
//   - source and target resolve to the same entity (case-insensitive); the
//     check runs after resolution, so two differently spelled mentions of
//     one entity are caught
//   - the trimmed predicate is shorter than MinPredicateLen
//   - the predicate is stoplisted
//
// Entities absent from every cluster resolve to themselves. The result is
// deduplicated and sorted lexicographically by (source, predicate, target).
func Merge(relations []graph.Relation, clusters []cluster.Cluster) []graph.Relation {
	repFor := cluster.Map(clusters)

	merged := make(map[graph.Relation]struct{})
	for _, rel := range relations {
		src := resolve(repFor, rel.Source)
		tgt := resolve(repFor, rel.Target)

		if strings.EqualFold(src, tgt) {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(rel.Predicate)) < MinPredicateLen {
			continue
		}
		if Stoplisted(rel.Predicate) {
			continue
		}

		merged[graph.NewRelation(src, rel.Predicate, tgt)] = struct{}{}
	}

	return graph.SortRelations(merged)
}

func resolve(repFor map[string]string, entity string) string {
	if rep, ok := repFor[entity]; ok {
		return rep
	}
	return entity
}
