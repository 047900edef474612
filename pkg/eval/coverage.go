// Package eval measures semantic coverage between two knowledge graphs: the
// fraction of a gold standard's relations that have a sufficiently similar
// relation in a candidate graph under embedding cosine similarity. It is a
// boundary collaborator of the clustering pipeline and never feeds back into
// it.
package eval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/soundprediction/go-kgmerge/pkg/cache"
	"github.com/soundprediction/go-kgmerge/pkg/embedder"
	"github.com/soundprediction/go-kgmerge/pkg/graph"
)

// DefaultThreshold is the recommended semantic similarity threshold.
const DefaultThreshold = 0.8

// Result holds the outcome of a coverage evaluation.
type Result struct {
	GoldRelations    int     `json:"gold_relations"`
	CoveredRelations int     `json:"covered_relations"`
	Coverage         float64 `json:"coverage"`
}

// Evaluator computes coverage using an embedding client. An optional cache
// avoids re-embedding relations across evaluations of the same model.
type Evaluator struct {
	embedder embedder.Client
	cache    *cache.EmbeddingCache
	model    string
	logger   *slog.Logger
}

// NewEvaluator creates an evaluator. cache may be nil to disable caching;
// model names the cache namespace and should match the embedder's model.
func NewEvaluator(client embedder.Client, embCache *cache.EmbeddingCache, model string, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		embedder: client,
		cache:    embCache,
		model:    model,
		logger:   logger,
	}
}

// Coverage returns the fraction of gold relations whose best cosine
// similarity against any candidate relation reaches threshold. Relations are
// embedded as their space-joined triple text. An empty gold graph has
// coverage 0.
func (e *Evaluator) Coverage(ctx context.Context, candidate, gold []graph.Relation, threshold float64) (*Result, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if len(gold) == 0 {
		return &Result{}, nil
	}
	if len(candidate) == 0 {
		return &Result{GoldRelations: len(gold)}, nil
	}

	candidateVecs, err := e.embedRelations(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to embed candidate relations: %w", err)
	}
	goldVecs, err := e.embedRelations(ctx, gold)
	if err != nil {
		return nil, fmt.Errorf("failed to embed gold relations: %w", err)
	}

	covered := 0
	for _, gv := range goldVecs {
		best := 0.0
		for _, cv := range candidateVecs {
			if sim := cosineSimilarity(gv, cv); sim > best {
				best = sim
			}
		}
		if best >= threshold {
			covered++
		}
	}

	result := &Result{
		GoldRelations:    len(gold),
		CoveredRelations: covered,
		Coverage:         float64(covered) / float64(len(gold)),
	}
	e.logger.Info("coverage computed",
		"gold_relations", result.GoldRelations,
		"covered_relations", result.CoveredRelations,
		"coverage", result.Coverage)
	return result, nil
}

// embedRelations embeds every relation's triple text, serving from and
// filling the cache where one is configured.
func (e *Evaluator) embedRelations(ctx context.Context, relations []graph.Relation) ([][]float32, error) {
	texts := make([]string, len(relations))
	for i, rel := range relations {
		texts[i] = relationText(rel)
	}

	vecs := make([][]float32, len(texts))
	var missing []int
	for i, text := range texts {
		if e.cache == nil {
			missing = append(missing, i)
			continue
		}
		vec, err := e.cache.Get(e.model, text)
		switch {
		case err == nil:
			vecs[i] = vec
		case errors.Is(err, cache.ErrNotFound):
			missing = append(missing, i)
		default:
			return nil, err
		}
	}

	if len(missing) > 0 {
		toEmbed := make([]string, len(missing))
		for i, idx := range missing {
			toEmbed[i] = texts[idx]
		}
		embedded, err := e.embedder.Embed(ctx, toEmbed)
		if err != nil {
			return nil, err
		}
		if len(embedded) != len(missing) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(missing), len(embedded))
		}
		for i, idx := range missing {
			vecs[idx] = embedded[i]
			if e.cache != nil {
				if err := e.cache.Put(e.model, texts[idx], embedded[i]); err != nil {
					e.logger.Warn("failed to cache embedding", "error", err)
				}
			}
		}
	}

	return vecs, nil
}

func relationText(rel graph.Relation) string {
	return strings.Join([]string{rel.Source, rel.Predicate, rel.Target}, " ")
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
