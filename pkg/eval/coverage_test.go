package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/go-kgmerge/pkg/cache"
	"github.com/soundprediction/go-kgmerge/pkg/graph"
)

// vectorEmbedder maps each text to a fixed vector.
type vectorEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (e *vectorEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := e.vectors[text]
		if !ok {
			vec = []float32{0, 0, 1}
		}
		out[i] = vec
	}
	return out, nil
}

func (e *vectorEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *vectorEmbedder) Close() error { return nil }

func TestCoverage(t *testing.T) {
	// Two gold relations: one aligned with a candidate vector, one orthogonal
	// to everything the candidate has.
	emb := &vectorEmbedder{vectors: map[string][]float32{
		"Roma conquista Gallia": {1, 0, 0},
		"Roma conquered Gallia": {1, 0, 0},
		"Egitto esporta papiro": {0, 1, 0},
		"Cartagine domina mare": {0, 0, 1},
	}}
	ev := NewEvaluator(emb, nil, "test-model", nil)

	candidate := []graph.Relation{
		graph.NewRelation("Roma", "conquista", "Gallia"),
		graph.NewRelation("Cartagine", "domina", "mare"),
	}
	gold := []graph.Relation{
		graph.NewRelation("Roma", "conquered", "Gallia"),
		graph.NewRelation("Egitto", "esporta", "papiro"),
	}

	result, err := ev.Coverage(context.Background(), candidate, gold, 0.9)
	require.NoError(t, err)
	assert.Equal(t, 2, result.GoldRelations)
	assert.Equal(t, 1, result.CoveredRelations)
	assert.InDelta(t, 0.5, result.Coverage, 1e-9)
}

func TestCoverageEmptyGold(t *testing.T) {
	ev := NewEvaluator(&vectorEmbedder{}, nil, "test-model", nil)

	result, err := ev.Coverage(context.Background(),
		[]graph.Relation{graph.NewRelation("a", "b", "c")}, nil, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 0, result.GoldRelations)
	assert.Zero(t, result.Coverage)
}

func TestCoverageEmptyCandidate(t *testing.T) {
	ev := NewEvaluator(&vectorEmbedder{}, nil, "test-model", nil)

	gold := []graph.Relation{graph.NewRelation("a", "b", "c")}
	result, err := ev.Coverage(context.Background(), nil, gold, 0.8)
	require.NoError(t, err)
	assert.Equal(t, 1, result.GoldRelations)
	assert.Equal(t, 0, result.CoveredRelations)
	assert.Zero(t, result.Coverage)
}

func TestCoverageUsesCache(t *testing.T) {
	embCache, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	defer embCache.Close()

	emb := &vectorEmbedder{vectors: map[string][]float32{
		"a b c": {1, 0, 0},
	}}
	ev := NewEvaluator(emb, embCache, "test-model", nil)

	rels := []graph.Relation{graph.NewRelation("a", "b", "c")}

	_, err = ev.Coverage(context.Background(), rels, rels, 0.8)
	require.NoError(t, err)
	callsAfterFirst := emb.calls
	assert.Greater(t, callsAfterFirst, 0)

	// The second run must be served entirely from the cache.
	result, err := ev.Coverage(context.Background(), rels, rels, 0.8)
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, emb.calls)
	assert.Equal(t, 1, result.CoveredRelations)
}
