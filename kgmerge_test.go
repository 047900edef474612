package kgmerge_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kgmerge "github.com/soundprediction/go-kgmerge"
	"github.com/soundprediction/go-kgmerge/pkg/graph"
)

func writeFragment(t *testing.T, dir, name string, g graph.Graph) {
	t.Helper()
	data, err := json.Marshal(g)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestPipelineRun(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	writeFragment(t, inputDir, "doc1_kg.json", graph.Graph{
		Entities: []string{"Il Cane", "Gatto"},
		Relations: []graph.Relation{
			graph.NewRelation("Il Cane", "is", "Gatto"),
		},
		Edges: []string{"is"},
	})
	// "carne" is deliberately absent from the entity list: at merge time it
	// must resolve to itself.
	writeFragment(t, inputDir, "doc2_kg.json", graph.Graph{
		Entities: []string{"cane"},
		Relations: []graph.Relation{
			graph.NewRelation("cane", "mangia", "carne"),
		},
		Edges: []string{"mangia"},
	})

	pipeline := kgmerge.NewPipeline(kgmerge.Config{
		InputDir:  inputDir,
		OutputDir: outputDir,
		Threshold: 0.85,
	})

	result, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	// "Il Cane" and "cane" collapse into one cluster.
	assert.Equal(t, 3, result.Stats.OriginalEntities)
	assert.Equal(t, 2, result.Stats.ClusteredEntities)
	assert.Equal(t, []string{"Il Cane", "cane"}, result.EntityClusters["Il Cane"])

	// The stoplisted "is" relation is gone; the survivor is rewritten.
	assert.Equal(t, 2, result.Stats.OriginalRelations)
	require.Len(t, result.Relations, 1)
	assert.Equal(t, graph.NewRelation("Il Cane", "mangia", "carne"), result.Relations[0])
	assert.Equal(t, []string{"mangia"}, result.Edges)

	// Both artifacts are written and agree with the returned result.
	var persisted kgmerge.ClusteredGraph
	data, err := os.ReadFile(filepath.Join(outputDir, kgmerge.ClusteredGraphFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, result.Stats, persisted.Stats)
	assert.Equal(t, result.Relations, persisted.Relations)

	var details kgmerge.ClusterDetails
	data, err = os.ReadFile(filepath.Join(outputDir, kgmerge.ClusterDetailsFile))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &details))
	assert.Equal(t, result.EntityClusters, details.EntityClusters)
}

func TestPipelineRunEmptyInput(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	pipeline := kgmerge.NewPipeline(kgmerge.Config{
		InputDir:  inputDir,
		OutputDir: outputDir,
	})

	_, err := pipeline.Run(context.Background())
	require.ErrorIs(t, err, kgmerge.ErrNoGraphs)

	// The empty outcome writes nothing.
	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAggregateIsOrderIndependent(t *testing.T) {
	g1 := graph.Graph{
		Entities:  []string{"Roma", "Gallia"},
		Relations: []graph.Relation{graph.NewRelation("Roma", "conquista", "Gallia")},
	}
	g2 := graph.Graph{
		Entities:  []string{"Roma", "Egitto"},
		Relations: []graph.Relation{graph.NewRelation("Roma", "conquista", "Egitto")},
	}

	pipeline := kgmerge.NewPipeline(kgmerge.Config{Threshold: 0.85})
	ab := pipeline.Aggregate([]graph.Graph{g1, g2})
	ba := pipeline.Aggregate([]graph.Graph{g2, g1})

	assert.Equal(t, ab.Entities, ba.Entities)
	assert.Equal(t, ab.Relations, ba.Relations)
	assert.Equal(t, ab.EntityClusters, ba.EntityClusters)
}

func TestAggregateStats(t *testing.T) {
	g := graph.Graph{
		Entities: []string{"Roma", "Gallia", "Egitto"},
		Relations: []graph.Relation{
			graph.NewRelation("Roma", "conquista", "Gallia"),
			graph.NewRelation("Roma", "conquista", "Egitto"),
			graph.NewRelation("Roma", "of", "Gallia"),
		},
	}

	pipeline := kgmerge.NewPipeline(kgmerge.Config{Threshold: 0.85})
	result := pipeline.Aggregate([]graph.Graph{g})

	assert.Equal(t, 3, result.Stats.OriginalRelations)
	assert.Equal(t, 2, result.Stats.MergedRelations)
	require.NotEmpty(t, result.Stats.RelationAnalysis.TopRelations)
	assert.Equal(t, "conquista", result.Stats.RelationAnalysis.TopRelations[0].Predicate)
	assert.Equal(t, 2, result.Stats.RelationAnalysis.TopRelations[0].Count)
}
