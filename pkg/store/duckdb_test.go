package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kgmerge "github.com/soundprediction/go-kgmerge"
	"github.com/soundprediction/go-kgmerge/pkg/graph"
)

func testResult() *kgmerge.ClusteredGraph {
	return &kgmerge.ClusteredGraph{
		Entities: []string{"Gatto", "Il Cane"},
		Relations: []graph.Relation{
			graph.NewRelation("Il Cane", "insegue", "Gatto"),
			graph.NewRelation("Il Cane", "abbaia", "Gatto"),
		},
		Edges: []string{"abbaia", "insegue"},
		EntityClusters: map[string][]string{
			"Il Cane": {"Il Cane", "cane"},
			"Gatto":   {"Gatto"},
		},
		Stats: kgmerge.Stats{
			OriginalEntities:  3,
			ClusteredEntities: 2,
			OriginalRelations: 2,
			MergedRelations:   2,
		},
	}
}

func TestDuckDBWriteRun(t *testing.T) {
	s, err := NewDuckDBStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, "run-1", 0.85, testResult()))

	assert.Equal(t, 1, countRows(t, s, "runs"))
	assert.Equal(t, 2, countRows(t, s, "relations"))
	assert.Equal(t, 3, countRows(t, s, "clusters"))

	var threshold float64
	var merged int
	err = s.db.QueryRowContext(ctx,
		`SELECT threshold, merged_relations FROM runs WHERE id = ?`, "run-1").
		Scan(&threshold, &merged)
	require.NoError(t, err)
	assert.Equal(t, 0.85, threshold)
	assert.Equal(t, 2, merged)

	var member string
	err = s.db.QueryRowContext(ctx,
		`SELECT member FROM clusters WHERE run_id = ? AND representative = ? AND member <> representative`,
		"run-1", "Il Cane").Scan(&member)
	require.NoError(t, err)
	assert.Equal(t, "cane", member)
}

func TestDuckDBWriteRunKeepsRunsSeparate(t *testing.T) {
	s, err := NewDuckDBStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.WriteRun(ctx, "run-1", 0.85, testResult()))
	require.NoError(t, s.WriteRun(ctx, "run-2", 0.9, testResult()))

	assert.Equal(t, 2, countRows(t, s, "runs"))

	var relations int
	err = s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM relations WHERE run_id = ?`, "run-2").Scan(&relations)
	require.NoError(t, err)
	assert.Equal(t, 2, relations)
}

func TestDuckDBReopenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := NewDuckDBStore(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteRun(context.Background(), "run-1", 0.85, testResult()))
	require.NoError(t, s.Close())

	// Table creation is idempotent and earlier runs survive a reopen.
	s, err = NewDuckDBStore(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, 1, countRows(t, s, "runs"))
}

func countRows(t *testing.T, s *DuckDBStore, table string) int {
	t.Helper()
	var n int
	err := s.db.QueryRow(`SELECT count(*) FROM ` + table).Scan(&n)
	require.NoError(t, err)
	return n
}
