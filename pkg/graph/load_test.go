package graph_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/go-kgmerge/pkg/graph"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "fragment.json", `{
		"entities": ["Il Cane", "Gatto"],
		"relations": [["Il Cane", "guarda", "Gatto"]],
		"edges": ["guarda"]
	}`)

	g, err := graph.LoadFile(filepath.Join(dir, "fragment.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Il Cane", "Gatto"}, g.Entities)
	assert.Equal(t, []graph.Relation{graph.NewRelation("Il Cane", "guarda", "Gatto")}, g.Relations)
	assert.Equal(t, []string{"guarda"}, g.Edges)
}

func TestLoadFileDefaultsMissingKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "entities_only.json", `{"entities": ["Roma"]}`)

	g, err := graph.LoadFile(filepath.Join(dir, "entities_only.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Roma"}, g.Entities)
	assert.Empty(t, g.Relations)
	assert.Empty(t, g.Edges)
}

func TestLoadFileRejectsMissingEntities(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "no_entities.json", `{"relations": []}`)

	_, err := graph.LoadFile(filepath.Join(dir, "no_entities.json"))
	assert.Error(t, err)
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.json", `{"entities": ["Roma"]}`)
	writeFile(t, dir, "two.json", `{"entities": ["Gallia"]}`)
	writeFile(t, dir, "broken.json", `{not json`)
	writeFile(t, dir, "no_entities.json", `{"edges": []}`)
	writeFile(t, dir, "aggregated_kg.json", `{"entities": ["skip me"]}`)
	writeFile(t, dir, "notes.txt", `not a graph`)

	// Fragments in subdirectories are picked up too.
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	writeFile(t, sub, "three.json", `{"entities": ["Egitto"]}`)

	graphs, err := graph.LoadDirectory(dir, nil)
	require.NoError(t, err)
	assert.Len(t, graphs, 3, "only valid non-aggregated JSON fragments load")
}

func TestLoadDirectoryEmpty(t *testing.T) {
	graphs, err := graph.LoadDirectory(t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, graphs)
}

func TestWriteJSONCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.json")

	require.NoError(t, graph.WriteJSON(path, map[string]int{"answer": 42}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"answer": 42}`, string(data))
}
