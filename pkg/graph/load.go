package graph

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// LoadDirectory walks dir recursively and loads every JSON file that parses
// as a graph fragment. Files whose name starts with "aggregated" are skipped
// so a previous run's output is never fed back in. Unreadable or malformed
// files are logged and skipped; they never abort the load.
func LoadDirectory(dir string, logger *slog.Logger) ([]Graph, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var graphs []Graph
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, "aggregated") {
			return nil
		}

		g, err := LoadFile(path)
		if err != nil {
			logger.Warn("skipping graph fragment", "path", path, "error", err)
			return nil
		}
		graphs = append(graphs, g)
		logger.Info("loaded graph fragment", "path", path,
			"entities", len(g.Entities), "relations", len(g.Relations))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	return graphs, nil
}

// LoadFile reads a single graph fragment. A file is accepted only if it is a
// JSON object containing an "entities" key; "relations" and "edges" default
// to empty when absent.
func LoadFile(path string) (Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Graph{}, fmt.Errorf("failed to read fragment: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Graph{}, fmt.Errorf("failed to parse fragment: %w", err)
	}
	entitiesRaw, ok := raw["entities"]
	if !ok {
		return Graph{}, fmt.Errorf("fragment has no entities key")
	}

	var g Graph
	if err := json.Unmarshal(entitiesRaw, &g.Entities); err != nil {
		return Graph{}, fmt.Errorf("invalid entities: %w", err)
	}
	if relationsRaw, ok := raw["relations"]; ok {
		if err := json.Unmarshal(relationsRaw, &g.Relations); err != nil {
			return Graph{}, fmt.Errorf("invalid relations: %w", err)
		}
	}
	if edgesRaw, ok := raw["edges"]; ok {
		if err := json.Unmarshal(edgesRaw, &g.Edges); err != nil {
			return Graph{}, fmt.Errorf("invalid edges: %w", err)
		}
	}

	return g, nil
}

// WriteJSON persists v as indented JSON at path, creating parent directories
// as needed. A write failure here is fatal to the run.
func WriteJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
