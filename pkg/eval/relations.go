package eval

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/soundprediction/go-kgmerge/pkg/graph"
)

// LoadRelations reads the relations array from a graph JSON file. Unlike the
// fragment loader, only the "relations" key matters here; both producer
// fragments and clustered output artifacts qualify.
func LoadRelations(path string) ([]graph.Relation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc struct {
		Relations []graph.Relation `json:"relations"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc.Relations, nil
}
