package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	kgmerge "github.com/soundprediction/go-kgmerge"
)

// Neo4jExporter pushes a canonical graph into Neo4j: one Entity node per
// cluster representative, RELATION edges carrying the predicate, and
// ALIAS_OF edges from every non-representative mention.
type Neo4jExporter struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jExporter creates an exporter for the given connection.
func NewNeo4jExporter(uri, username, password, database string) (*Neo4jExporter, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if database == "" {
		database = "neo4j"
	}
	return &Neo4jExporter{client: driver, database: database}, nil
}

// ExportGraph writes the clustered graph under the given run ID. Nodes and
// edges are MERGEd, so re-exporting a run is idempotent.
func (e *Neo4jExporter) ExportGraph(ctx context.Context, runID string, result *kgmerge.ClusteredGraph) error {
	session := e.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: e.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, entity := range result.Entities {
			_, err := tx.Run(ctx, `
				MERGE (n:Entity {name: $name})
				SET n.run_id = $runID
			`, map[string]any{"name": entity, "runID": runID})
			if err != nil {
				return nil, err
			}
		}

		for rep, members := range result.EntityClusters {
			for _, member := range members {
				if member == rep {
					continue
				}
				_, err := tx.Run(ctx, `
					MATCH (rep:Entity {name: $rep})
					MERGE (m:Mention {name: $member})
					MERGE (m)-[:ALIAS_OF]->(rep)
				`, map[string]any{"rep": rep, "member": member})
				if err != nil {
					return nil, err
				}
			}
		}

		for _, rel := range result.Relations {
			_, err := tx.Run(ctx, `
				MERGE (s:Entity {name: $source})
				MERGE (t:Entity {name: $target})
				MERGE (s)-[r:RELATION {predicate: $predicate}]->(t)
			`, map[string]any{
				"source":    rel.Source,
				"predicate": rel.Predicate,
				"target":    rel.Target,
			})
			if err != nil {
				return nil, err
			}
		}

		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to export graph: %w", err)
	}
	return nil
}

// Close closes the underlying driver.
func (e *Neo4jExporter) Close(ctx context.Context) error {
	return e.client.Close(ctx)
}
