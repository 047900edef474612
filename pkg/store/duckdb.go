// Package store persists clustering runs into external stores: a DuckDB
// database for ad-hoc SQL over run history and a Neo4j graph for browsing
// the canonical graph.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	kgmerge "github.com/soundprediction/go-kgmerge"
)

// DuckDBStore writes merged relations, cluster membership, and run stats
// into DuckDB tables.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore opens (or creates) the DuckDB database at dbPath and
// ensures the run tables exist.
func NewDuckDBStore(dbPath string) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	store := &DuckDBStore{db: db}
	if err := store.createTables(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

func (s *DuckDBStore) createTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id VARCHAR PRIMARY KEY,
			created_at TIMESTAMP,
			threshold DOUBLE,
			original_entities INTEGER,
			clustered_entities INTEGER,
			original_relations INTEGER,
			merged_relations INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS relations (
			run_id VARCHAR,
			source VARCHAR,
			predicate VARCHAR,
			target VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS clusters (
			run_id VARCHAR,
			representative VARCHAR,
			member VARCHAR
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// WriteRun stores one clustering run under runID. Everything goes into a
// single transaction so a failed export never leaves a partial run behind.
func (s *DuckDBStore) WriteRun(ctx context.Context, runID string, threshold float64, result *kgmerge.ClusteredGraph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, threshold, original_entities,
			clustered_entities, original_relations, merged_relations)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC(), threshold,
		result.Stats.OriginalEntities, result.Stats.ClusteredEntities,
		result.Stats.OriginalRelations, result.Stats.MergedRelations)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, rel := range result.Relations {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO relations (run_id, source, predicate, target)
			VALUES (?, ?, ?, ?)`,
			runID, rel.Source, rel.Predicate, rel.Target)
		if err != nil {
			return fmt.Errorf("failed to insert relation: %w", err)
		}
	}

	for rep, members := range result.EntityClusters {
		for _, member := range members {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO clusters (run_id, representative, member)
				VALUES (?, ?, ?)`,
				runID, rep, member)
			if err != nil {
				return fmt.Errorf("failed to insert cluster member: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}
