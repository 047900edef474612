// Package kgmerge coalesces independently produced knowledge-graph fragments
// into one canonical graph: entity mentions are deduplicated by
// similarity-based clustering and relation triples are rewritten through the
// resulting clusters, filtered, and analyzed.
package kgmerge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/soundprediction/go-kgmerge/pkg/analyze"
	"github.com/soundprediction/go-kgmerge/pkg/cluster"
	"github.com/soundprediction/go-kgmerge/pkg/graph"
	"github.com/soundprediction/go-kgmerge/pkg/merge"
)

// ErrNoGraphs is returned by Pipeline.Run when the input directory contains
// no valid graph fragments. It marks an empty outcome, not a failure: no
// artifacts are written and the caller decides how to report it.
var ErrNoGraphs = errors.New("no valid knowledge graphs found")

// Artifact file names written into the output directory.
const (
	ClusteredGraphFile = "clustered_kg.json"
	ClusterDetailsFile = "clustering_details.json"
)

// Stats summarizes a clustering run.
type Stats struct {
	OriginalEntities  int              `json:"original_entities"`
	ClusteredEntities int              `json:"clustered_entities"`
	OriginalRelations int              `json:"original_relations"`
	MergedRelations   int              `json:"merged_relations"`
	RelationAnalysis  analyze.Analysis `json:"relation_analysis"`
}

// ClusteredGraph is the canonical graph produced by a run, in the shape of
// the persisted clustered_kg.json artifact.
type ClusteredGraph struct {
	Entities       []string            `json:"entities"`
	Relations      []graph.Relation    `json:"relations"`
	Edges          []string            `json:"edges"`
	EntityClusters map[string][]string `json:"entity_clusters"`
	Stats          Stats               `json:"stats"`
}

// ClusterDetails is the second persisted artifact: the cluster membership
// and stats without the merged graph itself.
type ClusterDetails struct {
	EntityClusters map[string][]string `json:"entity_clusters"`
	Stats          Stats               `json:"stats"`
}

// Details extracts the clustering-details artifact from a clustered graph.
func (g *ClusteredGraph) Details() ClusterDetails {
	return ClusterDetails{EntityClusters: g.EntityClusters, Stats: g.Stats}
}

// Config holds the pipeline configuration. There are no process-wide
// defaults; every run receives its configuration explicitly.
type Config struct {
	// InputDir is walked recursively for graph fragment JSON files.
	InputDir string
	// OutputDir receives the two run artifacts.
	OutputDir string
	// Threshold is the similarity threshold in (0,1] for entity clustering.
	Threshold float64
	// Scorer overrides the similarity measure. Nil means the default
	// sequence-matching ratio.
	Scorer cluster.Scorer
	// Logger for progress and skip diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Pipeline runs the full fragment-to-canonical-graph flow. Every stage is a
// pure transformation; the only I/O is loading fragments at the start and
// writing artifacts at the end, so re-running with the same inputs and
// threshold is idempotent.
type Pipeline struct {
	cfg       Config
	clusterer *cluster.Clusterer
	logger    *slog.Logger
}

// NewPipeline creates a pipeline from cfg.
func NewPipeline(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		cfg.Threshold = cluster.DefaultThreshold
	}
	return &Pipeline{
		cfg:       cfg,
		clusterer: cluster.NewClusterer(cfg.Scorer),
		logger:    logger,
	}
}

// Run loads all fragments under InputDir, aggregates them into the canonical
// graph, and persists the two artifacts. Returns ErrNoGraphs when no valid
// fragment was found; in that case nothing is written.
func (p *Pipeline) Run(ctx context.Context) (*ClusteredGraph, error) {
	p.logger.Info("loading knowledge graphs", "dir", p.cfg.InputDir)
	graphs, err := graph.LoadDirectory(p.cfg.InputDir, p.logger)
	if err != nil {
		return nil, err
	}
	if len(graphs) == 0 {
		return nil, ErrNoGraphs
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.logger.Info("clustering knowledge graphs",
		"graphs", len(graphs), "threshold", p.cfg.Threshold)
	result := p.Aggregate(graphs)

	p.logger.Info("clustering finished",
		"original_entities", result.Stats.OriginalEntities,
		"clustered_entities", result.Stats.ClusteredEntities,
		"original_relations", result.Stats.OriginalRelations,
		"merged_relations", result.Stats.MergedRelations)

	if err := p.persist(result); err != nil {
		return nil, err
	}
	return result, nil
}

// Aggregate unions the fragments and runs the cluster, merge, and analyze
// stages. It performs no I/O.
func (p *Pipeline) Aggregate(graphs []graph.Graph) *ClusteredGraph {
	unioned := graph.Union(graphs)

	clusters := p.clusterer.Cluster(unioned.Entities, p.cfg.Threshold)
	merged := merge.Merge(unioned.Relations, clusters)
	analysis := analyze.Analyze(merged)

	entityClusters := make(map[string][]string, len(clusters))
	representatives := make([]string, 0, len(clusters))
	for _, cl := range clusters {
		entityClusters[cl.Representative] = cl.Members
		representatives = append(representatives, cl.Representative)
	}

	edges := make(map[string]struct{})
	for _, rel := range merged {
		edges[rel.Predicate] = struct{}{}
	}

	out := &ClusteredGraph{
		Relations:      merged,
		EntityClusters: entityClusters,
		Stats: Stats{
			OriginalEntities:  len(unioned.Entities),
			ClusteredEntities: len(clusters),
			OriginalRelations: len(unioned.Relations),
			MergedRelations:   len(merged),
			RelationAnalysis:  analysis,
		},
	}
	out.Entities = sortStrings(representatives)
	out.Edges = sortStringSet(edges)
	return out
}

func sortStrings(s []string) []string {
	sort.Strings(s)
	return s
}

func sortStringSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (p *Pipeline) persist(result *ClusteredGraph) error {
	graphPath := filepath.Join(p.cfg.OutputDir, ClusteredGraphFile)
	if err := graph.WriteJSON(graphPath, result); err != nil {
		return fmt.Errorf("failed to persist clustered graph: %w", err)
	}
	p.logger.Info("persisted clustered graph", "path", graphPath)

	detailsPath := filepath.Join(p.cfg.OutputDir, ClusterDetailsFile)
	if err := graph.WriteJSON(detailsPath, result.Details()); err != nil {
		return fmt.Errorf("failed to persist clustering details: %w", err)
	}
	p.logger.Info("persisted clustering details", "path", detailsPath)
	return nil
}
