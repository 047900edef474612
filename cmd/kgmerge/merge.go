package kgmerge

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	kgmerge "github.com/soundprediction/go-kgmerge"
	"github.com/soundprediction/go-kgmerge/pkg/config"
	"github.com/soundprediction/go-kgmerge/pkg/store"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Cluster entities and merge relations from graph fragments",
	Long: `Load all graph fragments from the input directory, cluster similar
entities, rewrite and filter relations through the clusters, and write the
clustered graph and clustering details artifacts to the output directory.

Optionally the run can also be exported to DuckDB and Neo4j.`,
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringP("input", "i", "", "Input directory with graph fragment JSON files")
	mergeCmd.Flags().StringP("output", "o", "", "Output directory for run artifacts")
	mergeCmd.Flags().Float64P("threshold", "t", 0.85, "Similarity threshold in (0,1]")
	mergeCmd.Flags().String("duckdb", "", "DuckDB database path for the analytics export")
	mergeCmd.Flags().String("neo4j-uri", "", "Neo4j URI for the graph export")

	_ = viper.BindPFlag("cluster.input_dir", mergeCmd.Flags().Lookup("input"))
	_ = viper.BindPFlag("cluster.output_dir", mergeCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("cluster.threshold", mergeCmd.Flags().Lookup("threshold"))
	_ = viper.BindPFlag("export.duckdb_path", mergeCmd.Flags().Lookup("duckdb"))
	_ = viper.BindPFlag("export.neo4j.uri", mergeCmd.Flags().Lookup("neo4j-uri"))
}

func runMerge(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Cluster.Threshold <= 0 || cfg.Cluster.Threshold > 1 {
		return fmt.Errorf("threshold must be in (0,1], got %v", cfg.Cluster.Threshold)
	}

	log := newLogger()
	pipeline := kgmerge.NewPipeline(kgmerge.Config{
		InputDir:  cfg.Cluster.InputDir,
		OutputDir: cfg.Cluster.OutputDir,
		Threshold: cfg.Cluster.Threshold,
		Logger:    log,
	})

	result, err := pipeline.Run(cmd.Context())
	if errors.Is(err, kgmerge.ErrNoGraphs) {
		// An empty input is reported, not treated as a failure.
		log.Warn("no valid knowledge graphs found, nothing to do",
			"dir", cfg.Cluster.InputDir)
		return nil
	}
	if err != nil {
		return err
	}

	printStats(result)

	runID := uuid.NewString()
	if cfg.Export.DuckDBPath != "" {
		if err := exportDuckDB(cmd, cfg, runID, result); err != nil {
			return err
		}
		log.Info("persisted run to DuckDB", "path", cfg.Export.DuckDBPath, "run_id", runID)
	}
	if cfg.Export.Neo4j.URI != "" {
		if err := exportNeo4j(cmd, cfg, runID, result); err != nil {
			return err
		}
		log.Info("persisted run to Neo4j", "uri", cfg.Export.Neo4j.URI, "run_id", runID)
	}

	return nil
}

func printStats(result *kgmerge.ClusteredGraph) {
	stats := result.Stats
	fmt.Println("\nClusterization results:")
	fmt.Printf("- Original entities: %d\n", stats.OriginalEntities)
	reduction := 0.0
	if stats.OriginalEntities > 0 {
		reduction = 100 * (1 - float64(stats.ClusteredEntities)/float64(stats.OriginalEntities))
	}
	fmt.Printf("- Clustered entities: %d (reduction: %.1f%%)\n", stats.ClusteredEntities, reduction)
	fmt.Printf("- Original relations: %d\n", stats.OriginalRelations)
	fmt.Printf("- Merged relations: %d\n", stats.MergedRelations)

	fmt.Println("\nTop relations:")
	for _, pc := range stats.RelationAnalysis.TopRelations {
		fmt.Printf("  %s: %d occurrences\n", pc.Predicate, pc.Count)
	}
}

func exportDuckDB(cmd *cobra.Command, cfg *config.Config, runID string, result *kgmerge.ClusteredGraph) error {
	db, err := store.NewDuckDBStore(cfg.Export.DuckDBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.WriteRun(cmd.Context(), runID, cfg.Cluster.Threshold, result)
}

func exportNeo4j(cmd *cobra.Command, cfg *config.Config, runID string, result *kgmerge.ClusteredGraph) error {
	exporter, err := store.NewNeo4jExporter(
		cfg.Export.Neo4j.URI,
		cfg.Export.Neo4j.Username,
		cfg.Export.Neo4j.Password,
		cfg.Export.Neo4j.Database,
	)
	if err != nil {
		return err
	}
	defer exporter.Close(cmd.Context())
	return exporter.ExportGraph(cmd.Context(), runID, result)
}
