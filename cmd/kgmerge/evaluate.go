package kgmerge

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soundprediction/go-kgmerge/pkg/cache"
	"github.com/soundprediction/go-kgmerge/pkg/config"
	"github.com/soundprediction/go-kgmerge/pkg/embedder"
	"github.com/soundprediction/go-kgmerge/pkg/eval"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <candidate.json> <gold.json>",
	Short: "Measure semantic coverage of a graph against a gold standard",
	Long: `Compare the relations of a candidate graph against a gold standard:
each relation is embedded as its space-joined triple text and a gold relation
counts as covered when its best cosine similarity against the candidate
reaches the threshold. Prints the covered fraction.`,
	Args: cobra.ExactArgs(2),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().Float64P("threshold", "t", eval.DefaultThreshold, "Semantic similarity threshold")
	evaluateCmd.Flags().String("cache-dir", "", "Badger cache directory for embeddings (empty disables caching)")

	_ = viper.BindPFlag("eval.threshold", evaluateCmd.Flags().Lookup("threshold"))
	_ = viper.BindPFlag("embedding.cache_dir", evaluateCmd.Flags().Lookup("cache-dir"))
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := newLogger()
	candidate, err := eval.LoadRelations(args[0])
	if err != nil {
		return err
	}
	gold, err := eval.LoadRelations(args[1])
	if err != nil {
		return err
	}

	client := embedder.NewOpenAIEmbedder(cfg.Embedding.APIKey, embedder.Config{
		Model:   cfg.Embedding.Model,
		BaseURL: cfg.Embedding.BaseURL,
	})
	defer client.Close()

	var embCache *cache.EmbeddingCache
	if cfg.Embedding.CacheDir != "" {
		embCache, err = cache.Open(cfg.Embedding.CacheDir)
		if err != nil {
			return err
		}
		defer embCache.Close()
	}

	evaluator := eval.NewEvaluator(client, embCache, cfg.Embedding.Model, log)
	result, err := evaluator.Coverage(cmd.Context(), candidate, gold, viper.GetFloat64("eval.threshold"))
	if err != nil {
		return err
	}

	fmt.Printf("Gold standard relations: %d\n", result.GoldRelations)
	fmt.Printf("Covered relations: %d\n", result.CoveredRelations)
	fmt.Printf("Coverage: %.4f\n", result.Coverage)
	return nil
}
