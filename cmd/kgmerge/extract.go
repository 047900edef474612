package kgmerge

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soundprediction/go-kgmerge/pkg/config"
	"github.com/soundprediction/go-kgmerge/pkg/extract"
	"github.com/soundprediction/go-kgmerge/pkg/graph"
	"github.com/soundprediction/go-kgmerge/pkg/llm"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Generate graph fragments from text files",
	Long: `Run the extraction producer: split each text file under the input
directory into chunks, prompt the model per chunk, and write one graph
fragment JSON per file into the output directory, mirroring the input's
subdirectory layout. Each fragment is then refined: the model is asked to
suggest relations missing between the extracted entities until the relation
count stabilizes (disable with --refine=false). When more than one fragment
is produced, an aggregated_kg.json with their plain union is written as
well.

The model endpoint is any OpenAI-compatible API; a local Ollama server
works through its /v1 endpoint.`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("input", "i", "", "Input directory with text files")
	extractCmd.Flags().StringP("output", "o", "", "Output directory for fragment JSON files")
	extractCmd.Flags().String("model", "", "Model name")
	extractCmd.Flags().Int("chunk-size", extract.DefaultChunkSize, "Maximum chunk size in bytes")
	extractCmd.Flags().Bool("refine", true, "Refine each fragment with suggested missing relations")

	_ = viper.BindPFlag("extract.input_dir", extractCmd.Flags().Lookup("input"))
	_ = viper.BindPFlag("extract.output_dir", extractCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("llm.model", extractCmd.Flags().Lookup("model"))
	_ = viper.BindPFlag("extract.chunk_size", extractCmd.Flags().Lookup("chunk-size"))
	_ = viper.BindPFlag("extract.refine", extractCmd.Flags().Lookup("refine"))
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	inputDir := viper.GetString("extract.input_dir")
	outputDir := viper.GetString("extract.output_dir")
	if inputDir == "" || outputDir == "" {
		return fmt.Errorf("both --input and --output are required")
	}

	log := newLogger()
	temperature := cfg.LLM.Temperature
	maxTokens := cfg.LLM.MaxTokens
	client := llm.NewOpenAIClient(cfg.LLM.APIKey, llm.Config{
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	defer client.Close()

	extractor := extract.NewExtractor(client, extract.Options{
		ChunkSize:   cfg.Extract.ChunkSize,
		MaxAttempts: cfg.Extract.MaxAttempts,
		Logger:      log,
	})

	var fragments []graph.Graph
	walkErr := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		text, err := os.ReadFile(path)
		if err != nil {
			log.Warn("skipping unreadable file", "path", path, "error", err)
			return nil
		}

		log.Info("processing file", "path", path)
		fragment, err := extractor.Extract(cmd.Context(), string(text))
		if err != nil {
			return err
		}
		if len(fragment.Relations) == 0 {
			log.Warn("no relations extracted", "path", path)
			return nil
		}
		if cfg.Extract.Refine {
			fragment = extractor.Refine(cmd.Context(), fragment, extract.DefaultRefineIterations)
		}

		rel, err := filepath.Rel(inputDir, path)
		if err != nil {
			return err
		}
		name := d.Name()
		base := strings.TrimSuffix(name, filepath.Ext(name))
		// Output mirrors the input's subdirectory layout.
		outPath := filepath.Join(outputDir, filepath.Dir(rel), base+"_kg.json")
		if err := graph.WriteJSON(outPath, fragment); err != nil {
			return err
		}
		log.Info("persisted graph fragment", "path", outPath,
			"entities", len(fragment.Entities), "relations", len(fragment.Relations))
		fragments = append(fragments, fragment)
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("failed to walk input directory: %w", walkErr)
	}

	if len(fragments) > 1 {
		aggregated := graph.Union(fragments)
		outPath := filepath.Join(outputDir, "aggregated_kg.json")
		if err := graph.WriteJSON(outPath, aggregated); err != nil {
			return err
		}
		log.Info("persisted aggregated graph", "path", outPath)
	}

	return nil
}
