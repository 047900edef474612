// Package kgmerge implements the command-line interface.
package kgmerge

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soundprediction/go-kgmerge/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "kgmerge",
	Short: "Cluster and merge knowledge-graph fragments",
	Long: `kgmerge deduplicates near-duplicate entity mentions across knowledge-graph
fragments and coalesces their relations into one canonical graph.

Fragments are JSON files with "entities", "relations" and "edges" keys, as
produced by the extract command or any compatible producer. Configuration can
be provided through a config file, environment variables, or command-line
flags.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
		} else {
			viper.SetConfigName("kgmerge")
			viper.SetConfigType("yaml")
			viper.AddConfigPath(".")
			viper.AddConfigPath("$HOME/.kgmerge")
			// Missing default config is fine; flags and env cover everything.
			_ = viper.ReadInConfig()
		}
		viper.AutomaticEnv()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./kgmerge.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

func newLogger() *slog.Logger {
	level := logger.ParseLevel(viper.GetString("log.level"))
	return logger.NewDefault(level)
}
