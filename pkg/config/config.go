// Package config loads pipeline configuration from config files and
// environment variables through viper.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Cluster holds the clustering pipeline configuration
	Cluster ClusterConfig `mapstructure:"cluster"`

	// Extract holds the extraction producer configuration
	Extract ExtractConfig `mapstructure:"extract"`

	// LLM configuration for the extraction producer
	LLM LLMConfig `mapstructure:"llm"`

	// Embedding configuration for the coverage evaluator
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Export configuration for the optional sinks
	Export ExportConfig `mapstructure:"export"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ClusterConfig holds the clustering pipeline configuration.
type ClusterConfig struct {
	// InputDir is walked for graph fragment JSON files
	InputDir string `mapstructure:"input_dir"`
	// OutputDir receives the run artifacts
	OutputDir string `mapstructure:"output_dir"`
	// Threshold is the similarity threshold in (0,1]
	Threshold float64 `mapstructure:"threshold"`
}

// ExtractConfig holds the extraction producer configuration.
type ExtractConfig struct {
	ChunkSize   int  `mapstructure:"chunk_size"`
	MaxAttempts int  `mapstructure:"max_attempts"`
	Refine      bool `mapstructure:"refine"`
}

// LLMConfig holds LLM configuration.
type LLMConfig struct {
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"` // OpenAI-compatible services, e.g. Ollama
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	CacheDir string `mapstructure:"cache_dir"` // badger embedding cache, empty disables
}

// ExportConfig holds the optional analytics and graph-database sinks.
type ExportConfig struct {
	// DuckDBPath enables the DuckDB analytics export when non-empty
	DuckDBPath string `mapstructure:"duckdb_path"`
	// Neo4j enables the graph-database export when URI is non-empty
	Neo4j Neo4jConfig `mapstructure:"neo4j"`
}

// Neo4jConfig holds Neo4j connection settings.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("log.level", "info")

	viper.SetDefault("cluster.input_dir", "knowledge_graphs")
	viper.SetDefault("cluster.output_dir", "clustered_knowledge_graphs")
	viper.SetDefault("cluster.threshold", 0.85)

	viper.SetDefault("extract.chunk_size", 5000)
	viper.SetDefault("extract.max_attempts", 5)
	viper.SetDefault("extract.refine", true)

	viper.SetDefault("llm.model", "llama3")
	viper.SetDefault("llm.base_url", "http://localhost:11434/v1")
	viper.SetDefault("llm.temperature", 0.1)
	viper.SetDefault("llm.max_tokens", 2048)

	viper.SetDefault("embedding.model", "text-embedding-3-small")

	viper.SetDefault("export.neo4j.database", "neo4j")

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
}

// overrideWithEnv overrides config with environment variables.
func overrideWithEnv(config *Config) {
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if config.LLM.APIKey == "" {
			config.LLM.APIKey = apiKey
		}
		if config.Embedding.APIKey == "" {
			config.Embedding.APIKey = apiKey
		}
	}
	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Export.Neo4j.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Export.Neo4j.Username = user
	}
	if password := os.Getenv("NEO4J_PASSWORD"); password != "" {
		config.Export.Neo4j.Password = password
	}
}
