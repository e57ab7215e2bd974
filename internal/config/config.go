// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (prefix VANTHU_, plus DATABASE_URL and GEMINI_API_KEY)
//  2. Config file (./vanthu.yaml or path given to Load)
//  3. Default values
//
// Main categories:
//   - AI: Gemini model names, API key, embedder dimension
//   - Routing: similarity threshold for RAG activation
//   - Chunking: semantic threshold, word cap, minimum sentence length
//   - Storage: PostgreSQL connection (see storage.go)
//   - Server: HTTP listen address
//
// Validation lives in validation.go and uses sentinel errors so callers can
// match with errors.Is().
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultChatModel is the default Gemini generative model.
	DefaultChatModel = "gemini-2.5-flash"

	// DefaultEmbedderModel is the default Gemini embedding model.
	// gemini-embedding-001 outputs 3072 dimensions by default but supports
	// truncation via OutputDimensionality; our pgvector schema uses 768.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultEmbedderDimension matches the vector(768) columns in db/migrations.
	DefaultEmbedderDimension = 768

	// DefaultSimilarityThreshold is the router's semantic activation floor.
	// A top-match cosine similarity at or above this grounds the response.
	DefaultSimilarityThreshold = 0.75

	// DefaultSemanticBreakThreshold is the chunker's topic-shift floor.
	// Adjacent sentences below this similarity start a new chunk.
	DefaultSemanticBreakThreshold = 0.8

	// DefaultMaxChunkWords caps chunk size independently of topical coherence.
	DefaultMaxChunkWords = 1500

	// DefaultMinSentenceLen drops header/artifact fragments with no embedding value.
	DefaultMinSentenceLen = 10

	// DefaultEmbedBatchSize is the per-request ceiling for batch embedding.
	DefaultEmbedBatchSize = 100

	// DefaultTopK is how many chunks the assembler retrieves for grounding.
	DefaultTopK = 5
)

// Config stores application configuration.
type Config struct {
	// AI configuration
	GeminiAPIKey      string  `mapstructure:"gemini_api_key"`
	ChatModel         string  `mapstructure:"chat_model"`
	EmbedderModel     string  `mapstructure:"embedder_model"`
	EmbedderDimension int32   `mapstructure:"embedder_dimension"`
	Temperature       float32 `mapstructure:"temperature"`

	// Query routing
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	TopK                int     `mapstructure:"top_k"`

	// Chunking
	SemanticBreakThreshold float64 `mapstructure:"semantic_break_threshold"`
	MaxChunkWords          int     `mapstructure:"max_chunk_words"`
	MinSentenceLen         int     `mapstructure:"min_sentence_len"`
	EmbedBatchSize         int     `mapstructure:"embed_batch_size"`

	// External call bounds
	EmbedTimeout     time.Duration `mapstructure:"embed_timeout"`
	GenerateTimeout  time.Duration `mapstructure:"generate_timeout"`
	SearchTimeout    time.Duration `mapstructure:"search_timeout"`
	RetryMaxAttempts int           `mapstructure:"retry_max_attempts"`

	// HTTP server
	ServerAddr string `mapstructure:"server_addr"`

	// PostgreSQL connection (see storage.go for DSN helpers)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_dbname"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode"`
}

// Load reads configuration from defaults, an optional YAML file, and the
// environment. cfgFile may be empty, in which case ./vanthu.yaml is used when
// present.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("VANTHU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("vanthu")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// Missing file is fine; defaults + env carry the config.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// GEMINI_API_KEY is the conventional variable for the Gemini SDK;
	// accept it without the VANTHU_ prefix.
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chat_model", DefaultChatModel)
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("embedder_dimension", DefaultEmbedderDimension)
	v.SetDefault("temperature", 0.4)

	v.SetDefault("similarity_threshold", DefaultSimilarityThreshold)
	v.SetDefault("top_k", DefaultTopK)

	v.SetDefault("semantic_break_threshold", DefaultSemanticBreakThreshold)
	v.SetDefault("max_chunk_words", DefaultMaxChunkWords)
	v.SetDefault("min_sentence_len", DefaultMinSentenceLen)
	v.SetDefault("embed_batch_size", DefaultEmbedBatchSize)

	v.SetDefault("embed_timeout", 15*time.Second)
	v.SetDefault("generate_timeout", 60*time.Second)
	v.SetDefault("search_timeout", 10*time.Second)
	v.SetDefault("retry_max_attempts", 3)

	v.SetDefault("server_addr", "127.0.0.1:3500")

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "vanthu")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_dbname", "vanthu")
	v.SetDefault("postgres_sslmode", "disable")
}
