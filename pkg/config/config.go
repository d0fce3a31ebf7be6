package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for dataquill-engine.
// Configuration can come from YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Secrets
// (API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Object storage holding the tabular files and documents under analysis
	Storage StorageConfig `yaml:"storage"`

	// Language-model endpoint used for chunk summarization
	AI AIConfig `yaml:"ai"`

	// Token budgets and matching thresholds for the analysis engines
	Analysis AnalysisConfig `yaml:"analysis"`
}

// StorageConfig selects and configures the blob store files are fetched from.
type StorageConfig struct {
	// Backend is "local" (directory-rooted, for development) or "supabase".
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"local"`
	// LocalDir is the root directory for the local backend.
	LocalDir string `yaml:"local_dir" env:"STORAGE_LOCAL_DIR" env-default:"./data"`
	// Bucket is the default bucket files are fetched from.
	Bucket string `yaml:"bucket" env:"STORAGE_BUCKET" env-default:"research-files"`
	// SupabaseURL is the project base URL, e.g. "https://xyz.supabase.co".
	SupabaseURL string `yaml:"supabase_url" env:"SUPABASE_URL" env-default:""`
	// SupabaseKey is the service role key. Secret - env only.
	SupabaseKey string `yaml:"-" env:"SUPABASE_SERVICE_KEY"`
}

// AIConfig holds the language-model endpoint used by the chunk summarizer.
// Query planning and column matching are heuristic and never call a model.
type AIConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	// Endpoint is the base URL. Empty uses the provider's default.
	Endpoint string `yaml:"endpoint" env:"AI_ENDPOINT" env-default:""`
	Model    string `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`
	// APIKey is secret - env only. When empty, summarization degrades to
	// deterministic truncation.
	APIKey string `yaml:"-" env:"AI_API_KEY"`
	// Temperature for summarization. Kept low for factual consistency.
	Temperature float64 `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.1"`
	// MaxSummaryTokens caps each chunk summary.
	MaxSummaryTokens int `yaml:"max_summary_tokens" env:"AI_MAX_SUMMARY_TOKENS" env-default:"800"`
	// SummaryWorkers bounds concurrent summarization calls per document.
	SummaryWorkers int `yaml:"summary_workers" env:"AI_SUMMARY_WORKERS" env-default:"4"`
}

// IsConfigured returns true if a model endpoint can be called.
func (c *AIConfig) IsConfigured() bool {
	return c.Model != "" && (c.APIKey != "" || c.Endpoint != "")
}

// AnalysisConfig holds the budgets driving chunking and relevance filtering.
type AnalysisConfig struct {
	// MaxChunkTokens is the per-chunk token budget for the structural chunker.
	MaxChunkTokens int `yaml:"max_chunk_tokens" env:"ANALYSIS_MAX_CHUNK_TOKENS" env-default:"3000"`
	// TokenBudget is the ceiling below which a document (or its filtered
	// form) is returned without summarization.
	TokenBudget int `yaml:"token_budget" env:"ANALYSIS_TOKEN_BUDGET" env-default:"8000"`
	// FuzzyThreshold is the minimum similarity for fuzzy column matches.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" env:"ANALYSIS_FUZZY_THRESHOLD" env-default:"0.6"`
}

// Load reads configuration from config.yaml with environment variable
// overrides, or from environment alone when no config file exists. The
// version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "local":
		// LocalDir has a default; nothing further to check.
	case "supabase":
		if c.Storage.SupabaseURL == "" {
			return fmt.Errorf("supabase storage backend requires SUPABASE_URL")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.AI.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown AI provider %q", c.AI.Provider)
	}

	if c.Analysis.MaxChunkTokens <= 0 {
		return fmt.Errorf("max_chunk_tokens must be positive")
	}
	if c.Analysis.TokenBudget <= 0 {
		return fmt.Errorf("token_budget must be positive")
	}
	if c.Analysis.FuzzyThreshold < 0 || c.Analysis.FuzzyThreshold > 1 {
		return fmt.Errorf("fuzzy_threshold must be between 0 and 1")
	}

	return nil
}
