package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the ragdex service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	RAG       RAGConfig       `yaml:"rag"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StorageConfig holds per-user index storage settings.
type StorageConfig struct {
	IndexDir         string `yaml:"index_dir"`
	DefaultAssetsDir string `yaml:"default_assets_dir"` // seeded into the default index at startup; empty = skip
	DefaultUserID    string `yaml:"default_user_id"`
}

// EmbeddingConfig holds the embedding provider settings.
type EmbeddingConfig struct {
	Provider            string `yaml:"provider"`
	APIKey              string `yaml:"api_key"`
	BaseURL             string `yaml:"base_url"`
	Model               string `yaml:"model"`
	Dimensions          int    `yaml:"dimensions"`
	DocumentInstruction string `yaml:"document_instruction"`
	QueryInstruction    string `yaml:"query_instruction"`
}

// LLMConfig holds the chat-completion provider settings.
type LLMConfig struct {
	Provider            string  `yaml:"provider"`
	APIKey              string  `yaml:"api_key"`
	BaseURL             string  `yaml:"base_url"`
	Model               string  `yaml:"model"`
	Temperature         float32 `yaml:"temperature"`
	TimeoutSec          int     `yaml:"timeout_sec"`
	DecomposeTimeoutSec int     `yaml:"decompose_timeout_sec"`
}

// RAGConfig holds chunking, retrieval and context-assembly settings.
type RAGConfig struct {
	ChunkSize               int `yaml:"chunk_size"`
	ChunkOverlap            int `yaml:"chunk_overlap"`
	SubQueries              int `yaml:"sub_queries"`
	PerQueryK               int `yaml:"per_query_k"`
	FinalK                  int `yaml:"final_k"`
	ContextBudgetChars      int `yaml:"context_budget_chars"`
	AnalysisMaxContextChars int `yaml:"analysis_max_context_chars"`
}

// CacheConfig holds the optional Redis embedding-cache settings.
type CacheConfig struct {
	Addrs    []string `yaml:"addrs"` // empty = cache disabled
	Password string   `yaml:"password"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Chat synthesis is a long LLM round-trip; the write timeout has
		// to outlive it.
		c.HTTP.WriteTimeoutSec = 180
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Storage.IndexDir == "" {
		c.Storage.IndexDir = "data/indexes"
	}
	if c.Storage.DefaultUserID == "" {
		c.Storage.DefaultUserID = "__DEFAULT__"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 120
	}
	if c.LLM.DecomposeTimeoutSec <= 0 {
		c.LLM.DecomposeTimeoutSec = 30
	}
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = 512
	}
	// Overlap 0 means unset; windows always overlap. Overlap >= size is
	// left for Validate to reject.
	if c.RAG.ChunkOverlap <= 0 {
		c.RAG.ChunkOverlap = 100
	}
	if c.RAG.SubQueries <= 0 {
		c.RAG.SubQueries = 3
	}
	if c.RAG.PerQueryK <= 0 {
		c.RAG.PerQueryK = 5
	}
	if c.RAG.FinalK <= 0 {
		c.RAG.FinalK = 5
	}
	if c.RAG.ContextBudgetChars <= 0 {
		c.RAG.ContextBudgetChars = 8000
	}
	if c.RAG.AnalysisMaxContextChars <= 0 {
		c.RAG.AnalysisMaxContextChars = 30000
	}

	// Drop empty cache addresses left behind by ${VAR:-} expansion.
	addrs := c.Cache.Addrs[:0]
	for _, a := range c.Cache.Addrs {
		if a != "" {
			addrs = append(addrs, a)
		}
	}
	c.Cache.Addrs = addrs
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap (%d) must be smaller than rag.chunk_size (%d)",
			c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
