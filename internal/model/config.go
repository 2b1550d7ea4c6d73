package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete permitcheck configuration
type Config struct {
	Catalog     CatalogConfig     `yaml:"catalog"`
	Output      OutputConfig      `yaml:"output"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Server      ServerConfig      `yaml:"server"`
	LLM         LLMConfig         `yaml:"llm"`
}

// CatalogConfig points at optional reference data merged into the rule catalog at startup
type CatalogConfig struct {
	AreasFile string   `yaml:"areas_file"` // GeoJSON or YAML Article 4 / conservation area definitions
	Boroughs  []string `yaml:"boroughs"`   // Keep only features in these boroughs (empty keeps all)
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose"`
	IncludeFooter bool `yaml:"include_footer"`
}

// CacheConfig controls result memoisation in the batch processor and API
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// ConcurrencyConfig controls the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"` // Per client address
	BurstSize         int           `yaml:"burst_size"`
}

// LLMConfig controls the optional narrative summary
type LLMConfig struct {
	Provider   string `yaml:"provider"` // openai, ollama, "" (disabled)
	Model      string `yaml:"model"`
	APIKey     string `yaml:"-"` // Read from the environment only
	BaseURL    string `yaml:"base_url"`
	Timeout    int    `yaml:"timeout"` // seconds
	MaxTokens  int    `yaml:"max_tokens"`
	HTTPProxy  string `yaml:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "permitcheck-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".permitcheck", "cache")
	}

	return &Config{
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			RequestTimeout:    5 * time.Second,
			RequestsPerSecond: 10,
			BurstSize:         20,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 600,
		},
	}
}
