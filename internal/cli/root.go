package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/permitcheck/internal/cache"
	"github.com/ppiankov/permitcheck/internal/catalog"
	"github.com/ppiankov/permitcheck/internal/llm"
	"github.com/ppiankov/permitcheck/internal/model"
	"github.com/ppiankov/permitcheck/internal/pipeline"
	"github.com/ppiankov/permitcheck/internal/refdata"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "v0.3.0"

var (
	cfgFile   string
	verbose   bool
	areasFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "permitcheck",
	Short: "PermitCheck - householder permitted development checks (indicative only)",
	Long: `PermitCheck decides whether a proposed householder development in England is
permitted development, needs prior approval, or needs full planning permission.

It applies the GPDO 2015 Schedule 2 Part 1 classes, the Part 3 change of use
classes, and the heritage layer on top: listed buildings, conservation areas
and Article 4 directions.

Every result names the rule that decided it. PermitCheck is indicative only
and is not a Lawful Development Certificate.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and the rule catalog version.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("permitcheck %s (catalog %s)\n", Version, catalog.MustNew().Version())
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.permitcheck/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&areasFile, "areas", "", "GeoJSON or YAML reference data (file or http(s) URL) merged into the catalog")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("catalog.areas_file", rootCmd.PersistentFlags().Lookup("areas"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".permitcheck"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// PERMITCHECK_SERVER_ADDR overrides server.addr, and so on
	viper.SetEnvPrefix("PERMITCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func setDefaults(cfg *model.Config) {
	viper.SetDefault("catalog.areas_file", cfg.Catalog.AreasFile)
	viper.SetDefault("catalog.boroughs", cfg.Catalog.Boroughs)
	viper.SetDefault("output.verbose", cfg.Output.Verbose)
	viper.SetDefault("output.include_footer", cfg.Output.IncludeFooter)
	viper.SetDefault("cache.enabled", cfg.Cache.Enabled)
	viper.SetDefault("cache.dir", cfg.Cache.Dir)
	viper.SetDefault("cache.memory_ttl", cfg.Cache.MemoryTTL)
	viper.SetDefault("cache.disk_ttl", cfg.Cache.DiskTTL)
	viper.SetDefault("concurrency.workers", cfg.Concurrency.Workers)
	viper.SetDefault("server.addr", cfg.Server.Addr)
	viper.SetDefault("server.request_timeout", cfg.Server.RequestTimeout)
	viper.SetDefault("server.requests_per_second", cfg.Server.RequestsPerSecond)
	viper.SetDefault("server.burst_size", cfg.Server.BurstSize)
	viper.SetDefault("llm.provider", cfg.LLM.Provider)
	viper.SetDefault("llm.model", cfg.LLM.Model)
	viper.SetDefault("llm.base_url", cfg.LLM.BaseURL)
	viper.SetDefault("llm.timeout", cfg.LLM.Timeout)
	viper.SetDefault("llm.max_tokens", cfg.LLM.MaxTokens)
	viper.SetDefault("llm.http_proxy", cfg.LLM.HTTPProxy)
	viper.SetDefault("llm.https_proxy", cfg.LLM.HTTPSProxy)
}

// loadConfig resolves the effective configuration: flags, then PERMITCHECK_* env, then the file, then defaults
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	cfg.Catalog.AreasFile = viper.GetString("catalog.areas_file")
	cfg.Catalog.Boroughs = viper.GetStringSlice("catalog.boroughs")
	cfg.Output.Verbose = viper.GetBool("verbose") || viper.GetBool("output.verbose")
	cfg.Output.IncludeFooter = viper.GetBool("output.include_footer")
	cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	cfg.Cache.Dir = viper.GetString("cache.dir")
	cfg.Cache.MemoryTTL = viper.GetDuration("cache.memory_ttl")
	cfg.Cache.DiskTTL = viper.GetDuration("cache.disk_ttl")
	cfg.Concurrency.Workers = viper.GetInt("concurrency.workers")
	cfg.Server.Addr = viper.GetString("server.addr")
	cfg.Server.RequestTimeout = viper.GetDuration("server.request_timeout")
	cfg.Server.RequestsPerSecond = viper.GetFloat64("server.requests_per_second")
	cfg.Server.BurstSize = viper.GetInt("server.burst_size")
	cfg.LLM.Provider = viper.GetString("llm.provider")
	cfg.LLM.Model = viper.GetString("llm.model")
	cfg.LLM.BaseURL = viper.GetString("llm.base_url")
	cfg.LLM.Timeout = viper.GetInt("llm.timeout")
	cfg.LLM.MaxTokens = viper.GetInt("llm.max_tokens")
	cfg.LLM.HTTPProxy = viper.GetString("llm.http_proxy")
	cfg.LLM.HTTPSProxy = viper.GetString("llm.https_proxy")

	return cfg
}

// applyLLMEnv fills the API key and base URL from the provider's environment variables
func applyLLMEnv(cfg *model.LLMConfig) error {
	switch strings.ToLower(cfg.Provider) {
	case "":
		return nil
	case "openai":
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.BaseURL = baseURL
		}
		if cfg.Model == "" {
			cfg.Model = "llama3.1"
		}
	}
	return nil
}

// loadCatalog builds the catalog, merging reference data when configured
func loadCatalog(cfg *model.Config) (*catalog.Catalog, error) {
	if cfg.Catalog.AreasFile == "" {
		return catalog.New()
	}

	loader := refdata.NewLoader(cfg.Catalog.Boroughs...)

	var (
		ds  *refdata.Dataset
		err error
	)
	if refdata.IsURL(cfg.Catalog.AreasFile) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		fetcher := refdata.NewFetcher(time.Minute, "permitcheck/"+Version, 50<<20, "", "")
		ds, err = loader.LoadURL(ctx, fetcher, cfg.Catalog.AreasFile)
	} else {
		ds, err = loader.LoadFile(cfg.Catalog.AreasFile)
	}
	if err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}
	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "✓ Loaded %d areas, %d profiles from %s (%d skipped)\n",
			len(ds.Areas), len(ds.Profiles), cfg.Catalog.AreasFile, ds.Skipped)
	}

	cat, err := catalog.New(ds.Options()...)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return cat, nil
}

// buildPipeline creates the pipeline with the optional summarizer attached
func buildPipeline(cfg *model.Config) (*pipeline.Pipeline, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	opts := []pipeline.Option{pipeline.WithFooter(cfg.Output.IncludeFooter)}

	if cfg.LLM.Provider != "" {
		if err := applyLLMEnv(&cfg.LLM); err != nil {
			return nil, err
		}
		summarizer, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return nil, fmt.Errorf("create summarizer: %w", err)
		}
		opts = append(opts, pipeline.WithSummarizer(summarizer))
	}

	return pipeline.New(cat, opts...), nil
}

// buildCache creates the result cache, or nil when caching is disabled
func buildCache(cfg *model.Config, catalogVersion string) *cache.ResultCache {
	if !cfg.Cache.Enabled {
		return nil
	}
	store := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	return cache.NewResultCache(store, catalogVersion, cfg.Cache.DiskTTL)
}
