package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/event-scout/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run/telemetry database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// JinaConfig holds Jina AI Reader/Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// FirecrawlConfig holds Firecrawl API settings (broad-crawl tier and
// fallback scrape extractor).
type FirecrawlConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds Anthropic API settings for ranking and extraction.
type AnthropicConfig struct {
	Key          string `yaml:"key" mapstructure:"key"`
	RankModel    string `yaml:"rank_model" mapstructure:"rank_model"`
	ExtractModel string `yaml:"extract_model" mapstructure:"extract_model"`
}

// NotionConfig holds the curated event list database.
type NotionConfig struct {
	Token     string `yaml:"token" mapstructure:"token"`
	CuratedDB string `yaml:"curated_db" mapstructure:"curated_db"`
}

// SearchConfig carries engine defaults: every field can be overridden per
// request, these are the values applied when a request leaves one zero.
type SearchConfig struct {
	Thresholds model.Thresholds `yaml:"thresholds" mapstructure:"thresholds"`
	Limits     model.Limits     `yaml:"limits" mapstructure:"limits"`
	Timeouts   TimeoutConfig    `yaml:"timeouts" mapstructure:"timeouts"`
	Flags      model.Flags      `yaml:"flags" mapstructure:"flags"`
	RelaxOrder []string         `yaml:"relax_order" mapstructure:"relax_order"`
	Curated    CuratedConfig    `yaml:"curated" mapstructure:"curated"`
}

// TimeoutConfig mirrors model.Timeouts in seconds for config files.
type TimeoutConfig struct {
	DiscoverySecs      int `yaml:"discovery_secs" mapstructure:"discovery_secs"`
	PrioritizationSecs int `yaml:"prioritization_secs" mapstructure:"prioritization_secs"`
	ParsingSecs        int `yaml:"parsing_secs" mapstructure:"parsing_secs"`
	RunSecs            int `yaml:"run_secs" mapstructure:"run_secs"`
}

// Durations converts the second counts to model.Timeouts.
func (t TimeoutConfig) Durations() model.Timeouts {
	return model.Timeouts{
		Discovery:      time.Duration(t.DiscoverySecs) * time.Second,
		Prioritization: time.Duration(t.PrioritizationSecs) * time.Second,
		Parsing:        time.Duration(t.ParsingSecs) * time.Second,
		Run:            time.Duration(t.RunSecs) * time.Second,
	}
}

// CuratedConfig configures the curated tier and the demo fallback dataset.
type CuratedConfig struct {
	DatasetPath string `yaml:"dataset_path" mapstructure:"dataset_path"`
}

// CacheConfig configures the result cache.
type CacheConfig struct {
	TTLHours int  `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	Enabled  bool `yaml:"enabled" mapstructure:"enabled"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// RequestDefaults builds the default SearchRequest skeleton applied to
// incoming requests via ApplyDefaults.
func (c *Config) RequestDefaults() model.SearchRequest {
	return model.SearchRequest{
		Flags:      c.Search.Flags,
		Thresholds: c.Search.Thresholds,
		Limits:     c.Search.Limits,
		Timeouts:   c.Search.Timeouts.Durations(),
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EVENTSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "event-scout.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("anthropic.rank_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.extract_model", "claude-haiku-4-5-20251001")
	v.SetDefault("search.thresholds.prioritization", 0.4)
	v.SetDefault("search.thresholds.confidence", 0.3)
	v.SetDefault("search.thresholds.parse_quality", 0.5)
	v.SetDefault("search.limits.max_candidates", 40)
	v.SetDefault("search.limits.max_extractions", 10)
	v.SetDefault("search.limits.extract_concurrency", 4)
	v.SetDefault("search.timeouts.discovery_secs", 15)
	v.SetDefault("search.timeouts.prioritization_secs", 20)
	v.SetDefault("search.timeouts.parsing_secs", 30)
	v.SetDefault("search.timeouts.run_secs", 120)
	v.SetDefault("search.flags.enable_relaxation", true)
	v.SetDefault("search.flags.demo_fallback", true)
	v.SetDefault("search.relax_order", []string{"quality", "date-window", "country"})
	v.SetDefault("search.curated.dataset_path", "curated_events.yaml")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_hours", 6)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
