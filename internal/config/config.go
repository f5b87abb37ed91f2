package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	SerpAPI   SerpAPIConfig   `yaml:"serpapi" mapstructure:"serpapi"`
	Jina      JinaConfig      `yaml:"jina" mapstructure:"jina"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Crust     CrustConfig     `yaml:"crust" mapstructure:"crust"`
	Apollo    ApolloConfig    `yaml:"apollo" mapstructure:"apollo"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Render    RenderConfig    `yaml:"render" mapstructure:"render"`
	Normalize NormalizeConfig `yaml:"normalize" mapstructure:"normalize"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// NotionConfig holds Notion API credentials for the lead queue.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// SerpAPIConfig holds SerpAPI (Google search) settings.
type SerpAPIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// JinaConfig holds Jina AI Reader and Search settings.
type JinaConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// LLMConfig selects and tunes the extraction model.
type LLMConfig struct {
	Provider    string  `yaml:"provider" mapstructure:"provider"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SearchConfig selects the search backend.
type SearchConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CrustConfig holds Crustdata API settings.
type CrustConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ApolloConfig holds Apollo API settings.
type ApolloConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// FetchConfig configures the polite HTTP fetcher.
type FetchConfig struct {
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MinIntervalMS int    `yaml:"min_interval_ms" mapstructure:"min_interval_ms"`
	MaxRetries    int    `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBaseMS   int    `yaml:"retry_base_ms" mapstructure:"retry_base_ms"`
	UserAgent     string `yaml:"user_agent" mapstructure:"user_agent"`
	RespectRobots bool   `yaml:"respect_robots" mapstructure:"respect_robots"`
	MaxBodyBytes  int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// RenderConfig configures the dynamic rendering fallback.
type RenderConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Provider    string `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxPages    int64  `yaml:"max_pages" mapstructure:"max_pages"`
}

// NormalizeConfig configures the content normalizer.
type NormalizeConfig struct {
	TokenBudget   int `yaml:"token_budget" mapstructure:"token_budget"`
	CharsPerToken int `yaml:"chars_per_token" mapstructure:"chars_per_token"`
	TopSections   int `yaml:"top_sections" mapstructure:"top_sections"`
}

// PipelineConfig configures the resolution pipeline.
type PipelineConfig struct {
	Target          string   `yaml:"target" mapstructure:"target"`
	TargetsFile     string   `yaml:"targets_file" mapstructure:"targets_file"`
	// MinExecutives overrides the target's threshold when positive.
	MinExecutives   int      `yaml:"min_executives" mapstructure:"min_executives"`
	MaxResults      int      `yaml:"max_results" mapstructure:"max_results"`
	MaxConcurrency  int      `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	EarlyStop       bool     `yaml:"early_stop" mapstructure:"early_stop"`
	ResolveLinkedIn bool     `yaml:"resolve_linkedin" mapstructure:"resolve_linkedin"`
	DirectLinkedIn  bool     `yaml:"direct_linkedin" mapstructure:"direct_linkedin"`
	FilterRosters   bool     `yaml:"filter_rosters" mapstructure:"filter_rosters"`
	Gateways        []string `yaml:"gateways" mapstructure:"gateways"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentCompanies int `yaml:"max_concurrent_companies" mapstructure:"max_concurrent_companies"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RequestTimeoutS int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// MetricsConfig toggles Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Timeout converts a seconds field to a duration, falling back to def when unset.
func Timeout(secs int, def time.Duration) time.Duration {
	if secs <= 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("EXECSCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials have no defaults, so bind them explicitly for Unmarshal.
	for _, key := range []string{
		"serpapi.key", "jina.key", "anthropic.key", "gemini.key",
		"crust.key", "apollo.key", "notion.token", "notion.lead_db",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "executives.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.request_timeout_secs", 300)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("batch.max_concurrent_companies", 3)
	v.SetDefault("serpapi.base_url", "https://serpapi.com")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("llm.provider", "anthropic")
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.timeout_secs", 60)
	v.SetDefault("search.provider", "serpapi")
	v.SetDefault("search.timeout_secs", 15)
	v.SetDefault("crust.base_url", "https://api.crustdata.com")
	v.SetDefault("apollo.base_url", "https://api.apollo.io")
	v.SetDefault("fetch.timeout_secs", 10)
	v.SetDefault("fetch.min_interval_ms", 1000)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.retry_base_ms", 1000)
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (compatible; ExecutiveFinderBot/1.0)")
	v.SetDefault("fetch.respect_robots", true)
	v.SetDefault("fetch.max_body_bytes", 5<<20)
	v.SetDefault("render.enabled", true)
	v.SetDefault("render.provider", "rod")
	v.SetDefault("render.timeout_secs", 30)
	v.SetDefault("render.max_pages", 75)
	v.SetDefault("normalize.token_budget", 15000)
	v.SetDefault("normalize.chars_per_token", 4)
	v.SetDefault("normalize.top_sections", 2)
	v.SetDefault("pipeline.target", "executives")
	v.SetDefault("pipeline.min_executives", 0)
	v.SetDefault("pipeline.max_results", 3)
	v.SetDefault("pipeline.max_concurrency", 3)
	v.SetDefault("pipeline.early_stop", true)
	v.SetDefault("pipeline.resolve_linkedin", true)
	v.SetDefault("pipeline.direct_linkedin", false)
	v.SetDefault("pipeline.filter_rosters", false)
	v.SetDefault("pipeline.gateways", []string{"crust", "apollo"})

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

// Validate checks that the credentials required by the selected providers
// are present. People-data gateway keys are not checked here: a missing key
// only disables that gateway.
func (c *Config) Validate() error {
	var missing []string

	switch c.Search.Provider {
	case "serpapi":
		if c.SerpAPI.Key == "" {
			missing = append(missing, "serpapi.key")
		}
	case "jina":
		if c.Jina.Key == "" {
			missing = append(missing, "jina.key")
		}
	default:
		return eris.Errorf("config: unknown search provider %q", c.Search.Provider)
	}

	switch c.LLM.Provider {
	case "anthropic":
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key")
		}
	case "gemini":
		if c.Gemini.Key == "" {
			missing = append(missing, "gemini.key")
		}
	default:
		return eris.Errorf("config: unknown llm provider %q", c.LLM.Provider)
	}

	if c.Render.Enabled && c.Render.Provider != "rod" && c.Render.Provider != "jina" {
		return eris.Errorf("config: unknown render provider %q", c.Render.Provider)
	}

	if c.Pipeline.MinExecutives < 0 {
		return eris.New("config: pipeline.min_executives must be >= 0")
	}
	if c.Pipeline.MaxResults < 1 {
		return eris.New("config: pipeline.max_results must be >= 1")
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required keys: %s", strings.Join(missing, ", "))
	}
	return nil
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
