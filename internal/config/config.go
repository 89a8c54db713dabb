package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Resolve ResolveConfig `yaml:"resolve" mapstructure:"resolve"`
	Pricing PricingConfig `yaml:"pricing" mapstructure:"pricing"`
	Twilio  TwilioConfig  `yaml:"twilio" mapstructure:"twilio"`
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	OCR     OCRConfig     `yaml:"ocr" mapstructure:"ocr"`
	Handler HandlerConfig `yaml:"handler" mapstructure:"handler"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// CatalogConfig configures the internal price-list feed.
type CatalogConfig struct {
	FeedURL     string `yaml:"feed_url" mapstructure:"feed_url"`
	FeedKind    string `yaml:"feed_kind" mapstructure:"feed_kind"`
	FTPUser     string `yaml:"ftp_user" mapstructure:"ftp_user"`
	FTPPassword string `yaml:"ftp_password" mapstructure:"ftp_password"`
	TTLSecs     int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
}

// SourceConfig configures one external supplier adapter.
type SourceConfig struct {
	Bin         string   `yaml:"bin" mapstructure:"bin"`
	Args        []string `yaml:"args" mapstructure:"args"`
	TimeoutSecs int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// SourcesConfig maps lowercase source names to their adapter settings.
type SourcesConfig struct {
	PlanPath string                  `yaml:"plan_path" mapstructure:"plan_path"`
	Adapters map[string]SourceConfig `yaml:"adapters" mapstructure:"adapters"`
}

// ResolveConfig tunes the search orchestrator.
type ResolveConfig struct {
	CatalogThreshold float64 `yaml:"catalog_threshold" mapstructure:"catalog_threshold"`
	ContextThreshold float64 `yaml:"context_threshold" mapstructure:"context_threshold"`
	FastSource       string  `yaml:"fast_source" mapstructure:"fast_source"`
}

// PricingConfig holds per-source margins as percentages of the sell price.
type PricingConfig struct {
	Margins map[string]float64 `yaml:"margins" mapstructure:"margins"`
}

// TwilioConfig holds WhatsApp messaging credentials.
type TwilioConfig struct {
	AccountSID string `yaml:"account_sid" mapstructure:"account_sid"`
	AuthToken  string `yaml:"auth_token" mapstructure:"auth_token"`
	From       string `yaml:"from" mapstructure:"from"`
}

// LLMConfig holds Anthropic API settings.
type LLMConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OCRConfig configures image text extraction.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	MistralKey    string `yaml:"mistral_api_key" mapstructure:"mistral_api_key"`
	TesseractPath string `yaml:"tesseract_path" mapstructure:"tesseract_path"`
}

// HandlerConfig tunes per-user gating on the webhook path.
type HandlerConfig struct {
	AllowedNumbers []string `yaml:"allowed_numbers" mapstructure:"allowed_numbers"`
	RateIntervalMS int      `yaml:"rate_interval_ms" mapstructure:"rate_interval_ms"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
	HistoryLimit   int      `yaml:"history_limit" mapstructure:"history_limit"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PRICEBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "pricebot.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("catalog.feed_kind", "csv")
	v.SetDefault("catalog.ttl_secs", 300)
	v.SetDefault("resolve.catalog_threshold", 0.5)
	v.SetDefault("resolve.context_threshold", 0.7)
	v.SetDefault("resolve.fast_source", "sufarmed")
	v.SetDefault("sources.adapters.sufarmed.timeout_secs", 60)
	v.SetDefault("sources.adapters.fanasa.timeout_secs", 90)
	v.SetDefault("sources.adapters.nadro.timeout_secs", 120)
	v.SetDefault("sources.adapters.difarmer.timeout_secs", 120)
	v.SetDefault("pricing.margins.sufarmed", 45.0)
	v.SetDefault("pricing.margins.fanasa", 45.0)
	v.SetDefault("pricing.margins.nadro", 45.0)
	v.SetDefault("pricing.margins.difarmer", 45.0)
	v.SetDefault("pricing.margins.base_interna", 0.0)
	v.SetDefault("llm.model", "claude-haiku-4-5-20251001")
	v.SetDefault("ocr.provider", "local")
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("handler.rate_interval_ms", 2000)
	v.SetDefault("handler.rate_burst", 3)
	v.SetDefault("handler.history_limit", 10)

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

// Validate checks the fields the given run mode requires. Margins at or
// above 100 percent are allowed here; the pricing engine reports them as
// not computable per quote instead.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required for postgres")
	}
	if c.Resolve.CatalogThreshold < 0 || c.Resolve.CatalogThreshold > 1 {
		problems = append(problems, "resolve.catalog_threshold must be between 0 and 1")
	}
	if c.Resolve.ContextThreshold < 0 || c.Resolve.ContextThreshold > 1 {
		problems = append(problems, "resolve.context_threshold must be between 0 and 1")
	}
	for name, m := range c.Pricing.Margins {
		if m < 0 {
			problems = append(problems, "pricing.margins."+name+" must be >= 0")
		}
	}

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Twilio.AccountSID == "" {
			problems = append(problems, "twilio.account_sid is required")
		}
		if c.Twilio.AuthToken == "" {
			problems = append(problems, "twilio.auth_token is required")
		}
		if c.Twilio.From == "" {
			problems = append(problems, "twilio.from is required")
		}
		if c.LLM.Key == "" {
			problems = append(problems, "llm.key is required")
		}
	case "resolve", "catalog", "migrate":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
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
