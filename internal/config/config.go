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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Session SessionConfig `yaml:"session" mapstructure:"session"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Harvest HarvestConfig `yaml:"harvest" mapstructure:"harvest"`
	Resolve ResolveConfig `yaml:"resolve" mapstructure:"resolve"`
	Monitor MonitorConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the persistence boundary. Either DatabaseURL or the
// five discrete connection parameters are used for postgres.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`

	// Connection holds the discrete parameters (database, host, port, user,
	// password). The key set is validated exactly by db.ParseConnParams.
	Connection map[string]string `yaml:"connection" mapstructure:"connection"`
}

// SessionConfig configures cookie-session acquisition against the portal.
type SessionConfig struct {
	BaseURL          string   `yaml:"base_url" mapstructure:"base_url"`
	APIPrefix        string   `yaml:"api_prefix" mapstructure:"api_prefix"`
	BootstrapPath    string   `yaml:"bootstrap_path" mapstructure:"bootstrap_path"`
	FeaturePath      string   `yaml:"feature_path" mapstructure:"feature_path"`
	BootstrapCookie  string   `yaml:"bootstrap_cookie" mapstructure:"bootstrap_cookie"`
	AuthCookie       string   `yaml:"auth_cookie" mapstructure:"auth_cookie"`
	MaxRetries       int      `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelayMs     int      `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
	RefreshThreshold int      `yaml:"refresh_threshold" mapstructure:"refresh_threshold"`
	BootstrapTimeout int      `yaml:"bootstrap_timeout_secs" mapstructure:"bootstrap_timeout_secs"`
	PrimeTimeout     int      `yaml:"prime_timeout_secs" mapstructure:"prime_timeout_secs"`
	RequestTimeout   int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	JitterMinMs      int      `yaml:"jitter_min_ms" mapstructure:"jitter_min_ms"`
	JitterMaxMs      int      `yaml:"jitter_max_ms" mapstructure:"jitter_max_ms"`
	RequestsPerSec   float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	UserAgents       []string `yaml:"user_agents" mapstructure:"user_agents"`
	TLSBypass        bool     `yaml:"tls_bypass" mapstructure:"tls_bypass"`
	RefererPrefix    string   `yaml:"referer_prefix" mapstructure:"referer_prefix"`
	DefaultReferer   string   `yaml:"default_referer" mapstructure:"default_referer"`
}

// FetchConfig configures per-page retry behavior.
type FetchConfig struct {
	MaxAttempts  int `yaml:"max_attempts" mapstructure:"max_attempts"`
	RetryDelayMs int `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
}

// HarvestConfig configures the paginated harvester and its inputs.
type HarvestConfig struct {
	EndpointsFile string `yaml:"endpoints_file" mapstructure:"endpoints_file"`
	SchemaFile    string `yaml:"schema_file" mapstructure:"schema_file"`
	HeadersFile   string `yaml:"headers_file" mapstructure:"headers_file"`
	StartDate     string `yaml:"start_date" mapstructure:"start_date"`
	EndDate       string `yaml:"end_date" mapstructure:"end_date"`
	WindowDays    int    `yaml:"window_days" mapstructure:"window_days"`
	BatchSize     int    `yaml:"batch_size" mapstructure:"batch_size"`
	Schema        string `yaml:"schema" mapstructure:"schema"`
	ErrorLog      string `yaml:"error_log" mapstructure:"error_log"`
	MetricsFile   string `yaml:"metrics_file" mapstructure:"metrics_file"`
}

// ResolveConfig configures the fuzzy entity resolver.
type ResolveConfig struct {
	Threshold      float64 `yaml:"threshold" mapstructure:"threshold"`
	ReferenceQuery string  `yaml:"reference_query" mapstructure:"reference_query"`
	CallsTable     string  `yaml:"calls_table" mapstructure:"calls_table"`
}

// MonitorConfig configures the run health check behind the status command.
type MonitorConfig struct {
	LookbackHours        int     `yaml:"lookback_hours" mapstructure:"lookback_hours"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	FailedPagesThreshold int     `yaml:"failed_pages_threshold" mapstructure:"failed_pages_threshold"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// RetryDelay returns the fixed delay between session acquisition attempts.
func (s SessionConfig) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelayMs) * time.Millisecond
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PIPELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "datadump.db")
	v.SetDefault("session.base_url", "https://www.nseindia.com")
	v.SetDefault("session.api_prefix", "/api/")
	v.SetDefault("session.bootstrap_path", "/")
	v.SetDefault("session.feature_path", "/companies-listing/corporate-filings-insider-trading")
	v.SetDefault("session.bootstrap_cookie", "nsit")
	v.SetDefault("session.auth_cookie", "nseappid")
	v.SetDefault("session.max_retries", 3)
	v.SetDefault("session.retry_delay_ms", 2000)
	v.SetDefault("session.refresh_threshold", 20)
	v.SetDefault("session.bootstrap_timeout_secs", 15)
	v.SetDefault("session.prime_timeout_secs", 10)
	v.SetDefault("session.request_timeout_secs", 60)
	v.SetDefault("session.jitter_min_ms", 500)
	v.SetDefault("session.jitter_max_ms", 2000)
	v.SetDefault("session.requests_per_second", 0)
	v.SetDefault("session.tls_bypass", true)
	v.SetDefault("session.referer_prefix", "/companies-listing/")
	v.SetDefault("session.default_referer", "corporate-filings-insider-trading")
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.retry_delay_ms", 2000)
	v.SetDefault("harvest.endpoints_file", "config/api.json")
	v.SetDefault("harvest.schema_file", "config/schema.json")
	v.SetDefault("harvest.headers_file", "config/headers.json")
	v.SetDefault("harvest.start_date", "01-01-2000")
	v.SetDefault("harvest.end_date", "")
	v.SetDefault("harvest.window_days", 7)
	v.SetDefault("harvest.batch_size", 500)
	v.SetDefault("harvest.schema", "nse")
	v.SetDefault("harvest.error_log", "errors.txt")
	v.SetDefault("resolve.threshold", 0.6)
	v.SetDefault("resolve.reference_query", "select company_name, symbol from nse.metadata")
	v.SetDefault("resolve.calls_table", "trendlyne.conference_calls")
	v.SetDefault("monitoring.lookback_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.failed_pages_threshold", 50)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
