package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Log         LogConfig
	HTTP        HTTPConfig
	DataService DataServiceConfig
	Redis       RedisConfig
	Catalog     CatalogConfig
	Resolver    ResolverConfig
	Editor      EditorConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// DataServiceConfig holds the remote data service connection settings.
// PublicKey is the static read-only-equivalent API key used when no live
// session credential is available.
type DataServiceConfig struct {
	BaseURL   string
	PublicKey string
	Timeout   time.Duration
}

// RedisConfig holds Redis connection settings for the catalog snapshot
// cache. Leaving Host empty disables the snapshot cache entirely.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CatalogConfig holds catalog cache settings
type CatalogConfig struct {
	SnapshotTTL time.Duration
}

// ResolverConfig holds client-resolver tuning
type ResolverConfig struct {
	DebounceWindow time.Duration
	MinTaxIDLength int
	LookupTimeout  time.Duration
}

// EditorConfig holds quotation editor settings
type EditorConfig struct {
	// SuccessDisplayDelay is how long a successful submission result stays
	// visible before the UI is expected to navigate away.
	SuccessDisplayDelay time.Duration
	ListLimit           int
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with EMPAQUES_ prefix (e.g. EMPAQUES_DATA_SERVICE_PUBLIC_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("EMPAQUES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		DataService: DataServiceConfig{
			BaseURL:   v.GetString("data_service.base_url"),
			PublicKey: v.GetString("data_service.public_key"),
			Timeout:   v.GetDuration("data_service.timeout"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Catalog: CatalogConfig{
			SnapshotTTL: v.GetDuration("catalog.snapshot_ttl"),
		},
		Resolver: ResolverConfig{
			DebounceWindow: v.GetDuration("resolver.debounce_window"),
			MinTaxIDLength: v.GetInt("resolver.min_tax_id_length"),
			LookupTimeout:  v.GetDuration("resolver.lookup_timeout"),
		},
		Editor: EditorConfig{
			SuccessDisplayDelay: v.GetDuration("editor.success_display_delay"),
			ListLimit:           v.GetInt("editor.list_limit"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "empaques-backoffice"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 5 << 20 // 5MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.DataService.BaseURL == "" {
		cfg.DataService.BaseURL = "http://localhost:9090"
	}
	if cfg.DataService.Timeout == 0 {
		cfg.DataService.Timeout = 10 * time.Second
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Catalog.SnapshotTTL == 0 {
		cfg.Catalog.SnapshotTTL = 5 * time.Minute
	}
	if cfg.Resolver.DebounceWindow == 0 {
		cfg.Resolver.DebounceWindow = 800 * time.Millisecond
	}
	if cfg.Resolver.MinTaxIDLength == 0 {
		cfg.Resolver.MinTaxIDLength = 8
	}
	if cfg.Resolver.LookupTimeout == 0 {
		cfg.Resolver.LookupTimeout = 5 * time.Second
	}
	if cfg.Editor.SuccessDisplayDelay == 0 {
		cfg.Editor.SuccessDisplayDelay = 2 * time.Second
	}
	if cfg.Editor.ListLimit == 0 {
		cfg.Editor.ListLimit = 500
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Resolver.MinTaxIDLength < 1 {
		return fmt.Errorf("resolver.min_tax_id_length must be positive")
	}
	if c.Editor.ListLimit < 1 {
		return fmt.Errorf("editor.list_limit must be positive")
	}

	if c.App.Env == "production" {
		if c.DataService.PublicKey == "" {
			return fmt.Errorf("data_service.public_key is required in production")
		}
		if !strings.HasPrefix(c.DataService.BaseURL, "https://") {
			return fmt.Errorf("data_service.base_url must use https in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// Addr returns the Redis connection address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Enabled reports whether the snapshot cache should be used
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}
