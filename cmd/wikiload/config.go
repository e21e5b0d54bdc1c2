package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/wiki-recent-changes/pkg/cache"
	"github.com/Sternrassler/wiki-recent-changes/pkg/client"
	"github.com/Sternrassler/wiki-recent-changes/pkg/loader"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix        = "WIKILOAD"
	defaultUserAgent = "wikiload/0.1.0 (https://github.com/Sternrassler/wiki-recent-changes)"
)

// config is the resolved run configuration. Precedence is flag, then
// environment (WIKILOAD_*), then config file, then default.
type config struct {
	DB    string `mapstructure:"db"`
	Table string `mapstructure:"table"`
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`

	Engine string `mapstructure:"engine"`

	APIURL      string        `mapstructure:"api-url"`
	UserAgent   string        `mapstructure:"user-agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max-attempts"`

	RedisURL string        `mapstructure:"redis-url"`
	CacheTTL time.Duration `mapstructure:"cache-ttl"`

	PushgatewayURL string `mapstructure:"pushgateway-url"`
	ProgressBar    bool   `mapstructure:"progress-bar"`

	LogLevel  string `mapstructure:"log-level"`
	LogPretty bool   `mapstructure:"log-pretty"`
}

func registerFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "YAML, JSON or TOML config file")

	fs.String("db", "wiki_recent_changes.db", "Database file to write")
	fs.String("table", "recent_changes_raw", "Table to replace, optionally schema-qualified")
	fs.String("start", "2024-10-31T00:00:00Z", "Window start (oldest change), ISO-8601")
	fs.String("end", "2024-10-31T23:59:59Z", "Window end (newest change), ISO-8601")
	fs.String("engine", loader.EngineDuckDB, "Database engine. One of "+strings.Join(loader.Engines, ", "))

	fs.String("api-url", client.DefaultBaseURL, "MediaWiki api.php endpoint")
	fs.String("user-agent", defaultUserAgent, "User-Agent sent to the API")
	fs.Duration("timeout", 30*time.Second, "Timeout for a single API request")
	fs.Int("max-attempts", 1, "Attempts per page request; 1 disables retries")

	fs.String("redis-url", "", "Redis URL for the page cache; empty disables caching")
	fs.Duration("cache-ttl", cache.DefaultTTL, "Lifetime of cached pages")

	fs.String("pushgateway-url", "", "Prometheus Pushgateway to push run metrics to")
	fs.Bool("progress-bar", false, "Render a progress bar instead of per-page log lines")

	fs.String("log-level", "info", "Log level. One of trace, debug, info, warn, error")
	fs.Bool("log-pretty", false, "Human-readable console logs instead of JSON")
}

// newViper binds fs and the WIKILOAD_ environment to a fresh viper instance.
func newViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	return v, nil
}

func loadConfig(v *viper.Viper) (config, error) {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	var errs []error
	if c.DB == "" {
		errs = append(errs, errors.New("db is required"))
	}
	if c.Table == "" {
		errs = append(errs, errors.New("table is required"))
	}
	if c.Start == "" || c.End == "" {
		errs = append(errs, errors.New("start and end are required"))
	}
	if _, err := loader.EngineByName(c.Engine); err != nil {
		errs = append(errs, err)
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max-attempts must be at least 1, got %d", c.MaxAttempts))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	return errors.Join(errs...)
}
