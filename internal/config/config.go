// Package config loads and validates exporter configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/naoyuki-hirata-biz/scraping-gn/internal/logging"
	"github.com/naoyuki-hirata-biz/scraping-gn/internal/staging"
)

// Backend kinds selectable at construction time, never mixed in a run.
const (
	BackendStatic  = "static"
	BackendBrowser = "browser"
)

// Shop limit bounds; out-of-range values fall back to the maximum.
const (
	MinShops = 1
	MaxShops = 50
)

// Config captures all exporter knobs loaded via Viper.
type Config struct {
	URI            string         `mapstructure:"uri"`
	Backend        string         `mapstructure:"backend"`
	Output         string         `mapstructure:"output"`
	Shops          int            `mapstructure:"shops"`
	TimeoutSeconds int            `mapstructure:"timeout_seconds"`
	Retry          int            `mapstructure:"retry"`
	UserAgent      string         `mapstructure:"user_agent"`
	Headful        bool           `mapstructure:"headful"`
	Logging        logging.Config `mapstructure:"logging"`
	Staging        staging.Config `mapstructure:"staging"`
}

// SetDefaults registers defaults on v. Exposed so the CLI can bind flags
// over them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendStatic)
	v.SetDefault("output", "results.csv")
	v.SetDefault("shops", MaxShops)
	v.SetDefault("timeout_seconds", 90)
	v.SetDefault("retry", 3)
	v.SetDefault("user_agent",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36")
	v.SetDefault("headful", false)
	v.SetDefault("logging.development", true)
	v.SetDefault("staging.fixture_prefix", "file:///opt/go/static/html/")
	v.SetDefault("staging.archive_path", "static/html.zip")
	v.SetDefault("staging.extract_dir", "static/html")
}

// Load builds a Config from v, normalizing and validating it.
func Load(v *viper.Viper) (Config, error) {
	v.SetEnvPrefix("SCRAPING_GN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Out-of-range limits fall back to the maximum rather than failing.
	if cfg.Shops < MinShops || cfg.Shops > MaxShops {
		cfg.Shops = MaxShops
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces required values.
func (c Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("uri must be set")
	}
	if c.Backend != BackendStatic && c.Backend != BackendBrowser {
		return fmt.Errorf("backend must be %q or %q, got %q", BackendStatic, BackendBrowser, c.Backend)
	}
	if c.Output == "" {
		return fmt.Errorf("output must be set")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be > 0")
	}
	if c.Retry <= 0 {
		return fmt.Errorf("retry must be > 0")
	}
	return nil
}

// Timeout converts the configured wait budget into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
