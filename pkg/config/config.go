// Package config loads server configuration from a YAML file with
// environment-variable overrides, and loads seed fixture files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default ports for the public mock engine and the authoring API.
const (
	DefaultServePort = 4280
	DefaultAdminPort = 4290
)

// Config is the top-level server configuration.
type Config struct {
	// ServePort is the port the public mock engine listens on.
	ServePort int `yaml:"servePort"`

	// AdminPort is the port the authoring API listens on.
	AdminPort int `yaml:"adminPort"`

	// DataFile is the JSON file definitions and accounts persist to.
	// Empty disables persistence (memory only).
	DataFile string `yaml:"dataFile"`

	Token    TokenConfig    `yaml:"token"`
	Log      LogConfig      `yaml:"log"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Fixtures FixturesConfig `yaml:"fixtures"`
	CORS     CORSConfig     `yaml:"cors"`
	Rate     RateConfig     `yaml:"rateLimit"`
}

// TokenConfig configures bearer-token issuing.
type TokenConfig struct {
	// Secret signs HS256 tokens. Required in production; when empty a
	// random per-process secret is generated (tokens do not survive
	// restarts).
	Secret string `yaml:"secret"`

	// TTL is the token lifetime as a Go duration string (e.g. "24h").
	TTL string `yaml:"ttl"`
}

// TTLDuration parses the configured token lifetime.
func (t TokenConfig) TTLDuration() (time.Duration, error) {
	if t.TTL == "" {
		return 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(t.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid token ttl %q: %w", t.TTL, err)
	}
	return d, nil
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SMTPConfig configures the transactional mailer.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Sender   string `yaml:"sender"`
}

// FixturesConfig configures seed fixture loading.
type FixturesConfig struct {
	// Glob selects fixture files to load at startup. Supports ** via
	// doublestar (e.g. "fixtures/**/*.yaml").
	Glob string `yaml:"glob"`

	// Watch reloads fixtures when files under the glob's base directory
	// change.
	Watch bool `yaml:"watch"`
}

// CORSConfig configures CORS for the authoring API.
type CORSConfig struct {
	// AllowedOrigins lists origins allowed to call the authoring API.
	// Empty allows all origins.
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// RateConfig configures per-client rate limiting on the authoring API.
type RateConfig struct {
	// RPS is the sustained requests-per-second budget per client IP.
	RPS float64 `yaml:"rps"`

	// Burst is the burst allowance per client IP.
	Burst int `yaml:"burst"`

	// Disabled turns rate limiting off entirely.
	Disabled bool `yaml:"disabled"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		ServePort: DefaultServePort,
		AdminPort: DefaultAdminPort,
		Token: TokenConfig{
			TTL: "24h",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		SMTP: SMTPConfig{
			Port:   25,
			Sender: "fauxsmith <no-reply@fauxsmith.local>",
		},
		Rate: RateConfig{
			RPS:   10,
			Burst: 20,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing path is
// not an error; defaults plus env overrides apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config values from FAUXSMITH_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("FAUXSMITH_SERVE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.ServePort = port
		}
	}
	if v := os.Getenv("FAUXSMITH_ADMIN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.AdminPort = port
		}
	}
	if v := os.Getenv("FAUXSMITH_TOKEN_SECRET"); v != "" {
		c.Token.Secret = v
	}
	if v := os.Getenv("FAUXSMITH_DATA_FILE"); v != "" {
		c.DataFile = v
	}
	if v := os.Getenv("FAUXSMITH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("FAUXSMITH_SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("FAUXSMITH_SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.ServePort <= 0 || c.ServePort > 65535 {
		return fmt.Errorf("servePort out of range: %d", c.ServePort)
	}
	if c.AdminPort <= 0 || c.AdminPort > 65535 {
		return fmt.Errorf("adminPort out of range: %d", c.AdminPort)
	}
	if c.ServePort == c.AdminPort {
		return fmt.Errorf("servePort and adminPort must differ")
	}
	if _, err := c.Token.TTLDuration(); err != nil {
		return err
	}
	if !c.Rate.Disabled && (c.Rate.RPS <= 0 || c.Rate.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}
	return nil
}
