package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type AppConfig struct {
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
	Port        string `yaml:"port"`
	GinMode     string `yaml:"gin_mode"`

	Database  DatabaseConfig  `yaml:"database"`
	RedisURL  string          `yaml:"redis_url"`
	JWT       JWTConfig       `yaml:"jwt"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	RateLimitEnabled bool `yaml:"rate_limit_enabled"`
	EnforceHTTPS     bool `yaml:"enforce_https"`

	// TrustedProxies lists the proxy addresses or CIDRs whose forwarding
	// headers are honoured. Empty means the peer address is the client.
	TrustedProxies []string `yaml:"trusted_proxies"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`

	// LogQueries writes every sqlite statement to stderr.
	LogQueries bool `yaml:"log_queries"`
}

type JWTConfig struct {
	Secret         string        `yaml:"secret"`
	Issuer         string        `yaml:"issuer"`
	Audience       string        `yaml:"audience"`
	AccessLifetime time.Duration `yaml:"access_lifetime"`
}

type BootstrapConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	MetricsPort  string `yaml:"metrics_port"`
	LokiURL      string `yaml:"loki_url"`
}

func GetDefaultConfig() *AppConfig {
	return &AppConfig{
		ServiceName: "accountapp",
		Environment: "development",
		Port:        "8080",
		GinMode:     "debug",
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   "accounts.db",
		},
		JWT: JWTConfig{
			Issuer:         "accountapp",
			Audience:       "accountapp-clients",
			AccessLifetime: time.Hour,
		},
		Bootstrap: BootstrapConfig{
			Enabled: true,
			Login:   "admin",
			Name:    "Admin",
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: "localhost:4317",
			MetricsPort:  "9090",
		},
		RateLimitEnabled: true,
		EnforceHTTPS:     false,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Load layers defaults, the optional YAML file at path and the process
// environment, in that order, then validates the result.
func Load(path string) (*AppConfig, error) {
	cfg := GetDefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)

		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AppConfig) applyEnv(lookup func(string) (string, bool)) error {
	texts := map[string]*string{
		"SERVICE_NAME":             &c.ServiceName,
		"ENVIRONMENT":              &c.Environment,
		"PORT":                     &c.Port,
		"GIN_MODE":                 &c.GinMode,
		"DATABASE_DRIVER":          &c.Database.Driver,
		"DATABASE_PATH":            &c.Database.Path,
		"DATABASE_URL":             &c.Database.URL,
		"REDIS_URL":                &c.RedisURL,
		"JWT_SECRET":               &c.JWT.Secret,
		"JWT_ISSUER":               &c.JWT.Issuer,
		"JWT_AUDIENCE":             &c.JWT.Audience,
		"BOOTSTRAP_ADMIN_LOGIN":    &c.Bootstrap.Login,
		"BOOTSTRAP_ADMIN_PASSWORD": &c.Bootstrap.Password,
		"BOOTSTRAP_ADMIN_NAME":     &c.Bootstrap.Name,
		"OTLP_ENDPOINT":            &c.Telemetry.OTLPEndpoint,
		"METRICS_PORT":             &c.Telemetry.MetricsPort,
		"LOKI_URL":                 &c.Telemetry.LokiURL,
	}

	for key, target := range texts {
		if value, ok := lookup(key); ok {
			*target = value
		}
	}

	if value, ok := lookup("TRUSTED_PROXIES"); ok {
		c.TrustedProxies = nil

		for _, proxy := range strings.Split(value, ",") {
			if proxy = strings.TrimSpace(proxy); proxy != "" {
				c.TrustedProxies = append(c.TrustedProxies, proxy)
			}
		}
	}

	bools := map[string]*bool{
		"DATABASE_LOG_QUERIES": &c.Database.LogQueries,
		"BOOTSTRAP_ADMIN":      &c.Bootstrap.Enabled,
		"RATE_LIMIT_ENABLED":   &c.RateLimitEnabled,
		"ENFORCE_HTTPS":        &c.EnforceHTTPS,
		"TELEMETRY_ENABLED":    &c.Telemetry.Enabled,
	}

	for key, target := range bools {
		if value, ok := lookup(key); ok {
			parsed, err := strconv.ParseBool(value)

			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}

			*target = parsed
		}
	}

	durations := map[string]*time.Duration{
		"JWT_ACCESS_LIFETIME": &c.JWT.AccessLifetime,
		"SHUTDOWN_TIMEOUT":    &c.ShutdownTimeout,
	}

	for key, target := range durations {
		if value, ok := lookup(key); ok {
			parsed, err := time.ParseDuration(value)

			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}

			*target = parsed
		}
	}

	return nil
}

func (c *AppConfig) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt secret must be set (JWT_SECRET)"))
	}

	if c.JWT.AccessLifetime <= 0 {
		errs = append(errs, fmt.Errorf("jwt access lifetime must be positive, got %s", c.JWT.AccessLifetime))
	}

	switch c.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database url must be set for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}

	for _, proxy := range c.TrustedProxies {
		if net.ParseIP(proxy) == nil {
			if _, _, err := net.ParseCIDR(proxy); err != nil {
				errs = append(errs, fmt.Errorf("trusted proxy %q is neither an IP nor a CIDR", proxy))
			}
		}
	}

	if c.Port == "" {
		errs = append(errs, errors.New("port must be set"))
	}

	return errors.Join(errs...)
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production" || c.GinMode == "release"
}
