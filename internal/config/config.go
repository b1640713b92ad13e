// Package config loads the TOML configuration file shared by the service
// binaries. Values from the file act as defaults; command-line flags and
// environment variables override them.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Server contains the bind address, TLS material, and shutdown behaviour.
type Server struct {
	Addr                string   `toml:"addr"`
	TLSCertFile         string   `toml:"tls_cert_file"`
	TLSKeyFile          string   `toml:"tls_key_file"`
	ShutdownGraceSecs   int      `toml:"shutdown_grace_seconds"`
	DashboardOrigins    []string `toml:"dashboard_origins"`
	WebhookOrigins      []string `toml:"webhook_origins"`
	ContentSecurityCSP  string   `toml:"content_security_policy"`
	FrameAncestorsValue string   `toml:"frame_ancestors"`
}

// Logging contains log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Storage selects and configures the video repository backend.
type Storage struct {
	Driver             string `toml:"driver"`
	JSONPath           string `toml:"json_path"`
	PostgresDSN        string `toml:"postgres_dsn"`
	MaxConnections     int    `toml:"max_connections"`
	MinConnections     int    `toml:"min_connections"`
	ConnLifetimeSecs   int    `toml:"conn_lifetime_seconds"`
	ConnIdleSecs       int    `toml:"conn_idle_seconds"`
	HealthIntervalSecs int    `toml:"health_interval_seconds"`
	AcquireTimeoutSecs int    `toml:"acquire_timeout_seconds"`
	ApplicationName    string `toml:"application_name"`
}

// MediaLive configures the channel service REST client.
type MediaLive struct {
	BaseURL     string `toml:"base_url"`
	Token       string `toml:"token"`
	TimeoutSecs int    `toml:"timeout_seconds"`
}

// Events configures the lifecycle webhook endpoint.
type Events struct {
	Token string `toml:"token"`
}

// Cache configures the optional Redis-backed video cache.
type Cache struct {
	Enabled            bool   `toml:"enabled"`
	Addr               string `toml:"addr"`
	Username           string `toml:"username"`
	Password           string `toml:"password"`
	DB                 int    `toml:"db"`
	KeyPrefix          string `toml:"key_prefix"`
	TTLSecs            int    `toml:"ttl_seconds"`
	DialTimeoutSecs    int    `toml:"dial_timeout_seconds"`
	ReadTimeoutSecs    int    `toml:"read_timeout_seconds"`
	WriteTimeoutSecs   int    `toml:"write_timeout_seconds"`
	PoolSize           int    `toml:"pool_size"`
	TLSCAFile          string `toml:"tls_ca_file"`
	TLSCertFile        string `toml:"tls_cert_file"`
	TLSKeyFile         string `toml:"tls_key_file"`
	TLSServerName      string `toml:"tls_server_name"`
	TLSInsecureSkipTLS bool   `toml:"tls_insecure_skip_verify"`
}

// Config encapsulates all configuration values for the video service.
type Config struct {
	Server    Server    `toml:"server"`
	Logging   Logging   `toml:"logging"`
	Storage   Storage   `toml:"storage"`
	MediaLive MediaLive `toml:"medialive"`
	Events    Events    `toml:"events"`
	Cache     Cache     `toml:"cache"`
}

// Default returns the built-in configuration used when no file is present.
func Default() Config {
	return Config{
		Server: Server{
			Addr:              ":8080",
			ShutdownGraceSecs: 10,
		},
		Logging: Logging{
			Level:  "info",
			Format: "json",
		},
		Storage: Storage{
			Driver:   "json",
			JSONPath: "data/videos.json",
		},
		MediaLive: MediaLive{
			TimeoutSecs: 10,
		},
		Cache: Cache{
			KeyPrefix: "lumen:video:",
			TTLSecs:   300,
		},
	}
}

// Load parses the configuration file at path, layering it over the defaults.
// A missing file is not an error: the defaults are returned and exists is
// false so callers can log accordingly.
func Load(path string) (Config, bool, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, false, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, false, nil
		}
		return Config{}, false, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, false, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, false, err
	}

	return cfg, true, nil
}

// Validate rejects configurations that cannot produce a working service.
func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case "", "json":
		if strings.TrimSpace(c.Storage.JSONPath) == "" {
			return fmt.Errorf("storage.json_path is required for the json driver")
		}
	case "postgres":
		if strings.TrimSpace(c.Storage.PostgresDSN) == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q (expected json or postgres)", c.Storage.Driver)
	}

	if c.Server.ShutdownGraceSecs < 0 {
		return fmt.Errorf("server.shutdown_grace_seconds must not be negative")
	}
	if c.MediaLive.TimeoutSecs < 0 {
		return fmt.Errorf("medialive.timeout_seconds must not be negative")
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Addr) == "" {
		return fmt.Errorf("cache.addr is required when the cache is enabled")
	}

	return nil
}
