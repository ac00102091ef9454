package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/teemow/dropboxmcp/internal/source"
)

// Transport names accepted by the serve command.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Environment variables read by ApplyEnv.
const (
	EnvAccessToken    = "DROPBOX_ACCESS_TOKEN"
	EnvDownloadDir    = "DROPBOX_DOWNLOAD_DIR"
	EnvMaxUploadBytes = "DROPBOX_MAX_UPLOAD_BYTES"
	EnvTransport      = "MCP_TRANSPORT"
	EnvHTTPAddr       = "MCP_HTTP_ADDR"
	EnvHTTPAuthToken  = "MCP_HTTP_AUTH_TOKEN"
	EnvReadOnly       = "MCP_READ_ONLY"
	EnvMetricsEnabled = "METRICS_ENABLED"
	EnvMetricsAddr    = "METRICS_ADDR"
)

// ErrMissingAccessToken is returned by Validate when no token is configured.
var ErrMissingAccessToken = errors.New(EnvAccessToken + " is not set")

// Config is the complete server configuration.
type Config struct {
	// Transport is "stdio" or "streamable-http"
	Transport string `yaml:"transport"`

	// HTTPAddr is the listen address of the streamable HTTP transport
	HTTPAddr string `yaml:"http_addr"`

	// HTTPAuthToken, when set, is required as a bearer token on /mcp
	HTTPAuthToken string `yaml:"http_auth_token"`

	// ReadOnly registers only the tools that do not modify the account
	ReadOnly bool `yaml:"read_only"`

	Debug bool `yaml:"debug"`

	// DownloadDir receives files written by the download tool
	DownloadDir string `yaml:"download_dir"`

	// MaxUploadBytes caps content resolved from a URL or local file
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	Metrics MetricsConfig `yaml:"metrics"`

	// AccessToken authenticates against Dropbox; environment only
	AccessToken string `yaml:"-"`
}

// MetricsConfig holds configuration for the metrics server.
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool `yaml:"enabled"`

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string `yaml:"addr"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Transport:      TransportStdio,
		HTTPAddr:       ":8080",
		DownloadDir:    os.TempDir(),
		MaxUploadBytes: source.DefaultMaxBytes,
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path and then the
// environment. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal onto the defaults so absent keys keep them.
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
// Malformed values are reported rather than ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q (expected true/false)", key, v)
		}
		*dst = parsed
		return nil
	}

	str(EnvAccessToken, &c.AccessToken)
	str(EnvDownloadDir, &c.DownloadDir)
	str(EnvTransport, &c.Transport)
	str(EnvHTTPAddr, &c.HTTPAddr)
	str(EnvHTTPAuthToken, &c.HTTPAuthToken)
	str(EnvMetricsAddr, &c.Metrics.Addr)

	if err := boolean(EnvReadOnly, &c.ReadOnly); err != nil {
		return err
	}
	if err := boolean(EnvMetricsEnabled, &c.Metrics.Enabled); err != nil {
		return err
	}

	if v, ok := lookup(EnvMaxUploadBytes); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvMaxUploadBytes, v, err)
		}
		c.MaxUploadBytes = n
	}

	return nil
}

// Validate checks the configuration is usable for serving.
func (c *Config) Validate() error {
	if c.AccessToken == "" {
		return ErrMissingAccessToken
	}

	switch c.Transport {
	case TransportStdio:
	case TransportStreamableHTTP:
		if c.HTTPAddr == "" {
			return fmt.Errorf("http address is required for %s transport", TransportStreamableHTTP)
		}
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", c.Transport, TransportStdio, TransportStreamableHTTP)
	}

	if c.DownloadDir == "" {
		return fmt.Errorf("download directory must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.MaxUploadBytes > source.DefaultMaxBytes {
		return fmt.Errorf("max upload bytes %d exceeds the single-request limit of %d", c.MaxUploadBytes, source.DefaultMaxBytes)
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics address is required when metrics are enabled")
	}

	return nil
}
