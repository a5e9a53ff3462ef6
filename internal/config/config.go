package config

import (
	"errors"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server ServerConfig `koanf:"server"`
	Proxy  ProxyConfig  `koanf:"proxy"`
	Auth   AuthConfig   `koanf:"auth"`
	Limits LimitsConfig `koanf:"limits"`
}

type ServerConfig struct {
	Port           int           `koanf:"port"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// ProxyConfig points at the downstream Kafka REST proxy.
type ProxyConfig struct {
	TargetURL string        `koanf:"target_url"`
	Timeout   time.Duration `koanf:"timeout"`
}

// AuthConfig configures bearer token verification. At least one key source
// must be set: a shared HMAC secret, a PEM public key file, or a URL the
// public key is fetched from on first use.
type AuthConfig struct {
	Secret        string `koanf:"secret"`
	PublicKeyFile string `koanf:"public_key_file"`
	PublicKeyURL  string `koanf:"public_key_url"`
	Issuer        string `koanf:"issuer"`
	RequiredScope string `koanf:"required_scope"`
}

type LimitsConfig struct {
	MaxRequestSize int64 `koanf:"max_request_size"`
}

// Load reads configuration from an optional YAML file and GATEWAY_-prefixed
// environment variables. Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("GATEWAY_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "GATEWAY_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8090)
	}
	if !k.Exists("server.request_timeout") {
		k.Set("server.request_timeout", "30s")
	}
	if !k.Exists("proxy.target_url") {
		k.Set("proxy.target_url", "http://localhost:8082")
	}
	if !k.Exists("proxy.timeout") {
		k.Set("proxy.timeout", "30s")
	}
	if !k.Exists("auth.required_scope") {
		k.Set("auth.required_scope", "MEASUREMENT.CREATE")
	}
	if !k.Exists("limits.max_request_size") {
		k.Set("limits.max_request_size", 25*1024*1024)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the configuration can actually run a gateway.
func (c *Config) Validate() error {
	if c.Auth.Secret == "" && c.Auth.PublicKeyFile == "" && c.Auth.PublicKeyURL == "" {
		return errors.New("at least one of auth.secret, auth.public_key_file or auth.public_key_url must be configured")
	}
	if c.Proxy.TargetURL == "" {
		return errors.New("proxy.target_url must be configured")
	}
	if c.Limits.MaxRequestSize <= 0 {
		return errors.New("limits.max_request_size must be positive")
	}
	return nil
}
