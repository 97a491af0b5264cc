// Package config loads mailer settings from a YAML file and MAILCHAIN_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/TheusHen/mailchain/mailchain/crypto"
	"github.com/TheusHen/mailchain/mailchain/payload"
	"github.com/TheusHen/mailchain/mailchain/protocol"
)

// EnvPrefix is prepended to every environment override, e.g.
// MAILCHAIN_DELIVERY_CONCURRENCY.
const EnvPrefix = "MAILCHAIN"

var ErrInvalid = errors.New("config: invalid value")

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

type PayloadConfig struct {
	ChunkSize   int    `mapstructure:"chunk_size" yaml:"chunk_size"`
	Workers     int    `mapstructure:"workers" yaml:"workers"`
	Encoding    string `mapstructure:"encoding" yaml:"encoding"`
	Encryption  string `mapstructure:"encryption" yaml:"encryption"`
	ContentType string `mapstructure:"content_type" yaml:"content_type"`
}

type DeliveryConfig struct {
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	RateLimit   float64       `mapstructure:"rate_limit" yaml:"rate_limit"` // per second, 0 is unlimited
	Burst       int           `mapstructure:"burst" yaml:"burst"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// StorageConfig selects where encrypted payloads are kept. The erasure
// backend spreads DataShards+ParityShards shards over as many memory stores.
type StorageConfig struct {
	Backend      string `mapstructure:"backend" yaml:"backend"` // memory or erasure
	DataShards   int    `mapstructure:"data_shards" yaml:"data_shards"`
	ParityShards int    `mapstructure:"parity_shards" yaml:"parity_shards"`
}

type TransportConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"` // QUIC listen address, empty disables the server
	Server string `mapstructure:"server" yaml:"server"` // QUIC delivery server, empty delivers in-process
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Config is the top-level mailer configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Payload   PayloadConfig   `mapstructure:"payload" yaml:"payload"`
	Delivery  DeliveryConfig  `mapstructure:"delivery" yaml:"delivery"`
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Transport TransportConfig `mapstructure:"transport" yaml:"transport"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
}

const (
	BackendMemory  = "memory"
	BackendErasure = "erasure"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("payload.chunk_size", payload.DefaultChunkSize)
	v.SetDefault("payload.workers", 4)
	v.SetDefault("payload.encoding", payload.EncodingIdentity)
	v.SetDefault("payload.encryption", crypto.CipherNaClSecretKey)
	v.SetDefault("payload.content_type", payload.DefaultContentType)
	v.SetDefault("delivery.concurrency", 8)
	v.SetDefault("delivery.rate_limit", 0)
	v.SetDefault("delivery.burst", 1)
	v.SetDefault("delivery.timeout", 30*time.Second)
	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("storage.data_shards", 4)
	v.SetDefault("storage.parity_shards", 2)
	v.SetDefault("transport.listen", "")
	v.SetDefault("transport.server", "")
	v.SetDefault("metrics.enabled", true)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Default returns the built-in configuration with environment overrides applied.
func Default() (*Config, error) {
	return Load("")
}

// Load reads the YAML file at path. A missing file or empty path yields the
// defaults; environment variables override both.
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			var pathErr *fs.PathError
			if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML to path.
func Save(path string, cfg *Config) error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("log", cfg.Log)
	v.Set("payload", cfg.Payload)
	v.Set("delivery", cfg.Delivery)
	v.Set("storage", cfg.Storage)
	v.Set("transport", cfg.Transport)
	v.Set("metrics", cfg.Metrics)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks values that would otherwise fail deep inside a send.
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	if c.Payload.ChunkSize <= 0 || c.Payload.ChunkSize > protocol.MaxChunkSize {
		return fmt.Errorf("%w: payload.chunk_size must be in 1..%d", ErrInvalid, protocol.MaxChunkSize)
	}
	if _, err := payload.Encode(c.Payload.Encoding, nil); err != nil {
		return fmt.Errorf("%w: payload.encoding: %v", ErrInvalid, err)
	}
	if _, err := crypto.CipherByName(c.Payload.Encryption, nil); err != nil {
		return fmt.Errorf("%w: payload.encryption: %v", ErrInvalid, err)
	}
	if c.Delivery.RateLimit < 0 {
		return fmt.Errorf("%w: delivery.rate_limit is negative", ErrInvalid)
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendErasure:
		if c.Storage.DataShards <= 0 || c.Storage.ParityShards <= 0 {
			return fmt.Errorf("%w: erasure storage needs data and parity shards", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: storage.backend %q", ErrInvalid, c.Storage.Backend)
	}
	return nil
}

// NewLogger builds a logrus logger from the log section.
func (c *Config) NewLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	if lvl, err := logrus.ParseLevel(c.Log.Level); err == nil {
		l.SetLevel(lvl)
	}
	if c.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}
