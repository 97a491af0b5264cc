package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TheusHen/mailchain/mailchain/crypto"
	"github.com/TheusHen/mailchain/mailchain/payload"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Payload.ChunkSize != payload.DefaultChunkSize {
		t.Fatalf("chunk size = %d", cfg.Payload.ChunkSize)
	}
	if cfg.Payload.Encryption != crypto.CipherNaClSecretKey || cfg.Payload.Encoding != payload.EncodingIdentity {
		t.Fatalf("unexpected payload defaults: %+v", cfg.Payload)
	}
	if cfg.Delivery.Concurrency != 8 || cfg.Delivery.Timeout != 30*time.Second {
		t.Fatalf("unexpected delivery defaults: %+v", cfg.Delivery)
	}
	if cfg.Storage.Backend != BackendMemory || !cfg.Metrics.Enabled {
		t.Fatalf("unexpected storage/metrics defaults")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailchain.yaml")
	yaml := `
log:
  level: debug
  format: json
payload:
  encoding: lz4
  encryption: xchacha20-poly1305
  chunk_size: 4096
delivery:
  timeout: 5s
storage:
  backend: erasure
  data_shards: 3
  parity_shards: 1
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("MAILCHAIN_DELIVERY_CONCURRENCY", "3")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Payload.Encoding != payload.EncodingLZ4 || cfg.Payload.Encryption != crypto.CipherXChaCha20Poly1305 {
		t.Fatalf("payload section not loaded: %+v", cfg.Payload)
	}
	if cfg.Payload.ChunkSize != 4096 || cfg.Payload.Workers != 4 {
		t.Fatalf("chunk settings = %+v", cfg.Payload)
	}
	if cfg.Delivery.Timeout != 5*time.Second {
		t.Fatalf("timeout = %s", cfg.Delivery.Timeout)
	}
	if cfg.Delivery.Concurrency != 3 {
		t.Fatalf("env override ignored: concurrency = %d", cfg.Delivery.Concurrency)
	}
	if cfg.Storage.Backend != BackendErasure || cfg.Storage.DataShards != 3 || cfg.Storage.ParityShards != 1 {
		t.Fatalf("storage section not loaded: %+v", cfg.Storage)
	}

	l := cfg.NewLogger()
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %s", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected json formatter")
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"level":                        func(c *Config) { c.Log.Level = "loud" },
		"format":                       func(c *Config) { c.Log.Format = "xml" },
		"chunk size":                   func(c *Config) { c.Payload.ChunkSize = 0 },
		"chunk size above frame limit": func(c *Config) { c.Payload.ChunkSize = 20 << 20 },
		"encoding":                     func(c *Config) { c.Payload.Encoding = "gzip" },
		"encryption":                   func(c *Config) { c.Payload.Encryption = "rot13" },
		"rate":                         func(c *Config) { c.Delivery.RateLimit = -1 },
		"backend":                      func(c *Config) { c.Storage.Backend = "s3" },
		"shards":                       func(c *Config) { c.Storage.Backend = BackendErasure; c.Storage.ParityShards = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Default()
			if err != nil {
				t.Fatalf("Default: %v", err)
			}
			mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestBadEnvRejected(t *testing.T) {
	t.Setenv("MAILCHAIN_STORAGE_BACKEND", "tape")
	if _, err := Default(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	cfg.Payload.Encoding = payload.EncodingLZ4
	cfg.Transport.Server = "127.0.0.1:4443"

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Payload.Encoding != payload.EncodingLZ4 || got.Transport.Server != "127.0.0.1:4443" {
		t.Fatalf("saved config not reloaded: %+v", got)
	}
}
