// Package config loads wallet core settings from a yaml file, merges them
// over built-in defaults, and applies environment overrides last.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"flow-wallet/go-core/internal/securevault"
)

// Config is the effective runtime configuration.
type Config struct {
	Vault   VaultConfig
	Storage StorageConfig
	Indexer IndexerConfig
	Logging LoggingConfig
}

type VaultConfig struct {
	Algorithm  string
	Iterations int
	SaltLength int
}

// VaultOptions maps the vault section onto encryption options for key
// persistence.
func (v VaultConfig) VaultOptions() *securevault.Options {
	return &securevault.Options{
		Algorithm:  securevault.Algorithm(v.Algorithm),
		Iterations: v.Iterations,
		SaltLength: v.SaltLength,
	}
}

type StorageConfig struct {
	// Dir is where encrypted key records live. Empty selects the in-memory
	// backend.
	Dir string
}

type IndexerConfig struct {
	// Endpoints overrides the indexer base URL per network name.
	Endpoints         map[string]string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

type LoggingConfig struct {
	Level string
}

func DefaultConfig() Config {
	return Config{
		Vault: VaultConfig{
			Algorithm:  "AES-GCM",
			Iterations: 100_000,
			SaltLength: 32,
		},
		Indexer: IndexerConfig{
			RequestsPerSecond: 5,
			Burst:             10,
			Timeout:           15 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// FileConfig mirrors the yaml schema. Pointer fields distinguish "absent"
// from an explicit zero.
type FileConfig struct {
	Vault struct {
		Algorithm  string `yaml:"algorithm"`
		Iterations int    `yaml:"iterations"`
		SaltLength int    `yaml:"saltLength"`
	} `yaml:"vault"`
	Storage struct {
		Dir string `yaml:"dir"`
	} `yaml:"storage"`
	Indexer struct {
		Endpoints         map[string]string `yaml:"endpoints"`
		RequestsPerSecond *float64          `yaml:"requestsPerSecond"`
		Burst             int               `yaml:"burst"`
		Timeout           string            `yaml:"timeout"`
	} `yaml:"indexer"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadFromPath reads the config file at configPath, or the conventional
// locations when it is empty. A missing or unreadable file falls back to
// defaults; environment overrides apply either way.
func LoadFromPath(configPath string) Config {
	cfg := DefaultConfig()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"configs/walletcore.yaml",
			"walletcore.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var parsed FileConfig
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			continue
		}

		merged := cfg
		Merge(&merged, parsed)
		ApplyEnvOverrides(&merged)
		return merged
	}

	ApplyEnvOverrides(&cfg)
	return cfg
}

func Merge(dst *Config, src FileConfig) {
	if src.Vault.Algorithm != "" {
		dst.Vault.Algorithm = src.Vault.Algorithm
	}
	if src.Vault.Iterations != 0 {
		dst.Vault.Iterations = src.Vault.Iterations
	}
	if src.Vault.SaltLength != 0 {
		dst.Vault.SaltLength = src.Vault.SaltLength
	}
	if src.Storage.Dir != "" {
		dst.Storage.Dir = src.Storage.Dir
	}
	if src.Indexer.Endpoints != nil {
		dst.Indexer.Endpoints = src.Indexer.Endpoints
	}
	if src.Indexer.RequestsPerSecond != nil {
		dst.Indexer.RequestsPerSecond = *src.Indexer.RequestsPerSecond
	}
	if src.Indexer.Burst != 0 {
		dst.Indexer.Burst = src.Indexer.Burst
	}
	if src.Indexer.Timeout != "" {
		if d, err := time.ParseDuration(src.Indexer.Timeout); err == nil && d > 0 {
			dst.Indexer.Timeout = d
		}
	}
	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
}

func ApplyEnvOverrides(cfg *Config) {
	if dir := strings.TrimSpace(os.Getenv("WALLETCORE_STORAGE_DIR")); dir != "" {
		cfg.Storage.Dir = dir
	}
	if level := strings.TrimSpace(os.Getenv("WALLETCORE_LOG_LEVEL")); level != "" {
		cfg.Logging.Level = level
	}
	if raw := strings.TrimSpace(os.Getenv("WALLETCORE_VAULT_ITERATIONS")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			cfg.Vault.Iterations = v
		}
	}
}
