package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything the server needs. Values come from an
// optional yaml file, then environment overrides; the store domain and
// admin token are required either way.
type Config struct {
	Listen                 string        `yaml:"listen"`
	StoreDomain            string        `yaml:"store_domain"`
	AdminAPIToken          string        `yaml:"admin_api_token"`
	APIVersion             string        `yaml:"api_version"`
	RedisAddr              string        `yaml:"redis_addr"`
	KafkaBroker            string        `yaml:"kafka_broker"`
	DedupTTL               time.Duration `yaml:"dedup_ttl"`
	PropagationConcurrency int           `yaml:"propagation_concurrency"`
	CallTimeout            time.Duration `yaml:"call_timeout"`
	VariantPageLimit       int           `yaml:"variant_page_limit"`
}

// Load reads the yaml file at path (skipped when path is empty),
// applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Listen:                 ":8080",
		DedupTTL:               30 * time.Second,
		PropagationConcurrency: 2,
		CallTimeout:            10 * time.Second,
		VariantPageLimit:       50,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot parse %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.StoreDomain == "" {
		return nil, fmt.Errorf("'store_domain' (SHOPIFY_STORE) is required")
	}
	if cfg.AdminAPIToken == "" {
		return nil, fmt.Errorf("'admin_api_token' (ADMIN_API_TOKEN) is required")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("SHOPIFY_STORE"); v != "" {
		cfg.StoreDomain = v
	}
	if v := os.Getenv("ADMIN_API_TOKEN"); v != "" {
		cfg.AdminAPIToken = v
	}
	if v := os.Getenv("SHOPIFY_API_VERSION"); v != "" {
		cfg.APIVersion = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("KAFKA_BROKER"); v != "" {
		cfg.KafkaBroker = v
	}
	if v := os.Getenv("DEDUP_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.DedupTTL = d
		}
	}
	if v := os.Getenv("PROPAGATION_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.PropagationConcurrency = n
		}
	}
	if v := os.Getenv("CALL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CallTimeout = d
		}
	}
}
