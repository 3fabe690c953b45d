// Package config handles loading and validation of service configuration.
// Supports both development (env vars or a config file) and production
// (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Supported state backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

const (
	defaultNamespace     = "shopsync"
	defaultRenewSchedule = "@every 1h"
	defaultRenewWithin   = 72 * time.Hour
)

// Config holds all service configuration.
// Environment determines whether storefront credentials load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	StoreID    string

	// Storefront credentials (loaded from secrets in production)
	Storefront StorefrontConfig

	State StateConfig

	AutoCreateCheckout bool
	RenewSchedule      string
	RenewWithin        time.Duration

	// LocalAPIKey protects the local HTTP surface. Empty disables the check.
	LocalAPIKey string
}

// StorefrontConfig contains the storefront connection settings.
// In production, this is loaded from Secret Manager as JSON.
type StorefrontConfig struct {
	StoreDomain string `json:"store_domain" toml:"store_domain" yaml:"store_domain"`
	AccessToken string `json:"access_token" toml:"access_token" yaml:"access_token"`
	APIVersion  string `json:"api_version,omitempty" toml:"api_version" yaml:"api_version"`
	ChromeTLS   bool   `json:"chrome_tls,omitempty" toml:"chrome_tls" yaml:"chrome_tls"`
}

// StateConfig selects where the persisted state lives.
type StateConfig struct {
	Backend   string `json:"backend" toml:"backend" yaml:"backend"`
	Path      string `json:"path" toml:"path" yaml:"path"`
	Namespace string `json:"namespace" toml:"namespace" yaml:"namespace"`
}

// StateKey is the key the persisted state is stored under.
func (s StateConfig) StateKey() string {
	return s.Namespace + ":state"
}

// FlagKey is the key of the process-lifetime session flag.
func (s StateConfig) FlagKey() string {
	return s.Namespace + ":sessionIsNew"
}

// Load reads configuration from the file named by CONFIG_FILE, or from the
// environment and Secret Manager when it is unset.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, os.Getenv("CONFIG_FILE"))
}

// LoadFrom reads configuration from path, or from the environment when path is empty.
// Validates all required fields and returns an error if any are missing.
func LoadFrom(ctx context.Context, path string) (*Config, error) {
	if path != "" {
		return loadFromFile(path)
	}

	cfg := &Config{
		Port:          envOrDefault("PORT", "8080"),
		Environment:   envOrDefault("ENVIRONMENT", "development"),
		LogLevel:      envOrDefault("LOG_LEVEL", "info"),
		GCPProject:    os.Getenv("GCP_PROJECT"),
		StoreID:       os.Getenv("STORE_ID"),
		RenewSchedule: envOrDefault("RENEW_SCHEDULE", defaultRenewSchedule),
		LocalAPIKey:   os.Getenv("LOCAL_API_KEY"),
		State: StateConfig{
			Backend:   envOrDefault("STATE_BACKEND", BackendFile),
			Path:      os.Getenv("STATE_PATH"),
			Namespace: envOrDefault("STATE_NAMESPACE", defaultNamespace),
		},
	}

	var err error
	if cfg.AutoCreateCheckout, err = envBool("AUTO_CREATE_CHECKOUT", true); err != nil {
		return nil, err
	}
	if cfg.RenewWithin, err = envDuration("RENEW_WITHIN", defaultRenewWithin); err != nil {
		return nil, err
	}

	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.StoreID == "" {
			return nil, fmt.Errorf("STORE_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading storefront config: %w", err)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig mirrors the config file layout. All formats share field names.
type fileConfig struct {
	Port               string           `json:"port" toml:"port" yaml:"port"`
	Environment        string           `json:"environment" toml:"environment" yaml:"environment"`
	LogLevel           string           `json:"log_level" toml:"log_level" yaml:"log_level"`
	StoreID            string           `json:"store_id" toml:"store_id" yaml:"store_id"`
	Storefront         StorefrontConfig `json:"storefront" toml:"storefront" yaml:"storefront"`
	State              StateConfig      `json:"state" toml:"state" yaml:"state"`
	AutoCreateCheckout *bool            `json:"auto_create_checkout" toml:"auto_create_checkout" yaml:"auto_create_checkout"`
	RenewSchedule      string           `json:"renew_schedule" toml:"renew_schedule" yaml:"renew_schedule"`
	RenewWithin        string           `json:"renew_within" toml:"renew_within" yaml:"renew_within"`
	LocalAPIKey        string           `json:"local_api_key" toml:"local_api_key" yaml:"local_api_key"`
}

// loadFromFile reads all configuration from a JSON, TOML or YAML file.
// The format is chosen by extension; anything unrecognized is read as JSON.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:               withDefault(fc.Port, "8080"),
		Environment:        withDefault(fc.Environment, "development"),
		LogLevel:           withDefault(fc.LogLevel, "info"),
		StoreID:            fc.StoreID,
		Storefront:         fc.Storefront,
		State:              fc.State,
		AutoCreateCheckout: true,
		RenewSchedule:      withDefault(fc.RenewSchedule, defaultRenewSchedule),
		RenewWithin:        defaultRenewWithin,
		LocalAPIKey:        fc.LocalAPIKey,
	}
	if fc.AutoCreateCheckout != nil {
		cfg.AutoCreateCheckout = *fc.AutoCreateCheckout
	}
	if fc.RenewWithin != "" {
		if cfg.RenewWithin, err = time.ParseDuration(fc.RenewWithin); err != nil {
			return nil, fmt.Errorf("invalid renew_within: %w", err)
		}
	}
	cfg.State.Backend = withDefault(cfg.State.Backend, BackendFile)
	cfg.State.Namespace = withDefault(cfg.State.Namespace, defaultNamespace)

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches storefront credentials from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{store_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StoreID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Storefront); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads storefront settings from individual environment variables.
func (c *Config) loadFromEnv() error {
	c.Storefront = StorefrontConfig{
		StoreDomain: os.Getenv("STORE_DOMAIN"),
		AccessToken: os.Getenv("STOREFRONT_ACCESS_TOKEN"),
		APIVersion:  os.Getenv("STOREFRONT_API_VERSION"),
	}

	var err error
	c.Storefront.ChromeTLS, err = envBool("CHROME_TLS", false)
	return err
}

// finish fills derived values and validates.
func (c *Config) finish() error {
	c.Storefront.StoreDomain = normalizeDomain(c.Storefront.StoreDomain)
	if c.State.Path == "" {
		switch c.State.Backend {
		case BackendFile:
			c.State.Path = "data"
		case BackendSQLite:
			c.State.Path = "shopsync.db"
		}
	}
	return c.validate()
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Storefront.StoreDomain == "" {
		return fmt.Errorf("store_domain is required")
	}
	if c.Storefront.AccessToken == "" {
		return fmt.Errorf("storefront access_token is required")
	}

	switch c.State.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown state backend %q (file, sqlite or memory)", c.State.Backend)
	}
	if strings.ContainsAny(c.State.Namespace, " \t\n") {
		return fmt.Errorf("state namespace %q must not contain whitespace", c.State.Namespace)
	}
	if c.RenewWithin <= 0 {
		return fmt.Errorf("renew_within must be positive")
	}

	return nil
}

// normalizeDomain strips a scheme and path so either "shop.example.com" or
// "https://shop.example.com/" may be configured.
func normalizeDomain(domain string) string {
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.Split(domain, "/")[0]
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
