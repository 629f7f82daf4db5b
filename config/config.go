package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/scanlens/backend/internal/infrastructure/providers"
	"github.com/scanlens/backend/internal/secrets"
)

// Cache types
const (
	CacheMemory = "memory"
	CacheNone   = "none"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Providers   ProvidersConfig   `mapstructure:"providers"`
	Resolver    ResolverConfig    `mapstructure:"resolver"`
	Scanner     ScannerConfig     `mapstructure:"scanner"`
	Cache       CacheConfig       `mapstructure:"cache"`
	RateLimit   RateLimitConfig   `mapstructure:"ratelimit"`
	RulesEngine RulesEngineConfig `mapstructure:"rules_engine"`
	SecretsDir  string            `mapstructure:"secrets_dir"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
}

// ProvidersConfig holds the provider priority and per-provider settings
type ProvidersConfig struct {
	Order         []string       `mapstructure:"order"`
	Debug         bool           `mapstructure:"debug"`
	OpenFoodFacts ProviderConfig `mapstructure:"openfoodfacts"`
	UPCItemDB     ProviderConfig `mapstructure:"upcitemdb"`
	BarcodeLookup ProviderConfig `mapstructure:"barcodelookup"`
}

// ProviderConfig holds one provider's endpoint and credentials
type ProviderConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

// ResolverConfig holds provider resolution settings
type ResolverConfig struct {
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
}

// ScannerConfig toggles the decode tiers
type ScannerConfig struct {
	EnablePreprocessing    bool `mapstructure:"enable_preprocessing"`
	EnableSecondaryDecoder bool `mapstructure:"enable_secondary_decoder"`
	ParallelPreprocessing  bool `mapstructure:"parallel_preprocessing"`
	MaxWorkers             int  `mapstructure:"max_workers"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type string        `mapstructure:"type"` // "memory" or "none"
	TTL  time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP    int     `mapstructure:"per_ip"`   // requests per minute per client
	Provider float64 `mapstructure:"provider"` // requests per second per provider
}

// RulesEngineConfig points at the external compliance rules engine.
// An empty URL disables evaluation.
type RulesEngineConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ProviderSettings converts the provider section into registry settings
func (c *Config) ProviderSettings() map[string]providers.Setting {
	client := providers.ClientConfig{
		Timeout:       c.Resolver.ProviderTimeout,
		RatePerSecond: c.RateLimit.Provider,
	}
	setting := func(p ProviderConfig) providers.Setting {
		return providers.Setting{
			Enabled: p.Enabled,
			Options: providers.Options{
				BaseURL: p.BaseURL,
				APIKey:  p.APIKey,
				Client:  client,
				Debug:   c.Providers.Debug,
			},
		}
	}
	return map[string]providers.Setting{
		providers.OpenFoodFactsID: setting(c.Providers.OpenFoodFacts),
		providers.UPCItemDBID:     setting(c.Providers.UPCItemDB),
		providers.BarcodeLookupID: setting(c.Providers.BarcodeLookup),
	}
}

// Load loads configuration from config.yaml, the environment and the
// secrets directory
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file; an empty path searches
// the default locations
func LoadFile(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/scanlens/")
	}

	// SCANLENS_PROVIDERS_UPCITEMDB_API_KEY sets providers.upcitemdb.api_key
	v.SetEnvPrefix("SCANLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := applySecrets(&config); err != nil {
		return nil, err
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// bindLegacyEnv accepts the unprefixed key variables older deployments set
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("providers.barcodelookup.api_key", "SCANLENS_PROVIDERS_BARCODELOOKUP_API_KEY", "BARCODE_LOOKUP_API_KEY")
	_ = v.BindEnv("providers.upcitemdb.api_key", "SCANLENS_PROVIDERS_UPCITEMDB_API_KEY", "UPCITEMDB_API_KEY")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_upload_bytes", 10<<20)

	// Provider defaults
	v.SetDefault("providers.order", providers.DefaultOrder)
	v.SetDefault("providers.debug", false)
	v.SetDefault("providers.openfoodfacts.enabled", true)
	v.SetDefault("providers.openfoodfacts.base_url", providers.OpenFoodFactsBaseURL)
	v.SetDefault("providers.openfoodfacts.api_key", "")
	v.SetDefault("providers.upcitemdb.enabled", true)
	v.SetDefault("providers.upcitemdb.base_url", providers.UPCItemDBBaseURL)
	v.SetDefault("providers.upcitemdb.api_key", "")
	v.SetDefault("providers.barcodelookup.enabled", true)
	v.SetDefault("providers.barcodelookup.base_url", providers.BarcodeLookupBaseURL)
	v.SetDefault("providers.barcodelookup.api_key", "")

	v.SetDefault("resolver.provider_timeout", "10s")

	// Scanner defaults
	v.SetDefault("scanner.enable_preprocessing", true)
	v.SetDefault("scanner.enable_secondary_decoder", true)
	v.SetDefault("scanner.parallel_preprocessing", true)
	v.SetDefault("scanner.max_workers", 0)

	// Cache defaults
	v.SetDefault("cache.type", CacheMemory)
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.provider", 1.0)

	v.SetDefault("rules_engine.url", "")
	v.SetDefault("rules_engine.timeout", "10s")

	v.SetDefault("secrets_dir", ".secrets")
}

// applySecrets fills API keys left empty by the config file and environment
func applySecrets(config *Config) error {
	found, err := secrets.Load(config.SecretsDir)
	if err != nil {
		return fmt.Errorf("loading secrets: %w", err)
	}
	if config.Providers.BarcodeLookup.APIKey == "" {
		config.Providers.BarcodeLookup.APIKey = found[secrets.BarcodeLookupAPIKey]
	}
	if config.Providers.UPCItemDB.APIKey == "" {
		config.Providers.UPCItemDB.APIKey = found[secrets.UPCItemDBAPIKey]
	}
	if len(found) > 0 {
		log.Printf("[Config] Loaded %d secret(s) from %s", len(found), config.SecretsDir)
	}
	return nil
}

// loadEnvFile loads a .env file from the working directory when present.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if config.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server max_upload_bytes must be positive, got: %d", config.Server.MaxUploadBytes)
	}

	if config.Cache.Type != CacheMemory && config.Cache.Type != CacheNone {
		return fmt.Errorf("cache type must be 'memory' or 'none', got: %s", config.Cache.Type)
	}

	if config.Resolver.ProviderTimeout <= 0 {
		return fmt.Errorf("resolver provider_timeout must be positive, got: %s", config.Resolver.ProviderTimeout)
	}

	if len(config.Providers.Order) == 0 {
		return fmt.Errorf("providers order must list at least one provider")
	}
	for _, id := range config.Providers.Order {
		if !isKnownProvider(id) {
			return fmt.Errorf("unknown provider in order: %s", id)
		}
	}

	return nil
}

func isKnownProvider(id string) bool {
	for _, known := range providers.DefaultOrder {
		if id == known {
			return true
		}
	}
	return false
}
