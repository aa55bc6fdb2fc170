// Package config provides application configuration with multi-source
// priority.
//
// Sources (highest to lowest):
//  1. Environment variables (SALUS_* prefix; GEMINI_API_KEY also honored)
//  2. Config file (config.yaml in the working directory or ~/.salus/)
//  3. Defaults
//
// A .env file in the working directory is loaded before viper reads the
// environment, matching the deployment convention of the ingestion scripts.
//
// Validation uses sentinel errors so callers can branch with errors.Is.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/salusdesk/salus/internal/store"
)

var (
	// ErrMissingAPIKey indicates the Gemini API key is not set.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidDefaultStore indicates the configured default store id is
	// not part of the core catalog.
	ErrInvalidDefaultStore = errors.New("invalid default store")

	// ErrInvalidMaxLinks indicates max_links is outside the allowed range.
	ErrInvalidMaxLinks = errors.New("invalid max links")

	// ErrInvalidTimeout indicates a timeout value is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout")
)

const (
	// DefaultModel is the Gemini model used for both classification and
	// retrieval-augmented generation.
	DefaultModel = "gemini-2.5-flash"

	// DefaultStorePrefix namespaces provider stores: a catalog id "hours"
	// maps to the provider display name "salus-hours".
	DefaultStorePrefix = "salus"

	// DefaultMaxLinks caps the user-facing links list per response.
	DefaultMaxLinks = 5

	// MinMaxLinks is the minimum useful links cap.
	MinMaxLinks = 3
)

// CoreStores is the fixed core catalog, immutable after process start.
// Extra stores registered at runtime are persisted in the registry and
// merged after these.
var CoreStores = []store.Descriptor{
	{
		ID:          "general_info",
		Description: "Informazioni generali sull'azienda sanitaria: chi siamo, come accedere ai servizi, numeri utili, modulistica, cosa fare per...",
	},
	{
		ID:          "hours",
		Description: "Informazioni relative agli orari: ambulatori, punti prelievo, reparti, guardie mediche, farmacie, orari di visita.",
	},
	{
		ID:          "locations",
		Description: "Informazioni relative alle sedi: indirizzi, come raggiungere ospedali, distretti, sedi vaccinali, mappe.",
	},
	{
		ID:          "services",
		Description: "Informazioni relative ai servizi offerti presso le sedi: esami di laboratorio, visite specialistiche, screening, assistenza domiciliare, ambulatori.",
	},
}

// Config stores application configuration.
type Config struct {
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	StorePrefix  string `mapstructure:"store_prefix"`
	DefaultStore string `mapstructure:"default_store"`
	MaxLinks     int    `mapstructure:"max_links"`
	AllowEnglish bool   `mapstructure:"allow_english"`

	// RegistryPath is the sqlite file holding extra store descriptors.
	RegistryPath string `mapstructure:"registry_path"`

	// HTTP server settings
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	RatePerSec  float64  `mapstructure:"rate_per_second"`
	RateBurst   int      `mapstructure:"rate_burst"`
	TrustProxy  bool     `mapstructure:"trust_proxy"`

	// Outbound call timeouts
	ClassifyTimeout time.Duration `mapstructure:"classify_timeout"`
	GenerateTimeout time.Duration `mapstructure:"generate_timeout"`
}

// Load reads configuration from .env, config file, and environment.
// The returned Config is not yet validated; call Validate before serving.
func Load() (*Config, error) {
	// Best-effort .env load; absence is not an error.
	_ = godotenv.Load()

	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".salus"))
	}

	viper.SetEnvPrefix("SALUS")
	viper.AutomaticEnv()

	// AutomaticEnv only surfaces keys viper already tracks, and api_key
	// deliberately has no default. Bind it explicitly; GEMINI_API_KEY is
	// the provider's conventional variable name and serves as fallback.
	if err := viper.BindEnv("api_key", "SALUS_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding api key env: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file is fine; defaults + env apply.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("model", DefaultModel)
	viper.SetDefault("store_prefix", DefaultStorePrefix)
	viper.SetDefault("default_store", "general_info")
	viper.SetDefault("max_links", DefaultMaxLinks)
	viper.SetDefault("allow_english", false)
	viper.SetDefault("registry_path", "data/registry.db")
	viper.SetDefault("addr", "127.0.0.1:8080")
	viper.SetDefault("rate_per_second", 5.0)
	viper.SetDefault("rate_burst", 20)
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("classify_timeout", 10*time.Second)
	viper.SetDefault("generate_timeout", 60*time.Second)
}

// Validate checks the configuration for serving. The API key is required:
// without it no answer can ever be produced, so the process fails at startup
// rather than degrading into fabricated responses.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: set GEMINI_API_KEY or SALUS_API_KEY", ErrMissingAPIKey)
	}
	if !isCoreStore(c.DefaultStore) {
		return fmt.Errorf("%w: %q is not a core catalog id", ErrInvalidDefaultStore, c.DefaultStore)
	}
	if c.MaxLinks < MinMaxLinks {
		return fmt.Errorf("%w: %d (minimum %d)", ErrInvalidMaxLinks, c.MaxLinks, MinMaxLinks)
	}
	if c.ClassifyTimeout <= 0 || c.GenerateTimeout <= 0 {
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidTimeout)
	}
	return nil
}

func isCoreStore(id string) bool {
	for _, s := range CoreStores {
		if s.ID == id {
			return true
		}
	}
	return false
}
