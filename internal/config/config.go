// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./munch.yaml)
//  3. Default values
//
// Sensitive values (API keys, database password) are never logged; Config
// masks them in its JSON form.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidEmbedderDimension indicates the embedding dimension does not
	// match the database schema.
	ErrInvalidEmbedderDimension = errors.New("incompatible embedder dimension")

	// ErrInvalidTopK indicates the retrieval depth is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top_k")

	// ErrInvalidSpamWindow indicates the spam window is out of range.
	ErrInvalidSpamWindow = errors.New("invalid spam window")

	// ErrInvalidSpamLimit indicates the spam limit is out of range.
	ErrInvalidSpamLimit = errors.New("invalid spam limit")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// Spam window defaults: a session/user pair may write at most SpamLimit
// messages inside any trailing SpamWindow.
const (
	DefaultSpamWindow = 2 * time.Minute
	DefaultSpamLimit  = 45
)

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// Gemini configuration
	GeminiAPIKey   string `mapstructure:"gemini_api_key" json:"gemini_api_key"` // SENSITIVE: masked in MarshalJSON
	ModelName      string `mapstructure:"model_name" json:"model_name"`
	EmbedderModel  string `mapstructure:"embedder_model" json:"embedder_model"`
	EmbedDimension int32  `mapstructure:"embed_dimension" json:"embed_dimension"`

	// Retrieval configuration
	RetrievalTopK int `mapstructure:"retrieval_top_k" json:"retrieval_top_k"`

	// Spam guard configuration
	SpamWindow time.Duration `mapstructure:"spam_window" json:"spam_window"`
	SpamLimit  int           `mapstructure:"spam_limit" json:"spam_limit"`

	// Storage configuration (see storage.go for DSN builders)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// HTTP server configuration
	ServerAddr string `mapstructure:"server_addr" json:"server_addr"`
	TrustProxy bool   `mapstructure:"trust_proxy" json:"trust_proxy"` // Trust X-Real-IP/X-Forwarded-For (set behind reverse proxy)
	RateBurst  int    `mapstructure:"rate_burst" json:"rate_burst"`   // Per-IP burst for the transport rate limit

	// Ingestion configuration
	PlacesAPIKey string `mapstructure:"places_api_key" json:"places_api_key"` // SENSITIVE: masked in MarshalJSON

	// Logging configuration
	LogLevel string `mapstructure:"log_level" json:"log_level"` // debug, info, warn, error
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("munch")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/munch")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults plus env cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"config_name", "munch.yaml")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides the individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// Gemini defaults
	v.SetDefault("model_name", "gemini-2.5-flash")
	// gemini-embedding-001 outputs 3072 dimensions by default but supports
	// truncation via OutputDimensionality. The pgvector schema uses 768;
	// see places.VectorDimension.
	v.SetDefault("embedder_model", "gemini-embedding-001")
	v.SetDefault("embed_dimension", 768)

	// Retrieval defaults
	v.SetDefault("retrieval_top_k", 5)

	// Spam guard defaults
	v.SetDefault("spam_window", DefaultSpamWindow)
	v.SetDefault("spam_limit", DefaultSpamLimit)

	// PostgreSQL defaults (matching docker-compose.yml)
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "munch")
	v.SetDefault("postgres_password", "munch_dev_password")
	v.SetDefault("postgres_db_name", "munch")
	v.SetDefault("postgres_ssl_mode", "disable")

	// Server defaults
	v.SetDefault("server_addr", "127.0.0.1:8000")
	v.SetDefault("trust_proxy", false)
	v.SetDefault("rate_burst", 60)

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// bindEnvVariables binds environment variables explicitly. Secrets come
// through well-known names (GEMINI_API_KEY, PLACES_API_KEY, DATABASE_URL);
// everything else uses the MUNCH_ prefix.
func bindEnvVariables(v *viper.Viper) {
	// Hardcoded keys cannot fail to bind; a panic here is a bug, not a
	// runtime condition.
	mustBind := func(key string, envVars ...string) {
		if err := v.BindEnv(append([]string{key}, envVars...)...); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q: %v", key, err))
		}
	}

	mustBind("gemini_api_key", "GEMINI_API_KEY")
	mustBind("places_api_key", "PLACES_API_KEY")

	mustBind("model_name", "MUNCH_MODEL_NAME")
	mustBind("embedder_model", "MUNCH_EMBEDDER_MODEL")
	mustBind("embed_dimension", "MUNCH_EMBED_DIMENSION")
	mustBind("retrieval_top_k", "MUNCH_RETRIEVAL_TOP_K")

	mustBind("spam_window", "MUNCH_SPAM_WINDOW")
	mustBind("spam_limit", "MUNCH_SPAM_LIMIT")

	mustBind("postgres_host", "MUNCH_POSTGRES_HOST")
	mustBind("postgres_port", "MUNCH_POSTGRES_PORT")
	mustBind("postgres_user", "MUNCH_POSTGRES_USER")
	mustBind("postgres_password", "MUNCH_POSTGRES_PASSWORD")
	mustBind("postgres_db_name", "MUNCH_POSTGRES_DB_NAME")
	mustBind("postgres_ssl_mode", "MUNCH_POSTGRES_SSL_MODE")

	mustBind("server_addr", "MUNCH_SERVER_ADDR")
	mustBind("trust_proxy", "MUNCH_TRUST_PROXY")
	mustBind("rate_burst", "MUNCH_RATE_BURST")

	mustBind("log_level", "MUNCH_LOG_LEVEL")
	mustBind("log_json", "MUNCH_LOG_JSON")
}
