package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Audit sink kinds.
const (
	AuditSinkPostgres = "postgres"
	AuditSinkSQLite   = "sqlite"
	AuditSinkNone     = "none"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool
	MigrationsPath string

	// Identity is issued by an external provider; only verification happens here.
	JWTSecret string
	JWTIssuer string
	// BootstrapAdminUserID receives ADMIN at startup.
	BootstrapAdminUserID string `mapstructure:"BOOTSTRAP_ADMIN_USER_ID"`

	CORSAllowedOrigins []string
	RateLimit          string `mapstructure:"RATE_LIMIT"` // ulule formatted rate, e.g. "300-M"

	AuditSink       string `mapstructure:"AUDIT_SINK"`
	AuditSQLitePath string `mapstructure:"AUDIT_SQLITE_PATH"`

	BalanceCacheSize int
	BalanceCacheTTL  time.Duration
	DefaultPageSize  int

	PosthogAPIKey   string `mapstructure:"POSTHOG_API_KEY"`
	PosthogEndpoint string `mapstructure:"POSTHOG_ENDPOINT"`
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_ISSUER", "")
	viper.SetDefault("BOOTSTRAP_ADMIN_USER_ID", "")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("AUDIT_SINK", AuditSinkPostgres)
	viper.SetDefault("AUDIT_SQLITE_PATH", "audit.db")
	viper.SetDefault("BALANCE_CACHE_SIZE", 512)
	viper.SetDefault("BALANCE_CACHE_TTL", "30s")
	viper.SetDefault("DEFAULT_PAGE_SIZE", 20)
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_ENDPOINT", "https://us.i.posthog.com")

	// Environment variables override both the defaults and the .env file.
	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080" // Default port
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")
	cfg.BootstrapAdminUserID = viper.GetString("BOOTSTRAP_ADMIN_USER_ID")

	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))

	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	cfg.AuditSink = strings.ToLower(viper.GetString("AUDIT_SINK"))
	switch cfg.AuditSink {
	case AuditSinkPostgres, AuditSinkSQLite, AuditSinkNone:
	default:
		log.Printf("Warning: Invalid value for AUDIT_SINK ('%s'). Defaulting to %s.\n", cfg.AuditSink, AuditSinkPostgres)
		cfg.AuditSink = AuditSinkPostgres
	}
	cfg.AuditSQLitePath = viper.GetString("AUDIT_SQLITE_PATH")

	cfg.BalanceCacheSize = viper.GetInt("BALANCE_CACHE_SIZE")
	if cfg.BalanceCacheSize <= 0 {
		log.Printf("Warning: Invalid value for BALANCE_CACHE_SIZE ('%s'). Defaulting to 512.\n", viper.GetString("BALANCE_CACHE_SIZE"))
		cfg.BalanceCacheSize = 512
	}

	ttlStr := viper.GetString("BALANCE_CACHE_TTL")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil || ttl <= 0 {
		ttl = 30 * time.Second
		log.Printf("Warning: Invalid value for BALANCE_CACHE_TTL ('%s'). Defaulting to %s.\n", ttlStr, ttl.String())
	}
	cfg.BalanceCacheTTL = ttl

	cfg.DefaultPageSize = viper.GetInt("DEFAULT_PAGE_SIZE")
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.PosthogEndpoint = viper.GetString("POSTHOG_ENDPOINT")

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
