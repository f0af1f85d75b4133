package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Setenv("BALANCE_CACHE_TTL", "not-a-duration")
	t.Setenv("AUDIT_SINK", "kafka")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.BalanceCacheTTL)
	assert.Equal(t, AuditSinkPostgres, cfg.AuditSink)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "300-M", cfg.RateLimit)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoadConfig_Overrides(t *testing.T) {
	viper.Reset()
	t.Setenv("PORT", "9090")
	t.Setenv("AUDIT_SINK", "SQLite")
	t.Setenv("BALANCE_CACHE_SIZE", "64")
	t.Setenv("DEFAULT_PAGE_SIZE", "50")
	t.Setenv("BOOTSTRAP_ADMIN_USER_ID", "root-user")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, AuditSinkSQLite, cfg.AuditSink)
	assert.Equal(t, 64, cfg.BalanceCacheSize)
	assert.Equal(t, 50, cfg.DefaultPageSize)
	assert.Equal(t, "root-user", cfg.BootstrapAdminUserID)
}
