package config

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryDefaults(t *testing.T) {
	t.Setenv("GATEWAY_MODE", "memory")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, GatewayMemory, cfg.GatewayMode)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 0, cfg.GatewayRetryCount)
	assert.Equal(t, 10, cfg.SignupRatePerMin)
	assert.Equal(t, 5, cfg.SignupBurst)
	assert.Equal(t, uuid.Nil, cfg.MemoryAdminID)
	assert.Equal(t, "admin@hostel.local", cfg.MemoryAdminEmail)
}

func TestLoad_MemoryAdmin(t *testing.T) {
	t.Setenv("GATEWAY_MODE", "memory")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	t.Setenv("MEMORY_ADMIN_ID", "4f0c8a3e-0000-4000-8000-000000000001")
	t.Setenv("MEMORY_ADMIN_EMAIL", "warden@hostel.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("4f0c8a3e-0000-4000-8000-000000000001"), cfg.MemoryAdminID)
	assert.Equal(t, "warden@hostel.test", cfg.MemoryAdminEmail)
	assert.Equal(t, "Hostel Admin", cfg.MemoryAdminName)
}

func TestLoad_SupabaseRequiresCredentials(t *testing.T) {
	t.Setenv("GATEWAY_MODE", "supabase")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Supabase(t *testing.T) {
	t.Setenv("GATEWAY_MODE", "Supabase")
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co/")
	t.Setenv("SUPABASE_KEY", "anon")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("GATEWAY_RETRY_COUNT", "2")
	t.Setenv("CORS_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://abc.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 2, cfg.GatewayRetryCount)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("GATEWAY_MODE", "memory")
	t.Setenv("SUPABASE_JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "SUPABASE_JWT_SECRET")
}

func TestLoad_RejectsBadValues(t *testing.T) {
	t.Setenv("GATEWAY_MODE", "memory")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")

	t.Run("unknown mode", func(t *testing.T) {
		t.Setenv("GATEWAY_MODE", "sqlite")
		_, err := Load()
		assert.ErrorContains(t, err, "GATEWAY_MODE")
	})
	t.Run("negative retry", func(t *testing.T) {
		t.Setenv("GATEWAY_RETRY_COUNT", "-1")
		_, err := Load()
		assert.ErrorContains(t, err, "GATEWAY_RETRY_COUNT")
	})
	t.Run("bad admin id", func(t *testing.T) {
		t.Setenv("MEMORY_ADMIN_ID", "warden")
		_, err := Load()
		assert.ErrorContains(t, err, "MEMORY_ADMIN_ID")
	})
	t.Run("bad timeout", func(t *testing.T) {
		t.Setenv("GATEWAY_TIMEOUT", "soon")
		_, err := Load()
		assert.ErrorContains(t, err, "GATEWAY_TIMEOUT")
	})
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger("debug", format, "hostel-server")
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
	l, err := NewLogger("nonsense", "json", "")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1)) // debug disabled, fell back to info
}
