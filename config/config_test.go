package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("OTP_TTL", "")
	t.Setenv("ELASTICSEARCH_ADDRS", "")

	cfg := Load()
	assert.Equal(t, "postgres", cfg.StorageDriver)
	assert.False(t, cfg.UseMemoryStorage())
	assert.Equal(t, "local", cfg.ProofStore)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 3, cfg.RedeemMaxRetries)
	assert.Empty(t, cfg.ESAddrs())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("PROOF_STORE", "minio")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("REDEEM_MAX_RETRIES", "7")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("ELASTICSEARCH_ADDRS", " http://es1:9200, ,http://es2:9200 ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg := Load()
	assert.True(t, cfg.UseMemoryStorage())
	assert.Equal(t, "minio", cfg.ProofStore)
	assert.Equal(t, 90*time.Second, cfg.OTPTTL)
	assert.Equal(t, 7, cfg.RedeemMaxRetries)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.ESAddrs())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("OTP_TTL", "soon")
	t.Setenv("REDEEM_MAX_RETRIES", "many")
	t.Setenv("COOKIE_SECURE", "maybe")

	cfg := Load()
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 3, cfg.RedeemMaxRetries)
	assert.False(t, cfg.CookieSecure)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.PostgresDSN())
}
