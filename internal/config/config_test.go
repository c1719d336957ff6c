package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "JWT_SECRET",
		"IMAGE_DIR", "IMAGE_BASE_URL", "RECEIPT_API_URL", "RECEIPT_API_KEY",
		"RECEIPT_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "JWT_SECRET=s3cret\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "./data/splitbill.db", cfg.DBPath)
	assert.Equal(t, "http://localhost:8080/receipts", cfg.ImageBaseURL)
	assert.Equal(t, 30*time.Second, cfg.ReceiptTimeout)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "JWT_SECRET=from-file\nPORT=9000\n")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, 9000, cfg.Port)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  string
	}{
		{"missing secret", "PORT=8080\n"},
		{"bad port", "JWT_SECRET=x\nPORT=abc\n"},
		{"bad timeout", "JWT_SECRET=x\nRECEIPT_TIMEOUT=soon\n"},
		{"unknown driver", "JWT_SECRET=x\nDB_DRIVER=mysql\n"},
		{"postgres without url", "JWT_SECRET=x\nDB_DRIVER=postgres\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			_, err := Load(writeEnvFile(t, tt.env))
			assert.Error(t, err)
		})
	}

	t.Run("missing env file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "nope.env"))
		assert.Error(t, err)
	})
}
