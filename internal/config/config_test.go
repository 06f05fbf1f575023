package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, int64(500)<<20, cfg.MaxFileSize)
	assert.Equal(t, 500, cfg.MaxPDFPages)
	assert.Equal(t, 120*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Hour, cfg.TaskTTL)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "markitdown", cfg.MarkitdownBin)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_FILE_SIZE_MB", "10")
	t.Setenv("REQUEST_TIMEOUT", "30s")
	t.Setenv("CONVERT_WORKERS", "2")
	t.Setenv("ERROR_CHAT_ID", "-100123456")

	cfg := FromEnv()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, int64(10)<<20, cfg.MaxFileSize)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, int64(-100123456), cfg.ErrorChatID)
}

func TestFromEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("MAX_PDF_PAGES", "not-a-number")
	t.Setenv("TASK_TTL", "forever")

	cfg := FromEnv()

	assert.Equal(t, 500, cfg.MaxPDFPages)
	assert.Equal(t, 2*time.Hour, cfg.TaskTTL)
}
