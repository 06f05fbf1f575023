package config

import (
	"os"
	"strconv"
	"time"
)

// Config собирается один раз в main и передаётся сервисам.
// Внутри request-path окружение больше не читается.
type Config struct {
	Port string

	UploadDir   string
	MaxFileSize int64 // байты
	MaxPDFPages int

	RequestTimeout time.Duration
	TaskTTL        time.Duration
	SweepInterval  time.Duration
	SweepMaxAge    time.Duration // старше этого — сирота, удаляем
	Workers        int
	RateLimit      int // запросов в минуту с одного IP

	MarkitdownBin string

	// LLM (опционально)
	OpenAIKey string
	LLMModel  string

	// Postgres task store (опционально)
	DatabaseURL string

	// S3-архив результатов (опционально)
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string

	// Telegram-уведомления об ошибках (опционально)
	ErrorBotToken string
	ErrorChatID   int64
}

func FromEnv() Config {
	cfg := Config{
		Port:           getenv("PORT", "8080"),
		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		MaxFileSize:    int64(getenvInt("MAX_FILE_SIZE_MB", 500)) << 20,
		MaxPDFPages:    getenvInt("MAX_PDF_PAGES", 500),
		RequestTimeout: getenvDuration("REQUEST_TIMEOUT", 120*time.Second),
		TaskTTL:        getenvDuration("TASK_TTL", 2*time.Hour),
		SweepInterval:  getenvDuration("SWEEP_INTERVAL", 10*time.Minute),
		SweepMaxAge:    getenvDuration("SWEEP_MAX_AGE", 30*time.Minute),
		Workers:        getenvInt("CONVERT_WORKERS", 8),
		RateLimit:      getenvInt("RATE_LIMIT", 60),
		MarkitdownBin:  getenv("MARKITDOWN_BIN", "markitdown"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		LLMModel:       getenv("LLM_MODEL", "gpt-4o"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Region:       os.Getenv("S3_REGION"),
		ErrorBotToken:  os.Getenv("ERROR_BOT_TOKEN"),
	}

	if v := os.Getenv("ERROR_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.ErrorChatID = id
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
