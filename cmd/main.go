package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/doc_parser/internal/ai"
	"github.com/Vovarama1992/doc_parser/internal/config"
	"github.com/Vovarama1992/doc_parser/internal/convert"
	"github.com/Vovarama1992/doc_parser/internal/delivery"
	"github.com/Vovarama1992/doc_parser/internal/domain"
	"github.com/Vovarama1992/doc_parser/internal/error_notificator"
	"github.com/Vovarama1992/doc_parser/internal/infra"
	"github.com/Vovarama1992/doc_parser/internal/ports"
	"github.com/Vovarama1992/doc_parser/internal/tasks"
	"github.com/Vovarama1992/doc_parser/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {

	// =========================================================================
	// ENV / CONFIG INIT
	// =========================================================================

	_ = godotenv.Load()

	cfg := config.FromEnv()

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	// =========================================================================
	// INFRASTRUCTURE
	// =========================================================================

	uploadService, err := upload.NewService(cfg.UploadDir, cfg.MaxFileSize)
	if err != nil {
		log.Fatalf("failed to init upload dir: %v", err)
	}

	markitdown, err := convert.NewMarkitdownConverter(cfg.MarkitdownBin)
	if err != nil {
		log.Fatalf("failed to init converter: %v", err)
	}

	pageCounter := convert.NewPdfcpuPageCounter()

	// LLM-описание изображений: без ключа запросы с use_llm=true
	// получают missing_credential, сервер стартует в любом случае
	var describer ports.ImageDescriber
	if cfg.OpenAIKey != "" {
		describer = ai.NewOpenAIClient(cfg.OpenAIKey)
	}

	var archive ports.ArchiveService
	if cfg.S3Endpoint != "" {
		s3Client, err := infra.NewS3Client(cfg)
		if err != nil {
			log.Fatalf("failed to init s3: %v", err)
		}
		archive = domain.NewArchiveService(s3Client)
	}

	errInfra, err := error_notificator.NewInfra(cfg.ErrorBotToken, cfg.ErrorChatID)
	if err != nil {
		log.Fatalf("failed to init error notificator: %v", err)
	}
	errService := error_notificator.NewService(errInfra)

	// =========================================================================
	// TASK STORE
	// =========================================================================

	var taskRepo ports.TaskRepo
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("db ping failed: %v", err)
		}
		cancel()
		defer db.Close()

		taskRepo, err = tasks.NewPostgresRepo(db)
		if err != nil {
			log.Fatalf("failed to init task table: %v", err)
		}
	} else {
		taskRepo = tasks.NewMemoryRepo()
	}

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	convertService := convert.NewService(
		markitdown,
		pageCounter,
		describer,
		archive,
		errService,
		cfg.MaxPDFPages,
		cfg.LLMModel,
	)

	taskService := tasks.NewService(
		taskRepo,
		uploadService,
		convertService,
		cfg.Workers,
		cfg.RequestTimeout,
		cfg.TaskTTL,
	)
	taskService.Start(context.Background())

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Content-Encoding"},
	}))
	r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
	r.Use(delivery.RequestLogger(zl))

	convertHandler := delivery.NewConvertHandler(uploadService, taskService, cfg.MaxFileSize, zl)

	delivery.RegisterRoutes(r, convertHandler)

	r.With(httputil.RecoverMiddleware).Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("pong"))
	})

	// =========================================================================
	// BACKGROUND JOBS
	// =========================================================================

	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()

		for range ticker.C {
			// порог заметно больше дедлайна запроса: файл может ждать
			// своей очереди у воркеров, живые артефакты трогать нельзя
			if _, err := uploadService.Sweep(cfg.SweepMaxAge); err != nil {
				log.Printf("[sweep] error: %v", err)
			}

			if n, err := taskService.PurgeExpired(context.Background()); err != nil {
				log.Printf("[task-purge] error: %v", err)
			} else if n > 0 {
				log.Printf("[task-purge] removed %d expired tasks", n)
			}
		}
	}()

	// =========================================================================
	// START SERVER
	// =========================================================================

	addr := ":" + cfg.Port
	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + addr,
		Service: "doc_parser",
	})

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
