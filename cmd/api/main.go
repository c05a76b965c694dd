package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/ai"
	"github.com/01moynul/brandstudio-golang/internal/auth"
	"github.com/01moynul/brandstudio-golang/internal/config"
	"github.com/01moynul/brandstudio-golang/internal/database"
	"github.com/01moynul/brandstudio-golang/internal/handlers"
	"github.com/01moynul/brandstudio-golang/internal/jobs"
	"github.com/01moynul/brandstudio-golang/internal/logging"
	"github.com/01moynul/brandstudio-golang/internal/routes"
	"github.com/01moynul/brandstudio-golang/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 0. --- Load Environment Variables (.env) ---
	if err := config.LoadDotEnv(); err != nil {
		log.Println("WARNING: Could not find or load .env file. Relying on system environment variables.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. --- Main Database Connection (Read/Write) ---
	db, err := database.OpenDB(ctx, cfg.DSNPrimary)
	if err != nil {
		logger.Fatal("Failed to connect to primary database", zap.Error(err))
	}

	if err := database.Migrate(ctx, db, logger); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}

	// 2. --- Assistant Database Connection (Read-Only) ---
	dbReadOnly, err := database.OpenDB(ctx, cfg.DSNReadOnly)
	if err != nil {
		logger.Fatal("Failed to connect to read-only database", zap.Error(err))
	}

	auth.Configure(cfg.JWTSecret)

	store, err := storage.New(cfg.StorageRoot, cfg.StorageSecret, cfg.BaseURL, cfg.SignedURLTTL)
	if err != nil {
		logger.Fatal("Failed to initialise storage", zap.Error(err))
	}

	// 3. --- AI Service Initialization ---
	gemini, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Gemini client", zap.Error(err))
	}

	catalogue, err := ai.DefaultCatalogue()
	if err != nil {
		logger.Fatal("Failed to load AI functions", zap.Error(err))
	}

	app := &handlers.Handlers{
		DB:         db,
		DBReadOnly: dbReadOnly,
		AIService:  ai.NewAIService(gemini, catalogue, logger),
		Storage:    store,
		Log:        logger,
	}

	// 4. --- Background Jobs (Cron) ---
	runner, err := jobs.New(db, logger, cfg.JobsSchedule, cfg.DraftRetentionDays)
	if err != nil {
		logger.Fatal("Failed to schedule jobs", zap.Error(err))
	}
	runner.Start()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           routes.SetupRouter(app, logger, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting BrandStudio API server", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdown(shutdownCtx, logger, []stopStep{
		{"HTTP server", srv.Shutdown},
		{"jobs", runner.Stop},
	}, []closeStep{
		{"primary database", db},
		{"read-only database", dbReadOnly},
		{"Gemini client", gemini},
	})
}

type stopStep struct {
	name string
	stop func(context.Context) error
}

type closeStep struct {
	name string
	c    io.Closer
}

// shutdown stops the request and job producers first, then releases the
// resources they use, in order. Failures are logged and do not stop the sequence.
func shutdown(ctx context.Context, logger *zap.Logger, stops []stopStep, closers []closeStep) {
	for _, s := range stops {
		if err := s.stop(ctx); err != nil {
			logger.Error("Shutdown failed", zap.String("component", s.name), zap.Error(err))
		}
	}
	for _, c := range closers {
		if err := c.c.Close(); err != nil {
			logger.Error("Close failed", zap.String("component", c.name), zap.Error(err))
		}
	}
}
