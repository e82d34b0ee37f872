package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/nett/internal/api/handlers"
	"github.com/dvloznov/nett/internal/api/middleware"
	"github.com/dvloznov/nett/internal/config"
	"github.com/dvloznov/nett/internal/jobs"
	"github.com/dvloznov/nett/internal/jobs/inmemory"
	"github.com/dvloznov/nett/internal/logger"
	"github.com/dvloznov/nett/internal/notionsync"
	"github.com/dvloznov/nett/internal/store"
	"github.com/dvloznov/nett/internal/store/backend"
)

func main() {
	var (
		port          = flag.String("port", "8080", "HTTP server port")
		envFile       = flag.String("env", ".env", "Path to an optional .env file")
		backendName   = flag.String("backend", "", "Record store backend: sqlite, bigquery or supabase (overrides NETT_BACKEND)")
		notionRetries = flag.Int("notion-retries", 3, "Retries per Notion API call")
		mirrorWorkers = flag.Int("mirror-workers", 5, "Concurrent Notion mirror workers")
		jobHistory    = flag.Int("job-history", inmemory.DefaultStoreSize, "Mirror jobs kept for /api/jobs")
	)
	flag.Parse()

	log := logger.New()
	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *backendName != "" {
		cfg.Backend = *backendName
		if err := cfg.Validate(); err != nil {
			log.Fatal().Err(err).Msg("Invalid configuration")
		}
	}

	log = logger.Build(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx := logger.WithContext(context.Background(), log)

	repo, err := backend.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Backend).Msg("Failed to open record store")
	}
	defer repo.Close()
	log.Info().Str("backend", cfg.Backend).Msg("Record store opened")

	jobStore, err := inmemory.NewStore(*jobHistory)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create job store")
	}
	jobQueue := inmemory.NewQueue(100, jobStore, inmemory.WithWorkers(*mirrorWorkers))

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	var publisher jobs.Publisher
	if cfg.NotionEnabled() {
		notion := notionsync.NewClient(cfg.NotionToken, *notionRetries)
		mirror := notionsync.NewMirror(notion, cfg.NotionTransactionsDB)
		if err := jobQueue.Start(workerCtx, mirror.HandleJob(repo)); err != nil {
			log.Fatal().Err(err).Msg("Failed to start mirror workers")
		}
		publisher = jobQueue
		log.Info().Str("database_id", cfg.NotionTransactionsDB).Msg("Notion mirror enabled")
	} else {
		log.Warn().Msg("No Notion credentials configured - transaction changes will not be mirrored")
	}

	var budgetsHandler *handlers.BudgetsHandler
	if budgets, ok := repo.(store.BudgetRepository); ok {
		budgetsHandler = handlers.NewBudgetsHandler(budgets, repo, log)
	}

	var categoriesHandler *handlers.CategoriesHandler
	if cats, ok := repo.(store.CategoryRepository); ok {
		categoriesHandler = handlers.NewCategoriesHandler(cats, repo, log)
	}

	mux := handlers.NewRouter(
		handlers.NewTransactionsHandler(repo, publisher, log),
		budgetsHandler,
		categoriesHandler,
		handlers.NewJobsHandler(jobStore, log),
	)

	handler := middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID(log),
		middleware.AccessLog(),
		middleware.CORS(cfg.CORSOrigins),
	)

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight mirror jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
