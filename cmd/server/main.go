package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DavidDuveau/openjoconde-sub000/internal/api"
	"github.com/DavidDuveau/openjoconde-sub000/internal/auth"
	"github.com/DavidDuveau/openjoconde-sub000/internal/common"
	"github.com/DavidDuveau/openjoconde-sub000/internal/config"
	"github.com/DavidDuveau/openjoconde-sub000/internal/constants"
	"github.com/DavidDuveau/openjoconde-sub000/internal/db"
	"github.com/DavidDuveau/openjoconde-sub000/internal/db/repositories"
	"github.com/DavidDuveau/openjoconde-sub000/internal/importer"
	"github.com/DavidDuveau/openjoconde-sub000/internal/jobs"
	"github.com/DavidDuveau/openjoconde-sub000/internal/logging"
	"github.com/DavidDuveau/openjoconde-sub000/internal/metrics"
	"github.com/DavidDuveau/openjoconde-sub000/internal/parser"
	"github.com/DavidDuveau/openjoconde-sub000/internal/routes"
	"github.com/DavidDuveau/openjoconde-sub000/internal/syncer"
	"github.com/DavidDuveau/openjoconde-sub000/internal/workers"
)

const (
	runLockKey = "joconde:sync:lock"
	runLockTTL = 6 * time.Hour
)

// @title Joconde Import API
// @version 1.0
// @description Imports the Joconde collection export and reports synchronization runs.
// @host localhost:8080
// @BasePath /
func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "config.yaml", "optional YAML config file")
	flag.Parse()

	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	if err := logging.Init(cfg.Env, cfg.LogLevel); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Joconde import service starting up",
		"environment", cfg.Env,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	metricsReg := metrics.NewMetricsRegistry(prometheus.DefaultRegisterer)

	orm, err := db.InitORM(cfg.Database)
	if err != nil {
		logging.Fatal("Failed to connect to database (GORM)", "error", err)
	}
	if err := db.Migrate(orm); err != nil {
		logging.Fatal("Failed to migrate database", "error", err)
	}
	logging.Info("Connected to database (GORM)", "type", cfg.Database.Type)

	sqlxDB, err := db.InitSQLX(cfg.Database, orm)
	if err != nil {
		logging.Fatal("Failed to connect to database (sqlx)", "error", err)
	}
	logging.Info("Connected to database (sqlx)")

	// Redis backs the cache and the run lock when configured
	var (
		cache common.CacheInterface
		lock  syncer.RunLock
	)
	if cfg.Redis.Enabled() {
		client := common.NewRedisClient(cfg.Redis)
		cache = common.NewRedisCacheService(client, "joconde:", metricsReg)
		lock = syncer.NewRedisLock(client, runLockKey, runLockTTL)
		logging.Info("Using Redis for cache and run lock", "addr", cfg.Redis.Addr)
	} else {
		cache = common.NewCacheService(5*time.Minute, 10*time.Minute, metricsReg)
		lock = syncer.NewMemoryLock()
		logging.Info("Using in-memory cache and run lock")
	}
	defer cache.Close()

	engine := importer.NewEngine(repositories.NewCatalogRepository(orm), importer.Options{
		ReferenceBatchSize:      cfg.Import.ReferenceBatchSize,
		ArtworkBatchSize:        cfg.Import.ArtworkBatchSize,
		ParallelReferenceStages: cfg.Import.ParallelReferenceStages,
		Parser: parser.Options{
			BatchSize:     cfg.Import.ParseBatchSize,
			ProgressEvery: cfg.Import.ProgressEvery,
		},
	}, metricsReg)

	downloader := syncer.NewHTTPDownloader(cfg.Source.HTTPTimeout)
	orch := syncer.NewOrchestrator(syncer.Options{
		SourceURL: cfg.Source.URL,
		TempDir:   cfg.Source.TempDir,
	}, syncer.Deps{
		Importer:   engine,
		Logs:       repositories.NewSyncLogRepo(orm),
		States:     repositories.NewSyncStateRepo(orm),
		Prober:     downloader,
		Downloader: downloader,
		Lock:       lock,
		Cache:      cache,
		Metrics:    metricsReg,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if n, err := orch.RecoverStale(ctx); err != nil {
		logging.Error("Failed to recover interrupted runs", "error", err)
	} else if n > 0 {
		logging.Warn("Marked interrupted runs as failed", "count", n, "reason", constants.MsgStaleRun)
	}

	if cfg.Source.URL != "" {
		jobs.InitializeJobs(ctx, orch, cfg.Source.PollInterval)
	} else {
		logging.Warn("Automatic synchronization disabled", "reason", constants.MsgSourceNotSet)
	}

	stats := repositories.NewStatsRepository(sqlxDB, metricsReg)
	workers.InitWorkers(ctx, sqlxDB, cache, stats, metricsReg)

	deps := &api.Dependencies{
		DB:      sqlxDB,
		Sync:    orch,
		Stats:   stats,
		Cache:   cache,
		UpSince: time.Now(),
	}
	if cfg.Auth.AdminSecret == "" {
		logging.Warn("ADMIN_JWT_SECRET is empty; admin endpoints will reject every token")
	}
	router := routes.RegisterRoutes(cfg.Env, deps, metricsReg, auth.NewTokenService([]byte(cfg.Auth.AdminSecret)))

	// Setup metrics endpoint outside of Chi router
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)
	logging.Info("Prometheus metrics endpoint registered at /metrics")

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info("Server starting", "port", cfg.Port, "environment", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("HTTP shutdown failed", "error", err)
	}

	// A run in flight is canceled and recorded before exit
	orch.Cancel()
	orch.Wait()
}
