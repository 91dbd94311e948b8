package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"lexdraft/api/internal/app"
	"lexdraft/api/internal/blob"
	"lexdraft/api/internal/cache"
	"lexdraft/api/internal/config"
	"lexdraft/api/internal/embed"
	"lexdraft/api/internal/exemplar"
	"lexdraft/api/internal/export"
	"lexdraft/api/internal/logger"
	"lexdraft/api/internal/metrics"
	"lexdraft/api/internal/research"
	"lexdraft/api/internal/search"
	"lexdraft/api/internal/store"
	"lexdraft/api/internal/versions"
)

func main() {
	cfg, err := config.Load()
	log := logger.NewLogger(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	zlog := log.Zerolog()
	if err != nil {
		zlog.Fatal().Err(err).Msg("invalid configuration")
	}
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		zlog.Fatal().Err(err).Msg("migrations failed")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	dataStore := store.NewPostgresStore(db)
	checks := map[string]app.ReadyCheck{}

	var redisCache *cache.RedisStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisCache, err = cache.NewRedisStore(cfg.RedisURL)
		if err != nil {
			zlog.Warn().Err(err).Msg("redis unavailable, caching disabled")
		} else {
			defer redisCache.Close()
			checks["redis"] = redisCache.Ping
		}
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, log.Component("meili"))
		defer meiliClient.Close()
		checks["meilisearch"] = func(context.Context) error {
			if !meiliClient.Healthy() {
				return errors.New("meilisearch unreachable")
			}
			return nil
		}
	}
	searchService := search.NewService(meiliClient, search.NewPgFTS(db), log.Component("search"))
	go searchService.ReindexAllFromPG(ctx)

	embedCfg := embed.Config{
		URL:    cfg.EmbeddingURL,
		APIKey: cfg.EmbeddingAPIKey,
		Model:  cfg.EmbeddingModel,
		Logger: log.Component("embed"),
	}
	exportOpts := export.Options{
		CacheTTL:   cfg.ExportCacheTTL,
		ChromePath: cfg.ChromePath,
		PDFTimeout: cfg.PDFTimeout,
		Metrics:    m,
		Logger:     log.Component("export"),
	}
	if redisCache != nil {
		embedCfg.Cache = redisCache
		exportOpts.Cache = redisCache
	}
	embedder := embed.NewClient(embedCfg)
	if !embedder.Enabled() {
		zlog.Info().Msg("embeddings disabled, semantic ranking falls back to text matching")
	}

	exemplarOpts := exemplar.Options{
		Embedder: embedder,
		Indexer:  searchService,
		Logger:   log.Component("exemplar"),
	}
	if strings.TrimSpace(cfg.S3Endpoint) != "" {
		blobs, err := blob.NewMinioStore(ctx, blob.Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			zlog.Warn().Err(err).Msg("object store unavailable, exemplar originals will not be kept")
		} else {
			exemplarOpts.Blobs = blobs
			checks["object_store"] = blobs.Ping
		}
	}

	var researchService *research.Service
	if strings.TrimSpace(cfg.ResearchDatabaseURL) != "" {
		researchDB, err := openResearch(ctx, cfg.ResearchDatabaseURL)
		if err != nil {
			zlog.Warn().Err(err).Msg("research database unavailable, case research disabled")
		} else {
			defer researchDB.Close()
			index := research.NewCaseIndex(researchDB)
			checks["research"] = index.Ping
			researchService = research.NewService(index, embedder, m, log.Component("research"))
		}
	}

	service := app.New(app.Deps{
		Store: dataStore,
		Versions: versions.NewEngine(dataStore, versions.Config{
			Interval:     cfg.SnapshotInterval,
			MaxSnapshots: cfg.MaxSnapshots,
			Metrics:      m,
		}),
		Exporter:  export.NewService(exportOpts),
		Search:    searchService,
		Research:  researchService,
		Exemplars: exemplar.NewService(dataStore, exemplarOpts),
		Checks:    checks,
		Logger:    log.Component("app"),
	})

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin, log, m)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.PDFTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.LogServerStart(cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.LogServerShutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("shutdown error")
	}
}

// openResearch connects to the case-law database. It is read-only and owned
// elsewhere, so no migrations run against it.
func openResearch(ctx context.Context, url string) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return store.OpenReadOnly(ctx, url)
}
