package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dfryer1193/pixvault/catalog/application"
	"github.com/dfryer1193/pixvault/catalog/domain"
	"github.com/dfryer1193/pixvault/catalog/persistence"
	"github.com/dfryer1193/pixvault/internal/config"
	"github.com/dfryer1193/pixvault/internal/middleware"
	"github.com/dfryer1193/pixvault/internal/rest"
	"github.com/dfryer1193/pixvault/shared/db"
	"github.com/dfryer1193/pixvault/shared/db/mongo"
	"github.com/dfryer1193/pixvault/shared/db/sqlite"
	"github.com/dfryer1193/pixvault/shared/download"
	"github.com/dfryer1193/pixvault/shared/pixabay"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	shutdownTimeout = 5 * time.Second
	connectTimeout  = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	config.SetupLogger(cfg)

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), connectTimeout)
	store, repo, err := openStore(connectCtx, cfg)
	cancelConnect()
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to connect to database")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	if cfg.PixabayAPIKey == "" {
		log.Warn().Msg("PIXABAY_API_KEY is not set; image search will fail")
	}
	searcher := pixabay.NewClient(&http.Client{Timeout: cfg.ProviderTimeout}, cfg.PixabayBaseURL, cfg.PixabayAPIKey)
	fetcher := download.NewFetcher(&http.Client{Timeout: cfg.FetchTimeout}, cfg.MaxImageBytes)

	handlers := rest.NewHandlers(
		application.NewSearchService(searcher),
		application.NewIngestService(repo, fetcher, cfg.StoreTimeout),
		application.NewCatalogService(repo, cfg.MaxPerPage),
	)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MetricsMiddleware())
	r.Use(gin.CustomRecovery(middleware.HandlePanics()))
	rest.NewApi(r, handlers, cfg.StaticDir)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Str("driver", cfg.StoreDriver).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown server gracefully")
	}

	log.Info().Msg("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (db.Database, domain.ImageRepository, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		store := sqlite.NewSQLiteDB(sqlite.NewSQLiteConfig(cfg.SQLitePath))
		if err := store.Connect(ctx); err != nil {
			return nil, nil, err
		}
		return store, persistence.NewSQLiteImageRepository(store.DB()), nil
	default:
		store := mongo.NewMongoDB(mongo.MongoConfig{URI: cfg.MongoURI, Collection: cfg.MongoCollection})
		if err := store.Connect(ctx); err != nil {
			return nil, nil, err
		}
		return store, persistence.NewMongoImageRepository(store.Collection()), nil
	}
}
