package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/estate-backend/internal/adapter/postgres"
	articlerepo "github.com/heartmarshall/estate-backend/internal/adapter/postgres/article"
	"github.com/heartmarshall/estate-backend/internal/adapter/postgres/feature"
	listingrepo "github.com/heartmarshall/estate-backend/internal/adapter/postgres/listing"
	"github.com/heartmarshall/estate-backend/internal/adapter/postgres/listingimage"
	"github.com/heartmarshall/estate-backend/internal/adapter/storage/gridfs"
	"github.com/heartmarshall/estate-backend/internal/auth"
	"github.com/heartmarshall/estate-backend/internal/config"
	"github.com/heartmarshall/estate-backend/internal/service/article"
	"github.com/heartmarshall/estate-backend/internal/service/listing"
	"github.com/heartmarshall/estate-backend/internal/transport/middleware"
	"github.com/heartmarshall/estate-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects to
// PostgreSQL (and GridFS when uploads are enabled), serves HTTP until ctx is
// cancelled and then shuts down gracefully.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	var store *gridfs.Store
	if cfg.Upload.Enabled() {
		store, err = gridfs.Connect(ctx, cfg.Upload.MongoURI, cfg.Upload.Database, cfg.Upload.Bucket)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := store.Close(closeCtx); err != nil {
				logger.Warn("close upload storage", slog.String("error", err.Error()))
			}
		}()
		logger.Info("upload storage connected", slog.String("bucket", cfg.Upload.Bucket))
	} else {
		logger.Info("upload storage disabled")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.CleanupInterval)
	defer limiter.Stop()

	handler := NewRouter(buildRouterDeps(cfg, pool, store, limiter, logger))

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	return serve(ctx, srv, cfg.Server.ShutdownTimeout, logger)
}

// NewListingService wires the listing service onto a pool.
func NewListingService(pool *pgxpool.Pool, limits config.ListingConfig, logger *slog.Logger) *listing.Service {
	return listing.NewService(
		logger,
		listingrepo.New(pool),
		listingimage.New(pool),
		feature.New(pool),
		postgres.NewTxManager(pool),
		listing.Limits{MaxImages: limits.MaxImages, MaxFeatures: limits.MaxFeatures},
	)
}

// NewArticleService wires the blog article service onto a pool.
func NewArticleService(pool *pgxpool.Pool, logger *slog.Logger) *article.Service {
	return article.NewService(logger, articlerepo.New(pool), postgres.NewTxManager(pool))
}

func buildRouterDeps(
	cfg *config.Config,
	pool *pgxpool.Pool,
	store *gridfs.Store,
	limiter *middleware.RateLimiter,
	logger *slog.Logger,
) RouterDeps {
	deps := []rest.Dependency{{Name: "database", Pinger: pool}}

	var uploads *rest.UploadHandler
	if store != nil {
		uploads = rest.NewUploadHandler(store, cfg.Upload.PublicBaseURL, cfg.Upload.MaxBytes, logger)
		deps = append(deps, rest.Dependency{Name: "uploads", Pinger: store})
	}

	return RouterDeps{
		Logger:      logger,
		Listings:    rest.NewListingHandler(NewListingService(pool, cfg.Listing, logger), logger),
		Articles:    rest.NewArticleHandler(NewArticleService(pool, logger), logger),
		Uploads:     uploads,
		Health:      rest.NewHealthHandler(Version, deps...),
		Tokens:      auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL),
		CORS:        cfg.CORS,
		RateLimiter: limiter,
		RateLimit:   cfg.RateLimit,
	}
}

// serve runs srv until ctx is done, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	logger.Info("http server stopped")
	return nil
}
