// Command server runs the paghive HTTP API.
//
// @title                      paghive API
// @version                    1.0
// @description                Book recommendation feed: accounts, posts with cover images, paginated listing.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
// @description                Type "Bearer" followed by a space and the session token.
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

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/paghive/paghive/internal/api"
	"github.com/paghive/paghive/internal/api/handler"
	"github.com/paghive/paghive/internal/core/ports"
	"github.com/paghive/paghive/internal/core/service"
	"github.com/paghive/paghive/internal/infrastructure/config"
	mongodb "github.com/paghive/paghive/internal/infrastructure/db/mongo"
	redisdb "github.com/paghive/paghive/internal/infrastructure/db/redis"
	"github.com/paghive/paghive/internal/infrastructure/media"
	"github.com/paghive/paghive/internal/infrastructure/queue"
	"github.com/paghive/paghive/internal/infrastructure/token"
	"github.com/paghive/paghive/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty || !cfg.IsProduction(),
		Service: "paghive",
		Env:     cfg.Env,
	})

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	redisClient, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()

	users := mongodb.NewUserRepository(db)
	books := mongodb.NewBookRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	if err := books.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("book indexes: %w", err)
	}

	// --- Media ---
	backend, images, err := buildMedia(cfg, db)
	if err != nil {
		return err
	}
	store := media.Instrument(backend)

	cleanup := queue.NewDispatcher(cfg.CleanupWorkers, store, logger.Component("cleanup"))
	cleanup.Start(ctx)
	defer cleanup.Stop()

	// --- Auth ---
	issuer, verifier, err := buildTokens(ctx, cfg)
	if err != nil {
		return err
	}
	revocations := redisdb.NewRevocationList(redisClient)

	// --- Services ---
	var bookOpts []service.BookOption
	if cfg.Auth.EnforceOwnership {
		bookOpts = append(bookOpts, service.WithOwnershipCheck())
	}
	bookService := service.NewBookService(books, users, store, cleanup, logger.Component("books"), bookOpts...)
	authService := service.NewAuthService(users, issuer, verifier, revocations, logger.Component("auth"))

	e := api.NewRouter(api.Dependencies{
		Books:         bookService,
		Auth:          authService,
		Authenticator: authService,
		Images:        images,
		Health: map[string]handler.Pinger{
			"mongo": mongodb.Pinger{Client: mongoClient},
			"redis": redisdb.Pinger{Client: redisClient},
		},
		Logger:      log,
		RateLimit:   cfg.HTTP.RateLimit,
		BodyLimit:   cfg.HTTP.BodyLimit,
		CORSOrigins: cfg.HTTP.CORSOrigins,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("auth_mode", cfg.Auth.Mode).
			Str("media_backend", backend.Name()).
			Bool("enforce_ownership", cfg.Auth.EnforceOwnership).
			Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	return nil
}

// buildMedia returns the configured image backend. images is non-nil only when
// the API itself serves image bytes.
func buildMedia(cfg *config.Config, db *mongo.Database) (media.Backend, handler.ImageSource, error) {
	switch cfg.Media.Backend {
	case config.MediaGridFS:
		store, err := media.NewGridFSStore(db, cfg.Media.PublicURL)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		store, err := media.NewCloudinaryStore(cfg.Media.CloudinaryURL, cfg.Media.CloudinaryFolder)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}

// buildTokens selects the single trust model for bearer tokens. The issuer is
// nil when tokens come from an external identity provider.
func buildTokens(ctx context.Context, cfg *config.Config) (ports.TokenIssuer, ports.TokenVerifier, error) {
	if cfg.Auth.Mode == config.AuthModeJWKS {
		verifier, err := token.NewJWKSVerifier(ctx, cfg.Auth.JWKSURL)
		if err != nil {
			return nil, nil, err
		}
		return nil, verifier, nil
	}

	issuer, err := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, nil, err
	}
	verifier, err := token.NewHS256Verifier(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, nil, err
	}
	return issuer, verifier, nil
}
