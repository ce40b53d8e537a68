package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/atomic"

	"github.com/senyabanana/sealed-tender/internal/auth"
	"github.com/senyabanana/sealed-tender/internal/clock"
	"github.com/senyabanana/sealed-tender/internal/commitment"
	"github.com/senyabanana/sealed-tender/internal/db"
	"github.com/senyabanana/sealed-tender/internal/handlers"
	"github.com/senyabanana/sealed-tender/internal/logger"
	"github.com/senyabanana/sealed-tender/internal/ratelimit"
	"github.com/senyabanana/sealed-tender/internal/repository"
	"github.com/senyabanana/sealed-tender/internal/router"
	"github.com/senyabanana/sealed-tender/internal/router/config"
	"github.com/senyabanana/sealed-tender/internal/services"
	"github.com/senyabanana/sealed-tender/internal/storage"
)

func main() {
	configPath := flag.String("config", ".", "directory containing app.env")
	issueToken := flag.String("issue-token", "", "print a bearer token for the given identity and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of a token printed by -issue-token")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	logg, err := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		log.Fatal("cannot create logger:", err)
	}
	slog.SetDefault(logg)

	var validator *auth.JWTValidator
	if cfg.AuthMode == config.AuthModeJWT {
		validator, err = auth.NewJWTValidator([]byte(cfg.JWTSecret), cfg.JWTIssuer)
		if err != nil {
			log.Fatal("cannot create token validator:", err)
		}
	}

	if *issueToken != "" {
		if validator == nil {
			log.Fatal("tokens can only be issued in jwt auth mode")
		}
		token, err := validator.Issue(*issueToken, *tokenTTL)
		if err != nil {
			log.Fatal("cannot issue token:", err)
		}
		fmt.Println(token)
		return
	}

	if err := run(cfg, logg, validator); err != nil {
		logg.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logg *slog.Logger, validator *auth.JWTValidator) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error("failed to close store", "error", err)
		}
	}()

	scheme, err := commitment.New(cfg.CommitmentScheme, cfg.CommitmentHash, cfg.SealSecret)
	if err != nil {
		return err
	}
	if scheme.Name() == commitment.SchemeSealed {
		logg.Warn("sealed commitments are readable by whoever holds SEAL_SECRET before the bid deadline")
	}

	var authorizer auth.Authorizer = auth.TokenAuthorizer{}
	if validator == nil {
		authorizer = auth.TrustingAuthorizer{}
		logg.Warn("authentication is disabled, claimed identities are trusted")
	}

	limiter, err := openLimiter(ctx, cfg)
	if err != nil {
		return err
	}
	if closer, ok := limiter.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	core := services.Core{Store: store, Clock: clock.System{}, Auth: authorizer, Log: logg}

	tenderRepo := repository.NewKVTenderRepository()
	bidRepo := repository.NewKVBidRepository()
	access := services.NewAccessService(repository.NewKVAdminRepository(), core)

	admin, err := access.EnsureAdmin(ctx, cfg.AdminID)
	if err != nil {
		return fmt.Errorf("admin initialization failed: %w", err)
	}
	if admin == "" {
		logg.Warn("no admin configured, only tender creators can close tenders")
	}

	tenderService := services.NewTenderService(tenderRepo, bidRepo, core)
	bidService := services.NewBidService(bidRepo, tenderRepo, scheme, cfg.MaxBidders, core)
	closeService := services.NewCloseService(tenderRepo, bidRepo, services.NewWinnerSelector(bidRepo, cfg.SelectPageSize), admin, core)

	tokenAuth := validator != nil
	tenderHandler := handlers.NewTenderHandler(tenderService, closeService, logg, cfg.RequestTimeout, tokenAuth)
	bidHandler := handlers.NewBidHandler(bidService, logg, cfg.RequestTimeout, tokenAuth)

	ready := atomic.NewBool(false)
	routes := router.InitRoutes(handlers.NewHealthHandler(ready), router.Options{
		Logger:    logg,
		Validator: validator,
		Limiter:   limiter,
	}, tenderHandler, bidHandler)

	srv := router.NewServer(router.ServerConfig{
		ListenAddr:               cfg.ServerAddress,
		Log:                      logg,
		DrainDuration:            time.Second,
		GracefulShutdownDuration: 10 * time.Second,
		ReadTimeout:              15 * time.Second,
		WriteTimeout:             cfg.RequestTimeout + 5*time.Second,
	}, routes, ready)

	errc := make(chan error, 1)
	if err := srv.Start(errc); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	select {
	case <-ctx.Done():
		logg.Info("shutdown signal received")
	case err = <-errc:
		logg.Error("server failed", "error", err)
	}
	srv.Shutdown()
	return err
}

func openStore(ctx context.Context, cfg config.Config, logg *slog.Logger) (storage.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		if err := db.RunMigrations(cfg.MigrationURL, cfg.PostgresDSN(), logg); err != nil {
			return nil, err
		}
		dbPool, err := db.InitDb(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("error initializing database: %w", err)
		}
		return storage.NewPostgresStore(dbPool), nil
	case config.StoreDriverPebble:
		store, err := storage.OpenPebble(storage.PebbleOptions{Path: cfg.PebblePath, SyncWrites: cfg.PebbleSyncWrites})
		if err != nil {
			return nil, fmt.Errorf("error opening pebble store at %s: %w", cfg.PebblePath, err)
		}
		logg.Info("pebble store opened", "path", cfg.PebblePath, "syncWrites", cfg.PebbleSyncWrites)
		return store, nil
	default:
		return nil, errors.New("unknown store driver " + cfg.StoreDriver)
	}
}

func openLimiter(ctx context.Context, cfg config.Config) (ratelimit.Store, error) {
	if cfg.RateLimitRPS <= 0 {
		return nil, nil
	}
	policy := ratelimit.Policy{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}

	if cfg.RedisAddr == "" {
		return ratelimit.NewMemoryStore(policy), nil
	}

	store := ratelimit.NewRedisStore(redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}), policy)
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("redis is unavailable at %s: %w", cfg.RedisAddr, err)
	}
	return store, nil
}
