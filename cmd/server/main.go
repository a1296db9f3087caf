package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/propview/backend/config"
	httpDelivery "github.com/propview/backend/internal/delivery/http"
	"github.com/propview/backend/internal/domain"
	"github.com/propview/backend/internal/infrastructure/cache"
	"github.com/propview/backend/internal/infrastructure/pageprobe"
	"github.com/propview/backend/internal/infrastructure/provider"
	"github.com/propview/backend/internal/usecase"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := config.LoadEnvFile(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	os.Exit(exitCode(logger, run(cfg, logger)))
}

// exitCode logs the terminal error and flushes the logger before the process exits.
func exitCode(logger *zap.Logger, err error) int {
	code := 0
	if err != nil {
		logger.Error("server stopped", zap.Error(err))
		code = 1
	}
	_ = logger.Sync()
	return code
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting PropView backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache", cfg.Cache.Type),
		zap.Duration("cache_ttl", cfg.Cache.TTL),
	)

	store, closeCache, err := newCache(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	extractor, err := provider.New(ctx, provider.Settings{
		Name:            cfg.Provider.Name,
		Search:          cfg.Provider.Search,
		PromptFile:      cfg.Provider.PromptFile,
		RequestsPerHour: cfg.RateLimit.Provider,
		Options: provider.Options{
			APIKey:         cfg.Provider.APIKey,
			Model:          cfg.Provider.Model,
			BaseURL:        cfg.Provider.BaseURL,
			Timeout:        cfg.Provider.Timeout,
			ThinkingBudget: cfg.Provider.ThinkingBudget,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}
	defer extractor.Close()

	var prober domain.PageProber
	if cfg.Probe.Enabled {
		prober = pageprobe.NewProber(pageprobe.Options{
			Timeout:           cfg.Probe.Timeout,
			UserAgent:         cfg.Probe.UserAgent,
			MaxBodyBytes:      cfg.Probe.MaxBodyBytes,
			AllowPrivateHosts: cfg.Probe.AllowPrivateHosts,
		}, logger)
		logger.Info("listing page probe enabled",
			zap.Duration("timeout", cfg.Probe.Timeout),
			zap.Int64("max_body_bytes", cfg.Probe.MaxBodyBytes),
		)
	}

	extractionService := usecase.NewExtractionService(
		store,
		extractor,
		prober,
		logger.Named("extract"),
		usecase.ExtractionServiceConfig{
			CacheTTL:      cfg.Cache.TTL,
			Policy:        resolutionPolicy(cfg.Gallery.Families),
			VendorMarkers: cfg.Gallery.VendorMarkers,
			Placeholder:   cfg.Gallery.Placeholder,
		},
	)

	handler := httpDelivery.NewHandler(extractionService, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newCache builds the configured cache backend and its close func
func newCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (domain.CacheRepository, func(), error) {
	if cfg.Type == "redis" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisCache, func() { redisCache.Close() }, nil
	}
	memoryCache := cache.NewMemoryCache(0)
	return memoryCache, func() { memoryCache.Close() }, nil
}

// resolutionPolicy turns configured CDN families into a policy
func resolutionPolicy(families []config.CDNFamilyConfig) *usecase.ResolutionPolicy {
	if len(families) == 0 {
		return usecase.DefaultResolutionPolicy()
	}
	policy := usecase.NewResolutionPolicy()
	for _, f := range families {
		policy.Register(usecase.CDNFamily{
			Name:      f.Name,
			Hosts:     f.Hosts,
			IsHighRes: usecase.MarkerSuffixes(f.Markers...),
		})
	}
	return policy
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
