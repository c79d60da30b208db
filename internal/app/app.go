// Package app wires configuration, storage, cache, clients and services.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bobmcallan/heritage/internal/cache"
	"github.com/bobmcallan/heritage/internal/clients/eodhd"
	"github.com/bobmcallan/heritage/internal/common"
	"github.com/bobmcallan/heritage/internal/interfaces"
	"github.com/bobmcallan/heritage/internal/services/asset"
	"github.com/bobmcallan/heritage/internal/services/pricing"
	"github.com/bobmcallan/heritage/internal/services/transaction"
	"github.com/bobmcallan/heritage/internal/services/valuation"
	"github.com/bobmcallan/heritage/internal/storage/surrealdb"
)

// App holds all initialized services and clients.
type App struct {
	Config             *common.Config
	Logger             *common.Logger
	Storage            interfaces.StorageManager
	Cache              *cache.Service
	PriceFeed          interfaces.PriceFeedClient
	AssetService       interfaces.AssetService
	PriceService       interfaces.PriceService
	ValuationService   interfaces.ValuationService
	CacheInvalidator   interfaces.CacheInvalidator
	TransactionService interfaces.TransactionService
	StartupTime        time.Time

	schedulerCancel context.CancelFunc
	cacheCloser     func() error
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// resolveConfigPath picks the explicit path, then HERITAGE_CONFIG, then
// heritage.toml next to the binary, then config/heritage.toml.
func resolveConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if p := os.Getenv("HERITAGE_CONFIG"); p != "" {
		return p
	}
	p := filepath.Join(getBinaryDir(), "heritage.toml")
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return "config/heritage.toml"
}

// NewApp loads configuration and initializes every component.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	startupStart := time.Now()

	config, err := common.LoadConfig(resolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(getBinaryDir(), config.Logging.FilePath)
	}
	logger := common.NewLoggerFromConfig(config.Logging)

	storageManager, err := surrealdb.NewManager(ctx, logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	store, closer := newCacheStore(ctx, config.Cache, logger)

	var feed interfaces.PriceFeedClient
	if config.Clients.EODHD.APIKey != "" {
		opts := []eodhd.ClientOption{
			eodhd.WithLogger(logger),
			eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
			eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
		}
		if config.Clients.EODHD.BaseURL != "" {
			opts = append(opts, eodhd.WithBaseURL(config.Clients.EODHD.BaseURL))
		}
		feed = eodhd.NewClient(config.Clients.EODHD.APIKey, opts...)
	} else {
		logger.Warn().Msg("EODHD API key not configured - price sync will be unavailable")
	}

	a := Wire(config, logger, storageManager, cache.NewService(store, logger, config.Cache.GetTTL(), config.Cache.GetSlidingTTL()), feed)
	a.StartupTime = startupStart
	a.cacheCloser = closer

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")
	return a, nil
}

// Wire builds the service graph over already-connected dependencies.
func Wire(config *common.Config, logger *common.Logger, storage interfaces.StorageManager, c *cache.Service, feed interfaces.PriceFeedClient) *App {
	assets := asset.NewService(storage.AssetStore(), storage.MonthlyPriceStore(), feed, logger)
	prices := pricing.NewService(assets, storage.MonthlyPriceStore(), logger)
	engine := valuation.NewService(storage.TransactionStore(), assets, prices, logger)
	cached := valuation.NewCachedService(engine, c, logger)
	transactions := transaction.NewService(storage.TransactionStore(), assets, cached, logger)

	return &App{
		Config:             config,
		Logger:             logger,
		Storage:            storage,
		Cache:              c,
		PriceFeed:          feed,
		AssetService:       assets,
		PriceService:       prices,
		ValuationService:   cached,
		CacheInvalidator:   cached,
		TransactionService: transactions,
		StartupTime:        time.Now(),
	}
}

// newCacheStore connects the configured cache backend. An unreachable Redis
// falls back to the in-process store.
func newCacheStore(ctx context.Context, cfg common.CacheConfig, logger *common.Logger) (interfaces.CacheStore, func() error) {
	if cfg.Backend == "redis" {
		rs := cache.NewRedisStore(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		err := rs.Ping(pingCtx)
		if err == nil {
			logger.Info().Str("address", cfg.Address).Int("db", cfg.DB).Msg("Redis cache connected")
			return rs, rs.Close
		}
		logger.Warn().Err(err).Str("address", cfg.Address).Msg("Redis unreachable, using in-process cache")
		_ = rs.Close()
	}
	return cache.NewMemoryStore(time.Minute), nil
}

// Close releases all resources held by the App.
// Shutdown order: cancel scheduler, close cache, close storage.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.cacheCloser != nil {
		if err := a.cacheCloser(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close cache")
		}
		a.cacheCloser = nil
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close storage")
		}
		a.Storage = nil
	}
}

// StartPriceScheduler launches the background price refresh goroutine.
func (a *App) StartPriceScheduler() {
	if !a.Config.Scheduler.Enabled {
		a.Logger.Info().Msg("Price scheduler disabled")
		return
	}
	if a.PriceFeed == nil {
		a.Logger.Warn().Msg("Price scheduler not started: no price feed configured")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel

	s := newPriceScheduler(a.AssetService, a.CacheInvalidator, a.Logger, time.Now)
	go s.run(ctx, a.Config.Scheduler.GetRefreshInterval())
}
