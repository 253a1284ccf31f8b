// Package app wires configuration, storage, clients and services into a runnable portfolio service.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bobmcallan/stocktrader/internal/clients/gemini"
	"github.com/bobmcallan/stocktrader/internal/clients/odm"
	"github.com/bobmcallan/stocktrader/internal/clients/stockquote"
	"github.com/bobmcallan/stocktrader/internal/clients/tradehistory"
	"github.com/bobmcallan/stocktrader/internal/common"
	"github.com/bobmcallan/stocktrader/internal/interfaces"
	"github.com/bobmcallan/stocktrader/internal/notify"
	"github.com/bobmcallan/stocktrader/internal/services/loyalty"
	"github.com/bobmcallan/stocktrader/internal/services/portfolio"
	"github.com/bobmcallan/stocktrader/internal/services/pricing"
	"github.com/bobmcallan/stocktrader/internal/storage"
)

// App holds the initialized store, clients and services shared by the HTTP server.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Store            interfaces.PortfolioStore
	Health           *common.ErrorCounter
	PortfolioService interfaces.PortfolioService
	StartupTime      time.Time

	redisClient redis.UniversalClient
	tradeLog    *notify.TradeLog
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPaths returns the config files to layer, lowest precedence first.
// An explicit path wins over STOCKTRADER_CONFIG, which wins over the binary directory.
func ResolveConfigPaths(configPath string) []string {
	if configPath == "" {
		configPath = os.Getenv("STOCKTRADER_CONFIG")
	}
	if configPath != "" {
		return []string{configPath}
	}
	path := filepath.Join(getBinaryDir(), "stocktrader.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = "config/stocktrader.toml" // fallback for development
	}
	return []string{path}
}

// NewApp loads configuration and initializes everything it describes.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPaths(configPath)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	return NewAppWithConfig(ctx, config, logger)
}

// NewAppWithConfig initializes storage, clients and services from an already loaded config.
func NewAppWithConfig(ctx context.Context, config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	store, err := storage.NewPortfolioStore(ctx, logger, config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	a := &App{
		Config:      config,
		Logger:      logger,
		Store:       store,
		Health:      common.NewErrorCounter(common.DefaultLivenessThreshold),
		StartupTime: startupStart,
	}

	quoteCfg := config.Clients.StockQuote
	quotes := stockquote.NewClient(
		stockquote.WithBaseURL(quoteCfg.BaseURL),
		stockquote.WithLogger(logger),
		stockquote.WithRateLimit(quoteCfg.RateLimit),
		stockquote.WithTimeout(quoteCfg.GetTimeout()),
	)

	odmCfg := config.Clients.ODM
	rules := odm.NewClient(odmCfg.BaseURL,
		odm.WithCredentials(odmCfg.ID, odmCfg.Password),
		odm.WithLogger(logger),
		odm.WithRateLimit(odmCfg.RateLimit),
		odm.WithTimeout(odmCfg.GetTimeout()),
	)

	// Optional collaborators stay as nil interfaces when unconfigured
	var history interfaces.TradeHistoryClient
	if historyCfg := config.Clients.TradeHistory; historyCfg.BaseURL != "" {
		history = tradehistory.NewClient(
			tradehistory.WithBaseURL(historyCfg.BaseURL),
			tradehistory.WithLogger(logger),
			tradehistory.WithRateLimit(historyCfg.RateLimit),
			tradehistory.WithTimeout(historyCfg.GetTimeout()),
		)
	}

	var sentiment interfaces.SentimentClient
	if geminiCfg := config.Clients.Gemini; geminiCfg.APIKey != "" {
		geminiClient, err := gemini.NewClient(ctx, geminiCfg.APIKey,
			gemini.WithLogger(logger),
			gemini.WithModel(geminiCfg.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client - feedback sentiment will be Unknown")
		} else {
			sentiment = geminiClient
		}
	} else {
		logger.Warn().Msg("Gemini API key not configured - feedback sentiment will be Unknown")
	}

	notifyTimeout := config.Notify.GetTimeout()

	var tiers interfaces.TierChangePublisher
	if redisCfg := config.Notify.Redis; redisCfg.Address != "" {
		a.redisClient = notify.NewRedisClient(redisCfg)
		tiers = notify.NewRedisQueue(a.redisClient, redisCfg.Queue, logger)
	} else {
		logger.Info().Msg("Redis address not configured - loyalty change notifications disabled")
	}

	var trades interfaces.TradeEventPublisher
	if kafkaCfg := config.Notify.Kafka; kafkaCfg.Address != "" {
		a.tradeLog = notify.NewTradeLog(kafkaCfg, notifyTimeout, logger)
		trades = a.tradeLog
	} else {
		logger.Info().Msg("Kafka address not configured - trade events disabled")
	}

	pricer := pricing.NewService(quotes, quoteCfg.GetTimeout(), logger)
	resolver := loyalty.NewService(rules, tiers, odmCfg.GetTimeout(), notifyTimeout, logger)

	a.PortfolioService = portfolio.NewService(store, pricer, resolver, trades, sentiment, history,
		portfolio.Options{
			InitialBalance:   config.Portfolio.InitialBalance,
			DeniedOwners:     config.Portfolio.DeniedOwners,
			NotifyTimeout:    notifyTimeout,
			SentimentTimeout: config.Clients.Gemini.GetTimeout(),
			HistoryTimeout:   config.Clients.TradeHistory.GetTimeout(),
		},
		a.Health, logger,
	)

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases the notification channels and the store.
func (a *App) Close() {
	if a.tradeLog != nil {
		if err := a.tradeLog.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close trade event writer")
		}
		a.tradeLog = nil
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close redis client")
		}
		a.redisClient = nil
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close portfolio store")
		}
		a.Store = nil
	}
}
