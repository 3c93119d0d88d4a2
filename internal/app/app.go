package app

import (
	"context"
	"strings"

	"github.com/bobmcallan/timesup-portal/internal/cache"
	"github.com/bobmcallan/timesup-portal/internal/client"
	"github.com/bobmcallan/timesup-portal/internal/common"
	"github.com/bobmcallan/timesup-portal/internal/config"
	"github.com/bobmcallan/timesup-portal/internal/handlers"
	"github.com/bobmcallan/timesup-portal/internal/interfaces"
	"github.com/bobmcallan/timesup-portal/internal/mcp"
	"github.com/bobmcallan/timesup-portal/internal/metrics"
	"github.com/bobmcallan/timesup-portal/internal/schedule"
	"github.com/bobmcallan/timesup-portal/internal/storage"
)

// App holds all application components and dependencies.
type App struct {
	Config *config.Config
	Logger *common.Logger

	Oracle  *schedule.Oracle
	Gateway *cache.Gateway
	Metrics *metrics.Metrics
	Storage interfaces.StorageManager

	// HTTP handlers
	HealthHandler   *handlers.HealthHandler
	VersionHandler  *handlers.VersionHandler
	ChartHandler    *handlers.ChartHandler
	ScheduleHandler *handlers.ScheduleHandler
	MCPHandler      *mcp.Handler
}

// New initializes the application with all dependencies.
func New(cfg *config.Config, logger *common.Logger) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
	}

	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.IsDevMode() {
		logger.Warn().Msg("running in dev mode")
	} else if env != "prod" && env != "" {
		logger.Warn().
			Str("environment", cfg.Environment).
			Msg("unrecognized environment value, defaulting to prod behavior")
	}

	oracle, err := schedule.New(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	a.Oracle = oracle

	store, mgr, err := storage.NewChartStore(context.Background(), cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Storage = mgr

	fetcher := client.NewChartClient(cfg.Upstream.URL, cfg.Upstream.Timeout())
	a.Gateway = cache.NewGateway(store, oracle, fetcher, cfg.Schedule.TTLStaleOnError(), logger)

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		a.Gateway.SetObserver(a.Metrics)
	}

	a.initHandlers()

	logger.Info().
		Str("timezone", cfg.Schedule.Timezone).
		Str("backend", cfg.Cache.Backend).
		Str("upstream", cfg.Upstream.URL).
		Msg("application initialization complete")

	return a, nil
}

// initHandlers initializes all HTTP handlers.
func (a *App) initHandlers() {
	a.HealthHandler = handlers.NewHealthHandler(a.Logger)
	a.VersionHandler = handlers.NewVersionHandler(a.Logger)
	a.ChartHandler = handlers.NewChartHandler(a.Logger, a.Gateway)
	a.ScheduleHandler = handlers.NewScheduleHandler(a.Logger, a.Oracle)

	if a.Config.MCP.Enabled {
		a.MCPHandler = mcp.NewHandler(a.Gateway, a.Oracle, a.Logger)
	}

	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// Close closes all application resources.
func (a *App) Close() error {
	if a.Storage != nil {
		return a.Storage.Close()
	}
	return nil
}
