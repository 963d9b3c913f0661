package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/openeduhub/kidra/internal/config"
	"github.com/openeduhub/kidra/internal/domain"
	"github.com/openeduhub/kidra/internal/forward"
	"github.com/openeduhub/kidra/internal/httpserver"
	"github.com/openeduhub/kidra/internal/httpserver/deps"
	"github.com/openeduhub/kidra/internal/index"
	"github.com/openeduhub/kidra/internal/logger"
	"github.com/openeduhub/kidra/internal/metrics"
	"github.com/openeduhub/kidra/internal/redis"
	"github.com/openeduhub/kidra/internal/registry"
	"github.com/openeduhub/kidra/internal/scheduler"
	"github.com/openeduhub/kidra/internal/schema"
	"github.com/openeduhub/kidra/internal/sources/servicefile"
	redisstore "github.com/openeduhub/kidra/internal/store/redis"
	"github.com/openeduhub/kidra/internal/supervisor"
	"github.com/openeduhub/kidra/internal/utils"
	"github.com/openeduhub/kidra/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	registry    *registry.Registry
	supervisor  *supervisor.Supervisor
	sweeper     *scheduler.HealthSweeper
	redisClient *goredis.Client
}

// New loads the configuration and wires every component. Nothing is launched yet.
func New() (*App, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	descriptors, err := loadCatalogue(cfg, loggerClient)
	if err != nil {
		return nil, err
	}
	reg, err := registry.FromDescriptors(descriptors)
	if err != nil {
		return nil, fmt.Errorf("failed to register services: %w", err)
	}
	loggerClient.Info("services registered",
		logger.Int("count", reg.Len()),
		logger.Strings("services", reg.Names()))

	m := metrics.New()

	// Redis is optional: without it the gateway only loses usage statistics
	var (
		redisClient *goredis.Client
		usageStore  *redisstore.Store
		usage       forward.UsageRecorder
	)
	if cfg.RedisEnabled() {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err = redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Warn("usage statistics disabled", logger.Error(err))
		} else {
			usageStore = redisstore.NewStore(redisClient)
			usage = usageStore
		}
	} else {
		loggerClient.Info("Redis not configured, usage statistics disabled")
	}

	forwarder := forward.New(&http.Client{}, forward.Options{
		Timeout: cfg.ForwardTimeout,
		Metrics: m,
		Usage:   usage,
	}, loggerClient)

	aggregator := schema.NewAggregator(
		reg,
		schema.NewHTTPFetcher(&http.Client{}, cfg.SchemaTimeout),
		schema.LocalDocument(version.Version),
		loggerClient,
		m,
	)

	sup := supervisor.New(supervisor.ExecLauncher{}, &http.Client{}, supervisor.Options{
		PingInterval:    cfg.PingInterval,
		PingTimeout:     cfg.PingTimeout,
		TerminateOnExit: cfg.TerminateOnExit,
	}, loggerClient, m)

	statusIndex := index.NewStatusIndex()
	sweepTrigger := make(chan struct{}, 1)
	sweeper := scheduler.NewHealthSweeper(
		reg,
		&http.Client{},
		cfg.PingTimeout,
		statusIndex,
		m,
		loggerClient,
		cfg.HealthInterval,
		sweepTrigger,
	)

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		RoutingMode:  cfg.RoutingMode,
		Registry:     reg,
		Forwarder:    forwarder,
		Schema:       aggregator,
		Metrics:      m,
		StatusIndex:  statusIndex,
		UsageStore:   usageStore,
		SweepTrigger: sweepTrigger,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		registry:    reg,
		supervisor:  sup,
		sweeper:     sweeper,
		redisClient: redisClient,
	}, nil
}

// loadCatalogue reads the service file when one is configured, else the built-in catalogue.
func loadCatalogue(cfg *config.Config, log logger.Logger) ([]domain.ServiceDescriptor, error) {
	if cfg.ServiceFile == "" {
		log.Info("no service file configured, using built-in catalogue")
		return registry.DefaultCatalogue(registry.NewPortSequence(cfg.BasePort)), nil
	}

	catalogue, err := servicefile.NewLoader(cfg.ServiceFile).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load service file: %w", err)
	}
	descriptors, err := servicefile.NewMapper(cfg.BasePort).MapServices(catalogue)
	if err != nil {
		return nil, fmt.Errorf("invalid service file %s: %w", cfg.ServiceFile, err)
	}
	log.Info("service file loaded", logger.String("file", cfg.ServiceFile))
	return descriptors, nil
}

// Run boots the backends in order, then serves until a signal arrives.
func (a *App) Run() error {
	a.logger.Infof("🚀 Starting %s v%s on %s", version.Title, version.Version, a.cfg.ListenPort)
	a.logger.Infof("%s %s (commit=%s, built=%s, go=%s)",
		version.Title, version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.closeRedis()

	if a.cfg.SkipAutostart {
		a.logger.Info("autostart disabled, services are expected to be running")
	} else if err := a.supervisor.EnsureAll(ctx, a.registry.All()); err != nil {
		a.shutdownServices()
		if errors.Is(err, context.Canceled) {
			a.logger.Info("boot interrupted")
			return nil
		}
		return fmt.Errorf("failed to boot services: %w", err)
	}

	a.sweeper.Start(ctx)
	a.logger.Info("health sweeper started",
		logger.Duration("interval", a.cfg.HealthInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	a.sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.shutdownServices()

	if runErr == nil {
		a.logger.Infof("✅ %s stopped cleanly", version.Title)
	}
	return runErr
}

func (a *App) shutdownServices() {
	if err := a.supervisor.Shutdown(); err != nil {
		a.logger.Warn("failed to terminate services", logger.Error(err))
	}
}

func (a *App) closeRedis() {
	if a.redisClient != nil {
		utils.MustClose(a.redisClient, "redis", a.logger)
	}
	_ = a.logger.Sync()
}
