package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SigPulse/internal/domain/repository"
	"SigPulse/internal/handler/api"
	"SigPulse/internal/usecase"
	"SigPulse/pkg/cache"
	pkgch "SigPulse/pkg/clickhouse"
	"SigPulse/pkg/config"
	xhttp "SigPulse/pkg/http"
	applogger "SigPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	evaluator  *usecase.Evaluator
	handler    xhttp.Handler
	stream     *api.SignalStream
	publisher  repository.SignalPublisher
	store      repository.SignalStore
	chClient   *pkgch.Client
	cacheSvc   cache.Service
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. stream, publisher,
// store and chClient may be nil when the matching integration is disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	evaluator *usecase.Evaluator,
	handler xhttp.Handler,
	stream *api.SignalStream,
	publisher repository.SignalPublisher,
	store repository.SignalStore,
	chClient *pkgch.Client,
	cacheSvc cache.Service,
) *App {
	return &App{
		cfg:       cfg,
		logger:    l,
		evaluator: evaluator,
		handler:   handler,
		stream:    stream,
		publisher: publisher,
		store:     store,
		chClient:  chClient,
		cacheSvc:  cacheSvc,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.store != nil {
		initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := a.store.Init(initCtx); err != nil {
			initCancel()
			return err
		}
		initCancel()
	}

	if a.stream != nil {
		a.evaluator.SetBroadcast(a.stream.Broadcast)
	}

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)

	go func() {
		if err := a.evaluator.Start(ctx); err != nil {
			a.logger.Error("evaluator error", applogger.Error(err))
		}
	}()
	a.logger.Info("engine started",
		applogger.String("pair", a.cfg.Engine.Pair),
		applogger.String("interval", a.cfg.Engine.Interval),
		applogger.Duration("analysis_interval", a.cfg.Engine.AnalysisInterval),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	a.evaluator.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.stream != nil {
		a.stream.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.cacheSvc != nil {
		if err := a.cacheSvc.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
