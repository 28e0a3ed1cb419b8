package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"FXAdvisor/internal/usecase"
	pkgch "FXAdvisor/pkg/clickhouse"
	"FXAdvisor/pkg/config"
	xhttp "FXAdvisor/pkg/http"
	pkgkafka "FXAdvisor/pkg/kafka"
	applogger "FXAdvisor/pkg/logger"

	"github.com/robfig/cron/v3"
)

// App encapsulates the application lifecycle: HTTP server, quote
// collector, Kafka consumer, and the cron jobs that keep features and
// news fresh.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	collector   *usecase.RateCollector
	consumer    *pkgkafka.Consumer
	handlers    []pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	featurizer  *usecase.Featurizer
	ingester    *usecase.NewsIngester
	cron        *cron.Cron
	TickProc    *usecase.TickProcessor
}

// New creates an App with all dependencies wired.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.RateCollector,
	consumer *pkgkafka.Consumer,
	handlers []pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
	featurizer *usecase.Featurizer,
	ingester *usecase.NewsIngester,
) *App {
	return &App{
		cfg:         cfg,
		logger:      log,
		collector:   collector,
		consumer:    consumer,
		handlers:    handlers,
		chClient:    chClient,
		httpHandler: httpHandler,
		featurizer:  featurizer,
		ingester:    ingester,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("rate collector started", applogger.Strings("pairs", a.cfg.RateStream.Pairs))
	}

	if a.consumer != nil && len(a.handlers) > 0 {
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
		}
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.Int("handlers", len(a.handlers)))
	}

	if err := a.startCron(ctx); err != nil {
		return err
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// startCron schedules feature materialization and news ingestion.
func (a *App) startCron(ctx context.Context) error {
	if a.featurizer == nil && a.ingester == nil {
		return nil
	}
	a.cron = cron.New()

	if a.featurizer != nil && a.cfg.Features.Cron != "" {
		if _, err := a.cron.AddFunc(a.cfg.Features.Cron, func() {
			if err := a.featurizer.Run(ctx); err != nil {
				a.logger.Warn("featurizer run error", applogger.Error(err))
			}
		}); err != nil {
			return err
		}
		a.logger.Info("featurizer scheduled", applogger.String("cron", a.cfg.Features.Cron))
	}

	if a.ingester != nil && a.cfg.News.Enabled && a.cfg.News.Cron != "" {
		if _, err := a.cron.AddFunc(a.cfg.News.Cron, func() {
			if err := a.ingester.Run(ctx); err != nil {
				a.logger.Warn("news ingester run error", applogger.Error(err))
			}
		}); err != nil {
			return err
		}
		a.logger.Info("news ingester scheduled", applogger.String("cron", a.cfg.News.Cron))
	}

	a.cron.Start()
	return nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger
	l.Info("shutting down...")

	if a.cron != nil {
		<-a.cron.Stop().Done()
	}

	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.TickProc != nil {
		a.TickProc.Close()
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
