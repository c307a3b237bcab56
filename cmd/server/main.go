package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"credentia/internal/eventlog"
	"credentia/internal/ledger/handler"
	"credentia/internal/ledger/metrics"
	"credentia/internal/ledger/notify"
	"credentia/internal/ledger/publisher"
	"credentia/internal/ledger/service"
	"credentia/internal/ledger/store"
	"credentia/internal/platform/config"
	"credentia/internal/platform/health"
	"credentia/internal/platform/kafka"
	"credentia/internal/platform/kafka/producer"
	"credentia/internal/platform/logger"
	"credentia/internal/platform/tracer"
	"credentia/pkg/platform/middleware/request"
	"credentia/pkg/platform/middleware/requesttime"
	"credentia/pkg/validation"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Ledger logic lives in internal/ledger.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("initializing credentia",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"issue_delay", cfg.Ledger.IssueDelay,
		"verify_delay", cfg.Ledger.VerifyDelay,
		"kafka_enabled", cfg.Kafka.Enabled(),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	eventOpts := []eventlog.Option{
		eventlog.WithCapacity(cfg.Ledger.EventLogCapacity),
		eventlog.WithLogger(log),
	}
	serviceOpts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(metrics.New(reg)),
		service.WithTracer(tracer.NewOTel()),
		service.WithIssueDelay(cfg.Ledger.IssueDelay),
		service.WithVerifyDelay(cfg.Ledger.VerifyDelay),
		service.WithNotifier(notify.NewLogNotifier(log)),
	}

	var checkers []health.Checker
	if cfg.Kafka.Enabled() {
		kafkaProducer, err := producer.New(producer.DefaultConfig(cfg.Kafka.Brokers), log)
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		defer closeProducer(kafkaProducer, cfg, log)

		eventOpts = append(eventOpts,
			eventlog.WithArchiver(publisher.NewLogArchiver(kafkaProducer, cfg.Kafka.EventsTopic)))
		serviceOpts = append(serviceOpts,
			service.WithPublisher(publisher.NewCredentialPublisher(kafkaProducer, cfg.Kafka.CredentialsTopic)))
		checkers = append(checkers, kafka.NewHealthChecker(cfg.Kafka.Brokers))
	}

	ledgerStore := store.NewInMemoryStore(store.WithBaseBlockNumber(cfg.Ledger.BaseBlockNumber))
	ledger := service.New(ledgerStore, eventlog.New(eventOpts...), serviceOpts...)

	healthHandler := health.New(cfg.Environment, ledger.Size)
	for _, c := range checkers {
		healthHandler.RegisterChecker(c)
	}

	router := newRouter(cfg, log, reg, healthHandler, handler.New(ledger, log))
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.RequestTimeout(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func newRouter(cfg config.Server, log *slog.Logger, reg *prometheus.Registry, healthHandler *health.Handler, ledgerHandler *handler.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(log))
	r.Use(request.Latency(request.NewMetrics(reg)))

	healthHandler.Register(r)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(cfg.RequestTimeout()))
		r.Use(request.BodyLimit(validation.MaxBodySize))
		r.Use(request.ContentTypeJSON)
		ledgerHandler.Register(r)
	})
	return r
}

func closeProducer(p *producer.Producer, cfg config.Server, log *slog.Logger) {
	if err := p.Close(cfg.ShutdownTimeout); err != nil {
		log.Error("failed to flush kafka producer", "error", err)
	}
}
