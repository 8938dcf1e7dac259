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
	"time"

	"github.com/bibbank/fintrack/internal/application/usecase"
	"github.com/bibbank/fintrack/internal/domain/service"
	"github.com/bibbank/fintrack/internal/infrastructure/config"
	"github.com/bibbank/fintrack/internal/infrastructure/kafka"
	"github.com/bibbank/fintrack/internal/infrastructure/metrics"
	pgRepo "github.com/bibbank/fintrack/internal/infrastructure/postgres"
	grpcPresentation "github.com/bibbank/fintrack/internal/presentation/grpc"
	"github.com/bibbank/fintrack/internal/presentation/rest"
	"github.com/bibbank/fintrack/pkg/auth"
	pkgkafka "github.com/bibbank/fintrack/pkg/kafka"
	"github.com/bibbank/fintrack/pkg/observability"
	pkgpostgres "github.com/bibbank/fintrack/pkg/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:       cfg.Telemetry.LogLevel,
		Format:      cfg.Telemetry.LogFormat,
		ServiceName: cfg.ServiceName,
	})

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("fintrackd stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("starting fintrackd",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	// Tracing is optional; the service keeps running without a collector.
	if cfg.Telemetry.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			SampleRatio: cfg.Telemetry.SampleRatio,
			Insecure:    cfg.Telemetry.OTLPInsecure,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
		}
	}

	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }() //nolint:errcheck

	serviceMetrics, err := metrics.NewOTelMetrics(meterProvider)
	if err != nil {
		return fmt.Errorf("register instruments: %w", err)
	}

	// Database connection and schema.
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pgCfg := cfg.DB.Postgres()
	pool, err := pkgpostgres.NewPool(dbCtx, pgCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := pgRepo.Migrate(pgCfg.DSN()); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Infrastructure adapters.
	loanRepo := pgRepo.NewLoanRepo(pool)
	paymentRepo := pgRepo.NewPaymentRepo(pool)

	kafkaCfg := cfg.Kafka.Client()
	producer, err := pkgkafka.NewProducer(kafkaCfg)
	if err != nil {
		return fmt.Errorf("create kafka producer: %w", err)
	}
	defer producer.Close()
	publisher := kafka.NewEventPublisher(producer, cfg.Kafka.EventsTopic, logger)

	builder := service.NewLoanAggregateBuilder(paymentRepo, logger,
		service.WithConcurrency(cfg.BuildConcurrency),
		service.WithMetrics(serviceMetrics),
	)

	// Use cases.
	useCases := grpcPresentation.UseCases{
		CreateLoan:    usecase.NewCreateLoanUseCase(loanRepo, publisher, serviceMetrics),
		RecordPayment: usecase.NewRecordPaymentUseCase(loanRepo, paymentRepo, publisher, serviceMetrics),
		GetLoan:       usecase.NewGetLoanUseCase(loanRepo, builder),
		ListLoans:     usecase.NewListLoansUseCase(loanRepo, builder),
		GetSchedule:   usecase.NewGetScheduleUseCase(loanRepo),
		DeleteLoan:    usecase.NewDeleteLoanUseCase(loanRepo, publisher),
		CalculateLoan: usecase.NewCalculateLoanUseCase(),
	}

	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:       cfg.Auth.JWTSecret,
		PublicKeyPEM: cfg.Auth.JWTPublicKeyPEM,
		Issuer:       cfg.Auth.Issuer,
		Expiration:   cfg.Auth.TokenTTL,
	})
	if err != nil {
		return fmt.Errorf("initialize JWT service: %w", err)
	}

	// gRPC server.
	handler := grpcPresentation.NewLoanHandler(useCases, logger)
	grpcServer, err := grpcPresentation.NewServer(grpcPresentation.ServerConfig{
		ServiceName: cfg.ServiceName,
		TLSCertFile: cfg.TLSCertFile,
		TLSKeyFile:  cfg.TLSKeyFile,
		Reflection:  cfg.GRPCReflection,
	}, handler, jwtSvc, logger)
	if err != nil {
		return fmt.Errorf("create gRPC server: %w", err)
	}

	// HTTP server (health checks and metrics).
	mux := http.NewServeMux()
	rest.NewHealthHandler(cfg.ServiceName, pool, logger).RegisterRoutes(mux, metricsHandler)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start servers.
	errCh := make(chan error, 3)

	go func() {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	if cfg.Kafka.ImportsEnabled {
		importHandler := kafka.NewPaymentImportHandler(useCases.RecordPayment, logger)
		consumer, err := pkgkafka.NewConsumer(kafkaCfg, cfg.Kafka.ImportsTopic, importHandler.Handle, logger)
		if err != nil {
			return fmt.Errorf("create payment import consumer: %w", err)
		}
		defer consumer.Close()

		go func() {
			if err := consumer.Start(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("payment import consumer error: %w", err)
			}
		}()
	}

	// Wait for shutdown signal.
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	// Graceful shutdown.
	stopConsumer()
	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("fintrackd stopped")
	return runErr
}
