package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	_ "github.com/cartridge/replay/internal/codec"
	"github.com/cartridge/replay/internal/config"
	"github.com/cartridge/replay/internal/events"
	"github.com/cartridge/replay/internal/health"
	httpServer "github.com/cartridge/replay/internal/http"
	"github.com/cartridge/replay/internal/metrics"
	"github.com/cartridge/replay/internal/service"
	"github.com/cartridge/replay/internal/spec"
	"github.com/cartridge/replay/internal/storage"
	replayv1 "github.com/cartridge/replay/pkg/api/replay/v1"
)

var rootCmd = &cobra.Command{
	Use:   "replay",
	Short: "Cartridge replay buffer service",
	Long: `Replay service that stores fixed-structure step records in a
uniform circular buffer and serves uniform random samples for training.

Producers append one record per row with AddBatch; learners draw single
steps or contiguous windows with Sample and SampleStream.`,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	config.DefaultServer().RegisterFlags(rootCmd.Flags())
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServer(viper.New(), cmd.Flags())
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)

	dataSpec, err := spec.LoadFile(cfg.SpecFile)
	if err != nil {
		return fmt.Errorf("load data spec: %w", err)
	}

	var opts []storage.Option
	if cfg.Seed != 0 {
		opts = append(opts, storage.WithRand(rand.New(rand.NewSource(cfg.Seed))))
	}
	backend, err := storage.NewUniformBuffer(dataSpec, cfg.BatchSize, cfg.Capacity, opts...)
	if err != nil {
		return fmt.Errorf("create buffer: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing backend")
		}
	}()

	logger.Info().
		Str("spec", dataSpec.String()).
		Int("batch_size", cfg.BatchSize).
		Int("capacity", cfg.Capacity).
		Int("record_bytes", dataSpec.RecordBytes()).
		Msg("Replay buffer created")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(logger, reg)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATS.URL != "" {
		nats, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, logger)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		defer nats.Close()
		publisher = nats
		logger.Info().Str("url", cfg.NATS.URL).Str("subject", cfg.NATS.Subject).Msg("Publishing buffer events")
	}

	replayService := service.NewReplayService(backend, collector, publisher, logger,
		service.WithMaxSampleBatchSize(cfg.MaxSampleBatchSize))

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(loggingInterceptor(logger)),
		grpc.ChainStreamInterceptor(streamLoggingInterceptor(logger)),
	)
	replayv1.RegisterReplayServer(grpcServer, replayService)

	healthServer := grpchealth.NewServer()
	healthServer.SetServingStatus(replayv1.Replay_ServiceDesc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	// Enable reflection for development
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.GRPCAddr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", lis.Addr().String()).Msg("Replay gRPC service listening")
		return grpcServer.Serve(lis)
	})

	monitor := health.NewMonitor(backend, collector, publisher, health.Config{CheckInterval: cfg.Health.CheckInterval}, logger)

	var httpSrv *http.Server
	if cfg.HTTPAddr != "" {
		admin := httpServer.NewServer(replayService, collector, reg, httpServer.Options{
			RateLimit: cfg.RateLimit,
			RateBurst: cfg.RateBurst,
			Fill:      monitor,
		}, logger)
		httpSrv = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           admin.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
		}
		g.Go(func() error {
			logger.Info().Str("addr", cfg.HTTPAddr).Msg("Replay admin HTTP server starting")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		monitor.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down gracefully...")
		healthServer.Shutdown()
		shutdown(logger, grpcServer, httpSrv, cfg.ShutdownTimeout)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	logger.Info().Msg("Replay service stopped")
	return nil
}

func shutdown(logger zerolog.Logger, grpcServer *grpc.Server, httpSrv *http.Server, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if httpSrv != nil {
		if err := httpSrv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("HTTP graceful shutdown failed")
		}
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		logger.Warn().Msg("Shutdown timeout exceeded, forcing stop")
		grpcServer.Stop()
	case <-stopped:
		logger.Info().Msg("gRPC server stopped gracefully")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Str("service", "replay").Logger()
}

// loggingInterceptor logs gRPC requests
func loggingInterceptor(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		logRPC(logger, info.FullMethod, time.Since(start), err)
		return resp, err
	}
}

// streamLoggingInterceptor logs streaming gRPC requests once they end
func streamLoggingInterceptor(logger zerolog.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := handler(srv, ss)
		logRPC(logger, info.FullMethod, time.Since(start), err)
		return err
	}
}

func logRPC(logger zerolog.Logger, method string, duration time.Duration, err error) {
	code := status.Code(err)
	event := logger.Debug()
	if err != nil {
		event = logger.Warn().Err(err)
	}
	event.
		Str("method", method).
		Str("code", code.String()).
		Dur("duration", duration).
		Msg("gRPC request")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
