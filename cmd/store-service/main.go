package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jcmexdev/nutrition-store/internal/config"
	"github.com/jcmexdev/nutrition-store/internal/pkg/cache"
	"github.com/jcmexdev/nutrition-store/internal/pkg/interceptors"
	"github.com/jcmexdev/nutrition-store/internal/pkg/telemetry"
	"github.com/jcmexdev/nutrition-store/internal/store-service/adapters/httpx"
	"github.com/jcmexdev/nutrition-store/internal/store-service/adapters/httpx/middlewares"
	"github.com/jcmexdev/nutrition-store/internal/store-service/adapters/notify"
	"github.com/jcmexdev/nutrition-store/internal/store-service/adapters/sqlstore"
	"github.com/jcmexdev/nutrition-store/internal/store-service/app"
	"github.com/jcmexdev/nutrition-store/internal/store-service/ports"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load(getEnv("CONFIG_DIR", "configs"), os.Getenv("APP_ENV"))
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, logCloser := telemetry.InitLogger(cfg.App.LogLevel, cfg.App.LogFile)
	defer logCloser.Close()

	if err := run(cfg, logger); err != nil {
		slog.Error("store service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.SetupTracer(ctx, cfg.App.Name, cfg.Telemetry.Endpoint, cfg.App.Env)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("tracer shutdown error", "error", err)
			}
		}()
	}

	store, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return err
	}
	defer store.Close()

	hub := notify.NewHub(originChecker(cfg.Notify.Websocket.AllowedOrigins))
	defer hub.Close()

	notifier, closers, err := buildNotifier(cfg, logger, hub)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	opts := []app.Option{}
	if balance, _ := cfg.InitialBalance(); !balance.IsZero() {
		opts = append(opts, app.WithInitialBalance(balance))
	}
	if cfg.Redis.Enabled {
		redisCache := cache.NewRedisCache(cache.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			ServiceName: cfg.App.Name,
		})
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			slog.Warn("redis unreachable, checkout idempotency degraded", "addr", cfg.Redis.Addr, "error", err)
		}
		opts = append(opts, app.WithCache(redisCache, cfg.Idempotency.TTL))
	}

	dispatcher := app.NewDispatcher(notifier, cfg.Notify.Timeout)
	// The first low-stock check runs on the first stock change after start.
	monitor := app.NewLowStockMonitor(time.Now().Add(-cfg.Inventory.CheckInterval),
		cfg.Inventory.CheckInterval, cfg.Inventory.LowStockThreshold)
	svc := app.NewService(store, dispatcher, monitor, opts...)

	var feed http.Handler
	if cfg.HasSink(config.SinkWebsocket) {
		feed = hub
	}
	router := httpx.NewRouter(httpx.NewHandler(svc), httpx.RouterOptions{
		Auth: middlewares.NewAuthenticator(middlewares.AuthConfig{
			Secret:   cfg.Security.JWTSecret,
			Issuer:   cfg.Security.Issuer,
			Audience: cfg.Security.Audience,
		}),
		Feed: feed,
		DB:   store,
	})

	httpServer := &http.Server{
		Addr:         cfg.App.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// The gRPC listener serves grpc.health.v1 only, so the interceptors see
	// health checks and nothing else. Business calls go through HTTP.
	healthSrv := health.NewServer()
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.UnaryServerInterceptor(),
			interceptors.TraceServerInterceptor(),
		),
	)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)

	errCh := make(chan error, 2)
	go func() {
		slog.Info("store service http running", "addr", cfg.App.HTTPAddr, "driver", cfg.Database.Driver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if cfg.App.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.App.GRPCAddr)
		if err != nil {
			return err
		}
		go func() {
			slog.Info("store service grpc health running", "addr", cfg.App.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		slog.Error("server failed", "error", err)
	}

	healthSrv.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	grpcServer.GracefulStop()

	// Let in-flight notifications reach the sinks before they close.
	dispatcher.Wait()
	return nil
}

// buildNotifier fans out to every configured sink. The returned closers
// release broker connections.
func buildNotifier(cfg config.Config, logger *slog.Logger, hub *notify.Hub) (ports.Notifier, []io.Closer, error) {
	var sinks notify.Fanout
	var closers []io.Closer

	for _, name := range cfg.Notify.Sinks {
		switch name {
		case config.SinkLog:
			sinks = append(sinks, notify.NewLogNotifier(logger.With("component", "notify")))
		case config.SinkWebsocket:
			sinks = append(sinks, hub)
		case config.SinkRabbitMQ:
			conn, ch, err := notify.DialRabbit(cfg.Notify.RabbitMQ.URL)
			if err != nil {
				return nil, closers, err
			}
			closers = append(closers, conn)
			n, err := notify.NewRabbitNotifier(ch, cfg.Notify.RabbitMQ.Exchange)
			if err != nil {
				return nil, closers, err
			}
			sinks = append(sinks, n)
		case config.SinkKafka:
			producer, err := notify.NewKafkaProducer(cfg.Notify.Kafka.Brokers)
			if err != nil {
				return nil, closers, err
			}
			n := notify.NewKafkaNotifier(producer, cfg.Notify.Kafka.Topic)
			closers = append(closers, n)
			sinks = append(sinks, n)
		}
	}
	slog.Info("notification sinks ready", "sinks", cfg.Notify.Sinks)
	return sinks, closers, nil
}

// originChecker allows the listed origins. With none listed gorilla's
// same-origin check applies.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		return slices.Contains(allowed, r.Header.Get("Origin"))
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
