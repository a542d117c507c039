package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/orders-service/internal/catalog"
	"github.com/xenking/orders-service/internal/domain/order"
	"github.com/xenking/orders-service/internal/endpoint"
	"github.com/xenking/orders-service/internal/repository"
	"github.com/xenking/orders-service/pkg/health"
)

// Run creates all dependencies, starts the bus consumer and the probe server,
// and handles graceful shutdown. It is the single wiring point for the
// service.
func Run(ctx context.Context, lg *zap.Logger, _ *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.Strings("bus_servers", cfg.NatsServers),
		zap.String("probe_addr", cfg.Addr))

	// PostgreSQL pool + schema.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return errors.Wrap(err, "ping database")
	}
	lg.Info("Database connected")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Message bus connection.
	conn, err := nats.Connect(strings.Join(cfg.NatsServers, ","),
		nats.Name("orders-service"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return errors.Wrap(err, "connect bus")
	}
	defer conn.Close()
	lg.Info("Bus connected", zap.String("server", conn.ConnectedUrl()))

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadiness("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddReadiness("bus", time.Second, func(_ context.Context) error {
		if !conn.IsConnected() {
			return errors.New("bus connection down")
		}
		return nil
	})
	healthSvc.AddLiveness("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)

	// Repositories, clients, workflow service.
	orderRepo := repository.NewOrderRepository(pool)
	catalogClient := catalog.NewClient(conn)
	orderService := order.NewService(orderRepo, catalogClient, lg.Named("orders"))

	// Endpoint layer: queue subscriptions per command subject.
	ep := endpoint.New(orderService)
	if err := ep.Start(zctx.Base(ctx, lg), conn); err != nil {
		return errors.Wrap(err, "start endpoint")
	}
	healthSvc.SetReady(true)
	lg.Info("Consuming order commands", zap.Strings("subjects", endpoint.Subjects()))

	// Probe server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		Addr:              cfg.Addr,
		Handler:           mux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "probe server")
		}
		return nil
	})
	g.Go(func() error {
		// Graceful shutdown: readiness false, drain the bus, then stop HTTP.
		<-gctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		if err := conn.Drain(); err != nil {
			lg.Error("Bus drain error", zap.Error(err))
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Probe server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		return nil
	})
	return g.Wait()
}
