package order

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"

	"github.com/corray333/backend-labs/grocery/internal/config"
	"github.com/corray333/backend-labs/grocery/internal/dal/cache"
	"github.com/corray333/backend-labs/grocery/internal/dal/postgres"
	"github.com/corray333/backend-labs/grocery/internal/dal/rabbitmq"
	outboxrepo "github.com/corray333/backend-labs/grocery/internal/dal/repositories/outbox/postgres"
	"github.com/corray333/backend-labs/grocery/internal/otel"
	"github.com/corray333/backend-labs/grocery/internal/service/services/couponsvc"
	"github.com/corray333/backend-labs/grocery/internal/service/services/ordersvc"
	grpctransport "github.com/corray333/backend-labs/grocery/internal/transport/grpc"
	httptransport "github.com/corray333/backend-labs/grocery/internal/transport/http"
	outboxworker "github.com/corray333/backend-labs/grocery/internal/worker/outbox"
	"github.com/corray333/backend-labs/grocery/pkg/http/middleware/auth"
)

const serviceName = "order-svc"

// App represents the order application.
type App struct {
	transport      *httptransport.HTTPTransport
	grpcTransport  *grpctransport.GRPCTransport
	outboxWorker   *outboxworker.Worker
	orderCache     *cache.OrderCache
	rabbitMqClient *rabbitmq.Client
	postgresClient *postgres.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel(serviceName)
	postgresClient := postgres.MustNewClient("ORDER")
	rabbitMqClient := rabbitmq.MustNewClient()

	exchange := viper.GetString("rabbitmq.exchange")
	if err := rabbitMqClient.DeclareExchange(rabbitmq.DeclareExchangeConfig{
		Name:    exchange,
		Kind:    amqp.ExchangeFanout,
		Durable: true,
	}); err != nil {
		panic(err)
	}

	var orderCache *cache.OrderCache
	if viper.GetBool("redis.enabled") {
		orderCache = cache.MustNewOrderCache()
	}

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
		ordersvc.WithPricingConfig(config.MustPricingConfig()),
		ordersvc.WithEventsConfig(ordersvc.EventsConfig{
			Exchange:   exchange,
			MaxRetries: viper.GetInt("rabbitmq.outbox.max_retries"),
		}),
		withOrderCache(orderCache),
	)
	couponSvc := couponsvc.MustNewCouponService(couponsvc.WithPostgresClient(postgresClient))

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET is not set")
	}

	transport := httptransport.NewHTTPTransport(orderSvc, couponSvc, auth.NewAuthenticator(secret))
	transport.RegisterRoutes()

	outboxWorker := outboxworker.NewWorker(
		outboxrepo.NewOutboxRepository(postgresClient.Pool()),
		rabbitMqClient,
	)

	return &App{
		transport:      transport,
		grpcTransport:  grpctransport.NewGRPCTransport(),
		outboxWorker:   outboxWorker,
		orderCache:     orderCache,
		rabbitMqClient: rabbitMqClient,
		postgresClient: postgresClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		if err := a.grpcTransport.Run(); err != nil {
			slog.Error("gRPC server error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting outbox worker")
		a.outboxWorker.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown stops the servers first, then the worker, then the
// infrastructure clients.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.grpcTransport.Shutdown(ctx); err != nil {
		slog.Error("gRPC server shutdown error", "error", err)
	} else {
		slog.Info("gRPC server stopped gracefully")
	}

	a.outboxWorker.Stop()

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	if a.orderCache != nil {
		if err := a.orderCache.Close(); err != nil {
			slog.Error("Redis connection close error", "error", err)
		}
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(ctx); err != nil {
		slog.Error("Otel trace provider shutdown error", "error", err)
	}

	slog.Info("Application shutdown complete")
}

// withOrderCache enables read-through caching only when Redis is configured.
func withOrderCache(c *cache.OrderCache) func(*ordersvc.OrderService) {
	if c == nil {
		return func(*ordersvc.OrderService) {}
	}

	return ordersvc.WithOrderCache(c)
}
