package notify

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/corray333/backend-labs/grocery/internal/dal/postgres"
	"github.com/corray333/backend-labs/grocery/internal/dal/rabbitmq"
	inboxrepo "github.com/corray333/backend-labs/grocery/internal/dal/repositories/inbox/postgres"
	"github.com/corray333/backend-labs/grocery/internal/otel"
	"github.com/corray333/backend-labs/grocery/internal/service/services/notifysvc"
	"github.com/corray333/backend-labs/grocery/internal/transport/consumer"
	"github.com/corray333/backend-labs/grocery/internal/transport/ws"
	inboxworker "github.com/corray333/backend-labs/grocery/internal/worker/inbox"
)

const serviceName = "notify-svc"

// App represents the notification application.
type App struct {
	consumerTransp *consumer.Consumer
	wsTransport    *ws.WSTransport
	inboxWorker    *inboxworker.Worker
	rabbitMqClient *rabbitmq.Client
	postgresClient *postgres.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel(serviceName)
	rabbitMqClient := rabbitmq.MustNewClient()
	postgresClient := postgres.MustNewClient("NOTIFY")

	inboxRepository := inboxrepo.NewInboxRepository(postgresClient.Pool())
	hub := ws.NewHub(viper.GetInt("server.ws.send_buffer"))

	notifySvc := notifysvc.MustNewNotifyService(
		notifysvc.WithInboxRepository(inboxRepository),
		notifysvc.WithHub(hub),
	)

	wsTransport := ws.NewWSTransport(hub)
	wsTransport.RegisterRoutes()

	return &App{
		consumerTransp: consumer.NewConsumer(rabbitMqClient, notifySvc),
		wsTransport:    wsTransport,
		inboxWorker:    inboxworker.NewWorker(inboxRepository),
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
		slog.Info("Starting WebSocket server")
		if err := a.wsTransport.Run(); err != nil {
			slog.Error("WebSocket server error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting consumer")
		if err := a.consumerTransp.Run(ctx); err != nil {
			slog.Error("Consumer error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting inbox worker")
		a.inboxWorker.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown performs graceful shutdown of all application components:
// consumer first so no new notifications arrive, then sockets and storage.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.inboxWorker.Stop()

	if err := a.consumerTransp.Shutdown(); err != nil {
		slog.Error("Consumer shutdown error", "error", err)
	} else {
		slog.Info("Consumer stopped gracefully")
	}

	if err := a.wsTransport.Shutdown(ctx); err != nil {
		slog.Error("WebSocket server shutdown error", "error", err)
	} else {
		slog.Info("WebSocket server stopped gracefully")
	}

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()

	if err := a.otelController.Shutdown(ctx); err != nil {
		slog.Error("Otel trace provider shutdown error", "error", err)
	}

	select {
	case <-ctx.Done():
		slog.Warn("Shutdown timeout exceeded")
	default:
		slog.Info("Application shutdown complete")
	}
}
