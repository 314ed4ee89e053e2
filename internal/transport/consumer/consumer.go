package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/corray333/backend-labs/grocery/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/grocery/internal/service/services/notifysvc"
)

const defaultConcurrency = 50

// service represents the service layer interface.
type service interface {
	HandleDelivery(ctx context.Context, d notifysvc.Delivery) error
}

// broker is the subset of the RabbitMQ client the consumer needs.
type broker interface {
	DeclareExchange(cfg rabbitmq.DeclareExchangeConfig) error
	DeclareQueue(cfg rabbitmq.DeclareQueueConfig) (amqp.Queue, error)
	BindQueue(queue, routingKey, exchange string) error
	Qos(prefetch int) error
	Consume(cfg rabbitmq.ConsumeConfig) (<-chan amqp.Delivery, error)
}

// Consumer represents the RabbitMQ consumer transport.
type Consumer struct {
	client      broker
	service     service
	queue       amqp.Queue
	consumerTag string
	concurrency int
	stop        chan struct{}
	done        chan struct{}
}

// NewConsumer declares the order events topology and creates a new Consumer.
func NewConsumer(client broker, service service) *Consumer {
	queueName := viper.GetString("rabbitmq.queue")
	if queueName == "" {
		panic("rabbitmq.queue is not set in config")
	}
	exchange := viper.GetString("rabbitmq.exchange")
	if exchange == "" {
		panic("rabbitmq.exchange is not set in config")
	}

	if err := client.DeclareExchange(rabbitmq.DeclareExchangeConfig{
		Name:    exchange,
		Kind:    amqp.ExchangeFanout,
		Durable: true,
	}); err != nil {
		panic(fmt.Sprintf("failed to declare exchange: %v", err))
	}

	queue, err := client.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    queueName,
		Durable: true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to declare queue: %v", err))
	}

	if err := client.BindQueue(queue.Name, "", exchange); err != nil {
		panic(fmt.Sprintf("failed to bind queue: %v", err))
	}

	concurrency := viper.GetInt("rabbitmq.concurrency")
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if err := client.Qos(concurrency); err != nil {
		panic(fmt.Sprintf("failed to set qos: %v", err))
	}

	consumerTag := viper.GetString("rabbitmq.consumer_tag")
	if consumerTag == "" {
		consumerTag = "notify-svc"
	}

	return &Consumer{
		client:      client,
		service:     service,
		queue:       queue,
		consumerTag: consumerTag,
		concurrency: concurrency,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Run starts consuming messages from RabbitMQ and blocks until the consumer
// is shut down or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.client.Consume(rabbitmq.ConsumeConfig{
		Queue:    c.queue.Name,
		Consumer: c.consumerTag,
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("Consumer started", "queue", c.queue.Name, "consumer_tag", c.consumerTag)

	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.SetLimit(c.concurrency)

	go func() {
		defer close(c.done)
		for {
			select {
			case <-c.stop:
				slog.Info("Stopping consumer")

				return
			case msg, ok := <-msgs:
				if !ok {
					slog.Info("Message channel closed")

					return
				}

				g.Go(func() error {
					c.processMessage(gctx, msg)

					return nil
				})
			}
		}
	}()

	<-c.done

	return g.Wait()
}

// processMessage hands one delivery to the service and settles it.
// Malformed messages are dropped, everything else is requeued.
func (c *Consumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	ctx, span := otel.Tracer("consumer").Start(ctx, "Consumer.processMessage")
	defer span.End()

	err := c.service.HandleDelivery(ctx, notifysvc.Delivery{
		MessageID:   msg.MessageId,
		Queue:       c.queue.Name,
		RoutingKey:  msg.RoutingKey,
		ContentType: msg.ContentType,
		Body:        msg.Body,
	})

	switch {
	case err == nil:
		if err := msg.Ack(false); err != nil {
			slog.ErrorContext(ctx, "Failed to ack message", "error", err)
		}
	case errors.Is(err, notifysvc.ErrMalformedEvent):
		slog.WarnContext(ctx, "Dropping malformed message", "message_id", msg.MessageId, "error", err)
		if err := msg.Nack(false, false); err != nil {
			slog.ErrorContext(ctx, "Failed to nack message", "error", err)
		}
	default:
		span.RecordError(err)
		slog.ErrorContext(ctx, "Failed to process message", "message_id", msg.MessageId, "error", err)
		if err := msg.Nack(false, true); err != nil {
			slog.ErrorContext(ctx, "Failed to nack message", "error", err)
		}
	}
}

// Shutdown gracefully shuts down the consumer.
func (c *Consumer) Shutdown() error {
	slog.Info("Shutting down consumer")
	close(c.stop)

	select {
	case <-c.done:
		slog.Info("Consumer stopped successfully")
	case <-time.After(10 * time.Second):
		slog.Warn("Consumer shutdown timeout")
	}

	return nil
}
