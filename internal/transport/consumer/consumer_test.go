package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corray333/backend-labs/grocery/internal/dal/rabbitmq"
	"github.com/corray333/backend-labs/grocery/internal/service/services/notifysvc"
)

type fakeBroker struct {
	exchange rabbitmq.DeclareExchangeConfig
	queue    rabbitmq.DeclareQueueConfig
	bound    [3]string
	prefetch int
	msgs     chan amqp.Delivery
}

func (b *fakeBroker) DeclareExchange(cfg rabbitmq.DeclareExchangeConfig) error {
	b.exchange = cfg

	return nil
}

func (b *fakeBroker) DeclareQueue(cfg rabbitmq.DeclareQueueConfig) (amqp.Queue, error) {
	b.queue = cfg

	return amqp.Queue{Name: cfg.Name}, nil
}

func (b *fakeBroker) BindQueue(queue, routingKey, exchange string) error {
	b.bound = [3]string{queue, routingKey, exchange}

	return nil
}

func (b *fakeBroker) Qos(prefetch int) error {
	b.prefetch = prefetch

	return nil
}

func (b *fakeBroker) Consume(rabbitmq.ConsumeConfig) (<-chan amqp.Delivery, error) {
	return b.msgs, nil
}

type settlement struct {
	tag     uint64
	acked   bool
	requeue bool
}

type fakeAcknowledger struct {
	mu      sync.Mutex
	settled []settlement
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settled = append(a.settled, settlement{tag: tag, acked: true})

	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settled = append(a.settled, settlement{tag: tag, requeue: requeue})

	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *fakeAcknowledger) byTag() map[uint64]settlement {
	a.mu.Lock()
	defer a.mu.Unlock()
	result := make(map[uint64]settlement, len(a.settled))
	for _, s := range a.settled {
		result[s.tag] = s
	}

	return result
}

type scriptedService struct {
	results map[string]error
}

func (s scriptedService) HandleDelivery(_ context.Context, d notifysvc.Delivery) error {
	return s.results[d.MessageID]
}

func setupConfig(t *testing.T) {
	t.Helper()
	viper.Set("rabbitmq.queue", "notify.orders")
	viper.Set("rabbitmq.exchange", "orders.events")
	viper.Set("rabbitmq.concurrency", 4)
	t.Cleanup(viper.Reset)
}

func TestNewConsumerDeclaresTopology(t *testing.T) {
	setupConfig(t)
	b := &fakeBroker{}

	c := NewConsumer(b, scriptedService{})

	assert.Equal(t, "orders.events", b.exchange.Name)
	assert.Equal(t, amqp.ExchangeFanout, b.exchange.Kind)
	assert.True(t, b.queue.Durable)
	assert.Equal(t, [3]string{"notify.orders", "", "orders.events"}, b.bound)
	assert.Equal(t, 4, b.prefetch)
	assert.Equal(t, "notify-svc", c.consumerTag)
}

func TestNewConsumerRequiresQueue(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("rabbitmq.exchange", "orders.events")

	assert.Panics(t, func() { NewConsumer(&fakeBroker{}, scriptedService{}) })
}

func TestRunSettlesMessages(t *testing.T) {
	setupConfig(t)
	b := &fakeBroker{msgs: make(chan amqp.Delivery, 3)}
	ack := &fakeAcknowledger{}
	svc := scriptedService{results: map[string]error{
		"bad":   notifysvc.ErrMalformedEvent,
		"retry": errors.New("db down"),
	}}
	c := NewConsumer(b, svc)

	b.msgs <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, MessageId: "ok"}
	b.msgs <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, MessageId: "bad"}
	b.msgs <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 3, MessageId: "retry"}
	close(b.msgs)

	require.NoError(t, c.Run(context.Background()))

	settled := ack.byTag()
	require.Len(t, settled, 3)
	assert.True(t, settled[1].acked)
	assert.False(t, settled[2].acked)
	assert.False(t, settled[2].requeue)
	assert.False(t, settled[3].acked)
	assert.True(t, settled[3].requeue)
}

func TestShutdownStopsRun(t *testing.T) {
	setupConfig(t)
	b := &fakeBroker{msgs: make(chan amqp.Delivery)}
	c := NewConsumer(b, scriptedService{})

	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(context.Background()) }()

	require.NoError(t, c.Shutdown())
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}
