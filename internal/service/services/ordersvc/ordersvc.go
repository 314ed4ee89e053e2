package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/icatalogrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/icouponrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/istatushistoryrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/postgres"
	"github.com/corray333/backend-labs/grocery/internal/dal/uow"
	"github.com/corray333/backend-labs/grocery/internal/service/apperr"
	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
	"github.com/corray333/backend-labs/grocery/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/grocery/internal/service/pricing"
)

// OrderService is a service for placing orders and driving their lifecycle.
type OrderService struct {
	pgClient  *postgres.Client
	uowSource func() unitOfWork
	cache     orderCache
	pricing   pricing.Config
	events    EventsConfig
	now       func() time.Time
	numbers   func(time.Time) string
	tracer    trace.Tracer
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	StatusHistoryRepository() istatushistoryrepo.IStatusHistoryRepository
	CatalogRepository() icatalogrepo.ICatalogRepository
	CouponRepository() icouponrepo.ICouponRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// orderCache is a read-through cache guarded by a per-order generation: a
// fill is refused when the order was invalidated after the miss.
type orderCache interface {
	Get(ctx context.Context, id uuid.UUID) (order.Order, int64, bool, error)
	SetIfGeneration(ctx context.Context, o order.Order, generation int64) (bool, error)
	Invalidate(ctx context.Context, id uuid.UUID) error
}

const orderNumberAttempts = 5

// EventsConfig controls where order events are published.
type EventsConfig struct {
	Exchange   string
	MaxRetries int
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		pricing: pricing.DefaultConfig(),
		events:  EventsConfig{Exchange: "orders.events", MaxRetries: 5},
		now:     time.Now,
		numbers: order.NewOrderNumber,
		tracer:  otel.Tracer("ordersvc"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.uowSource == nil {
		if s.pgClient == nil {
			panic("ordersvc: postgres client is required")
		}
		s.uowSource = func() unitOfWork {
			return uow.NewUnitOfWork(s.pgClient)
		}
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.pgClient = pgClient
	}
}

// WithUnitOfWork overrides how units of work are created.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(source func() unitOfWork) option {
	return func(s *OrderService) {
		s.uowSource = source
	}
}

// WithOrderCache enables the order aggregate read cache.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderCache(cache orderCache) option {
	return func(s *OrderService) {
		s.cache = cache
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithPricingConfig(cfg pricing.Config) option {
	return func(s *OrderService) {
		s.pricing = cfg
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithEventsConfig(cfg EventsConfig) option {
	return func(s *OrderService) {
		s.events = cfg
	}
}

// WithOrderNumbers overrides the order number generator.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderNumbers(next func(time.Time) string) option {
	return func(s *OrderService) {
		s.numbers = next
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *OrderService) {
		s.now = now
	}
}

func (s *OrderService) newUOW() unitOfWork {
	return s.uowSource()
}

// inTx runs fn inside a transaction, rolling back on any error.
func (s *OrderService) inTx(ctx context.Context, fn func(work unitOfWork) error) error {
	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = work.Rollback(ctx)
	}()

	if err := fn(work); err != nil {
		return err
	}

	return work.Commit(ctx)
}

// callerVendorID returns the vendor owned by a vendor caller.
func callerVendorID(ctx context.Context, work unitOfWork, caller identity.Caller) (uuid.UUID, bool, error) {
	v, err := work.CatalogRepository().GetVendorByUserID(ctx, caller.ID)
	if errors.Is(err, icatalogrepo.ErrVendorNotFound) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to resolve caller vendor: %w", err)
	}

	return v.ID, true, nil
}

func (s *OrderService) ownsAsVendor(ctx context.Context, work unitOfWork, caller identity.Caller, o order.Order) (bool, error) {
	vendorID, ok, err := callerVendorID(ctx, work, caller)
	if err != nil || !ok {
		return false, err
	}

	return vendorID == o.VendorID, nil
}

func (s *OrderService) loadOrder(ctx context.Context, work unitOfWork, id uuid.UUID, forUpdate bool) (order.Order, error) {
	var (
		o   order.Order
		err error
	)
	if forUpdate {
		o, err = work.OrderRepository().GetByIDForUpdate(ctx, id)
	} else {
		o, err = work.OrderRepository().GetByID(ctx, id)
	}
	if errors.Is(err, iorderrepo.ErrOrderNotFound) {
		return order.Order{}, apperr.NotFound("ORDER_NOT_FOUND", "Order not found")
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to load order: %w", err)
	}

	return o, nil
}

// attachDetails loads items and status history for the given orders in place.
func attachDetails(ctx context.Context, work unitOfWork, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		ids = append(ids, o.ID)
		index[o.ID] = i
		orders[i].OrderItems = []orderitem.OrderItem{}
		orders[i].StatusHistory = nil
	}

	items, err := work.OrderItemRepository().Query(ctx, orderitem.QueryOrderItemsModel{OrderIds: ids})
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}
	for _, item := range items {
		if i, ok := index[item.OrderID]; ok {
			orders[i].OrderItems = append(orders[i].OrderItems, item)
		}
	}

	history, err := work.StatusHistoryRepository().ListByOrderIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load status history: %w", err)
	}
	for _, h := range history {
		if i, ok := index[h.OrderID]; ok {
			orders[i].StatusHistory = append(orders[i].StatusHistory, h)
		}
	}

	return nil
}

func (s *OrderService) evict(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		slog.WarnContext(ctx, "Failed to evict cached order", "order_id", id, "error", err)
	}
}
