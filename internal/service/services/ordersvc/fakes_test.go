package ordersvc

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/icatalogrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/icouponrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/istatushistoryrepo"
	"github.com/corray333/backend-labs/grocery/internal/service/models/catalog"
	"github.com/corray333/backend-labs/grocery/internal/service/models/coupon"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
	"github.com/corray333/backend-labs/grocery/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/grocery/internal/service/models/outbox"
	"github.com/corray333/backend-labs/grocery/internal/service/models/statushistory"
)

var errInjected = errors.New("injected failure")

// memState is the content of the in-memory database.
type memState struct {
	vendors   map[uuid.UUID]catalog.Vendor
	addresses map[uuid.UUID]catalog.Address
	products  map[uuid.UUID]catalog.Product
	variants  map[uuid.UUID]catalog.Variant
	coupons   map[string]coupon.Coupon
	orders    map[uuid.UUID]order.Order
	items     []orderitem.OrderItem
	history   []statushistory.StatusHistory
	outbox    []outbox.OutboxMessage
}

func (s memState) clone() memState {
	return memState{
		vendors:   maps.Clone(s.vendors),
		addresses: maps.Clone(s.addresses),
		products:  maps.Clone(s.products),
		variants:  maps.Clone(s.variants),
		coupons:   maps.Clone(s.coupons),
		orders:    maps.Clone(s.orders),
		items:     slices.Clone(s.items),
		history:   slices.Clone(s.history),
		outbox:    slices.Clone(s.outbox),
	}
}

// memStore emulates transactional storage: Begin snapshots the state and
// Rollback restores it.
type memStore struct {
	memState
	failOn  string
	commits int
}

func newMemStore() *memStore {
	return &memStore{memState: memState{
		vendors:   map[uuid.UUID]catalog.Vendor{},
		addresses: map[uuid.UUID]catalog.Address{},
		products:  map[uuid.UUID]catalog.Product{},
		variants:  map[uuid.UUID]catalog.Variant{},
		coupons:   map[string]coupon.Coupon{},
		orders:    map[uuid.UUID]order.Order{},
	}}
}

func (m *memStore) fail(op string) error {
	if m.failOn == op {
		return errInjected
	}

	return nil
}

func (m *memStore) newUOW() unitOfWork {
	return &memUOW{store: m}
}

type memUOW struct {
	store    *memStore
	snapshot *memState
}

func (u *memUOW) Begin(context.Context) error {
	snap := u.store.memState.clone()
	u.snapshot = &snap

	return nil
}

func (u *memUOW) Commit(context.Context) error {
	if u.snapshot != nil {
		u.store.commits++
	}
	u.snapshot = nil

	return nil
}

func (u *memUOW) Rollback(context.Context) error {
	if u.snapshot != nil {
		u.store.memState = *u.snapshot
	}
	u.snapshot = nil

	return nil
}

func (u *memUOW) OrderRepository() iorderrepo.IOrderRepository { return memOrders{u.store} }
func (u *memUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return memItems{u.store}
}
func (u *memUOW) StatusHistoryRepository() istatushistoryrepo.IStatusHistoryRepository {
	return memHistory{u.store}
}
func (u *memUOW) CatalogRepository() icatalogrepo.ICatalogRepository { return memCatalog{u.store} }
func (u *memUOW) CouponRepository() icouponrepo.ICouponRepository    { return memCoupons{u.store} }
func (u *memUOW) OutboxRepository() ioutboxrepo.IOutboxRepository    { return memOutbox{u.store} }

type memOrders struct{ m *memStore }

func (r memOrders) Insert(_ context.Context, o order.Order) error {
	if err := r.m.fail("InsertOrder"); err != nil {
		return err
	}
	for _, existing := range r.m.orders {
		if existing.OrderNumber == o.OrderNumber {
			return iorderrepo.ErrOrderNumberTaken
		}
	}
	o.OrderItems, o.StatusHistory = nil, nil
	r.m.orders[o.ID] = o

	return nil
}

func (r memOrders) GetByID(_ context.Context, id uuid.UUID) (order.Order, error) {
	o, ok := r.m.orders[id]
	if !ok {
		return order.Order{}, iorderrepo.ErrOrderNotFound
	}

	return o, nil
}

func (r memOrders) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (order.Order, error) {
	return r.GetByID(ctx, id)
}

func (r memOrders) Query(_ context.Context, f order.QueryOrdersModel) ([]order.Order, int64, error) {
	var matched []order.Order
	for _, o := range r.m.orders {
		if len(f.CustomerIds) > 0 && !slices.Contains(f.CustomerIds, o.CustomerID) {
			continue
		}
		if len(f.VendorIds) > 0 && !slices.Contains(f.VendorIds, o.VendorID) {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.PaymentStatus != nil && o.PaymentStatus != *f.PaymentStatus {
			continue
		}
		if f.CreatedFrom != nil && o.CreatedAt.Before(*f.CreatedFrom) {
			continue
		}
		if f.CreatedTo != nil && o.CreatedAt.After(*f.CreatedTo) {
			continue
		}
		matched = append(matched, o)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	start := min(f.Offset, len(matched))
	end := len(matched)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(matched))
	}

	return matched[start:end], total, nil
}

func (r memOrders) UpdateStatus(_ context.Context, o order.Order) error {
	stored, ok := r.m.orders[o.ID]
	if !ok {
		return iorderrepo.ErrOrderNotFound
	}
	stored.Status = o.Status
	stored.PaymentStatus = o.PaymentStatus
	stored.CancellationReason = o.CancellationReason
	stored.ActualDeliveryTime = o.ActualDeliveryTime
	stored.UpdatedAt = o.UpdatedAt
	r.m.orders[o.ID] = stored

	return nil
}

type memItems struct{ m *memStore }

func (r memItems) BulkInsert(_ context.Context, items []orderitem.OrderItem) error {
	r.m.items = append(r.m.items, items...)

	return nil
}

func (r memItems) Query(_ context.Context, f orderitem.QueryOrderItemsModel) ([]orderitem.OrderItem, error) {
	var result []orderitem.OrderItem
	for _, item := range r.m.items {
		if len(f.OrderIds) > 0 && !slices.Contains(f.OrderIds, item.OrderID) {
			continue
		}
		result = append(result, item)
	}

	return result, nil
}

type memHistory struct{ m *memStore }

func (r memHistory) Append(_ context.Context, entry statushistory.StatusHistory) error {
	r.m.history = append(r.m.history, entry)

	return nil
}

func (r memHistory) ListByOrderIDs(_ context.Context, ids []uuid.UUID) ([]statushistory.StatusHistory, error) {
	var result []statushistory.StatusHistory
	for _, h := range r.m.history {
		if slices.Contains(ids, h.OrderID) {
			result = append(result, h)
		}
	}

	return result, nil
}

type memCatalog struct{ m *memStore }

func (r memCatalog) GetVendor(_ context.Context, id uuid.UUID) (catalog.Vendor, error) {
	v, ok := r.m.vendors[id]
	if !ok {
		return catalog.Vendor{}, icatalogrepo.ErrVendorNotFound
	}

	return v, nil
}

func (r memCatalog) GetVendorByUserID(_ context.Context, userID uuid.UUID) (catalog.Vendor, error) {
	for _, v := range r.m.vendors {
		if v.UserID == userID {
			return v, nil
		}
	}

	return catalog.Vendor{}, icatalogrepo.ErrVendorNotFound
}

func (r memCatalog) IncrementVendorOrders(_ context.Context, vendorID uuid.UUID) error {
	if err := r.m.fail("IncrementVendorOrders"); err != nil {
		return err
	}
	v := r.m.vendors[vendorID]
	v.TotalOrders++
	r.m.vendors[vendorID] = v

	return nil
}

func (r memCatalog) GetAddress(_ context.Context, id, userID uuid.UUID) (catalog.Address, error) {
	a, ok := r.m.addresses[id]
	if !ok || a.UserID != userID {
		return catalog.Address{}, icatalogrepo.ErrAddressNotFound
	}

	return a, nil
}

func (r memCatalog) LockProducts(_ context.Context, vendorID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	var result []catalog.Product
	for _, id := range ids {
		if p, ok := r.m.products[id]; ok && p.VendorID == vendorID {
			result = append(result, p)
		}
	}

	return result, nil
}

func (r memCatalog) GetVariants(_ context.Context, ids []uuid.UUID) ([]catalog.Variant, error) {
	var result []catalog.Variant
	for _, id := range ids {
		if v, ok := r.m.variants[id]; ok {
			result = append(result, v)
		}
	}

	return result, nil
}

func (r memCatalog) DecrementProductStock(_ context.Context, productID uuid.UUID, qty int) error {
	p := r.m.products[productID]
	if p.StockQuantity < qty {
		return icatalogrepo.ErrInsufficientStock
	}
	p.StockQuantity -= qty
	r.m.products[productID] = p

	return nil
}

func (r memCatalog) DecrementVariantStock(_ context.Context, variantID uuid.UUID, qty int) error {
	v := r.m.variants[variantID]
	v.StockQuantity -= qty
	r.m.variants[variantID] = v

	return nil
}

func (r memCatalog) RestoreProductStock(_ context.Context, productID uuid.UUID, qty int) error {
	p := r.m.products[productID]
	p.StockQuantity += qty
	r.m.products[productID] = p

	return nil
}

type memCoupons struct{ m *memStore }

func (r memCoupons) Insert(_ context.Context, c coupon.Coupon) error {
	if _, ok := r.m.coupons[c.Code]; ok {
		return icouponrepo.ErrCouponExists
	}
	r.m.coupons[c.Code] = c

	return nil
}

func (r memCoupons) GetByCode(_ context.Context, code string) (coupon.Coupon, error) {
	c, ok := r.m.coupons[code]
	if !ok {
		return coupon.Coupon{}, icouponrepo.ErrCouponNotFound
	}

	return c, nil
}

func (r memCoupons) GetByCodeForUpdate(ctx context.Context, code string) (coupon.Coupon, error) {
	return r.GetByCode(ctx, code)
}

func (r memCoupons) List(_ context.Context, _, _ int) ([]coupon.Coupon, int64, error) {
	result := slices.Collect(maps.Values(r.m.coupons))

	return result, int64(len(result)), nil
}

func (r memCoupons) Update(_ context.Context, c coupon.Coupon) error {
	r.m.coupons[c.Code] = c

	return nil
}

func (r memCoupons) IncrementUsage(_ context.Context, code string) error {
	c := r.m.coupons[code]
	c.UsedCount++
	r.m.coupons[code] = c

	return nil
}

type memOutbox struct{ m *memStore }

func (r memOutbox) Insert(_ context.Context, msg outbox.OutboxMessage) error {
	r.m.outbox = append(r.m.outbox, msg)

	return nil
}

func (r memOutbox) ListDue(context.Context, time.Time, int) ([]outbox.OutboxMessage, error) {
	return r.m.outbox, nil
}

func (r memOutbox) Delete(context.Context, int64) error { return nil }

func (r memOutbox) ScheduleRetry(context.Context, int64, int, string, time.Time) error { return nil }

// memCache records cache traffic. beforeFill runs once right before the
// next fill, to interleave a concurrent writer.
type memCache struct {
	orders      map[uuid.UUID]order.Order
	generations map[uuid.UUID]int64
	invalidated int
	beforeFill  func()
}

func newMemCache() *memCache {
	return &memCache{orders: map[uuid.UUID]order.Order{}, generations: map[uuid.UUID]int64{}}
}

func (c *memCache) Get(_ context.Context, id uuid.UUID) (order.Order, int64, bool, error) {
	o, ok := c.orders[id]

	return o, c.generations[id], ok, nil
}

func (c *memCache) SetIfGeneration(_ context.Context, o order.Order, generation int64) (bool, error) {
	if hook := c.beforeFill; hook != nil {
		c.beforeFill = nil
		hook()
	}
	if c.generations[o.ID] != generation {
		return false, nil
	}
	c.orders[o.ID] = o

	return true, nil
}

func (c *memCache) Invalidate(_ context.Context, id uuid.UUID) error {
	delete(c.orders, id)
	c.generations[id]++
	c.invalidated++

	return nil
}
