package ordersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/icatalogrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/icouponrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/grocery/internal/service/apperr"
	"github.com/corray333/backend-labs/grocery/internal/service/models/catalog"
	"github.com/corray333/backend-labs/grocery/internal/service/models/coupon"
	"github.com/corray333/backend-labs/grocery/internal/service/models/currency"
	"github.com/corray333/backend-labs/grocery/internal/service/models/event"
	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
	"github.com/corray333/backend-labs/grocery/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/grocery/internal/service/models/statushistory"
	"github.com/corray333/backend-labs/grocery/internal/service/pricing"
)

func validateCreate(req order.CreateOrderModel) error {
	if len(req.Items) == 0 {
		return apperr.BadRequest("VALIDATION_ERROR", "order must contain at least one item")
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return apperr.BadRequest("VALIDATION_ERROR", "quantity must be at least 1")
		}
	}
	if req.PaymentMethod == "" {
		return apperr.BadRequest("VALIDATION_ERROR", "payment method is required")
	}

	return nil
}

// CreateOrder places an order for the caller. All writes commit together or not at all.
func (s *OrderService) CreateOrder(
	ctx context.Context,
	caller identity.Caller,
	req order.CreateOrderModel,
) (order.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.String("vendor_id", req.VendorID.String()))

	if err := validateCreate(req); err != nil {
		return order.Order{}, err
	}

	var created order.Order
	err := s.inTx(ctx, func(work unitOfWork) error {
		var err error
		created, err = s.placeOrder(ctx, work, caller, req)

		return err
	})
	if err != nil {
		span.RecordError(err)
		return order.Order{}, err
	}

	slog.InfoContext(ctx, "Order placed",
		"order_id", created.ID,
		"order_number", created.OrderNumber,
		"vendor_id", created.VendorID,
		"total_amount", created.TotalAmount.StringFixed(2),
	)

	return created, nil
}

func (s *OrderService) placeOrder(
	ctx context.Context,
	work unitOfWork,
	caller identity.Caller,
	req order.CreateOrderModel,
) (order.Order, error) {
	catalogRepo := work.CatalogRepository()

	vendor, err := catalogRepo.GetVendor(ctx, req.VendorID)
	if errors.Is(err, icatalogrepo.ErrVendorNotFound) || (err == nil && !vendor.IsActive) {
		return order.Order{}, apperr.BadRequest("VENDOR_UNAVAILABLE", "Vendor not available")
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to load vendor: %w", err)
	}

	address, err := catalogRepo.GetAddress(ctx, req.DeliveryAddressID, caller.ID)
	if errors.Is(err, icatalogrepo.ErrAddressNotFound) {
		return order.Order{}, apperr.NotFound("ADDRESS_NOT_FOUND", "Invalid delivery address")
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to load address: %w", err)
	}

	lines, err := resolveLines(ctx, catalogRepo, vendor.ID, req.Items)
	if err != nil {
		return order.Order{}, err
	}

	var (
		c          *coupon.Coupon
		couponCode *string
	)
	if req.CouponCode != nil && coupon.NormalizeCode(*req.CouponCode) != "" {
		code := coupon.NormalizeCode(*req.CouponCode)
		couponCode = &code

		found, err := work.CouponRepository().GetByCodeForUpdate(ctx, code)
		switch {
		case errors.Is(err, icouponrepo.ErrCouponNotFound):
			// unknown codes are ignored like any other inapplicable coupon
		case err != nil:
			return order.Order{}, fmt.Errorf("failed to load coupon: %w", err)
		default:
			c = &found
		}
	}

	now := s.now().UTC()
	breakdown := pricing.Calculate(lines, vendor.ID, vendor.CommissionRate, c, now, s.pricing)

	o := order.Order{
		ID:          uuid.New(),
		OrderNumber: s.numbers(now),
		CustomerID:  caller.ID,
		VendorID:    vendor.ID,
		DeliveryAddress: order.DeliveryAddress{
			Label:       address.Label,
			FullAddress: address.FullAddress,
			City:        address.City,
			State:       address.State,
			PostalCode:  address.PostalCode,
			Latitude:    address.Latitude,
			Longitude:   address.Longitude,
		},
		Currency:           currency.CurrencyINR,
		Subtotal:           breakdown.Subtotal,
		DeliveryFee:        breakdown.DeliveryFee,
		DiscountAmount:     breakdown.DiscountAmount,
		TaxAmount:          breakdown.TaxAmount,
		TotalAmount:        breakdown.TotalAmount,
		CommissionRate:     breakdown.CommissionRate,
		CommissionAmount:   breakdown.CommissionAmount,
		VendorPayoutAmount: breakdown.VendorPayout,
		Status:             order.StatusPending,
		PaymentStatus:      order.InitialPaymentStatus(req.PaymentMethod),
		PaymentMethod:      req.PaymentMethod,
		CouponCode:         couponCode,
		CustomerNote:       req.CustomerNote,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	o.OrderItems = snapshotItems(o.ID, lines, now)

	note := statushistory.NoteOrderPlaced
	changedBy := caller.ID
	o.StatusHistory = []statushistory.StatusHistory{{
		ID:        uuid.New(),
		OrderID:   o.ID,
		Status:    order.StatusPending.String(),
		Note:      &note,
		ChangedBy: &changedBy,
		CreatedAt: now,
	}}

	if err := reserveStock(ctx, catalogRepo, lines); err != nil {
		return order.Order{}, err
	}
	if err := s.insertOrder(ctx, work.OrderRepository(), &o, now); err != nil {
		return order.Order{}, err
	}
	if err := work.OrderItemRepository().BulkInsert(ctx, o.OrderItems); err != nil {
		return order.Order{}, err
	}
	if err := work.StatusHistoryRepository().Append(ctx, o.StatusHistory[0]); err != nil {
		return order.Order{}, err
	}
	if err := catalogRepo.IncrementVendorOrders(ctx, vendor.ID); err != nil {
		return order.Order{}, fmt.Errorf("failed to increment vendor orders: %w", err)
	}
	if breakdown.CouponApplied {
		if err := work.CouponRepository().IncrementUsage(ctx, c.Code); err != nil {
			return order.Order{}, fmt.Errorf("failed to redeem coupon: %w", err)
		}
	}
	if err := s.recordEvent(ctx, work, o, event.TypeOrderCreated, nil, now); err != nil {
		return order.Order{}, err
	}

	return o, nil
}

func snapshotItems(orderID uuid.UUID, lines []catalog.ResolvedLine, now time.Time) []orderitem.OrderItem {
	items := make([]orderitem.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, orderitem.OrderItem{
			ID:              uuid.New(),
			OrderID:         orderID,
			ProductID:       line.Product.ID,
			VariantID:       line.VariantID,
			ProductName:     line.Product.Name,
			ProductImageURL: line.Product.PrimaryImage,
			UnitPrice:       line.UnitPrice,
			Quantity:        line.Quantity,
			TotalPrice:      currency.Round2(line.LineTotal()),
			UnitType:        line.Product.UnitType,
			UnitValue:       line.Product.UnitValue,
			CreatedAt:       now,
		})
	}

	return items
}

// insertOrder stores o, drawing a fresh order number while the current one is taken.
func (s *OrderService) insertOrder(ctx context.Context, repo iorderrepo.IOrderRepository, o *order.Order, now time.Time) error {
	for attempt := 1; ; attempt++ {
		err := repo.Insert(ctx, *o)
		if !errors.Is(err, iorderrepo.ErrOrderNumberTaken) {
			return err
		}
		if attempt == orderNumberAttempts {
			return fmt.Errorf("failed to allocate order number after %d attempts: %w", attempt, err)
		}

		slog.WarnContext(ctx, "Order number collision, retrying", "order_number", o.OrderNumber, "attempt", attempt)
		o.OrderNumber = s.numbers(now)
	}
}
