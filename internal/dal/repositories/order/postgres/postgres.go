package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/postgres"
	"github.com/corray333/backend-labs/grocery/internal/service/models/currency"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
)

var orderColumns = []string{
	"id",
	"order_number",
	"customer_id",
	"vendor_id",
	"delivery_address",
	"currency",
	"subtotal",
	"delivery_fee",
	"discount_amount",
	"tax_amount",
	"total_amount",
	"commission_rate",
	"commission_amount",
	"vendor_payout_amount",
	"status",
	"payment_status",
	"payment_method",
	"coupon_code",
	"customer_note",
	"cancellation_reason",
	"actual_delivery_time",
	"created_at",
	"updated_at",
}

// OrderDal represents order data access layer model
type OrderDal struct {
	ID                 uuid.UUID
	OrderNumber        string
	CustomerID         uuid.UUID
	VendorID           uuid.UUID
	DeliveryAddress    order.DeliveryAddress
	Currency           string
	Subtotal           decimal.Decimal
	DeliveryFee        decimal.Decimal
	DiscountAmount     decimal.Decimal
	TaxAmount          decimal.Decimal
	TotalAmount        decimal.Decimal
	CommissionRate     decimal.Decimal
	CommissionAmount   decimal.Decimal
	VendorPayoutAmount decimal.Decimal
	Status             string
	PaymentStatus      string
	PaymentMethod      string
	CouponCode         *string
	CustomerNote       *string
	CancellationReason *string
	ActualDeliveryTime *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (o *OrderDal) scanTargets() []any {
	return []any{
		&o.ID,
		&o.OrderNumber,
		&o.CustomerID,
		&o.VendorID,
		&o.DeliveryAddress,
		&o.Currency,
		&o.Subtotal,
		&o.DeliveryFee,
		&o.DiscountAmount,
		&o.TaxAmount,
		&o.TotalAmount,
		&o.CommissionRate,
		&o.CommissionAmount,
		&o.VendorPayoutAmount,
		&o.Status,
		&o.PaymentStatus,
		&o.PaymentMethod,
		&o.CouponCode,
		&o.CustomerNote,
		&o.CancellationReason,
		&o.ActualDeliveryTime,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
}

// ToModel converts OrderDal to service layer Order model
func (o *OrderDal) ToModel() (order.Order, error) {
	cur, err := currency.ParseCurrency(o.Currency)
	if err != nil {
		return order.Order{}, err
	}
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return order.Order{}, err
	}
	paymentStatus, err := order.ParsePaymentStatus(o.PaymentStatus)
	if err != nil {
		return order.Order{}, err
	}

	return order.Order{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		CustomerID:         o.CustomerID,
		VendorID:           o.VendorID,
		DeliveryAddress:    o.DeliveryAddress,
		Currency:           cur,
		Subtotal:           o.Subtotal,
		DeliveryFee:        o.DeliveryFee,
		DiscountAmount:     o.DiscountAmount,
		TaxAmount:          o.TaxAmount,
		TotalAmount:        o.TotalAmount,
		CommissionRate:     o.CommissionRate,
		CommissionAmount:   o.CommissionAmount,
		VendorPayoutAmount: o.VendorPayoutAmount,
		Status:             status,
		PaymentStatus:      paymentStatus,
		PaymentMethod:      o.PaymentMethod,
		CouponCode:         o.CouponCode,
		CustomerNote:       o.CustomerNote,
		CancellationReason: o.CancellationReason,
		ActualDeliveryTime: o.ActualDeliveryTime,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}, nil
}

type PostgresOrderRepository struct {
	conn postgres.DBTX
}

func NewPostgresOrderRepository(conn postgres.DBTX) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
	}
}

// Insert stores the order row. Items and history are written by their own repositories.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) error {
	query, args, err := sq.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID,
			o.OrderNumber,
			o.CustomerID,
			o.VendorID,
			o.DeliveryAddress,
			o.Currency.String(),
			o.Subtotal,
			o.DeliveryFee,
			o.DiscountAmount,
			o.TaxAmount,
			o.TotalAmount,
			o.CommissionRate,
			o.CommissionAmount,
			o.VendorPayoutAmount,
			o.Status.String(),
			o.PaymentStatus.String(),
			o.PaymentMethod,
			o.CouponCode,
			o.CustomerNote,
			o.CancellationReason,
			o.ActualDeliveryTime,
			o.CreatedAt,
			o.UpdatedAt,
		).
		Suffix("ON CONFLICT (order_number) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return iorderrepo.ErrOrderNumberTaken
	}

	return nil
}

func (r *PostgresOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (order.Order, error) {
	return r.getByID(ctx, id, "")
}

func (r *PostgresOrderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (order.Order, error) {
	return r.getByID(ctx, id, "FOR UPDATE")
}

func (r *PostgresOrderRepository) getByID(ctx context.Context, id uuid.UUID, suffix string) (order.Order, error) {
	builder := sq.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar)
	if suffix != "" {
		builder = builder.Suffix(suffix)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal OrderDal
	if err := r.conn.QueryRow(ctx, query, args...).Scan(dal.scanTargets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.Order{}, iorderrepo.ErrOrderNotFound
		}
		return order.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	model, err := dal.ToModel()
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to convert order dal to model: %w", err)
	}

	return model, nil
}

func applyFilter(builder sq.SelectBuilder, filter order.QueryOrdersModel) sq.SelectBuilder {
	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"id": filter.Ids})
	}
	if len(filter.CustomerIds) > 0 {
		builder = builder.Where(sq.Eq{"customer_id": filter.CustomerIds})
	}
	if len(filter.VendorIds) > 0 {
		builder = builder.Where(sq.Eq{"vendor_id": filter.VendorIds})
	}
	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"status": filter.Status.String()})
	}
	if filter.PaymentStatus != nil {
		builder = builder.Where(sq.Eq{"payment_status": filter.PaymentStatus.String()})
	}
	if filter.CreatedFrom != nil {
		builder = builder.Where(sq.GtOrEq{"created_at": *filter.CreatedFrom})
	}
	if filter.CreatedTo != nil {
		builder = builder.Where(sq.LtOrEq{"created_at": *filter.CreatedTo})
	}

	return builder
}

// Query retrieves orders based on filter criteria
func (r *PostgresOrderRepository) Query(
	ctx context.Context,
	filter order.QueryOrdersModel,
) ([]order.Order, int64, error) {
	countQuery, countArgs, err := applyFilter(sq.Select("COUNT(*)").From("orders"), filter).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.conn.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	builder := applyFilter(sq.Select(orderColumns...).From("orders"), filter).
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(sq.Dollar)
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	result := make([]order.Order, 0)
	for rows.Next() {
		var dal OrderDal
		if err := rows.Scan(dal.scanTargets()...); err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to convert order dal to model: %w", err)
		}
		result = append(result, model)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, total, nil
}

// UpdateStatus persists the mutable lifecycle fields of o.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, o order.Order) error {
	query, args, err := sq.Update("orders").
		Set("status", o.Status.String()).
		Set("payment_status", o.PaymentStatus.String()).
		Set("cancellation_reason", o.CancellationReason).
		Set("actual_delivery_time", o.ActualDeliveryTime).
		Set("updated_at", o.UpdatedAt).
		Where(sq.Eq{"id": o.ID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return iorderrepo.ErrOrderNotFound
	}

	return nil
}
