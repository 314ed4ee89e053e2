package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/icouponrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/postgres"
	"github.com/corray333/backend-labs/grocery/internal/service/models/coupon"
)

const uniqueViolation = "23505"

var couponColumns = []string{
	"id",
	"code",
	"description",
	"discount_type",
	"discount_value",
	"min_order_amount",
	"max_discount_amount",
	"max_uses",
	"used_count",
	"vendor_id",
	"is_active",
	"start_date",
	"end_date",
	"created_at",
}

// CouponRepository implements the coupon repository for PostgreSQL.
type CouponRepository struct {
	conn postgres.DBTX
}

// NewCouponRepository creates a new coupon repository.
func NewCouponRepository(conn postgres.DBTX) *CouponRepository {
	return &CouponRepository{
		conn: conn,
	}
}

func scanCoupon(row pgx.Row) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		discountType string
		maxDiscount  decimal.NullDecimal
	)
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.Description,
		&discountType,
		&c.DiscountValue,
		&c.MinOrderAmount,
		&maxDiscount,
		&c.MaxUses,
		&c.UsedCount,
		&c.VendorID,
		&c.IsActive,
		&c.StartDate,
		&c.EndDate,
		&c.CreatedAt,
	)
	if err != nil {
		return coupon.Coupon{}, err
	}

	c.DiscountType, err = coupon.ParseDiscountType(discountType)
	if err != nil {
		return coupon.Coupon{}, err
	}
	if maxDiscount.Valid {
		c.MaxDiscountAmount = &maxDiscount.Decimal
	}

	return c, nil
}

// Insert adds a coupon, failing with ErrCouponExists on a duplicate code.
func (r *CouponRepository) Insert(ctx context.Context, c coupon.Coupon) error {
	query, args, err := sq.Insert("coupons").
		Columns(couponColumns...).
		Values(
			c.ID,
			c.Code,
			c.Description,
			string(c.DiscountType),
			c.DiscountValue,
			c.MinOrderAmount,
			c.MaxDiscountAmount,
			c.MaxUses,
			c.UsedCount,
			c.VendorID,
			c.IsActive,
			c.StartDate,
			c.EndDate,
			c.CreatedAt,
		).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return icouponrepo.ErrCouponExists
		}
		return fmt.Errorf("failed to insert coupon: %w", err)
	}

	return nil
}

func (r *CouponRepository) GetByCode(ctx context.Context, code string) (coupon.Coupon, error) {
	return r.getByCode(ctx, code, "")
}

func (r *CouponRepository) GetByCodeForUpdate(ctx context.Context, code string) (coupon.Coupon, error) {
	return r.getByCode(ctx, code, "FOR UPDATE")
}

func (r *CouponRepository) getByCode(ctx context.Context, code, suffix string) (coupon.Coupon, error) {
	builder := sq.Select(couponColumns...).
		From("coupons").
		Where(sq.Eq{"code": code}).
		PlaceholderFormat(sq.Dollar)
	if suffix != "" {
		builder = builder.Suffix(suffix)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return coupon.Coupon{}, fmt.Errorf("failed to build select query: %w", err)
	}

	c, err := scanCoupon(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return coupon.Coupon{}, icouponrepo.ErrCouponNotFound
		}
		return coupon.Coupon{}, fmt.Errorf("failed to get coupon: %w", err)
	}

	return c, nil
}

func (r *CouponRepository) List(ctx context.Context, limit, offset int) ([]coupon.Coupon, int64, error) {
	var total int64
	if err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM coupons").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count coupons: %w", err)
	}

	builder := sq.Select(couponColumns...).
		From("coupons").
		OrderBy("created_at DESC", "code ASC").
		PlaceholderFormat(sq.Dollar)
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	if offset > 0 {
		builder = builder.Offset(uint64(offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	result := make([]coupon.Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan coupon: %w", err)
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, total, nil
}

// Update writes the admin-mutable fields of c.
func (r *CouponRepository) Update(ctx context.Context, c coupon.Coupon) error {
	query, args, err := sq.Update("coupons").
		Set("description", c.Description).
		Set("discount_value", c.DiscountValue).
		Set("min_order_amount", c.MinOrderAmount).
		Set("max_discount_amount", c.MaxDiscountAmount).
		Set("max_uses", c.MaxUses).
		Set("is_active", c.IsActive).
		Set("start_date", c.StartDate).
		Set("end_date", c.EndDate).
		Where(sq.Eq{"code": c.Code}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return icouponrepo.ErrCouponNotFound
	}

	return nil
}

func (r *CouponRepository) IncrementUsage(ctx context.Context, code string) error {
	query, args, err := sq.Update("coupons").
		Set("used_count", sq.Expr("used_count + 1")).
		Where(sq.Eq{"code": code}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return icouponrepo.ErrCouponNotFound
	}

	return nil
}
