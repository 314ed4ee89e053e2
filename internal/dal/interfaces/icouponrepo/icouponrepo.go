package icouponrepo

import (
	"context"
	"errors"

	"github.com/corray333/backend-labs/grocery/internal/service/models/coupon"
)

var (
	ErrCouponNotFound = errors.New("coupon not found")
	ErrCouponExists   = errors.New("coupon already exists")
)

// ICouponRepository is an interface for coupon postgres repository.
type ICouponRepository interface {
	Insert(ctx context.Context, c coupon.Coupon) error
	GetByCode(ctx context.Context, code string) (coupon.Coupon, error)
	// GetByCodeForUpdate locks the coupon row so concurrent redemptions
	// observe each other's used_count.
	GetByCodeForUpdate(ctx context.Context, code string) (coupon.Coupon, error)
	List(ctx context.Context, limit, offset int) ([]coupon.Coupon, int64, error)
	Update(ctx context.Context, c coupon.Coupon) error
	IncrementUsage(ctx context.Context, code string) error
}
