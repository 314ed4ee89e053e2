package couponsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/icouponrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/postgres"
	"github.com/corray333/backend-labs/grocery/internal/dal/uow"
	"github.com/corray333/backend-labs/grocery/internal/service/apperr"
	"github.com/corray333/backend-labs/grocery/internal/service/models/coupon"
	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
)

// CouponService manages promotional codes on behalf of administrators.
type CouponService struct {
	pgClient  *postgres.Client
	uowSource func() unitOfWork
	now       func() time.Time
	tracer    trace.Tracer
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	CouponRepository() icouponrepo.ICouponRepository
}

// option is a function that configures the CouponService.
type option func(*CouponService)

// MustNewCouponService creates a new CouponService.
func MustNewCouponService(opts ...option) *CouponService {
	s := &CouponService{
		now:    time.Now,
		tracer: otel.Tracer("couponsvc"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.uowSource == nil {
		if s.pgClient == nil {
			panic("couponsvc: postgres client is required")
		}
		s.uowSource = func() unitOfWork {
			return uow.NewUnitOfWork(s.pgClient)
		}
	}

	return s
}

// WithPostgresClient sets the Postgres client for the CouponService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *CouponService) {
		s.pgClient = pgClient
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWork(source func() unitOfWork) option {
	return func(s *CouponService) {
		s.uowSource = source
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *CouponService) {
		s.now = now
	}
}

func requireAdmin(caller identity.Caller) error {
	if caller.Role != identity.RoleAdmin {
		return apperr.Forbidden("Admin access required")
	}

	return nil
}

func validate(c coupon.Coupon) error {
	if c.Code == "" {
		return apperr.BadRequest("VALIDATION_ERROR", "code is required")
	}
	if c.DiscountValue.IsNegative() {
		return apperr.BadRequest("VALIDATION_ERROR", "discount_value must not be negative")
	}
	if c.DiscountType == coupon.DiscountPercentage && c.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return apperr.BadRequest("VALIDATION_ERROR", "percentage discount must not exceed 100")
	}
	if c.MinOrderAmount.IsNegative() {
		return apperr.BadRequest("VALIDATION_ERROR", "min_order_amount must not be negative")
	}
	if c.MaxDiscountAmount != nil && c.MaxDiscountAmount.IsNegative() {
		return apperr.BadRequest("VALIDATION_ERROR", "max_discount_amount must not be negative")
	}
	if c.MaxUses < 0 {
		return apperr.BadRequest("VALIDATION_ERROR", "max_uses must not be negative")
	}
	if !c.EndDate.After(c.StartDate) {
		return apperr.BadRequest("VALIDATION_ERROR", "end_date must be after start_date")
	}

	return nil
}

// CreateCoupon stores a new coupon. Codes are unique case-insensitively.
func (s *CouponService) CreateCoupon(
	ctx context.Context,
	caller identity.Caller,
	req coupon.CreateModel,
) (coupon.Coupon, error) {
	ctx, span := s.tracer.Start(ctx, "CouponService.CreateCoupon")
	defer span.End()

	if err := requireAdmin(caller); err != nil {
		return coupon.Coupon{}, err
	}
	if _, err := coupon.ParseDiscountType(string(req.DiscountType)); err != nil {
		return coupon.Coupon{}, apperr.BadRequest("VALIDATION_ERROR", "%s", err.Error())
	}

	now := s.now().UTC()
	c := coupon.Coupon{
		ID:                uuid.New(),
		Code:              coupon.NormalizeCode(req.Code),
		Description:       req.Description,
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
		MinOrderAmount:    req.MinOrderAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		MaxUses:           req.MaxUses,
		VendorID:          req.VendorID,
		IsActive:          true,
		StartDate:         now,
		EndDate:           now.Add(coupon.DefaultWindow),
		CreatedAt:         now,
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
	if req.StartDate != nil {
		c.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		c.EndDate = req.EndDate.UTC()
	}
	span.SetAttributes(attribute.String("code", c.Code))

	if err := validate(c); err != nil {
		return coupon.Coupon{}, err
	}

	err := s.uowSource().CouponRepository().Insert(ctx, c)
	if errors.Is(err, icouponrepo.ErrCouponExists) {
		return coupon.Coupon{}, apperr.Conflict("COUPON_EXISTS", "Coupon code already exists")
	}
	if err != nil {
		span.RecordError(err)
		return coupon.Coupon{}, fmt.Errorf("failed to create coupon: %w", err)
	}

	slog.InfoContext(ctx, "Coupon created", "code", c.Code, "discount_type", c.DiscountType)

	return c, nil
}

// GetCoupon returns a coupon by code.
func (s *CouponService) GetCoupon(ctx context.Context, caller identity.Caller, code string) (coupon.Coupon, error) {
	ctx, span := s.tracer.Start(ctx, "CouponService.GetCoupon")
	defer span.End()

	if err := requireAdmin(caller); err != nil {
		return coupon.Coupon{}, err
	}

	return s.get(ctx, s.uowSource().CouponRepository(), code, false)
}

func (s *CouponService) get(
	ctx context.Context,
	repo icouponrepo.ICouponRepository,
	code string,
	forUpdate bool,
) (coupon.Coupon, error) {
	var (
		c   coupon.Coupon
		err error
	)
	code = coupon.NormalizeCode(code)
	if forUpdate {
		c, err = repo.GetByCodeForUpdate(ctx, code)
	} else {
		c, err = repo.GetByCode(ctx, code)
	}
	if errors.Is(err, icouponrepo.ErrCouponNotFound) {
		return coupon.Coupon{}, apperr.NotFound("COUPON_NOT_FOUND", "Coupon not found")
	}
	if err != nil {
		return coupon.Coupon{}, fmt.Errorf("failed to load coupon: %w", err)
	}

	return c, nil
}

// ListCoupons returns one page of coupons, newest first.
func (s *CouponService) ListCoupons(
	ctx context.Context,
	caller identity.Caller,
	page, pageSize int,
) (coupon.Page, error) {
	ctx, span := s.tracer.Start(ctx, "CouponService.ListCoupons")
	defer span.End()

	if err := requireAdmin(caller); err != nil {
		return coupon.Page{}, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > order.MaxPageSize {
		pageSize = order.DefaultPageSize
	}

	coupons, total, err := s.uowSource().CouponRepository().List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return coupon.Page{}, fmt.Errorf("failed to list coupons: %w", err)
	}
	if coupons == nil {
		coupons = []coupon.Coupon{}
	}

	return coupon.Page{
		Coupons:    coupons,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

// PatchCoupon applies a partial update to the coupon with the given code.
func (s *CouponService) PatchCoupon(
	ctx context.Context,
	caller identity.Caller,
	code string,
	patch coupon.Patch,
) (coupon.Coupon, error) {
	ctx, span := s.tracer.Start(ctx, "CouponService.PatchCoupon")
	defer span.End()

	if err := requireAdmin(caller); err != nil {
		return coupon.Coupon{}, err
	}
	if patch.Empty() {
		return coupon.Coupon{}, apperr.BadRequest("VALIDATION_ERROR", "no fields to update")
	}

	work := s.uowSource()
	if err := work.Begin(ctx); err != nil {
		return coupon.Coupon{}, err
	}
	defer func() {
		_ = work.Rollback(ctx)
	}()

	current, err := s.get(ctx, work.CouponRepository(), code, true)
	if err != nil {
		return coupon.Coupon{}, err
	}

	updated := patch.Apply(current)
	if err := validate(updated); err != nil {
		return coupon.Coupon{}, err
	}
	if err := work.CouponRepository().Update(ctx, updated); err != nil {
		return coupon.Coupon{}, fmt.Errorf("failed to update coupon: %w", err)
	}
	if err := work.Commit(ctx); err != nil {
		span.RecordError(err)
		return coupon.Coupon{}, err
	}

	slog.InfoContext(ctx, "Coupon updated", "code", updated.Code)

	return updated, nil
}
