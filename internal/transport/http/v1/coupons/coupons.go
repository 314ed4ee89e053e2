package coupons

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corray333/backend-labs/grocery/internal/service/models/coupon"
	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
	"github.com/corray333/backend-labs/grocery/internal/transport/http/v1/params"
	"github.com/corray333/backend-labs/grocery/internal/transport/http/v1/respond"
)

// service is an interface for the service layer.
type service interface {
	CreateCoupon(ctx context.Context, caller identity.Caller, req coupon.CreateModel) (coupon.Coupon, error)
	GetCoupon(ctx context.Context, caller identity.Caller, code string) (coupon.Coupon, error)
	ListCoupons(ctx context.Context, caller identity.Caller, page, pageSize int) (coupon.Page, error)
	PatchCoupon(ctx context.Context, caller identity.Caller, code string, patch coupon.Patch) (coupon.Coupon, error)
}

type createCouponRequest struct {
	Code              string           `json:"code"                validate:"required,max=50"`
	Description       *string          `json:"description"         validate:"omitempty,max=500"`
	DiscountType      string           `json:"discount_type"       validate:"required,oneof=percentage flat free_delivery buy_x_get_y"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinOrderAmount    decimal.Decimal  `json:"min_order_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	MaxUses           int              `json:"max_uses"            validate:"gte=0"`
	VendorID          *uuid.UUID       `json:"vendor_id"`
	IsActive          *bool            `json:"is_active"`
	StartDate         *time.Time       `json:"start_date"`
	EndDate           *time.Time       `json:"end_date"`
}

func (r *createCouponRequest) toModel() coupon.CreateModel {
	return coupon.CreateModel{
		Code:              r.Code,
		Description:       r.Description,
		DiscountType:      coupon.DiscountType(r.DiscountType),
		DiscountValue:     r.DiscountValue,
		MinOrderAmount:    r.MinOrderAmount,
		MaxDiscountAmount: r.MaxDiscountAmount,
		MaxUses:           r.MaxUses,
		VendorID:          r.VendorID,
		IsActive:          r.IsActive,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
	}
}

// optionalDecimal tells an absent field apart from an explicit null.
type optionalDecimal struct {
	Set   bool
	Value *decimal.Decimal
}

func (o *optionalDecimal) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil

		return nil
	}

	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	o.Value = &d

	return nil
}

// patchCouponRequest lists every field an admin may change. Any other key in
// the body is rejected by the decoder.
type patchCouponRequest struct {
	Description       *string          `json:"description"         validate:"omitempty,max=500"`
	DiscountValue     *decimal.Decimal `json:"discount_value"`
	MinOrderAmount    *decimal.Decimal `json:"min_order_amount"`
	MaxDiscountAmount optionalDecimal  `json:"max_discount_amount"`
	MaxUses           *int             `json:"max_uses"            validate:"omitempty,gte=0"`
	IsActive          *bool            `json:"is_active"`
	StartDate         *time.Time       `json:"start_date"`
	EndDate           *time.Time       `json:"end_date"`
}

func (r *patchCouponRequest) toModel() coupon.Patch {
	return coupon.Patch{
		Description:       r.Description,
		DiscountValue:     r.DiscountValue,
		MinOrderAmount:    r.MinOrderAmount,
		MaxDiscountAmount: r.MaxDiscountAmount.Value,
		MaxUses:           r.MaxUses,
		IsActive:          r.IsActive,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
		ClearMaxDiscount:  r.MaxDiscountAmount.Set && r.MaxDiscountAmount.Value == nil,
	}
}

// Create handles the coupon creation request.
func Create(w http.ResponseWriter, r *http.Request, service service) {
	caller, err := params.Caller(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req createCouponRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	created, err := service.CreateCoupon(r.Context(), caller, req.toModel())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, "Coupon created", created)
}

// Get handles the coupon details request.
func Get(w http.ResponseWriter, r *http.Request, service service) {
	caller, err := params.Caller(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	c, err := service.GetCoupon(r.Context(), caller, chi.URLParam(r, "code"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, "", c)
}

// List handles the coupon listing request.
func List(w http.ResponseWriter, r *http.Request, service service) {
	caller, err := params.Caller(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	page, err := service.ListCoupons(r.Context(), caller, params.QueryInt(r, "page"), params.QueryInt(r, "page_size"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.Page(w, r, page.Coupons, page.Total, page.Page, page.PageSize, page.TotalPages)
}

// Patch handles the partial coupon update request.
func Patch(w http.ResponseWriter, r *http.Request, service service) {
	caller, err := params.Caller(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req patchCouponRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	updated, err := service.PatchCoupon(r.Context(), caller, chi.URLParam(r, "code"), req.toModel())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, "Coupon updated", updated)
}
