package createorder

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/grocery/internal/service/models/catalog"
	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
	"github.com/corray333/backend-labs/grocery/internal/transport/http/v1/params"
	"github.com/corray333/backend-labs/grocery/internal/transport/http/v1/respond"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, caller identity.Caller, req order.CreateOrderModel) (order.Order, error)
}

// itemInCreateOrderRequest represents a cart line in a create order request.
type itemInCreateOrderRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity"   validate:"gte=1"`
}

// createOrderRequest represents a create order request.
type createOrderRequest struct {
	VendorID          uuid.UUID                  `json:"vendor_id"           validate:"required"`
	Items             []itemInCreateOrderRequest `json:"items"               validate:"required,min=1,dive"`
	DeliveryAddressID uuid.UUID                  `json:"delivery_address_id" validate:"required"`
	PaymentMethod     string                     `json:"payment_method"      validate:"omitempty,max=50"`
	CouponCode        *string                    `json:"coupon_code"         validate:"omitempty,max=50"`
	CustomerNote      *string                    `json:"customer_note"       validate:"omitempty,max=1000"`
}

// toModel converts createOrderRequest to order.CreateOrderModel.
func (r *createOrderRequest) toModel() order.CreateOrderModel {
	items := make([]catalog.LineRequest, len(r.Items))
	for i, item := range r.Items {
		items[i] = catalog.LineRequest{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		}
	}

	paymentMethod := r.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = order.PaymentMethodCOD
	}

	return order.CreateOrderModel{
		VendorID:          r.VendorID,
		Items:             items,
		DeliveryAddressID: r.DeliveryAddressID,
		PaymentMethod:     paymentMethod,
		CouponCode:        r.CouponCode,
		CustomerNote:      r.CustomerNote,
	}
}

// CreateOrder handles the checkout request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	caller, err := params.Caller(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req createOrderRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	created, err := service.CreateOrder(r.Context(), caller, req.toModel())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusCreated, "Order placed successfully", created)
}
