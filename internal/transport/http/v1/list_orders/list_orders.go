package listorders

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
	"github.com/corray333/backend-labs/grocery/internal/transport/http/v1/params"
	"github.com/corray333/backend-labs/grocery/internal/transport/http/v1/respond"
)

// service is an interface for the service layer.
type service interface {
	ListOrders(ctx context.Context, caller identity.Caller, req order.ListOrdersModel) (order.Page, error)
}

// parseListRequest reads the listing filters from the query string. Malformed
// optional filters are dropped rather than rejected.
func parseListRequest(r *http.Request) order.ListOrdersModel {
	query := r.URL.Query()

	req := order.ListOrdersModel{
		DateFrom:   params.QueryTime(r, "date_from"),
		DateTo:     params.QueryTimeEnd(r, "date_to"),
		VendorID:   params.QueryUUID(r, "vendor_id"),
		CustomerID: params.QueryUUID(r, "customer_id"),
		Page:       params.QueryInt(r, "page"),
		PageSize:   params.QueryInt(r, "page_size"),
	}
	if status, err := order.ParseStatus(query.Get("status")); err == nil {
		req.Status = &status
	}
	if paymentStatus, err := order.ParsePaymentStatus(query.Get("payment_status")); err == nil {
		req.PaymentStatus = &paymentStatus
	}

	return req
}

// ListOrders handles the order listing request.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	caller, err := params.Caller(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	page, err := service.ListOrders(r.Context(), caller, parseListRequest(r))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.Page(w, r, page.Orders, page.Total, page.Page, page.PageSize, page.TotalPages)
}
