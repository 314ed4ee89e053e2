package cancelorder

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
	"github.com/corray333/backend-labs/grocery/internal/transport/http/v1/params"
	"github.com/corray333/backend-labs/grocery/internal/transport/http/v1/respond"
)

// service is an interface for the service layer.
type service interface {
	CancelOrder(ctx context.Context, caller identity.Caller, id uuid.UUID, reason string) (order.Order, error)
}

type cancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// CancelOrder handles the cancellation request. The reason may be sent in the
// body or as the reason query parameter.
func CancelOrder(w http.ResponseWriter, r *http.Request, service service) {
	caller, err := params.Caller(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	id, err := params.PathUUID(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	req := cancelOrderRequest{Reason: r.URL.Query().Get("reason")}
	if r.ContentLength > 0 {
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, r, err)
			return
		}
	}

	cancelled, err := service.CancelOrder(r.Context(), caller, id, req.Reason)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, "Order cancelled", cancelled)
}
