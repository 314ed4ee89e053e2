package updatestatus

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/grocery/internal/service/apperr"
	"github.com/corray333/backend-labs/grocery/internal/service/models/identity"
	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
	"github.com/corray333/backend-labs/grocery/internal/transport/http/v1/params"
	"github.com/corray333/backend-labs/grocery/internal/transport/http/v1/respond"
)

// service is an interface for the service layer.
type service interface {
	UpdateOrderStatus(
		ctx context.Context,
		caller identity.Caller,
		id uuid.UUID,
		status order.Status,
		note *string,
	) (order.Order, error)
}

type updateStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Note   *string `json:"note"   validate:"omitempty,max=1000"`
}

// UpdateStatus handles the order status change request.
func UpdateStatus(w http.ResponseWriter, r *http.Request, service service) {
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

	var req updateStatusRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		respond.Error(w, r, apperr.BadRequest("VALIDATION_ERROR", "%s", err.Error()))
		return
	}

	updated, err := service.UpdateOrderStatus(r.Context(), caller, id, status, req.Note)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, "", updated)
}
