package getorder

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
	GetOrder(ctx context.Context, caller identity.Caller, id uuid.UUID) (order.Order, error)
}

// GetOrder handles the order details request.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
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

	o, err := service.GetOrder(r.Context(), caller, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, r, http.StatusOK, "", o)
}
