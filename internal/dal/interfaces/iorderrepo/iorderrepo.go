package iorderrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/grocery/internal/service/models/order"
)

// ErrOrderNotFound is returned when no order matches the lookup.
var ErrOrderNotFound = errors.New("order not found")

// ErrOrderNumberTaken is returned by Insert when the order number is already used.
var ErrOrderNumberTaken = errors.New("order number already taken")

// IOrderRepository is an interface for order postgres repository.
type IOrderRepository interface {
	// Insert stores the order row. A duplicate order number leaves the
	// transaction usable and returns ErrOrderNumberTaken.
	Insert(ctx context.Context, o order.Order) error
	// GetByID loads the order row without items or history.
	GetByID(ctx context.Context, id uuid.UUID) (order.Order, error)
	// GetByIDForUpdate is GetByID holding a row lock until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (order.Order, error)
	// Query returns one page of orders, newest first, and the total match count.
	Query(ctx context.Context, filter order.QueryOrdersModel) ([]order.Order, int64, error)
	UpdateStatus(ctx context.Context, o order.Order) error
}
