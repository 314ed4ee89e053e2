package orderitem

import "github.com/google/uuid"

// QueryOrderItemsModel represents filter parameters for querying order items.
type QueryOrderItemsModel struct {
	Ids        []uuid.UUID
	OrderIds   []uuid.UUID
	ProductIds []uuid.UUID
}
