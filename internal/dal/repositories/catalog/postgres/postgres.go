package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/icatalogrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/postgres"
	"github.com/corray333/backend-labs/grocery/internal/service/models/catalog"
)

const primaryImageExpr = `(SELECT i.image_url FROM product_images i
	WHERE i.product_id = p.id
	ORDER BY i.is_primary DESC, i.sort_order ASC
	LIMIT 1) AS primary_image`

var vendorColumns = []string{
	"id",
	"user_id",
	"store_name",
	"commission_rate",
	"is_active",
	"total_orders",
}

// CatalogRepository reads vendors, addresses and products, and owns the
// stock counters touched by checkout.
type CatalogRepository struct {
	conn postgres.DBTX
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(conn postgres.DBTX) *CatalogRepository {
	return &CatalogRepository{
		conn: conn,
	}
}

func (r *CatalogRepository) getVendor(ctx context.Context, where sq.Eq) (catalog.Vendor, error) {
	query, args, err := sq.Select(vendorColumns...).
		From("vendors").
		Where(where).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return catalog.Vendor{}, fmt.Errorf("failed to build select query: %w", err)
	}

	var v catalog.Vendor
	err = r.conn.QueryRow(ctx, query, args...).
		Scan(&v.ID, &v.UserID, &v.StoreName, &v.CommissionRate, &v.IsActive, &v.TotalOrders)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Vendor{}, icatalogrepo.ErrVendorNotFound
		}
		return catalog.Vendor{}, fmt.Errorf("failed to get vendor: %w", err)
	}

	return v, nil
}

func (r *CatalogRepository) GetVendor(ctx context.Context, id uuid.UUID) (catalog.Vendor, error) {
	return r.getVendor(ctx, sq.Eq{"id": id})
}

func (r *CatalogRepository) GetVendorByUserID(ctx context.Context, userID uuid.UUID) (catalog.Vendor, error) {
	return r.getVendor(ctx, sq.Eq{"user_id": userID})
}

func (r *CatalogRepository) IncrementVendorOrders(ctx context.Context, vendorID uuid.UUID) error {
	query, args, err := sq.Update("vendors").
		Set("total_orders", sq.Expr("total_orders + 1")).
		Where(sq.Eq{"id": vendorID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to increment vendor orders: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return icatalogrepo.ErrVendorNotFound
	}

	return nil
}

func (r *CatalogRepository) GetAddress(ctx context.Context, id, userID uuid.UUID) (catalog.Address, error) {
	query, args, err := sq.Select(
		"id",
		"user_id",
		"label",
		"full_address",
		"city",
		"state",
		"postal_code",
		"latitude",
		"longitude",
	).
		From("addresses").
		Where(sq.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return catalog.Address{}, fmt.Errorf("failed to build select query: %w", err)
	}

	var a catalog.Address
	err = r.conn.QueryRow(ctx, query, args...).Scan(
		&a.ID,
		&a.UserID,
		&a.Label,
		&a.FullAddress,
		&a.City,
		&a.State,
		&a.PostalCode,
		&a.Latitude,
		&a.Longitude,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Address{}, icatalogrepo.ErrAddressNotFound
		}
		return catalog.Address{}, fmt.Errorf("failed to get address: %w", err)
	}

	return a, nil
}

func (r *CatalogRepository) LockProducts(
	ctx context.Context,
	vendorID uuid.UUID,
	ids []uuid.UUID,
) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sq.Select(
		"p.id",
		"p.vendor_id",
		"p.name",
		"p.price",
		"p.stock_quantity",
		"p.track_inventory",
		"p.unit_type",
		"p.unit_value",
		primaryImageExpr,
	).
		From("products p").
		Where(sq.Eq{"p.vendor_id": vendorID, "p.id": ids}).
		OrderBy("p.id ASC").
		Suffix("FOR UPDATE OF p").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	var products []catalog.Product
	for rows.Next() {
		var p catalog.Product
		err := rows.Scan(
			&p.ID,
			&p.VendorID,
			&p.Name,
			&p.Price,
			&p.StockQuantity,
			&p.TrackInventory,
			&p.UnitType,
			&p.UnitValue,
			&p.PrimaryImage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return products, nil
}

func (r *CatalogRepository) GetVariants(ctx context.Context, ids []uuid.UUID) ([]catalog.Variant, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sq.Select("id", "product_id", "name", "price", "stock_quantity").
		From("product_variants").
		Where(sq.Eq{"id": ids}).
		OrderBy("id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	var variants []catalog.Variant
	for rows.Next() {
		var v catalog.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Price, &v.StockQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		variants = append(variants, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return variants, nil
}

func (r *CatalogRepository) DecrementProductStock(ctx context.Context, productID uuid.UUID, qty int) error {
	query, args, err := sq.Update("products").
		Set("stock_quantity", sq.Expr("stock_quantity - ?", qty)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": productID}).
		Where(sq.GtOrEq{"stock_quantity": qty}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to decrement product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return icatalogrepo.ErrInsufficientStock
	}

	return nil
}

// DecrementVariantStock lowers the variant counter. Variant stock is not
// guarded against going negative.
func (r *CatalogRepository) DecrementVariantStock(ctx context.Context, variantID uuid.UUID, qty int) error {
	query, args, err := sq.Update("product_variants").
		Set("stock_quantity", sq.Expr("stock_quantity - ?", qty)).
		Where(sq.Eq{"id": variantID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to decrement variant stock: %w", err)
	}

	return nil
}

func (r *CatalogRepository) RestoreProductStock(ctx context.Context, productID uuid.UUID, qty int) error {
	query, args, err := sq.Update("products").
		Set("stock_quantity", sq.Expr("stock_quantity + ?", qty)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": productID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to restore product stock: %w", err)
	}

	return nil
}
