package uow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/icatalogrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/icouponrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/interfaces/istatushistoryrepo"
	"github.com/corray333/backend-labs/grocery/internal/dal/postgres"
	catalogrepo "github.com/corray333/backend-labs/grocery/internal/dal/repositories/catalog/postgres"
	couponrepo "github.com/corray333/backend-labs/grocery/internal/dal/repositories/coupon/postgres"
	orderrepo "github.com/corray333/backend-labs/grocery/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/corray333/backend-labs/grocery/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/corray333/backend-labs/grocery/internal/dal/repositories/outbox/postgres"
	statushistoryrepo "github.com/corray333/backend-labs/grocery/internal/dal/repositories/statushistory/postgres"
)

// ErrAlreadyStarted is returned by Begin on a unit of work that already holds a transaction.
var ErrAlreadyStarted = errors.New("unit of work already started")

// UnitOfWork groups repositories that share one pgx transaction once Begin
// is called. Before Begin they run against the pool. It is not safe for
// concurrent use; create one per operation.
type UnitOfWork struct {
	client *postgres.Client
	tx     pgx.Tx

	orderRepo         iorderrepo.IOrderRepository
	orderItemRepo     iorderitemrepo.IOrderItemRepository
	statusHistoryRepo istatushistoryrepo.IStatusHistoryRepository
	catalogRepo       icatalogrepo.ICatalogRepository
	couponRepo        icouponrepo.ICouponRepository
	outboxRepo        ioutboxrepo.IOutboxRepository
}

func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	u := &UnitOfWork{client: client}
	u.bind(client.Pool())

	return u
}

func (u *UnitOfWork) bind(conn postgres.DBTX) {
	u.orderRepo = orderrepo.NewPostgresOrderRepository(conn)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(conn)
	u.statusHistoryRepo = statushistoryrepo.NewStatusHistoryRepository(conn)
	u.catalogRepo = catalogrepo.NewCatalogRepository(conn)
	u.couponRepo = couponrepo.NewCouponRepository(conn)
	u.outboxRepo = outboxrepo.NewOutboxRepository(conn)
}

func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *UnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *UnitOfWork) StatusHistoryRepository() istatushistoryrepo.IStatusHistoryRepository {
	return u.statusHistoryRepo
}

func (u *UnitOfWork) CatalogRepository() icatalogrepo.ICatalogRepository {
	return u.catalogRepo
}

func (u *UnitOfWork) CouponRepository() icouponrepo.ICouponRepository {
	return u.couponRepo
}

func (u *UnitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return ErrAlreadyStarted
	}

	tx, err := u.client.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.bind(tx)

	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	defer u.reset()

	return u.tx.Commit(ctx)
}

// Rollback is a no-op after Commit, so it can be deferred unconditionally.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	defer u.reset()

	err := u.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}

	return err
}

func (u *UnitOfWork) reset() {
	u.tx = nil
	u.bind(u.client.Pool())
}
