package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopengine/order-service/internal/entities"
	"github.com/shopengine/order-service/pkg/trm"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/jmoiron/sqlx"
)

type postgresRepo struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func NewPostgresRepo(db *sqlx.DB) *postgresRepo {
	return &postgresRepo{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// CreateOrder inserts the order header and all of its lines and returns
// the generated order id. Callers run it inside trm.Do; either every
// row lands or none does.
func (r *postgresRepo) CreateOrder(ctx context.Context, ownerID string, lines []entities.OrderLine, total decimal.Decimal, status entities.Status) (string, error) {
	orderID := uuid.NewString()

	query, args := r.qb.Insert("orders").
		Columns("order_id", "owner_id", "total", "status", "created_at").
		Values(orderID, ownerID, total, status.String(), time.Now().UTC()).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}

	q := r.qb.Insert("order_lines").
		Columns("line_id", "order_id", "product_id", "quantity", "unit_price")

	for _, l := range lines {
		q = q.Values(uuid.NewString(), orderID, l.ProductID, l.Quantity, l.UnitPrice)
	}

	query, args = q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to insert order lines: %w", err)
	}

	return orderID, nil
}

// ListAll returns every order across all owners, newest first, each
// annotated with the owner's display name.
func (r *postgresRepo) ListAll(ctx context.Context) ([]entities.OrderSummary, error) {
	query, args := r.qb.Select("order_id", "owner_id", "total", "status", "created_at").
		From("orders").
		OrderBy("created_at DESC").
		MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}

	if len(orders) == 0 {
		return []entities.OrderSummary{}, nil
	}

	ownerIDs := make([]string, 0, len(orders))
	seen := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.OwnerID]; ok {
			continue
		}
		seen[o.OwnerID] = struct{}{}
		ownerIDs = append(ownerIDs, o.OwnerID)
	}

	query, args = r.qb.Select("id", "name").
		From("users").
		Where(sq.Eq{"id": ownerIDs}).
		MustSql()

	var owners []owner
	if err := r.selectContext(ctx, &owners, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select owners: %w", err)
	}
	names := make(map[string]string, len(owners))
	for _, u := range owners {
		names[u.ID] = nullStringToString(u.Name)
	}

	result := make([]entities.OrderSummary, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderToSummary(o, names[o.OwnerID]))
	}

	return result, nil
}

// ListByOwner returns the orders owned by ownerID, newest first.
func (r *postgresRepo) ListByOwner(ctx context.Context, ownerID string) ([]entities.OrderSummary, error) {
	query, args := r.qb.Select("order_id", "owner_id", "total", "status", "created_at").
		From("orders").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC").
		MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}

	result := make([]entities.OrderSummary, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderToSummary(o, ""))
	}

	return result, nil
}

// LatestOrders returns the count most recent orders without owner
// names; the cache warm-up is its only consumer.
func (r *postgresRepo) LatestOrders(ctx context.Context, count int) ([]entities.OrderSummary, error) {
	query, args := r.qb.Select("order_id", "owner_id", "total", "status", "created_at").
		From("orders").
		OrderBy("created_at DESC").
		Limit(uint64(count)).
		MustSql()

	var orders []Order
	if err := r.selectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select latest orders: %w", err)
	}

	result := make([]entities.OrderSummary, 0, len(orders))
	for _, o := range orders {
		result = append(result, OrderToSummary(o, ""))
	}

	return result, nil
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, orderID string) (entities.Order, error) {
	query, args := r.qb.Select("order_id", "owner_id", "total", "status", "created_at").
		From("orders").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}

	lines, err := r.orderLines(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	return OrderToEntity(order, lines), nil
}

// UpdateStatus sets the status of a single order and returns the
// updated row with its lines. Last write wins: there is deliberately no
// version guard on concurrent updates.
func (r *postgresRepo) UpdateStatus(ctx context.Context, orderID string, status entities.Status) (entities.Order, error) {
	query, args := r.qb.Update("orders").
		Set("status", status.String()).
		Where(sq.Eq{"order_id": orderID}).
		Suffix("RETURNING order_id, owner_id, total, status, created_at").
		MustSql()

	var order Order
	err := r.getContext(ctx, &order, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to update order status: %w", err)
	}

	lines, err := r.orderLines(ctx, orderID)
	if err != nil {
		return entities.Order{}, err
	}

	return OrderToEntity(order, lines), nil
}

func (r *postgresRepo) orderLines(ctx context.Context, orderID string) ([]OrderLine, error) {
	query, args := r.qb.Select("line_id", "order_id", "product_id", "quantity", "unit_price").
		From("order_lines").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var lines []OrderLine
	if err := r.selectContext(ctx, &lines, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select order lines: %w", err)
	}
	return lines, nil
}

func (r *postgresRepo) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return r.db.ExecContext(ctx, query, args...)
}

func (r *postgresRepo) getContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return r.db.GetContext(ctx, dest, query, args...)
}

func (r *postgresRepo) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	tx := trm.ExtractTx(ctx)
	if tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return r.db.SelectContext(ctx, dest, query, args...)
}
