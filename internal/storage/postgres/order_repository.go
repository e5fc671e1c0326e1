package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cimillas/eventtix/internal/domain"
)

const orderColumns = `id, external_session_id, event_id, customer_email, customer_name, customer_phone,
	payment_method, total_amount::text, payment_status, created_at, updated_at`

type OrderRepository struct {
	pool *pgxpool.Pool
	conn
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool, conn: conn{pool: pool}}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// FindOrderBySessionID returns nil, nil when no order carries the session id.
func (r *OrderRepository) FindOrderBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE external_session_id = $1`

	o, err := scanOrder(r.queryRow(ctx, query, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("find order by session", err)
	}
	return &o, nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.queryRow(ctx, query, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, classify("get order", err)
	}
	return o, nil
}

func (r *OrderRepository) InsertOrder(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, external_session_id, event_id, customer_email, customer_name, customer_phone,
	payment_method, total_amount, payment_status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11)`

	_, err := r.exec(ctx, stmt,
		order.ID,
		order.SessionID,
		order.EventID,
		order.Customer.Email,
		order.Customer.Name,
		order.Customer.Phone,
		order.PaymentMethod,
		order.TotalAmount.StringFixed(2),
		order.PaymentStatus,
		order.CreatedAt,
		order.UpdatedAt,
	)
	return classify("insert order", err)
}

// UpdateOrderBySessionID rewrites the fulfillment fields of an existing
// order and returns the stored row.
func (r *OrderRepository) UpdateOrderBySessionID(ctx context.Context, sessionID string, upd domain.OrderUpdate) (domain.Order, error) {
	stmt := `
UPDATE orders
SET event_id = $2,
	customer_email = $3,
	customer_name = COALESCE(NULLIF($4::text, ''), customer_name),
	customer_phone = COALESCE(NULLIF($5::text, ''), customer_phone),
	payment_method = $6,
	total_amount = $7::numeric,
	payment_status = $8,
	updated_at = $9
WHERE external_session_id = $1
RETURNING ` + orderColumns

	o, err := scanOrder(r.queryRow(ctx, stmt,
		sessionID,
		upd.EventID,
		upd.Customer.Email,
		upd.Customer.Name,
		upd.Customer.Phone,
		upd.PaymentMethod,
		upd.TotalAmount.StringFixed(2),
		upd.PaymentStatus,
		upd.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, classify("update order", err)
	}
	return o, nil
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID string, status domain.PaymentStatus) error {
	const stmt = `UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID, status)
	if err != nil {
		return classify("update order status", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// CompletePendingOrder moves a pending order to completed. It reports false
// when no pending order carries the session id.
func (r *OrderRepository) CompletePendingOrder(ctx context.Context, sessionID string, at time.Time) (bool, error) {
	const stmt = `
UPDATE orders SET payment_status = $2, updated_at = $3
WHERE external_session_id = $1 AND payment_status = $4`

	tag, err := r.exec(ctx, stmt, sessionID, domain.PaymentStatusCompleted, at, domain.PaymentStatusPending)
	if err != nil {
		return false, classify("complete pending order", err)
	}
	return tag.RowsAffected() > 0, nil
}

// LockOrder takes a row lock on the order for the rest of the transaction.
func (r *OrderRepository) LockOrder(ctx context.Context, orderID string) error {
	const query = `SELECT id FROM orders WHERE id = $1 FOR UPDATE`

	var id string
	if err := r.queryRow(ctx, query, orderID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		return classify("lock order", err)
	}
	return nil
}

func (r *OrderRepository) ListOrdersByStatus(ctx context.Context, statuses []domain.PaymentStatus, limit int) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + `
FROM orders
WHERE payment_status = ANY($1)
ORDER BY updated_at ASC
LIMIT $2`

	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}
	return r.listOrders(ctx, "list orders by status", query, names, limit)
}

// FindOrdersByEmail returns the customer's orders, newest first.
func (r *OrderRepository) FindOrdersByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + `
FROM orders
WHERE lower(customer_email) = lower($1)
ORDER BY created_at DESC`

	return r.listOrders(ctx, "find orders by email", query, email)
}

func (r *OrderRepository) listOrders(ctx context.Context, op, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o       domain.Order
		method  string
		status  string
		amount  string
		eventID *string
	)
	err := row.Scan(
		&o.ID,
		&o.SessionID,
		&eventID,
		&o.Customer.Email,
		&o.Customer.Name,
		&o.Customer.Phone,
		&method,
		&amount,
		&status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	total, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Order{}, fmt.Errorf("parse total_amount %q: %w", amount, err)
	}
	o.EventID = eventID
	o.TotalAmount = total
	o.PaymentMethod = domain.PaymentMethod(method)
	o.PaymentStatus = domain.PaymentStatus(status)
	return o, nil
}
