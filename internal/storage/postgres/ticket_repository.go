package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cimillas/eventtix/internal/domain"
)

const ticketColumns = `id, order_id, ticket_code, ticket_type, qr_artifact, is_used, used_at, created_at`

type TicketRepository struct {
	pool *pgxpool.Pool
	conn
}

func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool, conn: conn{pool: pool}}
}

// FindTicketsByOrderID returns an empty slice when the order has no tickets.
func (r *TicketRepository) FindTicketsByOrderID(ctx context.Context, orderID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE order_id = $1 ORDER BY created_at ASC, ticket_code ASC`

	rows, err := r.query(ctx, query, orderID)
	if err != nil {
		return nil, classify("find tickets", err)
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, classify("scan ticket", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate tickets", err)
	}
	return tickets, nil
}

// InsertTicketsBatch writes all tickets of an order in one transaction.
// Either every row is stored or none is.
func (r *TicketRepository) InsertTicketsBatch(ctx context.Context, orderID string, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	const stmt = `
INSERT INTO tickets (id, order_id, ticket_code, ticket_type, qr_artifact, is_used, created_at)
VALUES ($1, $2, $3, $4, $5, FALSE, $6)`

	return withTx(ctx, r.pool, func(txCtx context.Context) error {
		tx := txFromContext(txCtx)

		batch := &pgx.Batch{}
		for _, t := range tickets {
			batch.Queue(stmt, t.ID, orderID, t.Code, t.Type, t.QRArtifact, t.CreatedAt)
		}
		results := tx.SendBatch(txCtx, batch)
		for range tickets {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return classify("insert tickets", err)
			}
		}
		return classify("insert tickets", results.Close())
	})
}

func (r *TicketRepository) GetTicketByCode(ctx context.Context, code string) (domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_code = $1`

	t, err := scanTicket(r.queryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Ticket{}, domain.ErrTicketNotFound
		}
		return domain.Ticket{}, classify("get ticket", err)
	}
	return t, nil
}

// RedeemTicket marks an unused ticket as used.
func (r *TicketRepository) RedeemTicket(ctx context.Context, code string, at time.Time) (domain.Ticket, error) {
	stmt := `
UPDATE tickets SET is_used = TRUE, used_at = $2
WHERE ticket_code = $1 AND NOT is_used
RETURNING ` + ticketColumns

	t, err := scanTicket(r.queryRow(ctx, stmt, code, at))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Ticket{}, classify("redeem ticket", err)
	}
	if _, err := r.GetTicketByCode(ctx, code); err != nil {
		return domain.Ticket{}, err
	}
	return domain.Ticket{}, domain.ErrTicketAlreadyUsed
}

func scanTicket(row pgx.Row) (domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(&t.ID, &t.OrderID, &t.Code, &t.Type, &t.QRArtifact, &t.Used, &t.UsedAt, &t.CreatedAt)
	return t, err
}
