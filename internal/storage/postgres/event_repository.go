package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cimillas/eventtix/internal/domain"
)

const eventColumns = `id, title, description, venue, starts_at, price::text, status, submitted_by, created_at`

type EventRepository struct {
	conn
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{conn: conn{pool: pool}}
}

func (r *EventRepository) CreateEvent(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (id, title, description, venue, starts_at, price, status, submitted_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9)`
	_, err := r.exec(ctx, stmt,
		event.ID,
		event.Title,
		event.Description,
		event.Venue,
		event.StartsAt,
		event.Price.StringFixed(2),
		event.Status,
		event.SubmittedBy,
		event.CreatedAt,
	)
	return classify("create event", err)
}

func (r *EventRepository) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := scanEvent(r.queryRow(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, classify("get event", err)
	}
	return event, nil
}

// ListEvents returns events with the given status ordered by start time.
func (r *EventRepository) ListEvents(ctx context.Context, status domain.EventStatus) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + `
FROM events
WHERE status = $1
ORDER BY starts_at ASC, created_at ASC`
	rows, err := r.query(ctx, query, status)
	if err != nil {
		return nil, classify("list events", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, classify("scan event", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate events", err)
	}
	return events, nil
}

func (r *EventRepository) PublishEvent(ctx context.Context, eventID string) (domain.Event, error) {
	stmt := `UPDATE events SET status = $2 WHERE id = $1 RETURNING ` + eventColumns
	event, err := scanEvent(r.queryRow(ctx, stmt, eventID, domain.EventStatusPublished))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, classify("publish event", err)
	}
	return event, nil
}

func scanEvent(row pgx.Row) (domain.Event, error) {
	var (
		e      domain.Event
		price  string
		status string
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Venue, &e.StartsAt, &price, &status, &e.SubmittedBy, &e.CreatedAt); err != nil {
		return domain.Event{}, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Event{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	e.Price = p
	e.Status = domain.EventStatus(status)
	return e, nil
}
