// Package offline provides the stores used when no database is configured.
// Every operation reports domain.ErrUnavailable.
package offline

import (
	"context"
	"time"

	"github.com/cimillas/eventtix/internal/domain"
)

type Store struct{}

func New() Store { return Store{} }

func (Store) WithTx(context.Context, func(ctx context.Context) error) error {
	return domain.ErrUnavailable
}

func (Store) FindOrderBySessionID(context.Context, string) (*domain.Order, error) {
	return nil, domain.ErrUnavailable
}

func (Store) GetOrder(context.Context, string) (domain.Order, error) {
	return domain.Order{}, domain.ErrUnavailable
}

func (Store) InsertOrder(context.Context, domain.Order) error {
	return domain.ErrUnavailable
}

func (Store) UpdateOrderBySessionID(context.Context, string, domain.OrderUpdate) (domain.Order, error) {
	return domain.Order{}, domain.ErrUnavailable
}

func (Store) UpdateOrderStatus(context.Context, string, domain.PaymentStatus) error {
	return domain.ErrUnavailable
}

func (Store) CompletePendingOrder(context.Context, string, time.Time) (bool, error) {
	return false, domain.ErrUnavailable
}

func (Store) LockOrder(context.Context, string) error {
	return domain.ErrUnavailable
}

func (Store) ListOrdersByStatus(context.Context, []domain.PaymentStatus, int) ([]domain.Order, error) {
	return nil, domain.ErrUnavailable
}

func (Store) FindOrdersByEmail(context.Context, string) ([]domain.Order, error) {
	return nil, domain.ErrUnavailable
}

func (Store) FindTicketsByOrderID(context.Context, string) ([]domain.Ticket, error) {
	return nil, domain.ErrUnavailable
}

func (Store) InsertTicketsBatch(context.Context, string, []domain.Ticket) error {
	return domain.ErrUnavailable
}

func (Store) GetTicketByCode(context.Context, string) (domain.Ticket, error) {
	return domain.Ticket{}, domain.ErrUnavailable
}

func (Store) RedeemTicket(context.Context, string, time.Time) (domain.Ticket, error) {
	return domain.Ticket{}, domain.ErrUnavailable
}

func (Store) CreateEvent(context.Context, domain.Event) error {
	return domain.ErrUnavailable
}

func (Store) GetEvent(context.Context, string) (domain.Event, error) {
	return domain.Event{}, domain.ErrUnavailable
}

func (Store) ListEvents(context.Context, domain.EventStatus) ([]domain.Event, error) {
	return nil, domain.ErrUnavailable
}

func (Store) PublishEvent(context.Context, string) (domain.Event, error) {
	return domain.Event{}, domain.ErrUnavailable
}
