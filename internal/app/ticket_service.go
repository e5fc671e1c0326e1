package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/cimillas/eventtix/internal/clock"
	"github.com/cimillas/eventtix/internal/domain"
)

type OrderFinder interface {
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
	FindOrdersByEmail(ctx context.Context, email string) ([]domain.Order, error)
}

type TicketLookupService struct {
	orders  OrderFinder
	tickets TicketStore
	events  EventReader
	logger  *slog.Logger
}

func NewTicketLookupService(orders OrderFinder, tickets TicketStore, events EventReader, logger *slog.Logger) *TicketLookupService {
	return &TicketLookupService{
		orders:  orders,
		tickets: tickets,
		events:  events,
		logger:  loggerOrDefault(logger),
	}
}

type LookupInput struct {
	OrderID string
	Email   string
}

// OrderTickets is an order with its tickets. Event is nil when the order
// has no event link or the event could not be loaded.
type OrderTickets struct {
	Order   domain.Order
	Event   *domain.Event
	Tickets []domain.Ticket
}

// Lookup finds tickets by order id, or else by the customer's most recent
// order.
func (s *TicketLookupService) Lookup(ctx context.Context, in LookupInput) (OrderTickets, error) {
	order, err := s.findOrder(ctx, in)
	if err != nil {
		return OrderTickets{}, err
	}

	tickets, err := s.tickets.FindTicketsByOrderID(ctx, order.ID)
	if err != nil {
		return OrderTickets{}, err
	}

	out := OrderTickets{Order: order, Tickets: tickets}
	if order.EventID != nil {
		event, err := s.events.GetEvent(ctx, *order.EventID)
		if err != nil {
			s.logger.Warn("event lookup failed",
				slog.String("order_id", order.ID),
				slog.Any("error", err))
		} else {
			out.Event = &event
		}
	}
	return out, nil
}

func (s *TicketLookupService) findOrder(ctx context.Context, in LookupInput) (domain.Order, error) {
	if id := strings.TrimSpace(in.OrderID); id != "" {
		order, err := s.orders.GetOrder(ctx, id)
		if errors.Is(err, domain.ErrInvalidID) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return order, err
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return domain.Order{}, domain.ErrMissingCustomerContact
	}
	orders, err := s.orders.FindOrdersByEmail(ctx, email)
	if err != nil {
		return domain.Order{}, err
	}
	if len(orders) == 0 {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return orders[0], nil
}

type TicketRedeemer interface {
	RedeemTicket(ctx context.Context, code string, at time.Time) (domain.Ticket, error)
}

// RedemptionService checks attendees in at the door.
type RedemptionService struct {
	tickets TicketRedeemer
	clock   clock.Clock
}

func NewRedemptionService(tickets TicketRedeemer, clk clock.Clock) *RedemptionService {
	return &RedemptionService{
		tickets: tickets,
		clock:   clk,
	}
}

func (s *RedemptionService) Redeem(ctx context.Context, code string) (domain.Ticket, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return domain.Ticket{}, domain.ErrTicketNotFound
	}
	return s.tickets.RedeemTicket(ctx, code, s.clock.Now())
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
