package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/cimillas/eventtix/internal/domain"
	"github.com/cimillas/eventtix/internal/notify"
)

// confirmationBuilder assembles the confirmation email for an order. Event
// details are looked up when the order is linked to an event; a failed
// lookup only drops venue and description.
type confirmationBuilder struct {
	events EventReader
	logger *slog.Logger
}

func (b confirmationBuilder) build(ctx context.Context, order domain.Order, tickets []domain.Ticket, title, date string) notify.Confirmation {
	c := notify.Confirmation{
		To:            order.Customer.Email,
		CustomerName:  order.Customer.Name,
		EventTitle:    title,
		EventDate:     date,
		Tickets:       tickets,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		OrderID:       order.ID,
	}
	if order.EventID == nil || b.events == nil {
		return c
	}

	event, err := b.events.GetEvent(ctx, *order.EventID)
	if err != nil {
		b.logger.Warn("event lookup failed, sending without event details",
			slog.String("order_id", order.ID),
			slog.String("event_id", *order.EventID),
			slog.Any("error", err))
		return c
	}
	if c.EventTitle == "" {
		c.EventTitle = event.Title
	}
	if c.EventDate == "" && !event.StartsAt.IsZero() {
		c.EventDate = event.StartsAt.Format(time.RFC3339)
	}
	c.EventVenue = event.Venue
	c.EventDescription = event.Description
	return c
}
