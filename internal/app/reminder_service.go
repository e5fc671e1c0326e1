package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cimillas/eventtix/internal/domain"
	"github.com/cimillas/eventtix/internal/notify"
)

const fallbackEventTitle = "your event"

type ReminderService struct {
	orders   OrderFinder
	events   EventReader
	notifier notify.Sender
	logger   *slog.Logger
}

func NewReminderService(orders OrderFinder, events EventReader, notifier notify.Sender, logger *slog.Logger) *ReminderService {
	return &ReminderService{
		orders:   orders,
		events:   events,
		notifier: notifier,
		logger:   loggerOrDefault(logger),
	}
}

// SendPaymentReminder emails a pay-on-day customer the amount due at the
// venue.
func (s *ReminderService) SendPaymentReminder(ctx context.Context, orderID string) (notify.Result, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return notify.Result{}, err
	}
	if order.PaymentMethod != domain.PaymentMethodPayOnDay || order.PaymentStatus.Base() != domain.PaymentStatusPayOnDay {
		return notify.Result{}, domain.ErrNotPayOnDay
	}

	r := notify.Reminder{
		To:         order.Customer.Email,
		EventTitle: fallbackEventTitle,
		Amount:     order.TotalAmount,
		OrderID:    order.ID,
	}
	if order.EventID != nil {
		event, err := s.events.GetEvent(ctx, *order.EventID)
		if err != nil {
			s.logger.Warn("event lookup failed, sending generic reminder",
				slog.String("order_id", order.ID),
				slog.Any("error", err))
		} else {
			r.EventTitle = event.Title
			r.EventDate = event.StartsAt.UTC().Format(time.RFC3339)
		}
	}

	res := s.notifier.SendPaymentReminder(ctx, r)
	if !res.Success {
		s.logger.Error("payment reminder failed", slog.String("order_id", order.ID), slog.Any("error", res.Err))
		return res, fmt.Errorf("%w: %v", domain.ErrNotificationFailed, res.Err)
	}
	s.logger.Info("payment reminder sent", slog.String("order_id", order.ID), slog.String("message_id", res.MessageID))
	return res, nil
}
