package app

import (
	"context"
	"log/slog"

	"github.com/cimillas/eventtix/internal/domain"
	"github.com/cimillas/eventtix/internal/notify"
)

const defaultResendLimit = 100

type FailedOrderStore interface {
	ListOrdersByStatus(ctx context.Context, statuses []domain.PaymentStatus, limit int) ([]domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.PaymentStatus) error
}

// ResendService retries confirmation emails for orders carrying a
// notification-failure marker.
type ResendService struct {
	orders   FailedOrderStore
	tickets  TicketStore
	notifier notify.Sender
	mail     confirmationBuilder
	logger   *slog.Logger
}

func NewResendService(orders FailedOrderStore, tickets TicketStore, events EventReader, notifier notify.Sender, logger *slog.Logger) *ResendService {
	logger = loggerOrDefault(logger)
	return &ResendService{
		orders:   orders,
		tickets:  tickets,
		notifier: notifier,
		mail:     confirmationBuilder{events: events, logger: logger},
		logger:   logger,
	}
}

type ResendReport struct {
	Attempted int
	Resent    int
	Failed    int
}

// ResendFailed processes up to limit marked orders, oldest first. A
// successful send restores the order's base status; failures leave the
// marker in place for the next run.
func (s *ResendService) ResendFailed(ctx context.Context, limit int) (ResendReport, error) {
	if limit <= 0 {
		limit = defaultResendLimit
	}
	orders, err := s.orders.ListOrdersByStatus(ctx, []domain.PaymentStatus{
		domain.PaymentStatusCompletedEmailFailed,
		domain.PaymentStatusPayOnDayEmailFailed,
	}, limit)
	if err != nil {
		return ResendReport{}, err
	}

	var report ResendReport
	for _, order := range orders {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Attempted++
		if s.resend(ctx, order) {
			report.Resent++
		} else {
			report.Failed++
		}
	}
	return report, nil
}

func (s *ResendService) resend(ctx context.Context, order domain.Order) bool {
	log := s.logger.With(slog.String("order_id", order.ID))

	tickets, err := s.tickets.FindTicketsByOrderID(ctx, order.ID)
	if err != nil {
		log.Error("load tickets", slog.Any("error", err))
		return false
	}
	if len(tickets) == 0 {
		log.Warn("order has no tickets, skipping resend")
		return false
	}

	c := s.mail.build(ctx, order, tickets, "", "")
	if c.EventTitle == "" {
		c.EventTitle = fallbackEventTitle
	}
	res := s.notifier.SendConfirmation(ctx, c)
	if !res.Success {
		log.Error("confirmation resend failed", slog.Any("error", res.Err))
		return false
	}
	if err := s.orders.UpdateOrderStatus(ctx, order.ID, order.PaymentStatus.Base()); err != nil {
		log.Error("clear notification marker", slog.Any("error", err))
		return false
	}
	log.Info("confirmation resent", slog.String("message_id", res.MessageID))
	return true
}
