package app

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cimillas/eventtix/internal/clock"
	"github.com/cimillas/eventtix/internal/domain"
	"github.com/cimillas/eventtix/internal/payments"
)

type SessionCreator interface {
	CreateSession(ctx context.Context, req payments.SessionRequest) (payments.Session, error)
}

type PendingOrderWriter interface {
	InsertOrder(ctx context.Context, order domain.Order) error
}

// CheckoutService opens a processor checkout session for a published event
// and records a pending order for it. The order is completed later by the
// checkout-completed webhook.
type CheckoutService struct {
	events   EventReader
	orders   PendingOrderWriter
	sessions SessionCreator
	clock    clock.Clock
}

func NewCheckoutService(events EventReader, orders PendingOrderWriter, sessions SessionCreator, clk clock.Clock) *CheckoutService {
	return &CheckoutService{
		events:   events,
		orders:   orders,
		sessions: sessions,
		clock:    clk,
	}
}

type StartCheckoutInput struct {
	EventID  string
	Quantity int
	Customer domain.Customer
}

type CheckoutResult struct {
	SessionID string
	URL       string
	OrderID   string
}

func (s *CheckoutService) StartCheckout(ctx context.Context, in StartCheckoutInput) (CheckoutResult, error) {
	customer, err := validateCustomer(in.Customer)
	if err != nil {
		return CheckoutResult{}, err
	}
	if err := validateQuantity(in.Quantity); err != nil {
		return CheckoutResult{}, err
	}
	event, err := publishedEvent(ctx, s.events, in.EventID)
	if err != nil {
		return CheckoutResult{}, err
	}

	sess, err := s.sessions.CreateSession(ctx, payments.SessionRequest{
		EventID:       event.ID,
		EventTitle:    event.Title,
		EventDate:     event.StartsAt.UTC().Format(time.RFC3339),
		UnitPrice:     event.Price,
		Quantity:      in.Quantity,
		CustomerEmail: customer.Email,
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	now := s.clock.Now()
	eventID := event.ID
	order := domain.Order{
		ID:            newID(),
		SessionID:     sess.ID,
		EventID:       &eventID,
		Customer:      customer,
		PaymentMethod: domain.PaymentMethodStripe,
		TotalAmount:   orderTotal(event.Price, in.Quantity),
		PaymentStatus: domain.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.orders.InsertOrder(ctx, order); err != nil {
		return CheckoutResult{}, err
	}
	return CheckoutResult{SessionID: sess.ID, URL: sess.URL, OrderID: order.ID}, nil
}

func validateCustomer(c domain.Customer) (domain.Customer, error) {
	c.Email = strings.TrimSpace(c.Email)
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Email == "" || !strings.Contains(c.Email, "@") {
		return domain.Customer{}, domain.ErrMissingCustomerContact
	}
	return c, nil
}

func validateQuantity(q int) error {
	if q < 1 || q > maxTicketsPerOrder {
		return domain.ErrInvalidQuantity
	}
	return nil
}

func orderTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}
