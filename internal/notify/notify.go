// Package notify renders and delivers customer emails. Senders report
// delivery problems as a failed Result instead of an error so that callers
// can treat notification as best effort.
package notify

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/cimillas/eventtix/internal/domain"
)

// Confirmation is everything needed to render a ticket confirmation.
type Confirmation struct {
	To               string
	CustomerName     string
	EventTitle       string
	EventDate        string
	EventVenue       string
	EventDescription string
	Tickets          []domain.Ticket
	TotalAmount      decimal.Decimal
	PaymentMethod    domain.PaymentMethod
	OrderID          string
}

// Reminder asks a pay-on-day customer to bring payment to the venue.
type Reminder struct {
	To         string
	EventTitle string
	EventDate  string
	Amount     decimal.Decimal
	OrderID    string
}

type Result struct {
	Success   bool
	MessageID string
	Err       error
}

func failed(err error) Result {
	return Result{Success: false, Err: err}
}

type Sender interface {
	SendConfirmation(ctx context.Context, c Confirmation) Result
	SendPaymentReminder(ctx context.Context, r Reminder) Result
}

// Unavailable is the sender used when no mail transport is configured.
type Unavailable struct{}

func (Unavailable) SendConfirmation(context.Context, Confirmation) Result {
	return failed(domain.ErrUnavailable)
}

func (Unavailable) SendPaymentReminder(context.Context, Reminder) Result {
	return failed(domain.ErrUnavailable)
}
