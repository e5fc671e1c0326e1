package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodStripe   PaymentMethod = "stripe"
	PaymentMethodPayOnDay PaymentMethod = "pay-on-day"
)

type PaymentStatus string

const (
	PaymentStatusPending              PaymentStatus = "pending"
	PaymentStatusCompleted            PaymentStatus = "completed"
	PaymentStatusCompletedEmailFailed PaymentStatus = "completed_email_failed"
	PaymentStatusPayOnDay             PaymentStatus = "pay_on_day"
	PaymentStatusPayOnDayEmailFailed  PaymentStatus = "pay_on_day_email_failed"
)

// FulfilledStatus is the status an order takes once fulfillment for the
// given payment method has run.
func FulfilledStatus(m PaymentMethod) PaymentStatus {
	if m == PaymentMethodPayOnDay {
		return PaymentStatusPayOnDay
	}
	return PaymentStatusCompleted
}

// NotificationFailed returns the marker recorded when the confirmation
// email for an order in status s could not be delivered.
func (s PaymentStatus) NotificationFailed() PaymentStatus {
	switch s {
	case PaymentStatusPayOnDay, PaymentStatusPayOnDayEmailFailed:
		return PaymentStatusPayOnDayEmailFailed
	default:
		return PaymentStatusCompletedEmailFailed
	}
}

// Base strips the notification-failure marker.
func (s PaymentStatus) Base() PaymentStatus {
	switch s {
	case PaymentStatusCompletedEmailFailed:
		return PaymentStatusCompleted
	case PaymentStatusPayOnDayEmailFailed:
		return PaymentStatusPayOnDay
	default:
		return s
	}
}

func (s PaymentStatus) IsNotificationFailed() bool {
	return s == PaymentStatusCompletedEmailFailed || s == PaymentStatusPayOnDayEmailFailed
}

// Customer is the contact captured at checkout or registration.
type Customer struct {
	Email string
	Name  string
	Phone string
}

// Order is keyed externally by the payment session id; at most one order
// exists per session.
type Order struct {
	ID            string
	SessionID     string
	EventID       *string
	Customer      Customer
	PaymentMethod PaymentMethod
	TotalAmount   decimal.Decimal
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderUpdate carries the fields rewritten when a fulfillment event is
// applied to an existing order.
type OrderUpdate struct {
	EventID       *string
	Customer      Customer
	PaymentMethod PaymentMethod
	TotalAmount   decimal.Decimal
	PaymentStatus PaymentStatus
	UpdatedAt     time.Time
}
