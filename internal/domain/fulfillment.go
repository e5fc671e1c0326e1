package domain

import "github.com/shopspring/decimal"

// Metadata keys attached to a checkout session when it is created.
const (
	MetaEventID   = "eventId"
	MetaEventName = "eventName"
	MetaEventDate = "eventDate"
	MetaQuantity  = "quantity"
)

// FulfillmentEvent is a verified notification that a payment completed,
// or a pay-on-day registration taking the same path.
type FulfillmentEvent struct {
	SessionID     string
	AmountMinor   int64
	Customer      Customer
	Metadata      map[string]string
	PaymentMethod PaymentMethod
}

// Amount converts the minor-unit amount to currency units.
func (e FulfillmentEvent) Amount() decimal.Decimal {
	return decimal.New(e.AmountMinor, -2)
}
