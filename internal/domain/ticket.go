package domain

import "time"

const DefaultTicketType = "Standard"

// Ticket is one admission issued for an order. The set of tickets of an
// order is written once; only the redemption fields change afterwards.
type Ticket struct {
	ID         string
	OrderID    string
	Code       string
	Type       string
	QRArtifact string
	Used       bool
	UsedAt     *time.Time
	CreatedAt  time.Time
}
