package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
)

// Event represents a ticketed event in the catalog.
type Event struct {
	ID          string
	Title       string
	Description string
	Venue       string
	StartsAt    time.Time
	Price       decimal.Decimal
	Status      EventStatus
	SubmittedBy string
	CreatedAt   time.Time
}
