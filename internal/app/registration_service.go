package app

import (
	"context"
	"strconv"
	"time"

	"github.com/cimillas/eventtix/internal/domain"
)

type Fulfiller interface {
	Fulfill(ctx context.Context, ev domain.FulfillmentEvent) (FulfillResult, error)
}

// RegistrationService registers attendees who pay at the venue. It runs
// the same fulfillment as a processor payment, under a synthetic session
// id.
type RegistrationService struct {
	events    EventReader
	fulfiller Fulfiller
}

func NewRegistrationService(events EventReader, fulfiller Fulfiller) *RegistrationService {
	return &RegistrationService{
		events:    events,
		fulfiller: fulfiller,
	}
}

type RegisterInput struct {
	EventID  string
	Quantity int
	Customer domain.Customer
}

func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (FulfillResult, error) {
	customer, err := validateCustomer(in.Customer)
	if err != nil {
		return FulfillResult{}, err
	}
	if err := validateQuantity(in.Quantity); err != nil {
		return FulfillResult{}, err
	}
	event, err := publishedEvent(ctx, s.events, in.EventID)
	if err != nil {
		return FulfillResult{}, err
	}

	total := orderTotal(event.Price, in.Quantity)
	return s.fulfiller.Fulfill(ctx, domain.FulfillmentEvent{
		SessionID:   registrationSessionID(),
		AmountMinor: total.Shift(2).IntPart(),
		Customer:    customer,
		Metadata: map[string]string{
			domain.MetaEventID:   event.ID,
			domain.MetaEventName: event.Title,
			domain.MetaEventDate: event.StartsAt.UTC().Format(time.RFC3339),
			domain.MetaQuantity:  strconv.Itoa(in.Quantity),
		},
		PaymentMethod: domain.PaymentMethodPayOnDay,
	})
}
