// Package webhook authenticates payment-processor notifications and turns
// them into typed events. The signature is always checked against the raw
// body before any of it is decoded.
package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"
	stripewebhook "github.com/stripe/stripe-go/v81/webhook"

	"github.com/cimillas/eventtix/internal/domain"
)

// SignatureHeader is the request header carrying the processor signature.
const SignatureHeader = "Stripe-Signature"

type Kind int

const (
	KindUnhandled Kind = iota
	KindCheckoutCompleted
	KindPaymentSucceeded
	KindRefunded
)

func (k Kind) String() string {
	switch k {
	case KindCheckoutCompleted:
		return "checkout_completed"
	case KindPaymentSucceeded:
		return "payment_succeeded"
	case KindRefunded:
		return "refunded"
	default:
		return "unhandled"
	}
}

// Event is a verified processor notification.
type Event struct {
	ID   string
	Type string
	Kind Kind
	// Fulfillment is set for KindCheckoutCompleted.
	Fulfillment *domain.FulfillmentEvent
	// PaymentIntentID is set for KindPaymentSucceeded.
	PaymentIntentID string
}

type Verifier struct {
	secret    string
	tolerance time.Duration
}

type Option func(*Verifier)

// WithTolerance overrides how old a signed timestamp may be.
func WithTolerance(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.tolerance = d
		}
	}
}

// NewVerifier returns a verifier for the given endpoint secret. An empty
// secret yields a verifier that rejects every payload.
func NewVerifier(secret string, opts ...Option) *Verifier {
	v := &Verifier{
		secret:    secret,
		tolerance: stripewebhook.DefaultTolerance,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks the signature of payload and decodes it.
func (v *Verifier) Verify(payload []byte, header string) (Event, error) {
	if v.secret == "" || strings.TrimSpace(header) == "" {
		return Event{}, domain.ErrSignatureInvalid
	}
	if err := stripewebhook.ValidatePayloadWithTolerance(payload, header, v.secret, v.tolerance); err != nil {
		return Event{}, fmt.Errorf("%w: %v", domain.ErrSignatureInvalid, err)
	}

	var raw stripe.Event
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Event{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if raw.Type == "" {
		return Event{}, fmt.Errorf("%w: missing event type", domain.ErrMalformedPayload)
	}

	ev := Event{ID: raw.ID, Type: string(raw.Type)}
	switch raw.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		fe, err := decodeCheckoutSession(raw.Data)
		if err != nil {
			return Event{}, err
		}
		ev.Kind = KindCheckoutCompleted
		ev.Fulfillment = &fe
	case stripe.EventTypePaymentIntentSucceeded:
		id, err := decodePaymentIntent(raw.Data)
		if err != nil {
			return Event{}, err
		}
		ev.Kind = KindPaymentSucceeded
		ev.PaymentIntentID = id
	case stripe.EventTypeChargeRefunded:
		ev.Kind = KindRefunded
	default:
		ev.Kind = KindUnhandled
	}
	return ev, nil
}

func decodeCheckoutSession(data *stripe.EventData) (domain.FulfillmentEvent, error) {
	if data == nil || len(data.Raw) == 0 {
		return domain.FulfillmentEvent{}, fmt.Errorf("%w: missing event object", domain.ErrMalformedPayload)
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(data.Raw, &session); err != nil {
		return domain.FulfillmentEvent{}, fmt.Errorf("%w: checkout session: %v", domain.ErrMalformedPayload, err)
	}
	if session.ID == "" {
		return domain.FulfillmentEvent{}, fmt.Errorf("%w: checkout session id", domain.ErrMalformedPayload)
	}

	var customer domain.Customer
	if d := session.CustomerDetails; d != nil {
		customer = domain.Customer{Email: d.Email, Name: d.Name, Phone: d.Phone}
	}
	if customer.Email == "" {
		customer.Email = session.CustomerEmail
	}

	metadata := make(map[string]string, len(session.Metadata))
	for k, val := range session.Metadata {
		metadata[k] = val
	}

	return domain.FulfillmentEvent{
		SessionID:     session.ID,
		AmountMinor:   session.AmountTotal,
		Customer:      customer,
		Metadata:      metadata,
		PaymentMethod: domain.PaymentMethodStripe,
	}, nil
}

func decodePaymentIntent(data *stripe.EventData) (string, error) {
	if data == nil || len(data.Raw) == 0 {
		return "", fmt.Errorf("%w: missing event object", domain.ErrMalformedPayload)
	}
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(data.Raw, &intent); err != nil {
		return "", fmt.Errorf("%w: payment intent: %v", domain.ErrMalformedPayload, err)
	}
	if intent.ID == "" {
		return "", fmt.Errorf("%w: payment intent id", domain.ErrMalformedPayload)
	}
	return intent.ID, nil
}
