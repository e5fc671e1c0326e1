// Package payments creates hosted checkout sessions at the payment
// processor.
package payments

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"github.com/cimillas/eventtix/internal/domain"
)

const currency = "usd"

type SessionRequest struct {
	EventID       string
	EventTitle    string
	EventDate     string
	UnitPrice     decimal.Decimal
	Quantity      int
	CustomerEmail string
}

type Session struct {
	ID  string
	URL string
}

// StripeCheckout creates Stripe Checkout sessions whose metadata carries
// what fulfillment needs once the payment completes.
type StripeCheckout struct {
	baseURL    string
	newSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

func NewStripeCheckout(secretKey, publicBaseURL string) (*StripeCheckout, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeCheckout{
		baseURL:    strings.TrimRight(publicBaseURL, "/"),
		newSession: api.CheckoutSessions.New,
	}, nil
}

func (c *StripeCheckout) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	params := c.params(req)
	params.Context = ctx

	sess, err := c.newSession(params)
	if err != nil {
		return Session{}, fmt.Errorf("%w: create checkout session: %v", domain.ErrUnavailable, err)
	}
	return Session{ID: sess.ID, URL: sess.URL}, nil
}

func (c *StripeCheckout) params(req SessionRequest) *stripe.CheckoutSessionParams {
	unitAmount := req.UnitPrice.Shift(2).Round(0).IntPart()
	return &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail: stripe.String(req.CustomerEmail),
		SuccessURL:    stripe.String(c.baseURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(c.baseURL + "/events/" + url.PathEscape(req.EventID)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(unitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.EventTitle),
				},
			},
			Quantity: stripe.Int64(int64(req.Quantity)),
		}},
		Metadata: map[string]string{
			domain.MetaEventID:   req.EventID,
			domain.MetaEventName: req.EventTitle,
			domain.MetaEventDate: req.EventDate,
			domain.MetaQuantity:  fmt.Sprint(req.Quantity),
		},
	}
}

// Unavailable is used when no processor credentials are configured.
type Unavailable struct{}

func (Unavailable) CreateSession(context.Context, SessionRequest) (Session, error) {
	return Session{}, domain.ErrUnavailable
}
