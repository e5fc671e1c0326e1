package app

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimillas/eventtix/internal/clock"
	"github.com/cimillas/eventtix/internal/domain"
	"github.com/cimillas/eventtix/internal/payments"
)

type fakeSessions struct {
	got payments.SessionRequest
	err error
}

func (f *fakeSessions) CreateSession(_ context.Context, req payments.SessionRequest) (payments.Session, error) {
	f.got = req
	if f.err != nil {
		return payments.Session{}, f.err
	}
	return payments.Session{ID: "cs_test_1", URL: "https://checkout.example.com/cs_test_1"}, nil
}

func seedEvent(store *memStore, status domain.EventStatus) domain.Event {
	event := domain.Event{
		ID:       testEventID,
		Title:    "Spring Gala",
		Venue:    "Main Hall",
		StartsAt: time.Date(2025, 5, 1, 19, 0, 0, 0, time.UTC),
		Price:    decimal.RequireFromString("12.50"),
		Status:   status,
	}
	store.events[event.ID] = event
	return event
}

func TestCheckoutService_StartCheckout(t *testing.T) {
	store := newMemStore()
	seedEvent(store, domain.EventStatusPublished)
	sessions := &fakeSessions{}
	now := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	svc := NewCheckoutService(store, store, sessions, clock.NewFixed(now))

	res, err := svc.StartCheckout(context.Background(), StartCheckoutInput{
		EventID:  testEventID,
		Quantity: 2,
		Customer: domain.Customer{Email: " ada@example.com ", Name: "Ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", res.SessionID)
	assert.NotEmpty(t, res.URL)
	assert.Equal(t, 2, sessions.got.Quantity)
	assert.Equal(t, "Spring Gala", sessions.got.EventTitle)
	assert.Equal(t, "2025-05-01T19:00:00Z", sessions.got.EventDate)

	order, ok := store.orders["cs_test_1"]
	require.True(t, ok, "pending order keyed by session id")
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("25")), "total %s", order.TotalAmount)
	assert.Equal(t, "ada@example.com", order.Customer.Email, "trimmed email")
	assert.Equal(t, res.OrderID, order.ID)
}

func TestCheckoutService_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.EventStatus
		input   StartCheckoutInput
		wantErr error
	}{
		{
			name:    "draft event",
			status:  domain.EventStatusDraft,
			input:   StartCheckoutInput{EventID: testEventID, Quantity: 1, Customer: domain.Customer{Email: "a@b.c"}},
			wantErr: domain.ErrEventNotPublished,
		},
		{
			name:    "unknown event",
			status:  domain.EventStatusPublished,
			input:   StartCheckoutInput{EventID: "other", Quantity: 1, Customer: domain.Customer{Email: "a@b.c"}},
			wantErr: domain.ErrEventNotFound,
		},
		{
			name:    "missing email",
			status:  domain.EventStatusPublished,
			input:   StartCheckoutInput{EventID: testEventID, Quantity: 1},
			wantErr: domain.ErrMissingCustomerContact,
		},
		{
			name:    "zero quantity",
			status:  domain.EventStatusPublished,
			input:   StartCheckoutInput{EventID: testEventID, Quantity: 0, Customer: domain.Customer{Email: "a@b.c"}},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "too many",
			status:  domain.EventStatusPublished,
			input:   StartCheckoutInput{EventID: testEventID, Quantity: 51, Customer: domain.Customer{Email: "a@b.c"}},
			wantErr: domain.ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			seedEvent(store, tt.status)
			sessions := &fakeSessions{}
			svc := NewCheckoutService(store, store, sessions, clock.NewFixed(time.Now()))

			_, err := svc.StartCheckout(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, store.orderCount(), "no order written")
		})
	}
}

func TestCheckoutService_ProcessorFailureWritesNothing(t *testing.T) {
	store := newMemStore()
	seedEvent(store, domain.EventStatusPublished)
	svc := NewCheckoutService(store, store, &fakeSessions{err: domain.ErrUnavailable}, clock.NewFixed(time.Now()))

	_, err := svc.StartCheckout(context.Background(), StartCheckoutInput{
		EventID:  testEventID,
		Quantity: 1,
		Customer: domain.Customer{Email: "ada@example.com"},
	})
	require.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Zero(t, store.orderCount(), "no order written")
}
