package offline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cimillas/eventtix/internal/domain"
)

func TestStore_ReportsUnavailable(t *testing.T) {
	ctx := context.Background()
	s := New()

	checks := map[string]error{
		"with tx":        s.WithTx(ctx, func(context.Context) error { return nil }),
		"insert order":   s.InsertOrder(ctx, domain.Order{}),
		"update status":  s.UpdateOrderStatus(ctx, "id", domain.PaymentStatusCompleted),
		"lock order":     s.LockOrder(ctx, "id"),
		"insert tickets": s.InsertTicketsBatch(ctx, "id", nil),
		"create event":   s.CreateEvent(ctx, domain.Event{}),
	}
	_, err := s.FindOrderBySessionID(ctx, "cs")
	checks["find order"] = err
	_, err = s.CompletePendingOrder(ctx, "pi", time.Now())
	checks["complete pending"] = err
	_, err = s.RedeemTicket(ctx, "code", time.Now())
	checks["redeem ticket"] = err
	_, err = s.ListEvents(ctx, domain.EventStatusPublished)
	checks["list events"] = err

	for name, err := range checks {
		assert.ErrorIs(t, err, domain.ErrUnavailable, name)
	}
}
