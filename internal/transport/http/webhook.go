package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cimillas/eventtix/internal/app"
	"github.com/cimillas/eventtix/internal/domain"
	"github.com/cimillas/eventtix/internal/webhook"
)

const maxWebhookBody = 1 << 20

// WebhookVerifier authenticates and parses processor deliveries.
type WebhookVerifier interface {
	Verify(payload []byte, header string) (webhook.Event, error)
}

// PaymentFulfiller is the minimal interface needed by the webhook endpoint.
type PaymentFulfiller interface {
	Fulfill(ctx context.Context, ev domain.FulfillmentEvent) (app.FulfillResult, error)
	ConfirmPaymentIntent(ctx context.Context, intentID string) error
}

type webhookResponse struct {
	Received bool   `json:"received"`
	Error    string `json:"error,omitempty"`
}

// HandleStripeWebhook acknowledges processor events. Any non-2xx answer
// makes the processor redeliver, which fulfillment tolerates.
func HandleStripeWebhook(verifier WebhookVerifier, svc PaymentFulfiller, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			writeWebhookError(w, "invalid payload")
			return
		}

		event, err := verifier.Verify(payload, r.Header.Get(webhook.SignatureHeader))
		if err != nil {
			logger.Warn("webhook rejected", slog.Any("error", err))
			if errors.Is(err, domain.ErrSignatureInvalid) {
				writeWebhookError(w, "Webhook signature verification failed")
				return
			}
			writeWebhookError(w, "invalid payload")
			return
		}

		log := logger.With(
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type),
		)

		switch event.Kind {
		case webhook.KindCheckoutCompleted:
			res, err := svc.Fulfill(r.Context(), *event.Fulfillment)
			if err != nil {
				log.Error("fulfillment failed", slog.Any("error", err))
				writeWebhookError(w, err.Error())
				return
			}
			log.Info("checkout fulfilled",
				slog.String("order_id", res.Order.ID),
				slog.Int("tickets", len(res.Tickets)),
				slog.Bool("notified", res.Notified))
		case webhook.KindPaymentSucceeded:
			if err := svc.ConfirmPaymentIntent(r.Context(), event.PaymentIntentID); err != nil {
				log.Error("payment intent update failed", slog.Any("error", err))
			}
		case webhook.KindRefunded:
			log.Info("charge refunded")
		default:
			log.Info("unhandled event type")
		}

		writeJSON(w, http.StatusOK, webhookResponse{Received: true})
	}
}

func writeWebhookError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, webhookResponse{Received: false, Error: msg})
}
