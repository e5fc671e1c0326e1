package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const defaultRequestTimeout = 15 * time.Second

// Services holds the handlers' dependencies.
type Services struct {
	Health       StorePinger
	Verifier     WebhookVerifier
	Fulfillment  PaymentFulfiller
	Catalog      CatalogService
	Checkout     CheckoutStarter
	Registration Registrar
	Lookup       TicketLookup
	Redemption   TicketRedeemer
	Reminder     PaymentReminder
}

type RouterConfig struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig, svc Services) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", HandleHealth(svc.Health))
	r.Post("/webhooks/stripe", HandleStripeWebhook(svc.Verifier, svc.Fulfillment, cfg.Logger))

	r.Route("/events", func(r chi.Router) {
		r.Get("/", HandleListEvents(svc.Catalog))
		r.Post("/", HandleSubmitEvent(svc.Catalog))
		r.Get("/{eventID}", HandleGetEvent(svc.Catalog))
		r.Post("/{eventID}/publish", HandlePublishEvent(svc.Catalog))
	})

	r.Post("/checkout", HandleStartCheckout(svc.Checkout))
	r.Post("/registrations", HandleRegister(svc.Registration))
	r.Post("/orders/{orderID}/reminder", HandleSendReminder(svc.Reminder))

	lookup := HandleLookupTickets(svc.Lookup)
	r.Get("/tickets", lookup)
	r.Post("/tickets", lookup)
	r.Post("/tickets/{code}/redeem", HandleRedeemTicket(svc.Redemption))

	return CORS(cfg.CORSOrigins, r)
}
