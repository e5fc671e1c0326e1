package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cimillas/eventtix/internal/app"
	"github.com/cimillas/eventtix/internal/domain"
	"github.com/cimillas/eventtix/internal/notify"
)

type CheckoutStarter interface {
	StartCheckout(ctx context.Context, in app.StartCheckoutInput) (app.CheckoutResult, error)
}

type Registrar interface {
	Register(ctx context.Context, in app.RegisterInput) (app.FulfillResult, error)
}

type PaymentReminder interface {
	SendPaymentReminder(ctx context.Context, orderID string) (notify.Result, error)
}

type orderRequest struct {
	EventID  string `json:"event_id"`
	Quantity *int   `json:"quantity,omitempty"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

func decodeOrderRequest(w http.ResponseWriter, r *http.Request) (orderRequest, bool) {
	var req orderRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return orderRequest{}, false
	}
	if req.EventID == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, codeMissingRequiredField, "event_id and email are required")
		return orderRequest{}, false
	}
	return req, true
}

func (req orderRequest) quantity() int {
	if req.Quantity == nil {
		return 1
	}
	return *req.Quantity
}

func (req orderRequest) customer() domain.Customer {
	return domain.Customer{Email: req.Email, Name: req.Name, Phone: req.Phone}
}

// HandleStartCheckout opens a hosted checkout session for a published event.
func HandleStartCheckout(svc CheckoutStarter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeOrderRequest(w, r)
		if !ok {
			return
		}
		res, err := svc.StartCheckout(r.Context(), app.StartCheckoutInput{
			EventID:  req.EventID,
			Quantity: req.quantity(),
			Customer: req.customer(),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, checkoutResponse{
			SessionID: res.SessionID,
			URL:       res.URL,
			OrderID:   res.OrderID,
		})
	}
}

// HandleRegister books pay-on-day tickets and returns them immediately.
func HandleRegister(svc Registrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeOrderRequest(w, r)
		if !ok {
			return
		}
		res, err := svc.Register(r.Context(), app.RegisterInput{
			EventID:  req.EventID,
			Quantity: req.quantity(),
			Customer: req.customer(),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, registrationResponse{
			OrderID:  res.Order.ID,
			Status:   string(res.Order.PaymentStatus),
			Notified: res.Notified,
			Tickets:  toTicketResponses(res.Tickets, false),
		})
	}
}

func HandleSendReminder(svc PaymentReminder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.SendPaymentReminder(r.Context(), chi.URLParam(r, "orderID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, reminderResponse{MessageID: res.MessageID})
	}
}

type checkoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	OrderID   string `json:"order_id"`
}

type registrationResponse struct {
	OrderID  string           `json:"order_id"`
	Status   string           `json:"status"`
	Notified bool             `json:"notified"`
	Tickets  []ticketResponse `json:"tickets"`
}

type reminderResponse struct {
	MessageID string `json:"message_id"`
}
