package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cimillas/eventtix/internal/app"
	"github.com/cimillas/eventtix/internal/domain"
)

type TicketLookup interface {
	Lookup(ctx context.Context, in app.LookupInput) (app.OrderTickets, error)
}

type TicketRedeemer interface {
	Redeem(ctx context.Context, code string) (domain.Ticket, error)
}

// HandleLookupTickets serves GET with query parameters and POST with a JSON
// body carrying the same fields.
func HandleLookupTickets(svc TicketLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in app.LookupInput
		switch r.Method {
		case http.MethodGet:
			q := r.URL.Query()
			in = app.LookupInput{OrderID: q.Get("order_id"), Email: q.Get("email")}
		case http.MethodPost:
			var req lookupRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			in = app.LookupInput{OrderID: req.OrderID, Email: req.Email}
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}
		if in.OrderID == "" && in.Email == "" {
			writeError(w, http.StatusBadRequest, codeMissingRequiredField, "email or order_id is required")
			return
		}

		res, err := svc.Lookup(r.Context(), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		resp := lookupResponse{
			Order: orderResponse{
				ID:            res.Order.ID,
				Email:         res.Order.Customer.Email,
				Name:          res.Order.Customer.Name,
				PaymentMethod: string(res.Order.PaymentMethod),
				PaymentStatus: string(res.Order.PaymentStatus),
				TotalAmount:   res.Order.TotalAmount.StringFixed(2),
				CreatedAt:     res.Order.CreatedAt,
			},
			Tickets: toTicketResponses(res.Tickets, true),
		}
		if res.Event != nil {
			ev := toEventResponse(*res.Event)
			resp.Event = &ev
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func HandleRedeemTicket(svc TicketRedeemer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticket, err := svc.Redeem(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTicketResponse(ticket, false))
	}
}

type lookupRequest struct {
	OrderID string `json:"order_id,omitempty"`
	Email   string `json:"email,omitempty"`
}

type lookupResponse struct {
	Order   orderResponse    `json:"order"`
	Event   *eventResponse   `json:"event,omitempty"`
	Tickets []ticketResponse `json:"tickets"`
}

type orderResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	PaymentMethod string    `json:"payment_method"`
	PaymentStatus string    `json:"payment_status"`
	TotalAmount   string    `json:"total_amount"`
	CreatedAt     time.Time `json:"created_at"`
}

type ticketResponse struct {
	Code   string     `json:"code"`
	Type   string     `json:"type"`
	QRCode string     `json:"qr_code,omitempty"`
	Used   bool       `json:"used"`
	UsedAt *time.Time `json:"used_at,omitempty"`
}

func toTicketResponse(t domain.Ticket, withArtifact bool) ticketResponse {
	resp := ticketResponse{
		Code:   t.Code,
		Type:   t.Type,
		Used:   t.Used,
		UsedAt: t.UsedAt,
	}
	if withArtifact {
		resp.QRCode = t.QRArtifact
	}
	return resp
}

func toTicketResponses(tickets []domain.Ticket, withArtifact bool) []ticketResponse {
	out := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketResponse(t, withArtifact))
	}
	return out
}
