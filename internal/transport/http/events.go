package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/cimillas/eventtix/internal/app"
	"github.com/cimillas/eventtix/internal/domain"
)

const userIDHeader = "X-User-ID"

// CatalogService is the minimal interface needed for event endpoints.
type CatalogService interface {
	SubmitEvent(ctx context.Context, in app.SubmitEventInput) (domain.Event, error)
	PublishEvent(ctx context.Context, eventID string) (domain.Event, error)
	ListPublished(ctx context.Context) ([]domain.Event, error)
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
}

// HandleListEvents returns the published catalog.
func HandleListEvents(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := svc.ListPublished(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp := make([]eventResponse, 0, len(events))
		for _, event := range events {
			resp = append(resp, toEventResponse(event))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func HandleGetEvent(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := svc.GetEvent(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(event))
	}
}

// HandleSubmitEvent stores a draft event on behalf of the caller named in
// the X-User-ID header.
func HandleSubmitEvent(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(userIDHeader))
		if userID == "" {
			writeError(w, http.StatusUnauthorized, codeMissingRequiredField, "missing "+userIDHeader+" header")
			return
		}

		var req submitEventRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			writeError(w, http.StatusBadRequest, codeEventTitleRequired, domain.ErrEventTitleRequired.Error())
			return
		}

		var startsAt *time.Time
		if req.StartsAt != "" {
			parsed, err := time.Parse(time.RFC3339, req.StartsAt)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidStartsAt, "invalid starts_at format")
				return
			}
			startsAt = &parsed
		}

		price := decimal.Zero
		if req.Price != "" {
			parsed, err := decimal.NewFromString(req.Price)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidPrice, domain.ErrInvalidPrice.Error())
				return
			}
			price = parsed
		}

		event, err := svc.SubmitEvent(r.Context(), app.SubmitEventInput{
			Title:       req.Title,
			Description: req.Description,
			Venue:       req.Venue,
			StartsAt:    startsAt,
			Price:       price,
			SubmittedBy: userID,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toEventResponse(event))
	}
}

func HandlePublishEvent(svc CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := svc.PublishEvent(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(event))
	}
}

type submitEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Venue       string `json:"venue,omitempty"`
	StartsAt    string `json:"starts_at,omitempty"`
	Price       string `json:"price,omitempty"`
}

type eventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Venue       string    `json:"venue,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	Price       string    `json:"price"`
	Status      string    `json:"status"`
}

func toEventResponse(event domain.Event) eventResponse {
	return eventResponse{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Venue:       event.Venue,
		StartsAt:    event.StartsAt,
		Price:       event.Price.StringFixed(2),
		Status:      string(event.Status),
	}
}
