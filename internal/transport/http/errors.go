package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cimillas/eventtix/internal/domain"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeMissingRequiredField = "missing_required_field"
	codeInvalidStartsAt      = "invalid_starts_at"
	codeInvalidPrice         = "invalid_price"
	codeInvalidID            = "invalid_id"
	codeEventTitleRequired   = "event_title_required"
	codeInvalidQuantity      = "invalid_quantity"
	codeMissingContact       = "missing_customer_contact"
	codeMissingMetadata      = "missing_event_metadata"
	codeEventNotFound        = "event_not_found"
	codeEventNotPublished    = "event_not_published"
	codeOrderNotFound        = "order_not_found"
	codeTicketNotFound       = "ticket_not_found"
	codeTicketAlreadyUsed    = "ticket_already_used"
	codeNotPayOnDay          = "not_pay_on_day"
	codeConflict             = "conflict"
	codeNotificationFailed   = "notification_failed"
	codeUnavailable          = "service_unavailable"
	codeTimeout              = "timeout"
	codeForbidden            = "forbidden"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorMapping pairs a domain sentinel with its HTTP status and code.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrInvalidID, http.StatusBadRequest, codeInvalidID},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, codeInvalidQuantity},
	{domain.ErrMissingCustomerContact, http.StatusBadRequest, codeMissingContact},
	{domain.ErrMissingEventMetadata, http.StatusBadRequest, codeMissingMetadata},
	{domain.ErrEventTitleRequired, http.StatusBadRequest, codeEventTitleRequired},
	{domain.ErrInvalidPrice, http.StatusBadRequest, codeInvalidPrice},
	{domain.ErrEventNotFound, http.StatusNotFound, codeEventNotFound},
	{domain.ErrOrderNotFound, http.StatusNotFound, codeOrderNotFound},
	{domain.ErrTicketNotFound, http.StatusNotFound, codeTicketNotFound},
	{domain.ErrEventNotPublished, http.StatusConflict, codeEventNotPublished},
	{domain.ErrTicketAlreadyUsed, http.StatusConflict, codeTicketAlreadyUsed},
	{domain.ErrNotPayOnDay, http.StatusConflict, codeNotPayOnDay},
	{domain.ErrConstraintViolation, http.StatusConflict, codeConflict},
	{domain.ErrNotificationFailed, http.StatusBadGateway, codeNotificationFailed},
	{domain.ErrTimeout, http.StatusGatewayTimeout, codeTimeout},
	{domain.ErrUnavailable, http.StatusServiceUnavailable, codeUnavailable},
}

// writeServiceError maps a service error onto the JSON error envelope.
// Unknown errors are reported as internal without leaking their text.
func writeServiceError(w http.ResponseWriter, err error) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, m.err.Error())
			return
		}
	}
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
