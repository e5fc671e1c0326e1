package domain

import "errors"

// Inbound trust failures. Nothing is written when either is returned.
var (
	ErrSignatureInvalid = errors.New("signature invalid")
	ErrMalformedPayload = errors.New("malformed payload")
)

// Trusted but incomplete fulfillment events.
var (
	ErrMissingCustomerContact = errors.New("missing customer contact")
	ErrMissingEventMetadata   = errors.New("missing event metadata")
	ErrInvalidQuantity        = errors.New("invalid quantity")
)

// Store failures.
var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrEventNotFound       = errors.New("event not found")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrUnavailable         = errors.New("unavailable")
	ErrInvalidID           = errors.New("invalid id")
)

// ErrTimeout is reported when a request budget runs out. It matches
// ErrUnavailable under errors.Is.
var ErrTimeout error = timeoutError{}

type timeoutError struct{}

func (timeoutError) Error() string { return "timeout" }

func (timeoutError) Is(target error) bool { return target == ErrUnavailable }

var (
	ErrTicketAlreadyUsed  = errors.New("ticket already used")
	ErrEventNotPublished  = errors.New("event not published")
	ErrEventTitleRequired = errors.New("event title required")
	ErrInvalidPrice       = errors.New("invalid price")
	ErrNotPayOnDay        = errors.New("order is not pay-on-day")
	ErrNotificationFailed = errors.New("notification failed")
)
