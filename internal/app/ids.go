package app

import "github.com/google/uuid"

// newID returns a random (version 4) identifier for new rows.
func newID() string {
	return uuid.NewString()
}

// registrationSessionID is the external session id given to pay-on-day
// orders, which have no payment provider session.
func registrationSessionID() string {
	return "payday_" + uuid.NewString()
}
