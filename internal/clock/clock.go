// Package clock abstracts wall-clock time for deterministic tests.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Real implements Clock using the standard library.
type Real struct{}

// Now returns the current time in the server's local zone. Parking expiry
// timestamps come from browser datetime-local inputs, so they must be
// compared in the same zone the server runs in; converting to UTC would make
// reservations expire early or late by the zone offset.
func (Real) Now() time.Time {
	return time.Now()
}
