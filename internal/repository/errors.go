// Package repository defines error values shared across repositories.
// These sentinels let handlers and the check-in service distinguish
// failure kinds with errors.Is instead of matching on message strings,
// and map each kind to its own HTTP status.
package repository

import "errors"

// ErrEventNotFound is returned when a referenced event does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrAttendeeNotFound is returned when a referenced attendee does not
// exist.
var ErrAttendeeNotFound = errors.New("attendee not found")

// ErrDuplicateAttendance is returned when an (event, attendee) pair is
// already recorded in the ledger.  The unique key on the event-side
// table raises it authoritatively even when two requests race past the
// application-level pre-check.
var ErrDuplicateAttendance = errors.New("duplicate attendance")

// ErrAlreadyCheckedIn is returned by the general check-in flow when the
// attendee's check-in flag is already set.
var ErrAlreadyCheckedIn = errors.New("already checked in")
