package model

import "time"

// Attendance mirrors the `event_attendances` table, the event-side
// attendance ledger.  The unique key on (event_id, attendee_id) is the
// source of truth for "has this attendee been recorded at this event";
// application-level duplicate checks are only a fast path.
type Attendance struct {
	EventID    string    // event_attendances.event_id
	AttendeeID string    // event_attendances.attendee_id
	ScannedAt  time.Time // event_attendances.scanned_at
}

// AttendeeEvent mirrors the `attendee_events` table, the attendee-side
// view of the ledger.  A row exists here if and only if the matching
// event-side row exists; both are written in one transaction.
type AttendeeEvent struct {
	AttendeeID string // attendee_events.attendee_id
	EventID    string // attendee_events.event_id
}
