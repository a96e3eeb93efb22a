// Package queue defines message payloads exchanged over the message broker.
package queue

// CheckinRecordedEvent is published after a check-in commits.  It
// carries enough for downstream consumers (notification fan-out,
// analytics, staff dashboards) to act without querying the primary
// database.
type CheckinRecordedEvent struct {
	EventID         string `json:"event_id"`
	EventName       string `json:"event_name"`
	Category        string `json:"category"`
	AttendeeID      string `json:"attendee_id"`
	PointsAwarded   int    `json:"points_awarded"`
	AttendanceCount int    `json:"attendance_count"`
	ScannedAt       string `json:"scanned_at"`
}
