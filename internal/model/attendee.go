package model

import "time"

// PriorityDays holds the seven per-weekday priority flags on an
// attendee.  A flag is set to true when the attendee checks in to a
// regular (non-MEALS, non-CHECKIN) event on that weekday; it is never
// cleared by the check-in flow.
type PriorityDays struct {
	Mon bool `json:"has_priority_mon"` // attendees.has_priority_mon
	Tue bool `json:"has_priority_tue"` // attendees.has_priority_tue
	Wed bool `json:"has_priority_wed"` // attendees.has_priority_wed
	Thu bool `json:"has_priority_thu"` // attendees.has_priority_thu
	Fri bool `json:"has_priority_fri"` // attendees.has_priority_fri
	Sat bool `json:"has_priority_sat"` // attendees.has_priority_sat
	Sun bool `json:"has_priority_sun"` // attendees.has_priority_sun
}

// Eligibility holds the four merch eligibility flags.  They are a pure
// function of the attendee's running point total and are recomputed in
// full on every point change, never toggled individually.
type Eligibility struct {
	Tshirt bool `json:"is_eligible_tshirt"` // attendees.is_eligible_tshirt
	Button bool `json:"is_eligible_button"` // attendees.is_eligible_button
	Tote   bool `json:"is_eligible_tote"`   // attendees.is_eligible_tote
	Cap    bool `json:"is_eligible_cap"`    // attendees.is_eligible_cap
}

// Attendee mirrors the `attendees` table.  Points only ever increase
// through the check-in and point-award paths.  HasCheckedIn is the
// general check-in flag flipped once by a CHECKIN-category event or by
// the standalone general check-in endpoint.
//
// Fields:
//  ID           – opaque string identifier (UUID), primary key.
//  UserID       – owning account in the users table; nil for attendees
//                 created before full registration (badge pickup).
//  Points       – running point total (non-negative).
//  Priority     – per-weekday priority flags.
//  Eligibility  – merch eligibility flags derived from Points.
//  HasCheckedIn – general check-in flag.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Attendee struct {
	ID           string       `json:"id"`             // attendees.id
	UserID       *uint64      `json:"user_id"`        // attendees.user_id (nullable)
	Points       int          `json:"points"`         // attendees.points
	Priority     PriorityDays `json:"priority"`       // seven weekday flags
	Eligibility  Eligibility  `json:"eligibility"`    // four merch flags
	HasCheckedIn bool         `json:"has_checked_in"` // attendees.has_checked_in
	CreatedAt    time.Time    `json:"created_at"`     // attendees.created_at
	UpdatedAt    time.Time    `json:"updated_at"`     // attendees.updated_at
}

// DailyPoints mirrors the `attendee_daily_points` table, one row per
// attendee per event day (1..N) that received points inside the event
// window.
type DailyPoints struct {
	AttendeeID string `json:"attendee_id"` // attendee_daily_points.attendee_id
	Day        int    `json:"day"`         // attendee_daily_points.day
	Points     int    `json:"points"`      // attendee_daily_points.points
}
