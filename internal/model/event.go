package model

import "time"

// Event categories as stored in the `events.category` column.  For the
// check-in flow only three classes matter: CHECKIN events flip the
// attendee's general check-in flag, MEALS events skip the priority
// update, every other category behaves like a regular event.
const (
	CategoryRegular   = "REGULAR"
	CategorySpeaker   = "SPEAKER"
	CategoryCorporate = "CORPORATE"
	CategorySpecial   = "SPECIAL"
	CategoryPartners  = "PARTNERS"
	CategoryMeals     = "MEALS"
	CategoryCheckin   = "CHECKIN"
)

// ValidCategory reports whether s is one of the known event categories.
func ValidCategory(s string) bool {
	switch s {
	case CategoryRegular, CategorySpeaker, CategoryCorporate,
		CategorySpecial, CategoryPartners, CategoryMeals, CategoryCheckin:
		return true
	}
	return false
}

// Event mirrors the `events` table.  AttendanceCount is denormalized:
// it is only ever moved by the atomic increment performed during
// check-in and must stay equal to the number of event_attendances rows
// for the event.
//
// Fields:
//  ID              – opaque string identifier (UUID), primary key.
//  Name            – display name.
//  Description     – free-form description.
//  Category        – one of the Category* constants.
//  Points          – points awarded per check-in (non-negative).
//  StartTime       – scheduled start.
//  EndTime         – scheduled end.
//  AttendanceCount – denormalized count of distinct attendees checked in.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Event struct {
	ID              string    `json:"id"`               // events.id
	Name            string    `json:"name"`             // events.name
	Description     string    `json:"description"`      // events.description
	Category        string    `json:"category"`         // events.category
	Points          int       `json:"points"`           // events.points
	StartTime       time.Time `json:"start_time"`       // events.start_time
	EndTime         time.Time `json:"end_time"`         // events.end_time
	AttendanceCount int       `json:"attendance_count"` // events.attendance_count
	CreatedAt       time.Time `json:"created_at"`       // events.created_at
	UpdatedAt       time.Time `json:"updated_at"`       // events.updated_at
}
