package service

import (
	"time"

	"github.com/iliyamo/event-checkin-service/internal/model"
)

// Thresholds are the point totals at which each merch item unlocks.
// They are configuration, injected at construction; tests vary them
// freely.  The t-shirt threshold of zero means any attendee who has
// ever been awarded points (including a zero-point check-in) is
// t-shirt eligible.
type Thresholds struct {
	Tshirt int // points required for the t-shirt
	Button int // points required for the button
	Tote   int // points required for the tote bag
	Cap    int // points required for the cap
}

// DefaultThresholds returns the production values.
func DefaultThresholds() Thresholds {
	return Thresholds{Tshirt: 0, Button: 20, Tote: 35, Cap: 50}
}

// EligibilityFor recomputes the four merch flags from scratch for the
// given running total.  Because it is a pure function of the total it
// self-heals if thresholds change between deployments.
func EligibilityFor(points int, t Thresholds) model.Eligibility {
	return model.Eligibility{
		Tshirt: points >= t.Tshirt,
		Button: points >= t.Button,
		Tote:   points >= t.Tote,
		Cap:    points >= t.Cap,
	}
}

// DaySchedule maps wall-clock time to the ordinal day of the event
// (1..Days).  Start is interpreted in Loc; timestamps outside the
// window map to no day, in which case only running totals move and the
// daily bucket is left untouched.
type DaySchedule struct {
	Start time.Time      // first day of the event
	Days  int            // number of event days (day ordinals run 1..Days)
	Loc   *time.Location // zone the event is scheduled in
}

// DayOf returns the event day the instant t falls on, or (0, false)
// when t is outside the event window.  The calculation compares
// calendar dates in the schedule's zone, so an event day runs midnight
// to midnight local time regardless of DST shifts.
func (s DaySchedule) DayOf(t time.Time) (int, bool) {
	if s.Loc == nil || s.Days <= 0 {
		return 0, false
	}
	local := t.In(s.Loc)
	start := s.Start.In(s.Loc)
	startDate := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.Loc)
	localDate := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.Loc)
	day := int(localDate.Sub(startDate).Hours()/24) + 1
	if day < 1 || day > s.Days {
		return 0, false
	}
	return day, true
}
