package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/event-checkin-service/internal/model"
	"github.com/iliyamo/event-checkin-service/internal/queue"
	"github.com/iliyamo/event-checkin-service/internal/repository"
)

// EventStore is the slice of the event repository the check-in flow
// needs.  Narrow interfaces keep the orchestration testable with
// in-memory fakes.
type EventStore interface {
	GetByID(ctx context.Context, id string) (model.Event, error)
	IncrementAttendance(ctx context.Context, id string) (int, error)
}

// AttendeeStore is the slice of the attendee repository used by the
// check-in and point-award flows.
type AttendeeStore interface {
	GetByID(ctx context.Context, id string) (model.Attendee, error)
	AwardPoints(ctx context.Context, id string, amount, tshirtAt, buttonAt, toteAt, capAt int) (model.Attendee, error)
	SetPriorityDay(ctx context.Context, id string, day time.Weekday) error
	MarkCheckedIn(ctx context.Context, id string) error
	AddDailyPoints(ctx context.Context, id string, day, amount int) error
}

// AttendanceStore is the two-sided ledger interface.
type AttendanceStore interface {
	Exists(ctx context.Context, eventID, attendeeID string) (bool, error)
	Record(ctx context.Context, eventID, attendeeID string) error
}

// Publisher delivers a check-in notification to the broker.  Publishing
// is best-effort: the orchestrator logs failures and never surfaces
// them to the caller.
type Publisher func(ctx context.Context, ev queue.CheckinRecordedEvent) error

// CheckinService sequences a check-in across the ledger, the attendance
// counter and the points engine.  It performs no retries itself: reads
// are idempotent and the single-shot writes must not be replayed
// blindly or points could be awarded twice.
type CheckinService struct {
	Events     EventStore
	Attendees  AttendeeStore
	Attendance AttendanceStore
	Thresholds Thresholds
	Schedule   DaySchedule
	Loc        *time.Location   // zone used to resolve "today's" weekday
	Now        func() time.Time // injected clock; defaults to time.Now
	Publish    Publisher        // optional; nil disables notifications
}

// NewCheckinService wires a CheckinService.  The core stores must be
// non-nil; Publish may be nil.
func NewCheckinService(events EventStore, attendees AttendeeStore, attendance AttendanceStore, th Thresholds, sched DaySchedule, loc *time.Location, pub Publisher) *CheckinService {
	if events == nil || attendees == nil || attendance == nil {
		panic("nil store passed to NewCheckinService")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CheckinService{
		Events:     events,
		Attendees:  attendees,
		Attendance: attendance,
		Thresholds: th,
		Schedule:   sched,
		Loc:        loc,
		Now:        time.Now,
		Publish:    pub,
	}
}

func (s *CheckinService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CheckInToEvent records the attendee at the event and applies the
// category-dependent side effects, returning the attendee ID on
// success.  The sequence is linear and aborts on the first failure:
//
//  1. resolve event and attendee (ErrEventNotFound / ErrAttendeeNotFound)
//  2. duplicate fast-path over both ledger sides (ErrDuplicateAttendance)
//  3. priority flag for today's weekday, unless the event is MEALS or
//     CHECKIN
//  4. ledger write, both sides in one transaction; the unique key here
//     is the authoritative duplicate signal under races
//  5. atomic attendance counter increment
//  6. point award with full eligibility recompute (runs even for zero
//     points so the t-shirt flag flips on any first check-in)
//  7. for CHECKIN events, the general check-in flag
//
// Steps 5-7 are separate statements after the ledger commit, so a crash
// between them can leave the counter or points one behind the ledger.
// The ledger itself cannot split.
func (s *CheckinService) CheckInToEvent(ctx context.Context, eventID, attendeeID string) (string, error) {
	event, err := s.Events.GetByID(ctx, eventID)
	if err != nil {
		return "", err
	}
	attendee, err := s.Attendees.GetByID(ctx, attendeeID)
	if err != nil {
		return "", err
	}

	if dup, err := s.Attendance.Exists(ctx, eventID, attendeeID); err != nil {
		return "", err
	} else if dup {
		return "", repository.ErrDuplicateAttendance
	}

	// MEALS and CHECKIN events never grant priority; every other
	// category marks today's weekday in the event's zone.
	if event.Category != model.CategoryMeals && event.Category != model.CategoryCheckin {
		weekday := s.now().In(s.Loc).Weekday()
		if err := s.Attendees.SetPriorityDay(ctx, attendeeID, weekday); err != nil {
			return "", err
		}
	}

	if err := s.Attendance.Record(ctx, eventID, attendeeID); err != nil {
		return "", err
	}

	count, err := s.Events.IncrementAttendance(ctx, eventID)
	if err != nil {
		return "", err
	}

	t := s.Thresholds
	if _, err := s.Attendees.AwardPoints(ctx, attendeeID, event.Points, t.Tshirt, t.Button, t.Tote, t.Cap); err != nil {
		return "", err
	}

	if event.Category == model.CategoryCheckin {
		// The flag is idempotent in this flow: a CHECKIN event for an
		// attendee who already flipped it is still a valid check-in.
		if err := s.Attendees.MarkCheckedIn(ctx, attendeeID); err != nil &&
			!errors.Is(err, repository.ErrAlreadyCheckedIn) {
			return "", err
		}
	}

	if s.Publish != nil {
		ev := queue.CheckinRecordedEvent{
			EventID:         event.ID,
			EventName:       event.Name,
			Category:        event.Category,
			AttendeeID:      attendee.ID,
			PointsAwarded:   event.Points,
			AttendanceCount: count,
			ScannedAt:       s.now().UTC().Format(time.RFC3339),
		}
		if err := s.Publish(ctx, ev); err != nil {
			log.Printf("checkin: publish failed for event=%s attendee=%s: %v", event.ID, attendee.ID, err)
		}
	}

	return attendee.ID, nil
}

// GeneralCheckIn flips only the attendee's general check-in flag.  It
// touches neither the ledger nor points.  Returns ErrAttendeeNotFound
// when the attendee does not exist and ErrAlreadyCheckedIn when the
// flag was already set.
func (s *CheckinService) GeneralCheckIn(ctx context.Context, attendeeID string) error {
	attendee, err := s.Attendees.GetByID(ctx, attendeeID)
	if err != nil {
		return err
	}
	if attendee.HasCheckedIn {
		return repository.ErrAlreadyCheckedIn
	}
	// MarkCheckedIn re-checks the flag in its WHERE clause, so a racing
	// second request still gets ErrAlreadyCheckedIn rather than a
	// silent double toggle.
	return s.Attendees.MarkCheckedIn(ctx, attendeeID)
}

// AddPoints is the manual point-award entry used outside the event
// check-in flow.  It always moves the running total (with a full
// eligibility recompute) and additionally credits the daily bucket when
// the timestamp falls inside the event window.
func (s *CheckinService) AddPoints(ctx context.Context, attendeeID string, amount int, at time.Time) (model.Attendee, error) {
	t := s.Thresholds
	attendee, err := s.Attendees.AwardPoints(ctx, attendeeID, amount, t.Tshirt, t.Button, t.Tote, t.Cap)
	if err != nil {
		return model.Attendee{}, err
	}
	if day, ok := s.Schedule.DayOf(at); ok {
		if err := s.Attendees.AddDailyPoints(ctx, attendeeID, day, amount); err != nil {
			return model.Attendee{}, err
		}
	}
	return attendee, nil
}
