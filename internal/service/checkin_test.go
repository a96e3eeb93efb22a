package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-checkin-service/internal/model"
	"github.com/iliyamo/event-checkin-service/internal/queue"
	"github.com/iliyamo/event-checkin-service/internal/repository"
)

// fakeStore backs all three store interfaces with maps, mirroring the
// repository semantics closely enough for the orchestration tests:
// dual-sided ledger, flag-guarded check-in, threshold recompute on
// every award.
type fakeStore struct {
	events     map[string]model.Event
	attendees  map[string]model.Attendee
	ledger     map[string]bool     // "event|attendee", event side
	byAttendee map[string][]string // attendee side of the ledger
	daily      map[string]int      // "attendee|day"
	thresholds Thresholds
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:     map[string]model.Event{},
		attendees:  map[string]model.Attendee{},
		ledger:     map[string]bool{},
		byAttendee: map[string][]string{},
		daily:      map[string]int{},
		thresholds: DefaultThresholds(),
	}
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (model.Event, error) {
	ev, ok := f.events[id]
	if !ok {
		return model.Event{}, repository.ErrEventNotFound
	}
	return ev, nil
}

func (f *fakeStore) IncrementAttendance(ctx context.Context, id string) (int, error) {
	ev, ok := f.events[id]
	if !ok {
		return 0, repository.ErrEventNotFound
	}
	ev.AttendanceCount++
	f.events[id] = ev
	return ev.AttendanceCount, nil
}

// attendeeView separates the AttendeeStore methods so the same fake
// can be handed to NewCheckinService for all three interfaces.
type attendeeView struct{ f *fakeStore }

func (v attendeeView) GetByID(ctx context.Context, id string) (model.Attendee, error) {
	a, ok := v.f.attendees[id]
	if !ok {
		return model.Attendee{}, repository.ErrAttendeeNotFound
	}
	return a, nil
}

func (v attendeeView) AwardPoints(ctx context.Context, id string, amount, tshirtAt, buttonAt, toteAt, capAt int) (model.Attendee, error) {
	a, ok := v.f.attendees[id]
	if !ok {
		return model.Attendee{}, repository.ErrAttendeeNotFound
	}
	a.Points += amount
	a.Eligibility = EligibilityFor(a.Points, Thresholds{Tshirt: tshirtAt, Button: buttonAt, Tote: toteAt, Cap: capAt})
	v.f.attendees[id] = a
	return a, nil
}

func (v attendeeView) SetPriorityDay(ctx context.Context, id string, day time.Weekday) error {
	a, ok := v.f.attendees[id]
	if !ok {
		return repository.ErrAttendeeNotFound
	}
	switch day {
	case time.Monday:
		a.Priority.Mon = true
	case time.Tuesday:
		a.Priority.Tue = true
	case time.Wednesday:
		a.Priority.Wed = true
	case time.Thursday:
		a.Priority.Thu = true
	case time.Friday:
		a.Priority.Fri = true
	case time.Saturday:
		a.Priority.Sat = true
	case time.Sunday:
		a.Priority.Sun = true
	}
	v.f.attendees[id] = a
	return nil
}

func (v attendeeView) MarkCheckedIn(ctx context.Context, id string) error {
	a, ok := v.f.attendees[id]
	if !ok {
		return repository.ErrAttendeeNotFound
	}
	if a.HasCheckedIn {
		return repository.ErrAlreadyCheckedIn
	}
	a.HasCheckedIn = true
	v.f.attendees[id] = a
	return nil
}

func (v attendeeView) AddDailyPoints(ctx context.Context, id string, day, amount int) error {
	v.f.daily[id+"|"+itoa(day)] += amount
	return nil
}

func itoa(n int) string {
	return string(rune('0' + n))
}

type ledgerView struct{ f *fakeStore }

func (v ledgerView) Exists(ctx context.Context, eventID, attendeeID string) (bool, error) {
	return v.f.ledger[eventID+"|"+attendeeID], nil
}

func (v ledgerView) Record(ctx context.Context, eventID, attendeeID string) error {
	key := eventID + "|" + attendeeID
	if v.f.ledger[key] {
		return repository.ErrDuplicateAttendance
	}
	v.f.ledger[key] = true
	v.f.byAttendee[attendeeID] = append(v.f.byAttendee[attendeeID], eventID)
	return nil
}

// newTestService wires a CheckinService over the fake with a fixed
// clock.  tuesday is during a September 2026 event week.
var tuesday = time.Date(2026, time.September, 15, 10, 0, 0, 0, time.UTC)

func newTestService(f *fakeStore, published *[]queue.CheckinRecordedEvent) *CheckinService {
	var pub Publisher
	if published != nil {
		pub = func(ctx context.Context, ev queue.CheckinRecordedEvent) error {
			*published = append(*published, ev)
			return nil
		}
	}
	s := NewCheckinService(f, attendeeView{f}, ledgerView{f}, f.thresholds, DaySchedule{
		Start: time.Date(2026, time.September, 14, 0, 0, 0, 0, time.UTC),
		Days:  5,
		Loc:   time.UTC,
	}, time.UTC, pub)
	s.Now = func() time.Time { return tuesday }
	return s
}

func seed(f *fakeStore, category string, points int) (eventID, attendeeID string) {
	f.events["e1"] = model.Event{ID: "e1", Name: "Keynote", Category: category, Points: points}
	f.attendees["a1"] = model.Attendee{ID: "a1"}
	return "e1", "a1"
}

func TestCheckInSpeakerEventOnTuesday(t *testing.T) {
	f := newFakeStore()
	eventID, attendeeID := seed(f, model.CategorySpeaker, 50)
	var published []queue.CheckinRecordedEvent
	s := newTestService(f, &published)

	got, err := s.CheckInToEvent(context.Background(), eventID, attendeeID)
	require.NoError(t, err)
	assert.Equal(t, attendeeID, got)

	a := f.attendees[attendeeID]
	assert.Equal(t, 50, a.Points)
	assert.True(t, a.Priority.Tue)
	assert.False(t, a.Priority.Mon)
	assert.False(t, a.Priority.Wed)
	assert.True(t, a.Eligibility.Tshirt)
	assert.True(t, a.Eligibility.Button)
	assert.True(t, a.Eligibility.Tote)
	assert.True(t, a.Eligibility.Cap)
	assert.False(t, a.HasCheckedIn)

	assert.Equal(t, 1, f.events[eventID].AttendanceCount)
	assert.True(t, f.ledger[eventID+"|"+attendeeID])
	assert.Equal(t, []string{eventID}, f.byAttendee[attendeeID])

	require.Len(t, published, 1)
	assert.Equal(t, eventID, published[0].EventID)
	assert.Equal(t, 50, published[0].PointsAwarded)
	assert.Equal(t, 1, published[0].AttendanceCount)
}

func TestCheckInDuplicateRejectedWithoutSideEffects(t *testing.T) {
	f := newFakeStore()
	eventID, attendeeID := seed(f, model.CategorySpeaker, 50)
	s := newTestService(f, nil)

	_, err := s.CheckInToEvent(context.Background(), eventID, attendeeID)
	require.NoError(t, err)

	before := f.attendees[attendeeID]
	beforeCount := f.events[eventID].AttendanceCount

	_, err = s.CheckInToEvent(context.Background(), eventID, attendeeID)
	assert.ErrorIs(t, err, repository.ErrDuplicateAttendance)

	assert.Equal(t, before, f.attendees[attendeeID])
	assert.Equal(t, beforeCount, f.events[eventID].AttendanceCount)
	assert.Len(t, f.byAttendee[attendeeID], 1)
}

func TestCheckInCheckinCategorySetsFlagNoPriority(t *testing.T) {
	f := newFakeStore()
	eventID, attendeeID := seed(f, model.CategoryCheckin, 0)
	s := newTestService(f, nil)

	_, err := s.CheckInToEvent(context.Background(), eventID, attendeeID)
	require.NoError(t, err)

	a := f.attendees[attendeeID]
	assert.Equal(t, 0, a.Points)
	assert.True(t, a.HasCheckedIn)
	assert.Equal(t, model.PriorityDays{}, a.Priority)
	// Zero points still flip the zero-threshold t-shirt flag.
	assert.True(t, a.Eligibility.Tshirt)
	assert.False(t, a.Eligibility.Button)
	assert.True(t, f.ledger[eventID+"|"+attendeeID])
}

func TestCheckInCheckinCategoryToleratesExistingFlag(t *testing.T) {
	f := newFakeStore()
	eventID, attendeeID := seed(f, model.CategoryCheckin, 0)
	a := f.attendees[attendeeID]
	a.HasCheckedIn = true
	f.attendees[attendeeID] = a
	s := newTestService(f, nil)

	_, err := s.CheckInToEvent(context.Background(), eventID, attendeeID)
	assert.NoError(t, err)
}

func TestCheckInMealsEventSkipsPriority(t *testing.T) {
	f := newFakeStore()
	eventID, attendeeID := seed(f, model.CategoryMeals, 5)
	s := newTestService(f, nil)

	_, err := s.CheckInToEvent(context.Background(), eventID, attendeeID)
	require.NoError(t, err)

	a := f.attendees[attendeeID]
	assert.Equal(t, model.PriorityDays{}, a.Priority)
	assert.Equal(t, 5, a.Points)
	assert.False(t, a.HasCheckedIn)
}

func TestCheckInUnknownEventAndAttendee(t *testing.T) {
	f := newFakeStore()
	_, attendeeID := seed(f, model.CategorySpeaker, 50)
	s := newTestService(f, nil)

	_, err := s.CheckInToEvent(context.Background(), "missing", attendeeID)
	assert.ErrorIs(t, err, repository.ErrEventNotFound)

	_, err = s.CheckInToEvent(context.Background(), "e1", "missing")
	assert.ErrorIs(t, err, repository.ErrAttendeeNotFound)
}

func TestCheckInPublishFailureDoesNotFailCheckin(t *testing.T) {
	f := newFakeStore()
	eventID, attendeeID := seed(f, model.CategoryRegular, 10)
	s := newTestService(f, nil)
	s.Publish = func(ctx context.Context, ev queue.CheckinRecordedEvent) error {
		return errors.New("broker down")
	}

	got, err := s.CheckInToEvent(context.Background(), eventID, attendeeID)
	require.NoError(t, err)
	assert.Equal(t, attendeeID, got)
}

func TestGeneralCheckIn(t *testing.T) {
	f := newFakeStore()
	_, attendeeID := seed(f, model.CategoryRegular, 0)
	s := newTestService(f, nil)

	require.NoError(t, s.GeneralCheckIn(context.Background(), attendeeID))
	assert.True(t, f.attendees[attendeeID].HasCheckedIn)

	err := s.GeneralCheckIn(context.Background(), attendeeID)
	assert.ErrorIs(t, err, repository.ErrAlreadyCheckedIn)

	err = s.GeneralCheckIn(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrAttendeeNotFound)

	// The general flow never touches the ledger or points.
	assert.Empty(t, f.ledger)
	assert.Equal(t, 0, f.attendees[attendeeID].Points)
}

func TestAddPointsCreditsDailyBucketInsideWindow(t *testing.T) {
	f := newFakeStore()
	_, attendeeID := seed(f, model.CategoryRegular, 0)
	s := newTestService(f, nil)

	a, err := s.AddPoints(context.Background(), attendeeID, 25, tuesday)
	require.NoError(t, err)
	assert.Equal(t, 25, a.Points)
	assert.True(t, a.Eligibility.Button)
	assert.Equal(t, 25, f.daily[attendeeID+"|"+itoa(2)]) // Sep 15 is day 2

	// Outside the window only the running total moves.
	after := tuesday.AddDate(0, 1, 0)
	a, err = s.AddPoints(context.Background(), attendeeID, 10, after)
	require.NoError(t, err)
	assert.Equal(t, 35, a.Points)
	assert.True(t, a.Eligibility.Tote)
	assert.Len(t, f.daily, 1)
}
