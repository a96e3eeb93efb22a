package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/event-checkin-service/internal/model"
)

// EventRepo provides access to the `events` table.  Events are created
// by event management; the only mutation the check-in core performs is
// the attendance counter increment.
type EventRepo struct{ DB *sql.DB }

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

const eventColumns = "id, name, description, category, points, start_time, end_time, attendance_count, created_at, updated_at"

func scanEvent(row *sql.Row) (model.Event, error) {
	var e model.Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Category, &e.Points,
		&e.StartTime, &e.EndTime, &e.AttendanceCount, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// Create inserts a new event.  The caller supplies the opaque ID; the
// attendance counter starts at zero.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO events (id, name, description, category, points, start_time, end_time) VALUES (?,?,?,?,?,?,?)",
		e.ID, e.Name, e.Description, e.Category, e.Points, e.StartTime.UTC(), e.EndTime.UTC())
	return err
}

// GetByID fetches an event by its identifier.  A missing row is
// reported as ErrEventNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id string) (model.Event, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id=? LIMIT 1", id)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	return e, err
}

// List returns all events ordered by start time.  The result is small
// (one festival's worth of events) so no pagination is applied.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events ORDER BY start_time, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Category, &e.Points,
			&e.StartTime, &e.EndTime, &e.AttendanceCount, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// IncrementAttendance bumps the denormalized attendance counter by one
// and returns the new count.  The increment runs as a single
// `count = count + 1` statement so concurrent check-ins to the same
// event cannot lose updates.
func (r *EventRepo) IncrementAttendance(ctx context.Context, id string) (int, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE events SET attendance_count = attendance_count + 1, updated_at = ? WHERE id = ?",
		time.Now().UTC(), id)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, ErrEventNotFound
	}
	var count int
	if err := r.DB.QueryRowContext(ctx,
		"SELECT attendance_count FROM events WHERE id=?", id).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// isDuplicateKey reports whether err is a MySQL duplicate-key error
// (errno 1062).  Shared by the ledger and user repositories.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
