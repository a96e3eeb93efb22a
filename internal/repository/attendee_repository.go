package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/event-checkin-service/internal/model"
)

// AttendeeRepo provides access to the `attendees` and
// `attendee_daily_points` tables.  Point totals only ever increase
// through this repository and every point change recomputes all four
// eligibility flags from the new total.
type AttendeeRepo struct{ DB *sql.DB }

// NewAttendeeRepo returns an AttendeeRepo bound to the given database.
func NewAttendeeRepo(db *sql.DB) *AttendeeRepo { return &AttendeeRepo{DB: db} }

const attendeeColumns = `id, user_id, points,
	has_priority_mon, has_priority_tue, has_priority_wed, has_priority_thu,
	has_priority_fri, has_priority_sat, has_priority_sun,
	is_eligible_tshirt, is_eligible_button, is_eligible_tote, is_eligible_cap,
	has_checked_in, created_at, updated_at`

// priorityColumn maps a weekday to its flag column.  The lookup keeps
// column names out of caller hands so the UPDATE below never
// interpolates unchecked input.
var priorityColumn = map[time.Weekday]string{
	time.Monday:    "has_priority_mon",
	time.Tuesday:   "has_priority_tue",
	time.Wednesday: "has_priority_wed",
	time.Thursday:  "has_priority_thu",
	time.Friday:    "has_priority_fri",
	time.Saturday:  "has_priority_sat",
	time.Sunday:    "has_priority_sun",
}

func scanAttendee(scan func(dest ...any) error) (model.Attendee, error) {
	var a model.Attendee
	var userID sql.NullInt64
	err := scan(&a.ID, &userID, &a.Points,
		&a.Priority.Mon, &a.Priority.Tue, &a.Priority.Wed, &a.Priority.Thu,
		&a.Priority.Fri, &a.Priority.Sat, &a.Priority.Sun,
		&a.Eligibility.Tshirt, &a.Eligibility.Button, &a.Eligibility.Tote, &a.Eligibility.Cap,
		&a.HasCheckedIn, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return model.Attendee{}, err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		a.UserID = &uid
	}
	return a, nil
}

// Create inserts a new attendee with zero points and all flags false.
func (r *AttendeeRepo) Create(ctx context.Context, id string, userID *uint64) error {
	var uid any
	if userID != nil {
		uid = *userID
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO attendees (id, user_id) VALUES (?,?)", id, uid)
	return err
}

// GetByID fetches an attendee by identifier; a missing row is reported
// as ErrAttendeeNotFound.
func (r *AttendeeRepo) GetByID(ctx context.Context, id string) (model.Attendee, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+attendeeColumns+" FROM attendees WHERE id=? LIMIT 1", id)
	a, err := scanAttendee(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Attendee{}, ErrAttendeeNotFound
	}
	return a, err
}

// AwardPoints adds amount to the attendee's running total and
// recomputes all four eligibility flags against the given thresholds,
// in one UPDATE.  MySQL evaluates SET clauses left to right with the
// already-assigned value, so the comparisons below see the incremented
// total.  The updated row is returned so callers can report new totals
// without a second round trip racing other writers.
func (r *AttendeeRepo) AwardPoints(ctx context.Context, id string, amount, tshirtAt, buttonAt, toteAt, capAt int) (model.Attendee, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE attendees SET
		points = points + ?,
		is_eligible_tshirt = points >= ?,
		is_eligible_button = points >= ?,
		is_eligible_tote   = points >= ?,
		is_eligible_cap    = points >= ?,
		updated_at = ?
		WHERE id = ?`,
		amount, tshirtAt, buttonAt, toteAt, capAt, time.Now().UTC(), id)
	if err != nil {
		return model.Attendee{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.Attendee{}, ErrAttendeeNotFound
	}
	return r.GetByID(ctx, id)
}

// SetPriorityDay sets the priority flag for the given weekday to true.
// The flag is idempotent: setting an already-true flag is not an error.
func (r *AttendeeRepo) SetPriorityDay(ctx context.Context, id string, day time.Weekday) error {
	col, ok := priorityColumn[day]
	if !ok {
		return errors.New("unknown weekday")
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE attendees SET "+col+" = TRUE, updated_at = ? WHERE id = ?",
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAttendeeNotFound
	}
	return nil
}

// MarkCheckedIn flips the general check-in flag from false to true.
// It returns ErrAlreadyCheckedIn when the flag was already set; the
// WHERE clause makes the transition race-safe.  Callers must have
// verified existence first, since a missing row and an already-set
// flag both leave zero rows affected.
func (r *AttendeeRepo) MarkCheckedIn(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE attendees SET has_checked_in = TRUE, updated_at = ? WHERE id = ? AND has_checked_in = FALSE",
		time.Now().UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrAlreadyCheckedIn
	}
	return nil
}

// AddDailyPoints adds amount to the attendee's bucket for the given
// event day (1..N), creating the bucket on first use.
func (r *AttendeeRepo) AddDailyPoints(ctx context.Context, id string, day, amount int) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO attendee_daily_points (attendee_id, day, points)
		VALUES (?,?,?)
		ON DUPLICATE KEY UPDATE points = points + VALUES(points)`,
		id, day, amount)
	return err
}

// DailyPoints returns the attendee's per-day buckets ordered by day.
func (r *AttendeeRepo) DailyPoints(ctx context.Context, id string) ([]model.DailyPoints, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT attendee_id, day, points FROM attendee_daily_points WHERE attendee_id=? ORDER BY day", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	buckets := make([]model.DailyPoints, 0)
	for rows.Next() {
		var b model.DailyPoints
		if err := rows.Scan(&b.AttendeeID, &b.Day, &b.Points); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// LeaderboardEntry is one row of the points leaderboard.
type LeaderboardEntry struct {
	AttendeeID string `json:"attendee_id"`
	Points     int    `json:"points"`
}

// Leaderboard returns the top attendees ordered by points descending,
// ties broken by attendee ID for deterministic output.
func (r *AttendeeRepo) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, points FROM attendees ORDER BY points DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.AttendeeID, &e.Points); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
