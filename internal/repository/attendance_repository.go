package repository

import (
	"context"
	"database/sql"
	"time"
)

// AttendanceRepo maintains the two-sided attendance ledger: the
// event-side `event_attendances` table (one row per pair, unique key on
// the pair) and the attendee-side `attendee_events` membership table.
// Both sides are written inside one transaction so an event ID appears
// in the attendee-side set if and only if the matching event-side row
// exists.
type AttendanceRepo struct{ DB *sql.DB }

// NewAttendanceRepo returns an AttendanceRepo bound to the given database.
func NewAttendanceRepo(db *sql.DB) *AttendanceRepo { return &AttendanceRepo{DB: db} }

// Exists reports whether either ledger side already records the pair.
// It is the fast-path duplicate check; the unique key inside Record is
// what actually guarantees exactly-once under concurrent scans.
func (r *AttendanceRepo) Exists(ctx context.Context, eventID, attendeeID string) (bool, error) {
	var found bool
	err := r.DB.QueryRowContext(ctx, `SELECT
		EXISTS(SELECT 1 FROM event_attendances WHERE event_id=? AND attendee_id=?)
		OR
		EXISTS(SELECT 1 FROM attendee_events WHERE attendee_id=? AND event_id=?)`,
		eventID, attendeeID, attendeeID, eventID).Scan(&found)
	return found, err
}

// Record writes both ledger sides for the pair in a single transaction.
// A duplicate-key violation on the event-side insert is translated to
// ErrDuplicateAttendance; the attendee-side insert is guarded with
// INSERT IGNORE so a half-written pair from the pre-constraint era
// cannot wedge the row forever.  On any other error the transaction
// rolls back and neither side is committed.
func (r *AttendanceRepo) Record(ctx context.Context, eventID, attendeeID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO event_attendances (event_id, attendee_id, scanned_at) VALUES (?,?,?)",
		eventID, attendeeID, time.Now().UTC()); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateAttendance
		}
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT IGNORE INTO attendee_events (attendee_id, event_id) VALUES (?,?)",
		attendeeID, eventID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// EventsByAttendee returns the set of event IDs in the attendee-side
// ledger for the given attendee.  Order carries no meaning; rows are
// sorted only for stable output.
func (r *AttendanceRepo) EventsByAttendee(ctx context.Context, attendeeID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT event_id FROM attendee_events WHERE attendee_id=? ORDER BY event_id", attendeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AttendeesByEvent returns the attendee IDs recorded on the event side
// for the given event, newest scan first.
func (r *AttendanceRepo) AttendeesByEvent(ctx context.Context, eventID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT attendee_id FROM event_attendances WHERE event_id=? ORDER BY scanned_at DESC, attendee_id", eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountByEvent returns the number of event-side ledger rows for the
// event.  Used by reconciliation jobs to audit the denormalized
// counter, never to recompute it.
func (r *AttendanceRepo) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM event_attendances WHERE event_id=?", eventID).Scan(&n)
	return n, err
}
