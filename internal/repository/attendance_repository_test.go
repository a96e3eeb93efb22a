package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*AttendanceRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAttendanceRepo(db), mock
}

func TestRecordWritesBothSidesInOneTransaction(t *testing.T) {
	r, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO event_attendances").
		WithArgs("e1", "a1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT IGNORE INTO attendee_events").
		WithArgs("a1", "e1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, r.Record(context.Background(), "e1", "a1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A racing scan that loses the unique-key race gets
// ErrDuplicateAttendance straight from the constraint violation, with
// the transaction rolled back so the attendee-side insert never runs.
func TestRecordTranslatesDuplicateKeyAndRollsBack(t *testing.T) {
	r, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO event_attendances").
		WithArgs("e1", "a1", sqlmock.AnyArg()).
		WillReturnError(&mysql.MySQLError{
			Number:   1062,
			SQLState: [5]byte{'2', '3', '0', '0', '0'},
			Message:  "Duplicate entry 'e1-a1' for key 'uq_event_attendee'",
		})
	mock.ExpectRollback()

	err := r.Record(context.Background(), "e1", "a1")
	assert.ErrorIs(t, err, ErrDuplicateAttendance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRollsBackWhenAttendeeSideFails(t *testing.T) {
	r, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO event_attendances").
		WithArgs("e1", "a1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT IGNORE INTO attendee_events").
		WithArgs("a1", "e1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := r.Record(context.Background(), "e1", "a1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateAttendance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateKey(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}
	assert.True(t, isDuplicateKey(dup))
	assert.False(t, isDuplicateKey(errors.New("connection reset")))
	assert.False(t, isDuplicateKey(nil))
}
