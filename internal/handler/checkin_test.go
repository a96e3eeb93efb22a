package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-checkin-service/internal/qr"
	"github.com/iliyamo/event-checkin-service/internal/repository"
)

// stubOrchestrator returns canned results so the tests exercise only
// the handler's status-code translation.
type stubOrchestrator struct {
	checkinErr error
	generalErr error
	gotEvent   string
	gotSubject string
}

func (s *stubOrchestrator) CheckInToEvent(ctx context.Context, eventID, attendeeID string) (string, error) {
	s.gotEvent, s.gotSubject = eventID, attendeeID
	if s.checkinErr != nil {
		return "", s.checkinErr
	}
	return attendeeID, nil
}

func (s *stubOrchestrator) GeneralCheckIn(ctx context.Context, attendeeID string) error {
	s.gotSubject = attendeeID
	return s.generalErr
}

var testNow = time.Date(2026, time.September, 15, 10, 0, 0, 0, time.UTC)

func newTestHandler(stub *stubOrchestrator) (*CheckinHandler, *qr.Codec) {
	codec := qr.New("handler-test-secret", 10)
	h := NewCheckinHandler(stub, codec)
	h.Now = func() time.Time { return testNow }
	return h, codec
}

func doJSON(h echo.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = h(c)
	return rec
}

func validToken(t *testing.T, codec *qr.Codec, subject string) string {
	t.Helper()
	token, err := codec.Generate(subject, testNow.Add(10*time.Minute).Unix())
	require.NoError(t, err)
	return token
}

func errField(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	s, _ := body["error"].(string)
	return s
}

func TestScanStaffSuccessReturnsAttendeeID(t *testing.T) {
	stub := &stubOrchestrator{}
	h, codec := newTestHandler(stub)
	token := validToken(t, codec, "a1")

	rec := doJSON(h.ScanStaff, "/checkin/scan/staff", `{"event_id":"e1","qrCode":"`+token+`"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "\"a1\"\n", rec.Body.String())
	assert.Equal(t, "e1", stub.gotEvent)
	assert.Equal(t, "a1", stub.gotSubject)
}

func TestScanStaffMissingFields(t *testing.T) {
	h, _ := newTestHandler(&stubOrchestrator{})
	rec := doJSON(h.ScanStaff, "/checkin/scan/staff", `{"event_id":"e1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanStaffExpiredToken(t *testing.T) {
	stub := &stubOrchestrator{}
	h, codec := newTestHandler(stub)
	token, err := codec.Generate("a1", testNow.Add(-time.Second).Unix())
	require.NoError(t, err)

	rec := doJSON(h.ScanStaff, "/checkin/scan/staff", `{"event_id":"e1","qrCode":"`+token+`"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "QR code has expired", errField(t, rec))
	assert.Empty(t, stub.gotEvent, "service must not be called for expired tokens")
}

func TestScanStaffBadTokens(t *testing.T) {
	stub := &stubOrchestrator{}
	h, codec := newTestHandler(stub)

	// Tampered signature.
	token := validToken(t, codec, "a1")
	flip := byte('0')
	if token[0] == '0' {
		flip = '1'
	}
	tampered := string(flip) + token[1:]

	for _, bad := range []string{tampered, "not-a-token", "a#b#c"} {
		rec := doJSON(h.ScanStaff, "/checkin/scan/staff", `{"event_id":"e1","qrCode":"`+bad+`"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "token %q", bad)
	}
	assert.Empty(t, stub.gotEvent)
}

func TestScanStaffErrorMapping(t *testing.T) {
	cases := []struct {
		err      error
		status   int
		errField string
	}{
		{repository.ErrDuplicateAttendance, http.StatusForbidden, "IsDuplicate"},
		{repository.ErrEventNotFound, http.StatusNotFound, "event not found"},
		{repository.ErrAttendeeNotFound, http.StatusNotFound, "attendee not found"},
	}
	for _, tc := range cases {
		stub := &stubOrchestrator{checkinErr: tc.err}
		h, codec := newTestHandler(stub)
		token := validToken(t, codec, "a1")

		rec := doJSON(h.ScanStaff, "/checkin/scan/staff", `{"event_id":"e1","qrCode":"`+token+`"}`)

		assert.Equal(t, tc.status, rec.Code, "err %v", tc.err)
		assert.Equal(t, tc.errField, errField(t, rec), "err %v", tc.err)
	}
}

func TestManualEventBypassesToken(t *testing.T) {
	stub := &stubOrchestrator{}
	h, _ := newTestHandler(stub)

	rec := doJSON(h.ManualEvent, "/checkin/event", `{"event_id":"e1","user_id":"a1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "e1", stub.gotEvent)
	assert.Equal(t, "a1", stub.gotSubject)
}

func TestGeneralCheckinStatusCodes(t *testing.T) {
	cases := []struct {
		err      error
		status   int
		errField string
	}{
		{nil, http.StatusOK, ""},
		{repository.ErrAlreadyCheckedIn, http.StatusBadRequest, "AlreadyCheckedIn"},
		{repository.ErrAttendeeNotFound, http.StatusNotFound, "UserNotFound"},
	}
	for _, tc := range cases {
		stub := &stubOrchestrator{generalErr: tc.err}
		h, codec := newTestHandler(stub)
		token := validToken(t, codec, "a1")

		rec := doJSON(h.General, "/checkin/", `{"event_id":"e1","qrCode":"`+token+`"}`)

		assert.Equal(t, tc.status, rec.Code, "err %v", tc.err)
		if tc.errField != "" {
			assert.Equal(t, tc.errField, errField(t, rec), "err %v", tc.err)
		}
	}
}

// The merch scan is a pure decode: no store lookup, so a subject with
// no attendee row still validates.
func TestScanMerchDecodesWithoutLookup(t *testing.T) {
	stub := &stubOrchestrator{}
	h, codec := newTestHandler(stub)
	token := validToken(t, codec, "never-registered")

	rec := doJSON(h.ScanMerch, "/checkin/scan/merch", `{"qrCode":"`+token+`"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "never-registered", body["attendee_id"])
	assert.Empty(t, stub.gotEvent)
	assert.Empty(t, stub.gotSubject)
}

func TestScanMerchExpiredToken(t *testing.T) {
	h, codec := newTestHandler(&stubOrchestrator{})
	token, err := codec.Generate("a1", testNow.Add(-time.Minute).Unix())
	require.NoError(t, err)

	rec := doJSON(h.ScanMerch, "/checkin/scan/merch", `{"qrCode":"`+token+`"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "QR code has expired", errField(t, rec))
}
