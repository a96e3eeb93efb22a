package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-checkin-service/internal/qr"
	"github.com/iliyamo/event-checkin-service/internal/repository"
)

// CheckinOrchestrator is the slice of the check-in service the HTTP
// layer needs; tests substitute a stub to exercise the status mapping
// without a database.
type CheckinOrchestrator interface {
	CheckInToEvent(ctx context.Context, eventID, attendeeID string) (string, error)
	GeneralCheckIn(ctx context.Context, attendeeID string) error
}

// CheckinHandler exposes the scan and check-in endpoints.  It owns the
// status-code translation: the service below reports typed errors and
// never touches HTTP.
type CheckinHandler struct {
	Service CheckinOrchestrator
	Codec   *qr.Codec
	Now     func() time.Time // injected clock for token expiry checks
}

// NewCheckinHandler wires the handler with the default clock.
func NewCheckinHandler(svc CheckinOrchestrator, codec *qr.Codec) *CheckinHandler {
	return &CheckinHandler{Service: svc, Codec: codec, Now: time.Now}
}

// ----- DTOs -----

type scanReq struct {
	EventID string `json:"event_id"`
	QRCode  string `json:"qrCode"`
}
type manualCheckinReq struct {
	EventID string `json:"event_id"`
	UserID  string `json:"user_id"`
}
type merchScanReq struct {
	QRCode string `json:"qrCode"`
}

// decodeSubject validates a scanned token and enforces its expiry.  On
// failure it writes the response itself and returns ok=false.  Bad
// tokens are a 401 like expired ones, just with a different message.
func (h *CheckinHandler) decodeSubject(c echo.Context, token string) (string, bool) {
	subject, exp, err := h.Codec.Validate(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid QR code"})
		return "", false
	}
	if exp <= h.Now().Unix() {
		c.JSON(http.StatusUnauthorized, echo.Map{"error": "QR code has expired"})
		return "", false
	}
	return subject, true
}

// ScanStaff handles a staff-operated scan at an event station: decode
// the attendee's QR credential and run the full check-in sequence.
// Success returns the resolved attendee identifier as the JSON body.
func (h *CheckinHandler) ScanStaff(c echo.Context) error {
	var req scanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.EventID = strings.TrimSpace(req.EventID)
	req.QRCode = strings.TrimSpace(req.QRCode)
	if req.EventID == "" || req.QRCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id/qrCode required"})
	}

	subject, ok := h.decodeSubject(c, req.QRCode)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	attendeeID, err := h.Service.CheckInToEvent(ctx, req.EventID, subject)
	if err != nil {
		return h.writeCheckinErr(c, err)
	}
	return c.JSON(http.StatusOK, attendeeID)
}

// ManualEvent checks an attendee into an event by raw IDs, for admin
// corrections when a badge cannot be scanned.  Same mapping as
// ScanStaff minus the token step.
func (h *CheckinHandler) ManualEvent(c echo.Context) error {
	var req manualCheckinReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.EventID = strings.TrimSpace(req.EventID)
	req.UserID = strings.TrimSpace(req.UserID)
	if req.EventID == "" || req.UserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id/user_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	attendeeID, err := h.Service.CheckInToEvent(ctx, req.EventID, req.UserID)
	if err != nil {
		return h.writeCheckinErr(c, err)
	}
	return c.JSON(http.StatusOK, attendeeID)
}

// General toggles only the attendee's general check-in flag after
// token validation.  It ignores the event_id field clients still send
// and does not touch the ledger or points.
//
// The status codes here differ from the event scan on purpose:
// AlreadyCheckedIn is a 400 and a missing attendee a 404, matching
// what badge-desk clients already expect.
func (h *CheckinHandler) General(c echo.Context) error {
	var req scanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.QRCode = strings.TrimSpace(req.QRCode)
	if req.QRCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qrCode required"})
	}

	subject, ok := h.decodeSubject(c, req.QRCode)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Service.GeneralCheckIn(ctx, subject); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyCheckedIn):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "AlreadyCheckedIn"})
		case errors.Is(err, repository.ErrAttendeeNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "UserNotFound"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"attendee_id": subject})
}

// ScanMerch validates a badge for merch pickup: decode plus expiry
// check only, no attendance state.  A token whose subject has no
// attendee row still succeeds; badges are printed before registration
// completes and the merch desk only needs the identifier.
func (h *CheckinHandler) ScanMerch(c echo.Context) error {
	var req merchScanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.QRCode = strings.TrimSpace(req.QRCode)
	if req.QRCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "qrCode required"})
	}

	subject, ok := h.decodeSubject(c, req.QRCode)
	if !ok {
		return nil
	}
	return c.JSON(http.StatusOK, echo.Map{"attendee_id": subject})
}

// writeCheckinErr maps check-in service errors for the event flows.
// An unknown event or attendee is a 404, not a 500: the scan gun shows
// the message to the operator and "not found" is actionable.
func (h *CheckinHandler) writeCheckinErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateAttendance):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "IsDuplicate"})
	case errors.Is(err, repository.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, repository.ErrAttendeeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "attendee not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "check-in failed"})
	}
}
