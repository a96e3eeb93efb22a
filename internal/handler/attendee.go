package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-checkin-service/internal/model"
	"github.com/iliyamo/event-checkin-service/internal/qr"
	"github.com/iliyamo/event-checkin-service/internal/repository"
	"github.com/iliyamo/event-checkin-service/internal/service"
)

// AttendeeHandler serves attendee profiles, QR credential issuance,
// manual point awards and the leaderboard.
type AttendeeHandler struct {
	Attendees *repository.AttendeeRepo
	Checkin   *service.CheckinService
	Codec     *qr.Codec
	Redis     *redis.Client // optional leaderboard cache; nil disables it
	QRTTL     time.Duration
	CacheTTL  time.Duration
	Now       func() time.Time
}

// NewAttendeeHandler wires the handler.  rdb may be nil when Redis is
// not configured; the leaderboard then hits the database every time.
func NewAttendeeHandler(a *repository.AttendeeRepo, svc *service.CheckinService, codec *qr.Codec, rdb *redis.Client, qrTTL time.Duration) *AttendeeHandler {
	return &AttendeeHandler{
		Attendees: a,
		Checkin:   svc,
		Codec:     codec,
		Redis:     rdb,
		QRTTL:     qrTTL,
		CacheTTL:  30 * time.Second,
		Now:       time.Now,
	}
}

type attendeeResp struct {
	model.Attendee
	Daily []model.DailyPoints `json:"daily_points"`
}

// Get returns the attendee profile with the per-day point breakdown.
func (h *AttendeeHandler) Get(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Attendees.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrAttendeeNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "attendee not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	daily, err := h.Attendees.DailyPoints(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, attendeeResp{Attendee: a, Daily: daily})
}

// IssueQR generates a fresh scan credential for the attendee, valid
// for the configured TTL.  The attendee must exist here even though
// the merch scan later tolerates unknown subjects.
func (h *AttendeeHandler) IssueQR(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Attendees.GetByID(ctx, id); err != nil {
		if err == repository.ErrAttendeeNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "attendee not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	exp := h.Now().Add(h.QRTTL).Unix()
	token, err := h.Codec.Generate(id, exp)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"qrCode":  token,
		"expires": exp,
	})
}

type addPointsReq struct {
	Amount int `json:"amount"`
}

// AddPoints is the ADMIN entry for manual point adjustments (contest
// wins, sponsor booths).  Amounts are positive; the points engine has
// no subtraction path.
func (h *AttendeeHandler) AddPoints(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id required"})
	}
	var req addPointsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be > 0"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a, err := h.Checkin.AddPoints(ctx, id, req.Amount, h.Now())
	if err != nil {
		if err == repository.ErrAttendeeNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "attendee not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "award failed"})
	}
	return c.JSON(http.StatusOK, a)
}

// Leaderboard returns the top attendees by point total.  The result is
// cached in Redis for a short TTL since every hall display polls it;
// cache failures fall through to the database.
func (h *AttendeeHandler) Leaderboard(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cacheKey := fmt.Sprintf("leaderboard:top:%d", limit)
	if h.Redis != nil {
		if cached, err := h.Redis.Get(ctx, cacheKey).Result(); err == nil {
			return c.JSONBlob(http.StatusOK, []byte(cached))
		}
	}

	entries, err := h.Attendees.Leaderboard(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if h.Redis != nil {
		if body, err := json.Marshal(entries); err == nil {
			h.Redis.Set(ctx, cacheKey, body, h.CacheTTL)
		}
	}
	return c.JSON(http.StatusOK, entries)
}
