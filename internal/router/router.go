// Package router maps HTTP routes to handlers and decides which
// middleware guards each group.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-checkin-service/internal/handler"
	"github.com/iliyamo/event-checkin-service/internal/middleware"
	"github.com/iliyamo/event-checkin-service/internal/model"
)

// RegisterRoutes registers routes that require no authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the session endpoints.  Register, login and
// refresh need no session; /v1/me runs behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout works with either a refresh_token in the body or a bearer
	// token, so it stays outside the JWT group.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterCheckin registers the scan endpoints.  All of them require a
// staff session; the rate limiter sits after authentication so buckets
// key on the station's user rather than a shared NAT address.
//
// Route roles follow the scan-station deployment: the event scan and
// the manual correction are ADMIN consoles, the front-door and merch
// desks run under STAFF accounts too.
func RegisterCheckin(e *echo.Echo, h *handler.CheckinHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/checkin")
	g.Use(middleware.JWTAuth(jwtSecret))
	if limiter != nil {
		g.Use(limiter)
	}

	g.POST("/scan/staff", h.ScanStaff, middleware.RequireRole(model.RoleAdmin))
	g.POST("/event", h.ManualEvent, middleware.RequireRole(model.RoleAdmin))
	g.POST("/", h.General, middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
	g.POST("/scan/merch", h.ScanMerch, middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
}

// RegisterEvents registers event browse and creation.  Browsing is
// public (schedule screens poll it without a session); creation is
// ADMIN only.
func RegisterEvents(e *echo.Echo, h *handler.EventHandler, jwtSecret string) {
	e.GET("/v1/events", h.List)
	e.GET("/v1/events/:id", h.Get)

	admin := e.Group("/v1/events")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("", h.Create)
}

// RegisterAttendees registers attendee profile, QR issuance, manual
// point awards and the leaderboard.  The leaderboard is public; the
// rest needs a session, with point awards restricted to ADMIN.
func RegisterAttendees(e *echo.Echo, h *handler.AttendeeHandler, jwtSecret string) {
	e.GET("/v1/leaderboard", h.Leaderboard)

	g := e.Group("/v1/attendees")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.GET("/:id", h.Get)
	g.GET("/:id/qr", h.IssueQR)
	g.POST("/:id/points", h.AddPoints, middleware.RequireRole(model.RoleAdmin))
}
