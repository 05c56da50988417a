// Package httpapi serves read-only tee sheet queries over HTTP
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/TravisESimmons/GolfClubBAIST/pkg/core/model"
)

// Availability lists open slots
type Availability interface {
	OpenSlots(ctx context.Context, date time.Time) ([]model.Slot, error)
}

// TeeTimes lists bookings and member names
type TeeTimes interface {
	ListJoinable(ctx context.Context) ([]model.TeeTime, error)
	MemberNames(ctx context.Context, ids []int) (map[int]string, error)
}

// Pinger reports store health
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	availability Availability
	teeTimes     TeeTimes
	health       Pinger
	logger       *zap.Logger
}

// NewServer builds the handlers. health may be nil.
func NewServer(availability Availability, teeTimes TeeTimes, health Pinger, logger *zap.Logger) *Server {
	return &Server{availability: availability, teeTimes: teeTimes, health: health, logger: logger}
}

// Echo returns an echo instance with every route registered
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(s.requestLogger)

	e.GET("/healthz", s.Health)

	api := e.Group("/api")
	api.GET("/teetimes/available", s.AvailableSlots)
	api.GET("/teetimes/joinable", s.JoinableTeeTimes)
	api.GET("/members/names", s.MemberNames)

	return e
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.logger.Debug("HTTP request",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().Status),
			zap.Duration("elapsed", time.Since(start)))
		return nil
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps domain errors onto status codes. Store failures never leak their cause.
func (s *Server) respondError(c echo.Context, err error) error {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Error()})
	case errors.Is(err, model.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, model.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, errorResponse{Error: model.ErrUnauthorized.Error()})
	default:
		s.logger.Error("Request failed", zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "operation failed"})
	}
}

// Health handles GET /healthz
func (s *Server) Health(c echo.Context) error {
	if s.health != nil {
		if err := s.health.Ping(c.Request().Context()); err != nil {
			s.logger.Warn("Health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type availableResponse struct {
	Date  string   `json:"date"`
	Slots []string `json:"slots"`
}

// AvailableSlots handles GET /api/teetimes/available?date=YYYY-MM-DD
func (s *Server) AvailableSlots(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("date"))
	if raw == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "date is required"})
	}
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "date must be YYYY-MM-DD"})
	}

	slots, err := s.availability.OpenSlots(c.Request().Context(), date)
	if err != nil {
		return s.respondError(c, err)
	}

	labels := make([]string, 0, len(slots))
	for _, slot := range slots {
		labels = append(labels, slot.Label())
	}
	return c.JSON(http.StatusOK, availableResponse{Date: date.Format(time.DateOnly), Slots: labels})
}

type teeTimeResponse struct {
	ID                    int    `json:"id"`
	Date                  string `json:"date"`
	Slot                  string `json:"slot"`
	MemberID              int    `json:"memberId"`
	Players               int    `json:"players"`
	OpenSpots             int    `json:"openSpots"`
	CancellationRequested bool   `json:"cancellationRequested"`
}

// JoinableTeeTimes handles GET /api/teetimes/joinable
func (s *Server) JoinableTeeTimes(c echo.Context) error {
	teeTimes, err := s.teeTimes.ListJoinable(c.Request().Context())
	if err != nil {
		return s.respondError(c, err)
	}

	out := make([]teeTimeResponse, 0, len(teeTimes))
	for _, t := range teeTimes {
		out = append(out, teeTimeResponse{
			ID:                    t.ID,
			Date:                  t.Date.Format(time.DateOnly),
			Slot:                  t.Slot().Label(),
			MemberID:              t.MemberID,
			Players:               t.Players,
			OpenSpots:             model.MaxPlayers - t.Players,
			CancellationRequested: t.CancellationRequested,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// MemberNames handles GET /api/members/names?ids=1,2,3
func (s *Server) MemberNames(c echo.Context) error {
	var ids []int
	for _, part := range strings.Split(c.QueryParam("ids"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "ids must be comma separated integers"})
		}
		ids = append(ids, id)
	}

	names, err := s.teeTimes.MemberNames(c.Request().Context(), ids)
	if err != nil {
		return s.respondError(c, err)
	}

	out := make(map[string]string, len(names))
	for id, name := range names {
		out[strconv.Itoa(id)] = name
	}
	return c.JSON(http.StatusOK, out)
}
