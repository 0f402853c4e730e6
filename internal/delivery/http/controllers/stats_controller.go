package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"referralrewards/internal/delivery/http/helpers"
	"referralrewards/internal/domain"
)

const (
	defaultStatsPeriodDays = 30
	maxStatsPeriodDays     = 365
)

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type StatsController struct {
	Logger  *slog.Logger
	Service domain.StatsService
	DB      Pinger
}

func NewStatsController(logger *slog.Logger, svc domain.StatsService, db Pinger) *StatsController {
	return &StatsController{Logger: logger, Service: svc, DB: db}
}

// parsePeriod reads the period query parameter in days. It writes a 400 and
// returns false when the value is malformed or out of range.
func parsePeriod(w http.ResponseWriter, r *http.Request) (int, bool) {
	s := r.URL.Query().Get("period")
	if s == "" {
		return defaultStatsPeriodDays, true
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 || v > maxStatsPeriodDays {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "period must be between 1 and 365 days")
		return 0, false
	}
	return v, true
}

// DashboardStats handles GET /dashboard/stats?period=30. Period is in days.
func (c *StatsController) DashboardStats(w http.ResponseWriter, r *http.Request) {
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	stats, err := c.Service.Dashboard(r.Context(), period)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, stats)
}

// ConversionRate handles GET /analytics/conversion-rate?period=30.
func (c *StatsController) ConversionRate(w http.ResponseWriter, r *http.Request) {
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	weeks, err := c.Service.Conversion(r.Context(), period)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, weeks)
}

// RevenueImpact handles GET /analytics/revenue-impact?period=30.
func (c *StatsController) RevenueImpact(w http.ResponseWriter, r *http.Request) {
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	months, err := c.Service.RevenueImpact(r.Context(), period)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, months)
}

// Health handles GET /health. It answers 503 when the database does not respond.
func (c *StatsController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := c.DB.PingContext(ctx); err != nil {
		c.Logger.WarnContext(r.Context(), "health check failed", "err", err)
		helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeUnavailable, "database unavailable")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
