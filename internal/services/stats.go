package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"referralrewards/internal/domain"
)

const (
	topReferrersLimit = 5
	defaultPeriodDays = 30
)

type statsService struct {
	statsRepo       domain.StatsRepository
	avgBookingValue decimal.Decimal
	contextTimeout  time.Duration
}

// NewStatsService creates the reporting service. avgBookingValue prices each
// converted referral in the revenue report.
func NewStatsService(statsRepo domain.StatsRepository, avgBookingValue decimal.Decimal, timeout time.Duration) domain.StatsService {
	return &statsService{statsRepo: statsRepo, avgBookingValue: avgBookingValue, contextTimeout: timeout}
}

func (s *statsService) Dashboard(ctx context.Context, periodDays int) (*domain.DashboardStats, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	stats, err := s.statsRepo.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("load totals: %w", err)
	}
	top, err := s.statsRepo.TopReferrers(ctx, periodOrDefault(periodDays), topReferrersLimit)
	if err != nil {
		return nil, fmt.Errorf("load top referrers: %w", err)
	}
	stats.TopReferrers = top
	return stats, nil
}

func (s *statsService) Conversion(ctx context.Context, periodDays int) ([]*domain.ConversionWeek, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	weeks, err := s.statsRepo.ConversionByWeek(ctx, periodOrDefault(periodDays))
	if err != nil {
		return nil, fmt.Errorf("load conversion rate: %w", err)
	}
	return weeks, nil
}

func (s *statsService) RevenueImpact(ctx context.Context, periodDays int) ([]*domain.RevenueMonth, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	months, err := s.statsRepo.RevenueByMonth(ctx, periodOrDefault(periodDays), s.avgBookingValue)
	if err != nil {
		return nil, fmt.Errorf("load revenue impact: %w", err)
	}
	return months, nil
}

func periodOrDefault(days int) int {
	if days <= 0 {
		return defaultPeriodDays
	}
	return days
}
