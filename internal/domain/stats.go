package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TopReferrer is a customer ranked by referrals created within a period.
type TopReferrer struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	ReferralCode  string `json:"referral_code"`
	ReferralCount int    `json:"referral_count"`
}

// DashboardStats summarizes the program for the admin dashboard.
type DashboardStats struct {
	TotalCustomers   int             `json:"total_customers"`
	TotalReferrals   int             `json:"total_referrals"`
	PendingReferrals int             `json:"pending_referrals"`
	TotalRewardsPaid decimal.Decimal `json:"total_rewards_paid"`
	TopReferrers     []*TopReferrer  `json:"top_referrers"`
}

// ConversionWeek is the share of a week's referrals that reached approved or paid.
// ConversionRate is a percentage rounded to two decimals.
type ConversionWeek struct {
	Week               time.Time       `json:"week"`
	TotalReferrals     int             `json:"total_referrals"`
	ConvertedReferrals int             `json:"converted_referrals"`
	ConversionRate     decimal.Decimal `json:"conversion_rate"`
}

// RevenueMonth sets the paid rewards of a month's converted referrals against
// the booking revenue they are estimated to have brought in.
type RevenueMonth struct {
	Month            time.Time       `json:"month"`
	ReferralsCount   int             `json:"referrals_count"`
	TotalRewards     decimal.Decimal `json:"total_rewards"`
	EstimatedRevenue decimal.Decimal `json:"estimated_revenue"`
}

// StatsRepository defines aggregate queries for reporting.
type StatsRepository interface {
	Totals(ctx context.Context) (*DashboardStats, error)
	TopReferrers(ctx context.Context, periodDays, limit int) ([]*TopReferrer, error)
	ConversionByWeek(ctx context.Context, periodDays int) ([]*ConversionWeek, error)
	RevenueByMonth(ctx context.Context, periodDays int, avgBookingValue decimal.Decimal) ([]*RevenueMonth, error)
}

// StatsService serves dashboard and analytics aggregates.
type StatsService interface {
	Dashboard(ctx context.Context, periodDays int) (*DashboardStats, error)
	Conversion(ctx context.Context, periodDays int) ([]*ConversionWeek, error)
	RevenueImpact(ctx context.Context, periodDays int) ([]*RevenueMonth, error)
}
