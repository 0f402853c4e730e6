package postgres

import (
	"context"

	"github.com/shopspring/decimal"
	"referralrewards/internal/domain"
)

type statsRepository struct {
	DB DBTX
}

func NewStatsRepository(db DBTX) domain.StatsRepository {
	return &statsRepository{DB: db}
}

func (r *statsRepository) Totals(ctx context.Context) (*domain.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM customers),
			(SELECT COUNT(*) FROM referrals),
			(SELECT COUNT(*) FROM referrals WHERE status = 'pending'),
			(SELECT COALESCE(SUM(amount), 0) FROM rewards WHERE status = 'paid')
	`
	s := &domain.DashboardStats{}
	err := r.DB.QueryRowContext(ctx, query).Scan(&s.TotalCustomers, &s.TotalReferrals, &s.PendingReferrals, &s.TotalRewardsPaid)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *statsRepository) TopReferrers(ctx context.Context, periodDays, limit int) ([]*domain.TopReferrer, error) {
	query := `
		SELECT c.name, c.email, c.referral_code, COUNT(r.id) AS referral_count
		FROM customers c
		JOIN referrals r ON r.referrer_id = c.id
		WHERE r.created_at >= CURRENT_DATE - make_interval(days => $1)
		GROUP BY c.id, c.name, c.email, c.referral_code
		ORDER BY referral_count DESC, c.name
		LIMIT $2
	`
	rows, err := r.DB.QueryContext(ctx, query, periodDays, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	top := make([]*domain.TopReferrer, 0, limit)
	for rows.Next() {
		t := &domain.TopReferrer{}
		if err := rows.Scan(&t.Name, &t.Email, &t.ReferralCode, &t.ReferralCount); err != nil {
			return nil, err
		}
		top = append(top, t)
	}
	return top, rows.Err()
}

func (r *statsRepository) ConversionByWeek(ctx context.Context, periodDays int) ([]*domain.ConversionWeek, error) {
	query := `
		WITH weekly AS (
			SELECT
				DATE_TRUNC('week', created_at) AS week,
				COUNT(*) AS total_referrals,
				COUNT(*) FILTER (WHERE status IN ('approved', 'paid')) AS converted_referrals
			FROM referrals
			WHERE created_at >= CURRENT_DATE - make_interval(days => $1)
			GROUP BY DATE_TRUNC('week', created_at)
		)
		SELECT week, total_referrals, converted_referrals,
			COALESCE(ROUND(converted_referrals::numeric / NULLIF(total_referrals, 0) * 100, 2), 0) AS conversion_rate
		FROM weekly
		ORDER BY week
	`
	rows, err := r.DB.QueryContext(ctx, query, periodDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	weeks := []*domain.ConversionWeek{}
	for rows.Next() {
		w := &domain.ConversionWeek{}
		if err := rows.Scan(&w.Week, &w.TotalReferrals, &w.ConvertedReferrals, &w.ConversionRate); err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

// RevenueByMonth counts converted referrals per month. Estimated revenue is the
// count times avgBookingValue; rewards only include paid ones.
func (r *statsRepository) RevenueByMonth(ctx context.Context, periodDays int, avgBookingValue decimal.Decimal) ([]*domain.RevenueMonth, error) {
	query := `
		SELECT
			DATE_TRUNC('month', r.created_at) AS month,
			COUNT(r.id) AS referrals_count,
			COALESCE(SUM(rw.amount), 0) AS total_rewards,
			COUNT(r.id) * $2::numeric AS estimated_revenue
		FROM referrals r
		LEFT JOIN rewards rw ON rw.referral_id = r.id AND rw.status = 'paid'
		WHERE r.created_at >= CURRENT_DATE - make_interval(days => $1)
			AND r.status IN ('approved', 'paid')
		GROUP BY DATE_TRUNC('month', r.created_at)
		ORDER BY month
	`
	rows, err := r.DB.QueryContext(ctx, query, periodDays, avgBookingValue)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	months := []*domain.RevenueMonth{}
	for rows.Next() {
		m := &domain.RevenueMonth{}
		if err := rows.Scan(&m.Month, &m.ReferralsCount, &m.TotalRewards, &m.EstimatedRevenue); err != nil {
			return nil, err
		}
		months = append(months, m)
	}
	return months, rows.Err()
}
