package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"referralrewards/internal/domain"
)

const rewardReturning = `id, customer_id, referral_id, amount, type, status, description, created_at`

type rewardRepository struct {
	DB DBTX
}

func NewRewardRepository(db DBTX) domain.RewardRepository {
	return &rewardRepository{DB: db}
}

func (r *rewardRepository) Create(ctx context.Context, rw *domain.Reward) error {
	query := `
		INSERT INTO rewards (customer_id, referral_id, amount, type, status, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, rw.CustomerID, rw.ReferralID, rw.Amount, rw.Type, rw.Status, rw.Description, rw.CreatedAt).
		Scan(&rw.ID)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *rewardRepository) List(ctx context.Context, filter domain.RewardFilter, page domain.PaginationParams) ([]*domain.Reward, int, error) {
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("rw.status = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("rw.type = $%d", len(args)))
	}
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		conds = append(conds, fmt.Sprintf("rw.customer_id = $%d", len(args)))
	}
	where := whereClause(conds)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM rewards rw`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT rw.id, rw.customer_id, rw.referral_id, rw.amount, rw.type, rw.status, rw.description, rw.created_at,
			c.name, c.email, COALESCE(r.new_customer_email, '')
		FROM rewards rw
		JOIN customers c ON c.id = rw.customer_id
		LEFT JOIN referrals r ON r.id = rw.referral_id
		%s
		ORDER BY rw.created_at DESC, rw.id
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, page.PageSize, page.Offset())
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	rewards := make([]*domain.Reward, 0)
	for rows.Next() {
		rw := &domain.Reward{}
		var referralNull, descNull sql.NullString
		if err := rows.Scan(&rw.ID, &rw.CustomerID, &referralNull, &rw.Amount, &rw.Type, &rw.Status, &descNull, &rw.CreatedAt,
			&rw.CustomerName, &rw.CustomerEmail, &rw.NewCustomerEmail); err != nil {
			return nil, 0, err
		}
		setRewardNullables(rw, referralNull, descNull)
		rewards = append(rewards, rw)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return rewards, total, nil
}

func (r *rewardRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Reward, error) {
	query := `UPDATE rewards SET status = $1 WHERE id = $2 RETURNING ` + rewardReturning
	rw := &domain.Reward{}
	var referralNull, descNull sql.NullString
	err := r.DB.QueryRowContext(ctx, query, status, id).
		Scan(&rw.ID, &rw.CustomerID, &referralNull, &rw.Amount, &rw.Type, &rw.Status, &descNull, &rw.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	setRewardNullables(rw, referralNull, descNull)
	return rw, nil
}

func (r *rewardRepository) SumByCustomer(ctx context.Context, customerID string, status domain.Status) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM rewards WHERE customer_id = $1 AND status = $2`
	var sum decimal.Decimal
	if err := r.DB.QueryRowContext(ctx, query, customerID, status).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func setRewardNullables(rw *domain.Reward, referralID, description sql.NullString) {
	if referralID.Valid {
		rw.ReferralID = &referralID.String
	}
	if description.Valid {
		rw.Description = &description.String
	}
}
