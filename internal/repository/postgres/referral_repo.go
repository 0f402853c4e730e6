package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"referralrewards/internal/domain"
)

const referralDetailSelect = `
	SELECT r.id, r.referrer_id, r.new_customer_email, r.booking_reference, r.status, r.created_at,
		c.name, c.email, c.referral_code, rw.amount
	FROM referrals r
	JOIN customers c ON c.id = r.referrer_id
	LEFT JOIN rewards rw ON rw.referral_id = r.id
`

const referralReturning = `id, referrer_id, new_customer_email, booking_reference, status, created_at`

var referralSortColumns = map[string]string{
	"created_at":         "r.created_at",
	"status":             "r.status",
	"new_customer_email": "r.new_customer_email",
	"reward_amount":      "rw.amount",
}

type referralRepository struct {
	DB DBTX
}

func NewReferralRepository(db DBTX) domain.ReferralRepository {
	return &referralRepository{DB: db}
}

func (r *referralRepository) Create(ctx context.Context, ref *domain.Referral) error {
	query := `
		INSERT INTO referrals (referrer_id, new_customer_email, booking_reference, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, ref.ReferrerID, ref.NewCustomerEmail, ref.BookingReference, ref.Status, ref.CreatedAt).
		Scan(&ref.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateReferral
		}
		return mapWriteError(err)
	}
	return nil
}

func (r *referralRepository) GetByID(ctx context.Context, id string) (*domain.Referral, error) {
	ref, err := scanReferralDetail(r.DB.QueryRowContext(ctx, referralDetailSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return ref, nil
}

func (r *referralRepository) GetByReferrerAndEmail(ctx context.Context, referrerID, email string) (*domain.Referral, error) {
	query := `SELECT ` + referralReturning + ` FROM referrals WHERE referrer_id = $1 AND new_customer_email = $2`
	ref, err := scanReferral(r.DB.QueryRowContext(ctx, query, referrerID, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return ref, nil
}

func (r *referralRepository) List(ctx context.Context, filter domain.ReferralFilter, page domain.PaginationParams, sort domain.SortParams) ([]*domain.Referral, int, error) {
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("r.status = $%d", len(args)))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		conds = append(conds, fmt.Sprintf("r.created_at >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		conds = append(conds, fmt.Sprintf("r.created_at <= $%d", len(args)))
	}
	where := whereClause(conds)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM referrals r`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`%s%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		referralDetailSelect, where,
		orderBy(referralSortColumns, sort, "r.created_at DESC", "r.id"),
		len(args)+1, len(args)+2,
	)
	args = append(args, page.PageSize, page.Offset())
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	refs := make([]*domain.Referral, 0)
	for rows.Next() {
		ref, err := scanReferralDetail(rows)
		if err != nil {
			return nil, 0, err
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return refs, total, nil
}

func (r *referralRepository) GetForUpdate(ctx context.Context, id string) (*domain.Referral, error) {
	query := `SELECT ` + referralReturning + ` FROM referrals WHERE id = $1 FOR UPDATE`
	ref, err := scanReferral(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return ref, nil
}

func (r *referralRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Referral, error) {
	query := `UPDATE referrals SET status = $1 WHERE id = $2 RETURNING ` + referralReturning
	ref, err := scanReferral(r.DB.QueryRowContext(ctx, query, status, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return ref, nil
}

func (r *referralRepository) UpdateStatusBulk(ctx context.Context, ids []string, from []domain.Status, status domain.Status) ([]*domain.Referral, error) {
	query := `
		UPDATE referrals SET status = $1
		WHERE id = ANY($2::uuid[]) AND status = ANY($3)
		RETURNING ` + referralReturning
	rows, err := r.DB.QueryContext(ctx, query, status, pq.Array(ids), pq.Array(statusStrings(from)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updated := make([]*domain.Referral, 0, len(ids))
	for rows.Next() {
		ref, err := scanReferral(rows)
		if err != nil {
			return nil, err
		}
		updated = append(updated, ref)
	}
	return updated, rows.Err()
}

func scanReferral(row rowScanner) (*domain.Referral, error) {
	ref := &domain.Referral{}
	var bookingNull sql.NullString
	if err := row.Scan(&ref.ID, &ref.ReferrerID, &ref.NewCustomerEmail, &bookingNull, &ref.Status, &ref.CreatedAt); err != nil {
		return nil, err
	}
	if bookingNull.Valid {
		ref.BookingReference = &bookingNull.String
	}
	return ref, nil
}

func scanReferralDetail(row rowScanner) (*domain.Referral, error) {
	ref := &domain.Referral{}
	var bookingNull sql.NullString
	var amountNull decimal.NullDecimal
	err := row.Scan(
		&ref.ID, &ref.ReferrerID, &ref.NewCustomerEmail, &bookingNull, &ref.Status, &ref.CreatedAt,
		&ref.ReferrerName, &ref.ReferrerEmail, &ref.ReferralCode, &amountNull,
	)
	if err != nil {
		return nil, err
	}
	if bookingNull.Valid {
		ref.BookingReference = &bookingNull.String
	}
	if amountNull.Valid {
		ref.RewardAmount = &amountNull.Decimal
	}
	return ref, nil
}
