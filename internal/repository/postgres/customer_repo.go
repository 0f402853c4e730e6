package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"referralrewards/internal/domain"
)

const customerColumns = `
	c.id, c.external_id, c.name, c.email, c.referral_code, c.created_at,
	(SELECT COUNT(*) FROM referrals r WHERE r.referrer_id = c.id) AS referral_count,
	(SELECT COALESCE(SUM(rw.amount), 0) FROM rewards rw WHERE rw.customer_id = c.id AND rw.status = 'paid') AS total_rewards
`

var customerSortColumns = map[string]string{
	"name":           "c.name",
	"email":          "c.email",
	"created_at":     "c.created_at",
	"referral_count": "referral_count",
	"total_rewards":  "total_rewards",
}

type customerRepository struct {
	DB DBTX
}

func NewCustomerRepository(db DBTX) domain.CustomerRepository {
	return &customerRepository{DB: db}
}

func (r *customerRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM customers WHERE referral_code = $1)`, code).Scan(&exists)
	return exists, err
}

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `
		INSERT INTO customers (external_id, name, email, referral_code, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, c.ExternalID, c.Name, c.Email, c.ReferralCode, c.CreatedAt).Scan(&c.ID)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers c WHERE c.id = $1`, id)
}

func (r *customerRepository) GetByCode(ctx context.Context, code string) (*domain.Customer, error) {
	return r.getOne(ctx, `SELECT `+customerColumns+` FROM customers c WHERE c.referral_code = $1`, code)
}

func (r *customerRepository) getOne(ctx context.Context, query string, arg string) (*domain.Customer, error) {
	c, err := scanCustomer(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (r *customerRepository) List(ctx context.Context, filter domain.CustomerFilter, page domain.PaginationParams, sort domain.SortParams) ([]*domain.Customer, int, error) {
	var conds []string
	var args []any
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, `(c.name ILIKE $1 OR c.email ILIKE $1 OR c.referral_code ILIKE $1 OR c.external_id ILIKE $1)`)
	}
	where := whereClause(conds)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers c`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM customers c%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		customerColumns, where,
		orderBy(customerSortColumns, sort, "c.created_at DESC", "c.id"),
		len(args)+1, len(args)+2,
	)
	args = append(args, page.PageSize, page.Offset())
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	customers := make([]*domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}

func (r *customerRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (*domain.Customer, error) {
	c := &domain.Customer{}
	err := row.Scan(&c.ID, &c.ExternalID, &c.Name, &c.Email, &c.ReferralCode, &c.CreatedAt, &c.ReferralCount, &c.TotalRewards)
	if err != nil {
		return nil, err
	}
	return c, nil
}
