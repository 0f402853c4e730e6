package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"referralrewards/internal/domain"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	checkViolation      = "23514"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so a repository can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PoolConfig bounds the shared connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
}

// Open opens the shared connection pool and verifies it with a ping.
func Open(ctx context.Context, dsn string, cfg PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// NewRepositories binds every repository to db, which may be a pool or a transaction.
func NewRepositories(db DBTX) domain.Repositories {
	return domain.Repositories{
		Customers: NewCustomerRepository(db),
		Referrals: NewReferralRepository(db),
		Rewards:   NewRewardRepository(db),
	}
}

func isUniqueViolation(err error) bool {
	var perr *pq.Error
	return errors.As(err, &perr) && perr.Code == uniqueViolation
}

// mapWriteError turns unique violations into domain.ErrConflict, keeping the
// constraint name for diagnostics. Foreign key and check violations become
// validation errors named after the constraint.
func mapWriteError(err error) error {
	var perr *pq.Error
	if !errors.As(err, &perr) {
		return err
	}
	switch perr.Code {
	case uniqueViolation:
		if perr.Constraint != "" {
			return fmt.Errorf("%w: %s", domain.ErrConflict, perr.Constraint)
		}
		return domain.ErrConflict
	case foreignKeyViolation:
		return domain.NewValidationError(perr.Constraint, "references a record that does not exist")
	case checkViolation:
		return domain.NewValidationError(perr.Constraint, "value is not allowed")
	}
	return err
}

// orderBy resolves a requested sort against an allow-list of safe column
// expressions. Unknown fields fall back to def. A unique tiebreaker keeps
// pagination deterministic.
func orderBy(allowed map[string]string, sort domain.SortParams, def, tiebreaker string) string {
	col, ok := allowed[sort.Field]
	if !ok {
		return def + ", " + tiebreaker
	}
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	return col + " " + dir + ", " + tiebreaker
}

// whereClause joins conditions with AND, returning "" when there are none.
func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func statusStrings(statuses []domain.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
