package domain

import "context"

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Customers CustomerRepository
	Referrals ReferralRepository
	Rewards   RewardRepository
}

// Transactor runs fn against repositories bound to a single transaction.
// The transaction commits only if fn returns nil and is rolled back on every
// other exit path, including panics.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
