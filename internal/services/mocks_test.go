package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"referralrewards/internal/domain"
	"referralrewards/internal/metrics"
)

var errInsertFailed = errors.New("insert failed")

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// memStore is an in-memory store whose WithinTx restores a snapshot when fn fails.
type memStore struct {
	customers map[string]domain.Customer
	referrals map[string]domain.Referral
	rewards   []domain.Reward
	nextID    int

	// failRewardOn makes the n-th reward insert (1-based) fail; 0 never fails.
	failRewardOn  int
	rewardCreates int
	commits       int
	rollbacks     int
}

func newMemStore() *memStore {
	return &memStore{
		customers: map[string]domain.Customer{},
		referrals: map[string]domain.Referral{},
	}
}

func (m *memStore) repos() domain.Repositories {
	return domain.Repositories{
		Customers: memCustomers{m},
		Referrals: memReferrals{m},
		Rewards:   memRewards{m},
	}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(repos domain.Repositories) error) error {
	customers := make(map[string]domain.Customer, len(m.customers))
	for k, v := range m.customers {
		customers[k] = v
	}
	referrals := make(map[string]domain.Referral, len(m.referrals))
	for k, v := range m.referrals {
		referrals[k] = v
	}
	rewards := append([]domain.Reward(nil), m.rewards...)

	if err := fn(m.repos()); err != nil {
		m.customers, m.referrals, m.rewards = customers, referrals, rewards
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

func (m *memStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memStore) addCustomer(externalID, name, email, code string) *domain.Customer {
	c := domain.Customer{ID: m.id("cust"), ExternalID: externalID, Name: name, Email: email, ReferralCode: code}
	m.customers[c.ID] = c
	return &c
}

func (m *memStore) addReferral(referrerID, email string, status domain.Status) *domain.Referral {
	r := domain.Referral{ID: m.id("ref"), ReferrerID: referrerID, NewCustomerEmail: email, Status: status}
	m.referrals[r.ID] = r
	return &r
}

func (m *memStore) rewardsFor(referralID string) []domain.Reward {
	var out []domain.Reward
	for _, rw := range m.rewards {
		if rw.ReferralID != nil && *rw.ReferralID == referralID {
			out = append(out, rw)
		}
	}
	return out
}

type memCustomers struct{ m *memStore }

func (r memCustomers) ExistsByCode(ctx context.Context, code string) (bool, error) {
	for _, c := range r.m.customers {
		if c.ReferralCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (r memCustomers) Create(ctx context.Context, c *domain.Customer) error {
	for _, existing := range r.m.customers {
		if existing.ExternalID == c.ExternalID || existing.Email == c.Email || existing.ReferralCode == c.ReferralCode {
			return fmt.Errorf("%w: customers_key", domain.ErrConflict)
		}
	}
	c.ID = r.m.id("cust")
	r.m.customers[c.ID] = *c
	return nil
}

func (r memCustomers) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	c, ok := r.m.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r memCustomers) GetByCode(ctx context.Context, code string) (*domain.Customer, error) {
	for _, c := range r.m.customers {
		if c.ReferralCode == code {
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memCustomers) List(ctx context.Context, filter domain.CustomerFilter, page domain.PaginationParams, sort domain.SortParams) ([]*domain.Customer, int, error) {
	out := make([]*domain.Customer, 0, len(r.m.customers))
	for _, c := range r.m.customers {
		c := c
		out = append(out, &c)
	}
	return out, len(out), nil
}

func (r memCustomers) Delete(ctx context.Context, id string) error {
	if _, ok := r.m.customers[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.m.customers, id)
	return nil
}

type memReferrals struct{ m *memStore }

func (r memReferrals) Create(ctx context.Context, ref *domain.Referral) error {
	for _, existing := range r.m.referrals {
		if existing.ReferrerID == ref.ReferrerID && existing.NewCustomerEmail == ref.NewCustomerEmail {
			return domain.ErrDuplicateReferral
		}
	}
	ref.ID = r.m.id("ref")
	r.m.referrals[ref.ID] = *ref
	return nil
}

func (r memReferrals) GetByID(ctx context.Context, id string) (*domain.Referral, error) {
	ref, ok := r.m.referrals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &ref, nil
}

func (r memReferrals) GetByReferrerAndEmail(ctx context.Context, referrerID, email string) (*domain.Referral, error) {
	for _, ref := range r.m.referrals {
		if ref.ReferrerID == referrerID && ref.NewCustomerEmail == email {
			return &ref, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memReferrals) List(ctx context.Context, filter domain.ReferralFilter, page domain.PaginationParams, s domain.SortParams) ([]*domain.Referral, int, error) {
	out := make([]*domain.Referral, 0, len(r.m.referrals))
	for _, ref := range r.m.referrals {
		ref := ref
		if filter.Status != "" && ref.Status != filter.Status {
			continue
		}
		out = append(out, &ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r memReferrals) GetForUpdate(ctx context.Context, id string) (*domain.Referral, error) {
	return r.GetByID(ctx, id)
}

func (r memReferrals) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Referral, error) {
	ref, ok := r.m.referrals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	ref.Status = status
	r.m.referrals[id] = ref
	return &ref, nil
}

func (r memReferrals) UpdateStatusBulk(ctx context.Context, ids []string, from []domain.Status, status domain.Status) ([]*domain.Referral, error) {
	var updated []*domain.Referral
	for _, id := range ids {
		ref, ok := r.m.referrals[id]
		if !ok {
			continue
		}
		eligible := false
		for _, f := range from {
			if ref.Status == f {
				eligible = true
			}
		}
		if !eligible {
			continue
		}
		ref.Status = status
		r.m.referrals[id] = ref
		updated = append(updated, &ref)
	}
	return updated, nil
}

type memRewards struct{ m *memStore }

func (r memRewards) Create(ctx context.Context, rw *domain.Reward) error {
	r.m.rewardCreates++
	if r.m.failRewardOn > 0 && r.m.rewardCreates == r.m.failRewardOn {
		return errInsertFailed
	}
	if rw.ReferralID != nil && len(r.m.rewardsFor(*rw.ReferralID)) > 0 {
		return fmt.Errorf("%w: rewards_referral_id_key", domain.ErrConflict)
	}
	rw.ID = r.m.id("rw")
	r.m.rewards = append(r.m.rewards, *rw)
	return nil
}

func (r memRewards) List(ctx context.Context, filter domain.RewardFilter, page domain.PaginationParams) ([]*domain.Reward, int, error) {
	out := make([]*domain.Reward, 0, len(r.m.rewards))
	for _, rw := range r.m.rewards {
		rw := rw
		if filter.CustomerID != "" && rw.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, &rw)
	}
	return out, len(out), nil
}

func (r memRewards) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Reward, error) {
	for i := range r.m.rewards {
		if r.m.rewards[i].ID == id {
			r.m.rewards[i].Status = status
			rw := r.m.rewards[i]
			return &rw, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r memRewards) SumByCustomer(ctx context.Context, customerID string, status domain.Status) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, rw := range r.m.rewards {
		if rw.CustomerID == customerID && rw.Status == status {
			sum = sum.Add(rw.Amount)
		}
	}
	return sum, nil
}

// stubCodes hands out codes from a fixed sequence, or err when set.
type stubCodes struct {
	codes []string
	n     int
	err   error
}

func (s *stubCodes) GenerateUniqueCode(ctx context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.n < len(s.codes) {
		code := s.codes[s.n]
		s.n++
		return code, nil
	}
	s.n++
	return fmt.Sprintf("Z%07d", s.n), nil
}
