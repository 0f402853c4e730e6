package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"referralrewards/internal/domain"
	"referralrewards/internal/metrics"
)

type transitionService struct {
	transactor     domain.Transactor
	policy         domain.TransitionPolicy
	rewardAmount   decimal.Decimal
	metrics        *metrics.Metrics
	contextTimeout time.Duration
}

// NewTransitionService creates the referral status coordinator. rewardAmount is
// the credit issued to the referrer whenever a referral becomes approved.
func NewTransitionService(
	transactor domain.Transactor,
	policy domain.TransitionPolicy,
	rewardAmount decimal.Decimal,
	m *metrics.Metrics,
	timeout time.Duration,
) domain.TransitionService {
	return &transitionService{
		transactor:     transactor,
		policy:         policy,
		rewardAmount:   rewardAmount,
		metrics:        m,
		contextTimeout: timeout,
	}
}

func (s *transitionService) TransitionOne(ctx context.Context, referralID, status string) (*domain.Referral, error) {
	to, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var updated *domain.Referral
	err = s.transactor.WithinTx(ctx, func(repos domain.Repositories) error {
		current, err := repos.Referrals.GetForUpdate(ctx, referralID)
		if err != nil {
			return err
		}
		if !s.policy.Allowed(current.Status, to) {
			return fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, current.Status, to)
		}
		updated, err = repos.Referrals.UpdateStatus(ctx, referralID, to)
		if err != nil {
			return fmt.Errorf("update referral status: %w", err)
		}
		if to != domain.StatusApproved {
			return nil
		}
		reward := domain.NewReferralReward(updated, s.rewardAmount, "Reward for referral: "+updated.NewCustomerEmail, time.Now().UTC())
		if err := repos.Rewards.Create(ctx, reward); err != nil {
			return fmt.Errorf("create reward: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, transactionError("transition referral", err)
	}

	s.metrics.Transitioned(string(to), "single", 1)
	if to == domain.StatusApproved {
		s.metrics.RewardsIssued(metrics.SourceReferral, 1)
	}
	return updated, nil
}

func (s *transitionService) TransitionBulk(ctx context.Context, referralIDs []string, status string) (int, error) {
	to, err := domain.ParseStatus(status)
	if err != nil {
		return 0, err
	}
	ids := uniqueIDs(referralIDs)
	if len(ids) == 0 {
		return 0, domain.NewValidationError("referral_ids", "at least one id is required")
	}
	sources := s.policy.SourcesFor(to)
	if len(sources) == 0 {
		return 0, fmt.Errorf("%w: nothing may move into %s", domain.ErrInvalidTransition, to)
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var updated []*domain.Referral
	err = s.transactor.WithinTx(ctx, func(repos domain.Repositories) error {
		var err error
		updated, err = repos.Referrals.UpdateStatusBulk(ctx, ids, sources, to)
		if err != nil {
			return fmt.Errorf("update referral statuses: %w", err)
		}
		if to != domain.StatusApproved {
			return nil
		}
		now := time.Now().UTC()
		// Rewards follow the rows the store actually changed, not the requested ids.
		for _, ref := range updated {
			reward := domain.NewReferralReward(ref, s.rewardAmount, "Reward for bulk approved referral: "+ref.NewCustomerEmail, now)
			if err := repos.Rewards.Create(ctx, reward); err != nil {
				return fmt.Errorf("create reward for referral %s: %w", ref.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, transactionError("bulk transition referrals", err)
	}

	s.metrics.Transitioned(string(to), "bulk", len(updated))
	if to == domain.StatusApproved {
		s.metrics.RewardsIssued(metrics.SourceReferral, len(updated))
	}
	return len(updated), nil
}

// transactionError keeps "nothing happened" errors as they are and wraps every
// other failure from a rolled back transaction in a *domain.TransactionError.
func transactionError(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		return err
	}
	return &domain.TransactionError{Op: op, Err: err}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
