package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"referralrewards/internal/domain"
	"referralrewards/internal/metrics"
)

type rewardService struct {
	customerRepo   domain.CustomerRepository
	rewardRepo     domain.RewardRepository
	metrics        *metrics.Metrics
	contextTimeout time.Duration
}

// NewRewardService creates the reward ledger.
func NewRewardService(
	customerRepo domain.CustomerRepository,
	rewardRepo domain.RewardRepository,
	m *metrics.Metrics,
	timeout time.Duration,
) domain.RewardService {
	return &rewardService{
		customerRepo:   customerRepo,
		rewardRepo:     rewardRepo,
		metrics:        m,
		contextTimeout: timeout,
	}
}

func (s *rewardService) CreateManual(ctx context.Context, in domain.RewardInput) (*domain.Reward, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	in.CustomerID = strings.TrimSpace(in.CustomerID)
	in.Description = strings.TrimSpace(in.Description)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rewardType, _ := domain.ParseRewardType(in.Type)

	if _, err := s.customerRepo.GetByID(ctx, in.CustomerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	rw := &domain.Reward{
		CustomerID: in.CustomerID,
		Amount:     in.Amount,
		Type:       rewardType,
		Status:     domain.StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if in.Description != "" {
		rw.Description = &in.Description
	}
	if err := s.rewardRepo.Create(ctx, rw); err != nil {
		return nil, fmt.Errorf("create reward: %w", err)
	}
	s.metrics.RewardsIssued(metrics.SourceManual, 1)
	return rw, nil
}

func (s *rewardService) List(ctx context.Context, filter domain.RewardFilter, page domain.PaginationParams) ([]*domain.Reward, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	rewards, total, err := s.rewardRepo.List(ctx, filter, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list rewards: %w", err)
	}
	return rewards, total, nil
}

func (s *rewardService) SetStatus(ctx context.Context, id, status string) (*domain.Reward, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	rw, err := s.rewardRepo.UpdateStatus(ctx, id, st)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update reward status: %w", err)
	}
	return rw, nil
}

func (s *rewardService) SumBy(ctx context.Context, customerID, status string) (decimal.Decimal, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return decimal.Zero, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	sum, err := s.rewardRepo.SumByCustomer(ctx, customerID, st)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum rewards: %w", err)
	}
	return sum, nil
}
