package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"referralrewards/internal/domain"
	"referralrewards/internal/metrics"
)

type referralService struct {
	customerRepo   domain.CustomerRepository
	referralRepo   domain.ReferralRepository
	metrics        *metrics.Metrics
	contextTimeout time.Duration
}

// NewReferralService creates the referral registry.
func NewReferralService(
	customerRepo domain.CustomerRepository,
	referralRepo domain.ReferralRepository,
	m *metrics.Metrics,
	timeout time.Duration,
) domain.ReferralService {
	return &referralService{
		customerRepo:   customerRepo,
		referralRepo:   referralRepo,
		metrics:        m,
		contextTimeout: timeout,
	}
}

func (s *referralService) Create(ctx context.Context, in domain.ReferralInput) (*domain.Referral, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	referrer, err := s.customerRepo.GetByCode(ctx, in.ReferrerCode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get referrer: %w", err)
	}

	if _, err := s.referralRepo.GetByReferrerAndEmail(ctx, referrer.ID, in.NewCustomerEmail); err == nil {
		return nil, domain.ErrDuplicateReferral
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get existing referral: %w", err)
	}

	var bookingRef *string
	if in.BookingReference != "" {
		bookingRef = &in.BookingReference
	}
	ref := domain.NewReferral(referrer.ID, in.NewCustomerEmail, bookingRef, time.Now().UTC())
	if err := s.referralRepo.Create(ctx, ref); err != nil {
		// A concurrent request may have inserted the same pair after our check.
		if errors.Is(err, domain.ErrDuplicateReferral) {
			return nil, domain.ErrDuplicateReferral
		}
		return nil, fmt.Errorf("create referral: %w", err)
	}
	ref.ReferrerName = referrer.Name
	ref.ReferrerEmail = referrer.Email
	ref.ReferralCode = referrer.ReferralCode
	s.metrics.ReferralCreated()
	return ref, nil
}

func (s *referralService) Get(ctx context.Context, id string) (*domain.Referral, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ref, err := s.referralRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get referral: %w", err)
	}
	return ref, nil
}

func (s *referralService) List(ctx context.Context, filter domain.ReferralFilter, page domain.PaginationParams, sort domain.SortParams) ([]*domain.Referral, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	refs, total, err := s.referralRepo.List(ctx, filter, page, sort)
	if err != nil {
		return nil, 0, fmt.Errorf("list referrals: %w", err)
	}
	return refs, total, nil
}
