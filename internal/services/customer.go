package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"referralrewards/internal/domain"
)

type customerService struct {
	customerRepo   domain.CustomerRepository
	codes          domain.CodeGenerator
	contextTimeout time.Duration
}

// NewCustomerService creates a CustomerService that mints a referral code for every new customer.
func NewCustomerService(customerRepo domain.CustomerRepository, codes domain.CodeGenerator, timeout time.Duration) domain.CustomerService {
	return &customerService{
		customerRepo:   customerRepo,
		codes:          codes,
		contextTimeout: timeout,
	}
}

func (s *customerService) Create(ctx context.Context, in domain.CustomerInput) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	code, err := s.codes.GenerateUniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	c := domain.NewCustomer(in, code, time.Now().UTC())
	if err := s.customerRepo.Create(ctx, c); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

func (s *customerService) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	c, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (s *customerService) LookupByCode(ctx context.Context, code string) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	code = domain.NormalizeReferralCode(code)
	if len(code) != domain.ReferralCodeLength {
		return nil, domain.ErrNotFound
	}
	c, err := s.customerRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get customer by code: %w", err)
	}
	return c, nil
}

func (s *customerService) List(ctx context.Context, filter domain.CustomerFilter, page domain.PaginationParams, sort domain.SortParams) ([]*domain.Customer, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	customers, total, err := s.customerRepo.List(ctx, filter, page, sort)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	return customers, total, nil
}

func (s *customerService) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.customerRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}
