package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RewardType is how a reward is paid out.
type RewardType string

const (
	RewardCredit RewardType = "credit"
	RewardCash   RewardType = "cash"
)

// ParseRewardType returns the RewardType for s or a validation error.
func ParseRewardType(s string) (RewardType, error) {
	switch t := RewardType(strings.ToLower(strings.TrimSpace(s))); t {
	case RewardCredit, RewardCash:
		return t, nil
	}
	return "", NewValidationError("type", "must be one of credit, cash")
}

// Reward is a credit or cash grant to a customer, optionally tied to the
// referral that earned it.
type Reward struct {
	ID          string          `json:"id"`
	CustomerID  string          `json:"customer_id"`
	ReferralID  *string         `json:"referral_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        RewardType      `json:"type"`
	Status      Status          `json:"status"`
	Description *string         `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`

	// Populated on list reads.
	CustomerName     string `json:"customer_name,omitempty"`
	CustomerEmail    string `json:"customer_email,omitempty"`
	NewCustomerEmail string `json:"new_customer_email,omitempty"`
}

// NewReferralReward builds the approved credit issued when a referral is approved.
func NewReferralReward(ref *Referral, amount decimal.Decimal, description string, createdAt time.Time) *Reward {
	referralID := ref.ID
	return &Reward{
		CustomerID:  ref.ReferrerID,
		ReferralID:  &referralID,
		Amount:      amount,
		Type:        RewardCredit,
		Status:      StatusApproved,
		Description: &description,
		CreatedAt:   createdAt,
	}
}

// MaxRewardAmount is the exclusive upper bound of a stored NUMERIC(10,2) amount.
var MaxRewardAmount = decimal.New(1, 8)

// ValidateRewardAmount checks that amount is positive, has at most two decimal
// places and fits the stored precision.
func ValidateRewardAmount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return NewValidationError("amount", "must be positive")
	case !amount.Equal(amount.Round(2)):
		return NewValidationError("amount", "must have at most two decimal places")
	case amount.GreaterThanOrEqual(MaxRewardAmount):
		return NewValidationError("amount", "must be less than 100000000")
	}
	return nil
}

// RewardInput is the payload for a manually issued reward.
type RewardInput struct {
	CustomerID  string          `json:"customer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
}

// Validate checks the input and returns the first violation.
func (in RewardInput) Validate() error {
	if strings.TrimSpace(in.CustomerID) == "" {
		return NewValidationError("customer_id", "is required")
	}
	if err := ValidateRewardAmount(in.Amount); err != nil {
		return err
	}
	if _, err := ParseRewardType(in.Type); err != nil {
		return err
	}
	if len(in.Description) > 500 {
		return NewValidationError("description", "must be at most 500 characters")
	}
	return nil
}

// RewardFilter narrows reward listings. Zero values mean no constraint.
type RewardFilter struct {
	Status     Status
	Type       RewardType
	CustomerID string
}

// RewardRepository defines the interface for reward storage.
type RewardRepository interface {
	Create(ctx context.Context, r *Reward) error
	List(ctx context.Context, filter RewardFilter, page PaginationParams) ([]*Reward, int, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Reward, error)
	SumByCustomer(ctx context.Context, customerID string, status Status) (decimal.Decimal, error)
}

// RewardService is the reward ledger.
type RewardService interface {
	CreateManual(ctx context.Context, in RewardInput) (*Reward, error)
	List(ctx context.Context, filter RewardFilter, page PaginationParams) ([]*Reward, int, error)
	SetStatus(ctx context.Context, id, status string) (*Reward, error)
	SumBy(ctx context.Context, customerID, status string) (decimal.Decimal, error)
}
