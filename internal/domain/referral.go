package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Referral records a prospect attributed to a referrer's code.
type Referral struct {
	ID               string    `json:"id"`
	ReferrerID       string    `json:"referrer_id"`
	NewCustomerEmail string    `json:"new_customer_email"`
	BookingReference *string   `json:"booking_reference,omitempty"`
	Status           Status    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`

	// Populated from the referrer (and its reward, if any) on reads.
	ReferrerName  string           `json:"referrer_name,omitempty"`
	ReferrerEmail string           `json:"referrer_email,omitempty"`
	ReferralCode  string           `json:"referral_code,omitempty"`
	RewardAmount  *decimal.Decimal `json:"reward_amount,omitempty"`
}

// NewReferral returns a pending Referral. ID is typically set by the repository on create.
func NewReferral(referrerID, email string, bookingRef *string, createdAt time.Time) *Referral {
	return &Referral{
		ReferrerID:       referrerID,
		NewCustomerEmail: email,
		BookingReference: bookingRef,
		Status:           StatusPending,
		CreatedAt:        createdAt,
	}
}

// ReferralInput is the payload for registering a referral.
type ReferralInput struct {
	ReferrerCode     string `json:"referrer_code"`
	NewCustomerEmail string `json:"new_customer_email"`
	BookingReference string `json:"booking_reference,omitempty"`
}

// Normalize trims all fields, upper-cases the code and lower-cases the email.
func (in *ReferralInput) Normalize() {
	in.ReferrerCode = NormalizeReferralCode(in.ReferrerCode)
	in.NewCustomerEmail = strings.ToLower(strings.TrimSpace(in.NewCustomerEmail))
	in.BookingReference = strings.TrimSpace(in.BookingReference)
}

// Validate checks a normalized input and returns the first violation.
func (in ReferralInput) Validate() error {
	switch {
	case in.ReferrerCode == "":
		return NewValidationError("referrer_code", "is required")
	case len(in.ReferrerCode) != ReferralCodeLength:
		return NewValidationError("referrer_code", "must be exactly 8 characters")
	case in.NewCustomerEmail == "":
		return NewValidationError("new_customer_email", "is required")
	case len(in.NewCustomerEmail) > 255:
		return NewValidationError("new_customer_email", "must be at most 255 characters")
	case !IsValidEmail(in.NewCustomerEmail):
		return NewValidationError("new_customer_email", "must be a valid email address")
	case len(in.BookingReference) > 100:
		return NewValidationError("booking_reference", "must be at most 100 characters")
	}
	return nil
}

// ReferralFilter narrows referral listings. Zero values mean no constraint.
type ReferralFilter struct {
	Status   Status
	DateFrom *time.Time
	DateTo   *time.Time
}

// ReferralRepository defines the interface for referral storage.
type ReferralRepository interface {
	Create(ctx context.Context, r *Referral) error
	GetByID(ctx context.Context, id string) (*Referral, error)
	GetByReferrerAndEmail(ctx context.Context, referrerID, email string) (*Referral, error)
	List(ctx context.Context, filter ReferralFilter, page PaginationParams, sort SortParams) ([]*Referral, int, error)
	// GetForUpdate loads a referral and locks its row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id string) (*Referral, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Referral, error)
	// UpdateStatusBulk moves every referral in ids whose current status is one of
	// from into status and returns the rows that were changed.
	UpdateStatusBulk(ctx context.Context, ids []string, from []Status, status Status) ([]*Referral, error)
}

// ReferralService creates and reads referrals.
type ReferralService interface {
	Create(ctx context.Context, in ReferralInput) (*Referral, error)
	Get(ctx context.Context, id string) (*Referral, error)
	List(ctx context.Context, filter ReferralFilter, page PaginationParams, sort SortParams) ([]*Referral, int, error)
}

// TransitionService changes referral statuses, issuing rewards on approval.
type TransitionService interface {
	TransitionOne(ctx context.Context, referralID, status string) (*Referral, error)
	TransitionBulk(ctx context.Context, referralIDs []string, status string) (int, error)
}
