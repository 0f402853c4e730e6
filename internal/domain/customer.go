package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ReferralCodeLength is the fixed length of every customer's referral code.
const ReferralCodeLength = 8

// Customer is a registered customer and the holder of a referral code.
type Customer struct {
	ID           string    `json:"id"`
	ExternalID   string    `json:"external_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ReferralCode string    `json:"referral_code"`
	CreatedAt    time.Time `json:"created_at"`

	// Derived on list and detail reads.
	ReferralCount int             `json:"referral_count"`
	TotalRewards  decimal.Decimal `json:"total_rewards"`
}

// NewCustomer returns a new Customer from validated input. ID is typically set by the repository on create.
func NewCustomer(in CustomerInput, referralCode string, createdAt time.Time) *Customer {
	return &Customer{
		ExternalID:   in.ExternalID,
		Name:         in.Name,
		Email:        in.Email,
		ReferralCode: referralCode,
		CreatedAt:    createdAt,
	}
}

// CustomerInput holds the fields a caller supplies to register a customer.
type CustomerInput struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

// Normalize trims every field and lower-cases the email.
func (in *CustomerInput) Normalize() {
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

// Validate checks a normalized input and returns the first violation.
func (in CustomerInput) Validate() error {
	switch {
	case in.ExternalID == "":
		return NewValidationError("external_id", "is required")
	case len(in.ExternalID) > 50:
		return NewValidationError("external_id", "must be at most 50 characters")
	case in.Name == "":
		return NewValidationError("name", "is required")
	case len([]rune(in.Name)) < 2:
		return NewValidationError("name", "must be at least 2 characters")
	case len(in.Name) > 255:
		return NewValidationError("name", "must be at most 255 characters")
	case in.Email == "":
		return NewValidationError("email", "is required")
	case len(in.Email) > 255:
		return NewValidationError("email", "must be at most 255 characters")
	case !IsValidEmail(in.Email):
		return NewValidationError("email", "must be a valid email address")
	}
	return nil
}

// NormalizeReferralCode upper-cases and trims a code as typed by a user.
func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CustomerFilter narrows customer listings. Search matches name, email,
// referral code and external id case-insensitively.
type CustomerFilter struct {
	Search string
}

// CustomerRepository defines the interface for customer storage.
// Unique violations on create are reported as ErrConflict.
type CustomerRepository interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id string) (*Customer, error)
	GetByCode(ctx context.Context, code string) (*Customer, error)
	List(ctx context.Context, filter CustomerFilter, page PaginationParams, sort SortParams) ([]*Customer, int, error)
	Delete(ctx context.Context, id string) error
}

// CodeGenerator mints referral codes that no customer holds yet.
type CodeGenerator interface {
	GenerateUniqueCode(ctx context.Context) (string, error)
}

// CustomerService defines customer registration and lookup.
type CustomerService interface {
	Create(ctx context.Context, in CustomerInput) (*Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	LookupByCode(ctx context.Context, code string) (*Customer, error)
	List(ctx context.Context, filter CustomerFilter, page PaginationParams, sort SortParams) ([]*Customer, int, error)
	Delete(ctx context.Context, id string) error
}
