package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestIsValidEmail(t *testing.T) {
	require.True(t, IsValidEmail("a@b.com"))
	require.True(t, IsValidEmail("first.last+tag@example.co.uk"))
	require.False(t, IsValidEmail("not-an-email"))
	require.False(t, IsValidEmail("Alice <a@b.com>"))
	require.False(t, IsValidEmail(""))
}

func TestCustomerInput_Validate(t *testing.T) {
	valid := CustomerInput{ExternalID: "B-1", Name: "Al", Email: "al@example.com"}

	tests := []struct {
		name   string
		mutate func(in *CustomerInput)
		field  string
	}{
		{name: "valid", mutate: func(*CustomerInput) {}},
		{name: "missing external id", mutate: func(in *CustomerInput) { in.ExternalID = "" }, field: "external_id"},
		{name: "long external id", mutate: func(in *CustomerInput) { in.ExternalID = strings.Repeat("x", 51) }, field: "external_id"},
		{name: "one letter name", mutate: func(in *CustomerInput) { in.Name = "A" }, field: "name"},
		{name: "long name", mutate: func(in *CustomerInput) { in.Name = strings.Repeat("n", 256) }, field: "name"},
		{name: "missing email", mutate: func(in *CustomerInput) { in.Email = "" }, field: "email"},
		{name: "bad email", mutate: func(in *CustomerInput) { in.Email = "al-at-example" }, field: "email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := in.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.ErrorIs(t, err, ErrValidation)
			require.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCustomerInput_Normalize(t *testing.T) {
	in := CustomerInput{ExternalID: " B-1 ", Name: "\tAlice ", Email: " Alice@Example.COM "}
	in.Normalize()
	require.Equal(t, CustomerInput{ExternalID: "B-1", Name: "Alice", Email: "alice@example.com"}, in)
}

func TestReferralInput_Validate(t *testing.T) {
	tests := []struct {
		name  string
		in    ReferralInput
		field string
	}{
		{name: "valid", in: ReferralInput{ReferrerCode: " abcd1234 ", NewCustomerEmail: "New@Example.com"}},
		{name: "short code", in: ReferralInput{ReferrerCode: "ABC", NewCustomerEmail: "n@example.com"}, field: "referrer_code"},
		{name: "missing email", in: ReferralInput{ReferrerCode: "ABCD1234"}, field: "new_customer_email"},
		{name: "email longer than column", in: ReferralInput{ReferrerCode: "ABCD1234", NewCustomerEmail: strings.Repeat("a", 290) + "@example.com"}, field: "new_customer_email"},
		{name: "long booking reference", in: ReferralInput{ReferrerCode: "ABCD1234", NewCustomerEmail: "n@example.com", BookingReference: strings.Repeat("b", 101)}, field: "booking_reference"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			in.Normalize()
			err := in.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				require.Equal(t, "ABCD1234", in.ReferrerCode)
				require.Equal(t, "new@example.com", in.NewCustomerEmail)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestRewardInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		kind    string
		wantErr bool
	}{
		{name: "credit", amount: "25.00", kind: "credit"},
		{name: "cash upper case", amount: "0.01", kind: "CASH"},
		{name: "negative", amount: "-1", kind: "credit", wantErr: true},
		{name: "three decimals", amount: "9.999", kind: "credit", wantErr: true},
		{name: "unknown type", amount: "5", kind: "gift", wantErr: true},
		{name: "largest storable", amount: "99999999.99", kind: "credit"},
		{name: "overflows column", amount: "100000000", kind: "credit", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RewardInput{CustomerID: "c-1", Amount: decimal.RequireFromString(tt.amount), Type: tt.kind}.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransactionError(t *testing.T) {
	cause := errors.New("insert reward")
	err := error(&TransactionError{Op: "approve referral", Err: cause})

	require.ErrorIs(t, err, ErrTransactionFailed)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "approve referral")
}

func TestPaginationAndSort(t *testing.T) {
	require.Equal(t, 0, PaginationParams{Page: 0, PageSize: 20}.Offset())
	require.Equal(t, 40, PaginationParams{Page: 3, PageSize: 20}.Offset())

	require.Equal(t, SortParams{Field: "name", Desc: false}, ParseSort(" Name ", "ASC"))
	require.Equal(t, SortParams{Field: "created_at", Desc: true}, ParseSort("created_at", ""))
}
