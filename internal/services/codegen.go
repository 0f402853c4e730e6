package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"referralrewards/internal/domain"
	"referralrewards/internal/metrics"
)

// MaxCodeAttempts bounds how many candidates are drawn before giving up.
const MaxCodeAttempts = 100

var referralCodeAlphabet = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

type codeChecker interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

type codeGenerator struct {
	customers  codeChecker
	metrics    *metrics.Metrics
	randomCode func() (string, error)
}

// NewCodeGenerator returns a CodeGenerator that checks candidates against customers.
func NewCodeGenerator(customers codeChecker, m *metrics.Metrics) domain.CodeGenerator {
	return &codeGenerator{
		customers:  customers,
		metrics:    m,
		randomCode: generateReferralCode,
	}
}

func (g *codeGenerator) GenerateUniqueCode(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= MaxCodeAttempts; attempt++ {
		code, err := g.randomCode()
		if err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}
		exists, err := g.customers.ExistsByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check referral code: %w", err)
		}
		if !exists {
			g.metrics.CodeAttempts(attempt)
			return code, nil
		}
	}
	g.metrics.CodeAttempts(MaxCodeAttempts)
	return "", domain.ErrExhaustedRetries
}

func generateReferralCode() (string, error) {
	b := make([]byte, domain.ReferralCodeLength)
	max := big.NewInt(int64(len(referralCodeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = referralCodeAlphabet[n.Int64()]
	}
	return string(b), nil
}
