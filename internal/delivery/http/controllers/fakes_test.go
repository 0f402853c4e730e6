package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"referralrewards/internal/delivery/http/helpers"
	"referralrewards/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testCustomerID = "6f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f"
	testReferralID = "0d9c8b7a-6f5e-4d3c-9b2a-1f0e9d8c7b6a"
	testRewardID   = "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"
)

// decodeEnvelope decodes the response envelope and, when data is non-nil,
// re-decodes envelope.Data into data.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope), "response must be valid JSON envelope")
	if data != nil && envelope.Data != nil {
		raw, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, data))
	}
	return envelope
}

// fakeCustomerService implements domain.CustomerService for handler tests.
type fakeCustomerService struct {
	createResult *domain.Customer
	createErr    error
	getResult    *domain.Customer
	getErr       error
	lookupErr    error
	listResult   []*domain.Customer
	listTotal    int
	listErr      error
	deleteErr    error
	lastInput    domain.CustomerInput
	lastFilter   domain.CustomerFilter
	lastPage     domain.PaginationParams
	lastSort     domain.SortParams
	lastID       string
	lastCode     string
}

func (f *fakeCustomerService) Create(ctx context.Context, in domain.CustomerInput) (*domain.Customer, error) {
	f.lastInput = in
	return f.createResult, f.createErr
}

func (f *fakeCustomerService) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	f.lastID = id
	return f.getResult, f.getErr
}

func (f *fakeCustomerService) LookupByCode(ctx context.Context, code string) (*domain.Customer, error) {
	f.lastCode = code
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.getResult, nil
}

func (f *fakeCustomerService) List(ctx context.Context, filter domain.CustomerFilter, page domain.PaginationParams, sort domain.SortParams) ([]*domain.Customer, int, error) {
	f.lastFilter, f.lastPage, f.lastSort = filter, page, sort
	return f.listResult, f.listTotal, f.listErr
}

func (f *fakeCustomerService) Delete(ctx context.Context, id string) error {
	f.lastID = id
	return f.deleteErr
}

// fakeRewardService implements domain.RewardService for handler tests.
type fakeRewardService struct {
	createResult *domain.Reward
	createErr    error
	listResult   []*domain.Reward
	listTotal    int
	setResult    *domain.Reward
	setErr       error
	sum          decimal.Decimal
	sumErr       error
	lastInput    domain.RewardInput
	lastFilter   domain.RewardFilter
	lastID       string
	lastStatus   string
}

func (f *fakeRewardService) CreateManual(ctx context.Context, in domain.RewardInput) (*domain.Reward, error) {
	f.lastInput = in
	return f.createResult, f.createErr
}

func (f *fakeRewardService) List(ctx context.Context, filter domain.RewardFilter, page domain.PaginationParams) ([]*domain.Reward, int, error) {
	f.lastFilter = filter
	return f.listResult, f.listTotal, nil
}

func (f *fakeRewardService) SetStatus(ctx context.Context, id, status string) (*domain.Reward, error) {
	f.lastID, f.lastStatus = id, status
	return f.setResult, f.setErr
}

func (f *fakeRewardService) SumBy(ctx context.Context, customerID, status string) (decimal.Decimal, error) {
	f.lastID, f.lastStatus = customerID, status
	return f.sum, f.sumErr
}

// fakeImportService implements domain.ImportService for handler tests.
type fakeImportService struct {
	result   *domain.ImportResult
	err      error
	lastRows []domain.ImportRow
}

func (f *fakeImportService) Reconcile(ctx context.Context, rows []domain.ImportRow) (*domain.ImportResult, error) {
	f.lastRows = rows
	return f.result, f.err
}

// fakeReferralService implements domain.ReferralService for handler tests.
type fakeReferralService struct {
	createResult *domain.Referral
	createErr    error
	getResult    *domain.Referral
	getErr       error
	listResult   []*domain.Referral
	listTotal    int
	lastInput    domain.ReferralInput
	lastFilter   domain.ReferralFilter
	lastSort     domain.SortParams
}

func (f *fakeReferralService) Create(ctx context.Context, in domain.ReferralInput) (*domain.Referral, error) {
	f.lastInput = in
	return f.createResult, f.createErr
}

func (f *fakeReferralService) Get(ctx context.Context, id string) (*domain.Referral, error) {
	return f.getResult, f.getErr
}

func (f *fakeReferralService) List(ctx context.Context, filter domain.ReferralFilter, page domain.PaginationParams, sort domain.SortParams) ([]*domain.Referral, int, error) {
	f.lastFilter, f.lastSort = filter, sort
	return f.listResult, f.listTotal, nil
}

// fakeTransitionService implements domain.TransitionService for handler tests.
type fakeTransitionService struct {
	oneResult  *domain.Referral
	oneErr     error
	bulkCount  int
	bulkErr    error
	lastID     string
	lastIDs    []string
	lastStatus string
}

func (f *fakeTransitionService) TransitionOne(ctx context.Context, id, status string) (*domain.Referral, error) {
	f.lastID, f.lastStatus = id, status
	return f.oneResult, f.oneErr
}

func (f *fakeTransitionService) TransitionBulk(ctx context.Context, ids []string, status string) (int, error) {
	f.lastIDs, f.lastStatus = ids, status
	return f.bulkCount, f.bulkErr
}
