package controllers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"referralrewards/internal/delivery/http/helpers"
	"referralrewards/internal/domain"
)

func newTestReferralController(refs *fakeReferralService, transitions *fakeTransitionService, customers *fakeCustomerService) *ReferralController {
	return NewReferralController(testLogger, refs, transitions, customers)
}

func TestReferralController_CreateReferral(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		fakeErr    error
		wantStatus int
		wantCode   string
	}{
		{name: "success", body: `{"referrer_code":"alice001","new_customer_email":"new@example.com","booking_reference":"BK-1"}`, wantStatus: http.StatusCreated},
		{name: "missing code", body: `{"new_customer_email":"new@example.com"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "unknown referrer", body: `{"referrer_code":"NOBODY00","new_customer_email":"new@example.com"}`, fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotFound},
		{name: "duplicate", body: `{"referrer_code":"ALICE001","new_customer_email":"new@example.com"}`, fakeErr: domain.ErrDuplicateReferral, wantStatus: http.StatusConflict, wantCode: helpers.ErrCodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := &fakeReferralService{
				createResult: &domain.Referral{ID: testReferralID, Status: domain.StatusPending, NewCustomerEmail: "new@example.com"},
				createErr:    tt.fakeErr,
			}
			ctrl := newTestReferralController(refs, &fakeTransitionService{}, &fakeCustomerService{})
			req := httptest.NewRequest(http.MethodPost, "/referrals", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()

			ctrl.CreateReferral(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			var ref domain.Referral
			envelope := decodeEnvelope(t, rr, &ref)
			if tt.wantCode != "" {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
				return
			}
			assert.Equal(t, domain.StatusPending, ref.Status)
			assert.Equal(t, "alice001", refs.lastInput.ReferrerCode)
			assert.Equal(t, "BK-1", refs.lastInput.BookingReference)
		})
	}
}

func TestReferralController_ListReferrals(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		check      func(t *testing.T, f domain.ReferralFilter)
	}{
		{
			name:       "status and date range",
			query:      "?status=pending&date_from=2025-01-01&date_to=2025-01-31",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, f domain.ReferralFilter) {
				assert.Equal(t, domain.StatusPending, f.Status)
				require.NotNil(t, f.DateFrom)
				require.NotNil(t, f.DateTo)
				assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *f.DateFrom)
				assert.Equal(t, 31, f.DateTo.Day())
				assert.Equal(t, 23, f.DateTo.Hour())
			},
		},
		{
			name:       "rfc3339 date",
			query:      "?date_from=2025-01-01T10:00:00Z",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, f domain.ReferralFilter) {
				assert.Equal(t, 10, f.DateFrom.Hour())
				assert.Nil(t, f.DateTo)
			},
		},
		{name: "invalid status", query: "?status=done", wantStatus: http.StatusBadRequest},
		{name: "invalid date", query: "?date_from=yesterday", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := &fakeReferralService{listResult: []*domain.Referral{{ID: testReferralID}}, listTotal: 1}
			ctrl := newTestReferralController(refs, &fakeTransitionService{}, &fakeCustomerService{})
			req := httptest.NewRequest(http.MethodGet, "/referrals"+tt.query, nil)
			rr := httptest.NewRecorder()

			ctrl.ListReferrals(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.check != nil {
				var data helpers.ListResponse[domain.Referral]
				decodeEnvelope(t, rr, &data)
				require.Len(t, data.Items, 1)
				tt.check(t, refs.lastFilter)
			}
		})
	}
}

func TestReferralController_LookupReferrer(t *testing.T) {
	customers := &fakeCustomerService{getResult: &domain.Customer{ID: testCustomerID, Name: "Alice", Email: "alice@example.com", ReferralCode: "ALICE001"}}
	ctrl := newTestReferralController(&fakeReferralService{}, &fakeTransitionService{}, customers)
	req := httptest.NewRequest(http.MethodGet, "/referrals/lookup/alice001", nil)
	req.SetPathValue("code", "alice001")
	rr := httptest.NewRecorder()

	ctrl.LookupReferrer(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var data ReferrerLookupResponse
	decodeEnvelope(t, rr, &data)
	assert.Equal(t, "ALICE001", data.ReferralCode)
	assert.Equal(t, "alice001", customers.lastCode)
	assert.NotContains(t, rr.Body.String(), "alice@example.com", "lookup must not expose the referrer's email")

	customers.lookupErr = domain.ErrNotFound
	rr = httptest.NewRecorder()
	ctrl.LookupReferrer(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestReferralController_UpdateReferralStatus(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		body       string
		fakeErr    error
		wantStatus int
	}{
		{name: "approve", id: testReferralID, body: `{"status":"approved"}`, wantStatus: http.StatusOK},
		{name: "malformed id", id: "abc", body: `{"status":"approved"}`, wantStatus: http.StatusBadRequest},
		{name: "missing status", id: testReferralID, body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "invalid status", id: testReferralID, body: `{"status":"done"}`, fakeErr: domain.ErrInvalidStatus, wantStatus: http.StatusBadRequest},
		{name: "disallowed transition", id: testReferralID, body: `{"status":"pending"}`, fakeErr: domain.ErrInvalidTransition, wantStatus: http.StatusConflict},
		{name: "not found", id: testReferralID, body: `{"status":"approved"}`, fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound},
		{
			name:       "transaction failure",
			id:         testReferralID,
			body:       `{"status":"approved"}`,
			fakeErr:    &domain.TransactionError{Op: "approve referral", Err: errors.New("insert reward")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transitions := &fakeTransitionService{oneResult: &domain.Referral{ID: testReferralID, Status: domain.StatusApproved}, oneErr: tt.fakeErr}
			ctrl := newTestReferralController(&fakeReferralService{}, transitions, &fakeCustomerService{})
			req := httptest.NewRequest(http.MethodPut, "/referrals/"+tt.id+"/status", bytes.NewBufferString(tt.body))
			req.SetPathValue("id", tt.id)
			rr := httptest.NewRecorder()

			ctrl.UpdateReferralStatus(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, testReferralID, transitions.lastID)
				assert.Equal(t, "approved", transitions.lastStatus)
			}
		})
	}
}

func TestReferralController_BulkUpdateStatus(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		fakeErr     error
		wantStatus  int
		wantUpdated int
	}{
		{
			name:        "success",
			body:        `{"referral_ids":["` + testReferralID + `","` + testCustomerID + `"],"status":"approved"}`,
			wantStatus:  http.StatusOK,
			wantUpdated: 2,
		},
		{name: "empty ids", body: `{"referral_ids":[],"status":"approved"}`, wantStatus: http.StatusBadRequest},
		{name: "malformed id", body: `{"referral_ids":["nope"],"status":"approved"}`, wantStatus: http.StatusBadRequest},
		{
			name:       "rolled back",
			body:       `{"referral_ids":["` + testReferralID + `"],"status":"approved"}`,
			fakeErr:    &domain.TransactionError{Op: "bulk approve", Err: errors.New("insert reward")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transitions := &fakeTransitionService{bulkCount: 2, bulkErr: tt.fakeErr}
			ctrl := newTestReferralController(&fakeReferralService{}, transitions, &fakeCustomerService{})
			req := httptest.NewRequest(http.MethodPost, "/referrals/bulk-update", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()

			ctrl.BulkUpdateStatus(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				var data BulkUpdateResponse
				decodeEnvelope(t, rr, &data)
				assert.Equal(t, tt.wantUpdated, data.Updated)
				assert.Len(t, transitions.lastIDs, 2)
			}
		})
	}
}
