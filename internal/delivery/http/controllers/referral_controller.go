package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"referralrewards/internal/delivery/http/helpers"
	"referralrewards/internal/domain"
)

// maxBulkIDs bounds a single bulk status update.
const maxBulkIDs = 500

// CreateReferralRequest is the request body for POST /referrals.
type CreateReferralRequest struct {
	ReferrerCode     string `json:"referrer_code"`
	NewCustomerEmail string `json:"new_customer_email"`
	BookingReference string `json:"booking_reference"`
}

func (c CreateReferralRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.ReferrerCode) == "" {
		errs = append(errs, "referrer_code is required")
	}
	if strings.TrimSpace(c.NewCustomerEmail) == "" {
		errs = append(errs, "new_customer_email is required")
	}
	return errs
}

// UpdateStatusRequest is the request body for PUT /referrals/{id}/status and PUT /rewards/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (u UpdateStatusRequest) Validate() []string {
	if strings.TrimSpace(u.Status) == "" {
		return []string{"status is required"}
	}
	return nil
}

// BulkUpdateRequest is the request body for POST /referrals/bulk-update.
type BulkUpdateRequest struct {
	ReferralIDs []string `json:"referral_ids"`
	Status      string   `json:"status"`
}

// Validate implements Validator. Every id must be a UUID.
func (b BulkUpdateRequest) Validate() []string {
	var errs []string
	switch {
	case len(b.ReferralIDs) == 0:
		errs = append(errs, "referral_ids must not be empty")
	case len(b.ReferralIDs) > maxBulkIDs:
		errs = append(errs, "referral_ids must contain at most 500 ids")
	}
	for _, id := range b.ReferralIDs {
		if _, err := uuid.Parse(id); err != nil {
			errs = append(errs, "referral_ids contains an invalid id: "+id)
			break
		}
	}
	if strings.TrimSpace(b.Status) == "" {
		errs = append(errs, "status is required")
	}
	return errs
}

// BulkUpdateResponse is the body for POST /referrals/bulk-update.
type BulkUpdateResponse struct {
	Updated int `json:"updated"`
}

// ReferrerLookupResponse is the body for GET /referrals/lookup/{code}.
type ReferrerLookupResponse struct {
	ReferrerID   string `json:"referrer_id"`
	Name         string `json:"name"`
	ReferralCode string `json:"referral_code"`
}

type ReferralController struct {
	Logger      *slog.Logger
	Service     domain.ReferralService
	Transitions domain.TransitionService
	Customers   domain.CustomerService
}

func NewReferralController(logger *slog.Logger, svc domain.ReferralService, transitions domain.TransitionService, customers domain.CustomerService) *ReferralController {
	return &ReferralController{
		Logger:      logger,
		Service:     svc,
		Transitions: transitions,
		Customers:   customers,
	}
}

// CreateReferral handles POST /referrals. New referrals are always pending.
func (c *ReferralController) CreateReferral(w http.ResponseWriter, r *http.Request) {
	var req CreateReferralRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	ref, err := c.Service.Create(r.Context(), domain.ReferralInput{
		ReferrerCode:     req.ReferrerCode,
		NewCustomerEmail: req.NewCustomerEmail,
		BookingReference: req.BookingReference,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, ref)
}

// ListReferrals handles GET /referrals?status=&date_from=&date_to=&sort_by=&sort_order=&page=&page_size=.
// Dates are RFC 3339 timestamps or YYYY-MM-DD; a bare date_to covers the whole day.
func (c *ReferralController) ListReferrals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.ReferralFilter
	if s := q.Get("status"); s != "" {
		status, err := domain.ParseStatus(s)
		if err != nil {
			helpers.WriteServiceError(w, r, c.Logger, err)
			return
		}
		filter.Status = status
	}
	var ok bool
	if filter.DateFrom, ok = parseDateParam(w, q.Get("date_from"), "date_from", false); !ok {
		return
	}
	if filter.DateTo, ok = parseDateParam(w, q.Get("date_to"), "date_to", true); !ok {
		return
	}

	params := helpers.ParsePagination(r)
	refs, total, err := c.Service.List(r.Context(), filter, params, helpers.ParseSort(r))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewListResponse(refs, params, total))
}

// GetReferral handles GET /referrals/{id}.
func (c *ReferralController) GetReferral(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	ref, err := c.Service.Get(r.Context(), id)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ref)
}

// LookupReferrer handles GET /referrals/lookup/{code}. The code is matched case-insensitively.
func (c *ReferralController) LookupReferrer(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing code")
		return
	}
	customer, err := c.Customers.LookupByCode(r.Context(), code)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ReferrerLookupResponse{
		ReferrerID:   customer.ID,
		Name:         customer.Name,
		ReferralCode: customer.ReferralCode,
	})
}

// UpdateReferralStatus handles PUT /referrals/{id}/status. Approval issues the referrer's reward.
func (c *ReferralController) UpdateReferralStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	ref, err := c.Transitions.TransitionOne(r.Context(), id, req.Status)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ref)
}

// BulkUpdateStatus handles POST /referrals/bulk-update. Ids that are missing or
// not eligible for the requested status are left untouched and not counted.
func (c *ReferralController) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req BulkUpdateRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	n, err := c.Transitions.TransitionBulk(r.Context(), req.ReferralIDs, req.Status)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, BulkUpdateResponse{Updated: n})
}

func parseDateParam(w http.ResponseWriter, raw, name string, endOfDay bool) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, name+" must be YYYY-MM-DD or RFC 3339")
		return nil, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, true
}
