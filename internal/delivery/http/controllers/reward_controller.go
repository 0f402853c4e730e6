package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"referralrewards/internal/delivery/http/helpers"
	"referralrewards/internal/domain"
)

// CreateRewardRequest is the request body for POST /rewards. Amount accepts a
// JSON number or string.
type CreateRewardRequest struct {
	CustomerID  string          `json:"customer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
}

func (c CreateRewardRequest) Validate() []string {
	var errs []string
	if _, err := uuid.Parse(c.CustomerID); err != nil {
		errs = append(errs, "customer_id must be a UUID")
	}
	if strings.TrimSpace(c.Type) == "" {
		errs = append(errs, "type is required")
	}
	return errs
}

type RewardController struct {
	Logger  *slog.Logger
	Service domain.RewardService
}

func NewRewardController(logger *slog.Logger, svc domain.RewardService) *RewardController {
	return &RewardController{Logger: logger, Service: svc}
}

// CreateReward handles POST /rewards. Manual rewards start pending.
func (c *RewardController) CreateReward(w http.ResponseWriter, r *http.Request) {
	var req CreateRewardRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	rw, err := c.Service.CreateManual(r.Context(), domain.RewardInput{
		CustomerID:  req.CustomerID,
		Amount:      req.Amount,
		Type:        req.Type,
		Description: req.Description,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, rw)
}

// ListRewards handles GET /rewards?status=&type=&customer_id=&page=&page_size=.
func (c *RewardController) ListRewards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.RewardFilter
	if s := q.Get("status"); s != "" {
		status, err := domain.ParseStatus(s)
		if err != nil {
			helpers.WriteServiceError(w, r, c.Logger, err)
			return
		}
		filter.Status = status
	}
	if s := q.Get("type"); s != "" {
		t, err := domain.ParseRewardType(s)
		if err != nil {
			helpers.WriteServiceError(w, r, c.Logger, err)
			return
		}
		filter.Type = t
	}
	if s := q.Get("customer_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "customer_id must be a UUID")
			return
		}
		filter.CustomerID = id.String()
	}

	params := helpers.ParsePagination(r)
	rewards, total, err := c.Service.List(r.Context(), filter, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewListResponse(rewards, params, total))
}

// UpdateRewardStatus handles PUT /rewards/{id}/status.
func (c *RewardController) UpdateRewardStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	rw, err := c.Service.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rw)
}
