package controllers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"referralrewards/internal/delivery/http/helpers"
	"referralrewards/internal/domain"
)

// maxImportBytes caps an import body, JSON or CSV.
const maxImportBytes = 10 << 20

// CreateCustomerRequest is the request body for POST /customers.
type CreateCustomerRequest struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

// Validate implements Validator. Only presence is checked here; format rules live in the domain.
func (c CreateCustomerRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.ExternalID) == "" {
		errs = append(errs, "external_id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		errs = append(errs, "email is required")
	}
	return errs
}

// ImportCustomersRequest is the JSON body for POST /customers/import.
type ImportCustomersRequest struct {
	Rows []domain.ImportRow `json:"rows"`
}

// RewardSummaryResponse is the body for GET /customers/{id}/rewards/summary.
type RewardSummaryResponse struct {
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
	Total      string `json:"total"`
}

type CustomerController struct {
	Logger   *slog.Logger
	Service  domain.CustomerService
	Rewards  domain.RewardService
	Importer domain.ImportService
}

func NewCustomerController(logger *slog.Logger, svc domain.CustomerService, rewards domain.RewardService, importer domain.ImportService) *CustomerController {
	return &CustomerController{
		Logger:   logger,
		Service:  svc,
		Rewards:  rewards,
		Importer: importer,
	}
}

// CreateCustomer handles POST /customers. The referral code is server-generated.
func (c *CustomerController) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	customer, err := c.Service.Create(r.Context(), domain.CustomerInput{
		ExternalID: req.ExternalID,
		Name:       req.Name,
		Email:      req.Email,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, customer)
}

// ListCustomers handles GET /customers?search=&sort_by=&sort_order=&page=&page_size=.
func (c *CustomerController) ListCustomers(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	filter := domain.CustomerFilter{Search: strings.TrimSpace(r.URL.Query().Get("search"))}
	customers, total, err := c.Service.List(r.Context(), filter, params, helpers.ParseSort(r))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewListResponse(customers, params, total))
}

// GetCustomer handles GET /customers/{id}.
func (c *CustomerController) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	customer, err := c.Service.GetByID(r.Context(), id)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, customer)
}

// DeleteCustomer handles DELETE /customers/{id}. Referrals and rewards go with it.
func (c *CustomerController) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), id); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// RewardSummary handles GET /customers/{id}/rewards/summary?status=paid.
func (c *CustomerController) RewardSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(domain.StatusPaid)
	}
	if _, err := c.Service.GetByID(r.Context(), id); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	total, err := c.Rewards.SumBy(r.Context(), id, status)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RewardSummaryResponse{
		CustomerID: id,
		Status:     strings.ToLower(strings.TrimSpace(status)),
		Total:      total.StringFixed(2),
	})
}

// ImportCustomers handles POST /customers/import. The body is either JSON
// {"rows":[...]} or text/csv with a header row naming external_id, name and email.
// A rejected import answers 400 with the per-row report as data.
func (c *CustomerController) ImportCustomers(w http.ResponseWriter, r *http.Request) {
	var rows []domain.ImportRow
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/csv" {
		parsed, err := parseImportCSV(http.MaxBytesReader(w, r.Body, maxImportBytes))
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		rows = parsed
	} else {
		var req ImportCustomersRequest
		if !helpers.DecodeAndValidate(w, r, &req) {
			return
		}
		rows = req.Rows
	}

	result, err := c.Importer.Reconcile(r.Context(), rows)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if result.Rejected() {
		helpers.WriteJSON(w, http.StatusBadRequest, helpers.APIResponse{
			Data: result,
			Error: &helpers.APIError{
				Code:    helpers.ErrCodeValidationFailed,
				Message: fmt.Sprintf("%d of %d rows failed validation; nothing was imported", len(result.Errors), result.TotalRows),
			},
		})
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// parseImportCSV maps CSV records to import rows by header name. Column order
// is free and unknown columns are ignored.
func parseImportCSV(body io.Reader) ([]domain.ImportRow, error) {
	reader := csv.NewReader(body)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv body is empty")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := map[string]int{}
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}
	for _, required := range []string{"external_id", "name", "email"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("csv header is missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		if i := index[name]; i < len(record) {
			return record[i]
		}
		return ""
	}
	var rows []domain.ImportRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, domain.ImportRow{
			ExternalID: field(record, "external_id"),
			Name:       field(record, "name"),
			Email:      field(record, "email"),
		})
	}
	return rows, nil
}

// pathUUID reads a path parameter that must be a UUID. On failure it writes a
// 400 and returns false.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := r.PathValue(name)
	if raw == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid "+name+": must be a UUID")
		return "", false
	}
	return id.String(), true
}
