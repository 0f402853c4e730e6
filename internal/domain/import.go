package domain

import "context"

// ImportRow is one raw customer record from a bulk import source.
type ImportRow struct {
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
}

// ImportRowError reports a row that failed validation. Row is 1-based.
type ImportRowError struct {
	Row     int           `json:"row"`
	Field   string        `json:"field"`
	Message string        `json:"message"`
	Data    CustomerInput `json:"data"`
}

// ImportFailure reports a valid row that could not be inserted.
type ImportFailure struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// ImportResult aggregates the outcome of a reconciliation.
// When Errors is non-empty the import was rejected and nothing was inserted.
type ImportResult struct {
	TotalRows     int              `json:"total_rows"`
	Imported      int              `json:"imported"`
	Skipped       int              `json:"skipped"`
	Errors        []ImportRowError `json:"errors"`
	Failures      []ImportFailure  `json:"failures"`
	TotalFailures int              `json:"total_failures"`
}

// Rejected reports whether the validation gate stopped the import.
func (r *ImportResult) Rejected() bool {
	return len(r.Errors) > 0
}

// ImportService reconciles bulk customer imports.
type ImportService interface {
	Reconcile(ctx context.Context, rows []ImportRow) (*ImportResult, error)
}
