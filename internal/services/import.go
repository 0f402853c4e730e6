package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"referralrewards/internal/domain"
	"referralrewards/internal/metrics"
)

const (
	DefaultImportBatchSize = 100
	maxReportedFailures    = 5
)

type importService struct {
	customerRepo domain.CustomerRepository
	codes        domain.CodeGenerator
	batchSize    int
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewImportService creates the customer import reconciler. A non-positive
// batchSize falls back to DefaultImportBatchSize.
func NewImportService(
	customerRepo domain.CustomerRepository,
	codes domain.CodeGenerator,
	batchSize int,
	m *metrics.Metrics,
	logger *slog.Logger,
) domain.ImportService {
	if batchSize <= 0 {
		batchSize = DefaultImportBatchSize
	}
	return &importService{
		customerRepo: customerRepo,
		codes:        codes,
		batchSize:    batchSize,
		metrics:      m,
		logger:       logger,
	}
}

// Reconcile validates every row first and inserts nothing if any row is
// invalid. Otherwise rows are inserted batch by batch; rows that collide with
// an existing customer are skipped, other failures are collected.
func (s *importService) Reconcile(ctx context.Context, rows []domain.ImportRow) (*domain.ImportResult, error) {
	if len(rows) == 0 {
		return nil, domain.NewValidationError("rows", "no rows to import")
	}

	result := &domain.ImportResult{
		TotalRows: len(rows),
		Errors:    []domain.ImportRowError{},
		Failures:  []domain.ImportFailure{},
	}

	valid := make([]domain.CustomerInput, 0, len(rows))
	for i, row := range rows {
		in := domain.CustomerInput{ExternalID: row.ExternalID, Name: row.Name, Email: row.Email}
		in.Normalize()
		if err := in.Validate(); err != nil {
			rowErr := domain.ImportRowError{Row: i + 1, Message: err.Error(), Data: in}
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				rowErr.Field = verr.Field
				rowErr.Message = verr.Message
			}
			result.Errors = append(result.Errors, rowErr)
			continue
		}
		valid = append(valid, in)
	}

	if result.Rejected() {
		s.metrics.ImportRows(metrics.OutcomeRejected, len(rows))
		s.logger.WarnContext(ctx, "customer import rejected", "total_rows", len(rows), "invalid_rows", len(result.Errors))
		return result, nil
	}

	// Once validation passes the import runs to completion even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	for from := 0; from < len(valid); from += s.batchSize {
		to := min(from+s.batchSize, len(valid))
		for _, in := range valid[from:to] {
			s.importOne(ctx, in, result)
		}
		s.logger.DebugContext(ctx, "customer import batch done", "from", from+1, "to", to, "imported", result.Imported)
	}

	s.metrics.ImportRows(metrics.OutcomeImported, result.Imported)
	s.metrics.ImportRows(metrics.OutcomeSkipped, result.Skipped)
	s.metrics.ImportRows(metrics.OutcomeFailed, result.TotalFailures)
	s.logger.InfoContext(ctx, "customer import finished",
		"total_rows", result.TotalRows,
		"imported", result.Imported,
		"skipped", result.Skipped,
		"failed", result.TotalFailures,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (s *importService) importOne(ctx context.Context, in domain.CustomerInput, result *domain.ImportResult) {
	code, err := s.codes.GenerateUniqueCode(ctx)
	if err != nil {
		s.recordFailure(result, in.Email, err)
		return
	}
	c := domain.NewCustomer(in, code, time.Now().UTC())
	if err := s.customerRepo.Create(ctx, c); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			result.Skipped++
			return
		}
		s.recordFailure(result, in.Email, err)
		return
	}
	result.Imported++
}

func (s *importService) recordFailure(result *domain.ImportResult, email string, err error) {
	result.TotalFailures++
	if len(result.Failures) < maxReportedFailures {
		result.Failures = append(result.Failures, domain.ImportFailure{Email: email, Error: err.Error()})
	}
}
