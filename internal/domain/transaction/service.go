package transaction

import (
	"context"

	"txaudit/internal/domain/user"
	"txaudit/internal/shared/apperr"
)

// DefaultReportBatchSize is the number of rows fetched per round trip while
// building a report.
const DefaultReportBatchSize = 500

// Service answers listing, lookup and report queries.
type Service struct {
	repo      Repository
	batchSize int
}

// NewService creates a new transaction query service. A non-positive
// batchSize selects DefaultReportBatchSize.
func NewService(repo Repository, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = DefaultReportBatchSize
	}
	return &Service{repo: repo, batchSize: batchSize}
}

// ListTransactions returns one page of the rows caller may see that match f,
// together with the total number of such rows. Visibility narrows the result
// instead of failing, so this never returns an authorization error.
//
// The count and the page are two separate reads. A row committed between them
// can make TotalCount disagree with the page by that row.
func (s *Service) ListTransactions(ctx context.Context, f Filters, page Page, caller user.Caller) (*ListResult, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	q := Compose(caller, f, page)

	total, err := s.repo.Count(ctx, q.Predicate)
	if err != nil {
		return nil, apperr.Storage("count transactions", err)
	}

	result := &ListResult{Data: []*Transaction{}, TotalCount: total}
	if total == 0 {
		return result, nil
	}

	rows, err := s.repo.Find(ctx, q.Predicate, q.Window)
	if err != nil {
		return nil, apperr.Storage("find transactions", err)
	}
	if rows != nil {
		result.Data = rows
	}

	return result, nil
}

// GetTransaction returns a single transaction if caller may see it. Rows
// outside the caller's visibility are reported as not found.
func (s *Service) GetTransaction(ctx context.Context, id int64, caller user.Caller) (*Transaction, error) {
	q := ComposeLookup(caller, id)

	rows, err := s.repo.Find(ctx, q.Predicate, q.Window)
	if err != nil {
		return nil, apperr.Storage("get transaction", err)
	}
	if len(rows) == 0 {
		return nil, apperr.NotFound("transaction not found")
	}
	return rows[0], nil
}

// GenerateReport returns every row matching f. Only auditors may run reports;
// the role is checked before the store is touched.
func (s *Service) GenerateReport(ctx context.Context, f Filters, caller user.Caller) ([]*Transaction, error) {
	report := []*Transaction{}
	err := s.StreamReport(ctx, f, caller, func(batch []*Transaction) error {
		report = append(report, batch...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// StreamReport is GenerateReport delivered batch by batch. Errors returned
// by fn abort the report and are returned as-is.
func (s *Service) StreamReport(ctx context.Context, f Filters, caller user.Caller, fn func(batch []*Transaction) error) error {
	if !caller.IsAuditor() {
		return apperr.Forbidden("reports are available to auditors only")
	}

	q := ComposeReport(caller, f)

	var fnErr error
	err := s.repo.Scan(ctx, q.Predicate, s.batchSize, func(batch []*Transaction) error {
		if err := fn(batch); err != nil {
			fnErr = err
			return err
		}
		return nil
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return apperr.Storage("scan report", err)
	}
	return nil
}
