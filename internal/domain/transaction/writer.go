package transaction

import (
	"context"
	"strings"
	"time"

	"txaudit/internal/shared/apperr"
)

// Writer validates and appends new transactions. Role checks belong to the
// caller; the writer only insists that a creator is named.
type Writer struct {
	repo Repository
	now  func() time.Time
}

// NewWriter creates a writer that stamps CreatedAt from the wall clock.
func NewWriter(repo Repository) *Writer {
	return &Writer{repo: repo, now: time.Now}
}

// WithClock replaces the time source used for CreatedAt.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// CreateTransaction validates in and persists it as created by creatorID.
func (w *Writer) CreateTransaction(ctx context.Context, in CreateInput, creatorID int64) (*Transaction, error) {
	if creatorID <= 0 {
		return nil, apperr.Validation("createdById", "a creator is required")
	}

	params, err := validateCreate(in)
	if err != nil {
		return nil, err
	}
	params.CreatedByID = creatorID
	params.CreatedAt = w.now().UTC()

	tx, err := w.repo.Create(ctx, params)
	if err != nil {
		return nil, apperr.Storage("create transaction", err)
	}
	return tx, nil
}

func validateCreate(in CreateInput) (CreateParams, error) {
	txType := strings.TrimSpace(in.TransactionType)
	if txType == "" {
		return CreateParams{}, apperr.Validation("transactionType", "is required")
	}

	if !in.Amount.IsPositive() {
		return CreateParams{}, apperr.Validation("amount", "must be greater than zero")
	}
	if !in.Amount.Equal(in.Amount.Truncate(AmountScale)) {
		return CreateParams{}, apperr.Validationf("amount", "must have at most %d decimal places", AmountScale)
	}
	if in.Amount.GreaterThan(MaxAmount) {
		return CreateParams{}, apperr.Validationf("amount", "must not exceed %s", MaxAmount)
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if !isCurrencyCode(currency) {
		return CreateParams{}, apperr.Validation("currency", "must be a 3-letter code")
	}

	accountID := strings.TrimSpace(in.AccountID)
	if accountID == "" {
		return CreateParams{}, apperr.Validation("accountId", "is required")
	}

	raw := strings.TrimSpace(in.TransactionTimestamp)
	if raw == "" {
		return CreateParams{}, apperr.Validation("transactionTimestamp", "is required")
	}
	ts, _, err := parseDate(raw)
	if err != nil {
		return CreateParams{}, apperr.Validation("transactionTimestamp", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}

	return CreateParams{
		TransactionType:      txType,
		Amount:               in.Amount,
		Currency:             currency,
		AccountID:            accountID,
		TransactionTimestamp: ts,
		Description:          optionalText(in.Description),
		SourceSystem:         optionalText(in.SourceSystem),
	}, nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
