package transaction

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"txaudit/internal/shared/apperr"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Query parameter names accepted by NormalizeFilters and NormalizePage.
const (
	ParamTransactionType = "transactionType"
	ParamAccountID       = "accountId"
	ParamStartDate       = "startDate"
	ParamEndDate         = "endDate"
	ParamMinAmount       = "minAmount"
	ParamMaxAmount       = "maxAmount"
	ParamKeyword         = "keyword"
	ParamCreatedByID     = "createdById"
	ParamPage            = "page"
	ParamPageSize        = "pageSize"
)

const dateLayout = "2006-01-02"

// Filters is the canonical, typed filter set. Nil or empty fields impose no
// constraint; set fields combine with AND.
type Filters struct {
	TransactionType string
	AccountID       string
	// StartDate and EndDate are inclusive bounds on TransactionTimestamp.
	StartDate   *time.Time
	EndDate     *time.Time
	MinAmount   *decimal.Decimal
	MaxAmount   *decimal.Decimal
	Keyword     string
	CreatedByID *int64
}

// Page is a validated 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// FirstPage is page 1 at the default size.
func FirstPage() Page {
	return Page{Number: 1, Size: DefaultPageSize}
}

// NormalizeFilters coerces raw query parameters into Filters. Empty values
// and unknown keys are ignored. No cross-field checks are made: a start date
// after the end date is a valid filter that matches nothing.
func NormalizeFilters(values url.Values) (Filters, error) {
	var f Filters

	f.TransactionType = param(values, ParamTransactionType)
	f.AccountID = param(values, ParamAccountID)
	f.Keyword = param(values, ParamKeyword)

	if raw := param(values, ParamStartDate); raw != "" {
		start, _, err := parseDate(raw)
		if err != nil {
			return Filters{}, apperr.Validation(ParamStartDate, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		}
		f.StartDate = &start
	}

	if raw := param(values, ParamEndDate); raw != "" {
		end, dateOnly, err := parseDate(raw)
		if err != nil {
			return Filters{}, apperr.Validation(ParamEndDate, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
		}
		if dateOnly {
			// A bare date covers the whole day.
			end = end.Add(24*time.Hour - time.Microsecond)
		}
		f.EndDate = &end
	}

	var err error
	if f.MinAmount, err = parseAmount(values, ParamMinAmount); err != nil {
		return Filters{}, err
	}
	if f.MaxAmount, err = parseAmount(values, ParamMaxAmount); err != nil {
		return Filters{}, err
	}

	if raw := param(values, ParamCreatedByID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Filters{}, apperr.Validation(ParamCreatedByID, "must be an integer")
		}
		f.CreatedByID = &id
	}

	return f, nil
}

// NormalizePage validates page and pageSize, applying defaults when absent.
func NormalizePage(values url.Values) (Page, error) {
	p := FirstPage()

	if raw := param(values, ParamPage); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Page{}, apperr.Validation(ParamPage, "must be an integer")
		}
		p.Number = n
	}
	if raw := param(values, ParamPageSize); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Page{}, apperr.Validation(ParamPageSize, "must be an integer")
		}
		p.Size = n
	}

	if err := p.Validate(); err != nil {
		return Page{}, err
	}
	return p, nil
}

// Validate checks the bounds of an already-typed page.
func (p Page) Validate() error {
	if p.Number <= 0 {
		return apperr.Validation(ParamPage, "must be at least 1")
	}
	if p.Size <= 0 || p.Size > MaxPageSize {
		return apperr.Validationf(ParamPageSize, "must be between 1 and %d", MaxPageSize)
	}
	return nil
}

func param(values url.Values, key string) string {
	return strings.TrimSpace(values.Get(key))
}

func parseAmount(values url.Values, key string) (*decimal.Decimal, error) {
	raw := param(values, key)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperr.Validation(key, "must be a number")
	}
	return &d, nil
}

// parseDate accepts a calendar date or an RFC 3339 timestamp. dateOnly
// reports which form matched. Results are in UTC.
func parseDate(raw string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(dateLayout, raw); err == nil {
		return t.UTC(), true, nil
	}
	if t, err = time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), false, nil
	}
	return time.Time{}, false, err
}
