package transaction

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits an amount may carry. Storage
// keeps amounts as integers of 10^-AmountScale units.
const AmountScale = 4

// MaxAmount is the largest amount whose minor units fit in an int64.
var MaxAmount = decimal.New(math.MaxInt64, -AmountScale)

// Transaction is an append-only ledger entry.
type Transaction struct {
	ID                   int64           `json:"id"`
	TransactionType      string          `json:"transactionType"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	AccountID            string          `json:"accountId"`
	TransactionTimestamp time.Time       `json:"transactionTimestamp"`
	Description          *string         `json:"description"`
	SourceSystem         *string         `json:"sourceSystem"`
	CreatedAt            time.Time       `json:"createdAt"`
	CreatedByID          int64           `json:"createdById"`
}

// CreateInput is the client-supplied part of a new transaction. It carries no
// id, creation time or creator; those are assigned server-side.
type CreateInput struct {
	TransactionType      string
	Amount               decimal.Decimal
	Currency             string
	AccountID            string
	TransactionTimestamp string
	Description          *string
	SourceSystem         *string
}

// CreateParams is a validated row ready for insertion.
type CreateParams struct {
	TransactionType      string
	Amount               decimal.Decimal
	Currency             string
	AccountID            string
	TransactionTimestamp time.Time
	Description          *string
	SourceSystem         *string
	CreatedAt            time.Time
	CreatedByID          int64
}

// ListResult is one page of a listing plus the size of the whole match set.
type ListResult struct {
	Data       []*Transaction `json:"data"`
	TotalCount int64          `json:"totalCount"`
}
