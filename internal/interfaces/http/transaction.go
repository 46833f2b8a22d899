package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"txaudit/internal/domain/transaction"
	"txaudit/internal/shared/apperr"
	"txaudit/internal/shared/logger"
	"txaudit/internal/shared/middleware"
)

type TransactionHandler struct {
	service *transaction.Service
	writer  *transaction.Writer
}

func NewTransactionHandler(service *transaction.Service, writer *transaction.Writer) *TransactionHandler {
	return &TransactionHandler{service: service, writer: writer}
}

// CreateTransactionRequest is the client payload for a new transaction.
// Server-assigned fields (id, createdAt, createdById) are not accepted.
type CreateTransactionRequest struct {
	TransactionType      string          `json:"transactionType"`
	Amount               decimal.Decimal `json:"amount"`
	Currency             string          `json:"currency"`
	AccountID            string          `json:"accountId"`
	TransactionTimestamp string          `json:"transactionTimestamp"`
	Description          *string         `json:"description"`
	SourceSystem         *string         `json:"sourceSystem"`
}

type CreateTransactionResponse struct {
	TransactionID int64 `json:"transactionId"`
}

// HandleTransactions lists (GET) or records (POST) transactions.
func (h *TransactionHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (h *TransactionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthenticated("authentication required"))
		return
	}

	query := r.URL.Query()
	filters, err := transaction.NormalizeFilters(query)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := transaction.NormalizePage(query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.service.ListTransactions(r.Context(), filters, page, caller)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TransactionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthenticated("authentication required"))
		return
	}
	if !caller.IsTransactor() {
		writeError(w, r, apperr.Forbidden("only transactors may record transactions"))
		return
	}

	var req CreateTransactionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, apperr.Validation("body", "invalid JSON"))
		return
	}

	tx, err := h.writer.CreateTransaction(r.Context(), transaction.CreateInput{
		TransactionType:      req.TransactionType,
		Amount:               req.Amount,
		Currency:             req.Currency,
		AccountID:            req.AccountID,
		TransactionTimestamp: req.TransactionTimestamp,
		Description:          req.Description,
		SourceSystem:         req.SourceSystem,
	}, caller.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log := logger.FromContext(r.Context())
	log.Info().
		Int64("transaction_id", tx.ID).
		Int64("created_by_id", tx.CreatedByID).
		Str("account_id", tx.AccountID).
		Msg("transaction recorded")

	w.Header().Set("Location", "/api/transactions/"+strconv.FormatInt(tx.ID, 10))
	writeJSON(w, http.StatusCreated, CreateTransactionResponse{TransactionID: tx.ID})
}

// HandleGetTransaction returns one transaction the caller may see.
func (h *TransactionHandler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeError(w, r, apperr.Unauthenticated("authentication required"))
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, apperr.Validation("id", "must be a positive integer"))
		return
	}

	tx, err := h.service.GetTransaction(r.Context(), id, caller)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tx)
}
