package api

import (
	"net/http"
	"time"

	"github.com/cryptofolio/api/internal/models"
)

type createTransactionRequest struct {
	UserID              string    `json:"userId" validate:"required"`
	TransactionType     string    `json:"transactionType" validate:"required,oneof=buy sell deposit withdraw"`
	StartCurrencyName   string    `json:"startCurrencyName" validate:"required"`
	StartCurrencyAmount *float64  `json:"startCurrencyAmount" validate:"required,gte=0"`
	StartCurrencyType   string    `json:"startCurrencyType" validate:"required,oneof=fiat crypto"`
	EndCurrencyName     string    `json:"endCurrencyName" validate:"required"`
	EndCurrencyAmount   *float64  `json:"endCurrencyAmount" validate:"required,gte=0"`
	EndCurrencyType     string    `json:"endCurrencyType" validate:"required,oneof=fiat crypto"`
	TimestampUTC        time.Time `json:"timestampUtc" validate:"required"`
}

// CreateTransaction appends an entry to the caller's ledger.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.ensureSameUser(r, req.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.validateStruct(req); err != nil {
		h.writeError(w, err)
		return
	}

	tx, err := h.DB.CreateTransaction(r.Context(), &models.Transaction{
		UserID:              req.UserID,
		TransactionType:     req.TransactionType,
		StartCurrencyName:   req.StartCurrencyName,
		StartCurrencyAmount: *req.StartCurrencyAmount,
		StartCurrencyType:   req.StartCurrencyType,
		EndCurrencyName:     req.EndCurrencyName,
		EndCurrencyAmount:   *req.EndCurrencyAmount,
		EndCurrencyType:     req.EndCurrencyType,
		TimestampUTC:        req.TimestampUTC,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"transaction": tx})
}

// ListTransactions returns the caller's ledger.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, err := listOwner(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	transactions, err := h.DB.FindTransactions(r.Context(), owner)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}

// GetTransaction returns one ledger entry.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	tx, err := h.DB.GetTransaction(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.ensureSameUser(r, tx.UserID); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"transaction": tx})
}
