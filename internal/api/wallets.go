package api

import (
	"net/http"
	"strconv"

	"github.com/cryptofolio/api/internal/apperr"
	"github.com/cryptofolio/api/internal/models"

	"github.com/go-chi/chi/v5"
)

type createWalletRequest struct {
	UserID         string   `json:"userId" validate:"required"`
	CurrencyName   string   `json:"currencyName" validate:"required"`
	CurrencyAmount *float64 `json:"currencyAmount" validate:"required,gte=0"`
	CurrencyType   string   `json:"currencyType" validate:"required,oneof=fiat crypto"`
}

type updateWalletRequest struct {
	CurrencyAmount *float64 `json:"currencyAmount" validate:"omitempty,gte=0"`
}

// urlID parses the {id} route parameter.
func urlID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, apperr.BadRequestf("invalid id: %s", chi.URLParam(r, "id"))
	}
	return id, nil
}

// listOwner resolves the owner filter for list endpoints: the userId query
// parameter when present (which must match the caller), the caller otherwise.
func listOwner(r *http.Request) (string, error) {
	claims, ok := principal(r)
	if !ok {
		return "", apperr.New(apperr.Unauthorized, "unauthorized")
	}
	owner := r.URL.Query().Get("userId")
	if owner == "" {
		return claims.Username, nil
	}
	if owner != claims.Username {
		return "", apperr.New(apperr.Unauthorized, "unauthorized")
	}
	return owner, nil
}

// CreateWallet records a new holding for the caller.
func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req createWalletRequest
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

	wallet, err := h.DB.CreateWallet(r.Context(), &models.Wallet{
		UserID:         req.UserID,
		CurrencyName:   req.CurrencyName,
		CurrencyAmount: *req.CurrencyAmount,
		CurrencyType:   req.CurrencyType,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"wallet": wallet})
}

// ListWallets returns the caller's holdings.
func (h *Handler) ListWallets(w http.ResponseWriter, r *http.Request) {
	owner, err := listOwner(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	wallets, err := h.DB.FindWallets(r.Context(), owner)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"wallets": wallets})
}

// getOwnWallet loads a wallet and checks the caller owns it. The row is
// loaded first so a missing id is a 404 and a foreign one a 401.
func (h *Handler) getOwnWallet(r *http.Request) (*models.Wallet, error) {
	id, err := urlID(r)
	if err != nil {
		return nil, err
	}

	wallet, err := h.DB.GetWallet(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := h.ensureSameUser(r, wallet.UserID); err != nil {
		return nil, err
	}
	return wallet, nil
}

// GetWallet returns one holding.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.getOwnWallet(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"wallet": wallet})
}

// UpdateWallet changes the amount of a holding.
func (h *Handler) UpdateWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.getOwnWallet(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req updateWalletRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.validateStruct(req); err != nil {
		h.writeError(w, err)
		return
	}

	updates := map[string]any{}
	if req.CurrencyAmount != nil {
		updates["currencyAmount"] = *req.CurrencyAmount
	}

	updated, err := h.DB.UpdateWallet(r.Context(), wallet.ID, updates)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"wallet": updated})
}

// DeleteWallet removes a holding.
func (h *Handler) DeleteWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.getOwnWallet(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.DB.RemoveWallet(r.Context(), wallet.ID); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"deleted": wallet.ID})
}
