package api

import (
	"net/http"

	"github.com/cryptofolio/api/internal/models"
)

type createWatchlistRequest struct {
	UserID     string `json:"userId" validate:"required"`
	CryptoName string `json:"cryptoName" validate:"required"`
}

// CreateWatchlistEntry adds a watched asset for the caller.
func (h *Handler) CreateWatchlistEntry(w http.ResponseWriter, r *http.Request) {
	var req createWatchlistRequest
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

	entry, err := h.DB.CreateWatchlistEntry(r.Context(), &models.WatchlistEntry{
		UserID:     req.UserID,
		CryptoName: req.CryptoName,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"watchlist": entry})
}

// ListWatchlistEntries returns the caller's watched assets.
func (h *Handler) ListWatchlistEntries(w http.ResponseWriter, r *http.Request) {
	owner, err := listOwner(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	entries, err := h.DB.FindWatchlistEntries(r.Context(), owner)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"watchlists": entries})
}

func (h *Handler) getOwnWatchlistEntry(r *http.Request) (*models.WatchlistEntry, error) {
	id, err := urlID(r)
	if err != nil {
		return nil, err
	}

	entry, err := h.DB.GetWatchlistEntry(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := h.ensureSameUser(r, entry.UserID); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetWatchlistEntry returns one watched asset.
func (h *Handler) GetWatchlistEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.getOwnWatchlistEntry(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"watchlist": entry})
}

// DeleteWatchlistEntry stops watching an asset.
func (h *Handler) DeleteWatchlistEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.getOwnWatchlistEntry(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.DB.RemoveWatchlistEntry(r.Context(), entry.ID); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"deleted": entry.ID})
}
