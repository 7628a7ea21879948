package api

import (
	"net/http"

	"github.com/cryptofolio/api/internal/apperr"
	"github.com/cryptofolio/api/internal/models"

	"github.com/go-chi/chi/v5"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type registerUserRequest struct {
	Username           string `json:"username" validate:"required,max=25"`
	Password           string `json:"password" validate:"required,min=5,max=100"`
	Email              string `json:"email" validate:"required,email"`
	NativeFiatCurrency string `json:"nativeFiatCurrency" validate:"required,len=3"`
}

type updateUserRequest struct {
	Password           *string `json:"password" validate:"omitempty,min=5,max=100"`
	Email              *string `json:"email" validate:"omitempty,email"`
	NativeFiatCurrency *string `json:"nativeFiatCurrency" validate:"omitempty,len=3"`
}

// Login verifies credentials and returns a signed token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.validateStruct(req); err != nil {
		h.writeError(w, err)
		return
	}

	token, err := h.Auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// RegisterUser creates an account and returns it with a token for the new
// user. Registration is the one unauthenticated create in the system.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.validateStruct(req); err != nil {
		h.writeError(w, err)
		return
	}

	hash, err := h.Auth.HashPassword(req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.DB.CreateUser(r.Context(), &models.User{
		Username:           req.Username,
		PasswordHash:       hash,
		Email:              req.Email,
		NativeFiatCurrency: req.NativeFiatCurrency,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	token, err := h.Auth.CreateToken(user.Username)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": user, "token": token})
}

// ListUsers returns every account. Admin only; ordinary tokens never carry
// the admin claim, so regular callers always get a 401 here.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	claims, ok := principal(r)
	if !ok || !claims.IsAdmin {
		h.writeError(w, apperr.New(apperr.Unauthorized, "unauthorized"))
		return
	}

	users, err := h.DB.FindAllUsers(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// GetUser returns one profile; callers may only read their own.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := h.ensureSameUser(r, username); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.DB.GetUser(r.Context(), username)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// UpdateUser applies a sparse profile update; a new password is re-hashed
// before it reaches storage.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := h.ensureSameUser(r, username); err != nil {
		h.writeError(w, err)
		return
	}

	var req updateUserRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.validateStruct(req); err != nil {
		h.writeError(w, err)
		return
	}

	updates := map[string]any{}
	if req.Password != nil {
		hash, err := h.Auth.HashPassword(*req.Password)
		if err != nil {
			h.writeError(w, err)
			return
		}
		updates["password"] = hash
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.NativeFiatCurrency != nil {
		updates["nativeFiatCurrency"] = *req.NativeFiatCurrency
	}

	user, err := h.DB.UpdateUser(r.Context(), username, updates)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// DeleteUser removes an account; dependent rows cascade in the database.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := h.ensureSameUser(r, username); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.DB.RemoveUser(r.Context(), username); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"deleted": username})
}
