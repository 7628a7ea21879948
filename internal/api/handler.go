// Package api wires HTTP routes to the storage layer. Every handler follows
// the same shape: authorize, validate the body if there is one, call the
// store, write the result or hand the error to the boundary translator.
package api

import (
	"reflect"
	"strings"

	"github.com/cryptofolio/api/internal/auth"
	"github.com/cryptofolio/api/internal/db"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler contains dependencies for HTTP handlers.
type Handler struct {
	DB       *db.DB
	Auth     *auth.Service
	Log      *zap.Logger
	validate *validator.Validate
}

// NewHandler creates a new handler.
func NewHandler(database *db.DB, authService *auth.Service, log *zap.Logger) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report violations under the field's JSON name.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{DB: database, Auth: authService, Log: log, validate: v}
}

// Router builds the chi router for all resources.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(h.requestLogger)

	// Public endpoints
	r.Post("/auth/token", h.Login)
	r.Post("/users", h.RegisterUser)

	// Protected endpoints (require a bearer token)
	r.Group(func(r chi.Router) {
		r.Use(h.Authenticated)

		r.Get("/users", h.ListUsers)
		r.Get("/users/{username}", h.GetUser)
		r.Patch("/users/{username}", h.UpdateUser)
		r.Delete("/users/{username}", h.DeleteUser)

		r.Post("/wallets", h.CreateWallet)
		r.Get("/wallets", h.ListWallets)
		r.Get("/wallets/{id}", h.GetWallet)
		r.Patch("/wallets/{id}", h.UpdateWallet)
		r.Delete("/wallets/{id}", h.DeleteWallet)

		r.Post("/watchlists", h.CreateWatchlistEntry)
		r.Get("/watchlists", h.ListWatchlistEntries)
		r.Get("/watchlists/{id}", h.GetWatchlistEntry)
		r.Delete("/watchlists/{id}", h.DeleteWatchlistEntry)

		// The ledger is append-only: no PATCH or DELETE routes exist.
		r.Post("/transactions", h.CreateTransaction)
		r.Get("/transactions", h.ListTransactions)
		r.Get("/transactions/{id}", h.GetTransaction)
	})

	return r
}
