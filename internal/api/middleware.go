package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cryptofolio/api/internal/apperr"
	"github.com/cryptofolio/api/internal/auth"

	"go.uber.org/zap"
)

type contextKey int

const principalKey contextKey = iota

// Authenticated requires a valid bearer token and stores the principal in the
// request context.
func (h *Handler) Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			h.writeError(w, apperr.New(apperr.Unauthorized, "authorization header required"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			h.writeError(w, apperr.New(apperr.Unauthorized, "invalid authorization header"))
			return
		}

		claims, err := h.Auth.ParseToken(parts[1])
		if err != nil {
			h.writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// principal returns the authenticated caller stored by Authenticated.
func principal(r *http.Request) (auth.Claims, bool) {
	claims, ok := r.Context().Value(principalKey).(auth.Claims)
	return claims, ok
}

// ensureSameUser permits the request only when the caller is the owner.
func (h *Handler) ensureSameUser(r *http.Request, owner string) error {
	claims, ok := principal(r)
	if !ok || claims.Username != owner {
		return apperr.New(apperr.Unauthorized, "unauthorized")
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.status != 0 {
		return
	}
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// requestLogger logs one line per request.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		h.Log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
