package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cryptofolio/api/internal/apperr"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type errorBody struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError is the single boundary translator: it maps an error kind to its
// status code and emits the JSON error body. Unclassified errors are logged
// and reported as internal.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.Log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]errorBody{
		"error": {Message: apperr.MessageOf(err), Status: status},
	})
}

// decodeBody parses a JSON request body into dst, rejecting unknown fields so
// a payload cannot smuggle columns past the per-resource schema.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.BadRequestf("invalid request body: %v", err)
	}
	return nil
}

// validateStruct runs the payload's declarative schema and collapses every
// violation into one BadRequest message.
func (h *Handler) validateStruct(v any) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("failed to validate payload: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s fails %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s fails %s", fe.Field(), fe.Tag()))
		}
	}
	return apperr.New(apperr.BadRequest, strings.Join(msgs, "; "))
}
