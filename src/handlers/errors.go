package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fundledger/backend/src/logger"
	"github.com/fundledger/backend/src/security/validation"
	"github.com/fundledger/backend/src/services"
	"github.com/fundledger/backend/src/utils"
	"github.com/go-chi/chi/v5"
)

var errInvalidID = errors.New("invalid id")

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// decodeJSONBody decodes the request body into dst and writes the error
// response itself when that fails.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			utils.SendJSONError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		logger.FromContext(r.Context()).Debug("Invalid JSON body", "path", r.URL.Path, "error", err)
		utils.SendJSONError(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// sendServiceError maps service errors to HTTP status codes.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, validation.ErrValidationFailed):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrConflict):
		utils.SendJSONError(w, err.Error(), http.StatusConflict)
	default:
		logger.FromContext(r.Context()).Error("Request failed", "action", action, "path", r.URL.Path, "error", err)
		utils.SendJSONError(w, "Failed to "+action, http.StatusInternalServerError)
	}
}
