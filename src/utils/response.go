package utils

import (
	"encoding/json"
	"net/http"

	"github.com/fundledger/backend/src/logger"
)

// SendJSONError writes {"error": message} with the given status.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	SendJSON(w, statusCode, map[string]string{"error": message})
}

// SendJSON writes payload as JSON with the given status.
func SendJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("Failed to encode JSON response", "error", err)
	}
}
