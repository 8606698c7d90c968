package middleware

import (
	"encoding/json"
	"net/http"

	"audio-merger/internal/logging"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeError writes the same JSON error shape the handlers use.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: message, Kind: kind}); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}
