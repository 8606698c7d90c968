package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// =============================================================================
// writeJSON Tests
// =============================================================================

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{"Simple map", map[string]string{"status": "ok"}, `{"status":"ok"}`},
		{"String slice", []string{"a", "b"}, `["a","b"]`},
		{"Number", 42, `42`},
		{"Null", nil, `null`},
		{"Struct", ErrorResponse{Error: "bad", Kind: "validation"}, `{"error":"bad","kind":"validation"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			writeJSON(w, tt.input)
			if got := strings.TrimSpace(w.Body.String()); got != tt.expected {
				t.Errorf("writeJSON() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestWriteJSONHandlesInvalidTypes(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	writeJSON(w, make(chan int))

	if w.Body.Len() != 0 {
		t.Errorf("expected no body for an unencodable value, got %q", w.Body.String())
	}
}

// =============================================================================
// writeJSONError / writeJSONStatus Tests
// =============================================================================

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	writeJSONError(w, "no input clips", "validation", http.StatusBadRequest)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "no input clips" || body.Kind != "validation" {
		t.Errorf("body = %+v", body)
	}
}

func TestWriteJSONStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code   int
		status string
	}{
		{http.StatusOK, "ready"},
		{http.StatusServiceUnavailable, "stopping"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			writeJSONStatus(w, tt.code, tt.status)

			if w.Code != tt.code {
				t.Errorf("status code = %d, want %d", w.Code, tt.code)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["status"] != tt.status {
				t.Errorf("status = %q, want %q", body["status"], tt.status)
			}
		})
	}
}
