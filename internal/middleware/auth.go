package middleware

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"audio-merger/internal/logging"
	"audio-merger/internal/metrics"
)

// TokenAuth requires an "Authorization: Bearer <token>" header whose token
// matches the bcrypt hash. An empty hash disables the check.
func TokenAuth(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if hash == "" {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				metrics.AuthAttemptsTotal.WithLabelValues("missing").Inc()
				w.Header().Set("WWW-Authenticate", `Bearer realm="audio-merger"`)
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
				metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
				logging.Warn("Rejected API token from %s", sanitizeLogField(getClientIP(r)))
				w.Header().Set("WWW-Authenticate", `Bearer realm="audio-merger", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}

			metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
