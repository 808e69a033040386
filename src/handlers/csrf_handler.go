package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fundledger/backend/src/logger"
	"github.com/fundledger/backend/src/utils"
)

const (
	csrfCookieName = "fundledger_csrf"
	csrfHeaderName = "X-CSRF-Token"
	csrfFormField  = "csrf_token"
)

func GetCSRFToken(w http.ResponseWriter, r *http.Request) {
	token := ensureCSRFToken(w, r)
	w.Header().Set(csrfHeaderName, token)
	utils.SendJSON(w, http.StatusOK, map[string]string{"csrfToken": token})
}

// ensureCSRFToken reuses the token cookie when present and issues a new one otherwise.
func ensureCSRFToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(csrfCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	token := generateRandomToken()
	logger.FromContext(r.Context()).Debug("Issued CSRF token", "remoteAddr", r.RemoteAddr)
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		MaxAge:   3600,
	})
	return token
}

func generateRandomToken() string {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		logger.L.Error("Error generating random bytes for CSRF token", "error", err)
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// CSRFMiddleware checks the double-submit token on state-changing requests.
// The token may come in the X-CSRF-Token header or, for HTML forms, in the
// csrf_token field.
func CSRFMiddleware(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}

			submitted := r.Header.Get(csrfHeaderName)
			if submitted == "" {
				submitted = r.PostFormValue(csrfFormField)
			}
			cookie, errCookie := r.Cookie(csrfCookieName)

			if submitted != "" && errCookie == nil &&
				subtle.ConstantTimeCompare([]byte(submitted), []byte(cookie.Value)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			var cookieErrorForLog interface{}
			if errCookie != nil {
				cookieErrorForLog = errCookie.Error()
			}
			logger.FromContext(r.Context()).Warn("CSRF Validation Failed",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
				slog.Bool("tokenSubmitted", submitted != ""),
				slog.Any("cookieError", cookieErrorForLog),
				slog.String("origin", r.Header.Get("Origin")),
			)
			utils.SendJSONError(w, "CSRF token validation failed", http.StatusForbidden)
		})
	}
}
