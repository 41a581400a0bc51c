package middleware

import (
	"crypto/sha256"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog/log"
)

// Anti-forgery token transport
const (
	CSRFFieldName  = "_token"
	CSRFHeaderName = "X-CSRF-Token"
	csrfCookieName = "_csrf"
)

// CSRF protects state-changing requests of the HTML surface. The token is
// accepted from the _token form field or the X-CSRF-Token header.
func CSRF(secret string, secure bool) gin.HandlerFunc {
	// Derive a fixed-size key from the configured secret
	key := sha256.Sum256([]byte(secret))

	protect := csrf.Protect(key[:],
		csrf.Path("/"),
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.CookieName(csrfCookieName),
		csrf.FieldName(CSRFFieldName),
		csrf.RequestHeader(CSRFHeaderName),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Warn().
				Err(csrf.FailureReason(r)).
				Str("path", r.URL.Path).
				Msg("CSRF check failed")
			http.Error(w, "CSRF token mismatch.", http.StatusForbidden)
		})),
	)

	return func(c *gin.Context) {
		passed := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})

		req := c.Request
		if !secure {
			req = csrf.PlaintextHTTPRequest(req)
		}
		protect(next).ServeHTTP(c.Writer, req)

		if !passed {
			c.Abort()
		}
	}
}

// CSRFField renders the hidden token input for forms
func CSRFField(c *gin.Context) template.HTML {
	return csrf.TemplateField(c.Request)
}

// CSRFToken returns the masked token for the current request
func CSRFToken(c *gin.Context) string {
	return csrf.Token(c.Request)
}
