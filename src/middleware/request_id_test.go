package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRequestIDRouter(t *testing.T, seen *string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/test", func(c *gin.Context) {
		*seen = GetRequestID(c)
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	var seen string
	router := newRequestIDRouter(t, &seen)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	responseID := w.Header().Get("X-Request-ID")
	if len(responseID) != 8 {
		t.Errorf("expected short request id, got %q", responseID)
	}
	if seen != responseID {
		t.Errorf("context id %q does not match header %q", seen, responseID)
	}
}

func TestRequestIDMiddleware_UsesExistingID(t *testing.T) {
	var seen string
	router := newRequestIDRouter(t, &seen)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Request-ID", "upstream-id-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if seen != "upstream-id-123" {
		t.Errorf("expected upstream id to be reused, got %q", seen)
	}
	if got := w.Header().Get("X-Request-ID"); got != "upstream-id-123" {
		t.Errorf("expected header to echo upstream id, got %q", got)
	}
}

func TestRequestIDMiddleware_ReplacesMalformedID(t *testing.T) {
	cases := map[string]string{
		"spaces":    "id with spaces",
		"too long":  strings.Repeat("a", 65),
		"injection": "abc\r\nX-Evil: 1",
	}

	for name, incoming := range cases {
		t.Run(name, func(t *testing.T) {
			var seen string
			router := newRequestIDRouter(t, &seen)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header["X-Request-Id"] = []string{incoming}
			router.ServeHTTP(httptest.NewRecorder(), req)

			if seen == incoming || len(seen) != 8 {
				t.Errorf("expected generated id, got %q", seen)
			}
		})
	}
}
