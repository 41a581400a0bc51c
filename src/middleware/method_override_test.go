package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMethodOverride(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/users/:id", func(c *gin.Context) { c.String(http.StatusOK, "post") })
	router.PUT("/users/:id", func(c *gin.Context) { c.String(http.StatusOK, "put "+c.PostForm("name")) })
	router.DELETE("/users/:id", func(c *gin.Context) { c.String(http.StatusOK, "delete") })
	handler := MethodOverride(router)

	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"put via form", "application/x-www-form-urlencoded", url.Values{"_method": {"PUT"}, "name": {"Jane"}}.Encode(), "put Jane"},
		{"lowercase delete", "application/x-www-form-urlencoded", "_method=delete", "delete"},
		{"unknown method ignored", "application/x-www-form-urlencoded", "_method=TRACE", "post"},
		{"json body ignored", "application/json", `{"_method":"DELETE"}`, "post"},
		{"no override", "application/x-www-form-urlencoded", "name=Jane", "post"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/users/7", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestMethodOverride_GetUntouched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/users", func(c *gin.Context) { c.String(http.StatusOK, "get") })

	w := httptest.NewRecorder()
	MethodOverride(router).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users?_method=DELETE", nil))
	assert.Equal(t, "get", w.Body.String())
}
