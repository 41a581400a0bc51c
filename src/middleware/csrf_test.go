package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCSRFRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CSRF("test-secret", false))
	router.GET("/form", func(c *gin.Context) {
		c.String(http.StatusOK, CSRFToken(c))
	})
	router.POST("/form", func(c *gin.Context) {
		c.String(http.StatusOK, "saved %s", c.PostForm("name"))
	})
	return router
}

// fetchToken performs a safe request and returns the token with its cookie
func fetchToken(t *testing.T, router *gin.Engine) (string, *http.Cookie) {
	t.Helper()
	w := serve(router, httptest.NewRequest(http.MethodGet, "/form", nil))
	require.Equal(t, http.StatusOK, w.Code)

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == csrfCookieName {
			return w.Body.String(), cookie
		}
	}
	t.Fatal("expected csrf cookie to be set")
	return "", nil
}

func postForm(values url.Values, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestCSRF_RejectsMissingToken(t *testing.T) {
	router := newCSRFRouter()
	_, cookie := fetchToken(t, router)

	w := serve(router, postForm(url.Values{"name": {"Jane"}}, cookie))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "saved")
}

func TestCSRF_AcceptsFormField(t *testing.T) {
	router := newCSRFRouter()
	token, cookie := fetchToken(t, router)

	w := serve(router, postForm(url.Values{"name": {"Jane"}, CSRFFieldName: {token}}, cookie))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "saved Jane", w.Body.String())
}

func TestCSRF_AcceptsHeader(t *testing.T) {
	router := newCSRFRouter()
	token, cookie := fetchToken(t, router)

	req := postForm(url.Values{"name": {"Jane"}}, cookie)
	req.Header.Set(CSRFHeaderName, token)
	w := serve(router, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCSRFField_EmptyOutsideProtection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	assert.Empty(t, string(CSRFField(c)))
}
