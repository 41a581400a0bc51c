package handlers

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabaroff/eventdesk/src/middleware"
	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/services"
)

func TestWebLogin_ShowForm(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/login")
	assertStatusCode(t, w, http.StatusOK)
	assert.Regexp(t, csrfFieldPattern, w.Body.String())

	w = app.get("/login", app.session(t, app.admin))
	assertStatusCode(t, w, http.StatusFound)
	assert.Equal(t, adminHome, w.Header().Get("Location"))
}

func TestWebLogin_RootRedirects(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, adminHome, w.Header().Get("Location"))
}

func TestWebLogin_InvalidCredentials(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "admin@example.com", "Wrong!Pass1"},
		{"unknown email", "nobody@example.com", testPassword},
		{"empty form", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.submit(t, "/login", url.Values{"email": {tt.email}, "password": {tt.password}})
			assertStatusCode(t, w, http.StatusUnprocessableEntity)
			assert.Contains(t, w.Body.String(), services.MsgInvalidLogin)
			assert.Nil(t, cookieFrom(w, middleware.SessionCookieName))
			if tt.password != "" {
				assert.NotContains(t, w.Body.String(), tt.password)
			}
		})
	}
}

func TestWebLogin_UnverifiedEmail(t *testing.T) {
	app := newTestApp(t)
	hash := app.admin.PasswordHash
	app.users.Seed(models.User{Name: "Fresh", Email: "fresh@example.com", PasswordHash: hash})

	w := app.submit(t, "/login", url.Values{"email": {"fresh@example.com"}, "password": {testPassword}})
	assertStatusCode(t, w, http.StatusUnprocessableEntity)
	assert.Contains(t, w.Body.String(), services.MsgEmailNotVerified)
	assert.Nil(t, cookieFrom(w, middleware.SessionCookieName))
}

func TestWebLogin_SuccessAndLogout(t *testing.T) {
	app := newTestApp(t)

	w := app.submit(t, "/login", url.Values{"email": {"Admin@Example.com"}, "password": {testPassword}})
	assertStatusCode(t, w, http.StatusSeeOther)
	assert.Equal(t, adminHome, w.Header().Get("Location"))

	session := cookieFrom(w, middleware.SessionCookieName)
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	assert.True(t, session.Expires.After(time.Now()) || session.MaxAge > 0)

	page := app.get(adminHome, session)
	assertStatusCode(t, page, http.StatusOK)
	assert.Contains(t, page.Body.String(), "member@example.com")

	w = app.submit(t, "/logout", url.Values{}, session)
	assertStatusCode(t, w, http.StatusSeeOther)
	assert.Equal(t, middleware.LoginPath, w.Header().Get("Location"))

	cleared := cookieFrom(w, middleware.SessionCookieName)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	flash := cookieFrom(w, middleware.FlashCookieName)
	require.NotNil(t, flash)
	login := app.get(middleware.LoginPath, flash)
	assertStatusCode(t, login, http.StatusOK)
	assert.Contains(t, login.Body.String(), services.MsgLoggedOut)
}

func TestWebLogin_TamperedSessionIsAnonymous(t *testing.T) {
	app := newTestApp(t)

	w := app.get(adminHome, &http.Cookie{Name: middleware.SessionCookieName, Value: "not-a-token"})
	assertStatusCode(t, w, http.StatusFound)
	assert.Equal(t, middleware.LoginPath, w.Header().Get("Location"))
}
