package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/eventdesk/src/metrics"
	"github.com/khabaroff/eventdesk/src/middleware"
	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/services"
)

// Login surfaces reported to metrics and analytics
const (
	surfaceWeb = "web"
	surfaceAPI = "api"
)

const adminHome = "/admin/users"

// LoginTracker receives analytics for authentication milestones
type LoginTracker interface {
	TrackLogin(ctx context.Context, user *models.User, surface string)
	TrackEmailVerified(ctx context.Context, userID int64)
}

// WebAuthHandler serves the browser login form and session cookie
type WebAuthHandler struct {
	auth    *services.AuthService
	tokens  *services.TokenService
	cookies *middleware.Cookies
	tracker LoginTracker
	metrics metrics.Recorder
	pages   pages
}

// NewWebAuthHandler creates a new browser authentication handler
func NewWebAuthHandler(auth *services.AuthService, tokens *services.TokenService, cookies *middleware.Cookies, tracker LoginTracker, recorder metrics.Recorder) *WebAuthHandler {
	return &WebAuthHandler{
		auth:    auth,
		tokens:  tokens,
		cookies: cookies,
		tracker: tracker,
		metrics: recorder,
		pages:   pages{cookies: cookies},
	}
}

type loginForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// HandleShowLogin renders GET /login
func (h *WebAuthHandler) HandleShowLogin(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusFound, adminHome)
		return
	}
	h.pages.render(c, http.StatusOK, "login.html", "Bejelentkezés", gin.H{})
}

// HandleLogin handles POST /login
func (h *WebAuthHandler) HandleLogin(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.pages.renderError(c, http.StatusBadRequest, "Hiba", services.MsgInvalidRequest)
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), form.Email, form.Password)
	if err == nil {
		err = h.auth.RequireVerified(user)
	}
	if err != nil {
		h.metrics.RecordLogin(surfaceWeb, false)
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			h.loginFailed(c, form, services.MsgInvalidLogin)
		case errors.Is(err, services.ErrEmailNotVerified):
			h.loginFailed(c, form, services.MsgEmailNotVerified)
		default:
			h.pages.fail(c, err)
		}
		return
	}

	token, expiresAt, err := h.tokens.IssueSession(user)
	if err != nil {
		h.pages.fail(c, err)
		return
	}
	h.cookies.SetSession(c, token, expiresAt)
	h.metrics.RecordLogin(surfaceWeb, true)
	h.tracker.TrackLogin(c.Request.Context(), user, surfaceWeb)

	c.Redirect(http.StatusSeeOther, adminHome)
}

func (h *WebAuthHandler) loginFailed(c *gin.Context, form loginForm, message string) {
	h.pages.render(c, http.StatusUnprocessableEntity, "login.html", "Bejelentkezés", gin.H{
		"Errors": map[string][]string{"email": {message}},
		"Old":    map[string]string{"email": form.Email},
	})
}

// HandleLogout handles POST /logout
func (h *WebAuthHandler) HandleLogout(c *gin.Context) {
	h.cookies.ClearSession(c)
	h.cookies.SetFlash(c, middleware.FlashSuccess, services.MsgLoggedOut)
	c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}
