package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/khabaroff/eventdesk/src/metrics"
	"github.com/khabaroff/eventdesk/src/middleware"
	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/services"
)

const msgRegistered = "Sikeres regisztráció. A megerősítő linket elküldtük e-mailben."

// APIAuthHandler serves registration, token login and email verification
type APIAuthHandler struct {
	users        *services.UserService
	auth         *services.AuthService
	tokens       *services.TokenService
	verification *services.VerificationService
	tracker      LoginTracker
	metrics      metrics.Recorder
}

// NewAPIAuthHandler creates a new API authentication handler
func NewAPIAuthHandler(
	users *services.UserService,
	auth *services.AuthService,
	tokens *services.TokenService,
	verification *services.VerificationService,
	tracker LoginTracker,
	recorder metrics.Recorder,
) *APIAuthHandler {
	return &APIAuthHandler{
		users:        users,
		auth:         auth,
		tokens:       tokens,
		verification: verification,
		tracker:      tracker,
		metrics:      recorder,
	}
}

// RegisterRequest is the self-registration body
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// LoginResponse carries a freshly issued bearer token
type LoginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// HandlePing handles GET /api/ping
func (h *APIAuthHandler) HandlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": services.MsgAPIAlive})
}

// HandleRegister handles POST /api/register
func (h *APIAuthHandler) HandleRegister(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": services.MsgInvalidRequest})
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.UserInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	// The account exists either way; a failed send can be retried by support
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()
	if err := h.verification.Send(ctx, user); err != nil {
		logger := middleware.RequestLogger(c, "api")
		logger.Error().
			Err(err).
			Int64("user_id", user.ID).
			Msg("Failed to send verification email")
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": msgRegistered,
		"user":    user,
	})
}

// HandleLogin handles POST /api/login
func (h *APIAuthHandler) HandleLogin(c *gin.Context) {
	var req loginForm
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": services.MsgInvalidRequest})
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err == nil {
		err = h.auth.RequireVerified(user)
	}
	if err != nil {
		h.metrics.RecordLogin(surfaceAPI, false)
		respondError(c, err)
		return
	}

	token, record, err := h.tokens.IssueAPIToken(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	h.metrics.RecordLogin(surfaceAPI, true)
	h.tracker.TrackLogin(c.Request.Context(), user, surfaceAPI)

	if purged, err := h.tokens.PurgeExpired(c.Request.Context()); err != nil {
		log.Warn().Err(err).Msg("Failed to purge expired API tokens")
	} else if purged > 0 {
		log.Debug().Int64("purged", purged).Msg("Purged expired API tokens")
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: record.ExpiresAt,
		User:      user,
	})
}

// HandleLogout handles POST /api/logout by revoking the presented token
func (h *APIAuthHandler) HandleLogout(c *gin.Context) {
	token := middleware.CurrentToken(c)
	if token == nil {
		respondError(c, services.ErrUnauthenticated)
		return
	}
	if err := h.tokens.Revoke(c.Request.Context(), token.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": services.MsgLoggedOut})
}

// HandleVerifyEmail handles GET /api/email/verify/:id/:hash
func (h *APIAuthHandler) HandleVerifyEmail(c *gin.Context) {
	rawID := c.Param("id")
	alreadyVerified, err := h.verification.Verify(
		c.Request.Context(),
		rawID,
		c.Param("hash"),
		c.Query("expires"),
		c.Query("signature"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	if alreadyVerified {
		c.JSON(http.StatusOK, gin.H{"message": services.MsgAlreadyVerified})
		return
	}

	if id, err := strconv.ParseInt(rawID, 10, 64); err == nil {
		h.tracker.TrackEmailVerified(c.Request.Context(), id)
	}
	c.JSON(http.StatusOK, gin.H{"message": services.MsgEmailVerified})
}
