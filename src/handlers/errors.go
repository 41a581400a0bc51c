package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/eventdesk/src/middleware"
	"github.com/khabaroff/eventdesk/src/services"
)

// statusFor maps service errors to an HTTP status and a user-facing message
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrTokenInvalid), errors.Is(err, services.ErrTokenRevoked):
		return http.StatusUnauthorized, services.MsgUnauthenticated
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, services.MsgInvalidLogin
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, services.MsgAccessDenied
	case errors.Is(err, services.ErrEmailNotVerified):
		return http.StatusForbidden, services.MsgEmailNotVerified
	case errors.Is(err, services.ErrInvalidSignature):
		return http.StatusForbidden, services.MsgInvalidSignature
	case errors.Is(err, services.ErrInvalidVerificationLink):
		return http.StatusForbidden, services.MsgInvalidVerification
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrEventNotFound):
		return http.StatusNotFound, services.MsgNotFound
	case errors.Is(err, services.ErrNotRegistered):
		return http.StatusNotFound, services.MsgNotRegistered
	case errors.Is(err, services.ErrEventFull):
		return http.StatusConflict, services.MsgEventFull
	case errors.Is(err, services.ErrAlreadyRegistered):
		return http.StatusConflict, services.MsgAlreadyJoined
	case errors.Is(err, services.ErrCannotDeleteSelf):
		return http.StatusUnprocessableEntity, services.MsgCannotDelete
	case errors.Is(err, services.ErrEventInPast):
		return http.StatusUnprocessableEntity, services.MsgEventStarted
	default:
		return http.StatusInternalServerError, services.MsgServerError
	}
}

// respondError writes the JSON error body for err
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"message": services.MsgValidation,
			"errors":  verr.Fields,
		})
		return
	}

	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		logger := middleware.RequestLogger(c, "api")
		logger.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
	}
	c.JSON(status, gin.H{"message": message})
}

// parseID reads a positive integer path parameter
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// requireID parses a path id for the JSON API, answering 404 when it is malformed
func requireID(c *gin.Context, name string) (int64, bool) {
	id, ok := parseID(c, name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": services.MsgNotFound})
	}
	return id, ok
}
