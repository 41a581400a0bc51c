package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/services"
)

// Context keys set by the authentication middleware
const (
	CallerKey   = "caller"
	APITokenKey = "api_token"
)

// LoginPath is where anonymous browser requests are sent
const LoginPath = "/login"

// SessionResolver turns a session cookie value into the signed-in user
type SessionResolver interface {
	ParseSession(ctx context.Context, tokenString string) (*models.User, error)
}

// TokenAuthenticator validates API bearer tokens
type TokenAuthenticator interface {
	AuthenticateAPIToken(ctx context.Context, tokenString string) (*models.User, *models.APIToken, error)
}

// CurrentUser returns the authenticated caller or nil
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CallerKey); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CurrentToken returns the API token the request authenticated with
func CurrentToken(c *gin.Context) *models.APIToken {
	if v, ok := c.Get(APITokenKey); ok {
		if token, ok := v.(*models.APIToken); ok {
			return token
		}
	}
	return nil
}

// SessionAuth loads the caller from the session cookie. Requests without a
// valid cookie continue anonymously.
func SessionAuth(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		user, err := sessions.ParseSession(c.Request.Context(), token)
		if err != nil {
			logger := RequestLogger(c, "auth")
			logger.Debug().
				Err(err).
				Msg("Ignoring invalid session cookie")
			c.Next()
			return
		}

		c.Set(CallerKey, user)
		c.Next()
	}
}

// RequireLogin redirects anonymous browser requests to the login form
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// BearerAuth requires a valid API token in the Authorization header
func BearerAuth(tokens TokenAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": services.MsgUnauthenticated})
			return
		}

		user, token, err := tokens.AuthenticateAPIToken(c.Request.Context(), raw)
		if err != nil {
			logger := RequestLogger(c, "auth")
			logger.Debug().
				Err(err).
				Msg("Rejected API token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": services.MsgUnauthenticated})
			return
		}

		c.Set(CallerKey, user)
		c.Set(APITokenKey, token)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// AdminOnly rejects HTML requests from callers without the admin flag
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := services.RequireAdmin(CurrentUser(c)); err != nil {
			c.String(http.StatusForbidden, services.MsgAccessDenied)
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminOnlyJSON is AdminOnly for the JSON API
func AdminOnlyJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := services.RequireAdmin(CurrentUser(c)); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": services.MsgAccessDenied})
			return
		}
		c.Next()
	}
}
