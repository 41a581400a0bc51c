package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog/log"
)

// Cookie names
const (
	SessionCookieName = "session_token"
	FlashCookieName   = "flash"
)

// Flash kinds
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

const flashMaxAge = 5 * 60

// Flash is a one-shot status message shown after a redirect
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Cookies writes the session and flash cookies under one security policy
type Cookies struct {
	secure bool
	flash  *securecookie.SecureCookie
}

// NewCookies creates a cookie writer; hashKey signs flash values
func NewCookies(hashKey []byte, secure bool) *Cookies {
	codec := securecookie.New(hashKey, nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(flashMaxAge)
	return &Cookies{secure: secure, flash: codec}
}

func (k *Cookies) set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", k.secure, true)
}

// SetSession stores the session token until expiresAt
func (k *Cookies) SetSession(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	k.set(c, SessionCookieName, token, maxAge)
}

// ClearSession removes the session cookie
func (k *Cookies) ClearSession(c *gin.Context) {
	k.set(c, SessionCookieName, "", -1)
}

// SetFlash queues a message for the next page render
func (k *Cookies) SetFlash(c *gin.Context, kind, message string) {
	encoded, err := k.flash.Encode(FlashCookieName, Flash{Kind: kind, Message: message})
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode flash cookie")
		return
	}
	k.set(c, FlashCookieName, encoded, flashMaxAge)
}

// PopFlash returns the pending flash message, if any, and clears it.
// Tampered or expired values are dropped.
func (k *Cookies) PopFlash(c *gin.Context) *Flash {
	raw, err := c.Cookie(FlashCookieName)
	if err != nil || raw == "" {
		return nil
	}
	k.set(c, FlashCookieName, "", -1)

	var flash Flash
	if err := k.flash.Decode(FlashCookieName, raw, &flash); err != nil {
		return nil
	}
	return &flash
}
