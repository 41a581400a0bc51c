package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/eventdesk/src/middleware"
	"github.com/khabaroff/eventdesk/src/services"
)

// ViewFuncs returns the helpers the HTML views call
func ViewFuncs() template.FuncMap {
	return template.FuncMap{
		"first": func(fields map[string][]string, field string) string {
			if msgs := fields[field]; len(msgs) > 0 {
				return msgs[0]
			}
			return ""
		},
		"checked": func(value string) bool {
			on, err := services.ParseFlag(value)
			return err == nil && on
		},
	}
}

// pages renders HTML views with the data every layout needs
type pages struct {
	cookies *middleware.Cookies
}

func (p pages) render(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["Caller"] = middleware.CurrentUser(c)
	data["CSRFField"] = middleware.CSRFField(c)
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = p.cookies.PopFlash(c)
	}
	c.HTML(status, name, data)
}

func (p pages) renderError(c *gin.Context, status int, title, message string) {
	p.render(c, status, "error.html", title, gin.H{"Message": message})
}

// fail renders the HTML response for a service error
func (p pages) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		c.String(http.StatusForbidden, services.MsgAccessDenied)
	case errors.Is(err, services.ErrUnauthenticated):
		c.Redirect(http.StatusFound, middleware.LoginPath)
	case errors.Is(err, services.ErrUserNotFound):
		p.renderError(c, http.StatusNotFound, "Nem található", services.MsgNotFound)
	default:
		_ = c.Error(err)
		logger := middleware.RequestLogger(c, "web")
		logger.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Msg("Request failed")
		p.renderError(c, http.StatusInternalServerError, "Hiba", services.MsgServerError)
	}
}
