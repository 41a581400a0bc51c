package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/eventdesk/src/middleware"
	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/services"
)

// UserAdminHandler serves the /admin/users pages
type UserAdminHandler struct {
	users   *services.UserService
	cookies *middleware.Cookies
	pages   pages
}

// NewUserAdminHandler creates a new user administration handler
func NewUserAdminHandler(users *services.UserService, cookies *middleware.Cookies) *UserAdminHandler {
	return &UserAdminHandler{
		users:   users,
		cookies: cookies,
		pages:   pages{cookies: cookies},
	}
}

func oldFromUser(user *models.User) map[string]string {
	isAdmin := ""
	if user.IsAdmin {
		isAdmin = "1"
	}
	return map[string]string{
		"name":     user.Name,
		"email":    user.Email,
		"is_admin": isAdmin,
	}
}

func (h *UserAdminHandler) redirectWithFlash(c *gin.Context, kind, message string) {
	h.cookies.SetFlash(c, kind, message)
	c.Redirect(http.StatusSeeOther, adminHome)
}

// findTarget resolves the :id parameter, rendering 404 for malformed or unknown ids
func (h *UserAdminHandler) findTarget(c *gin.Context) (*models.User, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		h.pages.fail(c, services.ErrUserNotFound)
		return nil, false
	}
	user, err := h.users.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		h.pages.fail(c, err)
		return nil, false
	}
	return user, true
}

// HandleIndex renders GET /admin/users
func (h *UserAdminHandler) HandleIndex(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		h.pages.fail(c, err)
		return
	}
	h.pages.render(c, http.StatusOK, "users_index.html", "Felhasználók", gin.H{"Users": users})
}

// HandleCreate renders GET /admin/users/create
func (h *UserAdminHandler) HandleCreate(c *gin.Context) {
	h.pages.render(c, http.StatusOK, "users_create.html", "Új felhasználó", gin.H{
		"Old":    map[string]string{},
		"Errors": map[string][]string{},
	})
}

// HandleStore handles POST /admin/users
func (h *UserAdminHandler) HandleStore(c *gin.Context) {
	var in services.UserInput
	if err := c.ShouldBind(&in); err != nil {
		h.pages.renderError(c, http.StatusBadRequest, "Hiba", services.MsgInvalidRequest)
		return
	}

	_, err := h.users.Create(c.Request.Context(), middleware.CurrentUser(c), in)
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		h.pages.render(c, http.StatusUnprocessableEntity, "users_create.html", "Új felhasználó", gin.H{
			"Old":    verr.Old,
			"Errors": verr.Fields,
		})
	case err != nil:
		h.pages.fail(c, err)
	default:
		h.redirectWithFlash(c, middleware.FlashSuccess, services.MsgUserCreated)
	}
}

// HandleEdit renders GET /admin/users/:id/edit
func (h *UserAdminHandler) HandleEdit(c *gin.Context) {
	user, ok := h.findTarget(c)
	if !ok {
		return
	}
	h.pages.render(c, http.StatusOK, "users_edit.html", "Felhasználó szerkesztése", gin.H{
		"User":    user,
		"Editing": true,
		"Old":     oldFromUser(user),
		"Errors":  map[string][]string{},
	})
}

// HandleUpdate handles PUT /admin/users/:id
func (h *UserAdminHandler) HandleUpdate(c *gin.Context) {
	target, ok := h.findTarget(c)
	if !ok {
		return
	}

	var in services.UserInput
	if err := c.ShouldBind(&in); err != nil {
		h.pages.renderError(c, http.StatusBadRequest, "Hiba", services.MsgInvalidRequest)
		return
	}

	_, err := h.users.Update(c.Request.Context(), middleware.CurrentUser(c), target.ID, in)
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		h.pages.render(c, http.StatusUnprocessableEntity, "users_edit.html", "Felhasználó szerkesztése", gin.H{
			"User":    target,
			"Editing": true,
			"Old":     verr.Old,
			"Errors":  verr.Fields,
		})
	case err != nil:
		h.pages.fail(c, err)
	default:
		h.redirectWithFlash(c, middleware.FlashSuccess, services.MsgUserUpdated)
	}
}

// HandleDestroy handles DELETE /admin/users/:id. Deleting one's own account
// is refused with an error flash rather than an HTTP error.
func (h *UserAdminHandler) HandleDestroy(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.pages.fail(c, services.ErrUserNotFound)
		return
	}

	err := h.users.Delete(c.Request.Context(), middleware.CurrentUser(c), id)
	switch {
	case errors.Is(err, services.ErrCannotDeleteSelf):
		h.redirectWithFlash(c, middleware.FlashError, services.MsgCannotDelete)
	case err != nil:
		h.pages.fail(c, err)
	default:
		h.redirectWithFlash(c, middleware.FlashSuccess, services.MsgUserDeleted)
	}
}
