package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/eventdesk/src/middleware"
	"github.com/khabaroff/eventdesk/src/services"
)

// APIUserHandler serves the caller profile and the admin user API
type APIUserHandler struct {
	users *services.UserService
}

// NewAPIUserHandler creates a new API user handler
func NewAPIUserHandler(users *services.UserService) *APIUserHandler {
	return &APIUserHandler{users: users}
}

// UserRequest is the JSON user body. is_admin accepts booleans, 0/1 and the
// string flags understood by the HTML form.
type UserRequest struct {
	Name                 string      `json:"name"`
	Email                string      `json:"email"`
	Password             string      `json:"password"`
	PasswordConfirmation string      `json:"password_confirmation"`
	IsAdmin              interface{} `json:"is_admin"`
}

func (r UserRequest) input() services.UserInput {
	return services.UserInput{
		Name:                 r.Name,
		Email:                r.Email,
		Password:             r.Password,
		PasswordConfirmation: r.PasswordConfirmation,
		IsAdmin:              flagString(r.IsAdmin),
	}
}

func flagString(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	default:
		// Rejected by flag validation
		return fmt.Sprint(v)
	}
}

func bindUserRequest(c *gin.Context) (services.UserInput, bool) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": services.MsgInvalidRequest})
		return services.UserInput{}, false
	}
	return req.input(), true
}

// HandleMe handles GET /api/me and GET /api/user
func (h *APIUserHandler) HandleMe(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// HandleUpdateMe handles PUT /api/me. The admin flag cannot be changed here.
func (h *APIUserHandler) HandleUpdateMe(c *gin.Context) {
	in, ok := bindUserRequest(c)
	if !ok {
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), middleware.CurrentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// HandleList handles GET /api/users
func (h *APIUserHandler) HandleList(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users})
}

// HandleShow handles GET /api/users/:id
func (h *APIUserHandler) HandleShow(c *gin.Context) {
	id, ok := requireID(c, "id")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// HandleStore handles POST /api/users
func (h *APIUserHandler) HandleStore(c *gin.Context) {
	in, ok := bindUserRequest(c)
	if !ok {
		return
	}
	user, err := h.users.Create(c.Request.Context(), middleware.CurrentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": services.MsgUserCreated, "user": user})
}

// HandleUpdate handles PUT /api/users/:id
func (h *APIUserHandler) HandleUpdate(c *gin.Context) {
	id, ok := requireID(c, "id")
	if !ok {
		return
	}
	caller := middleware.CurrentUser(c)
	if _, err := h.users.Get(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	in, ok := bindUserRequest(c)
	if !ok {
		return
	}
	user, err := h.users.Update(c.Request.Context(), caller, id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": services.MsgUserUpdated, "user": user})
}

// HandleDestroy handles DELETE /api/users/:id
func (h *APIUserHandler) HandleDestroy(c *gin.Context) {
	id, ok := requireID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": services.MsgUserDeleted})
}
