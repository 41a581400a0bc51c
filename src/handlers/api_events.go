package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khabaroff/eventdesk/src/middleware"
	"github.com/khabaroff/eventdesk/src/models"
	"github.com/khabaroff/eventdesk/src/services"
)

// EventHandler serves the event listing, event administration and registration API
type EventHandler struct {
	events        *services.EventService
	registrations *services.RegistrationService
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *services.EventService, registrations *services.RegistrationService) *EventHandler {
	return &EventHandler{
		events:        events,
		registrations: registrations,
	}
}

func (h *EventHandler) respondList(c *gin.Context, list func(context.Context) ([]models.Event, error)) {
	events, err := list(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}

// HandleIndex handles GET /api/events
func (h *EventHandler) HandleIndex(c *gin.Context) {
	h.respondList(c, h.events.List)
}

// HandleUpcoming handles GET /api/events/upcoming
func (h *EventHandler) HandleUpcoming(c *gin.Context) {
	h.respondList(c, h.events.Upcoming)
}

// HandlePast handles GET /api/events/past
func (h *EventHandler) HandlePast(c *gin.Context) {
	h.respondList(c, h.events.Past)
}

// HandleFilter handles GET /api/events/filter?q=&location=&from=&to=
func (h *EventHandler) HandleFilter(c *gin.Context) {
	var q services.EventQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": services.MsgInvalidRequest})
		return
	}
	h.respondList(c, func(ctx context.Context) ([]models.Event, error) {
		return h.events.Filter(ctx, q)
	})
}

// HandleShow handles GET /api/events/:id
func (h *EventHandler) HandleShow(c *gin.Context) {
	id, ok := requireID(c, "id")
	if !ok {
		return
	}
	event, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func bindEventInput(c *gin.Context) (services.EventInput, bool) {
	var in services.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": services.MsgInvalidRequest})
		return in, false
	}
	return in, true
}

// HandleStore handles POST /api/events
func (h *EventHandler) HandleStore(c *gin.Context) {
	in, ok := bindEventInput(c)
	if !ok {
		return
	}
	event, err := h.events.Create(c.Request.Context(), middleware.CurrentUser(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// HandleUpdate handles PUT /api/events/:id
func (h *EventHandler) HandleUpdate(c *gin.Context) {
	id, ok := requireID(c, "id")
	if !ok {
		return
	}
	in, ok := bindEventInput(c)
	if !ok {
		return
	}
	event, err := h.events.Update(c.Request.Context(), middleware.CurrentUser(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// HandleDestroy handles DELETE /api/events/:id
func (h *EventHandler) HandleDestroy(c *gin.Context) {
	id, ok := requireID(c, "id")
	if !ok {
		return
	}
	if err := h.events.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": services.MsgEventDeleted})
}

// HandleRegister handles POST /api/events/:id/register
func (h *EventHandler) HandleRegister(c *gin.Context) {
	id, ok := requireID(c, "id")
	if !ok {
		return
	}
	reg, err := h.registrations.Register(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": services.MsgRegistered, "registration": reg})
}

// HandleUnregister handles DELETE /api/events/:id/unregister
func (h *EventHandler) HandleUnregister(c *gin.Context) {
	id, ok := requireID(c, "id")
	if !ok {
		return
	}
	if err := h.registrations.Unregister(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": services.MsgUnregistered})
}

// HandleRemoveUser handles DELETE /api/events/:id/users/:user_id
func (h *EventHandler) HandleRemoveUser(c *gin.Context) {
	eventID, ok := requireID(c, "id")
	if !ok {
		return
	}
	userID, ok := requireID(c, "user_id")
	if !ok {
		return
	}
	if err := h.registrations.RemoveUser(c.Request.Context(), middleware.CurrentUser(c), eventID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": services.MsgUnregistered})
}

// HandleAttendees handles GET /api/events/:id/users
func (h *EventHandler) HandleAttendees(c *gin.Context) {
	id, ok := requireID(c, "id")
	if !ok {
		return
	}
	regs, err := h.registrations.Attendees(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": regs})
}
