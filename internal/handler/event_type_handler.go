package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/slotbook-api/internal/dto"
	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
	"github.com/noah-isme/slotbook-api/pkg/response"
)

type eventTypeService interface {
	List(ctx context.Context, hostID string, activeOnly bool) ([]models.EventType, error)
	Get(ctx context.Context, hostID, id string) (*models.EventType, error)
	Create(ctx context.Context, hostID string, req dto.CreateEventTypeRequest) (*models.EventType, error)
	Update(ctx context.Context, hostID, id string, req dto.UpdateEventTypeRequest) (*models.EventType, error)
	Toggle(ctx context.Context, hostID, id string) (*models.EventType, error)
	Duplicate(ctx context.Context, hostID, id string) (*models.EventType, error)
	Delete(ctx context.Context, hostID, id string) error
}

// EventTypeHandler manages the host's meeting templates.
type EventTypeHandler struct {
	service eventTypeService
}

// NewEventTypeHandler constructs the event type handler.
func NewEventTypeHandler(service eventTypeService) *EventTypeHandler {
	return &EventTypeHandler{service: service}
}

// List godoc
// @Summary List event types
// @Tags EventTypes
// @Produce json
// @Security BearerAuth
// @Param active_only query bool false "Only active event types"
// @Success 200 {object} response.Envelope
// @Router /event-types [get]
func (h *EventTypeHandler) List(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	var query dto.EventTypeListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, err := h.service.List(c.Request.Context(), host.HostID, query.ActiveOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]dto.EventTypeResponse, 0, len(items))
	for _, item := range items {
		out = append(out, dto.EventTypeResponseFromModel(item, host.Username))
	}
	response.OK(c, out)
}

// Get godoc
// @Summary Get event type
// @Tags EventTypes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event type ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /event-types/{id} [get]
func (h *EventTypeHandler) Get(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	item, err := h.service.Get(c.Request.Context(), host.HostID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.EventTypeResponseFromModel(*item, host.Username))
}

// Create godoc
// @Summary Create event type
// @Tags EventTypes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateEventTypeRequest true "Event type"
// @Success 201 {object} response.Envelope
// @Router /event-types [post]
func (h *EventTypeHandler) Create(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	var req dto.CreateEventTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event type payload"))
		return
	}
	item, err := h.service.Create(c.Request.Context(), host.HostID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.EventTypeResponseFromModel(*item, host.Username))
}

// Update godoc
// @Summary Update event type
// @Tags EventTypes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event type ID"
// @Param payload body dto.UpdateEventTypeRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /event-types/{id} [put]
func (h *EventTypeHandler) Update(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	var req dto.UpdateEventTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event type payload"))
		return
	}
	item, err := h.service.Update(c.Request.Context(), host.HostID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.EventTypeResponseFromModel(*item, host.Username))
}

// Toggle godoc
// @Summary Toggle event type active flag
// @Tags EventTypes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event type ID"
// @Success 200 {object} response.Envelope
// @Router /event-types/{id}/toggle [patch]
func (h *EventTypeHandler) Toggle(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	item, err := h.service.Toggle(c.Request.Context(), host.HostID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.EventTypeResponseFromModel(*item, host.Username))
}

// Duplicate godoc
// @Summary Duplicate event type
// @Tags EventTypes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event type ID"
// @Success 201 {object} response.Envelope
// @Router /event-types/{id}/duplicate [post]
func (h *EventTypeHandler) Duplicate(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	item, err := h.service.Duplicate(c.Request.Context(), host.HostID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.EventTypeResponseFromModel(*item, host.Username))
}

// Delete godoc
// @Summary Delete event type
// @Description Event types with bookings cannot be deleted; deactivate them instead.
// @Tags EventTypes
// @Security BearerAuth
// @Param id path string true "Event type ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /event-types/{id} [delete]
func (h *EventTypeHandler) Delete(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	if err := h.service.Delete(c.Request.Context(), host.HostID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
