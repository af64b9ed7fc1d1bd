package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/slotbook-api/internal/dto"
	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
	"github.com/noah-isme/slotbook-api/pkg/export"
	"github.com/noah-isme/slotbook-api/pkg/response"
)

const (
	defaultFeedDays = 28
	maxFeedDays     = 365
)

type scheduleService interface {
	Get(ctx context.Context, hostID, scheduleID string) (*models.WeeklySchedule, error)
	List(ctx context.Context, hostID string) ([]models.ScheduleSummary, error)
	Create(ctx context.Context, hostID string, req dto.CreateScheduleRequest) (*models.WeeklySchedule, error)
	Replace(ctx context.Context, hostID string, req dto.UpdateScheduleRequest) (*models.WeeklySchedule, error)
	UpdateTimezone(ctx context.Context, hostID, scheduleID string, req dto.TimezoneRequest) (*models.WeeklySchedule, error)
	UpsertOverride(ctx context.Context, hostID string, req dto.DateOverrideRequest) (*models.DateOverride, error)
	ListOverrides(ctx context.Context, hostID string, query dto.DateOverrideQuery) ([]models.DateOverride, error)
	DeleteOverride(ctx context.Context, hostID, id string) error
}

// AvailabilityHandler exposes the host's weekly hours and date overrides.
type AvailabilityHandler struct {
	service scheduleService
	now     func() time.Time
}

// NewAvailabilityHandler constructs the availability handler.
func NewAvailabilityHandler(service scheduleService) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, now: time.Now}
}

// GetSchedule godoc
// @Summary Get weekly schedule
// @Description Returns the default schedule, or the one named by schedule_id. A host without a schedule gets the Monday to Friday 09:00-17:00 default.
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Param schedule_id query string false "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /availability/schedule [get]
func (h *AvailabilityHandler) GetSchedule(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	schedule, err := h.service.Get(c.Request.Context(), host.HostID, c.Query("schedule_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ScheduleFromModel(*schedule))
}

// ReplaceSchedule godoc
// @Summary Replace weekly schedule
// @Tags Availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpdateScheduleRequest true "Weekly hours"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /availability/schedule [put]
func (h *AvailabilityHandler) ReplaceSchedule(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	schedule, err := h.service.Replace(c.Request.Context(), host.HostID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ScheduleFromModel(*schedule))
}

// UpdateTimezone godoc
// @Summary Change schedule timezone
// @Tags Availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param schedule_id query string false "Schedule ID"
// @Param payload body dto.TimezoneRequest true "IANA timezone"
// @Success 200 {object} response.Envelope
// @Router /availability/schedule/timezone [patch]
func (h *AvailabilityHandler) UpdateTimezone(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	var req dto.TimezoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timezone payload"))
		return
	}
	schedule, err := h.service.UpdateTimezone(c.Request.Context(), host.HostID, c.Query("schedule_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ScheduleFromModel(*schedule))
}

// ListSchedules godoc
// @Summary List schedules
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /availability/schedules [get]
func (h *AvailabilityHandler) ListSchedules(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	schedules, err := h.service.List(c.Request.Context(), host.HostID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schedules)
}

// CreateSchedule godoc
// @Summary Create schedule
// @Tags Availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateScheduleRequest true "Schedule"
// @Success 201 {object} response.Envelope
// @Router /availability/schedules [post]
func (h *AvailabilityHandler) CreateSchedule(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	schedule, err := h.service.Create(c.Request.Context(), host.HostID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ScheduleFromModel(*schedule))
}

// ListOverrides godoc
// @Summary List date overrides
// @Tags Availability
// @Produce json
// @Security BearerAuth
// @Param schedule_id query string false "Schedule ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /availability/date-overrides [get]
func (h *AvailabilityHandler) ListOverrides(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	var query dto.DateOverrideQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	overrides, err := h.service.ListOverrides(c.Request.Context(), host.HostID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := make([]dto.DateOverrideResponse, 0, len(overrides))
	for _, override := range overrides {
		out = append(out, dto.DateOverrideFromModel(override))
	}
	response.OK(c, out)
}

// UpsertOverride godoc
// @Summary Set the hours of one date
// @Description Replaces any existing override for the date. An empty interval list blocks the whole day.
// @Tags Availability
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.DateOverrideRequest true "Override"
// @Success 200 {object} response.Envelope
// @Router /availability/date-overrides [post]
func (h *AvailabilityHandler) UpsertOverride(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	var req dto.DateOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid override payload"))
		return
	}
	override, err := h.service.UpsertOverride(c.Request.Context(), host.HostID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.DateOverrideFromModel(*override))
}

// DeleteOverride godoc
// @Summary Delete date override
// @Tags Availability
// @Security BearerAuth
// @Param id path string true "Override ID"
// @Success 204
// @Router /availability/date-overrides/{id} [delete]
func (h *AvailabilityHandler) DeleteOverride(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	if err := h.service.DeleteOverride(c.Request.Context(), host.HostID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Feed godoc
// @Summary Availability calendar feed
// @Description Expands the schedule and its overrides into free windows for the next days.
// @Tags Availability
// @Produce text/calendar
// @Security BearerAuth
// @Param schedule_id query string false "Schedule ID"
// @Param days query int false "Days ahead (default 28, max 365)"
// @Success 200 {file} file
// @Router /availability/schedule.ics [get]
func (h *AvailabilityHandler) Feed(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	days := defaultFeedDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxFeedDays {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "days must be between 1 and 365"))
			return
		}
		days = parsed
	}

	ctx := c.Request.Context()
	scheduleID := c.Query("schedule_id")
	schedule, err := h.service.Get(ctx, host.HostID, scheduleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	from := h.now()
	to := from.AddDate(0, 0, days)
	overrides, err := h.service.ListOverrides(ctx, host.HostID, dto.DateOverrideQuery{
		ScheduleID: schedule.ID,
		From:       from.UTC().AddDate(0, 0, -1).Format("2006-01-02"),
		To:         to.UTC().AddDate(0, 0, 1).Format("2006-01-02"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	body, err := export.AvailabilityFeed(*schedule, overrides, from, to)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render availability feed"))
		return
	}
	response.Attachment(c, "availability.ics", "text/calendar; charset=utf-8", body)
}
