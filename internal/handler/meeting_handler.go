package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/slotbook-api/internal/dto"
	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
	"github.com/noah-isme/slotbook-api/pkg/export"
	"github.com/noah-isme/slotbook-api/pkg/response"
)

type meetingService interface {
	ListMeetings(ctx context.Context, hostID string, query dto.MeetingListQuery) ([]models.Meeting, *models.Pagination, error)
	GetMeeting(ctx context.Context, hostID, id string) (*models.Meeting, error)
	CancelByHost(ctx context.Context, hostID, id string, req dto.CancelBookingRequest) (*models.Meeting, error)
	SaveNote(ctx context.Context, hostID, id string, req dto.MeetingNoteRequest) (*models.MeetingNote, error)
	DeleteNote(ctx context.Context, hostID, id string) error
	ExportMeetings(ctx context.Context, hostID, status, format string) ([]byte, error)
}

// MeetingHandler exposes the host's booked meetings.
type MeetingHandler struct {
	service meetingService
}

// NewMeetingHandler constructs the meeting handler.
func NewMeetingHandler(service meetingService) *MeetingHandler {
	return &MeetingHandler{service: service}
}

// List godoc
// @Summary List meetings
// @Tags Meetings
// @Produce json
// @Security BearerAuth
// @Param status query string false "upcoming, past or all"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /meetings [get]
func (h *MeetingHandler) List(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	var query dto.MeetingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	meetings, pagination, err := h.service.ListMeetings(c.Request.Context(), host.HostID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meetings, pagination)
}

// ExportCSV godoc
// @Summary Export meetings as CSV
// @Tags Meetings
// @Produce text/csv
// @Security BearerAuth
// @Param status query string false "upcoming, past or all"
// @Success 200 {file} file
// @Router /meetings/export.csv [get]
func (h *MeetingHandler) ExportCSV(c *gin.Context) {
	h.export(c, export.FormatCSV, "text/csv; charset=utf-8")
}

// ExportPDF godoc
// @Summary Export meetings as PDF
// @Tags Meetings
// @Produce application/pdf
// @Security BearerAuth
// @Param status query string false "upcoming, past or all"
// @Success 200 {file} file
// @Router /meetings/export.pdf [get]
func (h *MeetingHandler) ExportPDF(c *gin.Context) {
	h.export(c, export.FormatPDF, "application/pdf")
}

func (h *MeetingHandler) export(c *gin.Context, format, contentType string) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	body, err := h.service.ExportMeetings(c.Request.Context(), host.HostID, c.Query("status"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("meetings-%s.%s", time.Now().UTC().Format("20060102"), format)
	response.Attachment(c, filename, contentType, body)
}

// Get godoc
// @Summary Get meeting
// @Tags Meetings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /meetings/{id} [get]
func (h *MeetingHandler) Get(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	meeting, err := h.service.GetMeeting(c.Request.Context(), host.HostID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, meeting)
}

// Cancel godoc
// @Summary Cancel meeting
// @Tags Meetings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param payload body dto.CancelBookingRequest false "Reason"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /meetings/{id}/cancel [post]
func (h *MeetingHandler) Cancel(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	var req dto.CancelBookingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cancel payload"))
			return
		}
	}
	meeting, err := h.service.CancelByHost(c.Request.Context(), host.HostID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, meeting)
}

// SaveNote godoc
// @Summary Save meeting note
// @Tags Meetings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param payload body dto.MeetingNoteRequest true "Note"
// @Success 200 {object} response.Envelope
// @Router /meetings/{id}/notes [put]
func (h *MeetingHandler) SaveNote(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	var req dto.MeetingNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid note payload"))
		return
	}
	note, err := h.service.SaveNote(c.Request.Context(), host.HostID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, note)
}

// DeleteNote godoc
// @Summary Delete meeting note
// @Tags Meetings
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 204
// @Router /meetings/{id}/notes [delete]
func (h *MeetingHandler) DeleteNote(c *gin.Context) {
	host := hostFromContext(c)
	if host == nil {
		return
	}
	if err := h.service.DeleteNote(c.Request.Context(), host.HostID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
