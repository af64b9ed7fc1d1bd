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

type publicAvailabilityService interface {
	AvailableDates(ctx context.Context, query dto.AvailableDatesQuery) (*dto.AvailableDatesResponse, error)
	AvailableSlots(ctx context.Context, query dto.AvailableSlotsQuery) (*dto.AvailableSlotsResponse, error)
}

type publicBookingService interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (*dto.BookingResponse, error)
	GetPublic(ctx context.Context, id string) (*dto.BookingResponse, error)
	Invite(ctx context.Context, id string) ([]byte, error)
	CancelByInvitee(ctx context.Context, req dto.InviteeCancelRequest) (*models.Booking, error)
}

type publicPageService interface {
	HostPage(ctx context.Context, username string) (*dto.PublicHostPage, error)
	EventPage(ctx context.Context, username, slug string) (*dto.PublicEventPage, error)
}

// PublicHandler serves the unauthenticated booking surface.
type PublicHandler struct {
	availability publicAvailabilityService
	bookings     publicBookingService
	pages        publicPageService
}

// NewPublicHandler constructs the public handler.
func NewPublicHandler(availability publicAvailabilityService, bookings publicBookingService, pages publicPageService) *PublicHandler {
	return &PublicHandler{availability: availability, bookings: bookings, pages: pages}
}

// AvailableDates godoc
// @Summary Bookable dates of a month
// @Tags Public
// @Produce json
// @Param event_type_id query string true "Event type ID"
// @Param month query string true "Month (YYYY-MM)"
// @Param timezone query string false "Invitee IANA timezone"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /public/available-dates [get]
func (h *PublicHandler) AvailableDates(c *gin.Context) {
	var query dto.AvailableDatesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	dates, err := h.availability.AvailableDates(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dates)
}

// AvailableSlots godoc
// @Summary Bookable start times of a date
// @Tags Public
// @Produce json
// @Param event_type_id query string true "Event type ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param timezone query string false "Invitee IANA timezone"
// @Success 200 {object} response.Envelope
// @Router /public/slots [get]
func (h *PublicHandler) AvailableSlots(c *gin.Context) {
	var query dto.AvailableSlotsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	slots, err := h.availability.AvailableSlots(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, slots)
}

// CreateBooking godoc
// @Summary Book a slot
// @Description start_time must be a slot currently offered for the event type. A value without an offset is read in timezone.
// @Tags Public
// @Accept json
// @Produce json
// @Param payload body dto.CreateBookingRequest true "Booking"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /public/bookings [post]
func (h *PublicHandler) CreateBooking(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	booking, err := h.bookings.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// GetBooking godoc
// @Summary Get booking confirmation
// @Tags Public
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /public/bookings/{id} [get]
func (h *PublicHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookings.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, booking)
}

// BookingInvite godoc
// @Summary Download calendar invite
// @Tags Public
// @Produce text/calendar
// @Param id path string true "Booking ID"
// @Success 200 {file} file
// @Router /public/bookings/{id}/ics [get]
func (h *PublicHandler) BookingInvite(c *gin.Context) {
	id := c.Param("id")
	body, err := h.bookings.Invite(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "booking-"+id+".ics", "text/calendar; charset=utf-8", body)
}

// CancelBooking godoc
// @Summary Cancel a booking as the invitee
// @Tags Public
// @Accept json
// @Produce json
// @Param payload body dto.InviteeCancelRequest true "Signed cancel token"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /public/bookings/cancel [post]
func (h *PublicHandler) CancelBooking(c *gin.Context) {
	var req dto.InviteeCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cancel payload"))
		return
	}
	booking, err := h.bookings.CancelByInvitee(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, booking)
}

// HostPage godoc
// @Summary Public host page
// @Tags Public
// @Produce json
// @Param username path string true "Host username"
// @Success 200 {object} response.Envelope
// @Router /public/pages/{username} [get]
func (h *PublicHandler) HostPage(c *gin.Context) {
	page, err := h.pages.HostPage(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}

// EventPage godoc
// @Summary Public event type page
// @Tags Public
// @Produce json
// @Param username path string true "Host username"
// @Param slug path string true "Event type slug"
// @Success 200 {object} response.Envelope
// @Router /public/pages/{username}/{slug} [get]
func (h *PublicHandler) EventPage(c *gin.Context) {
	page, err := h.pages.EventPage(c.Request.Context(), c.Param("username"), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, page)
}
