package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/slotbook-api/internal/models"
)

// InviteeInfo identifies the person booking.
type InviteeInfo struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Email string `json:"email" validate:"required,email"`
}

// CreateBookingRequest books one slot. StartTime is RFC3339; a value without an offset
// is read as wall-clock time in Timezone.
type CreateBookingRequest struct {
	EventTypeID string      `json:"event_type_id" validate:"required"`
	StartTime   string      `json:"start_time" validate:"required"`
	Timezone    string      `json:"timezone" validate:"required,max=50"`
	Invitee     InviteeInfo `json:"invitee"`
	Guests      []string    `json:"guests" validate:"omitempty,max=10,dive,email"`
	Notes       string      `json:"notes" validate:"omitempty,max=2000"`
}

// naiveLayouts are accepted when the start time carries no offset.
var naiveLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"}

// ParseStartTime resolves an instant, reading offset-less values in loc.
func ParseStartTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("start_time %q is not an ISO 8601 timestamp", raw)
}

// BookingResponse is a booking plus the invitee's self-service cancel token.
type BookingResponse struct {
	models.Booking
	EventTypeName string     `json:"event_type_name,omitempty"`
	CancelToken   string     `json:"cancel_token,omitempty"`
	CancelExpires *time.Time `json:"cancel_token_expires_at,omitempty"`
}

// CancelBookingRequest carries an optional cancellation reason.
type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// InviteeCancelRequest cancels through a signed link token.
type InviteeCancelRequest struct {
	Token  string `json:"token" validate:"required"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// MeetingNoteRequest upserts a meeting note.
type MeetingNoteRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

// MeetingListQuery filters the host meeting list.
type MeetingListQuery struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// AvailableDatesQuery asks for the bookable dates of one month.
type AvailableDatesQuery struct {
	EventTypeID string `form:"event_type_id" validate:"required"`
	Month       string `form:"month" validate:"required,datetime=2006-01"`
	Timezone    string `form:"timezone"`
}

// AvailableSlotsQuery asks for the bookable start times of one date.
type AvailableSlotsQuery struct {
	EventTypeID string `form:"event_type_id" validate:"required"`
	Date        string `form:"date" validate:"required,datetime=2006-01-02"`
	Timezone    string `form:"timezone"`
}

// AvailableDatesResponse lists ISO dates.
type AvailableDatesResponse struct {
	Month    string   `json:"month"`
	Timezone string   `json:"timezone"`
	Dates    []string `json:"dates"`
}

// SlotDTO is one slot on the wire.
type SlotDTO struct {
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	LocalStart string    `json:"local_start"`
	LocalEnd   string    `json:"local_end"`
}

// AvailableSlotsResponse lists the slots of one date.
type AvailableSlotsResponse struct {
	Date     string    `json:"date"`
	Timezone string    `json:"timezone"`
	Slots    []SlotDTO `json:"slots"`
}

// SlotsFromModel converts generator output.
func SlotsFromModel(slots []models.Slot) []SlotDTO {
	out := make([]SlotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, SlotDTO{StartTime: slot.Start, EndTime: slot.End, LocalStart: slot.LocalStart, LocalEnd: slot.LocalEnd})
	}
	return out
}
