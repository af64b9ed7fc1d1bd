package dto

import "github.com/noah-isme/slotbook-api/internal/models"

// CreateEventTypeRequest creates an event type; zero values take the documented defaults.
type CreateEventTypeRequest struct {
	Name                string  `json:"name" validate:"required,min=1,max=100"`
	Slug                string  `json:"slug" validate:"omitempty,max=100"`
	Description         *string `json:"description" validate:"omitempty,max=2000"`
	DurationMinutes     int     `json:"duration_minutes" validate:"omitempty,min=15,max=480"`
	Color               string  `json:"color" validate:"omitempty,hexcolor,len=7"`
	LocationType        string  `json:"location_type" validate:"omitempty,oneof=zoom phone in_person google_meet other"`
	LocationDetails     *string `json:"location_details" validate:"omitempty,max=500"`
	BufferBeforeMinutes int     `json:"buffer_before_minutes" validate:"min=0,max=240"`
	BufferAfterMinutes  int     `json:"buffer_after_minutes" validate:"min=0,max=240"`
	MinNoticeHours      *int    `json:"min_notice_hours" validate:"omitempty,min=0,max=720"`
	MaxDaysAhead        int     `json:"max_days_ahead" validate:"omitempty,min=1,max=365"`
	IsActive            *bool   `json:"is_active"`
}

// UpdateEventTypeRequest patches the provided fields only.
type UpdateEventTypeRequest struct {
	Name                *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description         *string `json:"description" validate:"omitempty,max=2000"`
	DurationMinutes     *int    `json:"duration_minutes" validate:"omitempty,min=15,max=480"`
	Color               *string `json:"color" validate:"omitempty,hexcolor,len=7"`
	LocationType        *string `json:"location_type" validate:"omitempty,oneof=zoom phone in_person google_meet other"`
	LocationDetails     *string `json:"location_details" validate:"omitempty,max=500"`
	BufferBeforeMinutes *int    `json:"buffer_before_minutes" validate:"omitempty,min=0,max=240"`
	BufferAfterMinutes  *int    `json:"buffer_after_minutes" validate:"omitempty,min=0,max=240"`
	MinNoticeHours      *int    `json:"min_notice_hours" validate:"omitempty,min=0,max=720"`
	MaxDaysAhead        *int    `json:"max_days_ahead" validate:"omitempty,min=1,max=365"`
	IsActive            *bool   `json:"is_active"`
}

// PublicEventType is the invitee-facing subset of an event type.
type PublicEventType struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Slug            string              `json:"slug"`
	Description     *string             `json:"description,omitempty"`
	DurationMinutes int                 `json:"duration_minutes"`
	Color           string              `json:"color"`
	LocationType    models.LocationType `json:"location_type"`
	MaxDaysAhead    int                 `json:"max_days_ahead"`
}

// PublicEventTypeFromModel strips host-only fields.
func PublicEventTypeFromModel(et models.EventType) PublicEventType {
	return PublicEventType{
		ID:              et.ID,
		Name:            et.Name,
		Slug:            et.Slug,
		Description:     et.Description,
		DurationMinutes: et.DurationMinutes,
		Color:           et.Color,
		LocationType:    et.LocationType,
		MaxDaysAhead:    et.MaxDaysAhead,
	}
}

// PublicHostPage lists a host's active event types.
type PublicHostPage struct {
	Host       models.PublicHost `json:"host"`
	EventTypes []PublicEventType `json:"event_types"`
}

// PublicEventPage describes one bookable event type.
type PublicEventPage struct {
	Host      models.PublicHost `json:"host"`
	EventType PublicEventType   `json:"event_type"`
}

// EventTypeResponse is the host view of an event type with its public booking path.
type EventTypeResponse struct {
	models.EventType
	BookingURL string `json:"booking_url"`
}

// EventTypeResponseFromModel attaches the "/{username}/{slug}" booking path.
func EventTypeResponseFromModel(et models.EventType, username string) EventTypeResponse {
	return EventTypeResponse{EventType: et, BookingURL: "/" + username + "/" + et.Slug}
}

// EventTypeListQuery filters the host's event types.
type EventTypeListQuery struct {
	ActiveOnly bool `form:"active_only"`
}
