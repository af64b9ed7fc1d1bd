package models

import "time"

// LocationType enumerates where a meeting takes place.
type LocationType string

const (
	LocationZoom       LocationType = "zoom"
	LocationPhone      LocationType = "phone"
	LocationInPerson   LocationType = "in_person"
	LocationGoogleMeet LocationType = "google_meet"
	LocationOther      LocationType = "other"
)

// Event type field defaults and bounds.
const (
	DefaultEventDuration     = 30
	MinEventDuration         = 15
	MaxEventDuration         = 480
	DefaultEventColor        = "#8B5CF6"
	DefaultMinNoticeHours    = 4
	DefaultMaxDaysAhead      = 60
	MaxDaysAheadLimit        = 365
	DuplicateEventNameSuffix = " (Copy)"
)

// EventType is a bookable meeting template owned by a host.
type EventType struct {
	ID                  string       `db:"id" json:"id"`
	HostID              string       `db:"host_id" json:"host_id"`
	Name                string       `db:"name" json:"name"`
	Slug                string       `db:"slug" json:"slug"`
	Description         *string      `db:"description" json:"description,omitempty"`
	DurationMinutes     int          `db:"duration_minutes" json:"duration_minutes"`
	Color               string       `db:"color" json:"color"`
	LocationType        LocationType `db:"location_type" json:"location_type"`
	LocationDetails     *string      `db:"location_details" json:"location_details,omitempty"`
	BufferBeforeMinutes int          `db:"buffer_before_minutes" json:"buffer_before_minutes"`
	BufferAfterMinutes  int          `db:"buffer_after_minutes" json:"buffer_after_minutes"`
	MinNoticeHours      int          `db:"min_notice_hours" json:"min_notice_hours"`
	MaxDaysAhead        int          `db:"max_days_ahead" json:"max_days_ahead"`
	IsActive            bool         `db:"is_active" json:"is_active"`
	CreatedAt           time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time    `db:"updated_at" json:"updated_at"`
}

// Duration returns the meeting length.
func (e *EventType) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}

// EventTypeFilter captures list criteria.
type EventTypeFilter struct {
	HostID     string
	ActiveOnly bool
}
