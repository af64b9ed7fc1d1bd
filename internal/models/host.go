package models

import "time"

// Host owns schedules, event types and bookings. Identity itself is managed externally.
type Host struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Timezone  string    `db:"timezone" json:"timezone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PublicHost is what invitees see on a booking page.
type PublicHost struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// Public strips private fields.
func (h *Host) Public() PublicHost {
	return PublicHost{Username: h.Username, Name: h.Name, Timezone: h.Timezone}
}
