package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// Slot is a bookable range expressed both as instants and as viewer-local clock strings.
type Slot struct {
	Start      time.Time `json:"start_time"`
	End        time.Time `json:"end_time"`
	LocalStart string    `json:"local_start"`
	LocalEnd   string    `json:"local_end"`
}

// DaySlots groups the slots offered on one viewer-local date.
type DaySlots struct {
	Date     civil.Date `json:"date"`
	Timezone string     `json:"timezone"`
	Slots    []Slot     `json:"slots"`
}
