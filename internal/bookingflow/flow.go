// Package bookingflow sequences an invitee through choosing an event type, a date and a
// time, entering their details and confirming, rejecting any action that does not fit
// the current step.
package bookingflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/slotbook-api/internal/availability"
	"github.com/noah-isme/slotbook-api/internal/dto"
	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

// State is a step of the booking flow.
type State string

const (
	SelectingEvent  State = "selecting-event"
	SelectingTime   State = "selecting-time"
	EnteringDetails State = "entering-details"
	Confirmed       State = "confirmed"
)

// Action names a user intent.
type Action string

const (
	ActionChoose      Action = "choose"
	ActionShowMonth   Action = "show-month"
	ActionPickDate    Action = "pick-date"
	ActionPickTime    Action = "pick-time"
	ActionConfirmTime Action = "confirm-time"
	ActionSubmit      Action = "submit"
	ActionBack        Action = "back"
)

// transitions lists every legal action per state and the state it leads to.
// Guards on top of the table live in the action methods.
var transitions = map[State]map[Action]State{
	SelectingEvent: {
		ActionChoose: SelectingTime,
	},
	SelectingTime: {
		ActionShowMonth:   SelectingTime,
		ActionPickDate:    SelectingTime,
		ActionPickTime:    SelectingTime,
		ActionConfirmTime: EnteringDetails,
		ActionBack:        SelectingEvent,
	},
	EnteringDetails: {
		ActionSubmit: Confirmed,
		ActionBack:   SelectingTime,
	},
	Confirmed: {},
}

// Gateway is the booking backend.
type Gateway interface {
	AvailableDates(ctx context.Context, eventTypeID string, month availability.Month, timezone string) ([]civil.Date, error)
	AvailableSlots(ctx context.Context, eventTypeID string, date civil.Date, timezone string) ([]models.Slot, error)
	CreateBooking(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
}

// Details is the invitee form.
type Details struct {
	Name   string   `validate:"required,max=100"`
	Email  string   `validate:"required,email"`
	Notes  string   `validate:"max=2000"`
	Guests []string `validate:"omitempty,max=10,dive,email"`
}

// Options configures a Flow.
type Options struct {
	// Timezone is the invitee's IANA zone; dates and clock strings are expressed in it.
	Timezone  string
	Validator *validator.Validate
	Logger    *zap.Logger
}

// Flow is one booking attempt. A confirmed flow is finished; start a new Flow to book again.
type Flow struct {
	gateway  Gateway
	validate *validator.Validate
	logger   *zap.Logger
	timezone string

	mu          sync.Mutex
	state       State
	preselected bool
	eventType   *models.EventType

	month    availability.Month
	dates    []civil.Date
	datesSeq uint64

	date     *civil.Date
	slots    []models.Slot
	slotsSeq uint64

	tentative    *models.Slot
	details      *Details
	submitting   bool
	slotRejected bool
	booking      *dto.BookingResponse
}

// NewFlow starts at event selection.
func NewFlow(gateway Gateway, opts Options) (*Flow, error) {
	if _, err := models.LoadLocation(opts.Timezone); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTimezone.Code, appErrors.ErrInvalidTimezone.Status, err.Error())
	}
	if opts.Validator == nil {
		opts.Validator = validator.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Flow{
		gateway:  gateway,
		validate: opts.Validator,
		logger:   opts.Logger,
		timezone: opts.Timezone,
		state:    SelectingEvent,
	}, nil
}

// NewFlowWithEvent starts at time selection for a preselected event type. Going back to
// event selection is not possible from such a flow.
func NewFlowWithEvent(gateway Gateway, eventType models.EventType, opts Options) (*Flow, error) {
	flow, err := NewFlow(gateway, opts)
	if err != nil {
		return nil, err
	}
	if err := flow.Choose(eventType); err != nil {
		return nil, err
	}
	flow.preselected = true
	return flow, nil
}

// State returns the current step.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Timezone returns the invitee timezone.
func (f *Flow) Timezone() string { return f.timezone }

// EventType returns the chosen event type, if any.
func (f *Flow) EventType() (models.EventType, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.eventType == nil {
		return models.EventType{}, false
	}
	return *f.eventType, true
}

// Month returns the displayed month and its bookable dates.
func (f *Flow) Month() (availability.Month, []civil.Date) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.month, append([]civil.Date(nil), f.dates...)
}

// Date returns the picked date, if any.
func (f *Flow) Date() (civil.Date, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.date == nil {
		return civil.Date{}, false
	}
	return *f.date, true
}

// Slots returns the slots of the picked date.
func (f *Flow) Slots() []models.Slot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Slot(nil), f.slots...)
}

// Selected returns the tentatively selected slot, if any.
func (f *Flow) Selected() (models.Slot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tentative == nil {
		return models.Slot{}, false
	}
	return *f.tentative, true
}

// Details returns the last submitted form, if it has not been discarded.
func (f *Flow) Details() (Details, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.details == nil {
		return Details{}, false
	}
	return *f.details, true
}

// Submitting reports whether a submission is in flight.
func (f *Flow) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// CanConfirmTime reports whether ConfirmTime would succeed.
func (f *Flow) CanConfirmTime() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == SelectingTime && f.tentative != nil
}

// CanSubmit reports whether the submit control should be enabled.
func (f *Flow) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == EnteringDetails && !f.submitting && !f.slotRejected
}

// Booking returns the confirmed booking.
func (f *Flow) Booking() (dto.BookingResponse, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.booking == nil {
		return dto.BookingResponse{}, false
	}
	return *f.booking, true
}

// Choose selects an active event type.
func (f *Flow) Choose(eventType models.EventType) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.allowed(ActionChoose); err != nil {
		return err
	}
	if !eventType.IsActive {
		return appErrors.Clone(appErrors.ErrEventInactive, fmt.Sprintf("%q is not accepting bookings", eventType.Name))
	}
	et := eventType
	f.eventType = &et
	f.state = transitions[f.state][ActionChoose]
	return nil
}

// ShowMonth loads the bookable dates of month. Only the most recently requested month is
// kept; a response for an older request is dropped.
func (f *Flow) ShowMonth(ctx context.Context, month availability.Month) error {
	f.mu.Lock()
	if err := f.allowed(ActionShowMonth); err != nil {
		f.mu.Unlock()
		return err
	}
	f.datesSeq++
	seq := f.datesSeq
	f.month = month
	f.dates = nil
	eventTypeID := f.eventType.ID
	f.mu.Unlock()

	dates, err := f.gateway.AvailableDates(ctx, eventTypeID, month, f.timezone)

	f.mu.Lock()
	defer f.mu.Unlock()
	if seq != f.datesSeq {
		f.logger.Debug("discarding stale dates response", zap.String("month", month.String()))
		return nil
	}
	if err != nil {
		f.logger.Warn("available dates fetch failed", zap.String("event_type_id", eventTypeID), zap.Error(err))
		return loadFailure(err, "could not load available dates")
	}
	f.dates = dates
	return nil
}

// PickDate selects a date, clears any tentative time and loads the date's slots. Only the
// most recently picked date's response is applied.
func (f *Flow) PickDate(ctx context.Context, date civil.Date) error {
	f.mu.Lock()
	if err := f.allowed(ActionPickDate); err != nil {
		f.mu.Unlock()
		return err
	}
	f.slotsSeq++
	seq := f.slotsSeq
	picked := date
	f.date = &picked
	f.slots = nil
	f.tentative = nil
	eventTypeID := f.eventType.ID
	f.mu.Unlock()

	slots, err := f.gateway.AvailableSlots(ctx, eventTypeID, date, f.timezone)

	f.mu.Lock()
	defer f.mu.Unlock()
	if seq != f.slotsSeq {
		f.logger.Debug("discarding stale slots response", zap.String("date", date.String()))
		return nil
	}
	if err != nil {
		f.logger.Warn("available slots fetch failed", zap.String("event_type_id", eventTypeID), zap.String("date", date.String()), zap.Error(err))
		return loadFailure(err, "could not load available times")
	}
	f.slots = slots
	return nil
}

// PickTime records a tentative slot. It must be one of the slots currently shown.
func (f *Flow) PickTime(slot models.Slot) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.allowed(ActionPickTime); err != nil {
		return err
	}
	for i := range f.slots {
		if f.slots[i].Start.Equal(slot.Start) {
			picked := f.slots[i]
			f.tentative = &picked
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrSlotUnavailable, "that time is not offered for the selected date")
}

// ConfirmTime advances to detail entry. A tentative slot is required.
func (f *Flow) ConfirmTime() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.allowed(ActionConfirmTime); err != nil {
		return err
	}
	if f.tentative == nil {
		return appErrors.Clone(appErrors.ErrInvalidState, "select a time first")
	}
	f.state = transitions[f.state][ActionConfirmTime]
	return nil
}

// Submit validates the form and creates the booking with exactly one backend call. While
// that call is in flight further submits fail with IN_FLIGHT. A rejected slot keeps the
// flow in detail entry and blocks resubmission until Back and a new time are chosen.
func (f *Flow) Submit(ctx context.Context, details Details) error {
	details.Name = strings.TrimSpace(details.Name)
	details.Email = strings.TrimSpace(details.Email)

	f.mu.Lock()
	if err := f.allowed(ActionSubmit); err != nil {
		f.mu.Unlock()
		return err
	}
	if f.submitting {
		f.mu.Unlock()
		return appErrors.Clone(appErrors.ErrInFlight, "booking is already being submitted")
	}
	if f.slotRejected {
		f.mu.Unlock()
		return appErrors.Clone(appErrors.ErrInvalidState, "go back and pick another time")
	}
	kept := details
	f.details = &kept
	if err := f.validate.Struct(details); err != nil {
		f.mu.Unlock()
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "please enter your name and a valid email address")
	}
	req := dto.CreateBookingRequest{
		EventTypeID: f.eventType.ID,
		StartTime:   f.tentative.Start.Format(time.RFC3339),
		Timezone:    f.timezone,
		Invitee:     dto.InviteeInfo{Name: details.Name, Email: details.Email},
		Guests:      details.Guests,
		Notes:       details.Notes,
	}
	f.submitting = true
	f.mu.Unlock()

	booking, err := f.gateway.CreateBooking(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false

	if err != nil {
		if appErrors.IsConflict(err) {
			f.slotRejected = true
			f.logger.Info("booking rejected", zap.String("event_type_id", req.EventTypeID), zap.String("start_time", req.StartTime), zap.Error(err))
			return err
		}
		f.logger.Warn("booking submission failed", zap.String("event_type_id", req.EventTypeID), zap.Error(err))
		if appErrors.IsValidation(err) || appErrors.IsUnauthorized(err) {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "could not complete the booking, please retry")
	}

	f.booking = &booking
	f.state = transitions[f.state][ActionSubmit]
	return nil
}

// Back returns to the previous step. Leaving detail entry discards the form; after a
// rejected slot it also discards the slot. A preselected flow cannot return to event
// selection.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.allowed(ActionBack); err != nil {
		return err
	}

	switch f.state {
	case SelectingTime:
		if f.preselected {
			return appErrors.Clone(appErrors.ErrInvalidState, "this booking page is for a single event type")
		}
		f.eventType = nil
		f.month = availability.Month{}
		f.dates = nil
		f.date = nil
		f.slots = nil
		f.tentative = nil
		f.datesSeq++
		f.slotsSeq++
	case EnteringDetails:
		if f.submitting {
			return appErrors.Clone(appErrors.ErrInFlight, "wait for the booking request to finish")
		}
		f.details = nil
		if f.slotRejected {
			f.removeSlot(f.tentative)
			f.tentative = nil
			f.slotRejected = false
		}
	}
	f.state = transitions[f.state][ActionBack]
	return nil
}

func (f *Flow) allowed(action Action) error {
	if _, ok := transitions[f.state][action]; !ok {
		return appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot %s while %s", action, f.state))
	}
	return nil
}

func (f *Flow) removeSlot(slot *models.Slot) {
	if slot == nil {
		return
	}
	kept := f.slots[:0]
	for _, s := range f.slots {
		if !s.Start.Equal(slot.Start) {
			kept = append(kept, s)
		}
	}
	f.slots = kept
}

func loadFailure(err error, message string) error {
	if appErrors.IsUnauthorized(err) || appErrors.IsValidation(err) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrLoadFailed.Code, appErrors.ErrLoadFailed.Status, message)
}
