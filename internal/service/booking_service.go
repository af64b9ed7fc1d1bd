package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/slotbook-api/internal/dto"
	"github.com/noah-isme/slotbook-api/internal/models"
	"github.com/noah-isme/slotbook-api/internal/repository"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
	"github.com/noah-isme/slotbook-api/pkg/export"
	"github.com/noah-isme/slotbook-api/pkg/linktoken"
)

type bookingRepository interface {
	CreateIfFree(ctx context.Context, booking *models.Booking, blockStart, blockEnd time.Time) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	FindMeeting(ctx context.Context, hostID, id string) (*models.Meeting, error)
	ListMeetings(ctx context.Context, filter models.BookingFilter) ([]models.Meeting, int, error)
	Cancel(ctx context.Context, id string, by models.CancelledBy, reason *string, at time.Time) error
	UpsertNote(ctx context.Context, note *models.MeetingNote) error
	DeleteNote(ctx context.Context, bookingID string) error
}

type slotOfferer interface {
	Offered(ctx context.Context, eventTypeID string, viewer *time.Location, start time.Time) (*models.EventType, models.Slot, bool, error)
}

type hostFinder interface {
	FindByID(ctx context.Context, id string) (*models.Host, error)
}

type cancelLinkSigner interface {
	Generate(bookingID, email string) (string, time.Time, error)
	Parse(token string) (linktoken.Claims, error)
}

// exportPageSize is the page size used when walking every meeting for an export.
const exportPageSize = 100

// meetingPDFColumns is the subset that fits a landscape page.
var meetingPDFColumns = []string{"event_type", "invitee_name", "invitee_email", "start_time", "timezone", "status", "note"}

var meetingExportHeaders = []string{"id", "event_type", "invitee_name", "invitee_email", "start_time", "end_time", "timezone", "status", "cancelled_by", "cancel_reason", "guests", "note"}

// BookingService creates bookings and serves the host's meetings.
type BookingService struct {
	repo        bookingRepository
	slots       slotOfferer
	eventTypes  eventTypeFinder
	hosts       hostFinder
	signer      cancelLinkSigner
	invalidator availabilityInvalidator
	metrics     *MetricsService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// BookingServiceDeps groups the collaborators of BookingService.
type BookingServiceDeps struct {
	Repo        bookingRepository
	Slots       slotOfferer
	EventTypes  eventTypeFinder
	Hosts       hostFinder
	Signer      cancelLinkSigner
	Invalidator availabilityInvalidator
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
	Now         func() time.Time
}

// NewBookingService constructs the service.
func NewBookingService(deps BookingServiceDeps) *BookingService {
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &BookingService{
		repo:        deps.Repo,
		slots:       deps.Slots,
		eventTypes:  deps.EventTypes,
		hosts:       deps.Hosts,
		signer:      deps.Signer,
		invalidator: deps.Invalidator,
		metrics:     deps.Metrics,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(meetingPDFColumns...),
		validator:   deps.Validator,
		logger:      deps.Logger,
		now:         deps.Now,
	}
}

// Create books a slot. The start must be a slot the generator offers right now, and the
// insert re-checks overlap under a per-host lock so two invitees cannot take the same time.
func (s *BookingService) Create(ctx context.Context, req dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	loc, err := models.LoadLocation(strings.TrimSpace(req.Timezone))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTimezone.Code, appErrors.ErrInvalidTimezone.Status, err.Error())
	}
	start, err := dto.ParseStartTime(req.StartTime, loc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	eventType, slot, ok, err := s.slots.Offered(ctx, req.EventTypeID, loc, start)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.metrics.RecordBooking(BookingOutcomeConflict)
		return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "this time is no longer available, please pick another slot")
	}

	booking := &models.Booking{
		EventTypeID:     eventType.ID,
		HostID:          eventType.HostID,
		InviteeName:     strings.TrimSpace(req.Invitee.Name),
		InviteeEmail:    strings.ToLower(strings.TrimSpace(req.Invitee.Email)),
		InviteeNotes:    trimmedOrNil(&req.Notes),
		Guests:          normalizeGuests(req.Guests),
		StartTime:       slot.Start.UTC(),
		EndTime:         slot.End.UTC(),
		DurationMinutes: eventType.DurationMinutes,
		Timezone:        loc.String(),
		Status:          models.BookingScheduled,
	}
	blockStart := booking.StartTime.Add(-time.Duration(eventType.BufferBeforeMinutes) * time.Minute)
	blockEnd := booking.EndTime.Add(time.Duration(eventType.BufferAfterMinutes) * time.Minute)

	if err := s.repo.CreateIfFree(ctx, booking, blockStart, blockEnd); err != nil {
		if errors.Is(err, repository.ErrBookingOverlap) {
			s.metrics.RecordBooking(BookingOutcomeConflict)
			s.logger.Info("booking rejected, slot taken",
				zap.String("event_type_id", eventType.ID),
				zap.Time("start_time", booking.StartTime))
			return nil, appErrors.Clone(appErrors.ErrSlotUnavailable, "this time was just booked, please pick another slot")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}
	s.metrics.RecordBooking(BookingOutcomeCreated)
	s.invalidator.HostChanged(ctx, booking.HostID)
	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("host_id", booking.HostID),
		zap.Time("start_time", booking.StartTime))

	resp := &dto.BookingResponse{Booking: *booking, EventTypeName: eventType.Name}
	if s.signer != nil {
		token, expires, err := s.signer.Generate(booking.ID, booking.InviteeEmail)
		if err != nil {
			s.logger.Warn("cancel link not issued", zap.String("booking_id", booking.ID), zap.Error(err))
		} else {
			resp.CancelToken = token
			resp.CancelExpires = &expires
		}
	}
	return resp, nil
}

// GetPublic returns the confirmation view of a booking.
func (s *BookingService) GetPublic(ctx context.Context, id string) (*dto.BookingResponse, error) {
	booking, err := s.booking(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := &dto.BookingResponse{Booking: *booking}
	if eventType, err := s.eventTypes.FindByID(ctx, booking.EventTypeID); err == nil {
		resp.EventTypeName = eventType.Name
	}
	return resp, nil
}

// ListMeetings returns a page of the host's meetings.
func (s *BookingService) ListMeetings(ctx context.Context, hostID string, query dto.MeetingListQuery) ([]models.Meeting, *models.Pagination, error) {
	scope, err := meetingScope(query.Status)
	if err != nil {
		return nil, nil, err
	}
	filter := models.BookingFilter{HostID: hostID, Scope: scope, Now: s.now(), Page: query.Page, PageSize: query.PageSize}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	meetings, total, err := s.repo.ListMeetings(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list meetings")
	}
	if meetings == nil {
		meetings = []models.Meeting{}
	}
	return meetings, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// GetMeeting returns one of the host's meetings.
func (s *BookingService) GetMeeting(ctx context.Context, hostID, id string) (*models.Meeting, error) {
	meeting, err := s.repo.FindMeeting(ctx, hostID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "meeting not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrLoadFailed.Code, appErrors.ErrLoadFailed.Status, "failed to load meeting")
	}
	return meeting, nil
}

// CancelByHost cancels one of the host's meetings.
func (s *BookingService) CancelByHost(ctx context.Context, hostID, id string, req dto.CancelBookingRequest) (*models.Meeting, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancel payload")
	}
	meeting, err := s.GetMeeting(ctx, hostID, id)
	if err != nil {
		return nil, err
	}
	if err := s.cancel(ctx, &meeting.Booking, models.CancelledByHost, req.Reason); err != nil {
		return nil, err
	}
	return meeting, nil
}

// CancelByInvitee cancels through the signed link handed out at booking time. The token
// must match the booking's invitee e-mail.
func (s *BookingService) CancelByInvitee(ctx context.Context, req dto.InviteeCancelRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancel payload")
	}
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cancel links are disabled")
	}
	claims, err := s.signer.Parse(strings.TrimSpace(req.Token))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "cancel link is invalid or expired")
	}
	booking, err := s.booking(ctx, claims.BookingID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(booking.InviteeEmail, claims.Email) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cancel link does not match this booking")
	}
	if err := s.cancel(ctx, booking, models.CancelledByInvitee, req.Reason); err != nil {
		return nil, err
	}
	return booking, nil
}

// SaveNote stores the host's private note on a meeting.
func (s *BookingService) SaveNote(ctx context.Context, hostID, id string, req dto.MeetingNoteRequest) (*models.MeetingNote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "note must not be blank")
	}
	if _, err := s.GetMeeting(ctx, hostID, id); err != nil {
		return nil, err
	}
	note := &models.MeetingNote{BookingID: id, Content: content}
	if err := s.repo.UpsertNote(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save note")
	}
	return note, nil
}

// DeleteNote removes the host's note from a meeting.
func (s *BookingService) DeleteNote(ctx context.Context, hostID, id string) error {
	if _, err := s.GetMeeting(ctx, hostID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteNote(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "note not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete note")
	}
	return nil
}

// ExportMeetings renders every meeting in the scope as CSV or PDF.
func (s *BookingService) ExportMeetings(ctx context.Context, hostID, status, format string) ([]byte, error) {
	scope, err := meetingScope(status)
	if err != nil {
		return nil, err
	}
	if format != export.FormatCSV && format != export.FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	dataset := export.Dataset{Headers: meetingExportHeaders}
	now := s.now()
	for page := 1; ; page++ {
		meetings, total, err := s.repo.ListMeetings(ctx, models.BookingFilter{HostID: hostID, Scope: scope, Now: now, Page: page, PageSize: exportPageSize})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export meetings")
		}
		for _, meeting := range meetings {
			dataset.Rows = append(dataset.Rows, meetingRow(meeting))
		}
		if len(meetings) == 0 || page*exportPageSize >= total {
			break
		}
	}
	var body []byte
	if format == export.FormatPDF {
		body, err = s.pdf.Render(dataset, "Meetings")
	} else {
		body, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return body, nil
}

// Invite renders the booking as an iCalendar invite; a cancelled booking renders a CANCEL.
func (s *BookingService) Invite(ctx context.Context, id string) ([]byte, error) {
	booking, err := s.booking(ctx, id)
	if err != nil {
		return nil, err
	}
	inv := export.Invite{
		UID:           booking.ID + "@slotbook",
		Summary:       "Meeting",
		Start:         booking.StartTime,
		End:           booking.EndTime,
		AttendeeName:  booking.InviteeName,
		AttendeeEmail: booking.InviteeEmail,
		Guests:        booking.Guests,
		Cancelled:     !booking.Active(),
		Stamp:         booking.UpdatedAt,
	}
	if booking.InviteeNotes != nil {
		inv.Description = *booking.InviteeNotes
	}
	if eventType, err := s.eventTypes.FindByID(ctx, booking.EventTypeID); err == nil {
		inv.Summary = eventType.Name
		inv.Location = string(eventType.LocationType)
		if eventType.LocationDetails != nil {
			inv.Location = *eventType.LocationDetails
		}
	}
	if s.hosts != nil {
		if host, err := s.hosts.FindByID(ctx, booking.HostID); err == nil {
			inv.OrganizerName = host.Name
			inv.OrganizerEmail = host.Email
			inv.Summary = fmt.Sprintf("%s with %s", inv.Summary, host.Name)
		}
	}
	body, err := export.RenderInvite(inv)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render invite")
	}
	return body, nil
}

func (s *BookingService) booking(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrLoadFailed.Code, appErrors.ErrLoadFailed.Status, "failed to load booking")
	}
	return booking, nil
}

// cancel marks booking cancelled and updates it in place.
func (s *BookingService) cancel(ctx context.Context, booking *models.Booking, by models.CancelledBy, reason string) error {
	if !booking.Active() {
		return appErrors.Clone(appErrors.ErrAlreadyCancelled, "")
	}
	at := s.now().UTC()
	note := trimmedOrNil(&reason)
	if err := s.repo.Cancel(ctx, booking.ID, by, note, at); err != nil {
		if errors.Is(err, repository.ErrBookingNotActive) {
			return appErrors.Clone(appErrors.ErrAlreadyCancelled, "")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel booking")
	}
	booking.Status = models.BookingCancelled
	booking.CancelledBy = &by
	booking.CancelReason = note
	booking.CancelledAt = &at
	booking.UpdatedAt = at

	s.metrics.RecordBooking(BookingOutcomeCancelled)
	s.invalidator.HostChanged(ctx, booking.HostID)
	s.logger.Info("booking cancelled", zap.String("booking_id", booking.ID), zap.String("cancelled_by", string(by)))
	return nil
}

func meetingScope(status string) (models.MeetingScope, error) {
	switch scope := models.MeetingScope(strings.ToLower(strings.TrimSpace(status))); scope {
	case "":
		return models.MeetingsUpcoming, nil
	case models.MeetingsUpcoming, models.MeetingsPast, models.MeetingsAll:
		return scope, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "status must be upcoming, past or all")
	}
}

func meetingRow(meeting models.Meeting) map[string]string {
	row := map[string]string{
		"id":            meeting.ID,
		"event_type":    meeting.EventTypeName,
		"invitee_name":  meeting.InviteeName,
		"invitee_email": meeting.InviteeEmail,
		"start_time":    meeting.StartTime.UTC().Format(time.RFC3339),
		"end_time":      meeting.EndTime.UTC().Format(time.RFC3339),
		"timezone":      meeting.Timezone,
		"status":        string(meeting.Status),
		"guests":        strings.Join(meeting.Guests, ";"),
	}
	if meeting.CancelledBy != nil {
		row["cancelled_by"] = string(*meeting.CancelledBy)
	}
	if meeting.CancelReason != nil {
		row["cancel_reason"] = *meeting.CancelReason
	}
	if meeting.Note != nil {
		row["note"] = *meeting.Note
	}
	return row
}

func normalizeGuests(guests []string) []string {
	out := make([]string, 0, len(guests))
	seen := make(map[string]struct{}, len(guests))
	for _, guest := range guests {
		email := strings.ToLower(strings.TrimSpace(guest))
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}
