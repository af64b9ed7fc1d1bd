package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/slotbook-api/internal/availability"
	"github.com/noah-isme/slotbook-api/internal/dto"
	"github.com/noah-isme/slotbook-api/internal/models"
	"github.com/noah-isme/slotbook-api/internal/repository"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

type eventTypeFinder interface {
	FindByID(ctx context.Context, id string) (*models.EventType, error)
}

type availabilityScheduleReader interface {
	GetDefault(ctx context.Context, hostID string) (*models.WeeklySchedule, error)
	ListOverrides(ctx context.Context, scheduleID string, from, to civil.Date) ([]models.DateOverride, error)
}

type busyRangeReader interface {
	ListBusy(ctx context.Context, hostID string, from, to time.Time) ([]models.BusyRange, error)
}

// AvailabilityServiceConfig carries slot generation defaults.
type AvailabilityServiceConfig struct {
	DefaultTimezone     string
	DefaultMaxDaysAhead int
	CacheTTL            time.Duration
	// Now overrides the clock in tests.
	Now func() time.Time
}

// AvailabilityService answers the public dates and slots queries.
type AvailabilityService struct {
	eventTypes eventTypeFinder
	schedules  availabilityScheduleReader
	bookings   busyRangeReader
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        AvailabilityServiceConfig
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(eventTypes eventTypeFinder, schedules availabilityScheduleReader, bookings busyRangeReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg AvailabilityServiceConfig) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "UTC"
	}
	if cfg.DefaultMaxDaysAhead <= 0 {
		cfg.DefaultMaxDaysAhead = models.DefaultMaxDaysAhead
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AvailabilityService{
		eventTypes: eventTypes,
		schedules:  schedules,
		bookings:   bookings,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
}

// AvailableDates lists the dates of a month that offer at least one slot, in the viewer's timezone.
func (s *AvailabilityService) AvailableDates(ctx context.Context, query dto.AvailableDatesQuery) (*dto.AvailableDatesResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid available dates query")
	}
	month, err := availability.ParseMonth(query.Month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	eventType, err := s.activeEventType(ctx, query.EventTypeID)
	if err != nil {
		return nil, err
	}
	viewer, err := viewerLocation(query.Timezone)
	if err != nil {
		return nil, err
	}

	var cached dto.AvailableDatesResponse
	key := repository.AvailabilityKey(eventType.HostID, "dates", eventType.ID, month.String(), zoneName(viewer, query.Timezone))
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	first := month.First()
	last := first.AddDays(len(month.Days()) - 1)
	params, err := s.params(ctx, eventType, viewer, first, last)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	dates, err := availability.AvailableDates(params, month)
	s.metrics.ObserveSlotGeneration("dates", time.Since(start))
	if err != nil {
		return nil, err
	}

	resp := &dto.AvailableDatesResponse{
		Month:    month.String(),
		Timezone: params.Viewer.String(),
		Dates:    make([]string, 0, len(dates)),
	}
	for _, date := range dates {
		resp.Dates = append(resp.Dates, date.String())
	}
	s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	return resp, nil
}

// AvailableSlots lists the bookable start times of one viewer-local date.
func (s *AvailabilityService) AvailableSlots(ctx context.Context, query dto.AvailableSlotsQuery) (*dto.AvailableSlotsResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid available slots query")
	}
	date, err := dto.ParseDate(query.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	eventType, err := s.activeEventType(ctx, query.EventTypeID)
	if err != nil {
		return nil, err
	}
	viewer, err := viewerLocation(query.Timezone)
	if err != nil {
		return nil, err
	}

	var cached dto.AvailableSlotsResponse
	key := repository.AvailabilityKey(eventType.HostID, "slots", eventType.ID, date.String(), zoneName(viewer, query.Timezone))
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	params, err := s.params(ctx, eventType, viewer, date, date)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	slots, err := availability.SlotsForDate(params, date)
	s.metrics.ObserveSlotGeneration("slots", time.Since(start))
	if err != nil {
		return nil, err
	}

	resp := &dto.AvailableSlotsResponse{
		Date:     date.String(),
		Timezone: params.Viewer.String(),
		Slots:    dto.SlotsFromModel(slots),
	}
	s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	return resp, nil
}

// Offered resolves an active event type and reports whether start is exactly a slot
// the generator offers right now. It always reads fresh data.
func (s *AvailabilityService) Offered(ctx context.Context, eventTypeID string, viewer *time.Location, start time.Time) (*models.EventType, models.Slot, bool, error) {
	eventType, err := s.activeEventType(ctx, eventTypeID)
	if err != nil {
		return nil, models.Slot{}, false, err
	}
	if viewer == nil {
		viewer = time.UTC
	}
	date := civil.DateOf(start.In(viewer))
	params, err := s.params(ctx, eventType, viewer, date, date)
	if err != nil {
		return nil, models.Slot{}, false, err
	}
	slot, ok, err := availability.FindSlot(params, start)
	if err != nil {
		return nil, models.Slot{}, false, err
	}
	return eventType, slot, ok, nil
}

func (s *AvailabilityService) activeEventType(ctx context.Context, id string) (*models.EventType, error) {
	eventType, err := s.eventTypes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrLoadFailed.Code, appErrors.ErrLoadFailed.Status, "failed to load event type")
	}
	if !eventType.IsActive {
		return nil, appErrors.Clone(appErrors.ErrEventInactive, "event type is not accepting bookings")
	}
	return eventType, nil
}

// params gathers every generator input covering the viewer dates [from, to]. Neighbouring
// days are included because a viewer date can map to two host dates.
func (s *AvailabilityService) params(ctx context.Context, eventType *models.EventType, viewer *time.Location, from, to civil.Date) (availability.Params, error) {
	schedule, err := s.schedules.GetDefault(ctx, eventType.HostID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		fallback := models.DefaultSchedule(s.cfg.DefaultTimezone)
		fallback.HostID = eventType.HostID
		schedule = &fallback
	case err != nil:
		return availability.Params{}, appErrors.Wrap(err, appErrors.ErrLoadFailed.Code, appErrors.ErrLoadFailed.Status, "failed to load schedule")
	}

	if viewer == nil {
		if viewer, err = schedule.Location(); err != nil {
			return availability.Params{}, appErrors.Wrap(err, appErrors.ErrInvalidTimezone.Code, appErrors.ErrInvalidTimezone.Status, "schedule timezone is invalid")
		}
	}

	var overrides []models.DateOverride
	if schedule.ID != "" {
		overrides, err = s.schedules.ListOverrides(ctx, schedule.ID, from.AddDays(-1), to.AddDays(1))
		if err != nil {
			return availability.Params{}, appErrors.Wrap(err, appErrors.ErrLoadFailed.Code, appErrors.ErrLoadFailed.Status, "failed to load date overrides")
		}
	}

	busy, err := s.bookings.ListBusy(ctx, eventType.HostID, from.AddDays(-2).In(time.UTC), to.AddDays(3).In(time.UTC))
	if err != nil {
		return availability.Params{}, appErrors.Wrap(err, appErrors.ErrLoadFailed.Code, appErrors.ErrLoadFailed.Status, "failed to load bookings")
	}

	maxDays := eventType.MaxDaysAhead
	if maxDays <= 0 {
		maxDays = s.cfg.DefaultMaxDaysAhead
	}
	return availability.Params{
		Schedule:        *schedule,
		Overrides:       overrides,
		Busy:            busy,
		DurationMinutes: eventType.DurationMinutes,
		BufferBefore:    time.Duration(eventType.BufferBeforeMinutes) * time.Minute,
		BufferAfter:     time.Duration(eventType.BufferAfterMinutes) * time.Minute,
		MinNotice:       time.Duration(eventType.MinNoticeHours) * time.Hour,
		MaxDaysAhead:    maxDays,
		Viewer:          viewer,
		Now:             s.cfg.Now(),
	}, nil
}

// viewerLocation resolves the invitee timezone; nil means "use the host's".
func viewerLocation(tz string) (*time.Location, error) {
	if tz == "" {
		return nil, nil
	}
	loc, err := models.LoadLocation(tz)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTimezone.Code, appErrors.ErrInvalidTimezone.Status, err.Error())
	}
	return loc, nil
}

func zoneName(loc *time.Location, requested string) string {
	if loc == nil {
		return "host"
	}
	if requested != "" {
		return requested
	}
	return loc.String()
}
