package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/slotbook-api/internal/dto"
	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

type scheduleRepository interface {
	GetDefault(ctx context.Context, hostID string) (*models.WeeklySchedule, error)
	GetByID(ctx context.Context, hostID, id string) (*models.WeeklySchedule, error)
	List(ctx context.Context, hostID string) ([]models.ScheduleSummary, error)
	Create(ctx context.Context, schedule *models.WeeklySchedule) error
	Replace(ctx context.Context, schedule *models.WeeklySchedule) error
	UpdateTimezone(ctx context.Context, hostID, id, timezone string) error
	UpsertOverride(ctx context.Context, override *models.DateOverride) error
	ListOverrides(ctx context.Context, scheduleID string, from, to civil.Date) ([]models.DateOverride, error)
	DeleteOverride(ctx context.Context, hostID, id string) error
}

type availabilityInvalidator interface {
	HostChanged(ctx context.Context, hostID string)
}

// ScheduleServiceConfig carries schedule defaults.
type ScheduleServiceConfig struct {
	DefaultTimezone string
	Granularity     int
}

// ScheduleService manages a host's weekly schedules and date overrides.
type ScheduleService struct {
	repo        scheduleRepository
	invalidator availabilityInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         ScheduleServiceConfig
}

// NewScheduleService creates a new schedule service.
func NewScheduleService(repo scheduleRepository, invalidator availabilityInvalidator, validate *validator.Validate, logger *zap.Logger, cfg ScheduleServiceConfig) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "UTC"
	}
	if cfg.Granularity <= 0 {
		cfg.Granularity = 30
	}
	return &ScheduleService{repo: repo, invalidator: invalidator, validator: validate, logger: logger, cfg: cfg}
}

// Get returns the requested schedule, or the host's default when scheduleID is empty.
// A host without any schedule gets the Monday to Friday default created on first read.
func (s *ScheduleService) Get(ctx context.Context, hostID, scheduleID string) (*models.WeeklySchedule, error) {
	if scheduleID != "" {
		return s.byID(ctx, hostID, scheduleID)
	}
	schedule, err := s.repo.GetDefault(ctx, hostID)
	if err == nil {
		return schedule, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrLoadFailed.Code, appErrors.ErrLoadFailed.Status, "failed to load schedule")
	}

	seeded := models.DefaultSchedule(s.cfg.DefaultTimezone)
	seeded.HostID = hostID
	if err := s.repo.Create(ctx, &seeded); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create default schedule")
	}
	s.logger.Info("default schedule created", zap.String("host_id", hostID), zap.String("schedule_id", seeded.ID))
	return &seeded, nil
}

// List returns the host's schedules.
func (s *ScheduleService) List(ctx context.Context, hostID string) ([]models.ScheduleSummary, error) {
	summaries, err := s.repo.List(ctx, hostID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	if summaries == nil {
		summaries = []models.ScheduleSummary{}
	}
	return summaries, nil
}

// Create adds a named schedule seeded with the default hours.
func (s *ScheduleService) Create(ctx context.Context, hostID string, req dto.CreateScheduleRequest) (*models.WeeklySchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	tz := strings.TrimSpace(req.Timezone)
	if tz == "" {
		tz = s.cfg.DefaultTimezone
	}
	if _, err := models.LoadLocation(tz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTimezone.Code, appErrors.ErrInvalidTimezone.Status, err.Error())
	}

	schedule := models.DefaultSchedule(tz)
	schedule.HostID = hostID
	schedule.IsDefault = req.IsDefault
	if name := strings.TrimSpace(req.Name); name != "" {
		schedule.Name = name
	}
	if err := s.repo.Create(ctx, &schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	if schedule.IsDefault {
		s.invalidator.HostChanged(ctx, hostID)
	}
	return &schedule, nil
}

// Replace overwrites the schedule's timezone and all seven weekdays. The payload is
// validated as a whole before anything is written.
func (s *ScheduleService) Replace(ctx context.Context, hostID string, req dto.UpdateScheduleRequest) (*models.WeeklySchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	tz := strings.TrimSpace(req.Timezone)
	if _, err := models.LoadLocation(tz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTimezone.Code, appErrors.ErrInvalidTimezone.Status, err.Error())
	}
	days, err := dto.WeeklyHoursToDays(req.WeeklyHours)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidInterval.Code, appErrors.ErrInvalidInterval.Status, err.Error())
	}

	schedule, err := s.Get(ctx, hostID, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	schedule.Timezone = tz
	schedule.Days = days
	if name := strings.TrimSpace(req.Name); name != "" {
		schedule.Name = name
	}
	if err := schedule.Validate(s.cfg.Granularity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidInterval.Code, appErrors.ErrInvalidInterval.Status, err.Error())
	}

	if err := s.repo.Replace(ctx, schedule); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save schedule")
	}
	s.invalidator.HostChanged(ctx, hostID)
	return schedule, nil
}

// UpdateTimezone changes only the schedule timezone.
func (s *ScheduleService) UpdateTimezone(ctx context.Context, hostID, scheduleID string, req dto.TimezoneRequest) (*models.WeeklySchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timezone payload")
	}
	tz := strings.TrimSpace(req.Timezone)
	if _, err := models.LoadLocation(tz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTimezone.Code, appErrors.ErrInvalidTimezone.Status, err.Error())
	}
	schedule, err := s.Get(ctx, hostID, scheduleID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateTimezone(ctx, hostID, schedule.ID, tz); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timezone")
	}
	schedule.Timezone = tz
	s.invalidator.HostChanged(ctx, hostID)
	return schedule, nil
}

// UpsertOverride replaces the availability of one date. An empty interval list blocks the date.
func (s *ScheduleService) UpsertOverride(ctx context.Context, hostID string, req dto.DateOverrideRequest) (*models.DateOverride, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date override payload")
	}
	date, err := dto.ParseDate(req.SpecificDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	intervals, err := dto.IntervalsToModel(req.Intervals)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidInterval.Code, appErrors.ErrInvalidInterval.Status, err.Error())
	}
	sort.SliceStable(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })
	if err := models.ValidateIntervals(intervals, s.cfg.Granularity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidInterval.Code, appErrors.ErrInvalidInterval.Status, err.Error())
	}

	schedule, err := s.Get(ctx, hostID, req.ScheduleID)
	if err != nil {
		return nil, err
	}
	override := &models.DateOverride{ScheduleID: schedule.ID, Date: date, Intervals: intervals}
	if err := s.repo.UpsertOverride(ctx, override); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save date override")
	}
	s.invalidator.HostChanged(ctx, hostID)
	return override, nil
}

// ListOverrides returns overrides within [from, to]. The range defaults to today
// (schedule timezone) through one year ahead.
func (s *ScheduleService) ListOverrides(ctx context.Context, hostID string, query dto.DateOverrideQuery) ([]models.DateOverride, error) {
	schedule, err := s.Get(ctx, hostID, query.ScheduleID)
	if err != nil {
		return nil, err
	}
	loc, err := schedule.Location()
	if err != nil {
		loc = time.UTC
	}
	from := civil.DateOf(time.Now().In(loc))
	if query.From != "" {
		if from, err = dto.ParseDate(query.From); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
	}
	to := from.AddDays(models.MaxDaysAheadLimit)
	if query.To != "" {
		if to, err = dto.ParseDate(query.To); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
		}
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}

	overrides, err := s.repo.ListOverrides(ctx, schedule.ID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list date overrides")
	}
	if overrides == nil {
		overrides = []models.DateOverride{}
	}
	return overrides, nil
}

// DeleteOverride removes an override.
func (s *ScheduleService) DeleteOverride(ctx context.Context, hostID, id string) error {
	if err := s.repo.DeleteOverride(ctx, hostID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "date override not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete date override")
	}
	s.invalidator.HostChanged(ctx, hostID)
	return nil
}

func (s *ScheduleService) byID(ctx context.Context, hostID, id string) (*models.WeeklySchedule, error) {
	schedule, err := s.repo.GetByID(ctx, hostID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrLoadFailed.Code, appErrors.ErrLoadFailed.Status, "failed to load schedule")
	}
	return schedule, nil
}
