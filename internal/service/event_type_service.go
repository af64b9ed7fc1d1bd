package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/slotbook-api/internal/dto"
	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

type eventTypeRepository interface {
	List(ctx context.Context, filter models.EventTypeFilter) ([]models.EventType, error)
	FindByID(ctx context.Context, id string) (*models.EventType, error)
	SlugExists(ctx context.Context, hostID, slug, excludeID string) (bool, error)
	Create(ctx context.Context, item *models.EventType) error
	Update(ctx context.Context, item *models.EventType) error
	SetActive(ctx context.Context, hostID, id string, active bool) error
	HasBookings(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, hostID, id string) error
}

// maxSlugAttempts bounds the numeric suffix search.
const maxSlugAttempts = 1000

var (
	slugInvalid    = regexp.MustCompile(`[^a-z0-9\s_-]`)
	slugSeparators = regexp.MustCompile(`[\s_]+`)
	slugDashes     = regexp.MustCompile(`-+`)
)

// EventTypeService manages a host's bookable meeting templates.
type EventTypeService struct {
	repo        eventTypeRepository
	invalidator availabilityInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEventTypeService creates a new event type service.
func NewEventTypeService(repo eventTypeRepository, invalidator availabilityInvalidator, validate *validator.Validate, logger *zap.Logger) *EventTypeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventTypeService{repo: repo, invalidator: invalidator, validator: validate, logger: logger}
}

// List returns the host's event types, newest first.
func (s *EventTypeService) List(ctx context.Context, hostID string, activeOnly bool) ([]models.EventType, error) {
	items, err := s.repo.List(ctx, models.EventTypeFilter{HostID: hostID, ActiveOnly: activeOnly})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list event types")
	}
	if items == nil {
		items = []models.EventType{}
	}
	return items, nil
}

// Get returns one event type owned by the host.
func (s *EventTypeService) Get(ctx context.Context, hostID, id string) (*models.EventType, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrLoadFailed.Code, appErrors.ErrLoadFailed.Status, "failed to load event type")
	}
	if item.HostID != hostID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event type not found")
	}
	return item, nil
}

// Create stores a new event type. The slug is derived from the name unless given and
// made unique per host with a numeric suffix.
func (s *EventTypeService) Create(ctx context.Context, hostID string, req dto.CreateEventTypeRequest) (*models.EventType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event type payload")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name is required")
	}

	base := Slugify(req.Slug)
	if base == "" {
		base = Slugify(name)
	}
	slug, err := s.uniqueSlug(ctx, hostID, base, "")
	if err != nil {
		return nil, err
	}

	item := &models.EventType{
		HostID:              hostID,
		Name:                name,
		Slug:                slug,
		Description:         trimmedOrNil(req.Description),
		DurationMinutes:     req.DurationMinutes,
		Color:               strings.ToUpper(req.Color),
		LocationType:        models.LocationType(req.LocationType),
		LocationDetails:     trimmedOrNil(req.LocationDetails),
		BufferBeforeMinutes: req.BufferBeforeMinutes,
		BufferAfterMinutes:  req.BufferAfterMinutes,
		MinNoticeHours:      models.DefaultMinNoticeHours,
		MaxDaysAhead:        req.MaxDaysAhead,
		IsActive:            true,
	}
	if item.DurationMinutes == 0 {
		item.DurationMinutes = models.DefaultEventDuration
	}
	if item.Color == "" {
		item.Color = models.DefaultEventColor
	}
	if item.LocationType == "" {
		item.LocationType = models.LocationZoom
	}
	if req.MinNoticeHours != nil {
		item.MinNoticeHours = *req.MinNoticeHours
	}
	if item.MaxDaysAhead == 0 {
		item.MaxDaysAhead = models.DefaultMaxDaysAhead
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event type")
	}
	s.logger.Info("event type created", zap.String("host_id", hostID), zap.String("event_type_id", item.ID), zap.String("slug", item.Slug))
	s.invalidator.HostChanged(ctx, hostID)
	return item, nil
}

// Update applies the provided fields. The slug stays fixed so shared links keep working.
func (s *EventTypeService) Update(ctx context.Context, hostID, id string, req dto.UpdateEventTypeRequest) (*models.EventType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event type payload")
	}
	item, err := s.Get(ctx, hostID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name must not be blank")
		}
		item.Name = name
	}
	if req.Description != nil {
		item.Description = trimmedOrNil(req.Description)
	}
	if req.DurationMinutes != nil {
		item.DurationMinutes = *req.DurationMinutes
	}
	if req.Color != nil {
		item.Color = strings.ToUpper(*req.Color)
	}
	if req.LocationType != nil {
		item.LocationType = models.LocationType(*req.LocationType)
	}
	if req.LocationDetails != nil {
		item.LocationDetails = trimmedOrNil(req.LocationDetails)
	}
	if req.BufferBeforeMinutes != nil {
		item.BufferBeforeMinutes = *req.BufferBeforeMinutes
	}
	if req.BufferAfterMinutes != nil {
		item.BufferAfterMinutes = *req.BufferAfterMinutes
	}
	if req.MinNoticeHours != nil {
		item.MinNoticeHours = *req.MinNoticeHours
	}
	if req.MaxDaysAhead != nil {
		item.MaxDaysAhead = *req.MaxDaysAhead
	}
	if req.IsActive != nil {
		item.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event type")
	}
	s.invalidator.HostChanged(ctx, hostID)
	return item, nil
}

// Toggle flips the active flag. Inactive event types stop offering slots immediately.
func (s *EventTypeService) Toggle(ctx context.Context, hostID, id string) (*models.EventType, error) {
	item, err := s.Get(ctx, hostID, id)
	if err != nil {
		return nil, err
	}
	active := !item.IsActive
	if err := s.repo.SetActive(ctx, hostID, id, active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle event type")
	}
	item.IsActive = active
	s.invalidator.HostChanged(ctx, hostID)
	return item, nil
}

// Duplicate copies an event type under "<name> (Copy)". The copy is always active.
func (s *EventTypeService) Duplicate(ctx context.Context, hostID, id string) (*models.EventType, error) {
	original, err := s.Get(ctx, hostID, id)
	if err != nil {
		return nil, err
	}
	copied := *original
	copied.ID = ""
	copied.Name = original.Name + models.DuplicateEventNameSuffix
	copied.IsActive = true
	if copied.Slug, err = s.uniqueSlug(ctx, hostID, Slugify(copied.Name), ""); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &copied); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to duplicate event type")
	}
	s.invalidator.HostChanged(ctx, hostID)
	return &copied, nil
}

// Delete removes an event type. One that already has bookings must be deactivated instead
// because bookings are never deleted.
func (s *EventTypeService) Delete(ctx context.Context, hostID, id string) error {
	if _, err := s.Get(ctx, hostID, id); err != nil {
		return err
	}
	booked, err := s.repo.HasBookings(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check event type bookings")
	}
	if booked {
		return appErrors.Clone(appErrors.ErrConflict, "event type has bookings; deactivate it instead")
	}
	if err := s.repo.Delete(ctx, hostID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event type not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete event type")
	}
	s.invalidator.HostChanged(ctx, hostID)
	return nil
}

func (s *EventTypeService) uniqueSlug(ctx context.Context, hostID, base, excludeID string) (string, error) {
	if base == "" {
		base = "event"
	}
	candidate := base
	for i := 1; i <= maxSlugAttempts; i++ {
		taken, err := s.repo.SlugExists(ctx, hostID, candidate, excludeID)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slug")
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", appErrors.Clone(appErrors.ErrConflict, "could not find a free slug")
}

// Slugify lowercases name and reduces it to [a-z0-9-].
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugSeparators.ReplaceAllString(slug, "-")
	slug = slugDashes.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
