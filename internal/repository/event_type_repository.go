package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/slotbook-api/internal/models"
)

// EventTypeRepository persists bookable event types.
type EventTypeRepository struct {
	db *sqlx.DB
}

// NewEventTypeRepository creates a new event type repository.
func NewEventTypeRepository(db *sqlx.DB) *EventTypeRepository {
	return &EventTypeRepository{db: db}
}

const eventTypeColumns = `id, host_id, name, slug, description, duration_minutes, color, location_type, location_details,
buffer_before_minutes, buffer_after_minutes, min_notice_hours, max_days_ahead, is_active, created_at, updated_at`

// List returns the host's event types, newest first.
func (r *EventTypeRepository) List(ctx context.Context, filter models.EventTypeFilter) ([]models.EventType, error) {
	query := `SELECT ` + eventTypeColumns + ` FROM event_types WHERE host_id = $1`
	if filter.ActiveOnly {
		query += ` AND is_active = TRUE`
	}
	query += ` ORDER BY created_at DESC`

	var items []models.EventType
	if err := r.db.SelectContext(ctx, &items, query, filter.HostID); err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}
	return items, nil
}

// FindByID loads an event type by id.
func (r *EventTypeRepository) FindByID(ctx context.Context, id string) (*models.EventType, error) {
	const query = `SELECT ` + eventTypeColumns + ` FROM event_types WHERE id = $1`
	var item models.EventType
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// FindBySlug loads an event type by its host-scoped slug.
func (r *EventTypeRepository) FindBySlug(ctx context.Context, hostID, slug string) (*models.EventType, error) {
	const query = `SELECT ` + eventTypeColumns + ` FROM event_types WHERE host_id = $1 AND slug = $2`
	var item models.EventType
	if err := r.db.GetContext(ctx, &item, query, hostID, slug); err != nil {
		return nil, err
	}
	return &item, nil
}

// SlugExists reports whether the slug is taken by another of the host's event types.
func (r *EventTypeRepository) SlugExists(ctx context.Context, hostID, slug, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM event_types WHERE host_id = $1 AND slug = $2 AND id <> $3)`
	var exists bool
	if excludeID == "" {
		excludeID = uuid.Nil.String()
	}
	if err := r.db.GetContext(ctx, &exists, query, hostID, slug, excludeID); err != nil {
		return false, fmt.Errorf("check event type slug: %w", err)
	}
	return exists, nil
}

// Create inserts a new event type.
func (r *EventTypeRepository) Create(ctx context.Context, item *models.EventType) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	const query = `INSERT INTO event_types (id, host_id, name, slug, description, duration_minutes, color, location_type, location_details,
buffer_before_minutes, buffer_after_minutes, min_notice_hours, max_days_ahead, is_active, created_at, updated_at)
VALUES (:id, :host_id, :name, :slug, :description, :duration_minutes, :color, :location_type, :location_details,
:buffer_before_minutes, :buffer_after_minutes, :min_notice_hours, :max_days_ahead, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create event type: %w", err)
	}
	return nil
}

// Update rewrites every mutable column.
func (r *EventTypeRepository) Update(ctx context.Context, item *models.EventType) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE event_types SET name = :name, slug = :slug, description = :description, duration_minutes = :duration_minutes,
color = :color, location_type = :location_type, location_details = :location_details,
buffer_before_minutes = :buffer_before_minutes, buffer_after_minutes = :buffer_after_minutes,
min_notice_hours = :min_notice_hours, max_days_ahead = :max_days_ahead, is_active = :is_active, updated_at = :updated_at
WHERE id = :id AND host_id = :host_id`
	res, err := r.db.NamedExecContext(ctx, query, item)
	if err != nil {
		return fmt.Errorf("update event type: %w", err)
	}
	return expectAffected(res)
}

// SetActive flips the active flag.
func (r *EventTypeRepository) SetActive(ctx context.Context, hostID, id string, active bool) error {
	const query = `UPDATE event_types SET is_active = $1, updated_at = $2 WHERE id = $3 AND host_id = $4`
	res, err := r.db.ExecContext(ctx, query, active, time.Now().UTC(), id, hostID)
	if err != nil {
		return fmt.Errorf("toggle event type: %w", err)
	}
	return expectAffected(res)
}

// HasBookings reports whether any booking references the event type.
func (r *EventTypeRepository) HasBookings(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM bookings WHERE event_type_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check event type bookings: %w", err)
	}
	return exists, nil
}

// Delete removes an event type owned by the host.
func (r *EventTypeRepository) Delete(ctx context.Context, hostID, id string) error {
	const query = `DELETE FROM event_types WHERE id = $1 AND host_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, hostID)
	if err != nil {
		return fmt.Errorf("delete event type: %w", err)
	}
	return expectAffected(res)
}
