package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/slotbook-api/internal/models"
)

// ScheduleRepository persists weekly schedules, their per-day hours and date overrides.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

type scheduleRow struct {
	ID        string    `db:"id"`
	HostID    string    `db:"host_id"`
	Name      string    `db:"name"`
	Timezone  string    `db:"timezone"`
	IsDefault bool      `db:"is_default"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type weeklyHoursRow struct {
	ScheduleID string         `db:"schedule_id"`
	DayOfWeek  int            `db:"day_of_week"`
	IsEnabled  bool           `db:"is_enabled"`
	Intervals  types.JSONText `db:"intervals"`
}

type overrideRow struct {
	ID           string         `db:"id"`
	ScheduleID   string         `db:"schedule_id"`
	SpecificDate time.Time      `db:"specific_date"`
	Intervals    types.JSONText `db:"intervals"`
	CreatedAt    time.Time      `db:"created_at"`
}

const scheduleColumns = `id, host_id, name, timezone, is_default, created_at, updated_at`

// GetDefault loads the host's default schedule with its weekly hours.
func (r *ScheduleRepository) GetDefault(ctx context.Context, hostID string) (*models.WeeklySchedule, error) {
	const query = `SELECT ` + scheduleColumns + ` FROM availability_schedules WHERE host_id = $1 AND is_default = TRUE LIMIT 1`
	var row scheduleRow
	if err := r.db.GetContext(ctx, &row, query, hostID); err != nil {
		return nil, err
	}
	return r.withHours(ctx, row)
}

// GetByID loads one of the host's schedules with its weekly hours.
func (r *ScheduleRepository) GetByID(ctx context.Context, hostID, id string) (*models.WeeklySchedule, error) {
	const query = `SELECT ` + scheduleColumns + ` FROM availability_schedules WHERE id = $1 AND host_id = $2`
	var row scheduleRow
	if err := r.db.GetContext(ctx, &row, query, id, hostID); err != nil {
		return nil, err
	}
	return r.withHours(ctx, row)
}

// List returns the host's schedules, default first.
func (r *ScheduleRepository) List(ctx context.Context, hostID string) ([]models.ScheduleSummary, error) {
	const query = `SELECT id, name, timezone, is_default FROM availability_schedules WHERE host_id = $1 ORDER BY is_default DESC, created_at ASC`
	var summaries []models.ScheduleSummary
	if err := r.db.SelectContext(ctx, &summaries, query, hostID); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return summaries, nil
}

// Create inserts a schedule and all seven weekday rows. A default schedule demotes the
// host's previous default in the same transaction.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.WeeklySchedule) (err error) {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if schedule.IsDefault {
		const demote = `UPDATE availability_schedules SET is_default = FALSE, updated_at = $2 WHERE host_id = $1 AND is_default = TRUE`
		if _, err = tx.ExecContext(ctx, demote, schedule.HostID, now); err != nil {
			return fmt.Errorf("demote default schedule: %w", err)
		}
	}

	const insert = `INSERT INTO availability_schedules (id, host_id, name, timezone, is_default, created_at, updated_at)
VALUES (:id, :host_id, :name, :timezone, :is_default, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insert, toScheduleRow(schedule)); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	if err = r.upsertHours(ctx, tx, schedule); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create schedule: %w", err)
	}
	return nil
}

// Replace overwrites the schedule's name, timezone and every weekday row.
func (r *ScheduleRepository) Replace(ctx context.Context, schedule *models.WeeklySchedule) (err error) {
	schedule.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace schedule: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `UPDATE availability_schedules SET name = $1, timezone = $2, updated_at = $3 WHERE id = $4 AND host_id = $5`
	res, err := tx.ExecContext(ctx, update, schedule.Name, schedule.Timezone, schedule.UpdatedAt, schedule.ID, schedule.HostID)
	if err != nil {
		return fmt.Errorf("replace schedule: %w", err)
	}
	if err = expectAffected(res); err != nil {
		return err
	}
	if err = r.upsertHours(ctx, tx, schedule); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace schedule: %w", err)
	}
	return nil
}

// UpdateTimezone changes only the schedule timezone.
func (r *ScheduleRepository) UpdateTimezone(ctx context.Context, hostID, id, timezone string) error {
	const query = `UPDATE availability_schedules SET timezone = $1, updated_at = $2 WHERE id = $3 AND host_id = $4`
	res, err := r.db.ExecContext(ctx, query, timezone, time.Now().UTC(), id, hostID)
	if err != nil {
		return fmt.Errorf("update schedule timezone: %w", err)
	}
	return expectAffected(res)
}

// UpsertOverride stores the override for its date, replacing any previous one.
func (r *ScheduleRepository) UpsertOverride(ctx context.Context, override *models.DateOverride) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	payload, err := encodeIntervals(override.Intervals)
	if err != nil {
		return err
	}
	const query = `INSERT INTO date_overrides (id, schedule_id, specific_date, intervals, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (schedule_id, specific_date) DO UPDATE SET intervals = EXCLUDED.intervals
RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, override.ID, override.ScheduleID, override.Date.In(time.UTC), payload, time.Now().UTC())
	if err := row.Scan(&override.ID, &override.CreatedAt); err != nil {
		return fmt.Errorf("upsert date override: %w", err)
	}
	return nil
}

// ListOverrides returns the schedule's overrides whose date falls within [from, to].
func (r *ScheduleRepository) ListOverrides(ctx context.Context, scheduleID string, from, to civil.Date) ([]models.DateOverride, error) {
	const query = `SELECT id, schedule_id, specific_date, intervals, created_at FROM date_overrides
WHERE schedule_id = $1 AND specific_date BETWEEN $2 AND $3 ORDER BY specific_date ASC`
	var rows []overrideRow
	if err := r.db.SelectContext(ctx, &rows, query, scheduleID, from.In(time.UTC), to.In(time.UTC)); err != nil {
		return nil, fmt.Errorf("list date overrides: %w", err)
	}
	overrides := make([]models.DateOverride, 0, len(rows))
	for _, row := range rows {
		intervals, err := decodeIntervals(row.Intervals)
		if err != nil {
			return nil, fmt.Errorf("decode override %s: %w", row.ID, err)
		}
		overrides = append(overrides, models.DateOverride{
			ID:         row.ID,
			ScheduleID: row.ScheduleID,
			Date:       civil.DateOf(row.SpecificDate),
			Intervals:  intervals,
			CreatedAt:  row.CreatedAt,
		})
	}
	return overrides, nil
}

// DeleteOverride removes an override belonging to one of the host's schedules.
func (r *ScheduleRepository) DeleteOverride(ctx context.Context, hostID, id string) error {
	const query = `DELETE FROM date_overrides d USING availability_schedules s
WHERE d.id = $1 AND d.schedule_id = s.id AND s.host_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, hostID)
	if err != nil {
		return fmt.Errorf("delete date override: %w", err)
	}
	return expectAffected(res)
}

func (r *ScheduleRepository) withHours(ctx context.Context, row scheduleRow) (*models.WeeklySchedule, error) {
	const query = `SELECT schedule_id, day_of_week, is_enabled, intervals FROM weekly_hours WHERE schedule_id = $1 ORDER BY day_of_week ASC`
	var hours []weeklyHoursRow
	if err := r.db.SelectContext(ctx, &hours, query, row.ID); err != nil {
		return nil, fmt.Errorf("load weekly hours: %w", err)
	}

	schedule := &models.WeeklySchedule{
		ID:        row.ID,
		HostID:    row.HostID,
		Name:      row.Name,
		Timezone:  row.Timezone,
		IsDefault: row.IsDefault,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	for i := range schedule.Days {
		schedule.Days[i] = models.DayAvailability{Intervals: []models.Interval{}}
	}
	for _, h := range hours {
		if h.DayOfWeek < 0 || h.DayOfWeek >= models.DaysPerWeek {
			continue
		}
		intervals, err := decodeIntervals(h.Intervals)
		if err != nil {
			return nil, fmt.Errorf("decode weekly hours for day %d: %w", h.DayOfWeek, err)
		}
		schedule.Days[h.DayOfWeek] = models.DayAvailability{
			Enabled:   h.IsEnabled && len(intervals) > 0,
			Intervals: intervals,
		}
	}
	return schedule, nil
}

func (r *ScheduleRepository) upsertHours(ctx context.Context, exec sqlx.ExtContext, schedule *models.WeeklySchedule) error {
	const query = `INSERT INTO weekly_hours (schedule_id, day_of_week, is_enabled, intervals)
VALUES (:schedule_id, :day_of_week, :is_enabled, :intervals)
ON CONFLICT (schedule_id, day_of_week) DO UPDATE
SET is_enabled = EXCLUDED.is_enabled,
    intervals = EXCLUDED.intervals`
	for day, availability := range schedule.Days {
		intervals := availability.Intervals
		if !availability.Enabled {
			intervals = nil
		}
		payload, err := encodeIntervals(intervals)
		if err != nil {
			return err
		}
		row := weeklyHoursRow{
			ScheduleID: schedule.ID,
			DayOfWeek:  day,
			IsEnabled:  availability.Enabled,
			Intervals:  payload,
		}
		if _, err := sqlx.NamedExecContext(ctx, exec, query, row); err != nil {
			return fmt.Errorf("upsert weekly hours: %w", err)
		}
	}
	return nil
}

func toScheduleRow(schedule *models.WeeklySchedule) scheduleRow {
	return scheduleRow{
		ID:        schedule.ID,
		HostID:    schedule.HostID,
		Name:      schedule.Name,
		Timezone:  schedule.Timezone,
		IsDefault: schedule.IsDefault,
		CreatedAt: schedule.CreatedAt,
		UpdatedAt: schedule.UpdatedAt,
	}
}

func encodeIntervals(intervals []models.Interval) (types.JSONText, error) {
	if intervals == nil {
		intervals = []models.Interval{}
	}
	payload, err := json.Marshal(intervals)
	if err != nil {
		return nil, fmt.Errorf("encode intervals: %w", err)
	}
	return types.JSONText(payload), nil
}

func decodeIntervals(raw types.JSONText) ([]models.Interval, error) {
	intervals := []models.Interval{}
	if len(raw) == 0 {
		return intervals, nil
	}
	if err := json.Unmarshal(raw, &intervals); err != nil {
		return nil, err
	}
	return intervals, nil
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
