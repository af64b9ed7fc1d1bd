package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/slotbook-api/internal/dto"
	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

type hostUpserter interface {
	Upsert(ctx context.Context, host *models.Host) error
}

type defaultScheduleLoader interface {
	Get(ctx context.Context, hostID, scheduleID string) (*models.WeeklySchedule, error)
}

type eventTypeSeeder interface {
	List(ctx context.Context, hostID string, activeOnly bool) ([]models.EventType, error)
	Create(ctx context.Context, hostID string, req dto.CreateEventTypeRequest) (*models.EventType, error)
}

var sampleEventTypes = []dto.CreateEventTypeRequest{
	{Name: "Quick Chat", DurationMinutes: 15, Color: "#10B981", LocationType: string(models.LocationPhone)},
	{Name: "30 Minute Meeting", DurationMinutes: 30, Color: "#3B82F6", LocationType: string(models.LocationZoom)},
	{Name: "Deep Dive", DurationMinutes: 60, Color: "#8B5CF6", LocationType: string(models.LocationGoogleMeet), BufferAfterMinutes: 15},
}

// SeedCmd creates or refreshes a demo host with its default schedule and, when the host
// has none yet, three sample event types.
type SeedCmd struct {
	Username string `help:"Host username." default:"demo"`
	Name     string `help:"Host display name." default:"Demo Host"`
	Email    string `help:"Host email." default:"demo@example.com"`
	Timezone string `help:"Host timezone. Defaults to DEFAULT_TIMEZONE."`
}

func (c *SeedCmd) Run(ctx *Context) error {
	b, err := ctx.backend()
	if err != nil {
		return err
	}
	tz := c.Timezone
	if tz == "" {
		tz = ctx.Config.Availability.DefaultTimezone
	}
	if tz == "" {
		tz = "UTC"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidTimezone, fmt.Sprintf("unknown timezone %q", tz))
	}

	host := &models.Host{Username: c.Username, Name: c.Name, Email: c.Email, Timezone: tz}
	result, err := seedHost(ctx.Ctx, host, b.hosts, b.schedules(tz), b.eventTypes)
	if err != nil {
		return err
	}
	result.print(ctx.Out)
	ctx.Logger.Info("demo host seeded", zap.String("host_id", host.ID), zap.Int("event_types_created", len(result.Created)))
	return nil
}

type seedResult struct {
	Host     *models.Host
	Schedule *models.WeeklySchedule
	Created  []models.EventType
	Existing int
}

func seedHost(ctx context.Context, host *models.Host, hosts hostUpserter, schedules defaultScheduleLoader, eventTypes eventTypeSeeder) (*seedResult, error) {
	if err := hosts.Upsert(ctx, host); err != nil {
		return nil, fmt.Errorf("seed host: %w", err)
	}
	schedule, err := schedules.Get(ctx, host.ID, "")
	if err != nil {
		return nil, fmt.Errorf("seed schedule: %w", err)
	}
	existing, err := eventTypes.List(ctx, host.ID, false)
	if err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}

	result := &seedResult{Host: host, Schedule: schedule, Existing: len(existing)}
	if len(existing) > 0 {
		return result, nil
	}
	for _, req := range sampleEventTypes {
		item, err := eventTypes.Create(ctx, host.ID, req)
		if err != nil {
			return nil, fmt.Errorf("seed event type %q: %w", req.Name, err)
		}
		result.Created = append(result.Created, *item)
	}
	return result, nil
}

func (r *seedResult) print(out io.Writer) {
	fmt.Fprintf(out, "host      %s (%s) %s\n", r.Host.Username, r.Host.ID, r.Host.Timezone)
	fmt.Fprintf(out, "schedule  %s (%s)\n", r.Schedule.Name, r.Schedule.ID)
	if len(r.Created) == 0 {
		fmt.Fprintf(out, "event types unchanged (%d existing)\n", r.Existing)
		return
	}
	for _, item := range r.Created {
		fmt.Fprintf(out, "created   %s /%s/%s %dm\n", item.Name, r.Host.Username, item.Slug, item.DurationMinutes)
	}
}
