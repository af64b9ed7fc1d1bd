// Package cli implements the slotctl operator commands.
package cli

import (
	"context"
	"io"
	"sync"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/slotbook-api/internal/repository"
	"github.com/noah-isme/slotbook-api/internal/service"
	"github.com/noah-isme/slotbook-api/pkg/config"
)

// Context is shared by every command. The database is opened on first use so commands
// such as --help never need one.
type Context struct {
	Ctx    context.Context
	Out    io.Writer
	Logger *zap.Logger
	Config *config.Config
	Open   func() (*sqlx.DB, error)

	once sync.Once
	db   *sqlx.DB
	err  error
}

// DB returns the shared connection.
func (c *Context) DB() (*sqlx.DB, error) {
	c.once.Do(func() {
		c.db, c.err = c.Open()
	})
	return c.db, c.err
}

// Close releases the connection if one was opened.
func (c *Context) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

type backend struct {
	hosts        *repository.HostRepository
	eventTypes   *service.EventTypeService
	schedules    func(timezone string) *service.ScheduleService
	availability *service.AvailabilityService
	tokens       *service.TokenService
}

// noInvalidation is used by commands that write outside the API process. Cached
// availability there expires on its own TTL.
type noInvalidation struct{}

func (noInvalidation) HostChanged(context.Context, string) {}

// backend wires repositories and services without cache or job queue.
func (c *Context) backend() (*backend, error) {
	db, err := c.DB()
	if err != nil {
		return nil, err
	}
	cfg := c.Config
	hostRepo := repository.NewHostRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	eventTypeRepo := repository.NewEventTypeRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	return &backend{
		hosts:      hostRepo,
		eventTypes: service.NewEventTypeService(eventTypeRepo, noInvalidation{}, nil, c.Logger),
		schedules: func(timezone string) *service.ScheduleService {
			return service.NewScheduleService(scheduleRepo, noInvalidation{}, nil, c.Logger, service.ScheduleServiceConfig{
				DefaultTimezone: timezone,
				Granularity:     cfg.Availability.SlotGranularityMinutes,
			})
		},
		availability: service.NewAvailabilityService(eventTypeRepo, scheduleRepo, bookingRepo, nil, nil, nil, c.Logger, service.AvailabilityServiceConfig{
			DefaultTimezone:     cfg.Availability.DefaultTimezone,
			DefaultMaxDaysAhead: cfg.Availability.DefaultMaxDaysAhead,
		}),
		tokens: service.NewTokenService(hostRepo, c.Logger, service.TokenConfig{
			Secret: cfg.JWT.Secret,
			Issuer: cfg.JWT.Issuer,
			Expiry: cfg.JWT.Expiration,
		}),
	}, nil
}
