package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/slotbook-api/api/swagger"
	"github.com/noah-isme/slotbook-api/internal/handler"
	"github.com/noah-isme/slotbook-api/internal/middleware"
	"github.com/noah-isme/slotbook-api/internal/service"
	"github.com/noah-isme/slotbook-api/pkg/config"
	"github.com/noah-isme/slotbook-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/slotbook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/slotbook-api/pkg/middleware/requestid"
)

type routerDeps struct {
	metrics      *service.MetricsService
	tokens       middleware.TokenValidator
	limiter      *middleware.RateLimiter
	availability *handler.AvailabilityHandler
	eventTypes   *handler.EventTypeHandler
	meetings     *handler.MeetingHandler
	public       *handler.PublicHandler
	health       *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	r.GET("/metrics", deps.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	host := api.Group("")
	host.Use(middleware.JWT(deps.tokens))
	{
		availability := host.Group("/availability")
		availability.GET("/schedule", deps.availability.GetSchedule)
		availability.PUT("/schedule", deps.availability.ReplaceSchedule)
		availability.PATCH("/schedule/timezone", deps.availability.UpdateTimezone)
		availability.GET("/schedule.ics", deps.availability.Feed)
		availability.GET("/schedules", deps.availability.ListSchedules)
		availability.POST("/schedules", deps.availability.CreateSchedule)
		availability.GET("/date-overrides", deps.availability.ListOverrides)
		availability.POST("/date-overrides", deps.availability.UpsertOverride)
		availability.DELETE("/date-overrides/:id", deps.availability.DeleteOverride)

		eventTypes := host.Group("/event-types")
		eventTypes.GET("", deps.eventTypes.List)
		eventTypes.POST("", deps.eventTypes.Create)
		eventTypes.GET("/:id", deps.eventTypes.Get)
		eventTypes.PUT("/:id", deps.eventTypes.Update)
		eventTypes.DELETE("/:id", deps.eventTypes.Delete)
		eventTypes.PATCH("/:id/toggle", deps.eventTypes.Toggle)
		eventTypes.POST("/:id/duplicate", deps.eventTypes.Duplicate)

		meetings := host.Group("/meetings")
		meetings.GET("", deps.meetings.List)
		meetings.GET("/export.csv", deps.meetings.ExportCSV)
		meetings.GET("/export.pdf", deps.meetings.ExportPDF)
		meetings.GET("/:id", deps.meetings.Get)
		meetings.POST("/:id/cancel", deps.meetings.Cancel)
		meetings.PUT("/:id/notes", deps.meetings.SaveNote)
		meetings.DELETE("/:id/notes", deps.meetings.DeleteNote)
	}

	public := api.Group("/public")
	{
		public.GET("/available-dates", deps.public.AvailableDates)
		public.GET("/slots", deps.public.AvailableSlots)
		public.POST("/bookings", deps.limiter.Middleware(), deps.public.CreateBooking)
		public.POST("/bookings/cancel", deps.limiter.Middleware(), deps.public.CancelBooking)
		public.GET("/bookings/:id", deps.public.GetBooking)
		public.GET("/bookings/:id/ics", deps.public.BookingInvite)
		public.GET("/pages/:username", deps.public.HostPage)
		public.GET("/pages/:username/:slug", deps.public.EventPage)
	}

	return r
}
