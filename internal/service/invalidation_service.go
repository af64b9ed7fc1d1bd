package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/slotbook-api/pkg/jobs"
)

// JobTypeInvalidateAvailability drops a host's cached availability.
const JobTypeInvalidateAvailability = "availability.invalidate"

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type hostCacheInvalidator interface {
	InvalidateHost(ctx context.Context, hostID string) error
}

// InvalidationService schedules availability cache invalidation after schedule, event
// type and booking writes. Repeated requests for the same host collapse into one job
// while it waits.
type InvalidationService struct {
	queue   jobDispatcher
	cache   hostCacheInvalidator
	metrics *MetricsService
	logger  *zap.Logger
}

// NewInvalidationService constructs the service. A nil queue invalidates inline.
func NewInvalidationService(queue jobDispatcher, cache hostCacheInvalidator, metrics *MetricsService, logger *zap.Logger) *InvalidationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvalidationService{queue: queue, cache: cache, metrics: metrics, logger: logger}
}

// HostChanged requests invalidation of the host's cached availability.
func (s *InvalidationService) HostChanged(ctx context.Context, hostID string) {
	if s == nil || s.cache == nil || hostID == "" {
		return
	}
	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{
			ID:       uuid.NewString(),
			Type:     JobTypeInvalidateAvailability,
			Key:      hostID,
			Payload:  hostID,
			Enqueued: time.Now().UTC(),
		})
		if err == nil {
			return
		}
		s.logger.Warn("invalidation enqueue failed, invalidating inline", zap.String("host_id", hostID), zap.Error(err))
	}
	if err := s.invalidate(ctx, hostID); err != nil {
		s.logger.Warn("availability invalidation failed", zap.String("host_id", hostID), zap.Error(err))
	}
}

// Handle processes a queued invalidation job.
func (s *InvalidationService) Handle(ctx context.Context, job jobs.Job) error {
	hostID, _ := job.Payload.(string)
	if hostID == "" {
		hostID = job.Key
	}
	return s.invalidate(ctx, hostID)
}

func (s *InvalidationService) invalidate(ctx context.Context, hostID string) error {
	if err := s.cache.InvalidateHost(ctx, hostID); err != nil {
		return err
	}
	s.metrics.RecordInvalidation()
	s.logger.Debug("availability cache invalidated", zap.String("host_id", hostID))
	return nil
}
