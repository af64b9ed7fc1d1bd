package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/slotbook-api/internal/dto"
	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

type publicHostReader interface {
	FindByUsername(ctx context.Context, username string) (*models.Host, error)
}

type publicEventTypeReader interface {
	List(ctx context.Context, filter models.EventTypeFilter) ([]models.EventType, error)
	FindBySlug(ctx context.Context, hostID, slug string) (*models.EventType, error)
}

// PublicService serves the invitee-facing host and event pages.
type PublicService struct {
	hosts      publicHostReader
	eventTypes publicEventTypeReader
	logger     *zap.Logger
}

// NewPublicService constructs the service.
func NewPublicService(hosts publicHostReader, eventTypes publicEventTypeReader, logger *zap.Logger) *PublicService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicService{hosts: hosts, eventTypes: eventTypes, logger: logger}
}

// HostPage lists the host's active event types.
func (s *PublicService) HostPage(ctx context.Context, username string) (*dto.PublicHostPage, error) {
	host, err := s.host(ctx, username)
	if err != nil {
		return nil, err
	}
	items, err := s.eventTypes.List(ctx, models.EventTypeFilter{HostID: host.ID, ActiveOnly: true})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrLoadFailed.Code, appErrors.ErrLoadFailed.Status, "failed to load event types")
	}
	page := &dto.PublicHostPage{Host: host.Public(), EventTypes: make([]dto.PublicEventType, 0, len(items))}
	for _, item := range items {
		page.EventTypes = append(page.EventTypes, dto.PublicEventTypeFromModel(item))
	}
	return page, nil
}

// EventPage resolves /{username}/{slug}. Inactive event types are reported as missing.
func (s *PublicService) EventPage(ctx context.Context, username, slug string) (*dto.PublicEventPage, error) {
	host, err := s.host(ctx, username)
	if err != nil {
		return nil, err
	}
	item, err := s.eventTypes.FindBySlug(ctx, host.ID, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrLoadFailed.Code, appErrors.ErrLoadFailed.Status, "failed to load event type")
	}
	if !item.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event type not found")
	}
	return &dto.PublicEventPage{Host: host.Public(), EventType: dto.PublicEventTypeFromModel(*item)}, nil
}

func (s *PublicService) host(ctx context.Context, username string) (*models.Host, error) {
	host, err := s.hosts.FindByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "host not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrLoadFailed.Code, appErrors.ErrLoadFailed.Status, "failed to load host")
	}
	return host, nil
}
