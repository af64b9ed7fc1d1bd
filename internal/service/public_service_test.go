package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

type stubHostsByUsername map[string]models.Host

func (s stubHostsByUsername) FindByUsername(_ context.Context, username string) (*models.Host, error) {
	host, ok := s[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &host, nil
}

func (m *mockEventTypeRepo) FindBySlug(_ context.Context, hostID, slug string) (*models.EventType, error) {
	for _, item := range m.items {
		if item.HostID == hostID && item.Slug == slug {
			cp := *item
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func newTestPublicService() *PublicService {
	hosts := stubHostsByUsername{"ana": {ID: "host-1", Username: "ana", Name: "Ana", Email: "ana@example.com", Timezone: "Asia/Jakarta"}}
	repo := newMockEventTypeRepo(
		models.EventType{ID: "a", HostID: "host-1", Name: "Intro", Slug: "intro", DurationMinutes: 30, IsActive: true},
		models.EventType{ID: "b", HostID: "host-1", Name: "Hidden", Slug: "hidden", DurationMinutes: 30, IsActive: false},
	)
	return NewPublicService(hosts, repo, nil)
}

func TestHostPageListsActiveEventTypes(t *testing.T) {
	svc := newTestPublicService()

	page, err := svc.HostPage(context.Background(), " ANA ")
	require.NoError(t, err)
	assert.Equal(t, "Ana", page.Host.Name)
	require.Len(t, page.EventTypes, 1)
	assert.Equal(t, "intro", page.EventTypes[0].Slug)

	_, err = svc.HostPage(context.Background(), "nobody")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestEventPageHidesInactive(t *testing.T) {
	svc := newTestPublicService()

	page, err := svc.EventPage(context.Background(), "ana", "intro")
	require.NoError(t, err)
	assert.Equal(t, "a", page.EventType.ID)
	assert.Equal(t, "Asia/Jakarta", page.Host.Timezone)

	_, err = svc.EventPage(context.Background(), "ana", "hidden")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = svc.EventPage(context.Background(), "ana", "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
