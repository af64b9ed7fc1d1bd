package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slotbook-api/internal/dto"
	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

type recordingInvalidator struct {
	hosts []string
}

func (r *recordingInvalidator) HostChanged(_ context.Context, hostID string) {
	r.hosts = append(r.hosts, hostID)
}

type mockEventTypeRepo struct {
	items    map[string]*models.EventType
	booked   map[string]bool
	deleted  []string
	sequence int
}

func newMockEventTypeRepo(items ...models.EventType) *mockEventTypeRepo {
	repo := &mockEventTypeRepo{items: map[string]*models.EventType{}, booked: map[string]bool{}}
	for i := range items {
		item := items[i]
		repo.items[item.ID] = &item
	}
	return repo
}

func (m *mockEventTypeRepo) List(_ context.Context, filter models.EventTypeFilter) ([]models.EventType, error) {
	var out []models.EventType
	for _, item := range m.items {
		if item.HostID == filter.HostID && (!filter.ActiveOnly || item.IsActive) {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (m *mockEventTypeRepo) FindByID(_ context.Context, id string) (*models.EventType, error) {
	if item, ok := m.items[id]; ok {
		cp := *item
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEventTypeRepo) SlugExists(_ context.Context, hostID, slug, excludeID string) (bool, error) {
	for _, item := range m.items {
		if item.HostID == hostID && item.Slug == slug && item.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockEventTypeRepo) Create(_ context.Context, item *models.EventType) error {
	m.sequence++
	if item.ID == "" {
		item.ID = fmt.Sprintf("et-%d", m.sequence)
	}
	item.CreatedAt = time.Now()
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *mockEventTypeRepo) Update(_ context.Context, item *models.EventType) error {
	if _, ok := m.items[item.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *mockEventTypeRepo) SetActive(_ context.Context, hostID, id string, active bool) error {
	item, ok := m.items[id]
	if !ok || item.HostID != hostID {
		return sql.ErrNoRows
	}
	item.IsActive = active
	return nil
}

func (m *mockEventTypeRepo) HasBookings(_ context.Context, id string) (bool, error) {
	return m.booked[id], nil
}

func (m *mockEventTypeRepo) Delete(_ context.Context, hostID, id string) error {
	if _, ok := m.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"30 Minute Meeting":      "30-minute-meeting",
		"  Quick   Chat! ":       "quick-chat",
		"Intro Call (Copy)":      "intro-call-copy",
		"snake_case__name":       "snake-case-name",
		"--already-slugged--":    "already-slugged",
		"Café Ünïcode":           "caf-ncode",
		"":                       "",
	}
	for input, want := range cases {
		assert.Equal(t, want, Slugify(input), input)
	}
}

func TestEventTypeCreateAppliesDefaults(t *testing.T) {
	repo := newMockEventTypeRepo()
	inv := &recordingInvalidator{}
	svc := NewEventTypeService(repo, inv, nil, nil)

	item, err := svc.Create(context.Background(), "host-1", dto.CreateEventTypeRequest{Name: " Intro Call "})
	require.NoError(t, err)

	assert.Equal(t, "Intro Call", item.Name)
	assert.Equal(t, "intro-call", item.Slug)
	assert.Equal(t, models.DefaultEventDuration, item.DurationMinutes)
	assert.Equal(t, models.DefaultEventColor, item.Color)
	assert.Equal(t, models.LocationZoom, item.LocationType)
	assert.Equal(t, models.DefaultMinNoticeHours, item.MinNoticeHours)
	assert.Equal(t, models.DefaultMaxDaysAhead, item.MaxDaysAhead)
	assert.True(t, item.IsActive)
	assert.Equal(t, []string{"host-1"}, inv.hosts)
}

func TestEventTypeCreateKeepsZeroNotice(t *testing.T) {
	svc := NewEventTypeService(newMockEventTypeRepo(), &recordingInvalidator{}, nil, nil)
	zero := 0
	item, err := svc.Create(context.Background(), "host-1", dto.CreateEventTypeRequest{Name: "Now", MinNoticeHours: &zero})
	require.NoError(t, err)
	assert.Zero(t, item.MinNoticeHours)
}

func TestEventTypeCreateSuffixesTakenSlug(t *testing.T) {
	repo := newMockEventTypeRepo(
		models.EventType{ID: "a", HostID: "host-1", Slug: "intro-call"},
		models.EventType{ID: "b", HostID: "host-1", Slug: "intro-call-1"},
		models.EventType{ID: "c", HostID: "host-2", Slug: "intro-call-2"},
	)
	svc := NewEventTypeService(repo, &recordingInvalidator{}, nil, nil)

	item, err := svc.Create(context.Background(), "host-1", dto.CreateEventTypeRequest{Name: "Intro Call"})
	require.NoError(t, err)
	assert.Equal(t, "intro-call-2", item.Slug)
}

func TestEventTypeCreateRejectsInvalidPayload(t *testing.T) {
	svc := NewEventTypeService(newMockEventTypeRepo(), &recordingInvalidator{}, nil, nil)

	_, err := svc.Create(context.Background(), "host-1", dto.CreateEventTypeRequest{Name: "x", DurationMinutes: 10})
	assert.True(t, appErrors.IsValidation(err))

	_, err = svc.Create(context.Background(), "host-1", dto.CreateEventTypeRequest{Name: "x", Color: "purple"})
	assert.True(t, appErrors.IsValidation(err))

	_, err = svc.Create(context.Background(), "host-1", dto.CreateEventTypeRequest{Name: "   "})
	assert.True(t, appErrors.IsValidation(err))
}

func TestEventTypeGetHidesOtherHosts(t *testing.T) {
	repo := newMockEventTypeRepo(models.EventType{ID: "a", HostID: "host-2"})
	svc := NewEventTypeService(repo, &recordingInvalidator{}, nil, nil)

	_, err := svc.Get(context.Background(), "host-1", "a")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = svc.Get(context.Background(), "host-1", "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestEventTypeUpdatePatchesProvidedFields(t *testing.T) {
	repo := newMockEventTypeRepo(models.EventType{ID: "a", HostID: "host-1", Name: "Intro", Slug: "intro", DurationMinutes: 30, Color: "#000000", IsActive: true})
	inv := &recordingInvalidator{}
	svc := NewEventTypeService(repo, inv, nil, nil)

	duration := 45
	color := "#abcdef"
	item, err := svc.Update(context.Background(), "host-1", "a", dto.UpdateEventTypeRequest{DurationMinutes: &duration, Color: &color})
	require.NoError(t, err)

	assert.Equal(t, "Intro", item.Name)
	assert.Equal(t, "intro", item.Slug)
	assert.Equal(t, 45, item.DurationMinutes)
	assert.Equal(t, "#ABCDEF", item.Color)
	assert.Equal(t, 45, repo.items["a"].DurationMinutes)
	assert.Len(t, inv.hosts, 1)
}

func TestEventTypeToggleAndDuplicate(t *testing.T) {
	repo := newMockEventTypeRepo(models.EventType{ID: "a", HostID: "host-1", Name: "Intro", Slug: "intro", DurationMinutes: 45, IsActive: true})
	svc := NewEventTypeService(repo, &recordingInvalidator{}, nil, nil)

	toggled, err := svc.Toggle(context.Background(), "host-1", "a")
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)
	assert.False(t, repo.items["a"].IsActive)

	copied, err := svc.Duplicate(context.Background(), "host-1", "a")
	require.NoError(t, err)
	assert.NotEqual(t, "a", copied.ID)
	assert.Equal(t, "Intro (Copy)", copied.Name)
	assert.Equal(t, "intro-copy", copied.Slug)
	assert.Equal(t, 45, copied.DurationMinutes)
	assert.True(t, copied.IsActive)

	again, err := svc.Duplicate(context.Background(), "host-1", "a")
	require.NoError(t, err)
	assert.Equal(t, "intro-copy-1", again.Slug)
}

func TestEventTypeDeleteRefusesBookedTypes(t *testing.T) {
	repo := newMockEventTypeRepo(
		models.EventType{ID: "a", HostID: "host-1"},
		models.EventType{ID: "b", HostID: "host-1"},
	)
	repo.booked["a"] = true
	svc := NewEventTypeService(repo, &recordingInvalidator{}, nil, nil)

	err := svc.Delete(context.Background(), "host-1", "a")
	assert.True(t, appErrors.IsConflict(err))
	assert.Contains(t, repo.items, "a")

	require.NoError(t, svc.Delete(context.Background(), "host-1", "b"))
	assert.Equal(t, []string{"b"}, repo.deleted)
}
