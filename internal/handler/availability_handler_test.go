package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/slotbook-api/internal/dto"
	"github.com/noah-isme/slotbook-api/internal/middleware"
	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

func newTestContext(w *httptest.ResponseRecorder, method, target string, body io.Reader) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c
}

func newHostContext(w *httptest.ResponseRecorder, method, target string, body io.Reader) *gin.Context {
	c := newTestContext(w, method, target, body)
	c.Set(middleware.ContextHostKey, &models.HostClaims{HostID: "host-1", Username: "ada"})
	return c
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

type scheduleServiceMock struct {
	schedule     *models.WeeklySchedule
	overrides    []models.DateOverride
	err          error
	hostID       string
	scheduleID   string
	replaced     *dto.UpdateScheduleRequest
	overrideArgs dto.DateOverrideQuery
	deletedID    string
}

func (m *scheduleServiceMock) Get(_ context.Context, hostID, scheduleID string) (*models.WeeklySchedule, error) {
	m.hostID, m.scheduleID = hostID, scheduleID
	return m.schedule, m.err
}

func (m *scheduleServiceMock) List(context.Context, string) ([]models.ScheduleSummary, error) {
	return []models.ScheduleSummary{{ID: "sched-1", Name: "Working hours", Timezone: "UTC", IsDefault: true}}, m.err
}

func (m *scheduleServiceMock) Create(_ context.Context, _ string, req dto.CreateScheduleRequest) (*models.WeeklySchedule, error) {
	if m.err != nil {
		return nil, m.err
	}
	schedule := models.DefaultSchedule("UTC")
	schedule.Name = req.Name
	return &schedule, nil
}

func (m *scheduleServiceMock) Replace(_ context.Context, _ string, req dto.UpdateScheduleRequest) (*models.WeeklySchedule, error) {
	m.replaced = &req
	return m.schedule, m.err
}

func (m *scheduleServiceMock) UpdateTimezone(_ context.Context, _ string, _ string, req dto.TimezoneRequest) (*models.WeeklySchedule, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.schedule.Timezone = req.Timezone
	return m.schedule, nil
}

func (m *scheduleServiceMock) UpsertOverride(_ context.Context, _ string, req dto.DateOverrideRequest) (*models.DateOverride, error) {
	if m.err != nil {
		return nil, m.err
	}
	date, _ := dto.ParseDate(req.SpecificDate)
	return &models.DateOverride{ID: "ov-1", ScheduleID: "sched-1", Date: date, Intervals: []models.Interval{}}, nil
}

func (m *scheduleServiceMock) ListOverrides(_ context.Context, _ string, query dto.DateOverrideQuery) ([]models.DateOverride, error) {
	m.overrideArgs = query
	return m.overrides, m.err
}

func (m *scheduleServiceMock) DeleteOverride(_ context.Context, _ string, id string) error {
	m.deletedID = id
	return m.err
}

func defaultScheduleMock() *scheduleServiceMock {
	schedule := models.DefaultSchedule("UTC")
	schedule.ID = "sched-1"
	return &scheduleServiceMock{schedule: &schedule}
}

func TestAvailabilityHandlerRequiresSession(t *testing.T) {
	handler := NewAvailabilityHandler(defaultScheduleMock())
	w := httptest.NewRecorder()
	c := newTestContext(w, http.MethodGet, "/availability/schedule", nil)

	handler.GetSchedule(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAvailabilityHandlerGetSchedule(t *testing.T) {
	svc := defaultScheduleMock()
	handler := NewAvailabilityHandler(svc)
	w := httptest.NewRecorder()
	c := newHostContext(w, http.MethodGet, "/availability/schedule?schedule_id=sched-1", nil)

	handler.GetSchedule(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "host-1", svc.hostID)
	assert.Equal(t, "sched-1", svc.scheduleID)
	var resp dto.ScheduleResponse
	decodeData(t, w, &resp)
	require.Len(t, resp.WeeklyHours, models.DaysPerWeek)
	assert.False(t, resp.WeeklyHours[0].IsEnabled)
	assert.True(t, resp.WeeklyHours[1].IsEnabled)
	assert.Equal(t, "09:00", resp.WeeklyHours[1].Intervals[0].StartTime)
}

func TestAvailabilityHandlerReplaceSchedule(t *testing.T) {
	svc := defaultScheduleMock()
	handler := NewAvailabilityHandler(svc)
	body := `{"timezone":"Europe/Berlin","weekly_hours":[{"day_of_week":1,"is_enabled":true,"intervals":[{"start_time":"10:00","end_time":"12:00"}]}]}`
	w := httptest.NewRecorder()
	c := newHostContext(w, http.MethodPut, "/availability/schedule", bytes.NewBufferString(body))

	handler.ReplaceSchedule(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.replaced)
	assert.Equal(t, "Europe/Berlin", svc.replaced.Timezone)
	assert.Equal(t, "10:00", svc.replaced.WeeklyHours[0].Intervals[0].StartTime)
}

func TestAvailabilityHandlerReplaceRejectsMalformedJSON(t *testing.T) {
	handler := NewAvailabilityHandler(defaultScheduleMock())
	w := httptest.NewRecorder()
	c := newHostContext(w, http.MethodPut, "/availability/schedule", bytes.NewBufferString(`{"weekly_hours":`))

	handler.ReplaceSchedule(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAvailabilityHandlerSurfacesServiceErrors(t *testing.T) {
	svc := defaultScheduleMock()
	svc.err = appErrors.Clone(appErrors.ErrInvalidInterval, "intervals overlap")
	handler := NewAvailabilityHandler(svc)
	w := httptest.NewRecorder()
	c := newHostContext(w, http.MethodPut, "/availability/schedule", bytes.NewBufferString(`{"timezone":"UTC","weekly_hours":[]}`))

	handler.ReplaceSchedule(c)

	require.Equal(t, appErrors.ErrInvalidInterval.Status, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrInvalidInterval.Code)
}

func TestAvailabilityHandlerTimezoneAndSchedules(t *testing.T) {
	svc := defaultScheduleMock()
	handler := NewAvailabilityHandler(svc)

	w := httptest.NewRecorder()
	c := newHostContext(w, http.MethodPatch, "/availability/schedule/timezone", bytes.NewBufferString(`{"timezone":"Asia/Tokyo"}`))
	handler.UpdateTimezone(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Asia/Tokyo")

	w = httptest.NewRecorder()
	c = newHostContext(w, http.MethodGet, "/availability/schedules", nil)
	handler.ListSchedules(c)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	c = newHostContext(w, http.MethodPost, "/availability/schedules", bytes.NewBufferString(`{"name":"Evenings"}`))
	handler.CreateSchedule(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Evenings")
}

func TestAvailabilityHandlerOverrides(t *testing.T) {
	svc := defaultScheduleMock()
	svc.overrides = []models.DateOverride{{ID: "ov-1", ScheduleID: "sched-1", Date: civil.Date{Year: 2024, Month: time.December, Day: 25}}}
	handler := NewAvailabilityHandler(svc)

	w := httptest.NewRecorder()
	c := newHostContext(w, http.MethodGet, "/availability/date-overrides?from=2024-12-01&to=2024-12-31", nil)
	handler.ListOverrides(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-12-01", svc.overrideArgs.From)
	var listed []dto.DateOverrideResponse
	decodeData(t, w, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "2024-12-25", listed[0].SpecificDate)

	w = httptest.NewRecorder()
	c = newHostContext(w, http.MethodPost, "/availability/date-overrides", bytes.NewBufferString(`{"specific_date":"2024-12-31","intervals":[]}`))
	handler.UpsertOverride(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2024-12-31")

	w = httptest.NewRecorder()
	c = newHostContext(w, http.MethodDelete, "/availability/date-overrides/ov-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "ov-1"}}
	handler.DeleteOverride(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "ov-1", svc.deletedID)
}

func TestAvailabilityHandlerFeed(t *testing.T) {
	svc := defaultScheduleMock()
	handler := NewAvailabilityHandler(svc)
	handler.now = func() time.Time { return time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC) }

	w := httptest.NewRecorder()
	c := newHostContext(w, http.MethodGet, "/availability/schedule.ics?days=7", nil)
	handler.Feed(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar"))
	assert.Contains(t, w.Body.String(), "BEGIN:VCALENDAR")
	assert.Equal(t, "sched-1", svc.overrideArgs.ScheduleID)
	assert.Equal(t, "2024-03-03", svc.overrideArgs.From)
	assert.Equal(t, "2024-03-12", svc.overrideArgs.To)

	w = httptest.NewRecorder()
	c = newHostContext(w, http.MethodGet, "/availability/schedule.ics?days=400", nil)
	handler.Feed(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
