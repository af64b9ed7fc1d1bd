// Package apiclient talks to the slotbook HTTP API on behalf of the availability editor
// and the invitee booking flow.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/noah-isme/slotbook-api/internal/availability"
	"github.com/noah-isme/slotbook-api/internal/dto"
	"github.com/noah-isme/slotbook-api/internal/models"
	appErrors "github.com/noah-isme/slotbook-api/pkg/errors"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 4 << 20
)

// Client is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	token   func() string
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken sends a fixed bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = func() string { return token } }
}

// WithTokenSource reads the bearer token before every request, so a refreshed session
// is picked up without rebuilding the client.
func WithTokenSource(source func() string) Option {
	return func(c *Client) { c.token = source }
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for baseURL, which includes the API prefix (for example
// "https://book.example.com/api/v1").
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	c := &Client{
		baseURL: parsed,
		http:    &http.Client{Timeout: defaultTimeout},
		token:   func() string { return "" },
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetSchedule loads the signed-in host's schedule. An empty scheduleID means the default.
func (c *Client) GetSchedule(ctx context.Context, scheduleID string) (models.WeeklySchedule, error) {
	query := url.Values{}
	if scheduleID != "" {
		query.Set("schedule_id", scheduleID)
	}
	data, err := c.do(ctx, http.MethodGet, "/availability/schedule", query, nil)
	if err != nil {
		return models.WeeklySchedule{}, err
	}
	schedule, err := dto.NormalizeSchedule(data)
	if err != nil {
		return models.WeeklySchedule{}, decodeFailure(err)
	}
	return schedule, nil
}

// UpdateSchedule replaces the schedule's weekly hours and timezone and returns what the
// server stored.
func (c *Client) UpdateSchedule(ctx context.Context, schedule models.WeeklySchedule) (models.WeeklySchedule, error) {
	wire := dto.ScheduleFromModel(schedule)
	payload := dto.UpdateScheduleRequest{
		ScheduleID:  schedule.ID,
		Name:        schedule.Name,
		Timezone:    schedule.Timezone,
		WeeklyHours: wire.WeeklyHours,
	}
	data, err := c.do(ctx, http.MethodPut, "/availability/schedule", nil, payload)
	if err != nil {
		return models.WeeklySchedule{}, err
	}
	saved, err := dto.NormalizeSchedule(data)
	if err != nil {
		return models.WeeklySchedule{}, decodeFailure(err)
	}
	return saved, nil
}

// AvailableDates lists the bookable dates of month as seen from timezone.
func (c *Client) AvailableDates(ctx context.Context, eventTypeID string, month availability.Month, timezone string) ([]civil.Date, error) {
	query := url.Values{}
	query.Set("event_type_id", eventTypeID)
	query.Set("month", month.String())
	if timezone != "" {
		query.Set("timezone", timezone)
	}
	data, err := c.do(ctx, http.MethodGet, "/public/available-dates", query, nil)
	if err != nil {
		return nil, err
	}
	dates, err := dto.NormalizeDates(data)
	if err != nil {
		return nil, decodeFailure(err)
	}
	return dates, nil
}

// AvailableSlots lists the bookable slots of date, presented in timezone.
func (c *Client) AvailableSlots(ctx context.Context, eventTypeID string, date civil.Date, timezone string) ([]models.Slot, error) {
	viewer := time.UTC
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidTimezone.Code, appErrors.ErrInvalidTimezone.Status, fmt.Sprintf("unknown timezone %q", timezone))
		}
		viewer = loc
	}
	query := url.Values{}
	query.Set("event_type_id", eventTypeID)
	query.Set("date", date.String())
	if timezone != "" {
		query.Set("timezone", timezone)
	}
	data, err := c.do(ctx, http.MethodGet, "/public/slots", query, nil)
	if err != nil {
		return nil, err
	}
	slots, err := dto.NormalizeSlots(data, viewer, 0)
	if err != nil {
		return nil, decodeFailure(err)
	}
	return slots, nil
}

// CreateBooking books a slot.
func (c *Client) CreateBooking(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error) {
	data, err := c.do(ctx, http.MethodPost, "/public/bookings", nil, req)
	if err != nil {
		return dto.BookingResponse{}, err
	}
	booking, err := dto.NormalizeBooking(data)
	if err != nil {
		return dto.BookingResponse{}, decodeFailure(err)
	}
	return booking, nil
}

// CancelBooking cancels through the signed link token handed out at booking time.
func (c *Client) CancelBooking(ctx context.Context, token, reason string) (dto.BookingResponse, error) {
	data, err := c.do(ctx, http.MethodPost, "/public/bookings/cancel", nil, dto.InviteeCancelRequest{Token: token, Reason: reason})
	if err != nil {
		return dto.BookingResponse{}, err
	}
	booking, err := dto.NormalizeBooking(data)
	if err != nil {
		return dto.BookingResponse{}, decodeFailure(err)
	}
	return booking, nil
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

// do sends one request and returns the envelope's data, or the whole body when the
// server answered without an envelope.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) ([]byte, error) {
	target := *c.baseURL
	target.Path = c.baseURL.Path + path
	target.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "could not encode request")
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "could not build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		c.logger.Warn("api request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, appErrors.ErrTransient.Message)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, appErrors.ErrTransient.Message)
	}
	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	var env envelope
	enveloped := json.Unmarshal(raw, &env) == nil && (env.Data != nil || env.Error != nil)
	if resp.StatusCode >= http.StatusBadRequest {
		if enveloped && env.Error != nil && env.Error.Code != "" {
			apiErr := appErrors.New(env.Error.Code, resp.StatusCode, env.Error.Message)
			if apiErr.Message == "" {
				apiErr.Message = statusError(resp.StatusCode).Message
			}
			return nil, apiErr
		}
		return nil, statusError(resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if enveloped {
		return env.Data, nil
	}
	return raw, nil
}

// statusError maps a bare HTTP status onto the error taxonomy.
func statusError(status int) *appErrors.Error {
	var base *appErrors.Error
	switch {
	case status == http.StatusUnauthorized:
		base = appErrors.ErrUnauthorized
	case status == http.StatusForbidden:
		base = appErrors.ErrForbidden
	case status == http.StatusNotFound:
		base = appErrors.ErrNotFound
	case status == http.StatusConflict:
		base = appErrors.ErrConflict
	case status == http.StatusTooManyRequests:
		base = appErrors.ErrTooMany
	case status >= http.StatusInternalServerError:
		base = appErrors.ErrTransient
	default:
		base = appErrors.ErrValidation
	}
	clone := appErrors.Clone(base, "")
	clone.Status = status
	return clone
}

func decodeFailure(err error) error {
	return appErrors.Wrap(err, appErrors.ErrTransient.Code, appErrors.ErrTransient.Status, "unexpected response from server")
}
