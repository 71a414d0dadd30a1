// Package queue provides transport-agnostic message handlers for
// sync and event-creation requests arriving from the platform's job
// queue. The handlers decode JSON payloads and drive the core services;
// delivery, retries and acknowledgement stay with the transport.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skedi/calendar-sync/internal/core/domain"
	"github.com/skedi/calendar-sync/internal/core/ports/driven"
	"github.com/skedi/calendar-sync/internal/core/ports/driving"
	"github.com/skedi/calendar-sync/internal/logger"
)

// Message types dispatched by Handle.
const (
	// TypeSync requests a sync run for one integration.
	TypeSync = "calendar.sync"
	// TypeCreateEvent requests event creation at a provider.
	TypeCreateEvent = "calendar.create_event"
)

// SyncMessage requests a sync for an integration over a date range.
// Dates accept the same forms as the CLI: absolute dates or relative
// expressions like "today" and "+30 days".
type SyncMessage struct {
	IntegrationID int64  `json:"integration_id"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
}

// CreateEventMessage requests event creation on a user's integration.
type CreateEventMessage struct {
	UserID        int64    `json:"user_id"`
	Provider      string   `json:"provider"`
	IntegrationID int64    `json:"integration_id,omitempty"`
	CalendarID    string   `json:"calendar_id,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Location      string   `json:"location,omitempty"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	Attendees     []string `json:"attendees,omitempty"`
	WithMeetLink  bool     `json:"with_meet_link,omitempty"`
}

// Handler consumes queue messages and drives the core services.
type Handler struct {
	integrations driven.IntegrationStore
	auth         driving.Authenticator
	sync         driving.CalendarSync

	// now is injected for tests; defaults to time.Now.
	now func() time.Time
}

// NewHandler creates a queue message handler.
func NewHandler(
	integrations driven.IntegrationStore,
	auth driving.Authenticator,
	sync driving.CalendarSync,
) *Handler {
	return &Handler{
		integrations: integrations,
		auth:         auth,
		sync:         sync,
		now:          time.Now,
	}
}

// Handle dispatches a raw message by type. Unknown types are an error;
// handler failures are returned for the transport to log, never retried
// here.
func (h *Handler) Handle(ctx context.Context, msgType string, payload []byte) error {
	switch msgType {
	case TypeSync:
		return h.HandleSync(ctx, payload)
	case TypeCreateEvent:
		return h.HandleCreateEvent(ctx, payload)
	default:
		return fmt.Errorf("%w: unknown message type %q", domain.ErrInvalidInput, msgType)
	}
}

// HandleSync decodes and runs a sync request.
func (h *Handler) HandleSync(ctx context.Context, payload []byte) error {
	var msg SyncMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: decode sync message: %w", domain.ErrInvalidInput, err)
	}
	if msg.IntegrationID == 0 {
		return fmt.Errorf("%w: sync message without integration_id", domain.ErrInvalidInput)
	}

	now := h.now().UTC()
	start, end, err := h.resolveRange(msg.StartDate, msg.EndDate, now)
	if err != nil {
		return err
	}

	integration, err := h.integrations.Get(ctx, msg.IntegrationID)
	if err != nil {
		return fmt.Errorf("load integration %d: %w", msg.IntegrationID, err)
	}
	if !integration.IsActive() {
		logger.Warn("Skipping sync for inactive integration %d", integration.ID)
		return nil
	}

	events, err := h.sync.SyncEvents(ctx, integration, start, end)
	if err != nil {
		return fmt.Errorf("sync integration %d: %w", integration.ID, err)
	}

	logger.Info("Queue sync for integration %d: %d events", integration.ID, len(events))
	return nil
}

// HandleCreateEvent decodes and runs an event creation request.
func (h *Handler) HandleCreateEvent(ctx context.Context, payload []byte) error {
	var msg CreateEventMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: decode create message: %w", domain.ErrInvalidInput, err)
	}

	provider, err := domain.ParseProviderType(msg.Provider)
	if err != nil {
		return err
	}

	now := h.now().UTC()
	start, err := domain.ParseDate(msg.StartTime, now)
	if err != nil {
		return fmt.Errorf("start time: %w", err)
	}
	end, err := domain.ParseDate(msg.EndTime, now)
	if err != nil {
		return fmt.Errorf("end time: %w", err)
	}

	integration, err := h.auth.UserIntegration(ctx, msg.UserID, provider, msg.IntegrationID)
	if err != nil {
		return fmt.Errorf("resolve integration: %w", err)
	}

	input := domain.CreateEventInput{
		CalendarID:   msg.CalendarID,
		Title:        msg.Title,
		Description:  msg.Description,
		Location:     msg.Location,
		StartTime:    start,
		EndTime:      end,
		Attendees:    msg.Attendees,
		WithMeetLink: msg.WithMeetLink,
	}

	created, err := h.sync.CreateEvent(ctx, integration, input)
	if err != nil {
		return fmt.Errorf("create event for integration %d: %w", integration.ID, err)
	}

	logger.Info("Queue created event %s on integration %d", created.ExternalID, integration.ID)
	return nil
}

// resolveRange parses the message date range, defaulting to
// [today, +30 days).
func (h *Handler) resolveRange(startExpr, endExpr string, now time.Time) (time.Time, time.Time, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	start := midnight
	if startExpr != "" {
		parsed, err := domain.ParseDate(startExpr, now)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("start date: %w", err)
		}
		start = parsed
	}

	end := midnight.AddDate(0, 0, 30)
	if endExpr != "" {
		parsed, err := domain.ParseDate(endExpr, now)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("end date: %w", err)
		}
		end = parsed
	}

	if err := domain.ValidateRange(start, end); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
