package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jllopis/aura/pkg/core"
	"github.com/jllopis/aura/pkg/errors"
)

const timeWire = "2006-01-02T15:04:05"

// WebhookCalendar schedules events through a webhook endpoint (e.g. a
// Google Apps Script deployment). It is used by the dispatcher's
// calendar tool and, unchanged, by the orchestrator's fallback path.
type WebhookCalendar struct {
	URL    string
	Client *http.Client
	Logger *slog.Logger
}

// NewWebhookCalendar builds a calendar provider with a bounded HTTP client.
func NewWebhookCalendar(url string, timeout time.Duration, logger *slog.Logger) *WebhookCalendar {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookCalendar{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
		Logger: logger,
	}
}

type webhookEventPayload struct {
	Title       string `json:"title"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Description string `json:"description,omitempty"`
}

type webhookEventReply struct {
	EventID string `json:"eventId"`
}

// ScheduleEvent implements core.CalendarScheduler.
func (c *WebhookCalendar) ScheduleEvent(ctx context.Context, req core.EventRequest) (core.EventConfirmation, error) {
	url := strings.TrimSuffix(c.URL, "%")
	if url == "" {
		return core.EventConfirmation{}, errors.New(errors.CodeInvalidInput,
			"calendar service misconfigured: missing webhook URL", nil).
			WithContext("env", "AURA_CALENDAR_WEBHOOK_URL")
	}

	payload := webhookEventPayload{
		Title:       req.Title,
		StartTime:   req.Start.Format(timeWire),
		EndTime:     req.End.Format(timeWire),
		Description: req.Description,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return core.EventConfirmation{}, errors.New(errors.CodeInternal, "encode event payload", err)
	}

	c.Logger.InfoContext(ctx, "scheduling calendar event", "title", req.Title, "start", payload.StartTime)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return core.EventConfirmation{}, errors.New(errors.CodeInternal, "build calendar request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return core.EventConfirmation{}, errors.New(errors.CodeConnection, "calendar webhook unreachable", err).
			WithRecoverable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 100))
		return core.EventConfirmation{}, errors.New(errors.CodeToolFailure,
			fmt.Sprintf("failed to create calendar event: %s", strings.TrimSpace(string(snippet))), nil).
			WithContext("status_code", resp.StatusCode)
	}

	confirmation := core.EventConfirmation{
		Message: fmt.Sprintf("Successfully scheduled '%s' in your calendar", req.Title),
	}
	var reply webhookEventReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err == nil && reply.EventID != "" {
		confirmation.EventID = reply.EventID
	}
	return confirmation, nil
}
