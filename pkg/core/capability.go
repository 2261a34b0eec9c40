package core

import (
	"context"
	"time"
)

// Capability providers are the external collaborators that perform the
// actual real-world effects. Both the dispatcher tools and the
// orchestrator fallback paths consume these contracts.

// BrowserAutomator drives a browser session.
type BrowserAutomator interface {
	Navigate(ctx context.Context, url string) error
	FillForm(ctx context.Context, data map[string]string, selectors map[string]string) error
	ClickElement(ctx context.Context, selector string) error
}

// EventRequest describes a calendar event to schedule.
type EventRequest struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"startTime"`
	End         time.Time `json:"endTime"`
	Description string    `json:"description,omitempty"`
}

// EventConfirmation is the provider's acknowledgment of a scheduled event.
type EventConfirmation struct {
	Message string
	EventID string
}

// CalendarScheduler creates events in the user's calendar.
type CalendarScheduler interface {
	ScheduleEvent(ctx context.Context, req EventRequest) (EventConfirmation, error)
}

// PostConfirmation is the provider's acknowledgment of a published post.
type PostConfirmation struct {
	Message string
	PostID  string
	PostURL string
}

// SocialPoster publishes short text updates to a social platform.
type SocialPoster interface {
	PostText(ctx context.Context, text string) (PostConfirmation, error)
}

// EmailRequest describes an outbound email.
type EmailRequest struct {
	Recipient string
	Subject   string
	Body      string
}

// EmailSender delivers email on the user's behalf.
type EmailSender interface {
	Send(ctx context.Context, req EmailRequest) error
}
