package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jllopis/aura/pkg/core"
	"github.com/jllopis/aura/pkg/errors"
)

// timeWire is the timestamp layout used on the tool parameter surface.
const timeWire = "2006-01-02T15:04:05"

// Providers collects the capability implementations the tool set is
// built on.
type Providers struct {
	Browser  core.BrowserAutomator
	Calendar core.CalendarScheduler
	Social   core.SocialPoster
	Email    core.EmailSender
}

// BuildRegistry registers the full tool set against the given
// providers. This is the single place where tool names, parameter
// shapes and handlers are bound together.
func BuildRegistry(p Providers, logger *slog.Logger) (*Registry, error) {
	r := NewRegistry(logger)

	descriptors := []Descriptor{
		{
			Name:        "navigate",
			Description: "Open a URL in the browser session.",
			Schema:      map[string]string{"url": "absolute URL to open"},
			Handler:     navigateHandler(p.Browser),
		},
		{
			Name:        "search_videos",
			Description: "Search YouTube and open the results page.",
			Schema:      map[string]string{"query": "free-text search query"},
			Handler:     searchVideosHandler(p.Browser),
		},
		{
			Name:        "fill_form",
			Description: "Fill form fields on the current page.",
			Schema: map[string]string{
				"data":      "object mapping field name to value",
				"selectors": "optional object mapping field name to CSS selector",
			},
			Handler: fillFormHandler(p.Browser),
		},
		{
			Name:        "click_element",
			Description: "Click an element on the current page.",
			Schema:      map[string]string{"selector": "CSS selector of the element"},
			Handler:     clickElementHandler(p.Browser),
		},
		{
			Name:        "schedule_calendar_event",
			Description: "Create a calendar event.",
			Schema: map[string]string{
				"title":       "event title",
				"start_time":  "start timestamp, " + timeWire,
				"end_time":    "end timestamp, " + timeWire,
				"description": "optional event description",
			},
			Handler: scheduleEventHandler(p.Calendar),
		},
		{
			Name:        "post_update",
			Description: "Publish a short text update to the social platform.",
			Schema:      map[string]string{"text": "text of the post"},
			Handler:     postUpdateHandler(p.Social),
		},
		{
			Name:        "send_email",
			Description: "Send an email on the user's behalf.",
			Schema: map[string]string{
				"recipient": "destination address",
				"subject":   "message subject",
				"body":      "message body",
			},
			Handler: sendEmailHandler(p.Email),
		},
	}

	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func navigateHandler(browser core.BrowserAutomator) Handler {
	return func(ctx context.Context, params map[string]any) core.Result {
		target, ok := stringParam(params, "url")
		if !ok {
			return missingParam("url")
		}
		if err := browser.Navigate(ctx, target); err != nil {
			return failureFromError(err)
		}
		return core.Successf("Navigated to %s", target)
	}
}

func searchVideosHandler(browser core.BrowserAutomator) Handler {
	return func(ctx context.Context, params map[string]any) core.Result {
		query, ok := stringParam(params, "query")
		if !ok {
			return missingParam("query")
		}
		target := "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
		if err := browser.Navigate(ctx, target); err != nil {
			return failureFromError(err)
		}
		return core.Successf("Searching YouTube for '%s'", query).WithPayload("url", target)
	}
}

func fillFormHandler(browser core.BrowserAutomator) Handler {
	return func(ctx context.Context, params map[string]any) core.Result {
		data, ok := stringMapParam(params, "data")
		if !ok || len(data) == 0 {
			return missingParam("data")
		}
		selectors, _ := stringMapParam(params, "selectors")
		if err := browser.FillForm(ctx, data, selectors); err != nil {
			return failureFromError(err)
		}
		return core.Successf("Filled %d form field(s)", len(data))
	}
}

func clickElementHandler(browser core.BrowserAutomator) Handler {
	return func(ctx context.Context, params map[string]any) core.Result {
		selector, ok := stringParam(params, "selector")
		if !ok {
			return missingParam("selector")
		}
		if err := browser.ClickElement(ctx, selector); err != nil {
			return failureFromError(err)
		}
		return core.Successf("Clicked element %s", selector)
	}
}

func scheduleEventHandler(calendar core.CalendarScheduler) Handler {
	return func(ctx context.Context, params map[string]any) core.Result {
		title, ok := stringParam(params, "title")
		if !ok {
			return missingParam("title")
		}
		startRaw, ok := stringParam(params, "start_time")
		if !ok {
			return missingParam("start_time")
		}
		endRaw, ok := stringParam(params, "end_time")
		if !ok {
			return missingParam("end_time")
		}

		start, err := time.ParseInLocation(timeWire, startRaw, time.Local)
		if err != nil {
			return core.Failuref(string(errors.CodeInvalidInput), "invalid start_time %q: expected %s", startRaw, timeWire)
		}
		end, err := time.ParseInLocation(timeWire, endRaw, time.Local)
		if err != nil {
			return core.Failuref(string(errors.CodeInvalidInput), "invalid end_time %q: expected %s", endRaw, timeWire)
		}

		description, _ := stringParam(params, "description")
		confirmation, err := calendar.ScheduleEvent(ctx, core.EventRequest{
			Title:       title,
			Start:       start,
			End:         end,
			Description: description,
		})
		if err != nil {
			return failureFromError(err)
		}
		return core.Success(confirmation.Message).WithPayload("event_id", confirmation.EventID)
	}
}

func postUpdateHandler(social core.SocialPoster) Handler {
	return func(ctx context.Context, params map[string]any) core.Result {
		text, ok := stringParam(params, "text")
		if !ok {
			return missingParam("text")
		}
		confirmation, err := social.PostText(ctx, text)
		if err != nil {
			return failureFromError(err)
		}
		return core.Success(confirmation.Message).
			WithPayload("post_id", confirmation.PostID).
			WithPayload("post_url", confirmation.PostURL)
	}
}

func sendEmailHandler(email core.EmailSender) Handler {
	return func(ctx context.Context, params map[string]any) core.Result {
		recipient, ok := stringParam(params, "recipient")
		if !ok {
			return missingParam("recipient")
		}
		subject, _ := stringParam(params, "subject")
		body, _ := stringParam(params, "body")
		if err := email.Send(ctx, core.EmailRequest{Recipient: recipient, Subject: subject, Body: body}); err != nil {
			return failureFromError(err)
		}
		return core.Successf("Email sent to %s", recipient)
	}
}

func missingParam(name string) core.Result {
	return core.Failuref(string(errors.CodeInvalidInput), "missing required parameter: %s", name)
}

// failureFromError turns a provider error into an error Result,
// carrying the error code and any resolution hint across the tool
// boundary.
func failureFromError(err error) core.Result {
	ae := errors.AsAuraError(err)
	msg := ae.Message
	if ae.Err != nil {
		msg = fmt.Sprintf("%s: %v", ae.Message, ae.Err)
	}
	result := core.Failure(string(ae.Code), msg)
	if hint, ok := ae.Context["resolution"].(string); ok {
		result = result.WithResolution(hint)
	}
	return result
}

func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// stringMapParam accepts either map[string]string or the
// map[string]any shape JSON decoding produces.
func stringMapParam(params map[string]any, key string) (map[string]string, bool) {
	v, ok := params[key]
	if !ok {
		return nil, false
	}
	switch m := v.(type) {
	case map[string]string:
		return m, true
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, val := range m {
			out[k] = fmt.Sprintf("%v", val)
		}
		return out, true
	}
	return nil, false
}
