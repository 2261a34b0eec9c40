package orchestrator

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/jllopis/aura/pkg/core"
	"github.com/jllopis/aura/pkg/errors"
	"github.com/jllopis/aura/pkg/intent"
)

// timeWire is the timestamp layout on the tool parameter surface.
const timeWire = "2006-01-02T15:04:05"

// spokenTime renders a timestamp the way confirmations phrase it.
const spokenTime = "03:04 PM on Monday, January 02"

func (o *Orchestrator) handleVideoSearch(ctx context.Context, command string) (core.Result, map[string]any) {
	query := intent.ExtractSearchQuery(command)
	result := o.callTool(ctx, "search_videos", map[string]any{"query": query})

	meta := map[string]any{"query": query}
	if result.OK() {
		if u, ok := result.Payload["url"].(string); ok {
			meta["video_url"] = u
		}
	}
	return result, meta
}

func (o *Orchestrator) handleCalendar(ctx context.Context, command string) core.Result {
	title := o.titles.ExtractTitle(command)
	start, end := o.windows.ExtractWindow(command, o.now())
	description := intent.DescriptionFromCommand(command)

	params := map[string]any{
		"title":      title,
		"start_time": start.Format(timeWire),
		"end_time":   end.Format(timeWire),
	}
	if description != "" {
		params["description"] = description
	}

	primary := o.callTool(ctx, "schedule_calendar_event", params)
	if primary.OK() {
		return core.Successf("I've scheduled an event titled '%s' starting at %s and ending at %s.",
			title, start.Format(spokenTime), end.Format("03:04 PM"))
	}

	if o.calendar == nil {
		return primary
	}

	o.logger.WarnContext(ctx, "calendar primary path failed, using direct provider",
		"code", primary.Code, "error", primary.Message)
	confirmation, err := o.calendar.ScheduleEvent(ctx, core.EventRequest{
		Title:       title,
		Start:       start,
		End:         end,
		Description: description,
	})
	o.metrics.RecordFallback(ctx, intent.CategoryCalendar, err == nil)
	if err != nil {
		return fallbackExhausted(primary, err)
	}
	return core.Successf("I've scheduled an event titled '%s' starting at %s and ending at %s.",
		title, start.Format(spokenTime), end.Format("03:04 PM")).
		WithPayload("event_id", confirmation.EventID)
}

func (o *Orchestrator) handleSocial(ctx context.Context, command string) core.Result {
	text := o.tweets.ExtractTweet(command)
	if text == "" {
		return core.Failure(string(errors.CodeInvalidInput),
			"I couldn't work out what you want to post. Try quoting the text.")
	}

	primary := o.callTool(ctx, "post_update", map[string]any{"text": text})
	if primary.OK() {
		return primary
	}
	// Credential problems fail the same way on the direct path; surface
	// the resolution hint instead of retrying.
	if primary.Code == string(errors.CodeUnauthorized) || o.social == nil {
		return primary
	}

	o.logger.WarnContext(ctx, "social primary path failed, using direct provider",
		"code", primary.Code, "error", primary.Message)
	confirmation, err := o.social.PostText(ctx, text)
	o.metrics.RecordFallback(ctx, intent.CategorySocial, err == nil)
	if err != nil {
		return fallbackExhausted(primary, err)
	}
	result := core.Success(confirmation.Message)
	if confirmation.PostURL != "" {
		result = result.WithPayload("post_url", confirmation.PostURL)
	}
	return result
}

var (
	emailAddrRe    = regexp.MustCompile(`[\w.+-]+@[\w-]+\.[\w.-]+`)
	emailSubjectRe = regexp.MustCompile(`(?i)(?:subject|about)\s+["']?([^"']+?)["']?(?:\s+(?:saying|body)\b.*)?$`)
	emailBodyRe    = regexp.MustCompile(`(?i)(?:saying|body)\s+["']?([^"']+)["']?`)
)

func (o *Orchestrator) handleEmail(ctx context.Context, command string) core.Result {
	recipient := emailAddrRe.FindString(command)
	if recipient == "" {
		return core.Failure(string(errors.CodeInvalidInput),
			"I couldn't find a recipient address in your request.")
	}

	subject := "Message from Aura"
	if m := emailSubjectRe.FindStringSubmatch(command); m != nil {
		subject = strings.TrimSpace(m[1])
	}
	body := command
	if m := emailBodyRe.FindStringSubmatch(command); m != nil {
		body = strings.TrimSpace(m[1])
	}

	return o.callTool(ctx, "send_email", map[string]any{
		"recipient": recipient,
		"subject":   subject,
		"body":      body,
	})
}

var webURLRe = regexp.MustCompile(`https?://[^\s]+|(?:www\.)[^\s]+`)

// handleBrowser covers browser and general commands. Both end at the
// navigate tool; there is no fallback, a failed browser action is
// surfaced as-is.
func (o *Orchestrator) handleBrowser(ctx context.Context, command string) core.Result {
	target := webURLRe.FindString(command)
	if target == "" {
		target = "https://www.google.com/search?q=" + url.QueryEscape(command)
	} else if !strings.HasPrefix(target, "http") {
		target = "https://" + target
	}
	return o.callTool(ctx, "navigate", map[string]any{"url": target})
}

// fallbackExhausted combines the primary and fallback failures into
// one terminal error result.
func fallbackExhausted(primary core.Result, fallbackErr error) core.Result {
	result := core.Failure(string(errors.CodeFallbackExhausted),
		fmt.Sprintf("both the tool path and the direct path failed: %s; %v", primary.Message, fallbackErr))
	if primary.Resolution != "" {
		result = result.WithResolution(primary.Resolution)
	}
	if ae := errors.AsAuraError(fallbackErr); ae != nil {
		if hint, ok := ae.Context["resolution"].(string); ok {
			result = result.WithResolution(hint)
		}
	}
	return result
}
