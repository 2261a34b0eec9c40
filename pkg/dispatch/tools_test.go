package dispatch

import (
	"context"
	"strings"
	"testing"

	"github.com/jllopis/aura/pkg/core"
	"github.com/jllopis/aura/pkg/errors"
)

type fakeBrowser struct {
	navigated []string
	filled    []map[string]string
	clicked   []string
	err       error
}

func (f *fakeBrowser) Navigate(ctx context.Context, url string) error {
	if f.err != nil {
		return f.err
	}
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakeBrowser) FillForm(ctx context.Context, data map[string]string, selectors map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.filled = append(f.filled, data)
	return nil
}

func (f *fakeBrowser) ClickElement(ctx context.Context, selector string) error {
	if f.err != nil {
		return f.err
	}
	f.clicked = append(f.clicked, selector)
	return nil
}

type fakeCalendar struct {
	last core.EventRequest
	err  error
}

func (f *fakeCalendar) ScheduleEvent(ctx context.Context, req core.EventRequest) (core.EventConfirmation, error) {
	if f.err != nil {
		return core.EventConfirmation{}, f.err
	}
	f.last = req
	return core.EventConfirmation{Message: "event created", EventID: "ev-1"}, nil
}

type fakeSocial struct {
	err error
}

func (f *fakeSocial) PostText(ctx context.Context, text string) (core.PostConfirmation, error) {
	if f.err != nil {
		return core.PostConfirmation{}, f.err
	}
	return core.PostConfirmation{Message: "posted", PostID: "42", PostURL: "https://twitter.com/i/web/status/42"}, nil
}

type fakeEmail struct {
	sent []core.EmailRequest
}

func (f *fakeEmail) Send(ctx context.Context, req core.EmailRequest) error {
	f.sent = append(f.sent, req)
	return nil
}

func testRegistry(t *testing.T, p Providers) *Registry {
	t.Helper()
	r, err := BuildRegistry(p, nil)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	return r
}

func fullProviders() (Providers, *fakeBrowser, *fakeCalendar, *fakeEmail) {
	browser := &fakeBrowser{}
	calendar := &fakeCalendar{}
	email := &fakeEmail{}
	return Providers{
		Browser:  browser,
		Calendar: calendar,
		Social:   &fakeSocial{},
		Email:    email,
	}, browser, calendar, email
}

func TestBuildRegistryToolSet(t *testing.T) {
	p, _, _, _ := fullProviders()
	r := testRegistry(t, p)

	want := []string{
		"navigate", "search_videos", "fill_form", "click_element",
		"schedule_calendar_event", "post_update", "send_email",
	}
	got := r.Names()
	if len(got) != len(want) {
		t.Fatalf("registered %d tools, want %d: %v", len(got), len(want), got)
	}
	for i, name := range want {
		if got[i] != name {
			t.Errorf("tool[%d] = %q, want %q", i, got[i], name)
		}
	}
}

func TestNavigateTool(t *testing.T) {
	p, browser, _, _ := fullProviders()
	r := testRegistry(t, p)

	res := r.Invoke(context.Background(), "navigate", map[string]any{"url": "https://example.com"})
	if !res.OK() {
		t.Fatalf("navigate failed: %v", res.Message)
	}
	if len(browser.navigated) != 1 || browser.navigated[0] != "https://example.com" {
		t.Errorf("navigated = %v", browser.navigated)
	}

	res = r.Invoke(context.Background(), "navigate", nil)
	if res.OK() || res.Code != string(errors.CodeInvalidInput) {
		t.Errorf("missing url: status=%s code=%s", res.Status, res.Code)
	}
}

func TestSearchVideosBuildsResultsURL(t *testing.T) {
	p, browser, _, _ := fullProviders()
	r := testRegistry(t, p)

	res := r.Invoke(context.Background(), "search_videos", map[string]any{"query": "lo fi beats"})
	if !res.OK() {
		t.Fatalf("search_videos failed: %v", res.Message)
	}
	if len(browser.navigated) != 1 {
		t.Fatalf("expected one navigation, got %v", browser.navigated)
	}
	target := browser.navigated[0]
	if !strings.HasPrefix(target, "https://www.youtube.com/results?search_query=") {
		t.Errorf("unexpected target %q", target)
	}
	if !strings.Contains(target, "lo+fi+beats") {
		t.Errorf("query not escaped into %q", target)
	}
}

func TestScheduleCalendarEventTool(t *testing.T) {
	p, _, calendar, _ := fullProviders()
	r := testRegistry(t, p)

	params := map[string]any{
		"title":       "Team sync",
		"start_time":  "2026-09-01T15:00:00",
		"end_time":    "2026-09-01T16:00:00",
		"description": "weekly",
	}
	res := r.Invoke(context.Background(), "schedule_calendar_event", params)
	if !res.OK() {
		t.Fatalf("schedule failed: %v", res.Message)
	}
	if calendar.last.Title != "Team sync" {
		t.Errorf("title = %q", calendar.last.Title)
	}
	if calendar.last.Start.Hour() != 15 || calendar.last.End.Hour() != 16 {
		t.Errorf("window = %v .. %v", calendar.last.Start, calendar.last.End)
	}
	if res.Payload["event_id"] != "ev-1" {
		t.Errorf("payload = %v", res.Payload)
	}

	params["start_time"] = "tomorrow at 3"
	res = r.Invoke(context.Background(), "schedule_calendar_event", params)
	if res.OK() || res.Code != string(errors.CodeInvalidInput) {
		t.Errorf("bad timestamp: status=%s code=%s", res.Status, res.Code)
	}
}

func TestPostUpdateCarriesResolutionHint(t *testing.T) {
	p, _, _, _ := fullProviders()
	p.Social = &fakeSocial{
		err: errors.New(errors.CodeUnauthorized, "credentials lack write permission", nil).
			WithContext("resolution", "enable Read and Write permissions for the app"),
	}
	r := testRegistry(t, p)

	res := r.Invoke(context.Background(), "post_update", map[string]any{"text": "hello"})
	if res.OK() {
		t.Fatal("expected error result")
	}
	if res.Code != string(errors.CodeUnauthorized) {
		t.Errorf("code = %q", res.Code)
	}
	if !strings.Contains(res.Resolution, "Read and Write") {
		t.Errorf("resolution hint missing: %q", res.Resolution)
	}
}

func TestSendEmailTool(t *testing.T) {
	p, _, _, email := fullProviders()
	r := testRegistry(t, p)

	res := r.Invoke(context.Background(), "send_email", map[string]any{
		"recipient": "dana@example.com",
		"subject":   "hi",
		"body":      "hello",
	})
	if !res.OK() {
		t.Fatalf("send_email failed: %v", res.Message)
	}
	if len(email.sent) != 1 || email.sent[0].Recipient != "dana@example.com" {
		t.Errorf("sent = %v", email.sent)
	}
}

func TestFillFormAcceptsJSONShapedData(t *testing.T) {
	p, browser, _, _ := fullProviders()
	r := testRegistry(t, p)

	// JSON decoding delivers map[string]any, not map[string]string.
	res := r.Invoke(context.Background(), "fill_form", map[string]any{
		"data": map[string]any{"name": "Dana", "email": "dana@example.com"},
	})
	if !res.OK() {
		t.Fatalf("fill_form failed: %v", res.Message)
	}
	if len(browser.filled) != 1 || browser.filled[0]["name"] != "Dana" {
		t.Errorf("filled = %v", browser.filled)
	}
}
