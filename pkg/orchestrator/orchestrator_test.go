package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jllopis/aura/pkg/core"
	"github.com/jllopis/aura/pkg/errors"
	"github.com/jllopis/aura/pkg/ledger"
)

type toolCall struct {
	name   string
	params map[string]any
}

type fakeConnector struct {
	connected  bool
	connectErr error
	connects   int
	calls      []toolCall
	// results are consumed in order; the last one repeats.
	results []core.Result
}

func (f *fakeConnector) Connect(ctx context.Context) error {
	f.connects++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeConnector) Connected() bool { return f.connected }

func (f *fakeConnector) CallTool(ctx context.Context, name string, params map[string]any) core.Result {
	f.calls = append(f.calls, toolCall{name: name, params: params})
	if len(f.results) == 0 {
		return core.Success("ok")
	}
	res := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return res
}

type recordingCalendar struct {
	requests []core.EventRequest
	err      error
}

func (r *recordingCalendar) ScheduleEvent(ctx context.Context, req core.EventRequest) (core.EventConfirmation, error) {
	r.requests = append(r.requests, req)
	if r.err != nil {
		return core.EventConfirmation{}, r.err
	}
	return core.EventConfirmation{Message: "event created", EventID: "ev-9"}, nil
}

type recordingSocial struct {
	posts []string
	err   error
}

func (r *recordingSocial) PostText(ctx context.Context, text string) (core.PostConfirmation, error) {
	r.posts = append(r.posts, text)
	if r.err != nil {
		return core.PostConfirmation{}, r.err
	}
	return core.PostConfirmation{Message: "Successfully posted your tweet!", PostURL: "https://twitter.com/i/web/status/7"}, nil
}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, 9, 1, 9, 0, 0, 0, time.Local)
	}
}

func connectionFailure() core.Result {
	return core.Failure(string(errors.CodeConnection), "not connected to dispatcher")
}

func TestProcessVideoURLShortCircuit(t *testing.T) {
	conn := &fakeConnector{}
	taskLedger := ledger.New(nil)
	o := New(conn, taskLedger, nil, WithClock(fixedClock()))

	resp := o.Process(context.Background(), "check out https://youtu.be/dQw4w9WgXcQ")
	if resp.Type != core.ResponseOK {
		t.Fatalf("response type = %s", resp.Type)
	}
	if resp.Metadata["video_url"] != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("video_url = %v", resp.Metadata["video_url"])
	}
	if len(conn.calls) != 0 {
		t.Errorf("expected no tool calls, got %v", conn.calls)
	}
	if taskLedger.Len() != 0 {
		t.Errorf("short-circuit should not create ledger entries, got %d", taskLedger.Len())
	}
}

func TestProcessCalendarPrimaryPath(t *testing.T) {
	conn := &fakeConnector{connected: true}
	taskLedger := ledger.New(nil)
	o := New(conn, taskLedger, nil, WithClock(fixedClock()))

	resp := o.Process(context.Background(), "Schedule a meeting with Dana at 2pm")
	if resp.Type != core.ResponseOK {
		t.Fatalf("response type = %s: %v", resp.Type, resp.Data)
	}
	if resp.Metadata["intent"] != "calendar" {
		t.Errorf("intent = %v", resp.Metadata["intent"])
	}

	if len(conn.calls) != 1 || conn.calls[0].name != "schedule_calendar_event" {
		t.Fatalf("calls = %v", conn.calls)
	}
	start, _ := conn.calls[0].params["start_time"].(string)
	if !strings.Contains(start, "T14:00:00") {
		t.Errorf("start_time = %q, want 14:00", start)
	}

	msg, _ := resp.Data.(string)
	if !strings.Contains(msg, "I've scheduled an event titled") || !strings.Contains(msg, "02:00 PM") {
		t.Errorf("confirmation message = %q", msg)
	}

	tasks := taskLedger.List()
	if len(tasks) != 1 {
		t.Fatalf("ledger has %d tasks", len(tasks))
	}
	if tasks[0].Status != core.TaskStatusCompleted {
		t.Errorf("task status = %s", tasks[0].Status)
	}
	if tasks[0].Context["intent"] != "calendar" {
		t.Errorf("task context = %v", tasks[0].Context)
	}
}

func TestProcessCalendarFallbackAfterDeadDispatcher(t *testing.T) {
	conn := &fakeConnector{
		connectErr: errors.New(errors.CodeConnection, "dispatcher unavailable", nil),
		results:    []core.Result{connectionFailure()},
	}
	calendar := &recordingCalendar{}
	taskLedger := ledger.New(nil)
	o := New(conn, taskLedger, nil,
		WithClock(fixedClock()),
		WithFallbackCalendar(calendar),
	)

	resp := o.Process(context.Background(), "Schedule a meeting with Dana at 2pm")
	if resp.Type != core.ResponseOK {
		t.Fatalf("expected fallback success, got %s: %v", resp.Type, resp.Data)
	}

	// Primary path: one call, one failed reconnect, no re-call.
	if len(conn.calls) != 1 {
		t.Errorf("tool calls = %d, want 1", len(conn.calls))
	}
	if conn.connects != 1 {
		t.Errorf("reconnect attempts = %d, want 1", conn.connects)
	}

	// Fallback ran exactly once with the extracted window.
	if len(calendar.requests) != 1 {
		t.Fatalf("fallback executions = %d, want 1", len(calendar.requests))
	}
	req := calendar.requests[0]
	if req.Start.Hour() != 14 || req.End.Hour() != 15 {
		t.Errorf("window = %v .. %v", req.Start, req.End)
	}
	if req.Title == "" || req.Title == "Reminder" {
		t.Errorf("title = %q", req.Title)
	}

	msg, _ := resp.Data.(string)
	if !strings.Contains(msg, "I've scheduled an event titled") {
		t.Errorf("message = %q", msg)
	}

	tasks := taskLedger.List()
	if len(tasks) != 1 || tasks[0].Status != core.TaskStatusCompleted {
		t.Errorf("ledger state = %v", tasks)
	}
}

func TestProcessFallbackExhausted(t *testing.T) {
	conn := &fakeConnector{
		connectErr: errors.New(errors.CodeConnection, "dispatcher unavailable", nil),
		results:    []core.Result{connectionFailure()},
	}
	calendar := &recordingCalendar{err: errors.New(errors.CodeToolFailure, "webhook rejected the event", nil)}
	taskLedger := ledger.New(nil)
	o := New(conn, taskLedger, nil, WithClock(fixedClock()), WithFallbackCalendar(calendar))

	resp := o.Process(context.Background(), "schedule a meeting at 3pm")
	if resp.Type != core.ResponseErr {
		t.Fatalf("expected error response, got %s", resp.Type)
	}
	msg, _ := resp.Data.(string)
	if !strings.Contains(msg, "both the tool path and the direct path failed") {
		t.Errorf("message = %q", msg)
	}
	if len(calendar.requests) != 1 {
		t.Errorf("fallback executions = %d, want 1", len(calendar.requests))
	}
	tasks := taskLedger.List()
	if len(tasks) != 1 || tasks[0].Status != core.TaskStatusError {
		t.Errorf("ledger state = %v", tasks)
	}
}

func TestProcessReconnectOnceThenSucceed(t *testing.T) {
	conn := &fakeConnector{
		results: []core.Result{
			connectionFailure(),
			core.Success("Navigated to https://example.com"),
		},
	}
	o := New(conn, ledger.New(nil), nil, WithClock(fixedClock()))

	resp := o.Process(context.Background(), "go to https://example.com")
	if resp.Type != core.ResponseOK {
		t.Fatalf("response = %s: %v", resp.Type, resp.Data)
	}
	if conn.connects != 1 {
		t.Errorf("reconnects = %d, want 1", conn.connects)
	}
	if len(conn.calls) != 2 {
		t.Errorf("tool calls = %d, want 2 (primary + one re-call)", len(conn.calls))
	}
}

func TestProcessTimeoutRetriesOnce(t *testing.T) {
	conn := &fakeConnector{
		connected: true,
		results: []core.Result{
			core.Failure(string(errors.CodeTimeout), "tool navigate timed out after 30s"),
			core.Success("Navigated to https://example.com"),
		},
	}
	o := New(conn, ledger.New(nil), nil, WithClock(fixedClock()))

	resp := o.Process(context.Background(), "go to https://example.com")
	if resp.Type != core.ResponseOK {
		t.Fatalf("response = %s: %v", resp.Type, resp.Data)
	}
	if len(conn.calls) != 2 {
		t.Errorf("tool calls = %d, want 2 (timed out primary + one re-call)", len(conn.calls))
	}
}

func TestProcessSocialUnauthorizedSkipsFallback(t *testing.T) {
	conn := &fakeConnector{
		connected: true,
		results: []core.Result{
			core.Failure(string(errors.CodeUnauthorized), "credentials lack write permission").
				WithResolution("enable Read and Write permissions for the app"),
		},
	}
	social := &recordingSocial{}
	o := New(conn, ledger.New(nil), nil, WithClock(fixedClock()), WithFallbackSocial(social))

	resp := o.Process(context.Background(), `post a tweet saying "hello world"`)
	if resp.Type != core.ResponseErr {
		t.Fatalf("expected error response, got %s", resp.Type)
	}
	if len(social.posts) != 0 {
		t.Errorf("fallback should not run on auth failures, posts = %v", social.posts)
	}
	if hint, _ := resp.Metadata["resolution"].(string); !strings.Contains(hint, "Read and Write") {
		t.Errorf("resolution = %v", resp.Metadata["resolution"])
	}
}

func TestProcessSocialFallback(t *testing.T) {
	conn := &fakeConnector{
		connected: true,
		results: []core.Result{
			core.Failure(string(errors.CodeToolFailure), "dispatcher tool crashed"),
		},
	}
	social := &recordingSocial{}
	o := New(conn, ledger.New(nil), nil, WithClock(fixedClock()), WithFallbackSocial(social))

	resp := o.Process(context.Background(), `post a tweet saying "shipping day"`)
	if resp.Type != core.ResponseOK {
		t.Fatalf("expected fallback success, got %s: %v", resp.Type, resp.Data)
	}
	if len(social.posts) != 1 || social.posts[0] != "shipping day" {
		t.Errorf("posts = %v", social.posts)
	}
}

func TestProcessGeneralCommandSearches(t *testing.T) {
	conn := &fakeConnector{connected: true}
	o := New(conn, ledger.New(nil), nil, WithClock(fixedClock()))

	resp := o.Process(context.Background(), "hello there")
	if resp.Type != core.ResponseOK {
		t.Fatalf("response = %s", resp.Type)
	}
	if resp.Metadata["intent"] != "general" {
		t.Errorf("intent = %v", resp.Metadata["intent"])
	}
	if len(conn.calls) != 1 || conn.calls[0].name != "navigate" {
		t.Fatalf("calls = %v", conn.calls)
	}
	target, _ := conn.calls[0].params["url"].(string)
	if !strings.Contains(target, "google.com/search") {
		t.Errorf("target = %q", target)
	}
}

func TestProcessVideoSearchFastPath(t *testing.T) {
	conn := &fakeConnector{
		connected: true,
		results: []core.Result{
			core.Success("Searching YouTube for 'cooking'").
				WithPayload("url", "https://www.youtube.com/results?search_query=cooking"),
		},
	}
	o := New(conn, ledger.New(nil), nil, WithClock(fixedClock()))

	resp := o.Process(context.Background(), "search youtube for cooking videos")
	if resp.Type != core.ResponseOK {
		t.Fatalf("response = %s: %v", resp.Type, resp.Data)
	}
	if resp.Metadata["intent"] != "youtube_search" {
		t.Errorf("intent = %v", resp.Metadata["intent"])
	}
	if len(conn.calls) != 1 || conn.calls[0].name != "search_videos" {
		t.Fatalf("calls = %v", conn.calls)
	}
	if resp.Metadata["video_url"] == nil {
		t.Error("expected video_url metadata from payload")
	}
}

func TestProcessEmptyCommand(t *testing.T) {
	o := New(&fakeConnector{}, ledger.New(nil), nil)
	resp := o.Process(context.Background(), "   ")
	if resp.Type != core.ResponseErr {
		t.Fatalf("response = %s", resp.Type)
	}
}

func TestProcessArchivesTerminalTasks(t *testing.T) {
	archive, err := ledger.OpenArchive(t.TempDir() + "/tasks.db")
	if err != nil {
		t.Fatal(err)
	}
	defer archive.Close()

	conn := &fakeConnector{connected: true}
	taskLedger := ledger.New(nil)
	o := New(conn, taskLedger, nil, WithClock(fixedClock()), WithArchive(archive))

	resp := o.Process(context.Background(), "go to https://example.com")
	if resp.Type != core.ResponseOK {
		t.Fatalf("response = %s", resp.Type)
	}

	tasks := taskLedger.List()
	if len(tasks) != 1 {
		t.Fatalf("ledger has %d tasks", len(tasks))
	}
	stored, err := archive.Get(context.Background(), tasks[0].ID)
	if err != nil {
		t.Fatalf("archive Get: %v", err)
	}
	if stored.Status != core.TaskStatusCompleted {
		t.Errorf("archived status = %s", stored.Status)
	}
}
