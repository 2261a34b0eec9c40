package capability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"testing"
	"time"

	"github.com/jllopis/aura/pkg/core"
	"github.com/jllopis/aura/pkg/errors"
)

func TestWebhookCalendarSchedulesEvent(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		json.NewDecoder(r.Body).Decode(&received)
		json.NewEncoder(w).Encode(map[string]string{"eventId": "evt-42"})
	}))
	defer srv.Close()

	cal := NewWebhookCalendar(srv.URL, time.Second, nil)
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	confirmation, err := cal.ScheduleEvent(context.Background(), core.EventRequest{
		Title: "Meeting",
		Start: start,
		End:   start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("ScheduleEvent failed: %v", err)
	}
	if confirmation.EventID != "evt-42" {
		t.Fatalf("expected event id from reply, got %q", confirmation.EventID)
	}
	if received["title"] != "Meeting" {
		t.Fatalf("expected title in payload, got %v", received)
	}
	if received["startTime"] != "2026-03-10T14:00:00" {
		t.Fatalf("unexpected start time %v", received["startTime"])
	}
}

func TestWebhookCalendarMissingURL(t *testing.T) {
	cal := NewWebhookCalendar("", time.Second, nil)
	_, err := cal.ScheduleEvent(context.Background(), core.EventRequest{Title: "x"})
	if err == nil {
		t.Fatalf("expected configuration error")
	}
	if errors.AsAuraError(err).Code != errors.CodeInvalidInput {
		t.Fatalf("expected invalid input code, got %v", errors.AsAuraError(err).Code)
	}
}

func TestWebhookCalendarServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "script error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cal := NewWebhookCalendar(srv.URL, time.Second, nil)
	_, err := cal.ScheduleEvent(context.Background(), core.EventRequest{Title: "x"})
	if err == nil {
		t.Fatalf("expected error from 500 response")
	}
	if errors.AsAuraError(err).Code != errors.CodeToolFailure {
		t.Fatalf("expected tool failure code, got %v", errors.AsAuraError(err).Code)
	}
}

func TestHTTPSocialPostsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/tweets" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token")
		}
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"id": "123"}})
	}))
	defer srv.Close()

	social := NewHTTPSocial(srv.URL, "tok", time.Second, nil)
	confirmation, err := social.PostText(context.Background(), "hello")
	if err != nil {
		t.Fatalf("PostText failed: %v", err)
	}
	if confirmation.PostID != "123" {
		t.Fatalf("expected post id, got %q", confirmation.PostID)
	}
	if confirmation.PostURL == "" {
		t.Fatalf("expected post url to be derived")
	}
}

func TestHTTPSocialMissingCredentials(t *testing.T) {
	social := NewHTTPSocial("https://api.example.com", "", time.Second, nil)
	_, err := social.PostText(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected configuration error")
	}
	if errors.AsAuraError(err).Code != errors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %v", errors.AsAuraError(err).Code)
	}
}

func TestHTTPSocialForbiddenCarriesResolution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"forbidden"}`, http.StatusForbidden)
	}))
	defer srv.Close()

	social := NewHTTPSocial(srv.URL, "tok", time.Second, nil)
	_, err := social.PostText(context.Background(), "hello")
	if err == nil {
		t.Fatalf("expected error")
	}
	ae := errors.AsAuraError(err)
	if ae.Code != errors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %v", ae.Code)
	}
	if ae.Context["resolution"] == nil {
		t.Fatalf("expected a resolution hint in context")
	}
}

func TestSMTPEmailSend(t *testing.T) {
	email := NewSMTPEmail("mail.example.com:587", "aura@example.com", "pw", nil)

	var gotTo []string
	email.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotTo = to
		return nil
	}

	err := email.Send(context.Background(), core.EmailRequest{
		Recipient: "dana@example.com",
		Subject:   "hi",
		Body:      "hello",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(gotTo) != 1 || gotTo[0] != "dana@example.com" {
		t.Fatalf("unexpected recipients %v", gotTo)
	}
}

func TestSMTPEmailMissingConfig(t *testing.T) {
	email := NewSMTPEmail("", "", "", nil)
	err := email.Send(context.Background(), core.EmailRequest{Recipient: "x@example.com"})
	if err == nil {
		t.Fatalf("expected configuration error")
	}
}

func TestStubBrowserReportsUnavailable(t *testing.T) {
	b := &StubBrowser{}
	if err := b.Navigate(context.Background(), "https://example.com"); err == nil {
		t.Fatalf("expected stub browser to report unavailability")
	}
}
