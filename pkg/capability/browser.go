// Package capability implements the external collaborators Aura
// drives: browser automation, the calendar webhook, the social posting
// API and outbound email. Each provider normalizes missing
// configuration into ordinary errors, never a crash.
package capability

import (
	"context"
	"log/slog"

	"github.com/jllopis/aura/pkg/errors"
)

// StubBrowser satisfies core.BrowserAutomator without a real browser
// attached. The concrete automation engine is an external collaborator;
// this implementation logs the requested action and reports it as
// unavailable so callers surface a clean error instead of pretending.
type StubBrowser struct {
	Logger *slog.Logger
}

func (b *StubBrowser) log() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b *StubBrowser) Navigate(ctx context.Context, url string) error {
	b.log().InfoContext(ctx, "browser navigate requested", "url", url)
	return errors.New(errors.CodeToolFailure, "browser automation engine not attached", nil).
		WithContext("action", "navigate")
}

func (b *StubBrowser) FillForm(ctx context.Context, data map[string]string, selectors map[string]string) error {
	b.log().InfoContext(ctx, "browser form fill requested", "fields", len(data))
	return errors.New(errors.CodeToolFailure, "browser automation engine not attached", nil).
		WithContext("action", "fill_form")
}

func (b *StubBrowser) ClickElement(ctx context.Context, selector string) error {
	b.log().InfoContext(ctx, "browser click requested", "selector", selector)
	return errors.New(errors.CodeToolFailure, "browser automation engine not attached", nil).
		WithContext("action", "click_element")
}
