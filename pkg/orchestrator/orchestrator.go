// Package orchestrator turns free-text commands into tool invocations.
// Every command gets a ledger entry, a classified intent, a routed
// handler and a recorded outcome. The dispatcher path is primary;
// calendar and social commands carry a direct-capability fallback that
// fires at most once, only after the primary path has definitively
// failed.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jllopis/aura/pkg/core"
	"github.com/jllopis/aura/pkg/errors"
	"github.com/jllopis/aura/pkg/intent"
	"github.com/jllopis/aura/pkg/ledger"
	"github.com/jllopis/aura/pkg/telemetry"
)

// Connector is the bridge surface the orchestrator drives.
type Connector interface {
	Connect(ctx context.Context) error
	CallTool(ctx context.Context, name string, params map[string]any) core.Result
	Connected() bool
}

// Orchestrator processes commands end to end. One instance serves all
// concurrent commands; per-command state lives in the ledger.
type Orchestrator struct {
	bridge     Connector
	ledger     *ledger.Ledger
	archive    *ledger.Archive
	classifier *intent.Classifier
	titles     intent.TitleExtractor
	windows    intent.WindowExtractor
	tweets     intent.TweetExtractor
	calendar   core.CalendarScheduler
	social     core.SocialPoster
	metrics    *telemetry.CommandMetrics
	logger     *slog.Logger
	now        func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithArchive enables persistence of terminal tasks.
func WithArchive(archive *ledger.Archive) Option {
	return func(o *Orchestrator) { o.archive = archive }
}

// WithFallbackCalendar sets the direct calendar provider used when the
// dispatcher path fails.
func WithFallbackCalendar(calendar core.CalendarScheduler) Option {
	return func(o *Orchestrator) { o.calendar = calendar }
}

// WithFallbackSocial sets the direct social provider used when the
// dispatcher path fails.
func WithFallbackSocial(social core.SocialPoster) Option {
	return func(o *Orchestrator) { o.social = social }
}

// WithMetrics attaches command metrics.
func WithMetrics(metrics *telemetry.CommandMetrics) Option {
	return func(o *Orchestrator) { o.metrics = metrics }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New builds an orchestrator over a bridge and ledger.
func New(bridge Connector, taskLedger *ledger.Ledger, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{
		bridge:     bridge,
		ledger:     taskLedger,
		classifier: intent.NewClassifier(),
		titles:     intent.HeuristicTitleExtractor{},
		windows:    intent.HeuristicWindowExtractor{},
		tweets:     intent.HeuristicTweetExtractor{},
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Classifier exposes the pattern table, so callers can extend it at
// runtime.
func (o *Orchestrator) Classifier() *intent.Classifier {
	return o.classifier
}

// Process runs one command through the full pipeline and returns the
// response envelope. It never returns an error; failures are error
// responses.
func (o *Orchestrator) Process(ctx context.Context, command string) core.Response {
	command = strings.TrimSpace(command)
	if command == "" {
		return core.NewErrorResponse("empty command").WithMeta("intent", intent.CategoryGeneral)
	}

	// A pasted video URL needs no tooling at all.
	if videoURL := intent.DetectVideoURL(command); videoURL != "" {
		o.logger.InfoContext(ctx, "video url short-circuit", "video_url", videoURL)
		return core.NewResponse("I see you've shared a video! Here it is: "+videoURL).
			WithMeta("intent", "video_direct_url").
			WithMeta("video_url", videoURL)
	}

	category := o.classifyCommand(command)
	taskID := o.ledger.Create(command, map[string]any{"intent": category})
	o.ledger.Apply(taskID, ledger.Update{Status: core.TaskStatusRouted})
	o.logger.InfoContext(ctx, "command routed", "task_id", taskID, "intent", category)

	o.ledger.Apply(taskID, ledger.Update{Status: core.TaskStatusExecuting})
	result, meta := o.route(ctx, category, command)

	o.finish(ctx, taskID, result)
	o.metrics.RecordCommand(ctx, category, result.OK())

	return o.buildResponse(result, category, meta)
}

// classifyCommand applies the video-search fast path before the
// general pattern table.
func (o *Orchestrator) classifyCommand(command string) string {
	if intent.IsVideoSearch(command) {
		return "youtube_search"
	}
	return o.classifier.Classify(command).Category
}

func (o *Orchestrator) route(ctx context.Context, category, command string) (core.Result, map[string]any) {
	switch category {
	case "youtube_search":
		return o.handleVideoSearch(ctx, command)
	case intent.CategoryCalendar:
		return o.handleCalendar(ctx, command), nil
	case intent.CategorySocial:
		return o.handleSocial(ctx, command), nil
	case intent.CategoryEmail:
		return o.handleEmail(ctx, command), nil
	default:
		return o.handleBrowser(ctx, command), nil
	}
}

// finish records the terminal status in the ledger and archives the
// task when an archive is attached.
func (o *Orchestrator) finish(ctx context.Context, taskID string, result core.Result) {
	up := ledger.Update{Result: &result}
	if result.OK() {
		up.Status = core.TaskStatusCompleted
	} else {
		up.Status = core.TaskStatusError
		up.Error = result.Message
	}
	o.ledger.Apply(taskID, up)

	if o.archive == nil {
		return
	}
	if task := o.ledger.Get(taskID); task != nil {
		if err := o.archive.Record(ctx, task); err != nil {
			o.logger.WarnContext(ctx, "failed to archive task", "task_id", taskID, "error", err)
		}
	}
}

func (o *Orchestrator) buildResponse(result core.Result, category string, meta map[string]any) core.Response {
	var resp core.Response
	if result.OK() {
		resp = core.NewResponse(result.Message)
	} else {
		resp = core.NewErrorResponse(result.Message)
	}
	resp = resp.WithMeta("intent", category)
	if result.Resolution != "" {
		resp = resp.WithMeta("resolution", result.Resolution)
	}
	for k, v := range meta {
		resp = resp.WithMeta(k, v)
	}
	return resp
}

// callTool runs the primary dispatcher path. On a connection failure
// or a timed-out call it attempts exactly one reconnect followed by
// one re-call; any further failure is final. Connect is a no-op while
// a session is still up, so a timeout costs a single retry, not a
// session teardown.
func (o *Orchestrator) callTool(ctx context.Context, tool string, params map[string]any) core.Result {
	result := o.bridge.CallTool(ctx, tool, params)
	if result.Code == string(errors.CodeConnection) || result.Code == string(errors.CodeTimeout) {
		o.logger.WarnContext(ctx, "dispatcher call failed, reconnecting once", "tool", tool, "code", result.Code)
		err := o.bridge.Connect(ctx)
		o.metrics.RecordReconnect(ctx, err == nil)
		if err != nil {
			o.logger.ErrorContext(ctx, "reconnect failed", "error", err)
			return result
		}
		result = o.bridge.CallTool(ctx, tool, params)
	}
	o.metrics.RecordToolCall(ctx, tool, result.OK())
	return result
}
