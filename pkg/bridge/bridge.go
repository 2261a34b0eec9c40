// Package bridge is the single in-process connector to the dispatcher.
// It owns the stdio session lifecycle and normalizes every outcome,
// transport faults included, into the Result shape the orchestrator
// consumes.
package bridge

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/jllopis/aura/pkg/core"
	"github.com/jllopis/aura/pkg/errors"
)

const clientName = "aura-bridge"

// Session is the subset of the MCP client the bridge drives. The
// default implementation spawns the dispatcher as a child process and
// talks stdio; tests substitute their own.
type Session interface {
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// DialFunc starts a dispatcher session. It must return a session ready
// for Initialize.
type DialFunc func(ctx context.Context, command string, args []string) (Session, error)

// Config holds the bridge connection settings.
type Config struct {
	// Command and Args launch the dispatcher process.
	Command string
	Args    []string
	// ProtocolVersion is offered during the handshake. If the server
	// rejects it, the handshake is retried once without a pinned
	// version.
	ProtocolVersion   string
	ConnectTimeout    time.Duration
	CallTimeout       time.Duration
	DisconnectTimeout time.Duration
}

// Bridge manages one dispatcher session. All methods are safe for
// concurrent use. The mutex guards only session mutation; tool calls
// run outside it, so independent commands proceed in parallel and
// Disconnect stays responsive while calls are in flight.
type Bridge struct {
	mu      sync.Mutex
	cfg     Config
	dial    DialFunc
	session Session
	// sessionCtx spans the session lifetime; Disconnect cancels it to
	// abort in-flight calls.
	sessionCtx    context.Context
	sessionCancel context.CancelFunc
	version       string
	logger        *slog.Logger
}

// Option customizes a Bridge.
type Option func(*Bridge)

// WithDialFunc replaces the process-spawning dialer.
func WithDialFunc(dial DialFunc) Option {
	return func(b *Bridge) {
		if dial != nil {
			b.dial = dial
		}
	}
}

// New creates a disconnected bridge. Call Connect before CallTool.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Bridge {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	if cfg.DisconnectTimeout <= 0 {
		cfg.DisconnectTimeout = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bridge{
		cfg:    cfg,
		dial:   stdioDial,
		logger: logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func stdioDial(ctx context.Context, command string, args []string) (Session, error) {
	stdioClient, err := client.NewStdioMCPClient(command, nil, args...)
	if err != nil {
		return nil, err
	}
	if err := stdioClient.Start(ctx); err != nil {
		stdioClient.Close()
		return nil, err
	}
	return stdioClient, nil
}

// Connect establishes the dispatcher session and performs the
// handshake. Connecting while already connected is a no-op; the
// existing session is never torn down or re-negotiated.
func (b *Bridge) Connect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.ConnectTimeout)
	defer cancel()

	session, err := b.dial(ctx, b.cfg.Command, b.cfg.Args)
	if err != nil {
		return errors.New(errors.CodeConnection, "failed to start dispatcher", err).
			WithContext("command", b.cfg.Command).
			WithRecoverable(true)
	}

	version, err := b.handshake(ctx, session)
	if err != nil {
		session.Close()
		return errors.New(errors.CodeConnection, "dispatcher handshake failed", err).
			WithRecoverable(true)
	}

	b.session = session
	b.sessionCtx, b.sessionCancel = context.WithCancel(context.Background())
	b.version = version
	b.logger.InfoContext(ctx, "connected to dispatcher", "protocol_version", version)
	return nil
}

// handshake initializes the session, first with the preferred protocol
// version, then once more letting the server pick if that fails.
func (b *Bridge) handshake(ctx context.Context, session Session) (string, error) {
	versions := []string{b.cfg.ProtocolVersion, ""}
	if b.cfg.ProtocolVersion == "" {
		versions = versions[1:]
	}

	var lastErr error
	for _, v := range versions {
		req := mcp.InitializeRequest{}
		req.Params.ProtocolVersion = v
		req.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: "0.1.0"}

		result, err := session.Initialize(ctx, req)
		if err == nil {
			return result.ProtocolVersion, nil
		}
		lastErr = err
		if v != "" {
			b.logger.WarnContext(ctx, "handshake rejected, retrying without pinned version",
				"offered_version", v, "error", err)
		}
	}
	return "", lastErr
}

// CallTool invokes a named tool on the dispatcher. A disconnected
// bridge fails fast with a connection-coded error Result; it never
// spawns a process implicitly. The call runs against a snapshot of the
// current session without holding the bridge lock, so concurrent
// commands are not serialized and Disconnect can cancel the call.
func (b *Bridge) CallTool(ctx context.Context, name string, params map[string]any) core.Result {
	b.mu.Lock()
	session := b.session
	sessionCtx := b.sessionCtx
	b.mu.Unlock()

	if session == nil {
		return core.Failure(string(errors.CodeConnection), "not connected to dispatcher")
	}

	ctx, cancel := context.WithTimeout(ctx, b.cfg.CallTimeout)
	defer cancel()
	// Disconnect cancels sessionCtx; propagate that into the call.
	stop := context.AfterFunc(sessionCtx, cancel)
	defer stop()

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = params

	result, err := session.CallTool(ctx, req)
	if err != nil {
		if sessionCtx.Err() != nil {
			b.logger.WarnContext(ctx, "tool call aborted by disconnect", "tool", name)
			return core.Failuref(string(errors.CodeConnection), "bridge disconnected during call to %s", name)
		}
		if stderrors.Is(err, context.DeadlineExceeded) {
			b.logger.WarnContext(ctx, "tool call timed out", "tool", name, "timeout", b.cfg.CallTimeout)
			return core.Failuref(string(errors.CodeTimeout), "tool %s timed out after %s", name, b.cfg.CallTimeout)
		}
		// Transport failure. The session is suspect; drop it so the
		// orchestrator can decide whether to reconnect.
		b.logger.ErrorContext(ctx, "tool call transport failure", "tool", name, "error", err)
		b.dropSession(session)
		return core.Failuref(string(errors.CodeConnection), "dispatcher call failed: %v", err)
	}

	return normalizeToolResult(result)
}

// dropSession tears down the given session if it is still the current
// one. A stale pointer means a Disconnect or another failing call got
// there first; the replacement session must not be touched.
func (b *Bridge) dropSession(session Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session != session {
		return
	}
	b.sessionCancel()
	b.session.Close()
	b.clearLocked()
}

// Disconnect cancels in-flight calls and closes the session. Safe to
// call repeatedly and on a bridge that never connected. The close is
// allowed at most the configured disconnect timeout before the call
// returns anyway.
func (b *Bridge) Disconnect(ctx context.Context) error {
	b.mu.Lock()
	session := b.session
	cancel := b.sessionCancel
	b.clearLocked()
	b.mu.Unlock()

	if session == nil {
		return nil
	}
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- session.Close()
	}()

	timer := time.NewTimer(b.cfg.DisconnectTimeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		b.logger.Warn("dispatcher close timed out, abandoning session", "timeout", b.cfg.DisconnectTimeout)
		return nil
	}
}

func (b *Bridge) clearLocked() {
	b.session = nil
	b.sessionCtx = nil
	b.sessionCancel = nil
	b.version = ""
}

// Connected reports whether a session is currently established.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session != nil
}

// ProtocolVersion returns the negotiated protocol version, or the
// empty string when disconnected.
func (b *Bridge) ProtocolVersion() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}
