package capability

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
	"time"

	"github.com/jllopis/aura/pkg/core"
	"github.com/jllopis/aura/pkg/errors"
	"github.com/jllopis/aura/pkg/resilience"
)

const defaultSendTimeout = 15 * time.Second

// SMTPEmail delivers email through a plain SMTP endpoint.
type SMTPEmail struct {
	Addr     string // host:port
	From     string
	Password string
	Logger   *slog.Logger

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPEmail builds an email provider.
func NewSMTPEmail(addr, from, password string, logger *slog.Logger) *SMTPEmail {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPEmail{
		Addr:     addr,
		From:     from,
		Password: password,
		Logger:   logger,
		send:     smtp.SendMail,
	}
}

// Send implements core.EmailSender.
func (e *SMTPEmail) Send(ctx context.Context, req core.EmailRequest) error {
	if e.Addr == "" || e.From == "" {
		return errors.New(errors.CodeInvalidInput,
			"email service misconfigured: missing SMTP address or sender", nil)
	}
	if req.Recipient == "" {
		return errors.New(errors.CodeInvalidInput, "email recipient is required", nil)
	}

	host := e.Addr
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	auth := smtp.PlainAuth("", e.From, e.Password, host)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		e.From, req.Recipient, req.Subject, req.Body)

	e.Logger.InfoContext(ctx, "sending email", "to", req.Recipient, "subject", req.Subject)

	// smtp.SendMail has no context support; bound it externally.
	err := resilience.WithTimeout(ctx, resilience.TimeoutConfig{Duration: defaultSendTimeout}, func(ctx context.Context) error {
		return e.send(e.Addr, auth, e.From, []string{req.Recipient}, []byte(msg))
	})
	if err != nil {
		if ae := errors.AsAuraError(err); ae.Code == errors.CodeTimeout {
			return err
		}
		return errors.New(errors.CodeToolFailure, "failed to send email", err)
	}
	return nil
}
