package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jllopis/aura/pkg/core"
	"github.com/jllopis/aura/pkg/errors"
)

// HTTPSocial publishes text updates through the platform's v2 REST
// API using a bearer token. Shared by the dispatcher's post tool and
// the orchestrator's fallback path.
type HTTPSocial struct {
	BaseURL     string
	BearerToken string
	Client      *http.Client
	Logger      *slog.Logger
}

// NewHTTPSocial builds a social provider with a bounded HTTP client.
func NewHTTPSocial(baseURL, bearerToken string, timeout time.Duration, logger *slog.Logger) *HTTPSocial {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPSocial{
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		BearerToken: bearerToken,
		Client:      &http.Client{Timeout: timeout},
		Logger:      logger,
	}
}

type createPostRequest struct {
	Text string `json:"text"`
}

type createPostReply struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
	Detail string `json:"detail"`
}

// PostText implements core.SocialPoster.
func (s *HTTPSocial) PostText(ctx context.Context, text string) (core.PostConfirmation, error) {
	if s.BearerToken == "" {
		return core.PostConfirmation{}, errors.New(errors.CodeUnauthorized,
			"social client not configured: missing API credentials", nil).
			WithContext("env", "AURA_SOCIAL_BEARER_TOKEN")
	}
	if strings.TrimSpace(text) == "" {
		return core.PostConfirmation{}, errors.New(errors.CodeInvalidInput, "post text is empty", nil)
	}

	body, err := json.Marshal(createPostRequest{Text: text})
	if err != nil {
		return core.PostConfirmation{}, errors.New(errors.CodeInternal, "encode post payload", err)
	}

	s.Logger.InfoContext(ctx, "publishing post", "chars", len(text))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return core.PostConfirmation{}, errors.New(errors.CodeInternal, "build post request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.BearerToken)

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return core.PostConfirmation{}, errors.New(errors.CodeConnection, "social API unreachable", err).
			WithRecoverable(true)
	}
	defer resp.Body.Close()

	var reply createPostReply
	_ = json.NewDecoder(resp.Body).Decode(&reply)

	switch {
	case resp.StatusCode == http.StatusForbidden:
		// Write access is a separate app permission on most platforms;
		// surface the remediation instead of a bare 403.
		return core.PostConfirmation{}, errors.New(errors.CodeUnauthorized,
			"the API credentials lack write permission", nil).
			WithContext("resolution", "enable read and write permissions for the app, then regenerate the access tokens")
	case resp.StatusCode >= 400:
		msg := reply.Detail
		if msg == "" {
			msg = fmt.Sprintf("social API returned status %d", resp.StatusCode)
		}
		return core.PostConfirmation{}, errors.New(errors.CodeToolFailure, msg, nil).
			WithContext("status_code", resp.StatusCode)
	}

	confirmation := core.PostConfirmation{
		Message: "Post published successfully",
		PostID:  reply.Data.ID,
	}
	if reply.Data.ID != "" {
		confirmation.PostURL = "https://twitter.com/i/web/status/" + reply.Data.ID
	}
	return confirmation, nil
}
