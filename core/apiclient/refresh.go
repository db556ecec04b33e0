package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"
)

// DefaultRefreshPath is the token renewal endpoint relative to the base URL.
const DefaultRefreshPath = "/auth/refresh-token"

// FailureReason classifies a failed refresh. Every reason ends the session;
// the distinction exists for logs and metrics.
type FailureReason string

const (
	ReasonNoRefreshToken FailureReason = "no_refresh_token"
	ReasonNetwork        FailureReason = "network"
	ReasonStatus         FailureReason = "status"
	ReasonMalformed      FailureReason = "malformed"
	ReasonRejected       FailureReason = "rejected"
	ReasonMissingToken   FailureReason = "missing_token"
)

// RefreshOutcome is either RefreshSuccess or *RefreshFailure.
type RefreshOutcome interface {
	refreshOutcome()
}

// RefreshSuccess carries renewed credentials. RefreshToken is empty when the
// server did not rotate it.
type RefreshSuccess struct {
	AccessToken  string
	RefreshToken string
}

func (RefreshSuccess) refreshOutcome() {}

// RefreshFailure describes why a refresh did not produce a token.
type RefreshFailure struct {
	Reason     FailureReason
	StatusCode int
	Err        error
}

func (*RefreshFailure) refreshOutcome() {}

func (f *RefreshFailure) Error() string {
	var b strings.Builder
	b.WriteString("apiclient: refresh failed: ")
	b.WriteString(string(f.Reason))
	if f.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", f.StatusCode)
	}
	if f.Err != nil {
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

func (f *RefreshFailure) Unwrap() error {
	return f.Err
}

// Retryable reports whether another attempt could succeed. Transport errors
// and non-2xx statuses are transient; a well-formed answer that carries no
// token is final.
func (f *RefreshFailure) Retryable() bool {
	return f.Reason == ReasonNetwork || f.Reason == ReasonStatus
}

type refreshEnvelope struct {
	Success bool `json:"success"`
	Data    *struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"data"`
}

// ParseRefreshEnvelope turns the refresh endpoint's reply into an outcome.
// The expected success shape is
// {"success": true, "data": {"accessToken": "...", "refreshToken": "..."}}.
func ParseRefreshEnvelope(status int, body []byte) RefreshOutcome {
	if status < 200 || status >= 300 {
		return &RefreshFailure{Reason: ReasonStatus, StatusCode: status}
	}

	var env refreshEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &RefreshFailure{Reason: ReasonMalformed, StatusCode: status, Err: err}
	}
	if !env.Success {
		return &RefreshFailure{Reason: ReasonRejected, StatusCode: status}
	}
	if env.Data == nil || env.Data.AccessToken == "" {
		return &RefreshFailure{Reason: ReasonMissingToken, StatusCode: status}
	}

	return RefreshSuccess{
		AccessToken:  env.Data.AccessToken,
		RefreshToken: env.Data.RefreshToken,
	}
}

// Refresher exchanges a refresh token for new credentials.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) RefreshOutcome
}

// RefresherFunc adapts a function to Refresher.
type RefresherFunc func(ctx context.Context, refreshToken string) RefreshOutcome

// Refresh implements Refresher.
func (f RefresherFunc) Refresh(ctx context.Context, refreshToken string) RefreshOutcome {
	return f(ctx, refreshToken)
}

// RefresherOption configures an HTTPRefresher.
type RefresherOption func(*HTTPRefresher)

// WithRefreshHTTPClient sets the HTTP client. Give it a cookie jar so
// server-set cookies accompany the refresh call.
func WithRefreshHTTPClient(c *http.Client) RefresherOption {
	return func(r *HTTPRefresher) {
		if c != nil {
			r.client = c
		}
	}
}

// WithRefreshPath overrides DefaultRefreshPath.
func WithRefreshPath(path string) RefresherOption {
	return func(r *HTTPRefresher) {
		if path != "" {
			r.path = path
		}
	}
}

// WithDeduplication controls whether concurrent refreshes of the same token
// share one network call. Enabled by default.
func WithDeduplication(enabled bool) RefresherOption {
	return func(r *HTTPRefresher) {
		r.dedup = enabled
	}
}

// HTTPRefresher calls the backend refresh endpoint.
type HTTPRefresher struct {
	baseURL string
	path    string
	client  *http.Client
	dedup   bool
	group   singleflight.Group
}

var _ Refresher = (*HTTPRefresher)(nil)

// NewHTTPRefresher creates a refresher for the API at baseURL.
func NewHTTPRefresher(baseURL string, opts ...RefresherOption) *HTTPRefresher {
	r := &HTTPRefresher{
		baseURL: baseURL,
		path:    DefaultRefreshPath,
		client:  http.DefaultClient,
		dedup:   true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh implements Refresher.
func (r *HTTPRefresher) Refresh(ctx context.Context, refreshToken string) RefreshOutcome {
	if !r.dedup {
		return r.call(ctx, refreshToken)
	}

	// The shared call must not die with whichever caller started it.
	ch := r.group.DoChan(refreshToken, func() (any, error) {
		return r.call(context.WithoutCancel(ctx), refreshToken), nil
	})

	select {
	case <-ctx.Done():
		return &RefreshFailure{Reason: ReasonNetwork, Err: ctx.Err()}
	case res := <-ch:
		return res.Val.(RefreshOutcome)
	}
}

func (r *HTTPRefresher) call(ctx context.Context, refreshToken string) RefreshOutcome {
	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return &RefreshFailure{Reason: ReasonMalformed, Err: err}
	}

	req, err := Request{Method: http.MethodPost, Path: r.path}.build(ctx, r.baseURL, payload)
	if err != nil {
		return &RefreshFailure{Reason: ReasonNetwork, Err: err}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return &RefreshFailure{Reason: ReasonNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RefreshFailure{Reason: ReasonNetwork, StatusCode: resp.StatusCode, Err: err}
	}

	return ParseRefreshEnvelope(resp.StatusCode, body)
}
