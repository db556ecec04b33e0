package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/squadcart/core/logger"
)

// DefaultMaxRefreshAttempts bounds the refresh loop of one logical request.
const DefaultMaxRefreshAttempts = 3

// TokenSource exposes the credentials a request is sent with.
// *session.Store implements it.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
}

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Outcome tells the caller what the pipeline did to the credentials.
type Outcome int

const (
	// OutcomeOK: the first response is returned as is.
	OutcomeOK Outcome = iota
	// OutcomeRefreshed: credentials were renewed and the request replayed once.
	OutcomeRefreshed
	// OutcomeLoggedOut: the session cannot be recovered and must be cleared.
	OutcomeLoggedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRefreshed:
		return "refreshed"
	case OutcomeLoggedOut:
		return "logged_out"
	default:
		return "unknown"
	}
}

// Result describes one pass through the pipeline. The pipeline never touches
// session state; the caller applies Result to its store.
type Result struct {
	Outcome  Outcome
	Response *Response

	// Previous is the refresh token held when the refresh cycle began.
	Previous string
	// AccessToken and RefreshToken are set for OutcomeRefreshed.
	AccessToken  string
	RefreshToken string

	// Reason is set for OutcomeLoggedOut.
	Reason   FailureReason
	Attempts int
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithDoer sets the HTTP transport for API requests.
func WithDoer(d Doer) PipelineOption {
	return func(p *Pipeline) {
		if d != nil {
			p.doer = d
		}
	}
}

// WithMaxRefreshAttempts bounds the refresh loop.
func WithMaxRefreshAttempts(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(l *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPipelineMetrics sets the metrics sink.
func WithPipelineMetrics(m *Metrics) PipelineOption {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) PipelineOption {
	return func(p *Pipeline) {
		p.userAgent = ua
	}
}

// Pipeline sends authenticated requests and recovers from expired access
// tokens by refreshing and replaying.
//
//	AUTHENTICATED --401--> REFRESHING --success--> AUTHENTICATED (replay once)
//	                       REFRESHING --failure | no refresh token | exhausted--> UNAUTHENTICATED
type Pipeline struct {
	baseURL     string
	tokens      TokenSource
	refresher   Refresher
	doer        Doer
	maxAttempts int
	userAgent   string
	logger      *slog.Logger
	metrics     *Metrics
}

// NewPipeline creates a pipeline for the API at baseURL.
func NewPipeline(baseURL string, tokens TokenSource, refresher Refresher, opts ...PipelineOption) (*Pipeline, error) {
	if baseURL == "" {
		return nil, ErrNoBaseURL
	}
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	if tokens == nil {
		return nil, ErrNoStore
	}
	if refresher == nil {
		return nil, ErrNoRefresher
	}

	p := &Pipeline{
		baseURL:     baseURL,
		tokens:      tokens,
		refresher:   refresher,
		doer:        http.DefaultClient,
		maxAttempts: DefaultMaxRefreshAttempts,
		logger:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Execute runs one logical request.
//
// The request is sent with the current access token. A response other than
// 401 is returned unchanged, as is a transport error. A 401, or a missing
// access token while a refresh token is held, starts the refresh cycle: up to
// the configured number of refresh attempts, then exactly one replay with the
// new token. When no refresh token is held, or refreshing fails, the result
// is OutcomeLoggedOut carrying the original response.
//
// If ctx ends during the refresh cycle the original response is returned
// with ctx's error and OutcomeOK, leaving the session untouched.
func (p *Pipeline) Execute(ctx context.Context, req Request) (Result, error) {
	body, err := req.encodeBody()
	if err != nil {
		return Result{}, err
	}

	requestID := uuid.NewString()
	access, refresh := p.tokens.AccessToken(), p.tokens.RefreshToken()

	resp, err := p.send(ctx, req, body, access, requestID)
	if err != nil {
		p.metrics.observeOutcome(OutcomeOK)
		return Result{Outcome: OutcomeOK}, err
	}

	needsRefresh := resp.StatusCode == http.StatusUnauthorized || (access == "" && refresh != "")
	if !needsRefresh {
		p.metrics.observeOutcome(OutcomeOK)
		return Result{Outcome: OutcomeOK, Response: resp}, nil
	}

	res, err := p.recover(ctx, req, body, requestID, resp, refresh)
	p.metrics.observeOutcome(res.Outcome)
	return res, err
}

func (p *Pipeline) recover(ctx context.Context, req Request, body []byte, requestID string, original *Response, refresh string) (Result, error) {
	start := time.Now()
	log := p.logger.With(
		logger.Component("apiclient"),
		logger.RequestID(requestID),
		logger.Method(req.method()),
		logger.Path(req.Path),
	)

	res, err := p.renew(ctx, log, refresh)
	if err == nil && res.Outcome == OutcomeRefreshed {
		log.DebugContext(ctx, "token refreshed, replaying request", logger.RetryCount(res.Attempts))
		res.Response, err = p.send(ctx, req, body, res.AccessToken, requestID)
	} else {
		res.Response = original
	}

	log.InfoContext(ctx, "refresh cycle finished",
		logger.Group("refresh",
			logger.Outcome(res.Outcome.String()),
			logger.Reason(string(res.Reason)),
			logger.RetryCount(res.Attempts),
			logger.Duration(time.Since(start)),
		),
		logger.Error(err),
	)
	return res, err
}

// Renew runs the refresh cycle without a request, for callers that want
// fresh credentials ahead of time. The Result carries no Response.
func (p *Pipeline) Renew(ctx context.Context) (Result, error) {
	log := p.logger.With(logger.Component("apiclient"))
	res, err := p.renew(ctx, log, p.tokens.RefreshToken())
	p.metrics.observeOutcome(res.Outcome)
	return res, err
}

// renew exchanges refresh for new credentials with bounded retries. A
// cancelled ctx yields OutcomeOK and ctx's error so the session is left
// alone.
func (p *Pipeline) renew(ctx context.Context, log *slog.Logger, refresh string) (Result, error) {
	if refresh == "" {
		log.InfoContext(ctx, "no refresh token, ending session",
			logger.Reason(string(ReasonNoRefreshToken)),
		)
		p.metrics.observeRefresh(string(ReasonNoRefreshToken))
		return Result{Outcome: OutcomeLoggedOut, Reason: ReasonNoRefreshToken}, nil
	}

	attempts := 0
	renewed, err := Retry(ctx, p.maxAttempts, func(ctx context.Context, attempt int) (RefreshSuccess, error) {
		attempts = attempt
		switch o := p.refresher.Refresh(ctx, refresh).(type) {
		case RefreshSuccess:
			p.metrics.observeRefresh("success")
			return o, nil
		case *RefreshFailure:
			p.metrics.observeRefresh(string(o.Reason))
			log.WarnContext(ctx, "token refresh attempt failed",
				logger.Attempt(attempt),
				logger.Reason(string(o.Reason)),
				logger.StatusCode(o.StatusCode),
				logger.Error(o.Err),
			)
			return RefreshSuccess{}, o
		default:
			p.metrics.observeRefresh(string(ReasonMalformed))
			return RefreshSuccess{}, &RefreshFailure{Reason: ReasonMalformed}
		}
	}, func(err error) bool {
		var f *RefreshFailure
		return errors.As(err, &f) && f.Retryable()
	})

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{Outcome: OutcomeOK, Attempts: attempts}, ctxErr
		}

		reason := ReasonNetwork
		var f *RefreshFailure
		if errors.As(err, &f) {
			reason = f.Reason
		}
		log.WarnContext(ctx, "token refresh failed, ending session",
			logger.Reason(string(reason)),
			logger.RetryCount(attempts),
			logger.Error(err),
		)
		return Result{
			Outcome:  OutcomeLoggedOut,
			Previous: refresh,
			Reason:   reason,
			Attempts: attempts,
		}, nil
	}

	return Result{
		Outcome:      OutcomeRefreshed,
		Previous:     refresh,
		AccessToken:  renewed.AccessToken,
		RefreshToken: renewed.RefreshToken,
		Attempts:     attempts,
	}, nil
}

// Send issues req once with token and no refresh handling.
func (p *Pipeline) Send(ctx context.Context, req Request, token string) (*Response, error) {
	body, err := req.encodeBody()
	if err != nil {
		return nil, err
	}
	return p.send(ctx, req, body, token, uuid.NewString())
}

func (p *Pipeline) send(ctx context.Context, req Request, body []byte, token, requestID string) (*Response, error) {
	httpReq, err := req.build(ctx, p.baseURL, body)
	if err != nil {
		return nil, err
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	httpReq.Header.Set("X-Request-ID", requestID)
	if p.userAgent != "" {
		httpReq.Header.Set("User-Agent", p.userAgent)
	}

	start := time.Now()
	httpResp, err := p.doer.Do(httpReq)
	if err != nil {
		p.metrics.observeRequest(httpReq.Method, 0, time.Since(start))
		p.logger.DebugContext(ctx, "request failed",
			logger.Component("apiclient"),
			logger.RequestID(requestID),
			logger.Method(httpReq.Method),
			logger.Path(req.Path),
			logger.Error(err),
		)
		return nil, fmt.Errorf("apiclient: %s %s: %w", httpReq.Method, req.Path, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	p.metrics.observeRequest(httpReq.Method, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return nil, errors.Join(ErrReadBody, err)
	}

	p.logger.DebugContext(ctx, "request completed",
		logger.Component("apiclient"),
		logger.RequestID(requestID),
		logger.Method(httpReq.Method),
		logger.Path(req.Path),
		logger.StatusCode(httpResp.StatusCode),
		logger.Elapsed(start),
	)

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}
