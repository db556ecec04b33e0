package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrymomot/squadcart/core/cache"
)

// Request is one logical API call. Body, when non-nil, is sent as JSON.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header

	// Tags label a cacheable read; Invalidates lists the tags a successful
	// mutation makes stale.
	Tags        []cache.Tag
	Invalidates []cache.Tag
}

// URL resolves the request against base.
func (r Request) URL(base string) string {
	u := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}
	return u
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

func (r Request) encodeBody() ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	switch b := r.Body.(type) {
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}
	data, err := json.Marshal(r.Body)
	if err != nil {
		return nil, errors.Join(ErrEncodeBody, err)
	}
	return data, nil
}

// build creates the HTTP request. body is re-read on every call so the same
// logical request can be replayed.
func (r Request) build(ctx context.Context, base string, body []byte) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, r.method(), r.URL(base), rd)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}

	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Cached is true when the body was served from the response cache.
	Cached bool
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("apiclient: decode response: %w", err)
	}
	return nil
}

// Err returns nil for 2xx responses and an *APIError otherwise.
func (r *Response) Err() error {
	if r == nil || r.OK() {
		return nil
	}
	return &APIError{
		StatusCode: r.StatusCode,
		Message:    errorMessage(r.Body),
		Body:       r.Body,
	}
}

// errorMessage extracts a human message from {message} or {error} envelopes.
func errorMessage(body []byte) string {
	var env struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &env) != nil {
		return ""
	}
	if env.Message != "" {
		return env.Message
	}
	if len(env.Error) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(env.Error, &s) == nil {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(env.Error, &nested) == nil {
		return nested.Message
	}
	return ""
}
