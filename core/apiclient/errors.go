package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated  = errors.New("apiclient: session ended, login required")
	ErrRetriesExhausted = errors.New("apiclient: retries exhausted")
	ErrNoBaseURL        = errors.New("apiclient: base URL is required")
	ErrInvalidBaseURL   = errors.New("apiclient: invalid base URL")
	ErrNoStore          = errors.New("apiclient: session store is required")
	ErrNoRefresher      = errors.New("apiclient: refresher is required")
	ErrEncodeBody       = errors.New("apiclient: failed to encode request body")
	ErrReadBody         = errors.New("apiclient: failed to read response body")
	ErrRejected         = errors.New("apiclient: request rejected")
	ErrMalformedReply   = errors.New("apiclient: malformed response envelope")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("apiclient: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("apiclient: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsUnauthorized reports whether err is an APIError with status 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
