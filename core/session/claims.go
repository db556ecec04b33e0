package session

import (
	"encoding/json"
	"errors"
	"maps"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the decoded JWT payload of an access token.
type Claims map[string]any

// Decode extracts the payload claims of a JWT without verifying its signature.
// The backend owns verification; the client only needs the identity it carries.
func Decode(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyToken
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return nil, errors.Join(ErrMalformedToken, err)
	}

	return Claims(mc), nil
}

// String returns the claim under key as a string. Numbers are formatted
// without a fractional part when they are whole.
func (c Claims) String(key string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Subject returns the user identifier: "sub", then "id", "userId", "_id".
func (c Claims) Subject() string {
	return c.first("sub", "id", "userId", "_id")
}

// CompanyID returns the tenant identifier carried by the token.
func (c Claims) CompanyID() string {
	return c.first("companyId", "company_id", "tenantId", "tenant_id")
}

// Role returns the "role" claim.
func (c Claims) Role() string {
	return c.String("role")
}

// ExpiresAt returns the "exp" claim, or the zero time when absent.
func (c Claims) ExpiresAt() time.Time {
	switch v := c["exp"].(type) {
	case float64:
		return time.Unix(int64(v), 0)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return time.Unix(n, 0)
		}
	}
	return time.Time{}
}

// Clone returns a shallow copy. Nil stays nil.
func (c Claims) Clone() Claims {
	if c == nil {
		return nil
	}
	return maps.Clone(c)
}

// Merge returns a copy of c with fields from partial applied on top.
func (c Claims) Merge(partial Claims) Claims {
	out := make(Claims, len(c)+len(partial))
	maps.Copy(out, c)
	maps.Copy(out, partial)
	return out
}

func (c Claims) first(keys ...string) string {
	for _, k := range keys {
		if s := c.String(k); s != "" {
			return s
		}
	}
	return ""
}
