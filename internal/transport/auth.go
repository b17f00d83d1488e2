package transport

import (
	"net/http"
)

// Authenticator applies a credential to outgoing requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth sends requests without credentials.
type NoAuth struct{}

// Apply implements Authenticator.
func (NoAuth) Apply(*http.Request) {}

// BearerAuth sends the key as a bearer token.
type BearerAuth struct {
	Token string
}

// Apply implements Authenticator.
func (a BearerAuth) Apply(req *http.Request) {
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
}

// QueryAuth sends the key as a query parameter, the way hosted search APIs
// expect it.
type QueryAuth struct {
	Param string
	Key   string
}

// Apply implements Authenticator.
func (a QueryAuth) Apply(req *http.Request) {
	if req.URL == nil || a.Key == "" {
		return
	}
	query := req.URL.Query()
	query.Set(a.Param, a.Key)
	req.URL.RawQuery = query.Encode()
}

// redact returns the request URL with credential query parameters masked,
// for use in logs and errors.
func redact(req *http.Request, auth Authenticator) string {
	if req.URL == nil {
		return ""
	}
	qa, ok := auth.(QueryAuth)
	if !ok || qa.Key == "" {
		return req.URL.String()
	}
	u := *req.URL
	query := u.Query()
	if query.Has(qa.Param) {
		query.Set(qa.Param, "REDACTED")
		u.RawQuery = query.Encode()
	}
	return u.String()
}
