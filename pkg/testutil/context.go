package testutil

import (
	"net/http"
	"time"

	"certguard/pkg/requestcontext"
)

// WithPrincipal adds an authenticated subject and roles to the request context.
// This simulates what the auth middleware does for a valid bearer token.
func WithPrincipal(req *http.Request, subject string, roles ...string) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), subject, roles...))
}

// WithAdmin adds an admin principal to the request context.
func WithAdmin(req *http.Request, subject string) *http.Request {
	return WithPrincipal(req, subject, requestcontext.RoleAdmin)
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
