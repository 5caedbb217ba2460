package testutil

import (
	"net/http"

	"regsync/pkg/identity"
	authmw "regsync/pkg/platform/middleware/auth"
)

// WithCaller adds an authenticated caller to the request context,
// simulating what the auth middleware does for valid bearer tokens.
func WithCaller(req *http.Request, name string, roles ...string) *http.Request {
	caller := identity.Identity{DisplayName: name, Roles: roles}
	return req.WithContext(authmw.WithCaller(req.Context(), caller))
}
