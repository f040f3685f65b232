// Package contexthelpers stores request scoped values such as the authenticated user in the context.
package contexthelpers

import (
	"context"
	"net/http"
)

type contextKey string

const (
	isAuthenticatedContextKey     = contextKey("isAuthenticated")
	authenticatedUserIDContextKey = contextKey("authenticatedUserID")
	cspNonceContextKey            = contextKey("cspNonce")
)

// WithAuthenticatedUser marks ctx as belonging to userID.
func WithAuthenticatedUser(ctx context.Context, userID string) context.Context {
	ctx = context.WithValue(ctx, isAuthenticatedContextKey, true)
	return context.WithValue(ctx, authenticatedUserIDContextKey, userID)
}

func AuthenticateContext(r *http.Request, userID string) *http.Request {
	return r.WithContext(WithAuthenticatedUser(r.Context(), userID))
}

func IsAuthenticated(ctx context.Context) bool {
	isAuthenticated, ok := ctx.Value(isAuthenticatedContextKey).(bool)
	return ok && isAuthenticated
}

// AuthenticatedUserID returns the user id or the empty string for anonymous requests.
func AuthenticatedUserID(ctx context.Context) string {
	userID, _ := ctx.Value(authenticatedUserIDContextKey).(string)
	return userID
}

func SetCSPNonce(r *http.Request, cspNonce string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), cspNonceContextKey, cspNonce))
}

func CSPNonce(ctx context.Context) string {
	cspNonce, _ := ctx.Value(cspNonceContextKey).(string)
	return cspNonce
}
