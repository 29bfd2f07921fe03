// Package auth resolves the caller's session from request credentials.
//
// A request carries at most one token, taken from an
// "Authorization: Bearer" header or from the session cookie. The token is
// looked up lazily: only handlers that need a session pay for the lookup.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mesh-intelligence/tracker/pkg/types"
)

// DefaultCookieName is the session cookie read when none is configured.
const DefaultCookieName = "tracker_session"

type contextKey struct{}

// WithToken returns a copy of ctx carrying the raw session token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKey{}, token)
}

// TokenFromContext returns the token stored by WithToken, or "".
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(contextKey{}).(string)
	return token
}

// TokenFromRequest extracts the session token from the Authorization
// header, falling back to the named cookie.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}

// Authenticator answers "current session or none" against a SessionStore.
type Authenticator struct {
	store      types.SessionStore
	cookieName string
}

// NewAuthenticator creates an Authenticator. An empty cookieName selects
// DefaultCookieName.
func NewAuthenticator(store types.SessionStore, cookieName string) *Authenticator {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &Authenticator{store: store, cookieName: cookieName}
}

// Middleware copies the request token into the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := TokenFromRequest(r, a.cookieName); token != "" {
			r = r.WithContext(WithToken(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentSession returns the session for the token in ctx. Missing,
// unknown and expired tokens yield (nil, nil); only store faults are errors.
func (a *Authenticator) CurrentSession(ctx context.Context) (*types.Session, error) {
	token := TokenFromContext(ctx)
	if token == "" {
		return nil, nil
	}
	s, err := a.store.FindSession(ctx, token)
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return s, nil
}

// Operator is a session source that is always signed in. The CLI uses it
// for local commands, where access to the data directory is the credential.
type Operator struct {
	UserID string
}

// CurrentSession returns a short-lived synthetic session.
func (o Operator) CurrentSession(context.Context) (*types.Session, error) {
	now := time.Now().UTC()
	userID := o.UserID
	if userID == "" {
		userID = "operator"
	}
	return &types.Session{Token: "local", UserID: userID, CreatedAt: now, ExpiresAt: now.Add(time.Minute)}, nil
}
