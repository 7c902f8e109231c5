package middleware

// identity.go carries the authenticated caller through context.Context.
// Gates attach it; handlers and downstream middleware read it back.

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinereview/internal/model"
)

type ctxKey int

const (
	identityKey ctxKey = iota
	sessionKey
)

// Session identifies the token a request was authenticated with.
type Session struct {
	ID  string
	Exp time.Time
}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the identity attached by Authenticate.
func IdentityFrom(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(model.Identity)
	return id, ok
}

// WithSession returns ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFrom returns the token session attached by Authenticate.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}

// userID returns the caller's id for cache and rate keys, or "anon".
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c.Request().Context()); ok && !id.ID.IsZero() {
		return id.ID.Hex()
	}
	return "anon"
}
