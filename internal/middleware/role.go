package middleware

import (
	"context"
	"errors"
	"net/http"
)

// MsgNotAdmin is returned to authenticated non-admin callers.
const MsgNotAdmin = "You are not an admin"

// RequireAdmin returns a gate that lets only admins through.  It must run
// after Authenticate; a missing identity is a wiring fault and yields 500.
func RequireAdmin() Gate {
	return func(ctx context.Context, r *http.Request) (context.Context, error) {
		id, ok := IdentityFrom(ctx)
		if !ok {
			return ctx, errors.New("admin gate: no identity attached")
		}
		if !id.IsAdmin {
			return ctx, deny(http.StatusForbidden, MsgNotAdmin)
		}
		return ctx, nil
	}
}
