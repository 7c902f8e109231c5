package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/iliyamo/cinereview/internal/utils"
)

// Authentication failure messages.
const (
	MsgNoHeader     = "No token was provided in headers"
	MsgNoBearer     = "No token was provided (after Bearer)"
	MsgMalformed    = "No token was provided (malformed)"
	MsgInvalidToken = "Token not provided or not valid"
	MsgRevoked      = "Token has been revoked"
)

// TokenVerifier checks a raw session token.  *utils.TokenIssuer implements it.
type TokenVerifier interface {
	Verify(raw string) (*utils.SessionClaims, error)
}

// RevocationChecker reports whether a token id was logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Authenticate returns a gate that requires `Authorization: Bearer <token>`,
// verifies the token and attaches its identity and session to the context.
// revoked may be nil, in which case logout has no effect on live tokens.
func Authenticate(v TokenVerifier, revoked RevocationChecker) Gate {
	return func(ctx context.Context, r *http.Request) (context.Context, error) {
		header := r.Header.Get("Authorization")
		if strings.TrimSpace(header) == "" {
			return ctx, deny(http.StatusUnauthorized, MsgNoHeader)
		}
		// the token is whatever follows the first space
		_, raw, _ := strings.Cut(strings.TrimSpace(header), " ")
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return ctx, deny(http.StatusUnauthorized, MsgNoBearer)
		}

		claims, err := v.Verify(raw)
		if err != nil {
			if errors.Is(err, utils.ErrMalformedToken) {
				return ctx, deny(http.StatusUnauthorized, MsgMalformed)
			}
			return ctx, deny(http.StatusUnauthorized, MsgInvalidToken)
		}
		if revoked != nil && claims.ID != "" {
			gone, err := revoked.IsRevoked(ctx, claims.ID)
			if err != nil {
				return ctx, err
			}
			if gone {
				return ctx, deny(http.StatusUnauthorized, MsgRevoked)
			}
		}

		ctx = WithIdentity(ctx, claims.Payload)
		s := Session{ID: claims.ID}
		if claims.ExpiresAt != nil {
			s.Exp = claims.ExpiresAt.Time
		}
		return WithSession(ctx, s), nil
	}
}
