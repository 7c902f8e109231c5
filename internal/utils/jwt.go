package utils // package utils provides helpers for session tokens, hashing and input rules

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/cinereview/internal/model"
)

// SessionTTL is the lifetime of every session token.
const SessionTTL = 24 * time.Hour

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// ErrMalformedToken wraps ErrInvalidToken for tokens that cannot even be
// parsed.  Callers use it to pick a message, not a status.
var ErrMalformedToken = errors.New("malformed token")

// SessionClaims is the JWT body.  Payload carries the identity exactly as it
// was at login; the registered claims carry expiry and a token id used for
// revocation.
type SessionClaims struct {
	Payload model.Identity `json:"payload"`
	jwt.RegisteredClaims
}

// SessionToken is a signed token with its id and expiry.
type SessionToken struct {
	Token string
	ID    string
	Exp   time.Time
}

// TokenIssuer signs and verifies HS256 session tokens with a server-held
// secret.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewTokenIssuer returns an issuer for secret.
func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), now: time.Now}
}

// Issue mints a token for id that expires after SessionTTL.
func (t *TokenIssuer) Issue(id model.Identity) (SessionToken, error) {
	jti, err := randomHex(16)
	if err != nil {
		return SessionToken{}, err
	}
	now := t.now().UTC()
	exp := now.Add(SessionTTL)
	claims := SessionClaims{
		Payload: id,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID.Hex(),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, ID: jti, Exp: exp}, nil
}

// Verify checks signature, algorithm and expiry of raw and returns its
// claims.  Every failure wraps ErrInvalidToken; unparseable input also wraps
// ErrMalformedToken.
func (t *TokenIssuer) Verify(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, errors.Join(ErrInvalidToken, ErrMalformedToken)
		}
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// randomHex returns n random bytes hex-encoded.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
