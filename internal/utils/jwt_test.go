package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/cinereview/internal/model"
)

func sampleIdentity() model.Identity {
	return model.User{
		ID:           bson.NewObjectID(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		ProfilePic:   model.DefaultProfilePic,
		Watchlist:    []bson.ObjectID{bson.NewObjectID()},
		IsAdmin:      true,
	}.Identity()
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret")
	id := sampleIdentity()

	tok, err := issuer.Issue(id)
	require.NoError(t, err)
	assert.NotEmpty(t, tok.ID)
	assert.WithinDuration(t, time.Now().Add(SessionTTL), tok.Exp, time.Minute)

	claims, err := issuer.Verify(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, id.ID, claims.Payload.ID)
	assert.Equal(t, id.Username, claims.Payload.Username)
	assert.Equal(t, id.Email, claims.Payload.Email)
	assert.Equal(t, id.Watchlist, claims.Payload.Watchlist)
	assert.True(t, claims.Payload.IsAdmin)
	assert.Equal(t, tok.ID, claims.ID)
	assert.NotContains(t, tok.Token, "hash")
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tok, err := NewTokenIssuer("one").Issue(sampleIdentity())
	require.NoError(t, err)

	_, err = NewTokenIssuer("two").Verify(tok.Token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidToken))
	assert.False(t, errors.Is(err, ErrMalformedToken))
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	issuer.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	tok, err := issuer.Issue(sampleIdentity())
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(tok.Token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestVerifyRejectsMalformed(t *testing.T) {
	_, err := NewTokenIssuer("secret").Verify("definitely.not-a-jwt")
	assert.True(t, errors.Is(err, ErrInvalidToken))
	assert.True(t, errors.Is(err, ErrMalformedToken))
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := SessionClaims{
		Payload: sampleIdentity(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret").Verify(raw)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}
