package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/cinereview/internal/model"
	"github.com/iliyamo/cinereview/internal/repository"
)

func TestUsersUniqueFields(t *testing.T) {
	users := New().Users()
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &model.User{Username: "alice", Email: "a@x.io"}))
	assert.ErrorIs(t, users.Create(ctx, &model.User{Username: "alice", Email: "b@x.io"}), repository.ErrDuplicate)
	assert.ErrorIs(t, users.Create(ctx, &model.User{Username: "bob", Email: "a@x.io"}), repository.ErrDuplicate)
	assert.NoError(t, users.Create(ctx, &model.User{Username: "Alice", Email: "A@x.io"}))
}

func TestUsersListSetSemantics(t *testing.T) {
	users := New().Users()
	ctx := context.Background()
	u := &model.User{Username: "alice", Email: "a@x.io"}
	require.NoError(t, users.Create(ctx, u))
	movie := bson.NewObjectID()

	require.NoError(t, users.AddToList(ctx, u.ID, model.ListWatchlist, movie))
	require.NoError(t, users.AddToList(ctx, u.ID, model.ListWatchlist, movie))
	got, err := users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []bson.ObjectID{movie}, got.Watchlist)

	require.NoError(t, users.RemoveFromList(ctx, u.ID, model.ListWatchlist, movie))
	require.NoError(t, users.RemoveFromList(ctx, u.ID, model.ListWatchlist, movie))
	got, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Watchlist)

	assert.ErrorIs(t, users.AddToList(ctx, bson.NewObjectID(), model.ListFavorites, movie), repository.ErrNotFound)
}

func TestReadsAreCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	m := &model.Movie{Title: "Heat", Genre: []string{"crime"}}
	require.NoError(t, s.Movies().Create(ctx, m))

	got, err := s.Movies().GetByID(ctx, m.ID)
	require.NoError(t, err)
	got.Genre[0] = "changed"

	again, err := s.Movies().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "crime", again.Genre[0])
}

func TestSearchTitleIgnoresCase(t *testing.T) {
	movies := New().Movies()
	ctx := context.Background()
	for _, title := range []string{"The Matrix", "Matrix Reloaded", "Heat"} {
		require.NoError(t, movies.Create(ctx, &model.Movie{Title: title}))
	}

	got, err := movies.SearchTitle(ctx, "maTRix")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRevocationsExpire(t *testing.T) {
	r := NewRevocations()
	ctx := context.Background()

	require.NoError(t, r.Revoke(ctx, "live", time.Now().Add(time.Hour)))
	require.NoError(t, r.Revoke(ctx, "dead", time.Now().Add(-time.Hour)))

	ok, _ := r.IsRevoked(ctx, "live")
	assert.True(t, ok)
	ok, _ = r.IsRevoked(ctx, "dead")
	assert.False(t, ok)
}
