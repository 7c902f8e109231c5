package service

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/cinereview/internal/model"
)

// Library maintains a user's watchlist and favorites.  Both lists are sets
// of movie ids.
type Library struct {
	users  UserStore
	movies MovieStore
}

// NewLibrary wires the library service.
func NewLibrary(s Stores) *Library {
	return &Library{users: s.Users, movies: s.Movies}
}

// Add puts movieID on the user's list and returns the list afterwards.  The
// movie must exist and must not already be on the list.
func (l *Library) Add(ctx context.Context, userID bson.ObjectID, list model.UserList, movieID bson.ObjectID) ([]bson.ObjectID, error) {
	if err := checkShelf(list); err != nil {
		return nil, err
	}
	if _, err := l.movies.GetByID(ctx, movieID); err != nil {
		return nil, notFound(err, ErrMovieNotFound)
	}
	u, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	if model.ContainsID(*u.List(list), movieID) {
		return nil, ErrAlreadyPresent
	}
	if err := l.users.AddToList(ctx, userID, list, movieID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return l.current(ctx, userID, list)
}

// Remove takes movieID off the user's list and returns the list afterwards.
// Removing an id that is not on the list is a no-op, and the movie itself
// need not exist.
func (l *Library) Remove(ctx context.Context, userID bson.ObjectID, list model.UserList, movieID bson.ObjectID) ([]bson.ObjectID, error) {
	if err := checkShelf(list); err != nil {
		return nil, err
	}
	if err := l.users.RemoveFromList(ctx, userID, list, movieID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return l.current(ctx, userID, list)
}

func (l *Library) current(ctx context.Context, userID bson.ObjectID, list model.UserList) ([]bson.ObjectID, error) {
	u, err := l.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	out := *u.List(list)
	if out == nil {
		out = []bson.ObjectID{}
	}
	return out, nil
}

// checkShelf rejects the reviews list, which only the review service edits.
func checkShelf(list model.UserList) error {
	if list != model.ListWatchlist && list != model.ListFavorites {
		return invalid("unknown list " + string(list))
	}
	return nil
}
