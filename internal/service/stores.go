// Package service holds the catalog's business rules.  Every operation that
// touches more than one collection lives here so the reference lists on
// users, movies and reviews stay consistent no matter which store backs
// them.
package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/cinereview/internal/model"
	"github.com/iliyamo/cinereview/internal/queue"
	"github.com/iliyamo/cinereview/internal/utils"
)

// UserStore is implemented by repository.UserRepo and memory.Users.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id bson.ObjectID) (model.User, error)
	FindByLogin(ctx context.Context, email, username string) (model.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	ListByIDs(ctx context.Context, ids []bson.ObjectID) ([]model.User, error)
	AddToList(ctx context.Context, id bson.ObjectID, list model.UserList, ref bson.ObjectID) error
	RemoveFromList(ctx context.Context, id bson.ObjectID, list model.UserList, ref bson.ObjectID) error
	RemoveFromAllLists(ctx context.Context, list model.UserList, ref bson.ObjectID) (int64, error)
}

// MovieStore is implemented by repository.MovieRepo and memory.Movies.
type MovieStore interface {
	Create(ctx context.Context, m *model.Movie) error
	GetByID(ctx context.Context, id bson.ObjectID) (model.Movie, error)
	List(ctx context.Context) ([]model.Movie, error)
	SearchTitle(ctx context.Context, q string) ([]model.Movie, error)
	ListByIDs(ctx context.Context, ids []bson.ObjectID) ([]model.Movie, error)
	Update(ctx context.Context, id bson.ObjectID, patch model.MoviePatch) (model.Movie, error)
	Delete(ctx context.Context, id bson.ObjectID) error
	AddReview(ctx context.Context, id, reviewID bson.ObjectID) error
	RemoveReview(ctx context.Context, id, reviewID bson.ObjectID) error
}

// ReviewStore is implemented by repository.ReviewRepo and memory.Reviews.
type ReviewStore interface {
	Create(ctx context.Context, rv *model.Review) error
	GetByID(ctx context.Context, id bson.ObjectID) (model.Review, error)
	ListByIDs(ctx context.Context, ids []bson.ObjectID) ([]model.Review, error)
	ListByMovie(ctx context.Context, movieID bson.ObjectID) ([]model.Review, error)
	Update(ctx context.Context, id bson.ObjectID, patch model.ReviewPatch) (model.Review, error)
	Delete(ctx context.Context, id bson.ObjectID) error
}

// TxRunner groups store calls.  The Mongo runner uses a session
// transaction when enabled; the memory store just calls fn.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RevocationStore remembers logged-out token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// SessionIssuer mints session tokens.  *utils.TokenIssuer implements it.
type SessionIssuer interface {
	Issue(id model.Identity) (utils.SessionToken, error)
}

// EventPublisher receives activity events after a write commits.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// Stores bundles the three collections with their transaction runner.
type Stores struct {
	Users   UserStore
	Movies  MovieStore
	Reviews ReviewStore
	Tx      TxRunner
}
