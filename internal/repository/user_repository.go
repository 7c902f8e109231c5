package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/cinereview/internal/database"
	"github.com/iliyamo/cinereview/internal/model"
)

// UserRepo persists users in the `users` collection.
type UserRepo struct{ coll *mongo.Collection }

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{coll: db.Collection(database.UsersCollection)}
}

// Create inserts u and fills in its id and timestamps.  A username or email
// collision is reported as ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.ID = bson.NewObjectID()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Reviews == nil {
		u.Reviews = []bson.ObjectID{}
	}
	if u.Watchlist == nil {
		u.Watchlist = []bson.ObjectID{}
	}
	if u.Favorites == nil {
		u.Favorites = []bson.ObjectID{}
	}
	_, err := r.coll.InsertOne(ctx, u)
	return translate(err)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id bson.ObjectID) (model.User, error) {
	var u model.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	return u, translate(err)
}

// FindByLogin fetches the user matching email or username, whichever are
// non-empty.  Matching is exact.
func (r *UserRepo) FindByLogin(ctx context.Context, email, username string) (model.User, error) {
	filter, ok := loginFilter(email, username)
	if !ok {
		return model.User{}, ErrNotFound
	}
	var u model.User
	err := r.coll.FindOne(ctx, filter).Decode(&u)
	return u, translate(err)
}

// ExistsByEmailOrUsername reports whether any user already holds email or
// username.
func (r *UserRepo) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	filter, ok := loginFilter(email, username)
	if !ok {
		return false, nil
	}
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByIDs returns the users whose ids are in ids, in no particular order.
func (r *UserRepo) ListByIDs(ctx context.Context, ids []bson.ObjectID) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var out []model.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddToList adds ref to the named list of user id.  The list has set
// semantics so repeating the call is harmless.
func (r *UserRepo) AddToList(ctx context.Context, id bson.ObjectID, list model.UserList, ref bson.ObjectID) error {
	return r.update(ctx, id, bson.M{"$addToSet": bson.M{string(list): ref}})
}

// RemoveFromList pulls ref from the named list of user id.  Pulling an
// absent ref succeeds.
func (r *UserRepo) RemoveFromList(ctx context.Context, id bson.ObjectID, list model.UserList, ref bson.ObjectID) error {
	return r.update(ctx, id, bson.M{"$pull": bson.M{string(list): ref}})
}

// RemoveFromAllLists pulls ref from the named list of every user holding it
// and returns how many users changed.
func (r *UserRepo) RemoveFromAllLists(ctx context.Context, list model.UserList, ref bson.ObjectID) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{string(list): ref},
		bson.M{
			"$pull": bson.M{string(list): ref},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *UserRepo) update(ctx context.Context, id bson.ObjectID, update bson.M) error {
	update["$set"] = bson.M{"updatedAt": time.Now().UTC()}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// loginFilter builds an exact-match $or over the non-empty identifiers.
func loginFilter(email, username string) (bson.M, bool) {
	var or bson.A
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if len(or) == 0 {
		return nil, false
	}
	return bson.M{"$or": or}, true
}
