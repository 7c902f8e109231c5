package repository

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/cinereview/internal/database"
	"github.com/iliyamo/cinereview/internal/model"
)

// MovieRepo persists movies in the `movies` collection.
type MovieRepo struct{ coll *mongo.Collection }

func NewMovieRepo(db *mongo.Database) *MovieRepo {
	return &MovieRepo{coll: db.Collection(database.MoviesCollection)}
}

// Create inserts m and fills in its id and timestamps.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	now := time.Now().UTC()
	m.ID = bson.NewObjectID()
	m.CreatedAt, m.UpdatedAt = now, now
	if m.Reviews == nil {
		m.Reviews = []bson.ObjectID{}
	}
	_, err := r.coll.InsertOne(ctx, m)
	return translate(err)
}

// GetByID fetches a movie by id.
func (r *MovieRepo) GetByID(ctx context.Context, id bson.ObjectID) (model.Movie, error) {
	var m model.Movie
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	return m, translate(err)
}

// List returns every movie in insertion order.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	return r.find(ctx, bson.M{})
}

// SearchTitle returns movies whose title contains q, ignoring case.  q is
// matched literally.
func (r *MovieRepo) SearchTitle(ctx context.Context, q string) ([]model.Movie, error) {
	return r.find(ctx, bson.M{"title": bson.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}})
}

// ListByIDs returns the movies whose ids are in ids.
func (r *MovieRepo) ListByIDs(ctx context.Context, ids []bson.ObjectID) ([]model.Movie, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// Update applies patch to movie id and returns the updated document.
func (r *MovieRepo) Update(ctx context.Context, id bson.ObjectID, patch model.MoviePatch) (model.Movie, error) {
	set := patch.Fields()
	set["updatedAt"] = time.Now().UTC()

	var m model.Movie
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	return m, translate(err)
}

// Delete removes movie id.
func (r *MovieRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddReview records reviewID on movie id.  $addToSet keeps a retried call
// from appending the same review twice.
func (r *MovieRepo) AddReview(ctx context.Context, id, reviewID bson.ObjectID) error {
	return r.update(ctx, id, bson.M{"$addToSet": bson.M{"reviews": reviewID}})
}

// RemoveReview pulls reviewID from movie id.
func (r *MovieRepo) RemoveReview(ctx context.Context, id, reviewID bson.ObjectID) error {
	return r.update(ctx, id, bson.M{"$pull": bson.M{"reviews": reviewID}})
}

func (r *MovieRepo) update(ctx context.Context, id bson.ObjectID, update bson.M) error {
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

func (r *MovieRepo) find(ctx context.Context, filter bson.M) ([]model.Movie, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	out := []model.Movie{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
