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

// ReviewRepo persists reviews in the `reviews` collection.  It knows nothing
// about the back-references on users and movies; keeping those in step is
// the service layer's job.
type ReviewRepo struct{ coll *mongo.Collection }

func NewReviewRepo(db *mongo.Database) *ReviewRepo {
	return &ReviewRepo{coll: db.Collection(database.ReviewsCollection)}
}

// Create inserts rv and fills in its id and timestamps.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	now := time.Now().UTC()
	rv.ID = bson.NewObjectID()
	rv.CreatedAt, rv.UpdatedAt = now, now
	_, err := r.coll.InsertOne(ctx, rv)
	return translate(err)
}

// GetByID fetches a review by id.
func (r *ReviewRepo) GetByID(ctx context.Context, id bson.ObjectID) (model.Review, error) {
	var rv model.Review
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rv)
	return rv, translate(err)
}

// ListByIDs returns the reviews whose ids are in ids, oldest first.
func (r *ReviewRepo) ListByIDs(ctx context.Context, ids []bson.ObjectID) ([]model.Review, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.coll.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []model.Review
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies patch to review id and returns the updated document.
func (r *ReviewRepo) Update(ctx context.Context, id bson.ObjectID, patch model.ReviewPatch) (model.Review, error) {
	set := patch.Fields()
	set["updatedAt"] = time.Now().UTC()

	var rv model.Review
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rv)
	return rv, translate(err)
}

// Delete removes review id.
func (r *ReviewRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByMovie returns every review pointing at movie id, including any
// whose id never made it onto the movie's own list.
func (r *ReviewRepo) ListByMovie(ctx context.Context, movieID bson.ObjectID) ([]model.Review, error) {
	cur, err := r.coll.Find(ctx, bson.M{"movie": movieID})
	if err != nil {
		return nil, err
	}
	var out []model.Review
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
