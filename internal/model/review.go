package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Review rating bounds.
const (
	RatingMin = 0
	RatingMax = 10
)

// Review is a document in the `reviews` collection.  Every review belongs to
// exactly one creator and one movie, and both reference it back.
type Review struct {
	ID        bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	Title     string        `json:"title" bson:"title"`
	Review    string        `json:"review" bson:"review"`
	Rating    float64       `json:"rating" bson:"rating"`
	Creator   bson.ObjectID `json:"creator" bson:"creator"`
	Movie     bson.ObjectID `json:"movie" bson:"movie"`
	CreatedAt time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// ReviewDetail is a review with its creator populated.
type ReviewDetail struct {
	Review
	Creator Reviewer `json:"creator"`
}

// ReviewPatch carries a partial review update with the same omission rules
// as MoviePatch.
type ReviewPatch struct {
	Title  *string  `json:"title"`
	Review *string  `json:"review"`
	Rating *float64 `json:"rating"`
}

// Fields returns the BSON `$set` body for the patch.
func (p ReviewPatch) Fields() bson.M {
	set := bson.M{}
	setString(set, "title", p.Title)
	setString(set, "review", p.Review)
	setFloat(set, "rating", p.Rating)
	return set
}

// Apply copies the effective fields of p onto r.
func (p ReviewPatch) Apply(r *Review) {
	f := p.Fields()
	if v, ok := f["title"]; ok {
		r.Title = v.(string)
	}
	if v, ok := f["review"]; ok {
		r.Review = v.(string)
	}
	if v, ok := f["rating"]; ok {
		r.Rating = v.(float64)
	}
}
