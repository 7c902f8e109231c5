package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/cinereview/internal/model"
	"github.com/iliyamo/cinereview/internal/queue"
)

// MsgReviewMissing is returned when a review lacks its title or body.
const MsgReviewMissing = "Please provide title, review and rating."

var msgRatingRange = fmt.Sprintf("Rating must be between %d and %d.", model.RatingMin, model.RatingMax)

// ReviewInput is the body of a create-review request.
type ReviewInput struct {
	Title  string   `json:"title"`
	Review string   `json:"review"`
	Rating *float64 `json:"rating"`
}

// Reviews manages reviews and the two back references each one has: the
// creator's reviews list and the movie's reviews list.
type Reviews struct {
	users   UserStore
	movies  MovieStore
	reviews ReviewStore
	tx      TxRunner
	events  EventPublisher
	log     logrus.FieldLogger
}

// NewReviews wires the review service.  events may be nil.
func NewReviews(s Stores, events EventPublisher, log logrus.FieldLogger) *Reviews {
	return &Reviews{
		users:   s.Users,
		movies:  s.Movies,
		reviews: s.Reviews,
		tx:      s.Tx,
		events:  events,
		log:     log,
	}
}

// Create stores a review by actor on movieID and links it from both the
// creator and the movie.
func (r *Reviews) Create(ctx context.Context, actor model.Identity, movieID bson.ObjectID, in ReviewInput) (model.Review, error) {
	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(in.Review)
	if title == "" || body == "" || in.Rating == nil {
		return model.Review{}, invalid(MsgReviewMissing)
	}
	if err := checkRating(*in.Rating); err != nil {
		return model.Review{}, err
	}

	rv := model.Review{
		Title:   title,
		Review:  body,
		Rating:  *in.Rating,
		Creator: actor.ID,
		Movie:   movieID,
	}
	err := r.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := r.movies.GetByID(ctx, movieID); err != nil {
			return notFound(err, ErrMovieNotFound)
		}
		rv.ID = bson.ObjectID{}
		if err := r.reviews.Create(ctx, &rv); err != nil {
			return err
		}
		if err := r.users.AddToList(ctx, actor.ID, model.ListReviews, rv.ID); err != nil {
			return notFound(err, ErrUserNotFound)
		}
		return notFound(r.movies.AddReview(ctx, movieID, rv.ID), ErrMovieNotFound)
	})
	if err != nil {
		return model.Review{}, err
	}
	publish(ctx, r.events, r.log, queue.ActivityEvent{
		Type:     queue.ReviewCreated,
		ActorID:  actor.ID.Hex(),
		MovieID:  movieID.Hex(),
		ReviewID: rv.ID.Hex(),
		Rating:   rv.Rating,
	})
	return rv, nil
}

// Update applies patch to review id.  Only its creator or an admin may edit
// it.
func (r *Reviews) Update(ctx context.Context, actor model.Identity, id bson.ObjectID, patch model.ReviewPatch) (model.Review, error) {
	rv, err := r.reviews.GetByID(ctx, id)
	if err != nil {
		return model.Review{}, notFound(err, ErrReviewNotFound)
	}
	if !mayEdit(actor, rv) {
		return model.Review{}, ErrForbidden
	}
	if patch.Rating != nil {
		if err := checkRating(*patch.Rating); err != nil {
			return model.Review{}, err
		}
	}
	updated, err := r.reviews.Update(ctx, id, patch)
	if err != nil {
		return model.Review{}, notFound(err, ErrReviewNotFound)
	}
	return updated, nil
}

// Delete removes review id and its back references.  Only its creator or an
// admin may delete it.
func (r *Reviews) Delete(ctx context.Context, actor model.Identity, id bson.ObjectID) error {
	var rv model.Review
	err := r.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		rv, err = r.reviews.GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrReviewNotFound)
		}
		if !mayEdit(actor, rv) {
			return ErrForbidden
		}
		if err := ignoreNotFound(r.movies.RemoveReview(ctx, rv.Movie, rv.ID)); err != nil {
			return err
		}
		if err := ignoreNotFound(r.users.RemoveFromList(ctx, rv.Creator, model.ListReviews, rv.ID)); err != nil {
			return err
		}
		return notFound(r.reviews.Delete(ctx, rv.ID), ErrReviewNotFound)
	})
	if err != nil {
		return err
	}
	publish(ctx, r.events, r.log, queue.ActivityEvent{
		Type:     queue.ReviewDeleted,
		ActorID:  actor.ID.Hex(),
		MovieID:  rv.Movie.Hex(),
		ReviewID: rv.ID.Hex(),
	})
	return nil
}

func mayEdit(actor model.Identity, rv model.Review) bool {
	return actor.IsAdmin || actor.ID == rv.Creator
}

func checkRating(v float64) error {
	if v < model.RatingMin || v > model.RatingMax {
		return invalid(msgRatingRange)
	}
	return nil
}
