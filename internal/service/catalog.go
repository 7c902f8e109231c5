package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/cinereview/internal/model"
	"github.com/iliyamo/cinereview/internal/queue"
)

// ImageKind selects which movie image an upload replaces.
type ImageKind string

const (
	ImagePoster   ImageKind = "poster"
	ImageBackdrop ImageKind = "backdrop"
)

// MsgMovieMissing is returned when a create request lacks required fields.
const MsgMovieMissing = "Please provide title, description, releaseYear and posterImg."

// Catalog manages movies and their populated views.
type Catalog struct {
	users   UserStore
	movies  MovieStore
	reviews ReviewStore
	tx      TxRunner
	events  EventPublisher
	log     logrus.FieldLogger
}

// NewCatalog wires the catalog service.  events may be nil.
func NewCatalog(s Stores, events EventPublisher, log logrus.FieldLogger) *Catalog {
	return &Catalog{
		users:   s.Users,
		movies:  s.Movies,
		reviews: s.Reviews,
		tx:      s.Tx,
		events:  events,
		log:     log,
	}
}

// List returns every movie with its reviews and their creators populated.
func (c *Catalog) List(ctx context.Context) ([]model.MovieDetail, error) {
	movies, err := c.movies.List(ctx)
	if err != nil {
		return nil, err
	}
	return c.populate(ctx, movies)
}

// Search returns the populated movies whose title contains q, ignoring case.
func (c *Catalog) Search(ctx context.Context, q string) ([]model.MovieDetail, error) {
	movies, err := c.movies.SearchTitle(ctx, q)
	if err != nil {
		return nil, err
	}
	return c.populate(ctx, movies)
}

// Get returns one populated movie.
func (c *Catalog) Get(ctx context.Context, id bson.ObjectID) (model.MovieDetail, error) {
	m, err := c.movies.GetByID(ctx, id)
	if err != nil {
		return model.MovieDetail{}, notFound(err, ErrMovieNotFound)
	}
	out, err := c.populate(ctx, []model.Movie{m})
	if err != nil {
		return model.MovieDetail{}, err
	}
	return out[0], nil
}

// Create stores m as a new movie with no reviews.
func (c *Catalog) Create(ctx context.Context, m model.Movie) (model.Movie, error) {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" || strings.TrimSpace(m.Description) == "" || m.ReleaseYear == 0 || strings.TrimSpace(m.PosterImg) == "" {
		return model.Movie{}, invalid(MsgMovieMissing)
	}
	m.ID = bson.ObjectID{}
	m.Reviews = []bson.ObjectID{}
	if m.Genre == nil {
		m.Genre = []string{}
	}
	if m.Cast == nil {
		m.Cast = []string{}
	}
	if err := c.movies.Create(ctx, &m); err != nil {
		return model.Movie{}, err
	}
	return m, nil
}

// Update applies patch and returns the movie as stored afterwards.
func (c *Catalog) Update(ctx context.Context, id bson.ObjectID, patch model.MoviePatch) (model.Movie, error) {
	m, err := c.movies.Update(ctx, id, patch)
	if err != nil {
		return model.Movie{}, notFound(err, ErrMovieNotFound)
	}
	return m, nil
}

// SetImage points the poster or backdrop of movie id at url.
func (c *Catalog) SetImage(ctx context.Context, id bson.ObjectID, kind ImageKind, url string) (model.Movie, error) {
	var patch model.MoviePatch
	switch kind {
	case ImagePoster:
		patch.PosterImg = &url
	case ImageBackdrop:
		patch.BackdropImg = &url
	default:
		return model.Movie{}, invalid("kind must be poster or backdrop")
	}
	return c.Update(ctx, id, patch)
}

// Delete removes movie id and everything that points at it.  For each
// review of the movie the id is pulled from its creator's list and the
// review is deleted; then the movie is pulled from every watchlist and
// favorites list, and finally the movie itself is deleted.  Every step
// tolerates targets that are already gone, so a retry after a partial
// failure converges.
func (c *Catalog) Delete(ctx context.Context, actor model.Identity, id bson.ObjectID) (model.Movie, error) {
	var (
		deleted model.Movie
		removed int
	)
	err := c.tx.InTx(ctx, func(ctx context.Context) error {
		m, err := c.movies.GetByID(ctx, id)
		if err != nil {
			return notFound(err, ErrMovieNotFound)
		}
		deleted = m
		removed = 0

		reviews, err := c.movieReviews(ctx, m)
		if err != nil {
			return err
		}
		for _, rv := range reviews {
			if err := ignoreNotFound(c.users.RemoveFromList(ctx, rv.Creator, model.ListReviews, rv.ID)); err != nil {
				return err
			}
			if err := ignoreNotFound(c.reviews.Delete(ctx, rv.ID)); err != nil {
				return err
			}
			removed++
		}
		if _, err := c.users.RemoveFromAllLists(ctx, model.ListWatchlist, id); err != nil {
			return err
		}
		if _, err := c.users.RemoveFromAllLists(ctx, model.ListFavorites, id); err != nil {
			return err
		}
		return notFound(c.movies.Delete(ctx, id), ErrMovieNotFound)
	})
	if err != nil {
		return model.Movie{}, err
	}
	c.publish(ctx, queue.ActivityEvent{
		Type:           queue.MovieDeleted,
		ActorID:        actor.ID.Hex(),
		MovieID:        id.Hex(),
		MovieTitle:     deleted.Title,
		RemovedReviews: removed,
	})
	return deleted, nil
}

// movieReviews returns the reviews listed on m plus any review that points
// at m without being listed, such as one left behind by a failed create.
func (c *Catalog) movieReviews(ctx context.Context, m model.Movie) ([]model.Review, error) {
	listed, err := c.reviews.ListByIDs(ctx, m.Reviews)
	if err != nil {
		return nil, err
	}
	orphans, err := c.reviews.ListByMovie(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	seen := make(map[bson.ObjectID]bool, len(listed))
	out := make([]model.Review, 0, len(listed)+len(orphans))
	for _, rv := range append(listed, orphans...) {
		if !seen[rv.ID] {
			seen[rv.ID] = true
			out = append(out, rv)
		}
	}
	return out, nil
}

// populate resolves each movie's review ids and each review's creator.
// Dangling references are dropped; a review whose creator is gone keeps
// only the creator id.
func (c *Catalog) populate(ctx context.Context, movies []model.Movie) ([]model.MovieDetail, error) {
	var reviewIDs []bson.ObjectID
	for _, m := range movies {
		reviewIDs = append(reviewIDs, m.Reviews...)
	}
	reviews, err := c.reviews.ListByIDs(ctx, reviewIDs)
	if err != nil {
		return nil, err
	}
	creatorIDs := make([]bson.ObjectID, 0, len(reviews))
	for _, rv := range reviews {
		creatorIDs = append(creatorIDs, rv.Creator)
	}
	creators, err := c.users.ListByIDs(ctx, creatorIDs)
	if err != nil {
		return nil, err
	}
	cards := make(map[bson.ObjectID]model.Reviewer, len(creators))
	for _, u := range creators {
		cards[u.ID] = u.Reviewer()
	}

	out := make([]model.MovieDetail, 0, len(movies))
	for _, m := range movies {
		d := model.MovieDetail{Movie: m, Reviews: []model.ReviewDetail{}}
		for _, rv := range orderReviews(m.Reviews, reviews) {
			card, ok := cards[rv.Creator]
			if !ok {
				card = model.Reviewer{ID: rv.Creator}
			}
			d.Reviews = append(d.Reviews, model.ReviewDetail{Review: rv, Creator: card})
		}
		out = append(out, d)
	}
	return out, nil
}

// publish sends ev best effort.  A broker outage never fails the request.
func (c *Catalog) publish(ctx context.Context, ev queue.ActivityEvent) {
	publish(ctx, c.events, c.log, ev)
}

func publish(ctx context.Context, events EventPublisher, log logrus.FieldLogger, ev queue.ActivityEvent) {
	if events == nil {
		return
	}
	ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	if err := events.Publish(ctx, ev); err != nil && log != nil {
		log.WithError(err).WithField("event", ev.Type).Warn("publish activity event")
	}
}
