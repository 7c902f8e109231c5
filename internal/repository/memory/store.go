// Package memory is an in-process implementation of the user, movie and
// review stores.  It backs STORE_DRIVER=memory and the test suites.  All
// reads return copies, so callers can never mutate stored documents.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/cinereview/internal/model"
	"github.com/iliyamo/cinereview/internal/repository"
)

// Store holds every collection behind one lock.
type Store struct {
	mu      sync.RWMutex
	users   map[bson.ObjectID]model.User
	movies  map[bson.ObjectID]model.Movie
	reviews map[bson.ObjectID]model.Review
	now     func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:   map[bson.ObjectID]model.User{},
		movies:  map[bson.ObjectID]model.Movie{},
		reviews: map[bson.ObjectID]model.Review{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Users returns the user store view.
func (s *Store) Users() *Users { return &Users{s} }

// Movies returns the movie store view.
func (s *Store) Movies() *Movies { return &Movies{s} }

// Reviews returns the review store view.
func (s *Store) Reviews() *Reviews { return &Reviews{s} }

// InTx runs fn directly; each store call is atomic on its own.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Users implements the user store.
type Users struct{ s *Store }

func (u *Users) Create(ctx context.Context, user *model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	for _, existing := range u.s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	now := u.s.now()
	user.ID = bson.NewObjectID()
	user.CreatedAt, user.UpdatedAt = now, now
	user.Reviews = ids(user.Reviews)
	user.Watchlist = ids(user.Watchlist)
	user.Favorites = ids(user.Favorites)
	u.s.users[user.ID] = copyUser(*user)
	return nil
}

func (u *Users) GetByID(ctx context.Context, id bson.ObjectID) (model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	user, ok := u.s.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return copyUser(user), nil
}

func (u *Users) FindByLogin(ctx context.Context, email, username string) (model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	for _, user := range u.s.users {
		if (email != "" && user.Email == email) || (username != "" && user.Username == username) {
			return copyUser(user), nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (u *Users) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	_, err := u.FindByLogin(ctx, email, username)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (u *Users) ListByIDs(ctx context.Context, want []bson.ObjectID) ([]model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	var out []model.User
	for _, id := range dedupe(want) {
		if user, ok := u.s.users[id]; ok {
			out = append(out, copyUser(user))
		}
	}
	return out, nil
}

func (u *Users) AddToList(ctx context.Context, id bson.ObjectID, list model.UserList, ref bson.ObjectID) error {
	return u.mutate(id, func(user *model.User) {
		l := user.List(list)
		if !model.ContainsID(*l, ref) {
			*l = append(*l, ref)
		}
	})
}

func (u *Users) RemoveFromList(ctx context.Context, id bson.ObjectID, list model.UserList, ref bson.ObjectID) error {
	return u.mutate(id, func(user *model.User) {
		l := user.List(list)
		*l = without(*l, ref)
	})
}

func (u *Users) RemoveFromAllLists(ctx context.Context, list model.UserList, ref bson.ObjectID) (int64, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	var n int64
	for id, user := range u.s.users {
		l := user.List(list)
		if !model.ContainsID(*l, ref) {
			continue
		}
		*l = without(*l, ref)
		user.UpdatedAt = u.s.now()
		u.s.users[id] = user
		n++
	}
	return n, nil
}

func (u *Users) mutate(id bson.ObjectID, fn func(*model.User)) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	user, ok := u.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user = copyUser(user)
	fn(&user)
	user.UpdatedAt = u.s.now()
	u.s.users[id] = user
	return nil
}

// Movies implements the movie store.
type Movies struct{ s *Store }

func (m *Movies) Create(ctx context.Context, movie *model.Movie) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	now := m.s.now()
	movie.ID = bson.NewObjectID()
	movie.CreatedAt, movie.UpdatedAt = now, now
	movie.Reviews = ids(movie.Reviews)
	m.s.movies[movie.ID] = copyMovie(*movie)
	return nil
}

func (m *Movies) GetByID(ctx context.Context, id bson.ObjectID) (model.Movie, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	movie, ok := m.s.movies[id]
	if !ok {
		return model.Movie{}, repository.ErrNotFound
	}
	return copyMovie(movie), nil
}

func (m *Movies) List(ctx context.Context) ([]model.Movie, error) {
	return m.filter(func(model.Movie) bool { return true }), nil
}

func (m *Movies) SearchTitle(ctx context.Context, q string) ([]model.Movie, error) {
	q = strings.ToLower(q)
	return m.filter(func(movie model.Movie) bool {
		return strings.Contains(strings.ToLower(movie.Title), q)
	}), nil
}

func (m *Movies) ListByIDs(ctx context.Context, want []bson.ObjectID) ([]model.Movie, error) {
	set := map[bson.ObjectID]bool{}
	for _, id := range want {
		set[id] = true
	}
	return m.filter(func(movie model.Movie) bool { return set[movie.ID] }), nil
}

func (m *Movies) Update(ctx context.Context, id bson.ObjectID, patch model.MoviePatch) (model.Movie, error) {
	var out model.Movie
	err := m.mutate(id, func(movie *model.Movie) {
		patch.Apply(movie)
		out = copyMovie(*movie)
	})
	return out, err
}

func (m *Movies) Delete(ctx context.Context, id bson.ObjectID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.movies[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.movies, id)
	return nil
}

func (m *Movies) AddReview(ctx context.Context, id, reviewID bson.ObjectID) error {
	return m.mutate(id, func(movie *model.Movie) {
		if !model.ContainsID(movie.Reviews, reviewID) {
			movie.Reviews = append(movie.Reviews, reviewID)
		}
	})
}

func (m *Movies) RemoveReview(ctx context.Context, id, reviewID bson.ObjectID) error {
	return m.mutate(id, func(movie *model.Movie) {
		movie.Reviews = without(movie.Reviews, reviewID)
	})
}

func (m *Movies) mutate(id bson.ObjectID, fn func(*model.Movie)) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	movie, ok := m.s.movies[id]
	if !ok {
		return repository.ErrNotFound
	}
	movie = copyMovie(movie)
	movie.UpdatedAt = m.s.now()
	fn(&movie)
	m.s.movies[id] = movie
	return nil
}

func (m *Movies) filter(keep func(model.Movie) bool) []model.Movie {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := []model.Movie{}
	for _, movie := range m.s.movies {
		if keep(movie) {
			out = append(out, copyMovie(movie))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out
}

// Reviews implements the review store.
type Reviews struct{ s *Store }

func (r *Reviews) Create(ctx context.Context, rv *model.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	rv.ID = bson.NewObjectID()
	rv.CreatedAt, rv.UpdatedAt = now, now
	r.s.reviews[rv.ID] = *rv
	return nil
}

func (r *Reviews) GetByID(ctx context.Context, id bson.ObjectID) (model.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return model.Review{}, repository.ErrNotFound
	}
	return rv, nil
}

func (r *Reviews) ListByIDs(ctx context.Context, want []bson.ObjectID) ([]model.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Review
	for _, id := range dedupe(want) {
		if rv, ok := r.s.reviews[id]; ok {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (r *Reviews) ListByMovie(ctx context.Context, movieID bson.ObjectID) ([]model.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Review
	for _, rv := range r.s.reviews {
		if rv.Movie == movieID {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (r *Reviews) Update(ctx context.Context, id bson.ObjectID, patch model.ReviewPatch) (model.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return model.Review{}, repository.ErrNotFound
	}
	patch.Apply(&rv)
	rv.UpdatedAt = r.s.now()
	r.s.reviews[id] = rv
	return rv, nil
}

func (r *Reviews) Delete(ctx context.Context, id bson.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.reviews, id)
	return nil
}

// Count reports how many reviews are stored.
func (r *Reviews) Count() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.reviews)
}

func copyUser(u model.User) model.User {
	u.Reviews = ids(u.Reviews)
	u.Watchlist = ids(u.Watchlist)
	u.Favorites = ids(u.Favorites)
	return u
}

func copyMovie(m model.Movie) model.Movie {
	m.Reviews = ids(m.Reviews)
	if m.Genre != nil {
		m.Genre = append([]string{}, m.Genre...)
	}
	if m.Cast != nil {
		m.Cast = append([]string{}, m.Cast...)
	}
	if m.Rating != nil {
		r := *m.Rating
		m.Rating = &r
	}
	if m.Popularity != nil {
		p := *m.Popularity
		m.Popularity = &p
	}
	return m
}

func ids(in []bson.ObjectID) []bson.ObjectID {
	return append([]bson.ObjectID{}, in...)
}

func without(in []bson.ObjectID, drop bson.ObjectID) []bson.ObjectID {
	out := in[:0]
	for _, id := range in {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

func dedupe(in []bson.ObjectID) []bson.ObjectID {
	seen := make(map[bson.ObjectID]bool, len(in))
	out := make([]bson.ObjectID, 0, len(in))
	for _, id := range in {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
