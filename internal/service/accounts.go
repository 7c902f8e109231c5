package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/cinereview/internal/model"
	"github.com/iliyamo/cinereview/internal/repository"
	"github.com/iliyamo/cinereview/internal/utils"
)

// Client-facing messages for account input errors.
const (
	MsgSignupMissing   = "Please provide email, username, and password."
	MsgLoginMissing    = "Please provide email or username, and password."
	MsgInvalidEmail    = "Provide a valid email address."
	MsgInvalidPassword = "Password must have at least 6 characters and contain at least one number, one lowercase, one uppercase letter and a special character."
)

var (
	msgUsernameLength = fmt.Sprintf("Username must be between %d and %d characters.", model.UsernameMinLen, model.UsernameMaxLen)
	msgEmailLength    = fmt.Sprintf("Email must be at most %d characters.", model.EmailMaxLen)
)

// SignupInput is the body of a signup request.
type SignupInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginInput is the body of a login request.  Either Email or Username
// identifies the account; Email wins when both are set.
type LoginInput struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is a successful login.
type Session struct {
	User  model.Identity
	Token utils.SessionToken
}

// Accounts handles signup, login, logout and profiles.
type Accounts struct {
	users       UserStore
	movies      MovieStore
	reviews     ReviewStore
	issuer      SessionIssuer
	revocations RevocationStore
	cost        int
}

// NewAccounts wires the account service.  cost is the bcrypt cost.
func NewAccounts(s Stores, issuer SessionIssuer, revocations RevocationStore, cost int) *Accounts {
	return &Accounts{
		users:       s.Users,
		movies:      s.Movies,
		reviews:     s.Reviews,
		issuer:      issuer,
		revocations: revocations,
		cost:        cost,
	}
}

// Signup validates in, hashes the password and stores a new non-admin user.
// Shape checks run before the uniqueness lookup so malformed input never
// reveals whether an account exists.
func (a *Accounts) Signup(ctx context.Context, in SignupInput) (model.Identity, error) {
	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)
	if email == "" || username == "" || in.Password == "" {
		return model.Identity{}, invalid(MsgSignupMissing)
	}
	if !utils.ValidEmail(email) {
		return model.Identity{}, invalid(MsgInvalidEmail)
	}
	if utf8.RuneCountInString(email) > model.EmailMaxLen {
		return model.Identity{}, invalid(msgEmailLength)
	}
	if n := utf8.RuneCountInString(username); n < model.UsernameMinLen || n > model.UsernameMaxLen {
		return model.Identity{}, invalid(msgUsernameLength)
	}
	if !utils.ValidPassword(in.Password) {
		return model.Identity{}, invalid(MsgInvalidPassword)
	}

	taken, err := a.users.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return model.Identity{}, err
	}
	if taken {
		return model.Identity{}, ErrTaken
	}

	hash, err := utils.HashPassword(in.Password, a.cost)
	if err != nil {
		return model.Identity{}, err
	}
	u := model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		ProfilePic:   model.DefaultProfilePic,
	}
	if err := a.users.Create(ctx, &u); err != nil {
		// a concurrent signup can win the race past the lookup above
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Identity{}, ErrTaken
		}
		return model.Identity{}, err
	}
	return u.Identity(), nil
}

// Login checks credentials and issues a session token carrying the
// password-free identity.
func (a *Accounts) Login(ctx context.Context, in LoginInput) (Session, error) {
	email := strings.TrimSpace(in.Email)
	username := strings.TrimSpace(in.Username)
	if (email == "" && username == "") || in.Password == "" {
		return Session{}, invalid(MsgLoginMissing)
	}
	if email != "" {
		username = ""
	}
	u, err := a.users.FindByLogin(ctx, email, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return Session{}, ErrInvalidCredentials
	}
	id := u.Identity()
	tok, err := a.issuer.Issue(id)
	if err != nil {
		return Session{}, err
	}
	return Session{User: id, Token: tok}, nil
}

// Logout revokes the token id until its natural expiry.
func (a *Accounts) Logout(ctx context.Context, jti string, exp time.Time) error {
	if a.revocations == nil || jti == "" {
		return nil
	}
	return a.revocations.Revoke(ctx, jti, exp)
}

// Profile loads the current user document with its lists resolved.
// References whose targets are gone are skipped.
func (a *Accounts) Profile(ctx context.Context, id bson.ObjectID) (model.Profile, error) {
	u, err := a.users.GetByID(ctx, id)
	if err != nil {
		return model.Profile{}, notFound(err, ErrUserNotFound)
	}
	reviews, err := a.reviews.ListByIDs(ctx, u.Reviews)
	if err != nil {
		return model.Profile{}, err
	}
	watchlist, err := a.movies.ListByIDs(ctx, u.Watchlist)
	if err != nil {
		return model.Profile{}, err
	}
	favorites, err := a.movies.ListByIDs(ctx, u.Favorites)
	if err != nil {
		return model.Profile{}, err
	}
	return model.Profile{
		Identity:  u.Identity(),
		Reviews:   orderReviews(u.Reviews, reviews),
		Watchlist: orderMovies(u.Watchlist, watchlist),
		Favorites: orderMovies(u.Favorites, favorites),
	}, nil
}

// orderReviews returns found in the order of refs, dropping dangling refs.
func orderReviews(refs []bson.ObjectID, found []model.Review) []model.Review {
	byID := make(map[bson.ObjectID]model.Review, len(found))
	for _, rv := range found {
		byID[rv.ID] = rv
	}
	out := make([]model.Review, 0, len(refs))
	for _, id := range refs {
		if rv, ok := byID[id]; ok {
			out = append(out, rv)
		}
	}
	return out
}

func orderMovies(refs []bson.ObjectID, found []model.Movie) []model.Movie {
	byID := make(map[bson.ObjectID]model.Movie, len(found))
	for _, m := range found {
		byID[m.ID] = m
	}
	out := make([]model.Movie, 0, len(refs))
	for _, id := range refs {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out
}
