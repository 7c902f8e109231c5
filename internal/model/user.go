package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DefaultProfilePic is assigned to users who sign up without a picture.
const DefaultProfilePic = "https://static.vecteezy.com/system/resources/thumbnails/009/292/244/small/default-avatar-icon-of-social-media-user-vector.jpg"

// Username and email limits enforced at signup.
const (
	UsernameMinLen = 4
	UsernameMaxLen = 34
	EmailMaxLen    = 42
)

// User is a document in the `users` collection.  Username and email are
// unique across the collection.  The three reference lists are maintained
// by the service layer; the store never cascades on its own.
//
// Fields:
//  ID           – document id.
//  Username     – unique login name, 4–34 characters.
//  Email        – unique email address, at most 42 characters.
//  PasswordHash – bcrypt digest; never serialised to clients.
//  ProfilePic   – avatar URL, defaulted at signup.
//  Reviews      – reviews written by the user.
//  Watchlist    – movies the user wants to watch (set).
//  Favorites    – movies the user marked as favorite (set).
//  IsAdmin      – elevated privilege flag.
type User struct {
	ID           bson.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Username     string          `json:"username" bson:"username"`
	Email        string          `json:"email" bson:"email"`
	PasswordHash string          `json:"-" bson:"password"`
	ProfilePic   string          `json:"profilePic" bson:"profilePic"`
	Reviews      []bson.ObjectID `json:"reviews" bson:"reviews"`
	Watchlist    []bson.ObjectID `json:"watchlist" bson:"watchlist"`
	Favorites    []bson.ObjectID `json:"favorites" bson:"favorites"`
	IsAdmin      bool            `json:"isAdmin" bson:"isAdmin"`
	CreatedAt    time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// UserList names one of the reference lists held on a user document.  The
// value doubles as the BSON field name.
type UserList string

const (
	ListReviews   UserList = "reviews"
	ListWatchlist UserList = "watchlist"
	ListFavorites UserList = "favorites"
)

// Identity is the password-free view of a user embedded in session tokens
// and returned from the auth endpoints.
type Identity struct {
	ID         bson.ObjectID   `json:"_id"`
	Username   string          `json:"username"`
	Email      string          `json:"email"`
	ProfilePic string          `json:"profilePic"`
	Reviews    []bson.ObjectID `json:"reviews"`
	Watchlist  []bson.ObjectID `json:"watchlist"`
	Favorites  []bson.ObjectID `json:"favorites"`
	IsAdmin    bool            `json:"isAdmin"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Identity strips the password hash from u.
func (u User) Identity() Identity {
	return Identity{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		ProfilePic: u.ProfilePic,
		Reviews:    nonNil(u.Reviews),
		Watchlist:  nonNil(u.Watchlist),
		Favorites:  nonNil(u.Favorites),
		IsAdmin:    u.IsAdmin,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

// List returns the reference list named by l.
func (u *User) List(l UserList) *[]bson.ObjectID {
	switch l {
	case ListReviews:
		return &u.Reviews
	case ListWatchlist:
		return &u.Watchlist
	case ListFavorites:
		return &u.Favorites
	}
	return nil
}

// Reviewer is the slice of a user shown next to a populated review.
type Reviewer struct {
	ID         bson.ObjectID `json:"_id"`
	Username   string        `json:"username"`
	ProfilePic string        `json:"profilePic"`
}

// Reviewer returns the public reviewer card of u.
func (u User) Reviewer() Reviewer {
	return Reviewer{ID: u.ID, Username: u.Username, ProfilePic: u.ProfilePic}
}

// Profile is a user with its reference lists resolved.
type Profile struct {
	Identity
	Reviews   []Review `json:"reviews"`
	Watchlist []Movie  `json:"watchlist"`
	Favorites []Movie  `json:"favorites"`
}

// ContainsID reports whether id is present in ids.
func ContainsID(ids []bson.ObjectID, id bson.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func nonNil(ids []bson.ObjectID) []bson.ObjectID {
	if ids == nil {
		return []bson.ObjectID{}
	}
	return ids
}
