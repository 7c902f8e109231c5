package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Movie is a document in the `movies` collection.  Titles are not unique.
//
// Fields:
//  Title, Description, ReleaseYear, PosterImg – required at creation.
//  Genre, Cast                                – free-form string lists.
//  BackdropImg, TrailerURL                    – optional URLs.
//  Rating, Popularity                         – optional scores.
//  Reviews                                    – reviews written about the movie.
type Movie struct {
	ID          bson.ObjectID   `json:"_id" bson:"_id,omitempty"`
	Title       string          `json:"title" bson:"title"`
	Description string          `json:"description" bson:"description"`
	ReleaseYear int             `json:"releaseYear" bson:"releaseYear"`
	Genre       []string        `json:"genre" bson:"genre"`
	Cast        []string        `json:"cast" bson:"cast"`
	PosterImg   string          `json:"posterImg" bson:"posterImg"`
	BackdropImg string          `json:"backdropImg,omitempty" bson:"backdropImg,omitempty"`
	Rating      *float64        `json:"rating,omitempty" bson:"rating,omitempty"`
	TrailerURL  string          `json:"trailerUrl,omitempty" bson:"trailerUrl,omitempty"`
	Popularity  *float64        `json:"popularity,omitempty" bson:"popularity,omitempty"`
	Reviews     []bson.ObjectID `json:"reviews" bson:"reviews"`
	CreatedAt   time.Time       `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt" bson:"updatedAt"`
}

// MovieDetail is a movie with its reviews populated.
type MovieDetail struct {
	Movie
	Reviews []ReviewDetail `json:"reviews"`
}

// MoviePatch carries a partial movie update.  Absent, null, blank-string and
// zero-number fields are left untouched; a present list replaces the stored
// one even when empty.
type MoviePatch struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	ReleaseYear *int     `json:"releaseYear"`
	Genre       []string `json:"genre"`
	Cast        []string `json:"cast"`
	PosterImg   *string  `json:"posterImg"`
	BackdropImg *string  `json:"backdropImg"`
	Rating      *float64 `json:"rating"`
	TrailerURL  *string  `json:"trailerUrl"`
	Popularity  *float64 `json:"popularity"`
}

// Fields returns the BSON `$set` body for the patch.
func (p MoviePatch) Fields() bson.M {
	set := bson.M{}
	setString(set, "title", p.Title)
	setString(set, "description", p.Description)
	if p.ReleaseYear != nil && *p.ReleaseYear != 0 {
		set["releaseYear"] = *p.ReleaseYear
	}
	if p.Genre != nil {
		set["genre"] = p.Genre
	}
	if p.Cast != nil {
		set["cast"] = p.Cast
	}
	setString(set, "posterImg", p.PosterImg)
	setString(set, "backdropImg", p.BackdropImg)
	setFloat(set, "rating", p.Rating)
	setString(set, "trailerUrl", p.TrailerURL)
	setFloat(set, "popularity", p.Popularity)
	return set
}

// Apply copies the effective fields of p onto m.
func (p MoviePatch) Apply(m *Movie) {
	f := p.Fields()
	if v, ok := f["title"]; ok {
		m.Title = v.(string)
	}
	if v, ok := f["description"]; ok {
		m.Description = v.(string)
	}
	if v, ok := f["releaseYear"]; ok {
		m.ReleaseYear = v.(int)
	}
	if v, ok := f["genre"]; ok {
		m.Genre = append([]string{}, v.([]string)...)
	}
	if v, ok := f["cast"]; ok {
		m.Cast = append([]string{}, v.([]string)...)
	}
	if v, ok := f["posterImg"]; ok {
		m.PosterImg = v.(string)
	}
	if v, ok := f["backdropImg"]; ok {
		m.BackdropImg = v.(string)
	}
	if v, ok := f["rating"]; ok {
		r := v.(float64)
		m.Rating = &r
	}
	if v, ok := f["trailerUrl"]; ok {
		m.TrailerURL = v.(string)
	}
	if v, ok := f["popularity"]; ok {
		pop := v.(float64)
		m.Popularity = &pop
	}
}

// setString stores the trimmed value; blank strings count as absent.
func setString(set bson.M, key string, v *string) {
	if v == nil {
		return
	}
	if t := strings.TrimSpace(*v); t != "" {
		set[key] = t
	}
}

func setFloat(set bson.M, key string, v *float64) {
	if v != nil && *v != 0 {
		set[key] = *v
	}
}
