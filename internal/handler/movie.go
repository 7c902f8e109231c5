package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinereview/internal/model"
	"github.com/iliyamo/cinereview/internal/service"
	"github.com/iliyamo/cinereview/internal/storage"
)

// MovieHandler serves the catalog endpoints under /movie.
type MovieHandler struct {
	base
	Catalog *service.Catalog
	Images  storage.ImageStore
}

// NewMovieHandler wires the catalog endpoints.  images may be nil, which
// disables uploads.
func NewMovieHandler(cat *service.Catalog, images storage.ImageStore, log logrus.FieldLogger, timeout time.Duration) *MovieHandler {
	return &MovieHandler{base: newBase(log, timeout), Catalog: cat, Images: images}
}

type movieRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	ReleaseYear int      `json:"releaseYear" validate:"required,gt=0"`
	Genre       []string `json:"genre"`
	Cast        []string `json:"cast"`
	PosterImg   string   `json:"posterImg" validate:"required"`
	BackdropImg string   `json:"backdropImg"`
	Rating      *float64 `json:"rating"`
	TrailerURL  string   `json:"trailerUrl"`
	Popularity  *float64 `json:"popularity"`
}

func (r movieRequest) movie() model.Movie {
	return model.Movie{
		Title:       r.Title,
		Description: r.Description,
		ReleaseYear: r.ReleaseYear,
		Genre:       r.Genre,
		Cast:        r.Cast,
		PosterImg:   r.PosterImg,
		BackdropImg: r.BackdropImg,
		Rating:      r.Rating,
		TrailerURL:  r.TrailerURL,
		Popularity:  r.Popularity,
	}
}

// All handles GET /movie/all.
func (h *MovieHandler) All(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	movies, err := h.Catalog.List(ctx)
	if err != nil {
		return h.fail(c, "list movies", err)
	}
	return c.JSON(http.StatusOK, movies)
}

// Search handles GET /movie/search?query=.
func (h *MovieHandler) Search(c echo.Context) error {
	ctx, cancel := h.ctx(c)
	defer cancel()

	movies, err := h.Catalog.Search(ctx, c.QueryParam("query"))
	if err != nil {
		return h.fail(c, "search movies", err)
	}
	return c.JSON(http.StatusOK, movies)
}

// Get handles GET /movie/:movieId.
func (h *MovieHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "movieId")
	if !ok {
		return message(c, http.StatusBadRequest, MsgInvalidID)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	m, err := h.Catalog.Get(ctx, id)
	if err != nil {
		return h.fail(c, "get movie", err)
	}
	return c.JSON(http.StatusOK, m)
}

// Create handles POST /movie.
func (h *MovieHandler) Create(c echo.Context) error {
	var req movieRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, "create movie", err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	m, err := h.Catalog.Create(ctx, req.movie())
	if err != nil {
		return h.fail(c, "create movie", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Movie added successfully", "movie": m})
}

// Update handles PUT /movie/:movieId.  Empty and zero fields are ignored.
func (h *MovieHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "movieId")
	if !ok {
		return message(c, http.StatusBadRequest, MsgInvalidID)
	}
	var patch model.MoviePatch
	if err := h.bind(c, &patch); err != nil {
		return h.fail(c, "update movie", err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	m, err := h.Catalog.Update(ctx, id, patch)
	if err != nil {
		return h.fail(c, "update movie", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Movie was updated successfully", "updated": m})
}

// Delete handles DELETE /movie/:movieId, removing its reviews and every
// list entry pointing at it.
func (h *MovieHandler) Delete(c echo.Context) error {
	actor, err := h.caller(c)
	if err != nil {
		return h.fail(c, "delete movie", err)
	}
	id, ok := pathID(c, "movieId")
	if !ok {
		return message(c, http.StatusBadRequest, MsgInvalidID)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	m, err := h.Catalog.Delete(ctx, actor, id)
	if err != nil {
		return h.fail(c, "delete movie", err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": m.Title + " movie was deleted successfully",
		"deleted": m,
	})
}
