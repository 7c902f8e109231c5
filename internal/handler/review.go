package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinereview/internal/model"
	"github.com/iliyamo/cinereview/internal/service"
)

// ReviewHandler serves the endpoints under /review.
type ReviewHandler struct {
	base
	Reviews *service.Reviews
}

// NewReviewHandler wires the review endpoints.
func NewReviewHandler(r *service.Reviews, log logrus.FieldLogger, timeout time.Duration) *ReviewHandler {
	return &ReviewHandler{base: newBase(log, timeout), Reviews: r}
}

type reviewRequest struct {
	Title  string   `json:"title" validate:"required"`
	Review string   `json:"review" validate:"required"`
	Rating *float64 `json:"rating" validate:"required,gte=0,lte=10"`
}

// Create handles POST /review/:movieId.
func (h *ReviewHandler) Create(c echo.Context) error {
	actor, err := h.caller(c)
	if err != nil {
		return h.fail(c, "create review", err)
	}
	movieID, ok := pathID(c, "movieId")
	if !ok {
		return message(c, http.StatusBadRequest, MsgInvalidID)
	}
	var req reviewRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, "create review", err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	rv, err := h.Reviews.Create(ctx, actor, movieID, service.ReviewInput{
		Title:  req.Title,
		Review: req.Review,
		Rating: req.Rating,
	})
	if err != nil {
		return h.fail(c, "create review", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Review created succesfully", "createdReview": rv})
}

// Update handles PUT /review/:reviewId.  Empty and zero fields are ignored.
func (h *ReviewHandler) Update(c echo.Context) error {
	actor, err := h.caller(c)
	if err != nil {
		return h.fail(c, "update review", err)
	}
	id, ok := pathID(c, "reviewId")
	if !ok {
		return message(c, http.StatusBadRequest, MsgInvalidID)
	}
	var patch model.ReviewPatch
	if err := h.bind(c, &patch); err != nil {
		return h.fail(c, "update review", err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	updated, err := h.Reviews.Update(ctx, actor, id, patch)
	if errors.Is(err, service.ErrForbidden) {
		return message(c, http.StatusForbidden, "You cannot edit another user's review")
	}
	if err != nil {
		return h.fail(c, "update review", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Review was updated successfully", "updated": updated})
}

// Delete handles DELETE /review/:reviewId for the creator or an admin.
func (h *ReviewHandler) Delete(c echo.Context) error {
	actor, err := h.caller(c)
	if err != nil {
		return h.fail(c, "delete review", err)
	}
	id, ok := pathID(c, "reviewId")
	if !ok {
		return message(c, http.StatusBadRequest, MsgInvalidID)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	err = h.Reviews.Delete(ctx, actor, id)
	if errors.Is(err, service.ErrForbidden) {
		return message(c, http.StatusForbidden, "You cannot delete another user's review")
	}
	if err != nil {
		return h.fail(c, "delete review", err)
	}
	return message(c, http.StatusOK, "Your review has been deleted successfully")
}
