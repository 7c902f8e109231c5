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

// LibraryHandler serves the watchlist and favorites endpoints.
type LibraryHandler struct {
	base
	Library *service.Library
}

// NewLibraryHandler wires the list endpoints.
func NewLibraryHandler(l *service.Library, log logrus.FieldLogger, timeout time.Duration) *LibraryHandler {
	return &LibraryHandler{base: newBase(log, timeout), Library: l}
}

// Add returns the POST handler that puts :movieId on list.
func (h *LibraryHandler) Add(list model.UserList) echo.HandlerFunc {
	op := "add to " + string(list)
	return func(c echo.Context) error {
		id, err := h.caller(c)
		if err != nil {
			return h.fail(c, op, err)
		}
		movieID, ok := pathID(c, "movieId")
		if !ok {
			return message(c, http.StatusBadRequest, MsgInvalidID)
		}
		ctx, cancel := h.ctx(c)
		defer cancel()

		ids, err := h.Library.Add(ctx, id.ID, list, movieID)
		if errors.Is(err, service.ErrAlreadyPresent) {
			return message(c, http.StatusConflict, "Movie already in "+string(list))
		}
		if err != nil {
			return h.fail(c, op, err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"message":    "Movie added to " + string(list),
			string(list): ids,
		})
	}
}

// Remove returns the DELETE handler that takes :movieId off list.
func (h *LibraryHandler) Remove(list model.UserList) echo.HandlerFunc {
	op := "remove from " + string(list)
	return func(c echo.Context) error {
		id, err := h.caller(c)
		if err != nil {
			return h.fail(c, op, err)
		}
		movieID, ok := pathID(c, "movieId")
		if !ok {
			return message(c, http.StatusBadRequest, MsgInvalidID)
		}
		ctx, cancel := h.ctx(c)
		defer cancel()

		ids, err := h.Library.Remove(ctx, id.ID, list, movieID)
		if err != nil {
			return h.fail(c, op, err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"message":    "Movie removed from " + string(list),
			string(list): ids,
		})
	}
}
