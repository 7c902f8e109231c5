package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/iliyamo/cinereview/internal/middleware"
	"github.com/iliyamo/cinereview/internal/model"
	"github.com/iliyamo/cinereview/internal/repository"
	"github.com/iliyamo/cinereview/internal/service"
)

// Client-facing messages shared by several handlers.
const (
	MsgInternal       = "Internal server error"
	MsgInvalidBody    = "Invalid request body"
	MsgInvalidID      = "invalid id"
	MsgBadCredentials = "Email/Username or password incorrect."
	MsgTaken          = "The email or username you entered is already taken."
	MsgMovieNotFound  = "Movie not found"
	MsgReviewNotFound = "Review not found"
	MsgUserNotFound   = "User not found"
	MsgForbidden      = "You are not allowed to do that"
)

// base carries what every handler needs: a logger and the per-request
// store timeout.
type base struct {
	log     logrus.FieldLogger
	timeout time.Duration
}

func newBase(log logrus.FieldLogger, timeout time.Duration) base {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return base{log: log, timeout: timeout}
}

// ctx bounds the store calls of one request.
func (b base) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), b.timeout)
}

// fail maps err onto a status and a {"message"} body.  Unexpected errors
// are logged with op and answered with a generic 500.
func (b base) fail(c echo.Context, op string, err error) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return message(c, http.StatusBadRequest, ve.Message)
	case errors.Is(err, service.ErrInvalidCredentials):
		return message(c, http.StatusUnauthorized, MsgBadCredentials)
	case errors.Is(err, service.ErrForbidden):
		return message(c, http.StatusForbidden, MsgForbidden)
	case errors.Is(err, service.ErrMovieNotFound):
		return message(c, http.StatusNotFound, MsgMovieNotFound)
	case errors.Is(err, service.ErrReviewNotFound):
		return message(c, http.StatusNotFound, MsgReviewNotFound)
	case errors.Is(err, service.ErrUserNotFound):
		return message(c, http.StatusNotFound, MsgUserNotFound)
	case errors.Is(err, repository.ErrNotFound):
		return message(c, http.StatusNotFound, http.StatusText(http.StatusNotFound))
	case errors.Is(err, service.ErrTaken):
		return message(c, http.StatusConflict, MsgTaken)
	case errors.Is(err, service.ErrAlreadyPresent):
		return message(c, http.StatusConflict, http.StatusText(http.StatusConflict))
	}
	b.log.WithError(err).WithField("op", op).Error("request failed")
	return message(c, http.StatusInternalServerError, MsgInternal)
}

// bind decodes the body into dst and runs the registered validator.
func (b base) bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return &service.ValidationError{Message: MsgInvalidBody}
	}
	return c.Validate(dst)
}

// caller returns the identity attached by the auth gate.  Routes that call
// it always run behind that gate, so a miss is a wiring fault.
func (b base) caller(c echo.Context) (model.Identity, error) {
	id, ok := middleware.IdentityFrom(c.Request().Context())
	if !ok {
		return model.Identity{}, errors.New("no identity on an authenticated route")
	}
	return id, nil
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"message": msg})
}

// pathID parses an ObjectID path parameter.
func pathID(c echo.Context, name string) (bson.ObjectID, bool) {
	id, err := bson.ObjectIDFromHex(c.Param(name))
	return id, err == nil
}
