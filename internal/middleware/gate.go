package middleware // package middleware holds the request gates and the shared echo middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Gate inspects a request and either returns the context to continue with
// (possibly carrying more values, such as the caller's identity) or an
// error that ends the request.  A *GateError picks the status and message;
// any other error is reported as 500.
type Gate func(ctx context.Context, r *http.Request) (context.Context, error)

// GateError is a terminal gate response.
type GateError struct {
	Status  int
	Message string
}

func (e *GateError) Error() string { return e.Message }

func deny(status int, msg string) error { return &GateError{Status: status, Message: msg} }

// Chain runs gates in order as one echo middleware.  Each gate sees the
// context produced by the one before it; the first error short-circuits
// with a {"message"} body and the handler never runs.  Errors that are not
// a *GateError are logged to log.
func Chain(log logrus.FieldLogger, gates ...Gate) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := req.Context()
			for _, g := range gates {
				var err error
				ctx, err = g(ctx, req)
				if err != nil {
					var ge *GateError
					if errors.As(err, &ge) {
						return c.JSON(ge.Status, echo.Map{"message": ge.Message})
					}
					log.WithError(err).WithField("uri", req.RequestURI).Error("gate failed")
					return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Internal server error"})
				}
				req = req.WithContext(ctx)
			}
			c.SetRequest(req)
			return next(c)
		}
	}
}
