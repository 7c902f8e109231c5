package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinereview/internal/handler"
	"github.com/iliyamo/cinereview/internal/model"
)

// RegisterUser registers account and list endpoints under /user.  The
// limiter runs after the gates so authenticated callers are keyed by id.
func RegisterUser(e *echo.Echo, g guards, u *handler.UserHandler, l *handler.LibraryHandler) {
	r := e.Group("/user")
	r.POST("/signup", u.Signup, g.limit)
	r.POST("/login", u.Login, g.limit)

	r.GET("/verify", u.Verify, g.auth, g.limit)
	r.GET("/admin", u.Admin, g.admin, g.limit)
	r.GET("/profile", u.Profile, g.auth, g.limit)
	r.POST("/logout", u.Logout, g.auth, g.limit)

	r.POST("/watchlist/:movieId", l.Add(model.ListWatchlist), g.auth, g.limit)
	r.DELETE("/watchlist/:movieId", l.Remove(model.ListWatchlist), g.auth, g.limit)
	r.POST("/favorites/:movieId", l.Add(model.ListFavorites), g.auth, g.limit)
	r.DELETE("/favorites/:movieId", l.Remove(model.ListFavorites), g.auth, g.limit)
}
