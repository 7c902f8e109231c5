package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cinereview/internal/handler"
)

// UploadBodyLimit caps image upload requests at the transport level, a
// little above handler.MaxImageBytes to leave room for the form framing.
const UploadBodyLimit = "6M"

// RegisterMovie registers the catalog under /movie.  Public reads go
// through the response cache; admin writes purge it.
func RegisterMovie(e *echo.Echo, g guards, m *handler.MovieHandler) {
	r := e.Group("/movie")
	serve := g.cache.Serve()
	purge := g.cache.PurgeOnSuccess()

	r.GET("/all", m.All, g.limit, serve)
	r.GET("/search", m.Search, g.limit, serve)
	r.GET("/:movieId", m.Get, g.limit, serve)

	r.POST("", m.Create, g.admin, g.limit, purge)
	r.PUT("/:movieId", m.Update, g.admin, g.limit, purge)
	r.DELETE("/:movieId", m.Delete, g.admin, g.limit, purge)
	// the whole multipart body is parsed before the handler's size check
	r.POST("/:movieId/image", m.UploadImage, echomw.BodyLimit(UploadBodyLimit), g.admin, g.limit, purge)
}
