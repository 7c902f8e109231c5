package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinereview/internal/handler"
)

// RegisterReview registers review writes under /review.  Each one changes
// a populated movie view, so successful writes purge the cache.
func RegisterReview(e *echo.Echo, g guards, r *handler.ReviewHandler) {
	grp := e.Group("/review", g.auth, g.limit, g.cache.PurgeOnSuccess())
	grp.POST("/:movieId", r.Create)
	grp.PUT("/:reviewId", r.Update)
	grp.DELETE("/:reviewId", r.Delete)
}
