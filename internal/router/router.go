package router // package router defines how HTTP routes are registered for the API

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinereview/internal/config"
	"github.com/iliyamo/cinereview/internal/handler"
	"github.com/iliyamo/cinereview/internal/middleware"
	"github.com/iliyamo/cinereview/internal/service"
	"github.com/iliyamo/cinereview/internal/storage"
	"github.com/iliyamo/cinereview/internal/utils"
)

// Deps is everything the HTTP layer needs.  Redis, Events and Images may
// be nil; the features built on them then switch off.
type Deps struct {
	Config      config.Config
	Log         logrus.FieldLogger
	Stores      service.Stores
	Revocations service.RevocationStore
	Tokens      *utils.TokenIssuer
	Events      service.EventPublisher
	Images      storage.ImageStore
	Redis       *redis.Client
}

// guards are the route-level middlewares shared by the Register functions.
type guards struct {
	auth  echo.MiddlewareFunc // Authenticate
	admin echo.MiddlewareFunc // Authenticate then RequireAdmin
	limit echo.MiddlewareFunc
	cache *middleware.ResponseCache
}

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLog(d.Log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: d.Config.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	authGate := middleware.Authenticate(d.Tokens, d.Revocations)
	g := guards{
		auth:  middleware.Chain(d.Log, authGate),
		admin: middleware.Chain(d.Log, authGate, middleware.RequireAdmin()),
		limit: middleware.NewTokenBucket(d.Config.RateLimit, d.Redis, d.Log),
		cache: middleware.NewResponseCache(d.Config.Cache, d.Redis, d.Log),
	}
	timeout := d.Config.Store.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	cost := d.Config.BcryptCost

	RegisterRoutes(e)
	RegisterUser(e, g,
		handler.NewUserHandler(service.NewAccounts(d.Stores, d.Tokens, d.Revocations, cost), d.Log, timeout),
		handler.NewLibraryHandler(service.NewLibrary(d.Stores), d.Log, timeout),
	)
	RegisterMovie(e, g, handler.NewMovieHandler(service.NewCatalog(d.Stores, d.Events, d.Log), d.Images, d.Log, timeout))
	RegisterReview(e, g, handler.NewReviewHandler(service.NewReviews(d.Stores, d.Events, d.Log), d.Log, timeout))
	return e
}

// RegisterRoutes registers routes that need no store, currently the
// health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}
