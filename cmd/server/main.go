package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinereview/internal/config"
	"github.com/iliyamo/cinereview/internal/database"
	"github.com/iliyamo/cinereview/internal/logger"
	"github.com/iliyamo/cinereview/internal/queue"
	"github.com/iliyamo/cinereview/internal/repository"
	"github.com/iliyamo/cinereview/internal/repository/memory"
	"github.com/iliyamo/cinereview/internal/router"
	"github.com/iliyamo/cinereview/internal/service"
	"github.com/iliyamo/cinereview/internal/storage"
	"github.com/iliyamo/cinereview/internal/utils"
)

func main() {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := logger.New(cfg.LogLevel, cfg.IsProd(), os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closeStore, err := openStores(ctx, cfg.Store, log)
	if err != nil {
		log.WithError(err).Fatal("store")
	}
	defer closeStore()

	rdb := config.NewRedisClient(cfg.Redis) // nil when Redis is unreachable
	var revocations service.RevocationStore = memory.NewRevocations()
	if rdb != nil {
		defer rdb.Close()
		revocations = repository.NewTokenRepo(rdb)
	} else {
		log.Warn("redis unavailable: cache and rate limit disabled, revocations kept in memory")
	}

	var events service.EventPublisher = queue.NopPublisher{}
	if cfg.Events.URL != "" {
		pub := queue.NewPublisher(cfg.Events.URL, cfg.Events.Queue, log)
		defer pub.Close()
		events = pub
	}

	var images storage.ImageStore
	if cfg.S3.Endpoint != "" {
		m, err := storage.NewMinioImages(cfg.S3)
		if err != nil {
			log.WithError(err).Fatal("s3 client")
		}
		if err := m.EnsureBucket(ctx); err != nil {
			log.WithError(err).Fatal("s3 bucket")
		}
		images = m
	}

	e := router.New(router.Deps{
		Config:      cfg,
		Log:         log,
		Stores:      stores,
		Revocations: revocations,
		Tokens:      utils.NewTokenIssuer(cfg.TokenSecret),
		Events:      events,
		Images:      images,
		Redis:       rdb,
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "store": cfg.Store.Driver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	log.Info("bye")
}

// openStores builds the store set for the configured driver.  The returned
// func releases whatever the driver holds.
func openStores(ctx context.Context, cfg config.StoreConfig, log logrus.FieldLogger) (service.Stores, func(), error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn("using the in-memory store; data is lost on exit")
		st := memory.New()
		return service.Stores{Users: st.Users(), Movies: st.Movies(), Reviews: st.Reviews(), Tx: st}, func() {}, nil
	}

	client, db, err := database.Open(ctx, cfg.MongoURI, cfg.Database)
	if err != nil {
		return service.Stores{}, nil, err
	}
	closeFn := func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}
	ictx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := database.EnsureIndexes(ictx, db); err != nil {
		closeFn()
		return service.Stores{}, nil, err
	}
	return service.Stores{
		Users:   repository.NewUserRepo(db),
		Movies:  repository.NewMovieRepo(db),
		Reviews: repository.NewReviewRepo(db),
		Tx:      repository.NewTxRunner(client, cfg.Transactions),
	}, closeFn, nil
}
