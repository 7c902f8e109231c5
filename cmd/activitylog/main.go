// Command activitylog drains the catalog activity queue into a log file.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinereview/internal/config"
	"github.com/iliyamo/cinereview/internal/logger"
	"github.com/iliyamo/cinereview/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := logger.New(cfg.LogLevel, cfg.IsProd(), os.Stdout)
	if cfg.Events.URL == "" {
		log.Fatal("RABBITMQ_URL is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.Consumer{
		URL:     cfg.Events.URL,
		Queue:   cfg.Events.Queue,
		LogPath: cfg.Events.LogPath,
		Log:     log,
	}
	log.WithFields(logrus.Fields{"queue": cfg.Events.Queue, "file": cfg.Events.LogPath}).Info("consuming activity")
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("consumer")
	}
}
