// Command server wires the persistence layer to the vocab core and keeps
// the process alive, refreshing the in-process word catalog cache on a
// timer. HTTP routing that exposes the core's operations to callers is an
// explicit external concern and is not built here; this binary owns
// process lifecycle and background maintenance only,
// the shape mirrors a typical bot process's main.go (connect, construct,
// wait for a signal, shut down) generalized from "poll a chat transport"
// to "run scheduled upkeep".
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/vocabhat/internal/clockwork"
	"github.com/example/vocabhat/internal/config"
	"github.com/example/vocabhat/internal/corelog"
	"github.com/example/vocabhat/internal/storage"
	"github.com/example/vocabhat/pkg/vocab"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := corelog.New(cfg)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.Open(ctx, cfg.DB.Driver, cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	catalog, err := storage.NewCatalogStore(ctx, db)
	if err != nil {
		return err
	}
	progress := storage.NewProgressStore(db, cfg.Vocab.EFMax)
	sessions := storage.NewSessionStore(db)
	activities := storage.NewActivityStore(db)

	core := vocab.NewCore(cfg.Vocab, clockwork.Real{}, log, catalog, progress, sessions, activities)

	sched := gocron.NewScheduler(time.UTC)
	if _, err := sched.Every(5).Minutes().Do(func() {
		refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := catalog.Refresh(refreshCtx); err != nil {
			log.Warn("catalog refresh failed", zap.Error(err))
			return
		}
		log.Debug("catalog cache refreshed")
	}); err != nil {
		return err
	}
	sched.StartAsync()
	defer sched.Stop()

	// one-shot readiness smoke test: exercises the full Core wiring
	// (catalog -> progress store -> aggregation) before declaring the
	// process healthy, rather than discovering a bad DSN on first request.
	if _, _, err := core.StatsByUnit(ctx, 0); err != nil {
		log.Warn("startup readiness check failed", zap.Error(err))
	}

	log.Info("server started", zap.String("env", cfg.Env), zap.String("db_driver", cfg.DB.Driver))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	return nil
}
