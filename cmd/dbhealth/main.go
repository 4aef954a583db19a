package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/joseph-ayodele/capture-tracker/internal/common"
	repo "github.com/joseph-ayodele/capture-tracker/internal/repository"
)

func main() {
	cfg, err := common.LoadConfigFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := repo.Open(ctx, repo.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, nil)
	if err != nil {
		log.Fatalf("opening DB: %v", err)
	}
	defer repo.Close(db, nil)

	if err := repo.HealthCheck(ctx, db, 1*time.Second, nil); err != nil {
		log.Fatalf("DB health: FAIL (%v)", err)
	}
	log.Printf("DB health: OK (%s)", db.Dialect)

	if err := repo.Migrate(ctx, db); err != nil {
		log.Fatalf("migrating: %v", err)
	}

	n, err := repo.NewContentRepository(db, nil).Count(ctx)
	if err != nil {
		log.Fatalf("counting content: %v", err)
	}
	log.Printf("content items: %d", n)
}
