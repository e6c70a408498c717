package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gamepile/gamepile-backend/internal/clients/igdb"
	"github.com/gamepile/gamepile-backend/internal/db"
	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/repos"
	"github.com/gamepile/gamepile-backend/internal/services"
)

func main() {
	tier := flag.String("tier", "released", "scan tier: released or anticipated")
	limit := flag.Int("limit", 0, "max records to process, 0 for unbounded")
	reset := flag.Bool("reset", false, "discard saved progress and start over")
	progressPath := flag.String("progress", "", "progress file path override")
	flag.Parse()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}

	client, err := igdb.NewClient(log)
	if err != nil {
		log.Fatal("IGDB client init failed", "error", err)
	}

	gameRepo := repos.NewGameRepo(pg.DB(), log)
	populate := services.NewPopulateService(pg.DB(), client, gameRepo, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress, err := populate.Run(ctx, services.PopulateOptions{
		Tier:         *tier,
		Limit:        *limit,
		Reset:        *reset,
		ProgressPath: *progressPath,
	})
	if err != nil {
		log.Error("Populate run stopped", "error", err,
			"offset", progress.Offset, "stored", progress.TotalStored)
		os.Exit(1)
	}
	log.Info("Populate run finished",
		"offset", progress.Offset,
		"stored", progress.TotalStored,
		"updated", progress.TotalUpdated,
		"filtered", progress.TotalFiltered)
}
