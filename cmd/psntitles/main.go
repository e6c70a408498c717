package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gamepile/gamepile-backend/internal/db"
	"github.com/gamepile/gamepile-backend/internal/domain/library"
	"github.com/gamepile/gamepile-backend/internal/logger"
	"github.com/gamepile/gamepile-backend/internal/repos"
)

// Imports the public title_id → official name CSV into the PSN lookup
// table. Expected columns: title_id, concept_id, official_name, region.
func main() {
	file := flag.String("file", "", "path to the titles CSV")
	flag.Parse()
	if *file == "" {
		fmt.Println("usage: psntitles --file <titles.csv>")
		os.Exit(2)
	}

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
	titleRepo := repos.NewPSNTitleRepo(pg.DB(), log)

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal("Could not open CSV", "path", *file, "error", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	ctx := context.Background()
	var batch []*library.PSNTitle
	total := 0
	skipped := 0
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal("CSV read failed", "line", line, "error", err)
		}
		line++
		if line == 1 && strings.EqualFold(record[0], "title_id") {
			continue
		}
		if len(record) < 3 || record[0] == "" || record[2] == "" {
			skipped++
			continue
		}
		title := &library.PSNTitle{
			TitleID:      strings.TrimSpace(record[0]),
			ConceptID:    strings.TrimSpace(record[1]),
			OfficialName: strings.TrimSpace(record[2]),
		}
		if len(record) > 3 {
			title.Region = strings.TrimSpace(record[3])
		}
		batch = append(batch, title)
		if len(batch) >= 1000 {
			if err := titleRepo.BulkUpsert(ctx, nil, batch); err != nil {
				log.Fatal("Bulk upsert failed", "error", err)
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := titleRepo.BulkUpsert(ctx, nil, batch); err != nil {
			log.Fatal("Bulk upsert failed", "error", err)
		}
		total += len(batch)
	}

	count, err := titleRepo.Count(ctx, nil)
	if err != nil {
		log.Warn("Count failed", "error", err)
	}
	log.Info("PSN title import complete", "imported", total, "skipped", skipped, "table_total", count)
}
