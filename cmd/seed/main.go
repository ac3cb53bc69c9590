// Command seed loads a dataset of listings into the database through the
// listing service, so every record is validated and ordered like an API
// submission. Without --data it loads the built-in demo listings.
//
// Flags:
//
//	--data           path to a YAML dataset
//	--replace        overwrite listings whose slug already exists
//	--dry-run        validate the dataset without writing to DB
//	--seeder-config  path to seeder YAML config file
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/estate-backend/internal/adapter/postgres"
	"github.com/heartmarshall/estate-backend/internal/app"
	"github.com/heartmarshall/estate-backend/internal/app/seeder"
	"github.com/heartmarshall/estate-backend/internal/config"
)

func main() {
	dataFlag := flag.String("data", "", "path to a YAML dataset (default: built-in demo set)")
	replaceFlag := flag.Bool("replace", false, "overwrite listings whose slug already exists")
	dryRunFlag := flag.Bool("dry-run", false, "validate the dataset without writing to DB")
	seederConfigFlag := flag.String("seeder-config", "", "path to seeder YAML config file")
	flag.Parse()

	appCfg, err := config.Load()
	if err != nil {
		log.Fatalf("load app config: %v", err)
	}

	logger := app.NewLogger(appCfg.Log)

	seederCfg, err := seeder.LoadConfig(*seederConfigFlag)
	if err != nil {
		logger.Error("load seeder config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// CLI flags override config.
	if *dataFlag != "" {
		seederCfg.DataPath = *dataFlag
	}
	if *replaceFlag {
		seederCfg.Replace = true
	}
	if *dryRunFlag {
		seederCfg.DryRun = true
	}

	drafts, err := seeder.LoadDataset(seederCfg.DataPath)
	if err != nil {
		logger.Error("load dataset", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, appCfg.Database, logger)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	pipeline := seeder.NewPipeline(logger, app.NewListingService(pool, appCfg.Listing, logger), *seederCfg)
	if err := pipeline.Run(ctx, drafts); err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if pipeline.HasErrors() {
		logger.Warn("seeding completed with errors")
		os.Exit(1)
	}
}
