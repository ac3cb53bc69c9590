// Command migrate applies, rolls back or lists the embedded database
// migrations against DATABASE_DSN.
//
// Flags:
//
//	--command  up | down | status (default: up)
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/estate-backend/internal/app"
	"github.com/heartmarshall/estate-backend/internal/config"
	"github.com/heartmarshall/estate-backend/migrations"
)

func main() {
	command := flag.String("command", "up", "up, down or status")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *command {
	case "up":
		err = migrations.Up(ctx, cfg.Database.DSN, logger)
	case "down":
		err = migrations.Down(ctx, cfg.Database.DSN, logger)
	case "status":
		err = printStatus(ctx, cfg.Database.DSN)
	default:
		err = fmt.Errorf("unknown command %q", *command)
	}
	if err != nil {
		logger.Error("migrate failed", slog.String("command", *command), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func printStatus(ctx context.Context, dsn string) error {
	statuses, err := migrations.Status(ctx, dsn)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		applied := "pending"
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.Format(time.RFC3339)
		}
		fmt.Printf("%-6d %-8s %-25s %s\n", s.Source.Version, s.State, applied, s.Source.Path)
	}
	return nil
}
