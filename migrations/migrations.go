// Package migrations embeds the goose SQL migrations and applies them.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var embedded embed.FS

// FS holds the migration files.
var FS fs.FS = embedded

// NewProvider returns a goose provider over the embedded migrations.
// goose requires *sql.DB, so callers open one with the "pgx" driver.
func NewProvider(db *sql.DB) (*goose.Provider, error) {
	p, err := goose.NewProvider(goose.DialectPostgres, db, FS)
	if err != nil {
		return nil, fmt.Errorf("goose new provider: %w", err)
	}
	return p, nil
}

// Up opens dsn and applies every pending migration.
func Up(ctx context.Context, dsn string, log *slog.Logger) error {
	return withProvider(ctx, dsn, func(p *goose.Provider) error {
		return up(ctx, p, log)
	})
}

// Down rolls back the most recently applied migration.
func Down(ctx context.Context, dsn string, log *slog.Logger) error {
	return withProvider(ctx, dsn, func(p *goose.Provider) error {
		r, err := p.Down(ctx)
		if err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		log.InfoContext(ctx, "migration rolled back",
			slog.Int64("version", r.Source.Version),
			slog.String("file", r.Source.Path),
			slog.Duration("duration", r.Duration),
		)
		return nil
	})
}

// Status reports every known migration and whether it is applied.
func Status(ctx context.Context, dsn string) ([]*goose.MigrationStatus, error) {
	var out []*goose.MigrationStatus
	err := withProvider(ctx, dsn, func(p *goose.Provider) error {
		var err error
		out, err = p.Status(ctx)
		if err != nil {
			return fmt.Errorf("goose status: %w", err)
		}
		return nil
	})
	return out, err
}

func withProvider(ctx context.Context, dsn string, fn func(p *goose.Provider) error) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("sql.Open: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}

	p, err := NewProvider(db)
	if err != nil {
		return err
	}
	return fn(p)
}

func up(ctx context.Context, p *goose.Provider, log *slog.Logger) error {
	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	for _, r := range results {
		log.InfoContext(ctx, "migration applied",
			slog.Int64("version", r.Source.Version),
			slog.String("file", r.Source.Path),
			slog.Duration("duration", r.Duration),
		)
	}
	return nil
}
