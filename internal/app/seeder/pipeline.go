package seeder

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/heartmarshall/estate-backend/internal/domain"
	"github.com/heartmarshall/estate-backend/internal/service/listing"
)

type listingWriter interface {
	Create(ctx context.Context, payload domain.ListingPayload) (*domain.Listing, error)
	Replace(ctx context.Context, slug string, payload domain.ListingPayload) (*domain.Listing, error)
	Limits() listing.Limits
}

// Result holds the outcome of a pipeline run.
type Result struct {
	Inserted int
	Updated  int
	Skipped  int
	Errors   int
	Duration time.Duration
}

// Pipeline writes a dataset of listing drafts through the listing service.
// Each listing is its own unit of work; one failure does not stop the run.
type Pipeline struct {
	log    *slog.Logger
	svc    listingWriter
	cfg    Config
	result Result
}

// NewPipeline creates a new Pipeline.
func NewPipeline(log *slog.Logger, svc listingWriter, cfg Config) *Pipeline {
	return &Pipeline{log: log, svc: svc, cfg: cfg}
}

// Result returns the counters collected by the last Run.
func (p *Pipeline) Result() Result { return p.result }

// HasErrors returns true if any listing failed.
func (p *Pipeline) HasErrors() bool { return p.result.Errors > 0 }

// Run seeds every draft. It returns early only when ctx is done.
func (p *Pipeline) Run(ctx context.Context, drafts []listing.Draft) error {
	start := time.Now()
	p.result = Result{}
	limits := p.svc.Limits()

	for i, d := range drafts {
		if err := ctx.Err(); err != nil {
			p.result.Duration = time.Since(start)
			return err
		}

		payload, err := d.Build(limits)
		if err != nil {
			p.result.Errors++
			p.log.Warn("invalid listing", slog.Int("index", i), slog.String("slug", d.Slug), slog.String("error", err.Error()))
			continue
		}
		log := p.log.With(slog.String("slug", payload.Slug))

		if p.cfg.DryRun {
			p.result.Skipped++
			continue
		}

		_, err = p.svc.Create(ctx, payload)
		var ce *domain.ConflictError
		switch {
		case err == nil:
			p.result.Inserted++
		case errors.As(err, &ce) && p.cfg.Replace:
			if _, err := p.svc.Replace(ctx, payload.Slug, payload); err != nil {
				p.result.Errors++
				log.Error("replace listing failed", slog.String("error", err.Error()))
				continue
			}
			p.result.Updated++
		case errors.As(err, &ce):
			p.result.Skipped++
			log.Debug("listing exists, skipped")
		default:
			p.result.Errors++
			log.Error("create listing failed", slog.String("error", err.Error()))
		}
	}

	p.result.Duration = time.Since(start)
	p.log.Info("seeding completed",
		slog.Int("total", len(drafts)),
		slog.Int("inserted", p.result.Inserted),
		slog.Int("updated", p.result.Updated),
		slog.Int("skipped", p.result.Skipped),
		slog.Int("errors", p.result.Errors),
		slog.Duration("duration", p.result.Duration),
	)
	return nil
}
