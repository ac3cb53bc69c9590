package listing

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/estate-backend/internal/domain"
	"github.com/heartmarshall/estate-backend/internal/service/listing/gallery"
)

// GetBySlug returns the full listing: scalars, images with the primary
// first, and features. Collections are empty slices when the listing has
// none. Outside a transaction the collections are read concurrently over
// separate pool connections; inside one they are read sequentially, since a
// pgx.Tx must not be used from two goroutines.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*domain.Listing, error) {
	row, err := s.listings.GetBySlug(ctx, slug)
	if err != nil {
		return nil, classify("get listing", err)
	}

	if s.tx.InTx(ctx) {
		if err := s.loadCollections(ctx, row); err != nil {
			return nil, classify("get listing", err)
		}
		return row, nil
	}

	var (
		images   []domain.ImageRef
		features []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		images, err = s.images.GetByListing(gctx, row.ID)
		if err != nil {
			return fmt.Errorf("get images: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		features, err = s.features.GetByListing(gctx, row.ID)
		if err != nil {
			return fmt.Errorf("get features: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, classify("get listing", err)
	}

	attach(row, images, features)
	return row, nil
}

// List returns one page of listing summaries, newest first.
func (s *Service) List(ctx context.Context, filter domain.ListingFilter) ([]domain.ListingSummary, error) {
	out, err := s.listings.List(ctx, filter.Normalized())
	if err != nil {
		return nil, classify("list listings", err)
	}
	if out == nil {
		out = []domain.ListingSummary{}
	}
	return out, nil
}

// Count returns how many listings match filter.
func (s *Service) Count(ctx context.Context, filter domain.ListingFilter) (int, error) {
	n, err := s.listings.Count(ctx, filter)
	if err != nil {
		return 0, classify("count listings", err)
	}
	return n, nil
}

// loadCollections reads images and features sequentially on the
// transaction carried by ctx.
func (s *Service) loadCollections(ctx context.Context, row *domain.Listing) error {
	images, err := s.images.GetByListing(ctx, row.ID)
	if err != nil {
		return fmt.Errorf("get images: %w", err)
	}
	features, err := s.features.GetByListing(ctx, row.ID)
	if err != nil {
		return fmt.Errorf("get features: %w", err)
	}
	attach(row, images, features)
	return nil
}

// attach normalizes the stored image order through the gallery so that the
// primary image is first even for rows written before the ordering rule.
func attach(row *domain.Listing, images []domain.ImageRef, features []string) {
	row.Images = gallery.New(images...).Images()
	row.Features = nonNilStrings(features)
}
