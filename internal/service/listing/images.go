package listing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/estate-backend/internal/domain"
	"github.com/heartmarshall/estate-backend/internal/service/listing/gallery"
)

// EditImages runs edit against the listing's current image sequence and
// stores the result, all under the listing's row lock. Scalars and features
// are left untouched. An error from edit aborts without changes; a
// gallery.ErrIndexOutOfRange is reported as a validation error.
func (s *Service) EditImages(ctx context.Context, slug string, edit func(g *gallery.Gallery) error) (*domain.Listing, error) {
	var (
		updated *domain.Listing
		before  int
	)

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		row, err := s.listings.LockBySlug(txCtx, slug)
		if err != nil {
			return err
		}
		if err := s.loadCollections(txCtx, row); err != nil {
			return err
		}
		before = len(row.Images)

		g := gallery.New(row.Images...)
		if err := edit(g); err != nil {
			if errors.Is(err, gallery.ErrIndexOutOfRange) {
				return domain.NewValidationError("index", err.Error())
			}
			return err
		}
		if g.Len() > s.limits.MaxImages {
			return domain.NewValidationError("images", fmt.Sprintf("too many (max %d)", s.limits.MaxImages))
		}

		if _, err := s.images.DeleteByListing(txCtx, row.ID); err != nil {
			return fmt.Errorf("delete images: %w", err)
		}
		row.Images = g.Images()
		if err := s.images.InsertAll(txCtx, row.ID, row.Images); err != nil {
			return fmt.Errorf("insert images: %w", err)
		}

		updated = row
		return nil
	})
	if err != nil {
		return nil, classify("edit listing images", err)
	}

	s.log.InfoContext(ctx, "listing images edited",
		slog.String("listing_id", updated.ID.String()),
		slog.String("slug", slug),
		slog.Int("images_before", before),
		slog.Int("images_after", len(updated.Images)),
	)

	return updated, nil
}

// AppendImages adds images to the end of the listing's gallery. Empty and
// already present urls are skipped.
func (s *Service) AppendImages(ctx context.Context, slug string, images []domain.ImageRef) (*domain.Listing, error) {
	normalized, errs := normalizeImages(images, s.limits.MaxImages)
	if len(errs) > 0 {
		return nil, domain.NewValidationErrors(errs)
	}
	return s.EditImages(ctx, slug, func(g *gallery.Gallery) error {
		g.Append(normalized...)
		return nil
	})
}

// RemoveImage drops the image with url. Removing the primary promotes the next.
func (s *Service) RemoveImage(ctx context.Context, slug, url string) (*domain.Listing, error) {
	return s.EditImages(ctx, slug, func(g *gallery.Gallery) error {
		if !g.Contains(url) {
			return fmt.Errorf("image %q: %w", url, domain.ErrNotFound)
		}
		g.Remove(url)
		return nil
	})
}

// ReorderImages moves the image at from to position to.
func (s *Service) ReorderImages(ctx context.Context, slug string, from, to int) (*domain.Listing, error) {
	return s.EditImages(ctx, slug, func(g *gallery.Gallery) error {
		return g.Reorder(from, to)
	})
}

// SetPrimaryImage moves the image with url to the front.
func (s *Service) SetPrimaryImage(ctx context.Context, slug, url string) (*domain.Listing, error) {
	return s.EditImages(ctx, slug, func(g *gallery.Gallery) error {
		if !g.Contains(url) {
			return fmt.Errorf("image %q: %w", url, domain.ErrNotFound)
		}
		g.SetPrimary(url)
		return nil
	})
}
