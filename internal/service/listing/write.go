package listing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/estate-backend/internal/domain"
	"github.com/heartmarshall/estate-backend/internal/service/listing/gallery"
)

// Create stores a new listing with its images and features in one
// transaction. A taken slug yields *domain.ConflictError.
func (s *Service) Create(ctx context.Context, payload domain.ListingPayload) (*domain.Listing, error) {
	if err := checkPayload(payload); err != nil {
		return nil, err
	}

	var created *domain.Listing

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		row, err := s.listings.Create(txCtx, payload.ListingFields)
		if err != nil {
			return fmt.Errorf("insert listing: %w", err)
		}

		if err := s.writeCollections(txCtx, row, payload); err != nil {
			return err
		}

		created = row
		return nil
	})
	if err != nil {
		return nil, classify("create listing", err)
	}

	s.log.InfoContext(ctx, "listing created",
		slog.String("listing_id", created.ID.String()),
		slog.String("slug", created.Slug),
		slog.Int("images", len(created.Images)),
		slog.Int("features", len(created.Features)),
	)

	return created, nil
}

// Replace overwrites the listing identified by slug with payload: scalars
// are updated in place (the slug itself may change) and both collections
// are replaced wholesale. The row stays locked until commit, so concurrent
// edits of the same listing are applied one after the other.
func (s *Service) Replace(ctx context.Context, slug string, payload domain.ListingPayload) (*domain.Listing, error) {
	if err := checkPayload(payload); err != nil {
		return nil, err
	}

	var updated *domain.Listing

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.listings.LockBySlug(txCtx, slug)
		if err != nil {
			return err
		}

		row, err := s.listings.Update(txCtx, current.ID, payload.ListingFields)
		if err != nil {
			return fmt.Errorf("update listing: %w", err)
		}

		if err := s.clearCollections(txCtx, row); err != nil {
			return err
		}
		if err := s.writeCollections(txCtx, row, payload); err != nil {
			return err
		}

		updated = row
		return nil
	})
	if err != nil {
		return nil, classify("replace listing", err)
	}

	s.log.InfoContext(ctx, "listing replaced",
		slog.String("listing_id", updated.ID.String()),
		slog.String("slug", updated.Slug),
		slog.String("previous_slug", slug),
	)

	return updated, nil
}

// Delete removes the listing and everything it owns. A missing listing
// yields domain.ErrNotFound and changes nothing.
func (s *Service) Delete(ctx context.Context, slug string) error {
	var deleted *domain.Listing

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.listings.LockBySlug(txCtx, slug)
		if err != nil {
			return err
		}

		if err := s.clearCollections(txCtx, current); err != nil {
			return err
		}
		if err := s.listings.Delete(txCtx, current.ID); err != nil {
			return fmt.Errorf("delete listing: %w", err)
		}

		deleted = current
		return nil
	})
	if err != nil {
		return classify("delete listing", err)
	}

	s.log.InfoContext(ctx, "listing deleted",
		slog.String("listing_id", deleted.ID.String()),
		slog.String("slug", slug),
	)

	return nil
}

// ---------------------------------------------------------------------------
// Helpers (private)
// ---------------------------------------------------------------------------

// writeCollections inserts payload images and features for row and attaches
// them to it.
func (s *Service) writeCollections(ctx context.Context, row *domain.Listing, payload domain.ListingPayload) error {
	if err := s.images.InsertAll(ctx, row.ID, payload.Images); err != nil {
		return fmt.Errorf("insert images: %w", err)
	}
	if err := s.features.InsertAll(ctx, row.ID, payload.Features); err != nil {
		return fmt.Errorf("insert features: %w", err)
	}

	row.Images = nonNilImages(payload.Images)
	row.Features = nonNilStrings(payload.Features)
	return nil
}

func (s *Service) clearCollections(ctx context.Context, row *domain.Listing) error {
	if _, err := s.images.DeleteByListing(ctx, row.ID); err != nil {
		return fmt.Errorf("delete images: %w", err)
	}
	if _, err := s.features.DeleteByListing(ctx, row.ID); err != nil {
		return fmt.Errorf("delete features: %w", err)
	}
	return nil
}

// checkPayload rejects payloads that were not produced by Draft.Build and
// break the image ordering rule.
func checkPayload(p domain.ListingPayload) error {
	if err := gallery.Check(p.Images); err != nil {
		return domain.NewValidationError("images", err.Error())
	}
	return nil
}

func nonNilImages(in []domain.ImageRef) []domain.ImageRef {
	out := make([]domain.ImageRef, len(in))
	copy(out, in)
	return out
}

func nonNilStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
