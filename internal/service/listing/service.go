// Package listing persists and assembles listing records: one scalar row
// plus its ordered image sequence and its feature tags, written and read as
// a single unit.
package listing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/estate-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type listingRepo interface {
	Create(ctx context.Context, f domain.ListingFields) (*domain.Listing, error)
	Update(ctx context.Context, id uuid.UUID, f domain.ListingFields) (*domain.Listing, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetBySlug(ctx context.Context, slug string) (*domain.Listing, error)
	LockBySlug(ctx context.Context, slug string) (*domain.Listing, error)
	List(ctx context.Context, filter domain.ListingFilter) ([]domain.ListingSummary, error)
	Count(ctx context.Context, filter domain.ListingFilter) (int, error)
}

type imageRepo interface {
	InsertAll(ctx context.Context, listingID uuid.UUID, images []domain.ImageRef) error
	DeleteByListing(ctx context.Context, listingID uuid.UUID) (int64, error)
	GetByListing(ctx context.Context, listingID uuid.UUID) ([]domain.ImageRef, error)
}

type featureRepo interface {
	InsertAll(ctx context.Context, listingID uuid.UUID, features []string) error
	DeleteByListing(ctx context.Context, listingID uuid.UUID) (int64, error)
	GetByListing(ctx context.Context, listingID uuid.UUID) ([]string, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	InTx(ctx context.Context) bool
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements listing persistence and retrieval.
type Service struct {
	log      *slog.Logger
	listings listingRepo
	images   imageRepo
	features featureRepo
	tx       txManager
	limits   Limits
}

// NewService creates a new listing service.
func NewService(
	logger *slog.Logger,
	listings listingRepo,
	images imageRepo,
	features featureRepo,
	tx txManager,
	limits Limits,
) *Service {
	return &Service{
		log:      logger.With("service", "listing"),
		listings: listings,
		images:   images,
		features: features,
		tx:       tx,
		limits:   limits.orDefault(),
	}
}

// Limits returns the collection limits the service validates against.
func (s *Service) Limits() Limits { return s.limits }

// ---------------------------------------------------------------------------
// Error classification
// ---------------------------------------------------------------------------

// classify maps an error escaping a unit of work to the error taxonomy:
// validation, not found and conflict errors keep their meaning, everything
// else is wrapped once as a persistence failure. Only the listing repository
// reports slug conflicts; any other unique violation means the payload
// check let through a duplicate and is a persistence failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		pe *domain.PersistenceError
		ce *domain.ConflictError
	)
	switch {
	case errors.As(err, &pe), errors.As(err, &ce):
		return err
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound):
		return err
	default:
		return domain.NewPersistenceError(op, err)
	}
}
