// Package listingimage implements the listing image collection repository.
// A listing's images are always written as a whole: delete all, then insert
// the new sequence with positions 0..n-1.
package listingimage

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/heartmarshall/estate-backend/internal/adapter/postgres"
	"github.com/heartmarshall/estate-backend/internal/domain"
)

const table = "listing_images"

// Repo provides image persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new image repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type imageRow struct {
	URL       string  `db:"url"`
	Alt       *string `db:"alt"`
	IsPrimary bool    `db:"is_primary"`
	Position  int32   `db:"position"`
}

// InsertAll stores images for a listing in slice order with one multi-row
// INSERT. Position i is written for images[i]. The caller passes a sequence
// whose first element is primary; the table check rejects anything else.
func (r *Repo) InsertAll(ctx context.Context, listingID uuid.UUID, images []domain.ImageRef) error {
	if len(images) == 0 {
		return nil
	}

	q := postgres.QuerierFromCtx(ctx, r.db)

	b := postgres.Builder().
		Insert(table).
		Columns("listing_id", "url", "alt", "is_primary", "position")
	for i, img := range images {
		b = b.Values(listingID, img.URL, img.Alt, img.IsPrimary, int32(i))
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build insert images: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "listing_image", listingID.String())
	}
	return nil
}

// DeleteByListing removes every image of a listing and returns how many
// rows were deleted.
func (r *Repo) DeleteByListing(ctx context.Context, listingID uuid.UUID) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"listing_id": listingID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete images: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, "listing_image", listingID.String())
	}
	return tag.RowsAffected(), nil
}

// GetByListing returns the images of a listing, primary first, then by
// stored position. Returns an empty slice (not nil) if there are none.
func (r *Repo) GetByListing(ctx context.Context, listingID uuid.UUID) ([]domain.ImageRef, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := postgres.Builder().
		Select("url", "alt", "is_primary", "position").
		From(table).
		Where(squirrel.Eq{"listing_id": listingID}).
		OrderBy("is_primary DESC", "position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select images: %w", err)
	}

	var rows []imageRow
	if err := pgxscan.Select(ctx, q, &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, "listing_image", listingID.String())
	}

	out := make([]domain.ImageRef, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ImageRef{URL: row.URL, Alt: row.Alt, IsPrimary: row.IsPrimary})
	}
	return out, nil
}
