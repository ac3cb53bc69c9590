// Package feature implements the listing feature tag repository.
package feature

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/heartmarshall/estate-backend/internal/adapter/postgres"
)

const table = "listing_features"

// Repo provides feature persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new feature repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// InsertAll stores the features of a listing in slice order. Features must
// already be deduplicated case-insensitively; a repeat violates
// ux_listing_features_feature and yields domain.ErrAlreadyExists.
func (r *Repo) InsertAll(ctx context.Context, listingID uuid.UUID, features []string) error {
	if len(features) == 0 {
		return nil
	}

	q := postgres.QuerierFromCtx(ctx, r.db)

	b := postgres.Builder().
		Insert(table).
		Columns("listing_id", "feature", "position")
	for i, f := range features {
		b = b.Values(listingID, f, int32(i))
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build insert features: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "listing_feature", listingID.String())
	}
	return nil
}

// DeleteByListing removes every feature of a listing.
func (r *Repo) DeleteByListing(ctx context.Context, listingID uuid.UUID) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"listing_id": listingID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete features: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, "listing_feature", listingID.String())
	}
	return tag.RowsAffected(), nil
}

// GetByListing returns the features of a listing in stored order.
// Returns an empty slice (not nil) if there are none.
func (r *Repo) GetByListing(ctx context.Context, listingID uuid.UUID) ([]string, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := postgres.Builder().
		Select("feature").
		From(table).
		Where(squirrel.Eq{"listing_id": listingID}).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select features: %w", err)
	}

	var out []string
	if err := pgxscan.Select(ctx, q, &out, sql, args...); err != nil {
		return nil, postgres.MapError(err, "listing_feature", listingID.String())
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
