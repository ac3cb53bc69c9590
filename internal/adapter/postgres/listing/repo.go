// Package listing implements the listing scalar-row repository using PostgreSQL.
// Image and feature collections live in their own repositories; rows here
// are returned with empty collections.
package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/heartmarshall/estate-backend/internal/adapter/postgres"
	"github.com/heartmarshall/estate-backend/internal/domain"
)

const (
	table          = "listings"
	slugConstraint = "listings_slug_key"
)

var columns = []string{
	"id", "slug", "title", "description", "location", "region", "type", "price",
	"bedrooms", "bathrooms", "area", "status", "featured", "created_at", "updated_at",
}

var returning = "RETURNING " + strings.Join(columns, ", ")

// Repo provides listing persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new listing repository. db is used whenever the context
// carries no transaction.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

// ---------------------------------------------------------------------------
// Scan types
// ---------------------------------------------------------------------------

type listingRow struct {
	ID          uuid.UUID `db:"id"`
	Slug        string    `db:"slug"`
	Title       string    `db:"title"`
	Description *string   `db:"description"`
	Location    *string   `db:"location"`
	Region      string    `db:"region"`
	Type        string    `db:"type"`
	Price       int64     `db:"price"`
	Bedrooms    *int32    `db:"bedrooms"`
	Bathrooms   *int32    `db:"bathrooms"`
	Area        *int32    `db:"area"`
	Status      string    `db:"status"`
	Featured    bool      `db:"featured"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type summaryRow struct {
	ID           uuid.UUID `db:"id"`
	Slug         string    `db:"slug"`
	Title        string    `db:"title"`
	Location     *string   `db:"location"`
	Region       string    `db:"region"`
	Type         string    `db:"type"`
	Price        int64     `db:"price"`
	Bedrooms     *int32    `db:"bedrooms"`
	Bathrooms    *int32    `db:"bathrooms"`
	Area         *int32    `db:"area"`
	Status       string    `db:"status"`
	Featured     bool      `db:"featured"`
	PrimaryImage *string   `db:"primary_image"`
	CreatedAt    time.Time `db:"created_at"`
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a listing row with a freshly generated id and returns it.
// A duplicate slug yields *domain.ConflictError.
func (r *Repo) Create(ctx context.Context, f domain.ListingFields) (*domain.Listing, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns("id", "slug", "title", "description", "location", "region", "type", "price",
			"bedrooms", "bathrooms", "area", "status", "featured").
		Values(uuid.New(), f.Slug, f.Title, f.Description, f.Location, string(f.Region), string(f.Type), f.Price,
			toInt32(f.Bedrooms), toInt32(f.Bathrooms), toInt32(f.Area), string(f.Status), f.Featured).
		Suffix(returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert listing: %w", err)
	}

	var row listingRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		return nil, mapWriteError(err, f.Slug)
	}

	return toDomain(row), nil
}

// Update overwrites every scalar column of the listing with the given id.
// The slug may change; a collision yields *domain.ConflictError.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, f domain.ListingFields) (*domain.Listing, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := postgres.Builder().
		Update(table).
		SetMap(map[string]any{
			"slug":        f.Slug,
			"title":       f.Title,
			"description": f.Description,
			"location":    f.Location,
			"region":      string(f.Region),
			"type":        string(f.Type),
			"price":       f.Price,
			"bedrooms":    toInt32(f.Bedrooms),
			"bathrooms":   toInt32(f.Bathrooms),
			"area":        toInt32(f.Area),
			"status":      string(f.Status),
			"featured":    f.Featured,
		}).
		Where(squirrel.Eq{"id": id}).
		Suffix(returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update listing: %w", err)
	}

	var row listingRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		return nil, mapWriteError(err, f.Slug)
	}

	return toDomain(row), nil
}

// Delete removes the listing row. Collections are removed by the caller
// (and by ON DELETE CASCADE). Returns domain.ErrNotFound if no row matched.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete listing: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "listing", id.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listing %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetBySlug returns the listing row with the given slug.
func (r *Repo) GetBySlug(ctx context.Context, slug string) (*domain.Listing, error) {
	return r.getBySlug(ctx, slug, "")
}

// LockBySlug returns the listing row and holds a FOR UPDATE lock on it until
// the surrounding transaction ends. Must be called inside RunInTx.
func (r *Repo) LockBySlug(ctx context.Context, slug string) (*domain.Listing, error) {
	return r.getBySlug(ctx, slug, "FOR UPDATE")
}

func (r *Repo) getBySlug(ctx context.Context, slug, suffix string) (*domain.Listing, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	b := postgres.Builder().
		Select(columns...).
		From(table).
		Where(squirrel.Eq{"slug": slug})
	if suffix != "" {
		b = b.Suffix(suffix)
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select listing: %w", err)
	}

	var row listingRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, "listing", slug)
	}

	return toDomain(row), nil
}

// List returns listing summaries matching filter, newest first.
// The filter is expected to be normalized. Returns an empty slice (not nil)
// when nothing matches.
func (r *Repo) List(ctx context.Context, filter domain.ListingFilter) ([]domain.ListingSummary, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	b := postgres.Builder().
		Select(
			"l.id", "l.slug", "l.title", "l.location", "l.region", "l.type", "l.price",
			"l.bedrooms", "l.bathrooms", "l.area", "l.status", "l.featured",
			"li.url AS primary_image", "l.created_at",
		).
		From(table + " l").
		LeftJoin("listing_images li ON li.listing_id = l.id AND li.position = 0").
		OrderBy("l.created_at DESC", "l.id")
	b = applyFilter(b, filter, "l.")

	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		b = b.Offset(uint64(filter.Offset))
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list listings: %w", err)
	}

	var rows []summaryRow
	if err := pgxscan.Select(ctx, q, &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, "listing", "list")
	}

	out := make([]domain.ListingSummary, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSummary(row))
	}
	return out, nil
}

// Count returns the number of listings matching filter. Limit and Offset are ignored.
func (r *Repo) Count(ctx context.Context, filter domain.ListingFilter) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	b := postgres.Builder().Select("count(*)").From(table)
	b = applyFilter(b, filter, "")

	sql, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count listings: %w", err)
	}

	var n int
	if err := q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, postgres.MapError(err, "listing", "count")
	}
	return n, nil
}

func applyFilter(b squirrel.SelectBuilder, f domain.ListingFilter, prefix string) squirrel.SelectBuilder {
	if f.Type != nil {
		b = b.Where(squirrel.Eq{prefix + "type": string(*f.Type)})
	}
	if f.Region != nil {
		b = b.Where(squirrel.Eq{prefix + "region": string(*f.Region)})
	}
	if f.Status != nil {
		b = b.Where(squirrel.Eq{prefix + "status": string(*f.Status)})
	}
	if f.MinPrice != nil {
		b = b.Where(squirrel.GtOrEq{prefix + "price": *f.MinPrice})
	}
	if f.MaxPrice != nil {
		b = b.Where(squirrel.LtOrEq{prefix + "price": *f.MaxPrice})
	}
	if f.MinBedrooms != nil {
		b = b.Where(squirrel.GtOrEq{prefix + "bedrooms": *f.MinBedrooms})
	}
	if f.Featured != nil {
		b = b.Where(squirrel.Eq{prefix + "featured": *f.Featured})
	}
	return b
}

// ---------------------------------------------------------------------------
// Mapping helpers
// ---------------------------------------------------------------------------

func toDomain(row listingRow) *domain.Listing {
	return &domain.Listing{
		ID: row.ID,
		ListingFields: domain.ListingFields{
			Slug:        row.Slug,
			Title:       row.Title,
			Description: row.Description,
			Location:    row.Location,
			Region:      domain.Region(row.Region),
			Type:        domain.PropertyType(row.Type),
			Price:       row.Price,
			Bedrooms:    fromInt32(row.Bedrooms),
			Bathrooms:   fromInt32(row.Bathrooms),
			Area:        fromInt32(row.Area),
			Status:      domain.ListingStatus(row.Status),
			Featured:    row.Featured,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
		Images:    []domain.ImageRef{},
		Features:  []string{},
	}
}

func toSummary(row summaryRow) domain.ListingSummary {
	return domain.ListingSummary{
		ID:           row.ID,
		Slug:         row.Slug,
		Title:        row.Title,
		Location:     row.Location,
		Region:       domain.Region(row.Region),
		Type:         domain.PropertyType(row.Type),
		Price:        row.Price,
		Bedrooms:     fromInt32(row.Bedrooms),
		Bathrooms:    fromInt32(row.Bathrooms),
		Area:         fromInt32(row.Area),
		Status:       domain.ListingStatus(row.Status),
		Featured:     row.Featured,
		PrimaryImage: row.PrimaryImage,
		CreatedAt:    row.CreatedAt,
	}
}

func toInt32(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}

func fromInt32(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}

// mapWriteError reports a violation of the slug key as a slug conflict.
// Other unique violations keep domain.ErrAlreadyExists.
func mapWriteError(err error, slug string) error {
	err = postgres.MapError(err, "listing", slug)
	if errors.Is(err, domain.ErrAlreadyExists) && postgres.ConstraintName(err) == slugConstraint {
		return fmt.Errorf("listing %s: %w", slug, domain.NewConflictError("slug", "already in use"))
	}
	return err
}
