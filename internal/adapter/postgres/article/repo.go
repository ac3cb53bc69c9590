// Package article implements the blog article repository using PostgreSQL.
package article

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
	table          = "articles"
	slugConstraint = "articles_slug_key"
)

var columns = []string{
	"id", "slug", "title", "excerpt", "content", "category", "status", "featured",
	"featured_image", "published_at", "created_at", "updated_at",
}

var returning = "RETURNING " + strings.Join(columns, ", ")

// Repo provides article persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new article repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

type articleRow struct {
	ID            uuid.UUID  `db:"id"`
	Slug          string     `db:"slug"`
	Title         string     `db:"title"`
	Excerpt       *string    `db:"excerpt"`
	Content       string     `db:"content"`
	Category      *string    `db:"category"`
	Status        string     `db:"status"`
	Featured      bool       `db:"featured"`
	FeaturedImage *string    `db:"featured_image"`
	PublishedAt   *time.Time `db:"published_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// Create inserts an article. A published article gets published_at = now().
// A duplicate slug yields *domain.ConflictError.
func (r *Repo) Create(ctx context.Context, f domain.ArticleFields) (*domain.Article, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var publishedAt any
	if f.Status == domain.ArticleStatusPublished {
		publishedAt = squirrel.Expr("now()")
	}

	sql, args, err := postgres.Builder().
		Insert(table).
		Columns("id", "slug", "title", "excerpt", "content", "category", "status", "featured",
			"featured_image", "published_at").
		Values(uuid.New(), f.Slug, f.Title, f.Excerpt, f.Content, f.Category, string(f.Status), f.Featured,
			f.FeaturedImage, publishedAt).
		Suffix(returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert article: %w", err)
	}

	var row articleRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		return nil, mapWriteError(err, f.Slug)
	}
	return toDomain(row), nil
}

// Update overwrites the article with the given id. published_at is kept
// across edits of a published article, set on first publication and cleared
// when the article goes back to draft.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, f domain.ArticleFields) (*domain.Article, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := postgres.Builder().
		Update(table).
		SetMap(map[string]any{
			"slug":           f.Slug,
			"title":          f.Title,
			"excerpt":        f.Excerpt,
			"content":        f.Content,
			"category":       f.Category,
			"status":         string(f.Status),
			"featured":       f.Featured,
			"featured_image": f.FeaturedImage,
			"published_at": squirrel.Expr("CASE WHEN ? THEN COALESCE(published_at, now()) END",
				f.Status == domain.ArticleStatusPublished),
		}).
		Where(squirrel.Eq{"id": id}).
		Suffix(returning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update article: %w", err)
	}

	var row articleRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		return nil, mapWriteError(err, f.Slug)
	}
	return toDomain(row), nil
}

// Delete removes the article. Returns domain.ErrNotFound if no row matched.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.db)

	sql, args, err := postgres.Builder().
		Delete(table).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete article: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "article", id.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("article %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// GetBySlug returns the article with the given slug.
func (r *Repo) GetBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	return r.getBySlug(ctx, slug, "")
}

// LockBySlug returns the article and holds a FOR UPDATE lock on it until
// the surrounding transaction ends.
func (r *Repo) LockBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	return r.getBySlug(ctx, slug, "FOR UPDATE")
}

func (r *Repo) getBySlug(ctx context.Context, slug, suffix string) (*domain.Article, error) {
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
		return nil, fmt.Errorf("build select article: %w", err)
	}

	var row articleRow
	if err := pgxscan.Get(ctx, q, &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, "article", slug)
	}
	return toDomain(row), nil
}

// List returns articles matching filter, newest first. Returns an empty
// slice when nothing matches.
func (r *Repo) List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	b := postgres.Builder().
		Select(columns...).
		From(table).
		OrderBy("created_at DESC", "id")
	if filter.Status != nil {
		b = b.Where(squirrel.Eq{"status": string(*filter.Status)})
	}
	if filter.Category != nil {
		b = b.Where(squirrel.Eq{"category": *filter.Category})
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		b = b.Offset(uint64(filter.Offset))
	}

	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list articles: %w", err)
	}

	var rows []articleRow
	if err := pgxscan.Select(ctx, q, &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, "article", "list")
	}

	out := make([]domain.Article, 0, len(rows))
	for _, row := range rows {
		out = append(out, *toDomain(row))
	}
	return out, nil
}

func toDomain(row articleRow) *domain.Article {
	return &domain.Article{
		ID: row.ID,
		ArticleFields: domain.ArticleFields{
			Slug:          row.Slug,
			Title:         row.Title,
			Excerpt:       row.Excerpt,
			Content:       row.Content,
			Category:      row.Category,
			Status:        domain.ArticleStatus(row.Status),
			Featured:      row.Featured,
			FeaturedImage: row.FeaturedImage,
		},
		PublishedAt: row.PublishedAt,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

// mapWriteError reports a violation of the slug key as a slug conflict.
func mapWriteError(err error, slug string) error {
	err = postgres.MapError(err, "article", slug)
	if errors.Is(err, domain.ErrAlreadyExists) && postgres.ConstraintName(err) == slugConstraint {
		return fmt.Errorf("article %s: %w", slug, domain.NewConflictError("slug", "already in use"))
	}
	return err
}
