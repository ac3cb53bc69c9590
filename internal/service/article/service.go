// Package article stores and serves blog articles. Each write is one
// transaction; the slug is the public key.
package article

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/estate-backend/internal/domain"
)

type articleRepo interface {
	Create(ctx context.Context, f domain.ArticleFields) (*domain.Article, error)
	Update(ctx context.Context, id uuid.UUID, f domain.ArticleFields) (*domain.Article, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetBySlug(ctx context.Context, slug string) (*domain.Article, error)
	LockBySlug(ctx context.Context, slug string) (*domain.Article, error)
	List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements article persistence and retrieval.
type Service struct {
	log      *slog.Logger
	articles articleRepo
	tx       txManager
}

// NewService creates a new article service.
func NewService(logger *slog.Logger, articles articleRepo, tx txManager) *Service {
	return &Service{
		log:      logger.With("service", "article"),
		articles: articles,
		tx:       tx,
	}
}

// Create stores a new article. A taken slug yields *domain.ConflictError.
func (s *Service) Create(ctx context.Context, f domain.ArticleFields) (*domain.Article, error) {
	var created *domain.Article

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		row, err := s.articles.Create(txCtx, f)
		if err != nil {
			return fmt.Errorf("insert article: %w", err)
		}
		created = row
		return nil
	})
	if err != nil {
		return nil, classify("create article", err)
	}

	s.log.InfoContext(ctx, "article created",
		slog.String("article_id", created.ID.String()),
		slog.String("slug", created.Slug),
		slog.String("status", created.Status.String()),
	)
	return created, nil
}

// Replace overwrites the article identified by slug. The slug itself may
// change.
func (s *Service) Replace(ctx context.Context, slug string, f domain.ArticleFields) (*domain.Article, error) {
	var updated *domain.Article

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.articles.LockBySlug(txCtx, slug)
		if err != nil {
			return err
		}
		row, err := s.articles.Update(txCtx, current.ID, f)
		if err != nil {
			return fmt.Errorf("update article: %w", err)
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, classify("replace article", err)
	}

	s.log.InfoContext(ctx, "article replaced",
		slog.String("article_id", updated.ID.String()),
		slog.String("slug", updated.Slug),
		slog.String("previous_slug", slug),
	)
	return updated, nil
}

// Delete removes the article. A missing article yields domain.ErrNotFound.
func (s *Service) Delete(ctx context.Context, slug string) error {
	var deleted *domain.Article

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.articles.LockBySlug(txCtx, slug)
		if err != nil {
			return err
		}
		if err := s.articles.Delete(txCtx, current.ID); err != nil {
			return fmt.Errorf("delete article: %w", err)
		}
		deleted = current
		return nil
	})
	if err != nil {
		return classify("delete article", err)
	}

	s.log.InfoContext(ctx, "article deleted",
		slog.String("article_id", deleted.ID.String()),
		slog.String("slug", slug),
	)
	return nil
}

// GetBySlug returns one article.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*domain.Article, error) {
	a, err := s.articles.GetBySlug(ctx, slug)
	if err != nil {
		return nil, classify("get article", err)
	}
	return a, nil
}

// List returns one page of articles, newest first.
func (s *Service) List(ctx context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	out, err := s.articles.List(ctx, filter.Normalized())
	if err != nil {
		return nil, classify("list articles", err)
	}
	if out == nil {
		out = []domain.Article{}
	}
	return out, nil
}

// classify keeps validation, not found and conflict errors and wraps
// anything else once as a persistence failure.
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
