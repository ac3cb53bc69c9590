package article_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/estate-backend/internal/adapter/postgres/article"
	"github.com/heartmarshall/estate-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/estate-backend/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func newFields(status domain.ArticleStatus) domain.ArticleFields {
	return domain.ArticleFields{
		Slug:          "guide-" + uuid.New().String()[:8],
		Title:         "Residency Guide",
		Excerpt:       ptr("What buyers need to know."),
		Content:       "Long form content.",
		Category:      ptr("guides-" + uuid.New().String()[:8]),
		Status:        status,
		FeaturedImage: ptr("https://cdn.example.com/cover.jpg"),
	}
}

func TestRepo_CreateAndGetBySlug(t *testing.T) {
	t.Parallel()
	repo := article.New(testhelper.SetupTestDB(t))
	ctx := context.Background()

	f := newFields(domain.ArticleStatusDraft)
	created, err := repo.Create(ctx, f)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, f, created.ArticleFields)
	assert.Nil(t, created.PublishedAt, "drafts are not published")

	got, err := repo.GetBySlug(ctx, f.Slug)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, f, got.ArticleFields)
}

func TestRepo_Create_DuplicateSlug(t *testing.T) {
	t.Parallel()
	repo := article.New(testhelper.SetupTestDB(t))
	ctx := context.Background()

	f := newFields(domain.ArticleStatusDraft)
	_, err := repo.Create(ctx, f)
	require.NoError(t, err)

	_, err = repo.Create(ctx, f)
	var ce *domain.ConflictError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Equal(t, "slug", ce.Field)
}

func TestRepo_Update_PublishedAt(t *testing.T) {
	t.Parallel()
	repo := article.New(testhelper.SetupTestDB(t))
	ctx := context.Background()

	f := newFields(domain.ArticleStatusDraft)
	created, err := repo.Create(ctx, f)
	require.NoError(t, err)

	f.Status = domain.ArticleStatusPublished
	published, err := repo.Update(ctx, created.ID, f)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)

	f.Title = "Residency Guide, Revised"
	edited, err := repo.Update(ctx, created.ID, f)
	require.NoError(t, err)
	require.NotNil(t, edited.PublishedAt)
	assert.True(t, published.PublishedAt.Equal(*edited.PublishedAt), "editing keeps the publication time")

	f.Status = domain.ArticleStatusDraft
	unpublished, err := repo.Update(ctx, created.ID, f)
	require.NoError(t, err)
	assert.Nil(t, unpublished.PublishedAt)
}

func TestRepo_List_ByCategoryAndStatus(t *testing.T) {
	t.Parallel()
	repo := article.New(testhelper.SetupTestDB(t))
	ctx := context.Background()

	draft := newFields(domain.ArticleStatusDraft)
	pub := newFields(domain.ArticleStatusPublished)
	pub.Category = draft.Category
	_, err := repo.Create(ctx, draft)
	require.NoError(t, err)
	_, err = repo.Create(ctx, pub)
	require.NoError(t, err)

	status := domain.ArticleStatusPublished
	got, err := repo.List(ctx, domain.ArticleFilter{Status: &status, Category: draft.Category})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pub.Slug, got[0].Slug)
	assert.NotNil(t, got[0].PublishedAt)

	all, err := repo.List(ctx, domain.ArticleFilter{Category: draft.Category})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRepo_Delete(t *testing.T) {
	t.Parallel()
	repo := article.New(testhelper.SetupTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, newFields(domain.ArticleStatusDraft))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), domain.ErrNotFound)
}
