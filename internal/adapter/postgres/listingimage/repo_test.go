package listingimage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/estate-backend/internal/adapter/postgres/listingimage"
	"github.com/heartmarshall/estate-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/estate-backend/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestRepo_InsertAllAndGet(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := listingimage.New(pool)
	ctx := context.Background()

	l := testhelper.SeedListing(t, pool)
	images := []domain.ImageRef{
		{URL: "https://cdn.example.com/front.jpg", Alt: ptr("Front"), IsPrimary: true},
		{URL: "https://cdn.example.com/pool.jpg"},
		{URL: "https://cdn.example.com/view.jpg", Alt: ptr("View")},
	}

	require.NoError(t, repo.InsertAll(ctx, l.ID, images))

	got, err := repo.GetByListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, images, got)
}

func TestRepo_InsertAll_Empty(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// No expectations: an empty sequence must not touch the database.
	require.NoError(t, listingimage.New(mock).InsertAll(context.Background(), uuid.New(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_InsertAll_PrimaryNotFirstRejected(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := listingimage.New(pool)

	l := testhelper.SeedListing(t, pool)
	err := repo.InsertAll(context.Background(), l.ID, []domain.ImageRef{
		{URL: "https://cdn.example.com/a.jpg"},
		{URL: "https://cdn.example.com/b.jpg", IsPrimary: true},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestRepo_InsertAll_UnknownListing(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := listingimage.New(pool)

	err := repo.InsertAll(context.Background(), uuid.New(), []domain.ImageRef{{URL: "x", IsPrimary: true}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepo_InsertAll_Mock(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectExec(`INSERT INTO listing_images \(listing_id,url,alt,is_primary,position\) VALUES \(\$1,\$2,\$3,\$4,\$5\),\(\$6,\$7,\$8,\$9,\$10\)`).
		WithArgs(id, "a", pgxmock.AnyArg(), true, int32(0), id, "b", pgxmock.AnyArg(), false, int32(1)).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	err = listingimage.New(mock).InsertAll(context.Background(), id, []domain.ImageRef{
		{URL: "a", IsPrimary: true},
		{URL: "b"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_InsertAll_MockError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO listing_images`).
		WillReturnError(&pgconn.PgError{Code: "23514"})

	err = listingimage.New(mock).InsertAll(context.Background(), uuid.New(), []domain.ImageRef{{URL: "a", IsPrimary: true}})
	assert.True(t, errors.Is(err, domain.ErrValidation), "got %v", err)
}

func TestRepo_DeleteByListing(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := listingimage.New(pool)
	ctx := context.Background()

	l := testhelper.SeedListing(t, pool)
	testhelper.SeedImages(t, pool, l.ID, "https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg")

	n, err := repo.DeleteByListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := repo.GetByListing(ctx, l.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	n, err = repo.DeleteByListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRepo_GetByListing_OrdersPrimaryFirst(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := listingimage.New(pool)
	ctx := context.Background()

	l := testhelper.SeedListing(t, pool)
	testhelper.SeedImages(t, pool, l.ID, "https://cdn.example.com/p.jpg", "https://cdn.example.com/q.jpg", "https://cdn.example.com/r.jpg")

	got, err := repo.GetByListing(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "https://cdn.example.com/p.jpg", got[0].URL)
	assert.True(t, got[0].IsPrimary)
	assert.Equal(t, "https://cdn.example.com/q.jpg", got[1].URL)
	assert.Equal(t, "https://cdn.example.com/r.jpg", got[2].URL)
}
