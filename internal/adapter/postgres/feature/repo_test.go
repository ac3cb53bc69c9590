package feature_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/estate-backend/internal/adapter/postgres/feature"
	"github.com/heartmarshall/estate-backend/internal/adapter/postgres/testhelper"
	"github.com/heartmarshall/estate-backend/internal/domain"
)

func TestRepo_InsertAllAndGet(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := feature.New(pool)
	ctx := context.Background()

	l := testhelper.SeedListing(t, pool)
	want := []string{"Sea view", "Private pool", "Garage"}

	require.NoError(t, repo.InsertAll(ctx, l.ID, want))

	got, err := repo.GetByListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRepo_InsertAll_CaseInsensitiveDuplicate(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := feature.New(pool)

	l := testhelper.SeedListing(t, pool)
	err := repo.InsertAll(context.Background(), l.ID, []string{"Pool", "pool"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestRepo_GetByListing_Empty(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := feature.New(pool)

	l := testhelper.SeedListing(t, pool)
	got, err := repo.GetByListing(context.Background(), l.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRepo_DeleteByListing(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := feature.New(pool)
	ctx := context.Background()

	l := testhelper.SeedListing(t, pool)
	testhelper.SeedFeatures(t, pool, l.ID, "A", "B", "C")

	n, err := repo.DeleteByListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, 0, testhelper.CountRows(t, pool, "listing_features", l.ID))
}

func TestRepo_Mock(t *testing.T) {
	t.Parallel()

	t.Run("insert", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := uuid.New()
		mock.ExpectExec(`INSERT INTO listing_features \(listing_id,feature,position\) VALUES \(\$1,\$2,\$3\)`).
			WithArgs(id, "Pool", int32(0)).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, feature.New(mock).InsertAll(context.Background(), id, []string{"Pool"}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := uuid.New()
		mock.ExpectExec(`DELETE FROM listing_features WHERE listing_id = \$1`).
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 4))

		n, err := feature.New(mock).DeleteByListing(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty insert is a no-op", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		require.NoError(t, feature.New(mock).InsertAll(context.Background(), uuid.New(), []string{}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
