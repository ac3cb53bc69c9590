package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/heartmarshall/estate-backend/internal/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func fields() domain.ListingFields {
	return domain.ListingFields{
		Slug:   "villa-del-mar",
		Title:  "Villa Del Mar",
		Region: domain.RegionPaphos,
		Type:   domain.PropertyTypeVilla,
		Price:  950000,
		Status: domain.ListingStatusDraft,
	}
}

func TestRepo_Delete_Mock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr error
	}{
		{
			name: "deleted",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM listings WHERE id = \$1`).
					WithArgs(pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
			},
		},
		{
			name: "no row",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM listings`).
					WithArgs(pgxmock.AnyArg()).
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "context canceled passes through",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM listings`).
					WithArgs(pgxmock.AnyArg()).
					WillReturnError(context.Canceled)
			},
			wantErr: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock := newMock(t)
			tt.setup(mock)

			err := New(mock).Delete(context.Background(), uuid.New())

			if tt.wantErr == nil && err != nil {
				t.Fatalf("Delete() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Delete() error = %v, want %v", err, tt.wantErr)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestRepo_Create_DuplicateSlug_Mock(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO listings`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "listings_slug_key"})

	_, err := New(mock).Create(context.Background(), fields())
	var ce *domain.ConflictError
	if !errors.As(err, &ce) || ce.Field != "slug" {
		t.Fatalf("Create() error = %v, want slug ConflictError", err)
	}
}

func TestRepo_Create_OtherUniqueViolation_Mock(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO listings`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "listings_pkey"})

	_, err := New(mock).Create(context.Background(), fields())
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("Create() error = %v, want ErrAlreadyExists", err)
	}
	if errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Create() error = %v, must not be reported as a slug conflict", err)
	}
}

func TestRepo_GetBySlug_NotFound_Mock(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	mock.ExpectQuery(`SELECT .* FROM listings WHERE slug = \$1$`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := New(mock).GetBySlug(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetBySlug() error = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepo_LockBySlug_UsesForUpdate_Mock(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	mock.ExpectQuery(`SELECT .* FROM listings WHERE slug = \$1 FOR UPDATE`).
		WithArgs("villa-del-mar").
		WillReturnError(pgx.ErrNoRows)

	_, err := New(mock).LockBySlug(context.Background(), "villa-del-mar")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("LockBySlug() error = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRepo_Count_Mock(t *testing.T) {
	t.Parallel()

	villa := domain.PropertyTypeVilla
	minPrice := int64(100000)
	mock := newMock(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM listings WHERE type = \$1 AND price >= \$2`).
		WithArgs("villa", minPrice).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))

	n, err := New(mock).Count(context.Background(), domain.ListingFilter{Type: &villa, MinPrice: &minPrice})
	if err != nil {
		t.Fatalf("Count() unexpected error: %v", err)
	}
	if n != 7 {
		t.Errorf("Count() = %d, want 7", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
