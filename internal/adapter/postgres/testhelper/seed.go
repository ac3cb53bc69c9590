package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/estate-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedListing inserts an active villa with a unique slug, no images and no
// features. Returns the filled domain.Listing.
func SeedListing(t *testing.T, pool *pgxpool.Pool) domain.Listing {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	l := domain.Listing{
		ID: uuid.New(),
		ListingFields: domain.ListingFields{
			Slug:   "seed-villa-" + suffix,
			Title:  "Seed Villa " + suffix,
			Region: domain.RegionLimassol,
			Type:   domain.PropertyTypeVilla,
			Price:  450000,
			Status: domain.ListingStatusActive,
		},
		CreatedAt: now,
		UpdatedAt: now,
		Images:    []domain.ImageRef{},
		Features:  []string{},
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO listings (id, slug, title, region, type, price, status, featured, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		l.ID, l.Slug, l.Title, string(l.Region), string(l.Type), l.Price, string(l.Status), l.Featured, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedListing insert listing: %v", err)
	}

	return l
}

// SeedImages attaches urls to a listing in the given order; the first is primary.
func SeedImages(t *testing.T, pool *pgxpool.Pool, listingID uuid.UUID, urls ...string) []domain.ImageRef {
	t.Helper()
	ctx := context.Background()

	out := make([]domain.ImageRef, 0, len(urls))
	for i, u := range urls {
		_, err := pool.Exec(ctx,
			`INSERT INTO listing_images (listing_id, url, is_primary, position) VALUES ($1, $2, $3, $4)`,
			listingID, u, i == 0, i,
		)
		if err != nil {
			t.Fatalf("testhelper: SeedImages insert %s: %v", u, err)
		}
		out = append(out, domain.ImageRef{URL: u, IsPrimary: i == 0})
	}
	return out
}

// SeedFeatures attaches feature tags to a listing in the given order.
func SeedFeatures(t *testing.T, pool *pgxpool.Pool, listingID uuid.UUID, features ...string) {
	t.Helper()
	ctx := context.Background()

	for i, f := range features {
		_, err := pool.Exec(ctx,
			`INSERT INTO listing_features (listing_id, feature, position) VALUES ($1, $2, $3)`,
			listingID, f, i,
		)
		if err != nil {
			t.Fatalf("testhelper: SeedFeatures insert %s: %v", f, err)
		}
	}
}

// CountRows returns the number of rows in table referencing listingID.
// table must be one of listing_images, listing_features.
func CountRows(t *testing.T, pool *pgxpool.Pool, table string, listingID uuid.UUID) int {
	t.Helper()

	var n int
	err := pool.QueryRow(context.Background(),
		`SELECT count(*) FROM `+table+` WHERE listing_id = $1`, listingID,
	).Scan(&n)
	if err != nil {
		t.Fatalf("testhelper: CountRows %s: %v", table, err)
	}
	return n
}
