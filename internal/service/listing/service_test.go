package listing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/estate-backend/internal/domain"
	"github.com/heartmarshall/estate-backend/internal/service/listing/gallery"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockListingRepo struct {
	createFunc     func(ctx context.Context, f domain.ListingFields) (*domain.Listing, error)
	updateFunc     func(ctx context.Context, id uuid.UUID, f domain.ListingFields) (*domain.Listing, error)
	deleteFunc     func(ctx context.Context, id uuid.UUID) error
	getBySlugFunc  func(ctx context.Context, slug string) (*domain.Listing, error)
	lockBySlugFunc func(ctx context.Context, slug string) (*domain.Listing, error)
	listFunc       func(ctx context.Context, filter domain.ListingFilter) ([]domain.ListingSummary, error)
	countFunc      func(ctx context.Context, filter domain.ListingFilter) (int, error)
}

func (m *mockListingRepo) Create(ctx context.Context, f domain.ListingFields) (*domain.Listing, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, f)
	}
	return &domain.Listing{ID: uuid.New(), ListingFields: f}, nil
}

func (m *mockListingRepo) Update(ctx context.Context, id uuid.UUID, f domain.ListingFields) (*domain.Listing, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, f)
	}
	return &domain.Listing{ID: id, ListingFields: f}, nil
}

func (m *mockListingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockListingRepo) GetBySlug(ctx context.Context, slug string) (*domain.Listing, error) {
	if m.getBySlugFunc != nil {
		return m.getBySlugFunc(ctx, slug)
	}
	return nil, domain.ErrNotFound
}

func (m *mockListingRepo) LockBySlug(ctx context.Context, slug string) (*domain.Listing, error) {
	if m.lockBySlugFunc != nil {
		return m.lockBySlugFunc(ctx, slug)
	}
	return nil, domain.ErrNotFound
}

func (m *mockListingRepo) List(ctx context.Context, filter domain.ListingFilter) ([]domain.ListingSummary, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockListingRepo) Count(ctx context.Context, filter domain.ListingFilter) (int, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, filter)
	}
	return 0, nil
}

type mockImageRepo struct {
	mu       sync.Mutex
	inserted [][]domain.ImageRef
	deleted  int

	insertAllFunc func(ctx context.Context, id uuid.UUID, images []domain.ImageRef) error
	deleteFunc    func(ctx context.Context, id uuid.UUID) (int64, error)
	getFunc       func(ctx context.Context, id uuid.UUID) ([]domain.ImageRef, error)
}

func (m *mockImageRepo) InsertAll(ctx context.Context, id uuid.UUID, images []domain.ImageRef) error {
	m.mu.Lock()
	m.inserted = append(m.inserted, images)
	m.mu.Unlock()
	if m.insertAllFunc != nil {
		return m.insertAllFunc(ctx, id, images)
	}
	return nil
}

func (m *mockImageRepo) DeleteByListing(ctx context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	m.deleted++
	m.mu.Unlock()
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return 0, nil
}

func (m *mockImageRepo) GetByListing(ctx context.Context, id uuid.UUID) ([]domain.ImageRef, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return []domain.ImageRef{}, nil
}

type mockFeatureRepo struct {
	mu       sync.Mutex
	inserted [][]string
	deleted  int

	insertAllFunc func(ctx context.Context, id uuid.UUID, features []string) error
	getFunc       func(ctx context.Context, id uuid.UUID) ([]string, error)
}

func (m *mockFeatureRepo) InsertAll(ctx context.Context, id uuid.UUID, features []string) error {
	m.mu.Lock()
	m.inserted = append(m.inserted, features)
	m.mu.Unlock()
	if m.insertAllFunc != nil {
		return m.insertAllFunc(ctx, id, features)
	}
	return nil
}

func (m *mockFeatureRepo) DeleteByListing(ctx context.Context, id uuid.UUID) (int64, error) {
	m.mu.Lock()
	m.deleted++
	m.mu.Unlock()
	return 0, nil
}

func (m *mockFeatureRepo) GetByListing(ctx context.Context, id uuid.UUID) ([]string, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return []string{}, nil
}

type mockTxManager struct {
	calls int
}

type mockTxKey struct{}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(context.WithValue(ctx, mockTxKey{}, true))
}

func (m *mockTxManager) InTx(ctx context.Context) bool {
	in, _ := ctx.Value(mockTxKey{}).(bool)
	return in
}

type fixture struct {
	listings *mockListingRepo
	images   *mockImageRepo
	features *mockFeatureRepo
	tx       *mockTxManager
}

func newFixture() *fixture {
	return &fixture{
		listings: &mockListingRepo{},
		images:   &mockImageRepo{},
		features: &mockFeatureRepo{},
		tx:       &mockTxManager{},
	}
}

func (f *fixture) service() *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(logger, f.listings, f.images, f.features, f.tx, Limits{MaxImages: 3, MaxFeatures: 10})
}

func payload(t *testing.T) domain.ListingPayload {
	t.Helper()
	p, err := validDraft().Build(DefaultLimits)
	require.NoError(t, err)
	return p
}

func stored(slug string) *domain.Listing {
	return &domain.Listing{
		ID: uuid.New(),
		ListingFields: domain.ListingFields{
			Slug: slug, Title: "Stored", Region: domain.RegionLimassol,
			Type: domain.PropertyTypeApartment, Price: 1, Status: domain.ListingStatusDraft,
		},
		Images:   []domain.ImageRef{},
		Features: []string{},
	}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestService_Create_HappyPath(t *testing.T) {
	t.Parallel()

	f := newFixture()
	p := payload(t)

	got, err := f.service().Create(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 1, f.tx.calls)
	assert.Equal(t, p.ListingFields, got.ListingFields)
	assert.Equal(t, p.Images, got.Images)
	assert.Equal(t, p.Features, got.Features)
	require.Len(t, f.images.inserted, 1)
	assert.Equal(t, p.Images, f.images.inserted[0])
	require.Len(t, f.features.inserted, 1)
	assert.Equal(t, p.Features, f.features.inserted[0])
}

func TestService_Create_DuplicateSlug(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.listings.createFunc = func(context.Context, domain.ListingFields) (*domain.Listing, error) {
		return nil, domain.NewConflictError("slug", "already in use")
	}

	_, err := f.service().Create(context.Background(), payload(t))

	var ce *domain.ConflictError
	require.True(t, errors.As(err, &ce), "expected ConflictError, got %v", err)
	assert.Equal(t, "slug", ce.Field)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, f.images.inserted, "no collection writes after the row insert failed")
}

func TestService_Create_CollectionFailureIsPersistenceError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection reset")
	f := newFixture()
	f.features.insertAllFunc = func(context.Context, uuid.UUID, []string) error { return cause }

	_, err := f.service().Create(context.Background(), payload(t))

	var pe *domain.PersistenceError
	require.True(t, errors.As(err, &pe), "expected PersistenceError, got %v", err)
	assert.Equal(t, "create listing", pe.Op)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, cause)
}

func TestService_Create_FeatureUniqueViolationIsNotSlugConflict(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.features.insertAllFunc = func(context.Context, uuid.UUID, []string) error {
		return fmt.Errorf("feature x: %w", domain.ErrAlreadyExists)
	}

	_, err := f.service().Create(context.Background(), payload(t))

	var ce *domain.ConflictError
	assert.False(t, errors.As(err, &ce), "feature violation reported as conflict: %v", err)
	assert.NotErrorIs(t, err, domain.ErrConflict)
	var pe *domain.PersistenceError
	require.True(t, errors.As(err, &pe), "expected PersistenceError, got %v", err)
	assert.Equal(t, "create listing", pe.Op)
}

func TestService_Create_ContextCanceledIsPersistenceError(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.listings.createFunc = func(context.Context, domain.ListingFields) (*domain.Listing, error) {
		return nil, context.Canceled
	}

	_, err := f.service().Create(context.Background(), payload(t))
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_Create_RejectsBrokenImageOrder(t *testing.T) {
	t.Parallel()

	f := newFixture()
	p := payload(t)
	p.Images = []domain.ImageRef{{URL: "a"}, {URL: "b", IsPrimary: true}}

	_, err := f.service().Create(context.Background(), p)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, f.tx.calls)
}

// ---------------------------------------------------------------------------
// Replace
// ---------------------------------------------------------------------------

func TestService_Replace_HappyPath(t *testing.T) {
	t.Parallel()

	f := newFixture()
	current := stored("old-slug")
	var order []string
	f.listings.lockBySlugFunc = func(_ context.Context, slug string) (*domain.Listing, error) {
		order = append(order, "lock:"+slug)
		return current, nil
	}
	f.listings.updateFunc = func(_ context.Context, id uuid.UUID, fields domain.ListingFields) (*domain.Listing, error) {
		order = append(order, "update")
		assert.Equal(t, current.ID, id)
		return &domain.Listing{ID: id, ListingFields: fields}, nil
	}
	f.images.deleteFunc = func(context.Context, uuid.UUID) (int64, error) {
		order = append(order, "delete images")
		return 2, nil
	}
	f.images.insertAllFunc = func(context.Context, uuid.UUID, []domain.ImageRef) error {
		order = append(order, "insert images")
		return nil
	}

	p := payload(t)
	got, err := f.service().Replace(context.Background(), "old-slug", p)
	require.NoError(t, err)

	assert.Equal(t, []string{"lock:old-slug", "update", "delete images", "insert images"}, order)
	assert.Equal(t, current.ID, got.ID)
	assert.Equal(t, "villa-del-mar", got.Slug)
	assert.Equal(t, p.Images, got.Images)
	assert.Equal(t, p.Features, got.Features)
	assert.Equal(t, 1, f.features.deleted)
}

func TestService_Replace_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture()
	updated := false
	f.listings.updateFunc = func(context.Context, uuid.UUID, domain.ListingFields) (*domain.Listing, error) {
		updated = true
		return nil, nil
	}

	_, err := f.service().Replace(context.Background(), "missing", payload(t))
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, updated)
	assert.Zero(t, f.images.deleted)
}

func TestService_Replace_SlugCollision(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.listings.lockBySlugFunc = func(context.Context, string) (*domain.Listing, error) { return stored("a"), nil }
	f.listings.updateFunc = func(context.Context, uuid.UUID, domain.ListingFields) (*domain.Listing, error) {
		return nil, fmt.Errorf("listing b: %w", domain.NewConflictError("slug", "already in use"))
	}

	_, err := f.service().Replace(context.Background(), "a", payload(t))
	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestService_Delete(t *testing.T) {
	t.Parallel()

	f := newFixture()
	current := stored("gone")
	f.listings.lockBySlugFunc = func(context.Context, string) (*domain.Listing, error) { return current, nil }
	var deletedID uuid.UUID
	f.listings.deleteFunc = func(_ context.Context, id uuid.UUID) error {
		deletedID = id
		return nil
	}

	require.NoError(t, f.service().Delete(context.Background(), "gone"))
	assert.Equal(t, current.ID, deletedID)
	assert.Equal(t, 1, f.images.deleted)
	assert.Equal(t, 1, f.features.deleted)
}

func TestService_Delete_NotFound(t *testing.T) {
	t.Parallel()

	f := newFixture()
	deleteCalled := false
	f.listings.deleteFunc = func(context.Context, uuid.UUID) error {
		deleteCalled = true
		return nil
	}

	err := f.service().Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, deleteCalled)
	assert.Zero(t, f.images.deleted)
}

// ---------------------------------------------------------------------------
// GetBySlug / List / Count
// ---------------------------------------------------------------------------

func TestService_GetBySlug_AssemblesAndNormalizes(t *testing.T) {
	t.Parallel()

	f := newFixture()
	row := stored("villa")
	f.listings.getBySlugFunc = func(context.Context, string) (*domain.Listing, error) { return row, nil }
	f.images.getFunc = func(context.Context, uuid.UUID) ([]domain.ImageRef, error) {
		// legacy rows: no primary flag stored
		return []domain.ImageRef{{URL: "a"}, {URL: "b"}}, nil
	}
	f.features.getFunc = func(context.Context, uuid.UUID) ([]string, error) { return []string{"Pool"}, nil }

	got, err := f.service().GetBySlug(context.Background(), "villa")
	require.NoError(t, err)
	assert.Equal(t, []domain.ImageRef{{URL: "a", IsPrimary: true}, {URL: "b"}}, got.Images)
	assert.Equal(t, []string{"Pool"}, got.Features)
}

func TestService_GetBySlug_EmptyCollectionsNotNil(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.listings.getBySlugFunc = func(context.Context, string) (*domain.Listing, error) { return stored("x"), nil }
	f.images.getFunc = func(context.Context, uuid.UUID) ([]domain.ImageRef, error) { return nil, nil }
	f.features.getFunc = func(context.Context, uuid.UUID) ([]string, error) { return nil, nil }

	got, err := f.service().GetBySlug(context.Background(), "x")
	require.NoError(t, err)
	assert.NotNil(t, got.Images)
	assert.NotNil(t, got.Features)
	assert.Empty(t, got.Images)
	assert.Empty(t, got.Features)
}

func TestService_GetBySlug_InsideTxReadsSequentially(t *testing.T) {
	t.Parallel()

	var inFlight, maxInFlight atomic.Int32
	track := func() func() {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return func() { inFlight.Add(-1) }
	}

	f := newFixture()
	f.listings.getBySlugFunc = func(context.Context, string) (*domain.Listing, error) { return stored("villa"), nil }
	f.images.getFunc = func(context.Context, uuid.UUID) ([]domain.ImageRef, error) {
		defer track()()
		return []domain.ImageRef{{URL: "a"}}, nil
	}
	f.features.getFunc = func(context.Context, uuid.UUID) ([]string, error) {
		defer track()()
		return []string{"Pool"}, nil
	}
	svc := f.service()

	var got *domain.Listing
	err := f.tx.RunInTx(context.Background(), func(txCtx context.Context) error {
		var err error
		got, err = svc.GetBySlug(txCtx, "villa")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), maxInFlight.Load(), "collections must not be read concurrently on one transaction")
	assert.Equal(t, []domain.ImageRef{{URL: "a", IsPrimary: true}}, got.Images)
	assert.Equal(t, []string{"Pool"}, got.Features)
}

func TestService_GetBySlug_NotFound(t *testing.T) {
	t.Parallel()

	_, err := newFixture().service().GetBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_GetBySlug_CollectionError(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.listings.getBySlugFunc = func(context.Context, string) (*domain.Listing, error) { return stored("x"), nil }
	f.features.getFunc = func(context.Context, uuid.UUID) ([]string, error) { return nil, errors.New("timeout") }

	_, err := f.service().GetBySlug(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestService_List_NormalizesFilter(t *testing.T) {
	t.Parallel()

	f := newFixture()
	var got domain.ListingFilter
	f.listings.listFunc = func(_ context.Context, filter domain.ListingFilter) ([]domain.ListingSummary, error) {
		got = filter
		return nil, nil
	}

	out, err := f.service().List(context.Background(), domain.ListingFilter{Limit: 5000})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Equal(t, domain.MaxListLimit, got.Limit)
}

func TestService_Count(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.listings.countFunc = func(context.Context, domain.ListingFilter) (int, error) { return 12, nil }

	n, err := f.service().Count(context.Background(), domain.ListingFilter{})
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

// ---------------------------------------------------------------------------
// Image edits
// ---------------------------------------------------------------------------

func imageFixture(urls ...string) *fixture {
	f := newFixture()
	f.listings.lockBySlugFunc = func(context.Context, string) (*domain.Listing, error) { return stored("villa"), nil }
	f.images.getFunc = func(context.Context, uuid.UUID) ([]domain.ImageRef, error) {
		out := make([]domain.ImageRef, 0, len(urls))
		for i, u := range urls {
			out = append(out, domain.ImageRef{URL: u, IsPrimary: i == 0})
		}
		return out, nil
	}
	return f
}

func TestService_SetPrimaryImage(t *testing.T) {
	t.Parallel()

	f := imageFixture("a", "b", "c")
	got, err := f.service().SetPrimaryImage(context.Background(), "villa", "c")
	require.NoError(t, err)

	want := []domain.ImageRef{{URL: "c", IsPrimary: true}, {URL: "a"}, {URL: "b"}}
	assert.Equal(t, want, got.Images)
	require.Len(t, f.images.inserted, 1)
	assert.Equal(t, want, f.images.inserted[0])
	assert.Equal(t, 1, f.images.deleted)
}

func TestService_RemoveImage(t *testing.T) {
	t.Parallel()

	f := imageFixture("a", "b")
	got, err := f.service().RemoveImage(context.Background(), "villa", "a")
	require.NoError(t, err)
	assert.Equal(t, []domain.ImageRef{{URL: "b", IsPrimary: true}}, got.Images)

	_, err = imageFixture("a").service().RemoveImage(context.Background(), "villa", "zzz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestService_ReorderImages(t *testing.T) {
	t.Parallel()

	f := imageFixture("a", "b", "c")
	got, err := f.service().ReorderImages(context.Background(), "villa", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.ImageRef{{URL: "b", IsPrimary: true}, {URL: "c"}, {URL: "a"}}, got.Images)
}

func TestService_ReorderImages_OutOfRange(t *testing.T) {
	t.Parallel()

	f := imageFixture("a", "b")
	_, err := f.service().ReorderImages(context.Background(), "villa", 0, 5)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.images.inserted)
	assert.Zero(t, f.images.deleted)
}

func TestService_AppendImages(t *testing.T) {
	t.Parallel()

	f := imageFixture()
	got, err := f.service().AppendImages(context.Background(), "villa", []domain.ImageRef{
		{URL: " https://cdn.example.com/x.jpg "},
		{URL: "https://cdn.example.com/y.jpg", IsPrimary: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.ImageRef{
		{URL: "https://cdn.example.com/x.jpg", IsPrimary: true},
		{URL: "https://cdn.example.com/y.jpg"},
	}, got.Images)
}

func TestService_AppendImages_OverLimit(t *testing.T) {
	t.Parallel()

	f := imageFixture("a", "b", "c")
	_, err := f.service().AppendImages(context.Background(), "villa", []domain.ImageRef{{URL: "d"}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.images.inserted)
}

func TestService_AppendImages_InvalidURL(t *testing.T) {
	t.Parallel()

	f := imageFixture("a")
	_, err := f.service().AppendImages(context.Background(), "villa", []domain.ImageRef{{URL: "  "}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, f.tx.calls)
}

func TestService_EditImages_EditErrorAborts(t *testing.T) {
	t.Parallel()

	f := imageFixture("a")
	sentinel := errors.New("edit failed")
	_, err := f.service().EditImages(context.Background(), "villa", func(*gallery.Gallery) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
	assert.Empty(t, f.images.inserted)
}

func TestService_EditImages_NotFound(t *testing.T) {
	t.Parallel()

	called := false
	_, err := newFixture().service().EditImages(context.Background(), "missing", func(*gallery.Gallery) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, called)
}
