package article

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/estate-backend/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
	out := make(map[string]string, len(ve.Errors))
	for _, fe := range ve.Errors {
		out[fe.Field] = fe.Message
	}
	return out
}

func TestDraftBuild_Normalizes(t *testing.T) {
	t.Parallel()

	f, err := Draft{
		Title:         "  Ayía Nápa Market Report ",
		Excerpt:       ptr("   "),
		Content:       " Prices rose. ",
		Category:      ptr(" market "),
		FeaturedImage: ptr("https://cdn.example.com/a.jpg"),
	}.Build()
	require.NoError(t, err)
	assert.Equal(t, "ayia-napa-market-report", f.Slug)
	assert.Equal(t, "Ayía Nápa Market Report", f.Title)
	assert.Nil(t, f.Excerpt)
	assert.Equal(t, "Prices rose.", f.Content)
	assert.Equal(t, ptr("market"), f.Category)
	assert.Equal(t, domain.ArticleStatusDraft, f.Status)
}

func TestDraftBuild_ReportsAllErrors(t *testing.T) {
	t.Parallel()

	_, err := Draft{
		Slug:     "Not A Slug",
		Title:    "ab",
		Content:  "  ",
		Category: ptr("Market News"),
		Status:   "archived",
	}.Build()
	fields := fieldErrors(t, err)
	for _, f := range []string{"slug", "title", "content", "category", "status"} {
		assert.Contains(t, fields, f)
	}
}

func TestDraftBuild_DerivedSlugTruncated(t *testing.T) {
	t.Parallel()

	f, err := Draft{
		Title:   strings.TrimSpace(strings.Repeat("\ufb01ne ", 60)),
		Content: "x",
	}.Build()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(f.Slug), maxSlugLen)
	assert.True(t, domain.IsValidSlug(f.Slug), "slug %q", f.Slug)
}

func TestDraftBuild_Published(t *testing.T) {
	t.Parallel()

	f, err := Draft{Title: "Launch", Content: "x", Status: "published", Featured: true}.Build()
	require.NoError(t, err)
	assert.Equal(t, domain.ArticleStatusPublished, f.Status)
	assert.True(t, f.Featured)
}
