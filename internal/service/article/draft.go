package article

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/estate-backend/internal/domain"
)

const (
	minTitleLen    = 3
	maxTitleLen    = 255
	minSlugLen     = 3
	maxSlugLen     = 255
	maxExcerptLen  = 1000
	maxContentLen  = 100000
	maxCategoryLen = 100
	maxURLLen      = 2048
)

// Draft is an unvalidated article submission.
type Draft struct {
	Slug          string
	Title         string
	Excerpt       *string
	Content       string
	Category      *string
	Status        string
	Featured      bool
	FeaturedImage *string
}

// Build validates the draft and reports every problem at once in a
// *domain.ValidationError. An empty slug is derived from the title.
func (d Draft) Build() (domain.ArticleFields, error) {
	var errs []domain.FieldError

	title := strings.TrimSpace(d.Title)
	if n := utf8.RuneCountInString(title); n < minTitleLen || n > maxTitleLen {
		errs = append(errs, domain.FieldError{
			Field:   "title",
			Message: fmt.Sprintf("must be %d to %d characters", minTitleLen, maxTitleLen),
		})
	}

	slug := strings.TrimSpace(d.Slug)
	if slug == "" {
		slug = domain.TruncateSlug(domain.Slugify(title), maxSlugLen)
	}
	switch n := len(slug); {
	case n < minSlugLen || n > maxSlugLen:
		errs = append(errs, domain.FieldError{
			Field:   "slug",
			Message: fmt.Sprintf("must be %d to %d characters", minSlugLen, maxSlugLen),
		})
	case !domain.IsValidSlug(slug):
		errs = append(errs, domain.FieldError{
			Field:   "slug",
			Message: "must be lowercase letters, digits and single hyphens",
		})
	}

	content := strings.TrimSpace(d.Content)
	switch n := utf8.RuneCountInString(content); {
	case n == 0:
		errs = append(errs, domain.FieldError{Field: "content", Message: "required"})
	case n > maxContentLen:
		errs = append(errs, domain.FieldError{Field: "content", Message: fmt.Sprintf("too long (max %d)", maxContentLen)})
	}

	excerpt := trimOptional(d.Excerpt)
	if excerpt != nil && utf8.RuneCountInString(*excerpt) > maxExcerptLen {
		errs = append(errs, domain.FieldError{Field: "excerpt", Message: fmt.Sprintf("too long (max %d)", maxExcerptLen)})
	}

	category := trimOptional(d.Category)
	if category != nil && (len(*category) > maxCategoryLen || !domain.IsValidSlug(*category)) {
		errs = append(errs, domain.FieldError{Field: "category", Message: "must be a slug of at most 100 characters"})
	}

	image := trimOptional(d.FeaturedImage)
	if image != nil && len(*image) > maxURLLen {
		errs = append(errs, domain.FieldError{Field: "featuredImage", Message: fmt.Sprintf("too long (max %d)", maxURLLen)})
	}

	status := domain.ArticleStatus(strings.TrimSpace(d.Status))
	if status == "" {
		status = domain.ArticleStatusDraft
	}
	if !status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "unknown status"})
	}

	if len(errs) > 0 {
		return domain.ArticleFields{}, domain.NewValidationErrors(errs)
	}

	return domain.ArticleFields{
		Slug:          slug,
		Title:         title,
		Excerpt:       excerpt,
		Content:       content,
		Category:      category,
		Status:        status,
		Featured:      d.Featured,
		FeaturedImage: image,
	}, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
