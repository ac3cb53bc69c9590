package domain

import (
	"time"

	"github.com/google/uuid"
)

// ArticleStatus is the publication state of a blog article.
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "draft"
	ArticleStatusPublished ArticleStatus = "published"
)

func (s ArticleStatus) String() string { return string(s) }

func (s ArticleStatus) IsValid() bool {
	return s == ArticleStatusDraft || s == ArticleStatusPublished
}

// ArticleFields are the attributes of a blog article shared by the
// submission payload and the stored row. Category is a category slug.
type ArticleFields struct {
	Slug          string
	Title         string
	Excerpt       *string
	Content       string
	Category      *string
	Status        ArticleStatus
	Featured      bool
	FeaturedImage *string
}

// Article is one stored blog article.
type Article struct {
	ID uuid.UUID
	ArticleFields
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ArticleFilter selects articles for the blog index. Nil fields match
// everything.
type ArticleFilter struct {
	Status   *ArticleStatus
	Category *string
	Limit    int
	Offset   int
}

// Normalized returns a copy with the same page bounds as ListingFilter.
func (f ArticleFilter) Normalized() ArticleFilter {
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultListLimit
	case f.Limit > MaxListLimit:
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
