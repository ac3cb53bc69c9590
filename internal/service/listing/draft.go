package listing

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/heartmarshall/estate-backend/internal/domain"
	"github.com/heartmarshall/estate-backend/internal/service/listing/gallery"
)

// ---------------------------------------------------------------------------
// Limits
// ---------------------------------------------------------------------------

const (
	minTitleLen       = 3
	maxTitleLen       = 255
	minSlugLen        = 3
	maxSlugLen        = 255
	maxDescriptionLen = 10000
	maxLocationLen    = 255
	maxURLLen         = 2048
	maxAltLen         = 255
	maxFeatureLen     = 255

	// Counts are stored as 32-bit integers.
	maxCount = math.MaxInt32
)

// Limits caps the collection sizes a single listing may carry.
type Limits struct {
	MaxImages   int
	MaxFeatures int
}

// DefaultLimits are used when the configuration leaves a limit unset.
var DefaultLimits = Limits{MaxImages: 50, MaxFeatures: 100}

func (l Limits) orDefault() Limits {
	if l.MaxImages <= 0 {
		l.MaxImages = DefaultLimits.MaxImages
	}
	if l.MaxFeatures <= 0 {
		l.MaxFeatures = DefaultLimits.MaxFeatures
	}
	return l
}

// ---------------------------------------------------------------------------
// Draft
// ---------------------------------------------------------------------------

// Draft is an unvalidated listing submission as it arrives from a form or
// an API client. Enum fields are raw strings so that unknown values can be
// reported instead of silently coerced.
type Draft struct {
	Slug        string
	Title       string
	Description *string
	Location    *string
	Region      string
	Type        string
	Price       int64
	Bedrooms    *int
	Bathrooms   *int
	Area        *int
	Status      string
	Featured    bool

	// Images in submission order. The first image flagged primary is moved
	// to the front; with no flag the first image is primary.
	Images   []domain.ImageRef
	Features []string
}

// Build validates the draft and turns it into a payload ready to persist.
// Every problem is reported at once in a *domain.ValidationError.
// Build performs no I/O; slug uniqueness is checked on write.
func (d Draft) Build(limits Limits) (domain.ListingPayload, error) {
	limits = limits.orDefault()
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

	description := trimOptional(d.Description)
	if description != nil && utf8.RuneCountInString(*description) > maxDescriptionLen {
		errs = append(errs, domain.FieldError{Field: "description", Message: fmt.Sprintf("too long (max %d)", maxDescriptionLen)})
	}

	location := trimOptional(d.Location)
	if location != nil && utf8.RuneCountInString(*location) > maxLocationLen {
		errs = append(errs, domain.FieldError{Field: "location", Message: fmt.Sprintf("too long (max %d)", maxLocationLen)})
	}

	region := domain.Region(strings.TrimSpace(d.Region))
	if !region.IsValid() {
		errs = append(errs, domain.FieldError{Field: "region", Message: "unknown region"})
	}

	propertyType := domain.PropertyType(strings.TrimSpace(d.Type))
	if !propertyType.IsValid() {
		errs = append(errs, domain.FieldError{Field: "type", Message: "unknown property type"})
	}

	status := domain.ListingStatus(strings.TrimSpace(d.Status))
	if status == "" {
		status = domain.ListingStatusDraft
	}
	if !status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "unknown status"})
	}

	if d.Price <= 0 {
		errs = append(errs, domain.FieldError{Field: "price", Message: "must be positive"})
	}

	for _, c := range []struct {
		field string
		v     *int
	}{{"bedrooms", d.Bedrooms}, {"bathrooms", d.Bathrooms}, {"area", d.Area}} {
		switch {
		case c.v == nil:
		case *c.v < 0:
			errs = append(errs, domain.FieldError{Field: c.field, Message: "must not be negative"})
		case *c.v > maxCount:
			errs = append(errs, domain.FieldError{Field: c.field, Message: fmt.Sprintf("must be at most %d", maxCount)})
		}
	}

	images, imageErrs := normalizeImages(d.Images, limits.MaxImages)
	errs = append(errs, imageErrs...)

	features, featureErrs := normalizeFeatures(d.Features, limits.MaxFeatures)
	errs = append(errs, featureErrs...)

	if len(errs) > 0 {
		return domain.ListingPayload{}, domain.NewValidationErrors(errs)
	}

	return domain.ListingPayload{
		ListingFields: domain.ListingFields{
			Slug:        slug,
			Title:       title,
			Description: description,
			Location:    location,
			Region:      region,
			Type:        propertyType,
			Price:       d.Price,
			Bedrooms:    d.Bedrooms,
			Bathrooms:   d.Bathrooms,
			Area:        d.Area,
			Status:      status,
			Featured:    d.Featured,
		},
		Images:   gallery.New(images...).Images(),
		Features: features,
	}, nil
}

// normalizeImages trims urls and alt texts and checks them. The returned
// slice still carries the submitted primary flags; ordering is left to the
// gallery.
func normalizeImages(in []domain.ImageRef, maxImages int) ([]domain.ImageRef, []domain.FieldError) {
	var errs []domain.FieldError
	if len(in) > maxImages {
		errs = append(errs, domain.FieldError{Field: "images", Message: fmt.Sprintf("too many (max %d)", maxImages)})
	}

	out := make([]domain.ImageRef, 0, len(in))
	for i, img := range in {
		url := strings.TrimSpace(img.URL)
		switch {
		case url == "":
			errs = append(errs, domain.FieldError{Field: fmt.Sprintf("images[%d].url", i), Message: "required"})
		case len(url) > maxURLLen:
			errs = append(errs, domain.FieldError{Field: fmt.Sprintf("images[%d].url", i), Message: fmt.Sprintf("too long (max %d)", maxURLLen)})
		}

		alt := trimOptional(img.Alt)
		if alt != nil && utf8.RuneCountInString(*alt) > maxAltLen {
			errs = append(errs, domain.FieldError{Field: fmt.Sprintf("images[%d].alt", i), Message: fmt.Sprintf("too long (max %d)", maxAltLen)})
		}

		out = append(out, domain.ImageRef{URL: url, Alt: alt, IsPrimary: img.IsPrimary})
	}
	return out, errs
}

// normalizeFeatures trims tags and drops case-insensitive repeats, keeping
// the first spelling and the first-seen order.
func normalizeFeatures(in []string, maxFeatures int) ([]string, []domain.FieldError) {
	var errs []domain.FieldError

	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, raw := range in {
		f := strings.TrimSpace(raw)
		if f == "" {
			errs = append(errs, domain.FieldError{Field: fmt.Sprintf("features[%d]", i), Message: "required"})
			continue
		}
		if utf8.RuneCountInString(f) > maxFeatureLen {
			errs = append(errs, domain.FieldError{Field: fmt.Sprintf("features[%d]", i), Message: fmt.Sprintf("too long (max %d)", maxFeatureLen)})
			continue
		}
		key := strings.ToLower(f)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f)
	}

	if len(out) > maxFeatures {
		errs = append(errs, domain.FieldError{Field: "features", Message: fmt.Sprintf("too many (max %d)", maxFeatures)})
	}
	return out, errs
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
