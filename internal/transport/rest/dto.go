package rest

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/heartmarshall/estate-backend/internal/domain"
	listingsvc "github.com/heartmarshall/estate-backend/internal/service/listing"
)

type imageDTO struct {
	URL       string  `json:"url"`
	Alt       *string `json:"alt,omitempty"`
	IsPrimary bool    `json:"isPrimary"`
}

// listingRequest is the body of POST /records and PUT /records/{slug}.
type listingRequest struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	Region      string     `json:"region"`
	Type        string     `json:"type"`
	Price       int64      `json:"price"`
	Bedrooms    *int       `json:"bedrooms"`
	Bathrooms   *int       `json:"bathrooms"`
	Area        *int       `json:"area"`
	Status      string     `json:"status"`
	Featured    bool       `json:"featured"`
	Images      []imageDTO `json:"images"`
	Features    []string   `json:"features"`
}

func (req listingRequest) toDraft() listingsvc.Draft {
	return listingsvc.Draft{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Region:      req.Region,
		Type:        req.Type,
		Price:       req.Price,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Area:        req.Area,
		Status:      req.Status,
		Featured:    req.Featured,
		Images:      fromImageDTOs(req.Images),
		Features:    req.Features,
	}
}

type createdResponse struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

type listingResponse struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	Region      string     `json:"region"`
	Type        string     `json:"type"`
	Price       int64      `json:"price"`
	Bedrooms    *int       `json:"bedrooms"`
	Bathrooms   *int       `json:"bathrooms"`
	Area        *int       `json:"area"`
	Status      string     `json:"status"`
	Featured    bool       `json:"featured"`
	Images      []imageDTO `json:"images"`
	Features    []string   `json:"features"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toListingResponse(l *domain.Listing) listingResponse {
	features := l.Features
	if features == nil {
		features = []string{}
	}
	return listingResponse{
		ID:          l.ID.String(),
		Slug:        l.Slug,
		Title:       l.Title,
		Description: l.Description,
		Location:    l.Location,
		Region:      l.Region.String(),
		Type:        l.Type.String(),
		Price:       l.Price,
		Bedrooms:    l.Bedrooms,
		Bathrooms:   l.Bathrooms,
		Area:        l.Area,
		Status:      l.Status.String(),
		Featured:    l.Featured,
		Images:      toImageDTOs(l.Images),
		Features:    features,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

type summaryResponse struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Location     *string   `json:"location"`
	Region       string    `json:"region"`
	Type         string    `json:"type"`
	Price        int64     `json:"price"`
	Bedrooms     *int      `json:"bedrooms"`
	Bathrooms    *int      `json:"bathrooms"`
	Area         *int      `json:"area"`
	Status       string    `json:"status"`
	Featured     bool      `json:"featured"`
	PrimaryImage *string   `json:"primaryImage"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toSummaryResponses(items []domain.ListingSummary) []summaryResponse {
	out := make([]summaryResponse, 0, len(items))
	for _, s := range items {
		out = append(out, summaryResponse{
			ID:           s.ID.String(),
			Slug:         s.Slug,
			Title:        s.Title,
			Location:     s.Location,
			Region:       s.Region.String(),
			Type:         s.Type.String(),
			Price:        s.Price,
			Bedrooms:     s.Bedrooms,
			Bathrooms:    s.Bathrooms,
			Area:         s.Area,
			Status:       s.Status.String(),
			Featured:     s.Featured,
			PrimaryImage: s.PrimaryImage,
			CreatedAt:    s.CreatedAt,
		})
	}
	return out
}

func toImageDTOs(images []domain.ImageRef) []imageDTO {
	out := make([]imageDTO, 0, len(images))
	for _, img := range images {
		out = append(out, imageDTO{URL: img.URL, Alt: img.Alt, IsPrimary: img.IsPrimary})
	}
	return out
}

func fromImageDTOs(in []imageDTO) []domain.ImageRef {
	if in == nil {
		return nil
	}
	out := make([]domain.ImageRef, 0, len(in))
	for _, img := range in {
		out = append(out, domain.ImageRef{URL: img.URL, Alt: img.Alt, IsPrimary: img.IsPrimary})
	}
	return out
}

// parseFilter reads the listing index query. Unknown keys are ignored;
// malformed values are reported together as one validation error.
func parseFilter(q url.Values) (domain.ListingFilter, error) {
	var (
		f    domain.ListingFilter
		errs []domain.FieldError
	)

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		t := domain.PropertyType(v)
		if t.IsValid() {
			f.Type = &t
		} else {
			errs = append(errs, domain.FieldError{Field: "type", Message: "unknown property type"})
		}
	}
	if v := strings.TrimSpace(q.Get("region")); v != "" {
		rg := domain.Region(v)
		if rg.IsValid() {
			f.Region = &rg
		} else {
			errs = append(errs, domain.FieldError{Field: "region", Message: "unknown region"})
		}
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		s := domain.ListingStatus(v)
		if s.IsValid() {
			f.Status = &s
		} else {
			errs = append(errs, domain.FieldError{Field: "status", Message: "unknown status"})
		}
	}

	parseInt64 := func(key string) *int64 {
		v := q.Get(key)
		if v == "" {
			return nil
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			errs = append(errs, domain.FieldError{Field: key, Message: "must be a non-negative integer"})
			return nil
		}
		return &n
	}

	f.MinPrice = parseInt64("min_price")
	f.MaxPrice = parseInt64("max_price")
	if n := parseInt64("bedrooms"); n != nil {
		b := int(*n)
		f.MinBedrooms = &b
	}
	if n := parseInt64("limit"); n != nil {
		f.Limit = int(*n)
	}
	if n := parseInt64("offset"); n != nil {
		f.Offset = int(*n)
	}

	if v := q.Get("featured"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: "featured", Message: "must be a boolean"})
		} else {
			f.Featured = &b
		}
	}

	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		errs = append(errs, domain.FieldError{Field: "min_price", Message: "must not exceed max_price"})
	}

	if len(errs) > 0 {
		return domain.ListingFilter{}, domain.NewValidationErrors(errs)
	}
	return f, nil
}
