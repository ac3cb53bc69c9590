package domain

import (
	"time"

	"github.com/google/uuid"
)

// Listing is one property offered for sale, together with its owned
// image and feature collections.
type Listing struct {
	ID uuid.UUID
	ListingFields
	CreatedAt time.Time
	UpdatedAt time.Time

	Images   []ImageRef
	Features []string
}

// PrimaryImage returns the image at position 0, if any.
func (l *Listing) PrimaryImage() (ImageRef, bool) {
	if len(l.Images) == 0 {
		return ImageRef{}, false
	}
	return l.Images[0], true
}

// ImageRef is an image attached to a listing. The URL points into external
// storage and is treated as opaque. It has no identity outside its listing.
type ImageRef struct {
	URL       string
	Alt       *string
	IsPrimary bool
}

// ListingFields are the scalar attributes of a listing, shared by the
// submission payload and the stored row.
type ListingFields struct {
	Slug        string
	Title       string
	Description *string
	Location    *string
	Region      Region
	Type        PropertyType
	Price       int64
	Bedrooms    *int
	Bathrooms   *int
	Area        *int
	Status      ListingStatus
	Featured    bool
}

// ListingPayload is one validated submission: scalars plus the full image
// sequence (primary first) and the deduplicated feature list.
type ListingPayload struct {
	ListingFields
	Images   []ImageRef
	Features []string
}

// ListingSummary is the row shape used by index pages.
type ListingSummary struct {
	ID           uuid.UUID
	Slug         string
	Title        string
	Location     *string
	Region       Region
	Type         PropertyType
	Price        int64
	Bedrooms     *int
	Bathrooms    *int
	Area         *int
	Status       ListingStatus
	Featured     bool
	PrimaryImage *string
	CreatedAt    time.Time
}
