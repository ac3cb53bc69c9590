package domain

// Listing index page size bounds.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// ListingFilter narrows the listing index. Nil fields do not filter.
type ListingFilter struct {
	Type        *PropertyType
	Region      *Region
	Status      *ListingStatus
	MinPrice    *int64
	MaxPrice    *int64
	MinBedrooms *int
	Featured    *bool
	Limit       int
	Offset      int
}

// Normalized returns a copy with Limit clamped to (0, MaxListLimit] and a
// non-negative Offset. A zero Limit becomes DefaultListLimit.
func (f ListingFilter) Normalized() ListingFilter {
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
