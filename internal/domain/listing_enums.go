package domain

// Region is the area of Cyprus a listing belongs to.
type Region string

const (
	RegionLimassol Region = "limassol"
	RegionPaphos   Region = "paphos"
	RegionProtaras Region = "protaras"
	RegionLarnaca  Region = "larnaca"
	RegionNicosia  Region = "nicosia"
)

func (r Region) String() string { return string(r) }

func (r Region) IsValid() bool {
	switch r {
	case RegionLimassol, RegionPaphos, RegionProtaras, RegionLarnaca, RegionNicosia:
		return true
	}
	return false
}

// PropertyType is the kind of building being offered.
type PropertyType string

const (
	PropertyTypeVilla     PropertyType = "villa"
	PropertyTypeApartment PropertyType = "apartment"
	PropertyTypeTownhouse PropertyType = "townhouse"
	PropertyTypePenthouse PropertyType = "penthouse"
)

func (t PropertyType) String() string { return string(t) }

func (t PropertyType) IsValid() bool {
	switch t {
	case PropertyTypeVilla, PropertyTypeApartment, PropertyTypeTownhouse, PropertyTypePenthouse:
		return true
	}
	return false
}

// ListingStatus is the publication state of a listing.
type ListingStatus string

const (
	ListingStatusDraft    ListingStatus = "draft"
	ListingStatusActive   ListingStatus = "active"
	ListingStatusSold     ListingStatus = "sold"
	ListingStatusReserved ListingStatus = "reserved"
)

func (s ListingStatus) String() string { return string(s) }

func (s ListingStatus) IsValid() bool {
	switch s {
	case ListingStatusDraft, ListingStatusActive, ListingStatusSold, ListingStatusReserved:
		return true
	}
	return false
}
