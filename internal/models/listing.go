package models

import "time"

type ListingType string

const (
	ListingTypeSale ListingType = "sale"
	ListingTypeRent ListingType = "rent"
)

func (t ListingType) Valid() bool {
	return t == ListingTypeSale || t == ListingTypeRent
}

type PropertyType string

const (
	PropertyTypeApartment  PropertyType = "apartment"
	PropertyTypeHouse      PropertyType = "house"
	PropertyTypeCommercial PropertyType = "commercial"
	PropertyTypeLand       PropertyType = "land"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeApartment, PropertyTypeHouse, PropertyTypeCommercial, PropertyTypeLand:
		return true
	}
	return false
}

type Listing struct {
	ID           int64
	UserID       int64
	Title        string
	Description  string
	ListingType  ListingType
	PropertyType PropertyType
	Region       string
	City         string
	District     string
	Address      string
	Price        int64
	Area         float64
	Rooms        int
	Photos       []string
	Approved     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PrimaryPhoto returns the first photo URL or an empty string.
func (l Listing) PrimaryPhoto() string {
	if len(l.Photos) == 0 {
		return ""
	}
	return l.Photos[0]
}

type ListingPatch struct {
	Title        *string
	Description  *string
	ListingType  *ListingType
	PropertyType *PropertyType
	Region       *string
	City         *string
	District     *string
	Address      *string
	Price        *int64
	Area         *float64
	Rooms        *int
	Photos       []string
	// AppendPhotos adds to the existing photo list instead of replacing it.
	AppendPhotos []string
	Approved     *bool
}
