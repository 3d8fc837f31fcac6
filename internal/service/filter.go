package service

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"realty/api/internal/models"
)

// Criteria narrows the approved listing set. Nil fields match everything.
type Criteria struct {
	ListingType  *models.ListingType
	PropertyType *models.PropertyType
	Region       *string
	City         *string
	District     *string
	PriceMin     *float64
	PriceMax     *float64
	AreaMin      *float64
	AreaMax      *float64
	Rooms        *float64
}

// ParseCriteria builds Criteria from query parameters. Unknown keys are
// ignored; empty or non-numeric bounds are treated as absent.
func ParseCriteria(values url.Values) Criteria {
	var c Criteria

	if v := strings.TrimSpace(values.Get("listingType")); v != "" && v != "all" {
		t := models.ListingType(v)
		c.ListingType = &t
	}
	if v := strings.TrimSpace(values.Get("propertyType")); v != "" && v != "all" {
		t := models.PropertyType(v)
		c.PropertyType = &t
	}
	c.Region = parseText(values.Get("region"))
	c.City = parseText(values.Get("city"))
	c.District = parseText(values.Get("district"))
	c.PriceMin = parseNumber(values.Get("priceMin"))
	c.PriceMax = parseNumber(values.Get("priceMax"))
	c.AreaMin = parseNumber(values.Get("areaMin"))
	c.AreaMax = parseNumber(values.Get("areaMax"))
	c.Rooms = parseNumber(values.Get("rooms"))

	return c
}

func parseText(raw string) *string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	return &v
}

func parseNumber(raw string) *float64 {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

// Matches reports whether l satisfies every present criterion. The approval
// flag is not consulted here; ListingService.ListApproved checks it first.
func (c Criteria) Matches(l models.Listing) bool {
	if c.ListingType != nil && *c.ListingType != "all" && l.ListingType != *c.ListingType {
		return false
	}
	if c.PropertyType != nil && *c.PropertyType != "all" && l.PropertyType != *c.PropertyType {
		return false
	}
	if !containsFold(l.Region, c.Region) || !containsFold(l.City, c.City) || !containsFold(l.District, c.District) {
		return false
	}

	price := float64(l.Price)
	if c.PriceMin != nil && price < *c.PriceMin {
		return false
	}
	if c.PriceMax != nil && price > *c.PriceMax {
		return false
	}
	if c.AreaMin != nil && l.Area < *c.AreaMin {
		return false
	}
	if c.AreaMax != nil && l.Area > *c.AreaMax {
		return false
	}
	if c.Rooms != nil && float64(l.Rooms) != *c.Rooms {
		return false
	}
	return true
}

func containsFold(field string, needle *string) bool {
	if needle == nil {
		return true
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(*needle))
}
