package store

import (
	"fmt"
	"slices"

	"realty/api/internal/models"
)

func (s *Store) CreateListing(listing models.Listing) models.Listing {
	s.listingsMu.Lock()
	defer s.listingsMu.Unlock()

	s.nextListingID++
	now := s.now().UTC()
	listing.ID = s.nextListingID
	listing.Approved = false
	listing.CreatedAt = now
	listing.UpdatedAt = now

	s.listings[listing.ID] = cloneListing(listing)
	return cloneListing(listing)
}

func (s *Store) GetListing(id int64) (models.Listing, error) {
	s.listingsMu.RLock()
	defer s.listingsMu.RUnlock()

	listing, ok := s.listings[id]
	if !ok {
		return models.Listing{}, fmt.Errorf("listing %d: %w", id, ErrNotFound)
	}
	return cloneListing(listing), nil
}

func (s *Store) UpdateListing(id int64, patch models.ListingPatch) (models.Listing, error) {
	return s.MutateListing(id, func(l *models.Listing) error {
		ApplyListingPatch(l, patch)
		return nil
	})
}

// MutateListing runs fn against the stored listing while holding the
// listings lock, so a read-check-write sequence cannot interleave with
// another writer. An error from fn leaves the record untouched.
func (s *Store) MutateListing(id int64, fn func(*models.Listing) error) (models.Listing, error) {
	s.listingsMu.Lock()
	defer s.listingsMu.Unlock()

	current, ok := s.listings[id]
	if !ok {
		return models.Listing{}, fmt.Errorf("listing %d: %w", id, ErrNotFound)
	}

	next := cloneListing(current)
	if err := fn(&next); err != nil {
		return models.Listing{}, err
	}
	next.ID = current.ID
	next.UserID = current.UserID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.now().UTC()

	s.listings[id] = next
	return cloneListing(next), nil
}

func (s *Store) DeleteListing(id int64) error {
	_, err := s.DeleteListingIf(id, nil)
	return err
}

// DeleteListingIf removes the listing when check (if any) accepts it and
// purges every favorite that points at it. The removed record is returned.
func (s *Store) DeleteListingIf(id int64, check func(models.Listing) error) (models.Listing, error) {
	s.listingsMu.Lock()
	defer s.listingsMu.Unlock()

	current, ok := s.listings[id]
	if !ok {
		return models.Listing{}, fmt.Errorf("listing %d: %w", id, ErrNotFound)
	}
	if check != nil {
		if err := check(cloneListing(current)); err != nil {
			return models.Listing{}, err
		}
	}

	delete(s.listings, id)
	s.purgeFavorites(id)
	return current, nil
}

// ListListings returns listings accepted by keep in insertion order. A nil
// keep returns everything.
func (s *Store) ListListings(keep func(models.Listing) bool) []models.Listing {
	s.listingsMu.RLock()
	defer s.listingsMu.RUnlock()

	ids := make([]int64, 0, len(s.listings))
	for id := range s.listings {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]models.Listing, 0, len(ids))
	for _, id := range ids {
		listing := s.listings[id]
		if keep != nil && !keep(listing) {
			continue
		}
		out = append(out, cloneListing(listing))
	}
	return out
}

// ApplyListingPatch copies every non-nil patch field onto l.
func ApplyListingPatch(l *models.Listing, patch models.ListingPatch) {
	if patch.Title != nil {
		l.Title = *patch.Title
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.ListingType != nil {
		l.ListingType = *patch.ListingType
	}
	if patch.PropertyType != nil {
		l.PropertyType = *patch.PropertyType
	}
	if patch.Region != nil {
		l.Region = *patch.Region
	}
	if patch.City != nil {
		l.City = *patch.City
	}
	if patch.District != nil {
		l.District = *patch.District
	}
	if patch.Address != nil {
		l.Address = *patch.Address
	}
	if patch.Price != nil {
		l.Price = *patch.Price
	}
	if patch.Area != nil {
		l.Area = *patch.Area
	}
	if patch.Rooms != nil {
		l.Rooms = *patch.Rooms
	}
	if patch.Photos != nil {
		l.Photos = slices.Clone(patch.Photos)
	}
	if len(patch.AppendPhotos) > 0 {
		l.Photos = append(slices.Clone(l.Photos), patch.AppendPhotos...)
	}
	if patch.Approved != nil {
		l.Approved = *patch.Approved
	}
}

func cloneListing(l models.Listing) models.Listing {
	l.Photos = slices.Clone(l.Photos)
	return l
}
