package store

import (
	"fmt"
	"slices"

	"realty/api/internal/models"
)

// AddFavorite records the pair; repeating it is a no-op. The listing must
// exist at the time of the call.
func (s *Store) AddFavorite(userID, listingID int64) error {
	s.listingsMu.RLock()
	defer s.listingsMu.RUnlock()

	if _, ok := s.listings[listingID]; !ok {
		return fmt.Errorf("listing %d: %w", listingID, ErrNotFound)
	}

	s.favoritesMu.Lock()
	defer s.favoritesMu.Unlock()

	if s.byUser[userID] == nil {
		s.byUser[userID] = make(map[int64]struct{})
	}
	if s.byListing[listingID] == nil {
		s.byListing[listingID] = make(map[int64]struct{})
	}
	s.byUser[userID][listingID] = struct{}{}
	s.byListing[listingID][userID] = struct{}{}
	return nil
}

// RemoveFavorite drops the pair if present.
func (s *Store) RemoveFavorite(userID, listingID int64) {
	s.favoritesMu.Lock()
	defer s.favoritesMu.Unlock()

	if set, ok := s.byUser[userID]; ok {
		delete(set, listingID)
		if len(set) == 0 {
			delete(s.byUser, userID)
		}
	}
	if set, ok := s.byListing[listingID]; ok {
		delete(set, userID)
		if len(set) == 0 {
			delete(s.byListing, listingID)
		}
	}
}

func (s *Store) IsFavorite(userID, listingID int64) bool {
	s.favoritesMu.RLock()
	defer s.favoritesMu.RUnlock()

	_, ok := s.byUser[userID][listingID]
	return ok
}

// FavoriteIDs returns the listing ids a user favorited, ascending.
func (s *Store) FavoriteIDs(userID int64) []int64 {
	s.favoritesMu.RLock()
	defer s.favoritesMu.RUnlock()

	ids := make([]int64, 0, len(s.byUser[userID]))
	for id := range s.byUser[userID] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ListFavorites resolves a user's favorites to listings, skipping ids that no
// longer point at an approved listing.
func (s *Store) ListFavorites(userID int64) []models.Listing {
	ids := s.FavoriteIDs(userID)

	s.listingsMu.RLock()
	defer s.listingsMu.RUnlock()

	out := make([]models.Listing, 0, len(ids))
	for _, id := range ids {
		listing, ok := s.listings[id]
		if !ok || !listing.Approved {
			continue
		}
		out = append(out, cloneListing(listing))
	}
	return out
}

// purgeFavorites removes every pair that references listingID. Callers hold
// the listings lock.
func (s *Store) purgeFavorites(listingID int64) {
	s.favoritesMu.Lock()
	defer s.favoritesMu.Unlock()

	for userID := range s.byListing[listingID] {
		if set, ok := s.byUser[userID]; ok {
			delete(set, listingID)
			if len(set) == 0 {
				delete(s.byUser, userID)
			}
		}
	}
	delete(s.byListing, listingID)
}
