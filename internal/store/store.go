// Package store holds the process-lifetime entity tables: users, listings,
// favorites and sessions. Each table is guarded by its own lock. When more
// than one lock is needed they are always taken in the order
// listings → favorites.
package store

import (
	"errors"
	"sync"
	"time"

	"realty/api/internal/models"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUsernameTaken  = errors.New("username already registered")
	ErrEmailTaken     = errors.New("email already registered")
	ErrSessionExpired = errors.New("session expired")
)

type Store struct {
	now func() time.Time

	usersMu    sync.RWMutex
	users      map[int64]models.User
	usernames  map[string]int64
	emails     map[string]int64
	nextUserID int64

	listingsMu    sync.RWMutex
	listings      map[int64]models.Listing
	nextListingID int64

	favoritesMu sync.RWMutex
	byUser      map[int64]map[int64]struct{}
	byListing   map[int64]map[int64]struct{}

	sessionsMu sync.RWMutex
	sessions   map[string]models.Session
}

func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock builds a store whose timestamps come from now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		now:       now,
		users:     make(map[int64]models.User),
		usernames: make(map[string]int64),
		emails:    make(map[string]int64),
		listings:  make(map[int64]models.Listing),
		byUser:    make(map[int64]map[int64]struct{}),
		byListing: make(map[int64]map[int64]struct{}),
		sessions:  make(map[string]models.Session),
	}
}
