package store

import (
	"fmt"
	"strings"
	"time"

	"realty/api/internal/models"
)

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (s *Store) CreateUser(user models.User) (models.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	nameKey := normalizeKey(user.Username)
	emailKey := normalizeKey(user.Email)
	if _, ok := s.usernames[nameKey]; ok {
		return models.User{}, ErrUsernameTaken
	}
	if _, ok := s.emails[emailKey]; ok {
		return models.User{}, ErrEmailTaken
	}

	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = s.now().UTC()

	s.users[user.ID] = cloneUser(user)
	s.usernames[nameKey] = user.ID
	s.emails[emailKey] = user.ID
	return cloneUser(user), nil
}

func (s *Store) GetUser(id int64) (models.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return cloneUser(user), nil
}

func (s *Store) GetUserByUsername(username string) (models.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	id, ok := s.usernames[normalizeKey(username)]
	if !ok {
		return models.User{}, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return cloneUser(s.users[id]), nil
}

func (s *Store) GetUserByEmail(email string) (models.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	id, ok := s.emails[normalizeKey(email)]
	if !ok {
		return models.User{}, fmt.Errorf("user %q: %w", email, ErrNotFound)
	}
	return cloneUser(s.users[id]), nil
}

func (s *Store) UpdateUser(id int64, patch models.UserPatch) (models.User, error) {
	return s.MutateUser(id, func(u *models.User) error {
		applyUserPatch(u, patch)
		return nil
	})
}

// MutateUser runs fn against the stored user while holding the users lock.
// An error from fn leaves the record untouched.
func (s *Store) MutateUser(id int64, fn func(*models.User) error) (models.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	current, ok := s.users[id]
	if !ok {
		return models.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}

	next := cloneUser(current)
	if err := fn(&next); err != nil {
		return models.User{}, err
	}
	next.ID = current.ID
	next.Username = current.Username
	next.Email = current.Email
	next.CreatedAt = current.CreatedAt

	s.users[id] = next
	return cloneUser(next), nil
}

// ClearExpiredVerificationCodes drops outstanding codes issued before cutoff
// and reports how many were cleared.
func (s *Store) ClearExpiredVerificationCodes(cutoff time.Time) int {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	cleared := 0
	for id, user := range s.users {
		if user.VerificationCode == nil || user.VerificationIssuedAt == nil {
			continue
		}
		if user.VerificationIssuedAt.Before(cutoff) {
			user.VerificationCode = nil
			user.VerificationIssuedAt = nil
			s.users[id] = user
			cleared++
		}
	}
	return cleared
}

func applyUserPatch(u *models.User, patch models.UserPatch) {
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.MiddleName != nil {
		u.MiddleName = cloneString(patch.MiddleName)
	}
	if patch.PhoneNumber != nil {
		u.PhoneNumber = cloneString(patch.PhoneNumber)
	}
	if patch.PasswordHash != nil {
		u.PasswordHash = append([]byte(nil), patch.PasswordHash...)
	}
	if patch.IsAdmin != nil {
		u.IsAdmin = *patch.IsAdmin
	}
	if patch.IsVerified != nil {
		u.IsVerified = *patch.IsVerified
	}
	if patch.VerificationCode != nil {
		u.VerificationCode = cloneString(patch.VerificationCode)
	}
	if patch.VerificationIssuedAt != nil {
		t := *patch.VerificationIssuedAt
		u.VerificationIssuedAt = &t
	}
	if patch.ClearVerification {
		u.VerificationCode = nil
		u.VerificationIssuedAt = nil
	}
}

func cloneUser(u models.User) models.User {
	u.MiddleName = cloneString(u.MiddleName)
	u.PhoneNumber = cloneString(u.PhoneNumber)
	u.VerificationCode = cloneString(u.VerificationCode)
	if u.VerificationIssuedAt != nil {
		t := *u.VerificationIssuedAt
		u.VerificationIssuedAt = &t
	}
	if u.PasswordHash != nil {
		u.PasswordHash = append([]byte(nil), u.PasswordHash...)
	}
	return u
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
