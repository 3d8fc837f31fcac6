package store

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"realty/api/internal/models"
)

// CreateSession inserts the session, replacing any existing session bound to
// the same user and device.
func (s *Store) CreateSession(session models.Session) models.Session {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	now := s.now().UTC()
	for id, existing := range s.sessions {
		if existing.UserID == session.UserID && existing.DeviceID == session.DeviceID {
			if session.CreatedAt.IsZero() {
				session.CreatedAt = existing.CreatedAt
			}
			delete(s.sessions, id)
		}
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.LastSeenAt = now
	s.sessions[session.ID] = session
	return session
}

func (s *Store) GetSession(id string) (models.Session, error) {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return models.Session{}, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return session, nil
}

// RotateRefreshToken swaps the refresh hash of the user's session on deviceID
// from oldHash to newHash. Exactly one caller presenting oldHash wins; an
// expired session is removed and reported as ErrSessionExpired.
func (s *Store) RotateRefreshToken(userID int64, deviceID string, oldHash, newHash []byte, expiresAt time.Time) (models.Session, error) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	now := s.now().UTC()
	for id, session := range s.sessions {
		if session.UserID != userID || !bytes.Equal(session.RefreshTokenHash, oldHash) {
			continue
		}
		if session.DeviceID != deviceID {
			break
		}
		if session.ExpiresAt.Before(now) {
			delete(s.sessions, id)
			return models.Session{}, fmt.Errorf("session %s: %w", id, ErrSessionExpired)
		}
		session.RefreshTokenHash = newHash
		session.ExpiresAt = expiresAt
		session.LastSeenAt = now
		s.sessions[id] = session
		return session, nil
	}
	return models.Session{}, fmt.Errorf("session for user %d: %w", userID, ErrNotFound)
}

func (s *Store) DeleteSession(id string) error {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	delete(s.sessions, id)
	return nil
}

func (s *Store) DeleteSessionsByDevice(userID int64, deviceID string) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	for id, session := range s.sessions {
		if session.UserID == userID && session.DeviceID == deviceID {
			delete(s.sessions, id)
		}
	}
}

// ListSessionsByUser returns the user's sessions, most recently seen first.
func (s *Store) ListSessionsByUser(userID int64) []models.Session {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()

	return s.sessionsByUserLocked(userID)
}

// TrimSessions keeps the keepLatest most recently seen sessions of a user.
func (s *Store) TrimSessions(userID int64, keepLatest int) int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sessions := s.sessionsByUserLocked(userID)
	if len(sessions) <= keepLatest {
		return 0
	}
	for _, session := range sessions[keepLatest:] {
		delete(s.sessions, session.ID)
	}
	return len(sessions) - keepLatest
}

func (s *Store) TouchSession(id string, ip string, userAgent string) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return
	}
	session.LastSeenAt = s.now().UTC()
	if ip != "" {
		session.IPAddress = ip
	}
	if userAgent != "" {
		session.UserAgent = userAgent
	}
	s.sessions[id] = session
}

// PruneExpiredSessions drops sessions whose refresh window closed before now.
func (s *Store) PruneExpiredSessions(now time.Time) int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	pruned := 0
	for id, session := range s.sessions {
		if session.ExpiresAt.Before(now) {
			delete(s.sessions, id)
			pruned++
		}
	}
	return pruned
}

func (s *Store) sessionsByUserLocked(userID int64) []models.Session {
	var sessions []models.Session
	for _, session := range s.sessions {
		if session.UserID == userID {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].LastSeenAt.Equal(sessions[j].LastSeenAt) {
			return sessions[i].ID > sessions[j].ID
		}
		return sessions[i].LastSeenAt.After(sessions[j].LastSeenAt)
	})
	return sessions
}
