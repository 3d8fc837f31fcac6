package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"realty/api/internal/config"
	"realty/api/internal/metrics"
	"realty/api/internal/models"
	"realty/api/internal/notify"
	"realty/api/internal/store"
)

// Notifier delivers a verification code out of band. Delivery is best effort.
type Notifier interface {
	SendVerificationCode(ctx context.Context, user models.User, code string) error
}

type VerificationService struct {
	store    *store.Store
	notifier Notifier
	ttl      time.Duration
	log      zerolog.Logger

	now      func() time.Time
	generate func() (string, error)
}

func NewVerificationService(st *store.Store, notifier Notifier, cfg *config.AppConfig, log zerolog.Logger) *VerificationService {
	return &VerificationService{
		store:    st,
		notifier: notifier,
		ttl:      cfg.Security.VerificationCodeTTL,
		log:      log,
		now:      time.Now,
		generate: generateCode,
	}
}

// generateCode draws uniformly from 100000..999999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// IssueCode stores a fresh code on the user, replacing any outstanding one,
// and hands it to the notifier.
func (s *VerificationService) IssueCode(ctx context.Context, userID int64) error {
	code, err := s.generate()
	if err != nil {
		return err
	}
	issuedAt := s.now().UTC()

	user, err := s.store.MutateUser(userID, func(u *models.User) error {
		if u.IsVerified {
			return ErrAlreadyVerified
		}
		u.VerificationCode = &code
		u.VerificationIssuedAt = &issuedAt
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.notifier.SendVerificationCode(ctx, user, code); err != nil {
		metrics.ObserveNotification(notify.KindVerificationCode, "error")
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("dispatch verification code failed")
		return nil
	}
	metrics.ObserveNotification(notify.KindVerificationCode, "ok")
	return nil
}

// Verify consumes the user's outstanding code. A successful call clears the
// code, so repeating it fails with ErrInvalidCode.
func (s *VerificationService) Verify(_ context.Context, email string, code string) (models.User, error) {
	found, err := s.store.GetUserByEmail(strings.TrimSpace(email))
	if err != nil {
		metrics.ObserveVerification("not_found")
		return models.User{}, err
	}

	now := s.now()
	user, err := s.store.MutateUser(found.ID, func(u *models.User) error {
		// A successful verify clears the code, so replaying it lands here.
		if u.VerificationCode == nil || subtle.ConstantTimeCompare([]byte(*u.VerificationCode), []byte(code)) != 1 {
			return ErrInvalidCode
		}
		if u.IsVerified {
			return ErrAlreadyVerified
		}
		if s.expired(u, now) {
			return ErrCodeExpired
		}
		u.IsVerified = true
		u.VerificationCode = nil
		u.VerificationIssuedAt = nil
		return nil
	})
	if err != nil {
		metrics.ObserveVerification(verificationResult(err))
		return models.User{}, err
	}

	metrics.ObserveVerification("ok")
	s.log.Info().Int64("user_id", user.ID).Msg("email verified")
	return user, nil
}

func (s *VerificationService) expired(u *models.User, now time.Time) bool {
	if s.ttl <= 0 || u.VerificationIssuedAt == nil {
		return false
	}
	return now.After(u.VerificationIssuedAt.Add(s.ttl))
}

// SweepExpired clears codes older than the TTL and returns how many were dropped.
func (s *VerificationService) SweepExpired() int {
	if s.ttl <= 0 {
		return 0
	}
	return s.store.ClearExpiredVerificationCodes(s.now().Add(-s.ttl))
}

func verificationResult(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyVerified):
		return "already_verified"
	case errors.Is(err, ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, ErrCodeExpired):
		return "expired"
	default:
		return "error"
	}
}
