package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"realty/api/internal/config"
	"realty/api/internal/ids"
	"realty/api/internal/models"
	"realty/api/internal/security"
	"realty/api/internal/store"
)

type AuthService struct {
	store        *store.Store
	verification *VerificationService
	cfg          *config.AppConfig
	log          zerolog.Logger
}

func NewAuthService(st *store.Store, verification *VerificationService, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		store:        st,
		verification: verification,
		cfg:          cfg,
		log:          log,
	}
}

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	MiddleName  *string
	PhoneNumber *string
	DeviceName  string
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	User         models.User
	DeviceID     string
}

// Register creates an unverified account, sends its first verification code
// and opens a session.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (AuthResult, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return AuthResult{}, validationError("username, email and password required")
	}
	// Login treats any identifier containing "@" as an email address.
	if strings.Contains(input.Username, "@") {
		return AuthResult{}, validationError("username must not contain @")
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return AuthResult{}, err
	}

	user, err := s.store.CreateUser(models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		MiddleName:   input.MiddleName,
		PhoneNumber:  input.PhoneNumber,
	})
	if err != nil {
		return AuthResult{}, err
	}
	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")

	if err := s.verification.IssueCode(ctx, user.ID); err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("issue verification code failed")
	}

	deviceName := input.DeviceName
	if deviceName == "" {
		deviceName = "New Device"
	}
	return s.createSession(user, ids.New(), deviceName, "", "")
}

type LoginInput struct {
	// Login is a username or an email address.
	Login      string
	Password   string
	DeviceID   string
	DeviceName string
	IPAddress  string
	UserAgent  string
}

func (s *AuthService) Login(_ context.Context, input LoginInput) (AuthResult, error) {
	login := strings.TrimSpace(input.Login)

	var (
		user models.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.store.GetUserByEmail(login)
	} else {
		user, err = s.store.GetUserByUsername(login)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	deviceID := input.DeviceID
	if deviceID == "" {
		deviceID = ids.New()
	}
	deviceName := input.DeviceName
	if deviceName == "" {
		deviceName = "Unknown Device"
	}
	return s.createSession(user, deviceID, deviceName, input.IPAddress, input.UserAgent)
}

func (s *AuthService) createSession(user models.User, deviceID, deviceName, ipAddress, userAgent string) (AuthResult, error) {
	refreshToken, refreshHash, err := security.GenerateRefreshToken(64)
	if err != nil {
		return AuthResult{}, err
	}

	session := s.store.CreateSession(models.Session{
		ID:               ids.New(),
		UserID:           user.ID,
		DeviceID:         deviceID,
		DeviceName:       deviceName,
		RefreshTokenHash: refreshHash,
		IPAddress:        ipAddress,
		UserAgent:        userAgent,
		ExpiresAt:        time.Now().Add(s.cfg.Security.JWTRefreshTTL),
	})

	accessToken, err := security.GenerateAccessToken(
		s.cfg.Security.JWTAccessSecret,
		user.ID,
		session.ID,
		deviceID,
		user.IsAdmin,
		s.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		return AuthResult{}, err
	}

	if s.cfg.Security.MaxSessions > 0 {
		if trimmed := s.store.TrimSessions(user.ID, s.cfg.Security.MaxSessions); trimmed > 0 {
			s.log.Debug().Int64("user_id", user.ID).Int("trimmed", trimmed).Msg("session limit enforced")
		}
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
		DeviceID:     deviceID,
	}, nil
}

type RefreshInput struct {
	UserID       int64
	RefreshToken string
	DeviceID     string
}

// Refresh rotates the refresh token of an existing session. A token is
// accepted once; concurrent replays of it fail.
func (s *AuthService) Refresh(_ context.Context, input RefreshInput) (AuthResult, error) {
	user, err := s.store.GetUser(input.UserID)
	if err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	refreshToken, newHash, err := security.GenerateRefreshToken(64)
	if err != nil {
		return AuthResult{}, err
	}
	session, err := s.store.RotateRefreshToken(
		input.UserID,
		input.DeviceID,
		security.HashRefreshToken(input.RefreshToken),
		newHash,
		time.Now().Add(s.cfg.Security.JWTRefreshTTL),
	)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrSessionExpired) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	accessToken, err := security.GenerateAccessToken(
		s.cfg.Security.JWTAccessSecret,
		user.ID,
		session.ID,
		session.DeviceID,
		user.IsAdmin,
		s.cfg.Security.JWTAccessTTL,
	)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
		DeviceID:     session.DeviceID,
	}, nil
}

func (s *AuthService) Logout(_ context.Context, userID int64, deviceID string) {
	s.store.DeleteSessionsByDevice(userID, deviceID)
}

// EnsureAdmin seeds the configured admin account as verified. An existing
// account with that username is promoted instead.
func (s *AuthService) EnsureAdmin(_ context.Context, admin config.AdminConfig) (models.User, error) {
	if admin.Username == "" {
		return models.User{}, nil
	}

	yes := true
	if existing, err := s.store.GetUserByUsername(admin.Username); err == nil {
		return s.store.UpdateUser(existing.ID, models.UserPatch{IsAdmin: &yes, IsVerified: &yes, ClearVerification: true})
	}

	if admin.Password == "" {
		return models.User{}, fmt.Errorf("admin password required to seed %q", admin.Username)
	}
	hash, err := security.HashPassword(admin.Password)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.store.CreateUser(models.User{
		Username:     admin.Username,
		Email:        strings.ToLower(admin.Email),
		PasswordHash: hash,
		FirstName:    "Admin",
		IsAdmin:      true,
		IsVerified:   true,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("seed admin: %w", err)
	}
	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("admin account seeded")
	return user, nil
}
