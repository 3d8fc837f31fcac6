package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"realty/api/internal/config"
	"realty/api/internal/security"
	"realty/api/internal/store"
)

func newAuth(f *fixture) *AuthService {
	return NewAuthService(f.store, f.verification, f.cfg, zerolog.Nop())
}

func TestRegisterCreatesUnverifiedUserAndSendsCode(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)

	res, err := auth.Register(context.Background(), RegisterInput{
		Username:  "alice",
		Email:     " Alice@X.com ",
		Password:  "supersecret",
		FirstName: "Alice",
		LastName:  "Liddell",
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)
	require.Equal(t, "alice@x.com", res.User.Email)
	require.False(t, res.User.IsVerified)
	require.False(t, res.User.IsAdmin)

	sent := f.notifier.last(t)
	require.Equal(t, res.User.ID, sent.UserID)

	claims, err := security.ParseAccessToken(res.AccessToken, f.cfg.Security.JWTAccessSecret)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, claims.UserID)
	require.Equal(t, res.DeviceID, claims.DeviceID)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)
	ctx := context.Background()

	_, err := auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = auth.Register(ctx, RegisterInput{Username: "Alice", Email: "new@x.com", Password: "pw"})
	require.ErrorIs(t, err, store.ErrUsernameTaken)
	_, err = auth.Register(ctx, RegisterInput{Username: "other", Email: "ALICE@x.com", Password: "pw"})
	require.ErrorIs(t, err, store.ErrEmailTaken)
	_, err = auth.Register(ctx, RegisterInput{Username: "x", Email: "", Password: "pw"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestRegisterRejectsUsernameWithAt(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)
	ctx := context.Background()

	_, err := auth.Register(ctx, RegisterInput{Username: "bob@x.com", Email: "bob@x.com", Password: "supersecret"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@x.com", Password: "supersecret"})
	require.NoError(t, err)
	_, err = auth.Register(ctx, RegisterInput{Username: "alice@x.com", Email: "mallory@x.com", Password: "supersecret"})
	require.ErrorIs(t, err, ErrValidation)

	res, err := auth.Login(ctx, LoginInput{Login: "alice@x.com", Password: "supersecret"})
	require.NoError(t, err)
	require.Equal(t, "alice", res.User.Username)
}

func TestLoginByUsernameOrEmail(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)
	ctx := context.Background()

	_, err := auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@x.com", Password: "supersecret"})
	require.NoError(t, err)

	res, err := auth.Login(ctx, LoginInput{Login: "ALICE", Password: "supersecret", DeviceID: "laptop"})
	require.NoError(t, err)
	require.Equal(t, "laptop", res.DeviceID)

	_, err = auth.Login(ctx, LoginInput{Login: "alice@x.com", Password: "supersecret"})
	require.NoError(t, err)

	_, err = auth.Login(ctx, LoginInput{Login: "alice", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, LoginInput{Login: "ghost", Password: "supersecret"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSessionLimitIsEnforced(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)
	ctx := context.Background()

	reg, err := auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@x.com", Password: "supersecret"})
	require.NoError(t, err)
	for _, device := range []string{"a", "b", "c", "d"} {
		_, err := auth.Login(ctx, LoginInput{Login: "alice", Password: "supersecret", DeviceID: device})
		require.NoError(t, err)
	}

	require.Len(t, f.store.ListSessionsByUser(reg.User.ID), f.cfg.Security.MaxSessions)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)
	ctx := context.Background()

	reg, err := auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@x.com", Password: "supersecret"})
	require.NoError(t, err)

	refreshed, err := auth.Refresh(ctx, RefreshInput{UserID: reg.User.ID, DeviceID: reg.DeviceID, RefreshToken: reg.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, reg.RefreshToken, refreshed.RefreshToken)

	_, err = auth.Refresh(ctx, RefreshInput{UserID: reg.User.ID, DeviceID: reg.DeviceID, RefreshToken: reg.RefreshToken})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Refresh(ctx, RefreshInput{UserID: reg.User.ID, DeviceID: "other", RefreshToken: refreshed.RefreshToken})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshTokenReplayedConcurrently(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)
	ctx := context.Background()

	reg, err := auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@x.com", Password: "supersecret"})
	require.NoError(t, err)

	const attempts = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		issued  []string
		refused []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := auth.Refresh(ctx, RefreshInput{UserID: reg.User.ID, DeviceID: reg.DeviceID, RefreshToken: reg.RefreshToken})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				refused = append(refused, err)
				return
			}
			issued = append(issued, res.RefreshToken)
		}()
	}
	wg.Wait()

	require.Len(t, issued, 1)
	require.Len(t, refused, attempts-1)
	for _, err := range refused {
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, err = auth.Refresh(ctx, RefreshInput{UserID: reg.User.ID, DeviceID: reg.DeviceID, RefreshToken: issued[0]})
	require.NoError(t, err)
}

func TestLogoutDropsDeviceSession(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)
	ctx := context.Background()

	reg, err := auth.Register(ctx, RegisterInput{Username: "alice", Email: "alice@x.com", Password: "supersecret"})
	require.NoError(t, err)
	require.Len(t, f.store.ListSessionsByUser(reg.User.ID), 1)

	auth.Logout(ctx, reg.User.ID, reg.DeviceID)
	require.Empty(t, f.store.ListSessionsByUser(reg.User.ID))
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	auth := newAuth(f)
	ctx := context.Background()

	none, err := auth.EnsureAdmin(ctx, config.AdminConfig{})
	require.NoError(t, err)
	require.Zero(t, none.ID)

	admin, err := auth.EnsureAdmin(ctx, config.AdminConfig{Username: "root", Email: "Root@x.com", Password: "changeme"})
	require.NoError(t, err)
	require.True(t, admin.IsAdmin)
	require.True(t, admin.IsVerified)
	require.Equal(t, "root@x.com", admin.Email)

	again, err := auth.EnsureAdmin(ctx, config.AdminConfig{Username: "root", Email: "root@x.com", Password: "changeme"})
	require.NoError(t, err)
	require.Equal(t, admin.ID, again.ID)

	_, err = auth.EnsureAdmin(ctx, config.AdminConfig{Username: "other"})
	require.Error(t, err)
}
