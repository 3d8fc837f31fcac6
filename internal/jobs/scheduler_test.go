package jobs

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"realty/api/internal/config"
	"realty/api/internal/models"
	"realty/api/internal/notify"
	"realty/api/internal/service"
	"realty/api/internal/store"
)

func TestPruneSessions(t *testing.T) {
	st := store.New()
	st.CreateSession(models.Session{ID: "old", UserID: 1, DeviceID: "d1", ExpiresAt: time.Now().Add(-time.Hour)})
	st.CreateSession(models.Session{ID: "live", UserID: 1, DeviceID: "d2", ExpiresAt: time.Now().Add(time.Hour)})

	s := NewScheduler(st, nil, config.JobsConfig{}, zerolog.Nop())
	s.PruneSessions()

	_, err := st.GetSession("old")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetSession("live")
	require.NoError(t, err)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	st := store.New()
	s := NewScheduler(st, nil, config.JobsConfig{SessionPrune: "not a cron spec"}, zerolog.Nop())
	require.Error(t, s.Start())
}

func TestSweepVerificationCodes(t *testing.T) {
	st := store.New()
	cfg := &config.AppConfig{Security: config.SecurityConfig{VerificationCodeTTL: time.Minute}}
	verification := service.NewVerificationService(st, notify.NewLogNotifier(zerolog.Nop()), cfg, zerolog.Nop())

	issued := time.Now().Add(-time.Hour)
	code := "123456"
	user, err := st.CreateUser(models.User{Username: "a", Email: "a@x.com", VerificationCode: &code, VerificationIssuedAt: &issued})
	require.NoError(t, err)

	s := NewScheduler(st, verification, config.JobsConfig{}, zerolog.Nop())
	s.SweepVerificationCodes()

	got, err := st.GetUser(user.ID)
	require.NoError(t, err)
	require.Nil(t, got.VerificationCode)
}
