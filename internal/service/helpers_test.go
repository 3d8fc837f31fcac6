package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"realty/api/internal/config"
	"realty/api/internal/models"
	"realty/api/internal/store"
)

type sentCode struct {
	UserID int64
	Email  string
	Code   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (f *fakeNotifier) SendVerificationCode(_ context.Context, user models.User, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentCode{UserID: user.ID, Email: user.Email, Code: code})
	return f.err
}

func (f *fakeNotifier) last(t *testing.T) sentCode {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no code dispatched")
	return f.sent[len(f.sent)-1]
}

var errDispatch = errors.New("smtp down")

type fixture struct {
	store        *store.Store
	notifier     *fakeNotifier
	verification *VerificationService
	listings     *ListingService
	cfg          *config.AppConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.AppConfig{
		Security: config.SecurityConfig{
			JWTAccessSecret:     "test-secret",
			JWTAccessTTL:        time.Minute,
			JWTRefreshTTL:       time.Hour,
			MaxSessions:         3,
			VerificationCodeTTL: 30 * time.Minute,
		},
		Storage: config.StorageConfig{MaxPhotoSize: 1 << 10},
	}
	st := store.New()
	notifier := &fakeNotifier{}
	return &fixture{
		store:        st,
		notifier:     notifier,
		verification: NewVerificationService(st, notifier, cfg, zerolog.Nop()),
		listings:     NewListingService(st, zerolog.Nop()),
		cfg:          cfg,
	}
}

func (f *fixture) user(t *testing.T, name string, verified, admin bool) models.User {
	t.Helper()
	u, err := f.store.CreateUser(models.User{
		Username:   name,
		Email:      name + "@x.com",
		IsVerified: verified,
		IsAdmin:    admin,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) listing(t *testing.T, owner models.User, city string, price int64) models.Listing {
	t.Helper()
	l, err := f.listings.Create(context.Background(), owner.ID, flatInput(city, price))
	require.NoError(t, err)
	return l
}

func (f *fixture) approved(t *testing.T, owner, admin models.User, city string, price int64) models.Listing {
	t.Helper()
	l := f.listing(t, owner, city, price)
	l, err := f.listings.Approve(context.Background(), l.ID, admin)
	require.NoError(t, err)
	return l
}

func flatInput(city string, price int64) ListingInput {
	return ListingInput{
		Title:        "Flat",
		Description:  "Sunny two-room flat",
		ListingType:  models.ListingTypeSale,
		PropertyType: models.PropertyTypeApartment,
		Region:       "Central",
		City:         city,
		District:     "Old Town",
		Address:      "1 Main St",
		Price:        price,
		Area:         54.5,
		Rooms:        2,
		Photos:       []string{"https://cdn.example.com/1.jpg"},
	}
}

func listingIDs(listings []models.Listing) []int64 {
	out := make([]int64, 0, len(listings))
	for _, l := range listings {
		out = append(out, l.ID)
	}
	return out
}
