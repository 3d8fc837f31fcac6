package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"realty/api/internal/config"
	"realty/api/internal/ids"
	"realty/api/internal/models"
	"realty/api/internal/security"
	"realty/api/internal/service"
	"realty/api/internal/store"
)

type codeRecorder struct {
	mu    sync.Mutex
	codes map[string]string
}

func (r *codeRecorder) SendVerificationCode(_ context.Context, user models.User, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[user.Email] = code
	return nil
}

func (r *codeRecorder) code(email string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.codes[email]
}

type testAPI struct {
	t        *testing.T
	engine   *gin.Engine
	store    *store.Store
	cfg      *config.AppConfig
	codes    *codeRecorder
	listings *service.ListingService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			JWTAccessSecret:     "test-secret",
			JWTAccessTTL:        time.Minute,
			JWTRefreshTTL:       time.Hour,
			MaxSessions:         5,
			VerificationCodeTTL: 30 * time.Minute,
		},
	}
	st := store.New()
	codes := &codeRecorder{codes: map[string]string{}}
	log := zerolog.Nop()

	verification := service.NewVerificationService(st, codes, cfg, log)
	listings := service.NewListingService(st, log)
	handlerSet := NewHandlerSet(log, cfg, st, Services{
		Auth:         service.NewAuthService(st, verification, cfg, log),
		Verification: verification,
		Listings:     listings,
	}, nil)

	engine := gin.New()
	handlerSet.Register(engine.Group("/api"))

	return &testAPI{t: t, engine: engine, store: st, cfg: cfg, codes: codes, listings: listings}
}

// user creates an account directly in the store and returns it with a valid access token.
func (a *testAPI) user(name string, verified, admin bool) (models.User, string) {
	a.t.Helper()
	u, err := a.store.CreateUser(models.User{
		Username:   name,
		Email:      name + "@x.com",
		IsVerified: verified,
		IsAdmin:    admin,
	})
	require.NoError(a.t, err)

	session := a.store.CreateSession(models.Session{
		ID:        ids.New(),
		UserID:    u.ID,
		DeviceID:  "device-" + name,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	token, err := security.GenerateAccessToken(a.cfg.Security.JWTAccessSecret, u.ID, session.ID, session.DeviceID, admin, time.Minute)
	require.NoError(a.t, err)
	return u, token
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) createListing(token, city string, price int64) int64 {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/listings", token, listingBody(city, price))
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Listing listingResponse `json:"listing"`
	}
	decode(a.t, rec, &resp)
	require.False(a.t, resp.Listing.Approved)
	return resp.Listing.ID
}

func (a *testAPI) approve(adminToken string, id int64) {
	a.t.Helper()
	rec := a.do(http.MethodPost, fmt.Sprintf("/api/v1/admin/listings/%d/approve", id), adminToken, nil)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
}

func listingBody(city string, price int64) gin.H {
	return gin.H{
		"title":        "Flat in " + city,
		"description":  "Two rooms",
		"listingType":  "sale",
		"propertyType": "apartment",
		"region":       "Central",
		"city":         city,
		"district":     "Old Town",
		"address":      "1 Main St",
		"price":        price,
		"area":         54.5,
		"rooms":        2,
		"photos":       []string{"https://cdn.example.com/1.jpg"},
	}
}

type listPage struct {
	Items   []listingResponse `json:"items"`
	Page    int               `json:"page"`
	PerPage int               `json:"perPage"`
	Total   int               `json:"total"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error
}

func (a *testAPI) publicIDs(query string) []int64 {
	a.t.Helper()
	rec := a.do(http.MethodGet, "/api/v1/listings"+query, "", nil)
	require.Equal(a.t, http.StatusOK, rec.Code)
	var page listPage
	decode(a.t, rec, &page)
	out := make([]int64, 0, len(page.Items))
	for _, item := range page.Items {
		out = append(out, item.ID)
	}
	return out
}
