package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"realty/api/internal/config"
	"realty/api/internal/models"
	"realty/api/internal/security"
	"realty/api/internal/store"
)

func newAuthEngine(t *testing.T) (*gin.Engine, *store.Store, *config.AppConfig) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{Security: config.SecurityConfig{JWTAccessSecret: "test-secret"}}
	st := store.New()

	engine := gin.New()
	whoami := func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, user.Username)
	}
	engine.GET("/private", Auth(cfg, st), whoami)
	engine.GET("/public", OptionalAuth(cfg, st), whoami)
	engine.GET("/admin", Auth(cfg, st), RequireAdmin(), whoami)
	return engine, st, cfg
}

func issueToken(t *testing.T, st *store.Store, cfg *config.AppConfig, user models.User, deviceID string) (string, models.Session) {
	t.Helper()
	session := st.CreateSession(models.Session{
		ID:        "sess-" + user.Username + "-" + deviceID,
		UserID:    user.ID,
		DeviceID:  deviceID,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	token, err := security.GenerateAccessToken(cfg.Security.JWTAccessSecret, user.ID, session.ID, deviceID, user.IsAdmin, time.Minute)
	require.NoError(t, err)
	return token, session
}

func get(engine *gin.Engine, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestAuthAcceptsValidSession(t *testing.T) {
	engine, st, cfg := newAuthEngine(t)
	alice, err := st.CreateUser(models.User{Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)
	token, session := issueToken(t, st, cfg, alice, "laptop")

	rec := get(engine, "/private", "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice", rec.Body.String())

	touched, err := st.GetSession(session.ID)
	require.NoError(t, err)
	require.Equal(t, "192.0.2.1", touched.IPAddress)
}

func TestAuthRejects(t *testing.T) {
	engine, st, cfg := newAuthEngine(t)
	alice, err := st.CreateUser(models.User{Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)
	token, session := issueToken(t, st, cfg, alice, "laptop")

	require.Equal(t, http.StatusUnauthorized, get(engine, "/private", "").Code)
	require.Equal(t, http.StatusUnauthorized, get(engine, "/private", "Basic abc").Code)
	require.Equal(t, http.StatusUnauthorized, get(engine, "/private", "Bearer nope").Code)

	other, err := security.GenerateAccessToken("other-secret", alice.ID, session.ID, "laptop", false, time.Minute)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, get(engine, "/private", "Bearer "+other).Code)

	mismatch, err := security.GenerateAccessToken(cfg.Security.JWTAccessSecret, alice.ID, session.ID, "phone", false, time.Minute)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, get(engine, "/private", "Bearer "+mismatch).Code)

	require.NoError(t, st.DeleteSession(session.ID))
	require.Equal(t, http.StatusUnauthorized, get(engine, "/private", "Bearer "+token).Code)
}

func TestOptionalAuth(t *testing.T) {
	engine, st, cfg := newAuthEngine(t)
	alice, err := st.CreateUser(models.User{Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)
	token, _ := issueToken(t, st, cfg, alice, "laptop")

	rec := get(engine, "/public", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "anonymous", rec.Body.String())

	rec = get(engine, "/public", "Bearer "+token)
	require.Equal(t, "alice", rec.Body.String())

	require.Equal(t, http.StatusUnauthorized, get(engine, "/public", "Bearer nope").Code)
}

func TestRequireAdmin(t *testing.T) {
	engine, st, cfg := newAuthEngine(t)
	alice, err := st.CreateUser(models.User{Username: "alice", Email: "alice@x.com"})
	require.NoError(t, err)
	root, err := st.CreateUser(models.User{Username: "root", Email: "root@x.com", IsAdmin: true})
	require.NoError(t, err)

	aliceToken, _ := issueToken(t, st, cfg, alice, "laptop")
	rootToken, _ := issueToken(t, st, cfg, root, "laptop")

	require.Equal(t, http.StatusForbidden, get(engine, "/admin", "Bearer "+aliceToken).Code)
	require.Equal(t, http.StatusOK, get(engine, "/admin", "Bearer "+rootToken).Code)
}
