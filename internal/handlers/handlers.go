package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"realty/api/internal/config"
	"realty/api/internal/metrics"
	"realty/api/internal/middleware"
	"realty/api/internal/models"
	"realty/api/internal/service"
	"realty/api/internal/store"
)

// Services bundles the domain services the handlers call into.
type Services struct {
	Auth         *service.AuthService
	Verification *service.VerificationService
	Listings     *service.ListingService
	// Photos is nil when object storage is not configured.
	Photos *service.PhotoService
}

type HandlerSet struct {
	log          zerolog.Logger
	cfg          *config.AppConfig
	store        *store.Store
	cache        *redis.Client
	authService  *service.AuthService
	verification *service.VerificationService
	listings     *service.ListingService
	photos       *service.PhotoService
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, st *store.Store, services Services, cache *redis.Client) HandlerSet {
	return HandlerSet{
		log:          log,
		cfg:          cfg,
		store:        st,
		cache:        cache,
		authService:  services.Auth,
		verification: services.Verification,
		listings:     services.Listings,
		photos:       services.Photos,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)
	router.GET("/metrics", metrics.Handler())

	requireAuth := middleware.Auth(h.cfg, h.store)
	optionalAuth := middleware.OptionalAuth(h.cfg, h.store)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/verify", h.Verify)

		protected := v1.Group("/auth")
		protected.Use(requireAuth)
		protected.POST("/logout", h.Logout)
		protected.POST("/verify/resend", h.ResendVerification)
		protected.GET("/me", h.Me)
		protected.GET("/sessions", h.ListSessions)
		protected.DELETE("/sessions/:deviceId", h.RevokeSession)
	}

	public := v1.Group("/listings")
	public.Use(optionalAuth)
	public.GET("", h.ListListings)
	public.GET("/:id", h.GetListing)

	listings := v1.Group("/listings")
	listings.Use(requireAuth)
	listings.POST("", h.CreateListing)
	listings.PATCH("/:id", h.UpdateListing)
	listings.DELETE("/:id", h.DeleteListing)
	listings.POST("/:id/photos", h.UploadPhoto)
	listings.PUT("/:id/favorite", h.AddFavorite)
	listings.DELETE("/:id/favorite", h.RemoveFavorite)

	me := v1.Group("/me")
	me.Use(requireAuth)
	me.GET("/listings", h.MyListings)
	me.GET("/favorites", h.MyFavorites)

	admin := v1.Group("/admin")
	admin.Use(requireAuth, middleware.RequireAdmin())
	admin.GET("/listings/pending", h.AdminPendingListings)
	admin.POST("/listings/:id/approve", h.AdminApproveListing)
	admin.POST("/listings/:id/reject", h.AdminRejectListing)
}

// writeError maps domain errors onto status codes. Unknown errors are logged
// and reported as 500.
func (h HandlerSet) writeError(c *gin.Context, err error) {
	var (
		status int
		code   string
	)
	switch {
	case errors.Is(err, service.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrUnverified):
		status, code = http.StatusForbidden, "email_not_verified"
	case errors.Is(err, service.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	case errors.Is(err, store.ErrUsernameTaken):
		status, code = http.StatusConflict, "username_taken"
	case errors.Is(err, store.ErrEmailTaken):
		status, code = http.StatusConflict, "email_taken"
	case errors.Is(err, service.ErrInvalidCode):
		status, code = http.StatusBadRequest, "invalid_code"
	case errors.Is(err, service.ErrCodeExpired):
		status, code = http.StatusBadRequest, "code_expired"
	case errors.Is(err, service.ErrAlreadyVerified):
		status, code = http.StatusConflict, "already_verified"
	case errors.Is(err, service.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "invalid_credentials"
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		status, code = http.StatusInternalServerError, "internal_server_error"
	}
	c.JSON(status, gin.H{"error": code})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
}

func listingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return 0, false
	}
	return id, true
}

func requireUser(c *gin.Context) (models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return user, ok
}
