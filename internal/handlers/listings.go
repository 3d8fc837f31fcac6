package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"realty/api/internal/middleware"
	"realty/api/internal/models"
	"realty/api/internal/service"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type listingResponse struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ListingType  string    `json:"listingType"`
	PropertyType string    `json:"propertyType"`
	Region       string    `json:"region"`
	City         string    `json:"city"`
	District     string    `json:"district"`
	Address      string    `json:"address"`
	Price        int64     `json:"price"`
	Area         float64   `json:"area"`
	Rooms        int       `json:"rooms"`
	Photos       []string  `json:"photos"`
	PrimaryPhoto string    `json:"primaryPhoto,omitempty"`
	Approved     bool      `json:"approved"`
	IsFavorite   *bool     `json:"isFavorite,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toListingResponse(l models.Listing) listingResponse {
	photos := l.Photos
	if photos == nil {
		photos = []string{}
	}
	return listingResponse{
		ID:           l.ID,
		UserID:       l.UserID,
		Title:        l.Title,
		Description:  l.Description,
		ListingType:  string(l.ListingType),
		PropertyType: string(l.PropertyType),
		Region:       l.Region,
		City:         l.City,
		District:     l.District,
		Address:      l.Address,
		Price:        l.Price,
		Area:         l.Area,
		Rooms:        l.Rooms,
		Photos:       photos,
		PrimaryPhoto: l.PrimaryPhoto(),
		Approved:     l.Approved,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func toListingResponses(listings []models.Listing) []listingResponse {
	items := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		items = append(items, toListingResponse(l))
	}
	return items
}

// paginate reads page/perPage the same way for every list endpoint.
// Out-of-range values fall back to the defaults.
func paginate(c *gin.Context, listings []models.Listing) gin.H {
	limit := defaultPerPage
	page := 1

	if perPage := c.Query("perPage"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= maxPerPage {
			limit = v
		}
	}
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 1 {
			page = v
		}
	}

	total := len(listings)
	start := total
	// (page-1)*limit may overflow for huge page values.
	if page-1 <= total/limit {
		start = min((page-1)*limit, total)
	}
	end := min(start+limit, total)

	return gin.H{
		"items":   toListingResponses(listings[start:end]),
		"page":    page,
		"perPage": limit,
		"total":   total,
	}
}

func (h HandlerSet) ListListings(c *gin.Context) {
	listings := h.listings.Search(c.Request.Context(), c.Request.URL.Query())
	c.JSON(http.StatusOK, paginate(c, listings))
}

func (h HandlerSet) GetListing(c *gin.Context) {
	id, ok := listingID(c)
	if !ok {
		return
	}

	var caller *models.User
	if user, ok := middleware.CurrentUser(c); ok {
		caller = &user
	}

	listing, err := h.listings.Get(c.Request.Context(), id, caller)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := toListingResponse(listing)
	if caller != nil {
		fav := h.listings.IsFavorite(c.Request.Context(), caller.ID, listing.ID)
		resp.IsFavorite = &fav
	}
	c.JSON(http.StatusOK, gin.H{"listing": resp})
}

type createListingRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	ListingType  string   `json:"listingType" binding:"required"`
	PropertyType string   `json:"propertyType" binding:"required"`
	Region       string   `json:"region"`
	City         string   `json:"city" binding:"required"`
	District     string   `json:"district"`
	Address      string   `json:"address"`
	Price        int64    `json:"price"`
	Area         float64  `json:"area"`
	Rooms        int      `json:"rooms"`
	Photos       []string `json:"photos"`
}

func (h HandlerSet) CreateListing(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	listing, err := h.listings.Create(c.Request.Context(), user.ID, service.ListingInput{
		Title:        req.Title,
		Description:  req.Description,
		ListingType:  models.ListingType(req.ListingType),
		PropertyType: models.PropertyType(req.PropertyType),
		Region:       req.Region,
		City:         req.City,
		District:     req.District,
		Address:      req.Address,
		Price:        req.Price,
		Area:         req.Area,
		Rooms:        req.Rooms,
		Photos:       req.Photos,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"listing": toListingResponse(listing)})
}

type updateListingRequest struct {
	Title        *string  `json:"title"`
	Description  *string  `json:"description"`
	ListingType  *string  `json:"listingType"`
	PropertyType *string  `json:"propertyType"`
	Region       *string  `json:"region"`
	City         *string  `json:"city"`
	District     *string  `json:"district"`
	Address      *string  `json:"address"`
	Price        *int64   `json:"price"`
	Area         *float64 `json:"area"`
	Rooms        *int     `json:"rooms"`
	Photos       []string `json:"photos"`
}

func (r updateListingRequest) patch() models.ListingPatch {
	patch := models.ListingPatch{
		Title:       r.Title,
		Description: r.Description,
		Region:      r.Region,
		City:        r.City,
		District:    r.District,
		Address:     r.Address,
		Price:       r.Price,
		Area:        r.Area,
		Rooms:       r.Rooms,
		Photos:      r.Photos,
	}
	if r.ListingType != nil {
		lt := models.ListingType(*r.ListingType)
		patch.ListingType = &lt
	}
	if r.PropertyType != nil {
		pt := models.PropertyType(*r.PropertyType)
		patch.PropertyType = &pt
	}
	return patch
}

func (h HandlerSet) UpdateListing(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := listingID(c)
	if !ok {
		return
	}

	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	listing, err := h.listings.Update(c.Request.Context(), id, user, req.patch())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": toListingResponse(listing)})
}

func (h HandlerSet) DeleteListing(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := listingID(c)
	if !ok {
		return
	}

	if err := h.listings.Delete(c.Request.Context(), id, user); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) MyListings(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	listings := h.listings.ListByOwner(c.Request.Context(), user.ID)
	c.JSON(http.StatusOK, paginate(c, listings))
}
