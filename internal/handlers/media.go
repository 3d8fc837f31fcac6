package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"realty/api/internal/service"
)

func (h HandlerSet) UploadPhoto(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := listingID(c)
	if !ok {
		return
	}
	if h.photos == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage_unavailable"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}
	defer file.Close()

	listing, err := h.photos.Upload(c.Request.Context(), service.PhotoInput{
		Caller:    user,
		ListingID: id,
		File:      file,
		Header:    header,
	})
	if err != nil {
		h.log.Warn().Err(err).Int64("user_id", user.ID).Int64("listing_id", id).Msg("photo upload failed")
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": toListingResponse(listing)})
}
