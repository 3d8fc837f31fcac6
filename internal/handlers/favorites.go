package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) AddFavorite(c *gin.Context) {
	h.toggleFavorite(c, true)
}

func (h HandlerSet) RemoveFavorite(c *gin.Context) {
	h.toggleFavorite(c, false)
}

func (h HandlerSet) toggleFavorite(c *gin.Context, on bool) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := listingID(c)
	if !ok {
		return
	}

	if err := h.listings.ToggleFavorite(c.Request.Context(), user, id, on); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) MyFavorites(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	favorites := h.listings.Favorites(c.Request.Context(), user)
	c.JSON(http.StatusOK, gin.H{
		"items": toListingResponses(favorites),
	})
}
