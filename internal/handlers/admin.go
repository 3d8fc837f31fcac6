package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) AdminPendingListings(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	pending, err := h.listings.ListPending(c.Request.Context(), user)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginate(c, pending))
}

func (h HandlerSet) AdminApproveListing(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := listingID(c)
	if !ok {
		return
	}

	listing, err := h.listings.Approve(c.Request.Context(), id, user)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": toListingResponse(listing)})
}

func (h HandlerSet) AdminRejectListing(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := listingID(c)
	if !ok {
		return
	}

	if err := h.listings.Reject(c.Request.Context(), id, user); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
