package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFavoritesLifecycle(t *testing.T) {
	api := newTestAPI(t)
	_, aliceToken := api.user("alice", true, false)
	_, bobToken := api.user("bob", true, false)
	_, adminToken := api.user("root", true, true)
	id := api.createListing(aliceToken, "Kyiv", 50000)
	favPath := fmt.Sprintf("/api/v1/listings/%d/favorite", id)

	rec := api.do(http.MethodPut, favPath, bobToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code, "pending listing is not visible")

	api.approve(adminToken, id)
	require.Equal(t, http.StatusNoContent, api.do(http.MethodPut, favPath, bobToken, nil).Code)
	require.Equal(t, http.StatusNoContent, api.do(http.MethodPut, favPath, bobToken, nil).Code)

	rec = api.do(http.MethodGet, fmt.Sprintf("/api/v1/listings/%d", id), bobToken, nil)
	var resp struct {
		Listing listingResponse `json:"listing"`
	}
	decode(t, rec, &resp)
	require.NotNil(t, resp.Listing.IsFavorite)
	require.True(t, *resp.Listing.IsFavorite)

	var page listPage
	decode(t, api.do(http.MethodGet, "/api/v1/me/favorites", bobToken, nil), &page)
	require.Len(t, page.Items, 1)

	require.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, fmt.Sprintf("/api/v1/listings/%d", id), aliceToken, nil).Code)

	decode(t, api.do(http.MethodGet, "/api/v1/me/favorites", bobToken, nil), &page)
	require.Empty(t, page.Items)

	require.Equal(t, http.StatusNotFound, api.do(http.MethodPut, favPath, bobToken, nil).Code)
	require.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, favPath, bobToken, nil).Code)
}
