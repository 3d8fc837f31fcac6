package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type verifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

func (h HandlerSet) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.verification.Verify(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": toUserResponse(user),
	})
}

// ResendVerification issues a fresh code to the caller, replacing any
// outstanding one.
func (h HandlerSet) ResendVerification(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.verification.IssueCode(c.Request.Context(), user.ID); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}
