package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pollup/internal/apperr"
	"pollup/internal/codec"
	"pollup/internal/middleware"
	"pollup/internal/models"
	"pollup/internal/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VoteHandler struct {
	content *services.ContentService
}

func NewVoteHandler(content *services.ContentService) *VoteHandler {
	return &VoteHandler{content: content}
}

type castVoteRequest struct {
	PollID string        `json:"poll_id" binding:"required"`
	Choice models.Choice `json:"choice" binding:"required"`
}

// Cast handles POST /api/posts/:id/vote. A repeat vote from the same
// voter replaces the earlier ballot; the response always carries the
// summary recomputed from the full ballot set.
func (h *VoteHandler) Cast(c *gin.Context) {
	current := middleware.CurrentUser(c)
	postID, err := PathID(c, "id")
	if err != nil {
		Fail(c, err)
		return
	}

	var req castVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("poll_id and choice are required"))
		return
	}

	pollHex, err := codec.Decode(req.PollID)
	if err != nil {
		Fail(c, err)
		return
	}
	pollID, err := primitive.ObjectIDFromHex(pollHex)
	if err != nil {
		Fail(c, apperr.InvalidIdentifier("bad poll identifier %q", req.PollID))
		return
	}

	summary, err := h.content.CastVote(c.Request.Context(), current.ID, pollID, postID, req.Choice)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
