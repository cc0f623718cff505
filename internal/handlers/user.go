package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pollup/internal/apperr"
	"pollup/internal/middleware"
	"pollup/internal/services"
	"pollup/internal/utils"
)

type UserHandler struct {
	content *services.ContentService
}

func NewUserHandler(content *services.ContentService) *UserHandler {
	return &UserHandler{content: content}
}

// GetByID handles GET /api/users/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		Fail(c, err)
		return
	}
	user, err := h.content.GetUserByID(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": Token(user.ID)})
}

// GetByUsername handles GET /api/username/:username
func (h *UserHandler) GetByUsername(c *gin.Context) {
	user, err := h.content.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": Token(user.ID)})
}

// Posts handles GET /api/users/:id/posts
func (h *UserHandler) Posts(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		Fail(c, err)
		return
	}
	limit, offset := utils.ParsePage(c.Query("limit"), c.Query("offset"), services.DefaultPageSize)
	posts, err := h.content.GetUserPosts(c.Request.Context(), id, limit, offset)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Follow handles POST /api/users/:id/follow
func (h *UserHandler) Follow(c *gin.Context) {
	current := middleware.CurrentUser(c)
	id, err := PathID(c, "id")
	if err != nil {
		Fail(c, err)
		return
	}
	if err := h.content.Follow(c.Request.Context(), current.ID, id); err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "following"})
}

// Unfollow handles DELETE /api/users/:id/follow
func (h *UserHandler) Unfollow(c *gin.Context) {
	current := middleware.CurrentUser(c)
	id, err := PathID(c, "id")
	if err != nil {
		Fail(c, err)
		return
	}
	if err := h.content.Unfollow(c.Request.Context(), current.ID, id); err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unfollowed"})
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	Avatar      string `json:"avatar"`
}

// UpdateProfile handles PUT /api/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	current := middleware.CurrentUser(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("invalid request body"))
		return
	}
	user, err := h.content.UpdateProfile(c.Request.Context(), current.ID, req.DisplayName, req.Bio, req.Avatar)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
