package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pollup/internal/apperr"
	"pollup/internal/middleware"
	"pollup/internal/services"
	"pollup/internal/utils"
)

type PostHandler struct {
	content *services.ContentService
}

func NewPostHandler(content *services.ContentService) *PostHandler {
	return &PostHandler{content: content}
}

// Create handles POST /api/posts
func (h *PostHandler) Create(c *gin.Context) {
	current := middleware.CurrentUser(c)

	var input services.CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		Fail(c, apperr.Validation("invalid request body"))
		return
	}

	post, err := h.content.CreatePost(c.Request.Context(), current.ID, input)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post, "token": Token(post.ID)})
}

// Get handles GET /api/posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	id, err := PathID(c, "id")
	if err != nil {
		Fail(c, err)
		return
	}
	post, err := h.content.GetPostByID(c.Request.Context(), id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post, "token": Token(post.ID)})
}

// Feed handles GET /api/feed
func (h *PostHandler) Feed(c *gin.Context) {
	limit, offset := utils.ParsePage(c.Query("limit"), c.Query("offset"), services.DefaultPageSize)
	posts, err := h.content.GetFeed(c.Request.Context(), limit, offset)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// ToggleLike handles POST /api/posts/:id/like — the idempotent
// add-or-remove toggle.
func (h *PostHandler) ToggleLike(c *gin.Context) {
	current := middleware.CurrentUser(c)
	id, err := PathID(c, "id")
	if err != nil {
		Fail(c, err)
		return
	}
	count, err := h.content.ToggleLike(c.Request.Context(), id, current.ID)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": count})
}

type addCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

// AddComment handles POST /api/posts/:id/comments
func (h *PostHandler) AddComment(c *gin.Context) {
	current := middleware.CurrentUser(c)
	id, err := PathID(c, "id")
	if err != nil {
		Fail(c, err)
		return
	}

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("comment body is required"))
		return
	}

	comment, err := h.content.AddComment(c.Request.Context(), id, current.ID, req.Body)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment, "token": Token(comment.ID)})
}
