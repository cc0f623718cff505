package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pollup/internal/middleware"
	"pollup/internal/services"
	"pollup/internal/utils"
)

type NotificationHandler struct {
	content *services.ContentService
}

func NewNotificationHandler(content *services.ContentService) *NotificationHandler {
	return &NotificationHandler{content: content}
}

// List handles GET /api/notifications, newest first with a has_more flag.
func (h *NotificationHandler) List(c *gin.Context) {
	current := middleware.CurrentUser(c)
	limit, offset := utils.ParsePage(c.Query("limit"), c.Query("offset"), services.DefaultPageSize)

	page, err := h.content.GetNotifications(c.Request.Context(), current.ID, limit, offset)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Read handles POST /api/notifications/:id/read. Idempotent: marking an
// already-read notification is a no-op.
func (h *NotificationHandler) Read(c *gin.Context) {
	current := middleware.CurrentUser(c)
	id, err := PathID(c, "id")
	if err != nil {
		Fail(c, err)
		return
	}
	if err := h.content.MarkNotificationRead(c.Request.Context(), id, current.ID); err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "read"})
}

// ReadAll handles POST /api/notifications/read-all.
func (h *NotificationHandler) ReadAll(c *gin.Context) {
	current := middleware.CurrentUser(c)
	if err := h.content.MarkAllNotificationsRead(c.Request.Context(), current.ID); err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all read"})
}

// Unread handles GET /api/notifications/unread.
func (h *NotificationHandler) Unread(c *gin.Context) {
	current := middleware.CurrentUser(c)
	count, err := h.content.CountUnread(c.Request.Context(), current.ID)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}
