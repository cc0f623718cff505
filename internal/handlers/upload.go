package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pollup/internal/apperr"
	"pollup/internal/services"
	"pollup/internal/utils"
)

// UploadHandler issues upload authorizations for the object storage
// collaborator. The bytes never pass through this service.
type UploadHandler struct {
	uploads *services.UploadService
}

func NewUploadHandler(uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

type signUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// Sign handles POST /api/uploads/sign.
func (h *UploadHandler) Sign(c *gin.Context) {
	var req signUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("content_type is required"))
		return
	}

	grant, err := h.uploads.IssueGrant(c.Request.Context(), req.ContentType)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"grant": grant})
}

// Verify handles GET /api/uploads/verify — the storage host checks an
// inbound upload's grant before accepting bytes, then consumes it.
func (h *UploadHandler) Verify(c *gin.Context) {
	key := c.Query("key")
	contentType := c.Query("content_type")
	sig := c.Query("sig")
	exp := utils.StringToInt(c.Query("exp"))
	if key == "" || contentType == "" || sig == "" || exp == 0 {
		Fail(c, apperr.Validation("key, content_type, sig and exp are required"))
		return
	}

	expiresAt := time.Unix(int64(exp), 0)
	if err := h.uploads.VerifyGrant(c.Request.Context(), key, contentType, sig, expiresAt); err != nil {
		Fail(c, err)
		return
	}
	if err := h.uploads.ConsumeGrant(c.Request.Context(), key); err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"public_url": h.uploads.PublicURL(key)})
}
