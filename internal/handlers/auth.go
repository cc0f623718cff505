package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"pollup/internal/apperr"
	"pollup/internal/services"
)

type AuthHandler struct {
	content  *services.ContentService
	identity *services.IdentityService
}

func NewAuthHandler(content *services.ContentService, identity *services.IdentityService) *AuthHandler {
	return &AuthHandler{content: content, identity: identity}
}

type signInRequest struct {
	Token string `json:"token" binding:"required"`
}

// SignUp exchanges a provider-issued identity token for a session,
// mirroring the profile into a local User on first sight. Sign-in is the
// same exchange; the mirror upsert makes the two indistinguishable.
func (h *AuthHandler) SignUp(c *gin.Context) {
	h.exchange(c, http.StatusCreated)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	h.exchange(c, http.StatusOK)
}

func (h *AuthHandler) exchange(c *gin.Context, status int) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, apperr.Validation("token is required"))
		return
	}

	ident, err := h.identity.VerifyToken(req.Token)
	if err != nil {
		Fail(c, err)
		return
	}

	user, err := h.content.MirrorIdentity(c.Request.Context(), *ident)
	if err != nil {
		Fail(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID.Hex())
	if err := session.Save(); err != nil {
		Fail(c, err)
		return
	}

	c.JSON(status, gin.H{"user": user, "token": Token(user.ID)})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}
