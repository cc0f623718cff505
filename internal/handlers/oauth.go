package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"pollup/internal/apperr"
	"pollup/internal/config"
	"pollup/internal/models"
	"pollup/internal/services"
)

// OAuthHandler runs the browser-facing identity flow against Google.
// The provider verifies the user; we only mirror the resulting profile.
type OAuthHandler struct {
	content *services.ContentService
	oauth   *oauth2.Config
}

func NewOAuthHandler(content *services.ContentService, cfg config.Config) *OAuthHandler {
	return &OAuthHandler{
		content: content,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.SiteURL + "/auth/google/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func generateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Login kicks off the OAuth dance, stashing the state in the session.
func (h *OAuthHandler) Login(c *gin.Context) {
	state, err := generateStateToken()
	if err != nil {
		Fail(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set("oauth_state", state)
	session.Save()

	url := h.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// Callback validates the state, exchanges the code, pulls the profile
// from the provider and mirrors it into a local User.
func (h *OAuthHandler) Callback(c *gin.Context) {
	session := sessions.Default(c)
	savedState := session.Get("oauth_state")
	if savedState == nil || c.Query("state") != savedState.(string) {
		Fail(c, apperr.Validation("invalid oauth state"))
		return
	}
	session.Delete("oauth_state")

	token, err := h.oauth.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		Fail(c, apperr.Wrap(apperr.KindUpstreamUnavailable, err, "exchanging oauth code"))
		return
	}

	client := h.oauth.Client(c.Request.Context(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		Fail(c, apperr.Wrap(apperr.KindUpstreamUnavailable, err, "fetching provider profile"))
		return
	}
	defer resp.Body.Close()

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		Fail(c, apperr.Wrap(apperr.KindUpstreamUnavailable, err, "decoding provider profile"))
		return
	}
	if info.ID == "" || !info.VerifiedEmail {
		Fail(c, apperr.AuthenticationRequired("provider returned no verified identity"))
		return
	}

	user, err := h.content.MirrorIdentity(c.Request.Context(), models.Identity{
		ExternalID:  "google:" + info.ID,
		Email:       info.Email,
		DisplayName: info.Name,
		Avatar:      info.Picture,
	})
	if err != nil {
		Fail(c, err)
		return
	}

	session.Set("user_id", user.ID.Hex())
	if err := session.Save(); err != nil {
		Fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}
