package rest

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/myplanner/internal/common"
	"github.com/dmitrijs2005/myplanner/internal/server/services"
	"github.com/gin-gonic/gin"
)

// credentialsRequest accepts JSON or the OAuth2 password form.
type credentialsRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (h *handler) registerPrincipal(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "username and password are required")
		return
	}

	id, err := h.deps.Auth.Register(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"user_id": id,
		"message": "User registered successfully",
	})
}

func (h *handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		unauthorized(c, "unauthorized", msgCredentials)
		return
	}

	pair, err := h.deps.Auth.Login(c.Request.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.issue(c, pair)
}

// refresh reads the token from the cookie, falling back to the JSON body.
func (h *handler) refresh(c *gin.Context) {
	token := h.refreshTokenFrom(c)
	if token == "" {
		unauthorized(c, "invalid_refresh_token", msgRefresh)
		return
	}

	pair, err := h.deps.Auth.Refresh(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		return
	}

	h.issue(c, pair)
}

func (h *handler) logout(c *gin.Context) {
	if token := h.refreshTokenFrom(c); token != "" {
		if err := h.deps.Auth.Logout(c.Request.Context(), token); err != nil {
			writeError(c, err)
			return
		}
	}
	h.clearRefreshCookie(c)
	c.Status(http.StatusNoContent)
}

func (h *handler) logoutAll(c *gin.Context) {
	n, err := h.deps.Auth.LogoutAll(c.Request.Context(), subjectOf(c))
	if err != nil {
		writeError(c, err)
		return
	}
	h.clearRefreshCookie(c)
	respondOK(c, http.StatusOK, gin.H{"revoked": n})
}

func (h *handler) me(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{"username": subjectOf(c)})
}

func (h *handler) issue(c *gin.Context, pair *services.TokenPair) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(common.RefreshTokenCookieName, pair.RefreshToken, h.deps.Auth.RefreshTTLSeconds(),
		h.deps.Cookie.Path, "", h.deps.Cookie.Secure, true)

	respondOK(c, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    h.deps.Auth.AccessTTLSeconds(),
	})
}

func (h *handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(common.RefreshTokenCookieName, "", -1, h.deps.Cookie.Path, "", h.deps.Cookie.Secure, true)
}

func (h *handler) refreshTokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(common.RefreshTokenCookieName); err == nil && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.RefreshToken)
}
