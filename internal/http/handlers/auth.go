package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/iof-learning/internal/http/response"
	"github.com/yungbote/iof-learning/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// POST /api/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	u, err := ah.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err, "registration_failed")
		return
	}
	response.RespondCreated(c, gin.H{"user": services.Session{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, Role: u.Role}})
}

// POST /api/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	pair, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondAPIError(c, err, "login_failed")
		return
	}
	response.RespondOK(c, pair)
}

// POST /api/auth/google
// body: { "id_token": "..." }
func (ah *AuthHandler) Google(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token"`
	}
	if !bindJSON(c, &req) {
		return
	}
	pair, err := ah.authService.LoginWithGoogle(c.Request.Context(), req.IDToken)
	if err != nil {
		response.RespondAPIError(c, err, "google_signin_failed")
		return
	}
	response.RespondOK(c, pair)
}

// POST /api/refresh
func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !bindJSON(c, &req) {
		return
	}
	pair, err := ah.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.RespondAPIError(c, err, "refresh_failed")
		return
	}
	response.RespondOK(c, pair)
}

// POST /api/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.Logout(c.Request.Context()); err != nil {
		response.RespondAPIError(c, err, "logout_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/me
func (ah *AuthHandler) Me(c *gin.Context) {
	me, err := ah.authService.Me(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err, "me_failed")
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// POST /api/password/forgot
// Always 202 so the response does not reveal whether the address is registered.
func (ah *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := ah.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		response.RespondAPIError(c, err, "password_reset_failed")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

// POST /api/password/reset
func (ah *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := ah.authService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		response.RespondAPIError(c, err, "password_reset_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
