package handler

import (
	"errors"
	"net/http"
	"time"

	"account_service/internal/middleware"
	"account_service/internal/model"
	"account_service/internal/service"

	"github.com/gin-gonic/gin"
)

// CookieConfig controls the token carriers. Cookies are always HttpOnly so
// page scripts cannot read them; Secure is off only for local development.
type CookieConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Secure     bool
}

// AuthHandler handles account lifecycle requests
type AuthHandler struct {
	service service.AuthService
	cookies CookieConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(s service.AuthService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{service: s, cookies: cookies}
}

// Helper to get the authenticated user set by the session middleware
func authUser(c *gin.Context) (*model.User, error) {
	userVal, exists := c.Get(middleware.AuthUserKey)
	if !exists {
		return nil, errors.New("user not found in context")
	}
	user, ok := userVal.(*model.User)
	if !ok {
		return nil, errors.New("invalid user type in context")
	}
	return user, nil
}

func authRoleName(c *gin.Context) string {
	roleVal, exists := c.Get(middleware.AuthRoleKey)
	if !exists {
		return ""
	}
	roleName, _ := roleVal.(string)
	return roleName
}

func (h *AuthHandler) setTokenCookies(c *gin.Context, pair service.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, pair.Access, int(h.cookies.AccessTTL.Seconds()), "/", "", h.cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, pair.Refresh, int(h.cookies.RefreshTTL.Seconds()), "/", "", h.cookies.Secure, true)
}

func (h *AuthHandler) clearTokenCookies(c *gin.Context) {
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", h.cookies.Secure, true)
	c.SetCookie(middleware.RefreshTokenCookie, "", -1, "/", "", h.cookies.Secure, true)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.service.Register(c.Request.Context(), req); err != nil {
		if errors.Is(err, service.ErrAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful"})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	pair, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidCredentials.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to login"})
		return
	}

	h.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": "Login successful"})
}

// Logout clears both carriers. Tokens are stateless, so there is no
// server-side session to tear down.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearTokenCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := authUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.UserInfo{
		ID:          user.ID,
		PhoneNumber: user.PhoneNumber,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		RoleID:      user.RoleID,
		RoleName:    authRoleName(c),
	})
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	user, err := authUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.service.UpdateProfile(c.Request.Context(), user.ID, req); err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, err := authUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), user, req); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

func (h *AuthHandler) DeleteMe(c *gin.Context) {
	user, err := authUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.DeleteAccount(c.Request.Context(), user.ID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}

	h.clearTokenCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}

// Refresh rotates the token pair for a caller holding a valid refresh token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	user, err := authUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.service.IssueTokens(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh tokens"})
		return
	}

	h.setTokenCookies(c, pair)
	c.JSON(http.StatusOK, gin.H{"message": "Tokens refreshed"})
}

// RegisterAuthRoutes registers account routes
func (h *AuthHandler) RegisterAuthRoutes(rg *gin.RouterGroup, authMW, refreshMW gin.HandlerFunc) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.POST("/refresh", refreshMW, h.Refresh)

		me := authGroup.Group("/me")
		me.Use(authMW)
		{
			me.GET("", h.Me)
			me.PUT("", h.UpdateMe)
			me.PUT("/password", h.ChangePassword)
			me.DELETE("", h.DeleteMe)
		}
	}
}
