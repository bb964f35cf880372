package middleware

import (
	"net/http"

	"account_service/internal/model"
	"account_service/internal/repository"
	"account_service/internal/service"
	"account_service/internal/utils"

	"github.com/gin-gonic/gin"
)

// Cookie carriers. Both are HttpOnly and distinct so an access token can
// never stand in for a refresh token or vice versa.
const (
	AccessTokenCookie  = "user_access_token"
	RefreshTokenCookie = "user_refresh_token"
)

const (
	AuthUserKey = "authUser"
	AuthRoleKey = "authRole"
)

// resolveIdentity verifies the raw token of the given kind and loads the
// subject's user row plus role name inside a read-only unit of work.
func resolveIdentity(c *gin.Context, tokens *utils.TokenService, store *repository.Store, rawToken, kind string) (*model.User, string, bool) {
	userID, err := tokens.Verify(rawToken, kind)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return nil, "", false
	}

	var user *model.User
	var roleName string
	err = store.WithReadTx(c.Request.Context(), func(r repository.Repos) error {
		var err error
		user, err = r.Users.FindByID(c.Request.Context(), userID)
		if err != nil || user == nil {
			return err
		}
		role, err := r.Roles.FindByID(c.Request.Context(), user.RoleID)
		if err != nil {
			return err
		}
		if role != nil {
			roleName = role.Name
		}
		return nil
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve user"})
		return nil, "", false
	}
	if user == nil {
		// token subject was deleted after issuance
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": service.ErrNotFound.Error()})
		return nil, "", false
	}
	return user, roleName, true
}

// Authenticated requires a valid access token and exposes the resolved user
// and role name on the request context.
func Authenticated(tokens *utils.TokenService, store *repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, err := c.Cookie(AccessTokenCookie)
		if err != nil || rawToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": service.ErrUnauthenticated.Error()})
			return
		}

		user, roleName, ok := resolveIdentity(c, tokens, store, rawToken, utils.TokenKindAccess)
		if !ok {
			return
		}
		c.Set(AuthUserKey, user)
		c.Set(AuthRoleKey, roleName)
		c.Next()
	}
}

// AdminOnly gates a route on the privileged role. It must run after
// Authenticated: the check reads the role resolved from storage, never a
// claim or cookie the client could forge.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get(AuthRoleKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Role not resolved, ensure auth middleware runs first"})
			return
		}
		if roleName, ok := roleVal.(string); !ok || roleName != model.RoleNameAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": service.ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}

// RefreshAuthenticated requires a valid refresh token from its own cookie
// and exposes the resolved user; the refresh use case then re-issues the
// pair.
func RefreshAuthenticated(tokens *utils.TokenService, store *repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, err := c.Cookie(RefreshTokenCookie)
		if err != nil || rawToken == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": service.ErrUnauthenticated.Error()})
			return
		}

		user, roleName, ok := resolveIdentity(c, tokens, store, rawToken, utils.TokenKindRefresh)
		if !ok {
			return
		}
		c.Set(AuthUserKey, user)
		c.Set(AuthRoleKey, roleName)
		c.Next()
	}
}
