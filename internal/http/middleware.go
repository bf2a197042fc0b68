package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/tazhibayda/workspace-service/internal/domain"
	"github.com/tazhibayda/workspace-service/internal/log"
	"github.com/tazhibayda/workspace-service/internal/permission"
	"github.com/tazhibayda/workspace-service/internal/security"
)

const (
	requestIDKey  = "X-Request-ID"
	authUserKey   = "auth_user"
	memberRoleKey = "member_role"
)

// AuthUser is the caller identified by the bearer token.
type AuthUser struct {
	UserID      primitive.ObjectID
	Email       string
	WorkspaceID primitive.ObjectID
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDKey)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDKey, id)
		c.Next()
	}
}

func AuthJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer"})
			return
		}
		claims, err := security.ParseAccess(secret, strings.TrimSpace(h[len("Bearer "):]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		uid := claims.UID
		if uid == "" {
			uid = claims.Subject
		}
		userID, err := primitive.ObjectIDFromHex(uid)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no uid"})
			return
		}
		au := AuthUser{UserID: userID, Email: claims.Email}
		if wid, err := primitive.ObjectIDFromHex(claims.WID); err == nil {
			au.WorkspaceID = wid
		}

		c.Set(authUserKey, au)
		c.Next()
	}
}

func authUser(c *gin.Context) (AuthUser, bool) {
	v, ok := c.Get(authUserKey)
	if !ok {
		return AuthUser{}, false
	}
	au, ok := v.(AuthUser)
	return au, ok
}

// RequirePermission lets the request through when the caller's role in the
// workspace named by the :id path parameter grants perm. Must run after AuthJWT.
func RequirePermission(store Store, perm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		au, ok := authUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		wsID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid workspace id"})
			return
		}

		ctx := c.Request.Context()
		m, err := store.FindMember(ctx, nil, au.UserID, wsID)
		if err != nil {
			writeErr(c, err)
			c.Abort()
			return
		}
		if m == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not a member of this workspace"})
			return
		}
		role, err := store.FindRoleByID(ctx, nil, m.RoleID)
		if err != nil {
			writeErr(c, err)
			c.Abort()
			return
		}
		if role == nil {
			log.WithDD(ctx, log.L()).Warn("member references missing role",
				zap.String("member_id", m.ID.Hex()), zap.String("role_id", m.RoleID.Hex()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role not found"})
			return
		}
		if !permission.Allows(role.Permissions, perm) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing permission " + perm})
			return
		}

		c.Set(memberRoleKey, role)
		c.Next()
	}
}

func memberRole(c *gin.Context) *domain.Role {
	v, _ := c.Get(memberRoleKey)
	r, _ := v.(*domain.Role)
	return r
}
