package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vnkhanh/hostel-server/gateway"
	"github.com/vnkhanh/hostel-server/models"
	"github.com/vnkhanh/hostel-server/utils"
)

const (
	CtxProfile = "profile"
	CtxUserID  = "user_id"
)

type ProfileLookup interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// AuthJWT checks Authorization: Bearer <token>, loads the caller's profile and
// forwards the token on the request context so the gateway acts as the caller.
func AuthJWT(secret string, profiles ProfileLookup, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing or invalid Authorization header"})
			return
		}
		rawToken := strings.TrimSpace(authHeader[7:])

		claims, err := utils.VerifyToken(secret, rawToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}
		uid, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid subject"})
			return
		}

		ctx := gateway.WithAccessToken(c.Request.Context(), rawToken)
		profile, err := profiles.GetProfile(ctx, uid)
		if err != nil {
			if errors.Is(err, gateway.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Profile not found"})
				return
			}
			logger.Error("profile lookup failed", zap.String("user_id", uid.String()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"message": "Could not verify the signed-in user"})
			return
		}

		c.Request = c.Request.WithContext(ctx)
		c.Set(CtxUserID, uid)
		c.Set(CtxProfile, *profile)
		c.Next()
	}
}

// RequireAdmin only lets administrators through. Must run after AuthJWT.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxProfile)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		if p, _ := v.(models.Profile); p.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Admin access required"})
			return
		}
		c.Next()
	}
}
