package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret = []byte(getEnv("JWT_SECRET", "your-secret-key-change-in-production"))

// JWTSecret is the signing key shared with the auth handlers.
func JWTSecret() []byte {
	return jwtSecret
}

// AuthMiddleware validates the Bearer token and puts user_id and role on
// the context. Requests without a valid token are rejected.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := parseBearer(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing token"})
			return
		}

		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}

// OptionalAuth resolves the Bearer token when present but lets anonymous
// requests through, so the guest middleware can classify them.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, role, ok := parseBearer(c); ok {
			c.Set("user_id", userID)
			c.Set("role", role)
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context) (int, string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return 0, "", false
	}

	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return 0, "", false
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", false
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", false
	}
	role, _ := claims["role"].(string)

	return int(userID), role, true
}

// VendorOnly rejects authenticated users that are not vendors.
func VendorOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role := c.GetString("role"); role != "vendor" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Vendor account required"})
			return
		}
		c.Next()
	}
}
