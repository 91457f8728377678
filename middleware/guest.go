package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// GuestCookieName is the anonymous per-browser identifier cookie.
	GuestCookieName = "guest_token"

	guestCookieMaxAge = 30 * 24 * 60 * 60 // 30 days

	CustomerTypeAuthenticated = "authenticated"
	CustomerTypeGuest         = "guest"
)

// GuestToken issues or reuses the guest_token cookie for requests that are
// not authenticated. Authenticated requests pass through untouched.
func GuestToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("user_id"); exists {
			c.Next()
			return
		}

		token, err := c.Cookie(GuestCookieName)
		if err != nil || token == "" {
			token = uuid.NewString()
			secure := getEnv("APP_ENV", "development") == "production"
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(GuestCookieName, token, guestCookieMaxAge, "/", "", secure, true)
		}

		c.Set(GuestCookieName, token)
		c.Next()
	}
}

// IdentifyCustomer classifies the request as authenticated or guest. A
// request carrying neither identity signal is a client error, not a server
// fault.
func IdentifyCustomer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("user_id"); exists {
			c.Set("customer_type", CustomerTypeAuthenticated)
			c.Next()
			return
		}

		if token := c.GetString(GuestCookieName); token != "" {
			c.Set("customer_type", CustomerTypeGuest)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no customer identity"})
	}
}
