package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func setupGuestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GuestToken(), IdentifyCustomer())
	router.GET("/checkout", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"customer_type": c.GetString("customer_type"),
			"guest_token":   c.GetString(GuestCookieName),
		})
	})
	return router
}

func TestGuestToken_IssuesCookie(t *testing.T) {
	router := setupGuestRouter()

	req := httptest.NewRequest("GET", "/checkout", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	resp := w.Result()
	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == GuestCookieName {
			cookie = ck
		}
	}
	if cookie == nil {
		t.Fatal("Expected a guest_token Set-Cookie header")
	}
	if cookie.Value == "" {
		t.Error("Expected a non-empty guest token")
	}
	if !cookie.HttpOnly {
		t.Error("Expected the guest cookie to be HttpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("Expected SameSite=Lax, got %v", cookie.SameSite)
	}
	if cookie.MaxAge != 30*24*60*60 {
		t.Errorf("Expected a 30-day MaxAge, got %d", cookie.MaxAge)
	}
}

func TestGuestToken_ReusesExistingCookie(t *testing.T) {
	router := setupGuestRouter()

	req := httptest.NewRequest("GET", "/checkout", nil)
	req.AddCookie(&http.Cookie{Name: GuestCookieName, Value: "existing-token"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	for _, ck := range w.Result().Cookies() {
		if ck.Name == GuestCookieName {
			t.Errorf("Expected no new Set-Cookie, got %s", ck.Value)
		}
	}
	if !strings.Contains(w.Body.String(), "existing-token") {
		t.Errorf("Expected the existing token on the context, got %s", w.Body.String())
	}
}

func TestGuestToken_SkipsAuthenticatedRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", 42)
		c.Next()
	}, GuestToken(), IdentifyCustomer())
	router.GET("/checkout", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"customer_type": c.GetString("customer_type")})
	})

	req := httptest.NewRequest("GET", "/checkout", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	for _, ck := range w.Result().Cookies() {
		if ck.Name == GuestCookieName {
			t.Error("Expected no guest cookie for an authenticated request")
		}
	}
	if !strings.Contains(w.Body.String(), CustomerTypeAuthenticated) {
		t.Errorf("Expected authenticated classification, got %s", w.Body.String())
	}
}

func TestIdentifyCustomer_RejectsMissingIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	// No GuestToken middleware, so nothing puts an identity on the context.
	router.Use(IdentifyCustomer())
	router.GET("/checkout", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/checkout", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
	if !strings.Contains(w.Body.String(), "no customer identity") {
		t.Errorf("Expected the identity error message, got %s", w.Body.String())
	}
}
