package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"restaurant-service/internal/auth"
	"restaurant-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDKey = "rid"
	claimsKey    = "claims"

	accessTokenCookie = "access_token"
)

// requestID propagates X-Request-ID, generating one when absent
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
		util.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

// gatedPages are customer screens that only make sense with an ID in the
// query string
var gatedPages = []struct {
	prefix string
	param  string
}{
	{"/session", "table_id"},
	{"/menu", "session_id"},
	{"/invoice", "order_id"},
}

var bareAPIPaths = []string{"/api/session", "/api/menu", "/api/invoice"}

// pageGate redirects page requests without a valid ID to the landing page
// and refuses the bare API variants of those pages.
func pageGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		for _, page := range gatedPages {
			if !strings.HasPrefix(path, page.prefix) {
				continue
			}
			if !isUUID(c.Query(page.param)) {
				c.Redirect(http.StatusFound, "/")
				c.Abort()
				return
			}
		}

		for _, base := range bareAPIPaths {
			if path == base || path == base+"/" {
				c.String(http.StatusForbidden, fmt.Sprintf("Missing required parameter in %s", base))
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

// apiKeyGate requires the shared x-api-key header when enabled. With no key
// configured every request is denied.
func apiKeyGate(enabled bool, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if enabled && (key == "" || c.GetHeader("x-api-key") != key) {
			c.String(http.StatusForbidden, "Access denied")
			c.Abort()
			return
		}
		c.Next()
	}
}

// staffAuth requires a valid staff token from the access_token cookie or an
// Authorization: Bearer header.
func staffAuth(tokens *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(accessTokenCookie)
		if token == "" {
			header := c.GetHeader("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}
		}

		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Missing token",
			})
			return
		}

		claims, err := tokens.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid token",
				"error":   err.Error(),
			})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func currentStaff(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}
