package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionCookie carries the access token for browser clients; API clients may
// send the same token as a Bearer header instead.
const SessionCookie = "session_token"

func tokenFromRequest(c *gin.Context) string {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if raw != "" {
		parts := strings.Split(raw, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// ParseUserID validates a token and extracts the userId claim. Shared by the
// guards below and by handlers that allow anonymous access.
func ParseUserID(tokenString, secret string) (primitive.ObjectID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return primitive.NilObjectID, jwt.ErrTokenUnverifiable
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return primitive.NilObjectID, jwt.ErrTokenInvalidClaims
	}

	userIDValue, ok := claims["userId"].(string)
	if !ok || strings.TrimSpace(userIDValue) == "" {
		return primitive.NilObjectID, jwt.ErrTokenInvalidClaims
	}

	return primitive.ObjectIDFromHex(userIDValue)
}

// OptionalUserID returns the authenticated user's id, or nil when the request
// carries no usable token. Used by cart handlers that also serve guests.
func OptionalUserID(c *gin.Context, secret string) *primitive.ObjectID {
	tokenString := tokenFromRequest(c)
	if tokenString == "" {
		return nil
	}
	userID, err := ParseUserID(tokenString, secret)
	if err != nil {
		return nil
	}
	return &userID
}

// UserAuth validates the token and injects the userId into the context.
func UserAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			log.Println("[AUTH] [ERROR] missing token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		userID, err := ParseUserID(tokenString, secret)
		if err != nil {
			log.Println("[AUTH] [ERROR] token validation failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		c.Set("userId", userID)
		c.Next()
	}
}

// AdminAuth additionally requires the admin role claim.
func AdminAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := tokenFromRequest(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		role, _ := claims["role"].(string)
		if role != "admin" {
			log.Println("[AUTH] [ERROR] admin access denied")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}

		userIDValue, _ := claims["userId"].(string)
		if userID, err := primitive.ObjectIDFromHex(userIDValue); err == nil {
			c.Set("userId", userID)
		}
		c.Next()
	}
}
