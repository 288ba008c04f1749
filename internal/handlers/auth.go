package handlers

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"

	"github.com/joanrunyiri/Jojos-Boutick/internal/config"
	"github.com/joanrunyiri/Jojos-Boutick/internal/middleware"
	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
)

const refreshCookie = "refresh_token"

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleProfile struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

func oauthConfig(cfg config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     googleoauth.Endpoint,
	}
}

func issueAccessToken(user models.User, secret string, ttl time.Duration) (string, error) {
	role := "customer"
	if user.IsAdmin {
		role = "admin"
	}
	claims := jwt.MapClaims{
		"userId": user.ID.Hex(),
		"role":   role,
		"exp":    time.Now().Add(ttl).Unix(),
		"iat":    time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func newOpaqueToken() (token string, hash string, err error) {
	raw := make([]byte, 32)
	if _, err = rand.Read(raw); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(raw)
	sum := sha256.Sum256([]byte(token))
	return token, hex.EncodeToString(sum[:]), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// GoogleCallback exchanges the authorization code for a Google profile,
// upserts the user, and issues the access token plus a refresh session.
func GoogleCallback(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/callback"
		defer handlePanic(c, route)

		code := strings.TrimSpace(c.Query("code"))
		if code == "" {
			respondWithError(c, http.StatusBadRequest, route, "missing authorization code")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		conf := oauthConfig(cfg)
		token, err := conf.Exchange(ctx, code)
		if err != nil {
			log.Println("[AUTH] [ERROR] code exchange failed:", err)
			respondWithError(c, http.StatusUnauthorized, route, "authentication failed")
			return
		}

		resp, err := conf.Client(ctx, token).Get(googleUserinfoURL)
		if err != nil {
			log.Println("[AUTH] [ERROR] userinfo fetch failed:", err)
			respondWithError(c, http.StatusBadGateway, route, "authentication failed")
			return
		}
		defer resp.Body.Close()

		var profile googleProfile
		if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil || profile.Email == "" {
			respondWithError(c, http.StatusBadGateway, route, "authentication failed")
			return
		}

		now := time.Now()
		var user models.User
		err = db.Collection("users").FindOneAndUpdate(ctx,
			bson.M{"email": profile.Email},
			bson.M{
				"$set": bson.M{
					"name":      profile.Name,
					"picture":   profile.Picture,
					"updatedAt": now,
				},
				"$setOnInsert": bson.M{
					"email":     profile.Email,
					"isAdmin":   false,
					"createdAt": now,
				},
			},
			options.FindOneAndUpdate().
				SetUpsert(true).
				SetReturnDocument(options.After),
		).Decode(&user)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		accessToken, err := issueAccessToken(user, cfg.JWTSecret, cfg.AccessTokenTTL)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token error")
			return
		}

		refreshToken, refreshHash, err := newOpaqueToken()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token error")
			return
		}

		session := models.Session{
			UserID:    user.ID,
			TokenHash: refreshHash,
			ExpiresAt: now.Add(cfg.SessionTTL),
			CreatedAt: now,
		}
		if _, err := db.Collection("user_sessions").InsertOne(ctx, session); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.SessionCookie, accessToken,
			int(cfg.AccessTokenTTL.Seconds()), "/", "", false, true)
		c.SetCookie(refreshCookie, refreshToken,
			int(cfg.SessionTTL.Seconds()), "/", "", false, true)

		log.Println("[AUTH] [INFO] user signed in:", user.Email)
		c.JSON(http.StatusOK, user)
	}
}

// Refresh exchanges a valid refresh session for a fresh access token.
func Refresh(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/refresh"
		defer handlePanic(c, route)

		refreshToken, err := c.Cookie(refreshCookie)
		if err != nil || strings.TrimSpace(refreshToken) == "" {
			respondWithError(c, http.StatusUnauthorized, route, "not authenticated")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var session models.Session
		err = db.Collection("user_sessions").
			FindOne(ctx, bson.M{"tokenHash": hashToken(refreshToken)}).Decode(&session)
		if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && session.ExpiresAt.Before(time.Now())) {
			respondWithError(c, http.StatusUnauthorized, route, "session expired")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": session.UserID}).Decode(&user); err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "not authenticated")
			return
		}

		accessToken, err := issueAccessToken(user, cfg.JWTSecret, cfg.AccessTokenTTL)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "token error")
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(middleware.SessionCookie, accessToken,
			int(cfg.AccessTokenTTL.Seconds()), "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"message": "refreshed"})
	}
}

// GetMe returns the authenticated user's profile.
func GetMe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /auth/me"
		defer handlePanic(c, route)

		userID, ok := currentUserID(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "not authenticated")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var user models.User
		err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusUnauthorized, route, "not authenticated")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, user)
	}
}

// Logout revokes the refresh session and clears both cookies.
func Logout(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/logout"
		defer handlePanic(c, route)

		if refreshToken, err := c.Cookie(refreshCookie); err == nil && refreshToken != "" {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			if _, err := db.Collection("user_sessions").
				DeleteOne(ctx, bson.M{"tokenHash": hashToken(refreshToken)}); err != nil {
				log.Println("[AUTH] [ERROR] session delete failed:", err)
			}
		}

		c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
		c.SetCookie(refreshCookie, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

type makeAdminRequest struct {
	Email string `json:"email" binding:"required"`
}

// MakeAdmin grants the admin role to a user by email. The new role takes
// effect on that user's next sign-in.
func MakeAdmin(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /auth/make-admin"
		defer handlePanic(c, route)

		var req makeAdminRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("users").UpdateOne(ctx,
			bson.M{"email": req.Email},
			bson.M{"$set": bson.M{"isAdmin": true, "updatedAt": time.Now()}},
		)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "user not found")
			return
		}

		log.Println("[AUTH] [INFO] admin granted to:", req.Email)
		c.JSON(http.StatusOK, gin.H{"message": req.Email + " is now an admin"})
	}
}
