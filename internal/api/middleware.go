package api

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/i18n"
	"alcyxob/coaching-plans/internal/service"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Constants for context keys
const (
	ContextActorKey  = "actor"
	ContextLocaleKey = "locale"
)

// AuthMiddleware creates a Gin middleware for JWT authentication. A valid
// token is turned into a domain.Actor stored in the context.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		claims := &service.TokenClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, fmt.Sprintf("Invalid token: %v", err))
			}
			return
		}
		if !token.Valid || claims.Role == "" || claims.ExpiresAt == nil {
			abortWithError(c, http.StatusUnauthorized, "Invalid token or missing claims")
			return
		}
		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Invalid user ID in token")
			return
		}

		c.Set(ContextActorKey, domain.Actor{UserID: userID, Role: claims.Role})
		c.Next()
	}
}

// LocaleMiddleware resolves the display locale from ?lang= or Accept-Language.
func LocaleMiddleware(defaultLocale domain.Locale) gin.HandlerFunc {
	return func(c *gin.Context) {
		locale := defaultLocale
		if raw := c.Query("lang"); raw != "" {
			locale = i18n.ParseLocale(raw)
		} else if raw := c.GetHeader("Accept-Language"); raw != "" {
			locale = i18n.ParseLocale(raw)
		}
		c.Set(ContextLocaleKey, locale)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RoleMiddleware creates middleware to check if user has the required role(s).
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFromContext(c)
		if !ok {
			abortWithError(c, http.StatusInternalServerError, "User identity not found in context")
			return
		}
		for _, allowedRole := range allowedRoles {
			if actor.Role == allowedRole {
				c.Next()
				return
			}
		}
		abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", actor.Role))
	}
}

// actorFromContext returns the caller set by AuthMiddleware.
func actorFromContext(c *gin.Context) (domain.Actor, bool) {
	raw, exists := c.Get(ContextActorKey)
	if !exists {
		return domain.Actor{}, false
	}
	actor, ok := raw.(domain.Actor)
	return actor, ok
}

// mustActor is actorFromContext for handlers behind AuthMiddleware; it aborts
// the request when the actor is missing.
func mustActor(c *gin.Context) (domain.Actor, bool) {
	actor, ok := actorFromContext(c)
	if !ok {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
	}
	return actor, ok
}

func localeFromContext(c *gin.Context) domain.Locale {
	if raw, ok := c.Get(ContextLocaleKey); ok {
		if l, ok := raw.(domain.Locale); ok {
			return l
		}
	}
	return domain.DefaultLocale
}

// pathID parses an ObjectID path parameter, aborting with 400 when malformed.
func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid %s format.", name))
		return primitive.NilObjectID, false
	}
	return id, true
}
