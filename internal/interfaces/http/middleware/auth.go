package middleware

import (
	"strings"

	"github.com/comercio/backend/internal/infrastructure/auth"
	"github.com/comercio/backend/internal/infrastructure/logger"
	"github.com/comercio/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Auth context keys
const (
	ClaimsKey = "jwt_claims"
	UserIDKey = "user_id"
)

const bearerPrefix = "Bearer "

// Authenticator validates bearer tokens on protected routes
type Authenticator struct {
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewAuthenticator creates an Authenticator
func NewAuthenticator(jwtService *auth.JWTService, blacklist auth.TokenBlacklist, log *zap.Logger) *Authenticator {
	return &Authenticator{jwtService: jwtService, blacklist: blacklist, logger: log}
}

// RequireAuth rejects requests without a valid, non-revoked access
// token. On success the parsed claims and user ID are stored in the
// gin context and the user ID is attached to the request context for
// log correlation.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			abortUnauthorized(c, "Missing or malformed authorization header")
			return
		}
		token := strings.TrimPrefix(header, bearerPrefix)
		if token == "" {
			abortUnauthorized(c, "Missing token")
			return
		}

		claims, err := a.jwtService.ValidateAccessToken(token)
		if err != nil {
			if err == auth.ErrExpiredToken {
				abortUnauthorized(c, "Token has expired")
				return
			}
			abortUnauthorized(c, "Invalid token")
			return
		}

		if a.blacklist != nil && claims.ID != "" {
			revoked, err := a.blacklist.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// Fail open on blacklist outages to keep the API available.
				a.logger.Error("token blacklist check failed",
					zap.String("jti", claims.ID), zap.Error(err))
			} else if revoked {
				abortUnauthorized(c, "Token has been revoked")
				return
			}
		}

		userID, err := claims.GetUserUUID()
		if err != nil {
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, userID)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), userID.String()))

		c.Next()
	}
}

// CurrentUserID returns the authenticated user's ID, or uuid.Nil when
// the request did not pass RequireAuth
func CurrentUserID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// CurrentClaims returns the validated JWT claims, if any
func CurrentClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(dto.GetHTTPStatus(dto.ErrCodeUnauthorized),
		dto.NewErrorResponse(dto.ErrCodeUnauthorized, message, GetRequestID(c)))
}
