package middleware

import (
	"errors"
	"net/http"

	storeapp "github.com/comercio/backend/internal/application/store"
	"github.com/comercio/backend/internal/domain/shared"
	"github.com/comercio/backend/internal/domain/store"
	"github.com/comercio/backend/internal/infrastructure/logger"
	"github.com/comercio/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Store context keys
const (
	StoreIDKey    = "store_id"
	MemberRoleKey = "member_role"
)

// StoreAccess resolves the :storeId path parameter and requires the
// authenticated user to be a member of that store. The store ID and
// the member's role are stored in the gin context; the store ID is
// also attached to the request context for log correlation.
//
// Non-members get 404 rather than 403 so the API does not confirm
// that a store exists.
func StoreAccess(stores *storeapp.StoreService) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeID, err := uuid.Parse(c.Param("storeId"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound,
				dto.NewErrorResponse(dto.ErrCodeNotFound, "Store not found", GetRequestID(c)))
			return
		}

		userID := CurrentUserID(c)
		if userID == uuid.Nil {
			abortUnauthorized(c, "Authentication required")
			return
		}

		role, err := stores.ResolveRole(c.Request.Context(), storeID, userID)
		if err != nil {
			switch {
			case err == shared.ErrNotFound || err == shared.ErrForbidden:
				c.AbortWithStatusJSON(http.StatusNotFound,
					dto.NewErrorResponse(dto.ErrCodeNotFound, "Store not found", GetRequestID(c)))
			default:
				var domainErr *shared.DomainError
				if errors.As(err, &domainErr) {
					c.AbortWithStatusJSON(dto.GetHTTPStatus(domainErr.Code),
						dto.NewErrorResponse(domainErr.Code, domainErr.Message, GetRequestID(c)))
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					dto.NewErrorResponse(dto.ErrCodeInternal, "An unexpected error occurred", GetRequestID(c)))
			}
			return
		}

		c.Set(StoreIDKey, storeID)
		c.Set(MemberRoleKey, role)
		c.Request = c.Request.WithContext(logger.WithStoreID(c.Request.Context(), storeID.String()))

		c.Next()
	}
}

// RequireManage rejects members whose role may not change records or
// memberships. Staff can read and create; admins and the owner can
// edit, transition status and manage members.
func RequireManage() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentMemberRole(c)
		if !role.CanManage() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponse(dto.ErrCodeForbidden, "Admin or owner role required", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// CurrentStoreID returns the store resolved by StoreAccess
func CurrentStoreID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(StoreIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// CurrentMemberRole returns the caller's role in the resolved store
func CurrentMemberRole(c *gin.Context) store.MemberRole {
	if v, ok := c.Get(MemberRoleKey); ok {
		if role, ok := v.(store.MemberRole); ok {
			return role
		}
	}
	return ""
}
