package handler

import (
	storeapp "github.com/comercio/backend/internal/application/store"
	"github.com/comercio/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// StoreHandler handles store and membership endpoints
type StoreHandler struct {
	BaseHandler
	service       *storeapp.StoreService
	authenticator *middleware.Authenticator
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(service *storeapp.StoreService, authenticator *middleware.Authenticator) *StoreHandler {
	return &StoreHandler{service: service, authenticator: authenticator}
}

// RegisterRoutes registers store routes
func (h *StoreHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stores := rg.Group("/stores", h.authenticator.RequireAuth())
	{
		stores.POST("", h.CreateStore)
		stores.GET("", h.ListMyStores)

		scoped := stores.Group("/:storeId", middleware.StoreAccess(h.service))
		{
			scoped.GET("", h.GetStore)
			scoped.POST("/members", middleware.RequireManage(), h.AddMember)
		}
	}
}

// CreateStore creates a store owned by the caller
func (h *StoreHandler) CreateStore(c *gin.Context) {
	var req storeapp.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.OwnerID = middleware.CurrentUserID(c)

	store, err := h.service.CreateStore(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, store)
}

// ListMyStores lists the caller's stores
func (h *StoreHandler) ListMyStores(c *gin.Context) {
	var filter storeapp.ListStoresFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	stores, err := h.service.ListMyStores(c.Request.Context(), middleware.CurrentUserID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stores)
}

// GetStore returns a store with its membership
func (h *StoreHandler) GetStore(c *gin.Context) {
	store, err := h.service.GetStore(c.Request.Context(),
		middleware.CurrentStoreID(c), middleware.CurrentUserID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, store)
}

// AddMember adds a user to the store by email
func (h *StoreHandler) AddMember(c *gin.Context) {
	var req storeapp.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ActorID = middleware.CurrentUserID(c)

	store, err := h.service.AddMember(c.Request.Context(), middleware.CurrentStoreID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, store)
}
