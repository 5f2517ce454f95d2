package handler

import (
	"net/http"
	"time"

	"github.com/comercio/backend/internal/infrastructure/rates"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RatesHandler exposes the current exchange rates
type RatesHandler struct {
	BaseHandler
	provider rates.Provider
}

// NewRatesHandler creates a new RatesHandler
func NewRatesHandler(provider rates.Provider) *RatesHandler {
	return &RatesHandler{provider: provider}
}

// RegisterRoutes registers exchange rate routes
func (h *RatesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/rates", h.GetRates)
}

// RatesResponse represents exchange rates in API responses
type RatesResponse struct {
	USDToVES  decimal.Decimal `json:"usd_to_ves"`
	EURToVES  decimal.Decimal `json:"eur_to_ves"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// GetRates returns the current USD and EUR rates against VES
func (h *RatesHandler) GetRates(c *gin.Context) {
	current, err := h.provider.FetchRates(c.Request.Context())
	if err != nil {
		// Upstream scrape failed and no cached copy was available.
		h.Error(c, http.StatusServiceUnavailable, "RATES_UNAVAILABLE", "Exchange rates are temporarily unavailable")
		return
	}

	h.Success(c, RatesResponse{
		USDToVES:  current.USDToVES,
		EURToVES:  current.EURToVES,
		FetchedAt: current.FetchedAt,
	})
}
