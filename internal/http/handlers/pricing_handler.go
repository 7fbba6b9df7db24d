package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"twende/internal/modules/pricing"
	"twende/internal/types"
)

type PricingHandler struct {
	pricing *pricing.Service
}

func NewPricingHandler(svc *pricing.Service) *PricingHandler {
	return &PricingHandler{pricing: svc}
}

type createConfigReq struct {
	Name          string `json:"name"`
	BaseFare      int64  `json:"base_fare"`
	PricePerKm    int64  `json:"price_per_km"`
	PricePerMin   int64  `json:"price_per_minute"`
	CommissionBps int    `json:"platform_commission_bps"`
	Activate      bool   `json:"activate"`
}

func (h *PricingHandler) Create(c *gin.Context) {
	var req createConfigReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cfg, err := h.pricing.Create(c.Request.Context(), pricing.CreateCommand{
		Name:          req.Name,
		BaseFare:      req.BaseFare,
		PricePerKm:    req.PricePerKm,
		PricePerMin:   req.PricePerMin,
		CommissionBps: req.CommissionBps,
		Activate:      req.Activate,
	})
	if err != nil {
		writePricingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

func (h *PricingHandler) Activate(c *gin.Context) {
	if err := h.pricing.Activate(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writePricingError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PricingHandler) List(c *gin.Context) {
	configs, err := h.pricing.List(c.Request.Context())
	if err != nil {
		writePricingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configs": configs})
}

func (h *PricingHandler) GetActive(c *gin.Context) {
	cfg, err := h.pricing.GetActive(c.Request.Context())
	if err != nil {
		writePricingError(c, err)
		return
	}
	if cfg == nil {
		writeError(c, http.StatusNotFound, pricing.ErrNoActiveConfig.Error())
		return
	}
	c.JSON(http.StatusOK, cfg)
}
