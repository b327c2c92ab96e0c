package handler

import (
	"github.com/gin-gonic/gin"

	"market-core/internal/handler/response"
	"market-core/internal/service/market"
)

// MarketHandler 只读查询
type MarketHandler struct {
	engine *market.Engine
}

func NewMarketHandler(engine *market.Engine) *MarketHandler {
	return &MarketHandler{engine: engine}
}

// State godoc
// @Summary 市场状态
// @Tags Market
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/market [get]
func (h *MarketHandler) State(c *gin.Context) {
	ctx := c.Request.Context()
	lastLotID, err := h.engine.LastLotID(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	activeCount, err := h.engine.ActiveLotCount(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"address":          h.engine.Address(),
		"owner":            h.engine.Owner(),
		"recipient":        h.engine.Recipient(),
		"platform_fee_bps": h.engine.PlatformFeeBps(),
		"paused":           h.engine.Paused(),
		"last_lot_id":      lastLotID,
		"active_lot_count": activeCount,
	})
}

// Roles GET /api/v1/roles/:address
func (h *MarketHandler) Roles(c *gin.Context) {
	account, err := addressParam(c, "address")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{
		"account":           account,
		"is_owner":          h.engine.Owner() == account,
		"is_allowed_caller": h.engine.IsAllowedCaller(account),
		"is_minter":         h.engine.IsMinter(account),
	})
}

// IsSupportedToken GET /api/v1/tokens/:address/supported
func (h *MarketHandler) IsSupportedToken(c *gin.Context) {
	token, err := addressParam(c, "address")
	if err != nil {
		response.Error(c, err)
		return
	}
	ok, err := h.engine.IsSupportedToken(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"token": token, "supported": ok})
}
