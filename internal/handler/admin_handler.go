package handler

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"market-core/internal/handler/request"
	"market-core/internal/handler/response"
	"market-core/internal/service/market"
)

// AdminHandler owner 专用接口，权限由 engine 校验
type AdminHandler struct {
	engine *market.Engine
}

func NewAdminHandler(engine *market.Engine) *AdminHandler {
	return &AdminHandler{engine: engine}
}

type accountOp = func(ctx context.Context, caller, account common.Address) error

// withAccount body 中的 account 作为操作对象
func (h *AdminHandler) withAccount(op accountOp) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req request.AccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, bindError(err))
			return
		}
		if err := op(c.Request.Context(), callerFrom(c), common.HexToAddress(req.Account)); err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, nil)
	}
}

// withPathAccount 路径中的 :address 作为操作对象
func (h *AdminHandler) withPathAccount(op accountOp) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := addressParam(c, "address")
		if err != nil {
			response.Error(c, err)
			return
		}
		if err := op(c.Request.Context(), callerFrom(c), account); err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, nil)
	}
}

// PUT /api/v1/admin/recipient
func (h *AdminHandler) UpdateRecipient() gin.HandlerFunc {
	return h.withAccount(h.engine.UpdateRecipient)
}

// POST /api/v1/admin/allowed_callers
func (h *AdminHandler) AddAllowedCaller() gin.HandlerFunc {
	return h.withAccount(h.engine.AddAllowedCaller)
}

// DELETE /api/v1/admin/allowed_callers/:address
func (h *AdminHandler) RemoveAllowedCaller() gin.HandlerFunc {
	return h.withPathAccount(h.engine.RemoveAllowedCaller)
}

// POST /api/v1/admin/minters
func (h *AdminHandler) AddMinter() gin.HandlerFunc {
	return h.withAccount(h.engine.AddMinter)
}

// DELETE /api/v1/admin/minters/:address
func (h *AdminHandler) RemoveMinter() gin.HandlerFunc {
	return h.withPathAccount(h.engine.RemoveMinter)
}

// POST /api/v1/admin/ownership
func (h *AdminHandler) TransferOwnership() gin.HandlerFunc {
	return h.withAccount(h.engine.TransferOwnership)
}

// UpdatePlatformFee godoc
// @Summary 修改平台费率
// @Tags Admin
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "owner 地址"
// @Param request body request.PlatformFeeRequest true "Platform Fee Request"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/platform_fee [put]
func (h *AdminHandler) UpdatePlatformFee(c *gin.Context) {
	var req request.PlatformFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	if err := h.engine.UpdatePlatformFee(c.Request.Context(), callerFrom(c), *req.Bps); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Pause POST /api/v1/admin/pause
func (h *AdminHandler) Pause(c *gin.Context) {
	if err := h.engine.Pause(c.Request.Context(), callerFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Unpause POST /api/v1/admin/unpause
func (h *AdminHandler) Unpause(c *gin.Context) {
	if err := h.engine.Unpause(c.Request.Context(), callerFrom(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Rescue 取回误转入的资产，不能动用在售拍品的托管部分
// @Summary 资产救援
// @Tags Admin
// @Accept json
// @Produce json
// @Param X-Caller-Address header string true "owner 地址"
// @Param request body request.RescueRequest true "Rescue Request"
// @Success 200 {object} response.Response
// @Router /api/v1/admin/rescue [post]
func (h *AdminHandler) Rescue(c *gin.Context) {
	var req request.RescueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	err := h.engine.Rescue(c.Request.Context(), callerFrom(c), market.RescueParams{
		To:         common.HexToAddress(req.To),
		Token:      common.HexToAddress(req.Token),
		TokenID:    req.TokenID,
		IsMultiple: req.IsMultiple,
		Amount:     req.Amount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
